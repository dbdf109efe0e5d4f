package probe

import "errors"

// Sentinel kinds for probe failures.
var (
	ErrMismatch    = errors.New("resolution mismatch")
	ErrUnreachable = errors.New("service unreachable")
	ErrNoCases     = errors.New("no cases to verify")
)
