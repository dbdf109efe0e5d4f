package gateway

import "errors"

// Sentinel kinds for gateway errors.
var (
	ErrInvalidOrigin = errors.New("invalid gateway origin")
	ErrInvalidPrefix = errors.New("invalid proxy prefix")
	ErrUpstream      = errors.New("gateway upstream failed")
)
