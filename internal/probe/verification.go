package probe

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/prefixd/pkg/logger"
)

// maxReported caps how many mismatches are spelled out in the error.
const maxReported = 5

// verifyResults tallies outcomes into stats and fails when any case did not
// match or could not be submitted.
func verifyResults(ctx context.Context, outcomes []Outcome, stats *Stats) error {
	if len(outcomes) == 0 {
		return ErrNoCases
	}

	var bad []string
	for _, o := range outcomes {
		switch {
		case o.Error != "":
			bad = append(bad, fmt.Sprintf("%q/%q: %s", o.Path, o.Target, o.Error))
		case o.Mismatch():
			stats.Mismatched++
			bad = append(bad, fmt.Sprintf("%q/%q: got %q want %q", o.Path, o.Target, o.Got, o.Want))
			logger.Get().Warn(ctx, "resolution mismatch",
				logger.String("path", o.Path),
				logger.String("target", o.Target),
				logger.String("got", o.Got),
				logger.String("want", o.Want))
		default:
			stats.Matched++
		}
	}

	if len(bad) == 0 {
		logger.Get().Info(ctx, "all resolutions verified", logger.Int("cases", len(outcomes)))
		return nil
	}

	shown := bad
	if len(shown) > maxReported {
		shown = shown[:maxReported]
	}
	return fmt.Errorf("%w: %d of %d cases failed: %s", ErrMismatch, len(bad), len(outcomes), strings.Join(shown, "; "))
}
