package probe

import (
	"context"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/okian/prefixd/internal/adapters/http/client"
	"github.com/okian/prefixd/internal/domain/target"
	"github.com/okian/prefixd/internal/domain/types"
	"github.com/okian/prefixd/pkg/logger"
)

// submitCases asks the service to resolve every case using config.Workers
// concurrent workers. Outcomes keep case order.
func submitCases(ctx context.Context, config *Config, c *client.Client, cases []Case, stats *Stats) []Outcome {
	workers := config.Workers
	if workers <= 0 {
		workers = 1
	}

	outcomes := make([]Outcome, len(cases))
	done := make([]bool, len(cases))
	var submitted, failed int64

	idx := make(chan int, workers*2)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				outcomes[i] = submitCase(ctx, c, cases[i])
				done[i] = true
				atomic.AddInt64(&submitted, 1)
				if outcomes[i].Error != "" {
					atomic.AddInt64(&failed, 1)
				}
				if config.Verbose {
					logger.Get().Debug(ctx, "case resolved",
						logger.String("path", cases[i].Path),
						logger.String("target", cases[i].Target),
						logger.String("got", outcomes[i].Got),
						logger.String("want", cases[i].Want))
				}
			}
		}()
	}

	go func() {
		defer close(idx)
		for i := range cases {
			select {
			case <-ctx.Done():
				return
			case idx <- i:
			}
		}
	}()

	wg.Wait()

	// Cases never sent because ctx ended count as failed.
	for i := range outcomes {
		if !done[i] {
			outcomes[i] = Outcome{Case: cases[i], Error: "not submitted: " + context.Cause(ctx).Error()}
			failed++
		}
	}

	stats.CasesSubmitted = int(atomic.LoadInt64(&submitted))
	stats.Failed = int(failed)
	return outcomes
}

// submitCase resolves a single case through GET /resolve.
func submitCase(ctx context.Context, c *client.Client, tc Case) Outcome {
	q := url.Values{}
	q.Set("path", tc.Path)
	q.Set("target", tc.Target)

	var res types.Resolution
	if err := c.GetJSON(ctx, "/resolve?"+q.Encode(), target.SelfAPI, &res); err != nil {
		return Outcome{Case: tc, Error: err.Error()}
	}
	return Outcome{Case: tc, Got: res.URL}
}
