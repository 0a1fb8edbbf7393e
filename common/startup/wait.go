// Package startup holds boot-time helpers shared by the service binaries.
package startup

import (
	"context"
	"fmt"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"go.uber.org/zap"
)

// DefaultAttempts how many times a dependency is probed before the service gives up.
const DefaultAttempts = 5

// WaitFor calls probe until it succeeds, the attempts run out or ctx is done.
// Only boot-time dependency checks go through here; store calls are never retried.
func WaitFor(ctx context.Context, name string, attempts uint, probe func(ctx context.Context) error, logger *zap.Logger) error {
	if attempts == 0 {
		attempts = DefaultAttempts
	}
	err := retry.Do(
		func() error { return probe(ctx) },
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(10*time.Second),
		retry.DelayType(retry.FullJitterBackoffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("Dependency not ready, retrying",
				zap.String("dependency", name),
				zap.Uint("attempt", n+1),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		return fmt.Errorf("%s not ready: %w", name, err)
	}
	return nil
}
