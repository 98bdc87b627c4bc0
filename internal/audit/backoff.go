package audit

import (
	"context"
	"fmt"
	"time"
)

// Backoff retries fn up to Attempts times, sleeping Wait between each
// attempt; both clients construct it with 3 attempts and a 3-second
// Wait for connection failures. Shared by internal/audit
// and internal/opsdb, which each hold their own Backoff value — never the
// same *sql.DB, since these are different databases.
type Backoff struct {
	Attempts int
	Wait     time.Duration
}

// Run calls fn, retrying on error until Attempts is exhausted or ctx is
// cancelled.
func (b Backoff) Run(ctx context.Context, fn func() error) error {
	attempts := b.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(); err != nil {
			lastErr = err
			if i < attempts-1 {
				select {
				case <-time.After(b.Wait):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			continue
		}
		return nil
	}
	return fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}
