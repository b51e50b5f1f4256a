package internal

import (
	"context"
	"time"
)

// WithTimeout bounds store and hash work done on behalf of a request,
// defaulting to 5 seconds when the duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
