package crawl

import (
	"context"
	"sync"
	"time"

	"github.com/fwojciec/sitecrawl"
	"golang.org/x/time/rate"
)

var _ sitecrawl.DomainLimiter = (*DomainLimiter)(nil)

// Default think times between requests to the same host during import.
const (
	DefaultPageThinkTime = 100 * time.Millisecond
	DefaultFileThinkTime = 10 * time.Millisecond
)

// DomainLimiter spaces out requests to the same host by a fixed think time.
// Requests to different hosts do not wait on each other.
type DomainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
}

// NewThinkTimeLimiter creates a DomainLimiter that spaces requests to the
// same host at least d apart. A non-positive d disables limiting.
func NewThinkTimeLimiter(d time.Duration) *DomainLimiter {
	limit := rate.Inf
	if d > 0 {
		limit = rate.Every(d)
	}
	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
	}
}

// Wait blocks until a request to host is allowed or ctx is done.
func (d *DomainLimiter) Wait(ctx context.Context, host string) error {
	d.mu.Lock()
	limiter, ok := d.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(d.limit, 1)
		d.limiters[host] = limiter
	}
	d.mu.Unlock()

	return limiter.Wait(ctx)
}
