package sitecrawl

import "context"

// Fetcher retrieves page markup during the import phase.
type Fetcher interface {
	// Fetch returns the body of the URL.
	// Non-2xx responses are returned as errors.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases resources held by the fetcher.
	Close() error
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}
