// Package fetch provides the abstract HTTP GET capability consumed by the
// warming engine, backed by the Colly collector.
package fetch

import (
	"context"
	"net/http"
	"time"
)

// Request describes a single HTTP call.
type Request struct {
	URL     string
	Method  string // GET when empty; HEAD supported for domain probes
	Headers http.Header
}

// Response is the observed result of a completed HTTP exchange. Non-2xx
// statuses are responses, not errors; errors are reserved for transport
// failures and cancellation.
type Response struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Fetcher performs one HTTP request. Implementations must honor ctx.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (Response, error)
}
