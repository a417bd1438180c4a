package warming

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mjfield/edgewarm/internal/fetch"
)

type scriptedFetcher struct {
	mu       sync.Mutex
	attempts int
	failures int
	failWith error
	status   int
	requests []fetch.Request
}

func (f *scriptedFetcher) Fetch(_ context.Context, req fetch.Request) (fetch.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	f.requests = append(f.requests, req)
	if f.attempts <= f.failures {
		if f.failWith != nil {
			return fetch.Response{}, f.failWith
		}
		status := f.status
		if status == 0 {
			status = 500
		}
		return fetch.Response{URL: req.URL, StatusCode: status}, nil
	}
	return fetch.Response{URL: req.URL, StatusCode: 200, Duration: 5 * time.Millisecond}, nil
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func testTarget() WarmTarget {
	return WarmTarget{
		Domain:   "https://example.com",
		URL:      "https://example.com/page",
		Location: EdgeLocation{Name: "Sydney", Code: "SYD", Region: "Oceania"},
		Phase:    PhaseFlat,
		Pass:     1,
	}
}

func newTestRequester(f fetch.Fetcher, profile HeaderProfile) *Requester {
	return NewRequester(f, profile, RequesterConfig{
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	}, nil, nil)
}

func TestRequesterSucceedsOnLaterAttempt(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{failures: 2}
	r := newTestRequester(fetcher, BunnyProfile("test-agent"))

	outcome := r.Request(context.Background(), testTarget())

	require.True(t, outcome.Success)
	require.Equal(t, 3, outcome.Attempts)
	require.Equal(t, 200, outcome.StatusCode)
	require.Equal(t, FailureNone, outcome.Failure)
}

func TestRequesterExhaustsRetriesOnHTTPStatus(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{failures: 10, status: 500}
	r := newTestRequester(fetcher, BunnyProfile("test-agent"))

	outcome := r.Request(context.Background(), testTarget())

	require.False(t, outcome.Success)
	require.Equal(t, 3, outcome.Attempts)
	require.Equal(t, FailureHTTPStatus, outcome.Failure)
	require.Equal(t, 500, outcome.StatusCode)
}

func TestRequesterClassifiesTimeout(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{failures: 10, failWith: timeoutError{}}
	r := newTestRequester(fetcher, BunnyProfile("test-agent"))

	outcome := r.Request(context.Background(), testTarget())

	require.False(t, outcome.Success)
	require.Equal(t, FailureTimeout, outcome.Failure)
}

func TestRequesterClassifiesTransportError(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{failures: 10, failWith: errors.New("connection refused")}
	r := newTestRequester(fetcher, BunnyProfile("test-agent"))

	outcome := r.Request(context.Background(), testTarget())

	require.False(t, outcome.Success)
	require.Equal(t, FailureTransport, outcome.Failure)
	require.Equal(t, 3, outcome.Attempts)
}

func TestRequesterStopsRetryingWhenCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fetcher := &scriptedFetcher{failures: 10, failWith: errors.New("dial interrupted")}
	r := newTestRequester(fetcher, BunnyProfile("test-agent"))

	outcome := r.Request(ctx, testTarget())

	require.False(t, outcome.Success)
	require.Equal(t, 1, outcome.Attempts)
}

func TestRequesterInjectsEdgeHeaders(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{}
	r := newTestRequester(fetcher, CloudflareProfile("warm-agent/1.0"))

	outcome := r.Request(context.Background(), testTarget())
	require.True(t, outcome.Success)

	require.Len(t, fetcher.requests, 1)
	headers := fetcher.requests[0].Headers
	require.Equal(t, "warm-agent/1.0", headers.Get("User-Agent"))
	require.Equal(t, "no-cache", headers.Get("Cache-Control"))
	require.Equal(t, "AU", headers.Get("CF-IPCountry"))
	require.Equal(t, "SYD", headers.Get("CF-RAY"))
}

func TestProfileExtraHeadersOverride(t *testing.T) {
	t.Parallel()

	profile := ProfileByProvider("cloudflare", "ua", map[string]string{
		"Accept": "text/plain",
		"X-Warm": "1",
	})
	h := profile.Headers(EdgeLocation{Code: "MEL"})

	require.Equal(t, "text/plain", h.Get("Accept"))
	require.Equal(t, "1", h.Get("X-Warm"))
	require.Equal(t, "MEL", h.Get("CF-RAY"))
}
