package fetch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Client implements Fetcher using a Colly collector. Each Fetch clones the
// base collector so per-request hooks never leak between calls.
type Client struct {
	cfg  Config
	base *colly.Collector
}

// NewClient builds a Client. Revisits are allowed and robots.txt is ignored:
// a warmer re-requests its own pages on purpose.
func NewClient(cfg Config) *Client {
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
		colly.ParseHTTPErrorResponse(),
	)
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	c.WithTransport(newHTTPTransport())
	return &Client{cfg: cfg, base: c}
}

// Fetch executes a single HTTP request using Colly.
func (c *Client) Fetch(ctx context.Context, req Request) (Response, error) {
	var (
		result   Response
		fetchErr error
	)
	start := time.Now()

	collector := c.base.Clone()
	timeout := c.cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	collector.SetRequestTimeout(timeout)

	collector.OnRequest(func(r *colly.Request) {
		for key, values := range req.Headers {
			for _, v := range values {
				r.Headers.Set(key, v)
			}
		}
	})
	collector.OnResponse(func(r *colly.Response) {
		result = Response{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Headers:    r.Headers.Clone(),
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			result = Response{
				URL:        req.URL,
				StatusCode: r.StatusCode,
				Duration:   time.Since(start),
			}
			return
		}
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		if req.Method == http.MethodHead {
			done <- collector.Head(req.URL)
			return
		}
		done <- collector.Visit(req.URL)
	}()

	select {
	case <-ctx.Done():
		return Response{}, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if fetchErr != nil {
			return Response{}, fmt.Errorf("fetch %s: %w", req.URL, fetchErr)
		}
		if err != nil && result.StatusCode == 0 {
			return Response{}, fmt.Errorf("fetch %s: %w", req.URL, err)
		}
		return result, nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
