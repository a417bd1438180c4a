// Package sitemap locates and resolves Sitemap-protocol documents into a
// deduplicated set of page URLs, following nested sitemap indexes with
// cycle protection.
package sitemap

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mjfield/edgewarm/internal/fetch"
)

// ErrNotFound reports that no candidate sitemap path answered.
var ErrNotFound = errors.New("no sitemap found")

// FetchError wraps a failed sitemap fetch. It is non-fatal to resolution:
// the node simply contributes no URLs.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch sitemap %s: %v", e.URL, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// ParseError wraps malformed sitemap XML.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse sitemap %s: %v", e.URL, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// DefaultCandidatePaths are probed in order when discovering a sitemap.
func DefaultCandidatePaths() []string {
	return []string{
		"/sitemap.xml",
		"/sitemap_index.xml",
		"/sitemap/",
		"/sitemaps/",
		"/sitemap/sitemap.xml",
		"/wp-sitemap.xml",
	}
}

// Config controls resolver behavior.
type Config struct {
	// CandidatePaths overrides DefaultCandidatePaths when non-empty.
	CandidatePaths []string
	// Retries is the attempt budget per sitemap fetch.
	Retries int
	// RetryDelay is the fixed pause between failed fetch attempts.
	RetryDelay time.Duration
}

// Resolver fetches and parses sitemaps sequentially. The shared visited set
// keeps cyclic sitemap-index graphs from being re-fetched, so traversal
// always terminates.
type Resolver struct {
	fetcher fetch.Fetcher
	cfg     Config
	logger  *zap.Logger
}

// New constructs a Resolver.
func New(fetcher fetch.Fetcher, cfg Config, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.CandidatePaths) == 0 {
		cfg.CandidatePaths = DefaultCandidatePaths()
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	return &Resolver{fetcher: fetcher, cfg: cfg, logger: logger}
}

// Discover probes the candidate paths under baseURL in order and returns the
// first sitemap URL that fetches with status 200, or ErrNotFound.
func (r *Resolver) Discover(ctx context.Context, baseURL string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	for _, path := range r.cfg.CandidatePaths {
		candidate := base.ResolveReference(&url.URL{Path: path}).String()
		if _, err := r.fetchWithRetry(ctx, candidate); err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			r.logger.Debug("sitemap candidate miss", zap.String("url", candidate), zap.Error(err))
			continue
		}
		r.logger.Info("sitemap found", zap.String("url", candidate))
		return candidate, nil
	}
	return "", ErrNotFound
}

// Resolve walks the sitemap graph rooted at sitemapURL and returns the
// ordered, deduplicated page URLs it lists. Nested sitemaps and sitemap
// indexes are followed; a URL already in visited is skipped, never
// re-fetched. Per-node fetch and parse failures are logged and contribute
// no URLs.
func (r *Resolver) Resolve(ctx context.Context, sitemapURL string, visited map[string]struct{}) ([]string, error) {
	if visited == nil {
		visited = make(map[string]struct{})
	}
	var (
		pages []string
		seen  = make(map[string]struct{})
		stack = []string{sitemapURL}
	)

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return pages, err
		}
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, ok := visited[node]; ok {
			continue
		}
		visited[node] = struct{}{}
		r.logger.Info("processing sitemap", zap.String("url", node))

		children, urls, err := r.resolveNode(ctx, node)
		if err != nil {
			r.logger.Warn("sitemap node skipped", zap.String("url", node), zap.Error(err))
			continue
		}
		stack = append(stack, children...)
		for _, u := range urls {
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			pages = append(pages, u)
		}
	}
	return pages, nil
}

func (r *Resolver) resolveNode(ctx context.Context, sitemapURL string) (children, pages []string, err error) {
	body, err := r.fetchWithRetry(ctx, sitemapURL)
	if err != nil {
		return nil, nil, &FetchError{URL: sitemapURL, Err: err}
	}

	var doc document
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, nil, &ParseError{URL: sitemapURL, Err: err}
	}

	if doc.XMLName.Local == "sitemapindex" {
		for _, entry := range doc.Sitemaps {
			if loc := strings.TrimSpace(entry.Loc); loc != "" {
				children = append(children, loc)
			}
		}
		return children, nil, nil
	}

	for _, entry := range doc.URLs {
		loc := strings.TrimSpace(entry.Loc)
		switch {
		case loc == "":
		case isSitemapFile(loc):
			// A sitemap listed as a page entry is still a sitemap.
			children = append(children, loc)
		case isExcludedPath(loc):
		default:
			pages = append(pages, loc)
		}
	}
	return children, pages, nil
}

func (r *Resolver) fetchWithRetry(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.Retries; attempt++ {
		resp, err := r.fetcher.Fetch(ctx, fetch.Request{URL: rawURL})
		switch {
		case err != nil:
			lastErr = err
		case resp.StatusCode != 200:
			lastErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
		default:
			return decode(rawURL, resp)
		}
		if attempt < r.cfg.Retries {
			if err := pause(ctx, r.cfg.RetryDelay); err != nil {
				return nil, err
			}
		}
	}
	return nil, lastErr
}

// decode unwraps gzip-compressed sitemap bodies, recognized by content type
// or a .gz suffix. Transfer-level gzip is already transparent in net/http.
func decode(rawURL string, resp fetch.Response) ([]byte, error) {
	contentType := resp.Headers.Get("Content-Type")
	if !strings.Contains(contentType, "gzip") && !strings.HasSuffix(rawURL, ".gz") {
		return resp.Body, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("gzip reader: %w", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("gzip read: %w", err)
	}
	return out, nil
}

func isSitemapFile(loc string) bool {
	return strings.HasSuffix(loc, ".xml") || strings.HasSuffix(loc, ".xml.gz")
}

// isExcludedPath filters clearly non-content administrative URLs.
func isExcludedPath(loc string) bool {
	return strings.Contains(loc, "/wp-admin/")
}

func pause(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type document struct {
	XMLName  xml.Name
	Sitemaps []locEntry `xml:"sitemap"`
	URLs     []locEntry `xml:"url"`
}

type locEntry struct {
	Loc string `xml:"loc"`
}
