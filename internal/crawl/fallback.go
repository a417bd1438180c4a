// Package crawl implements the bounded breadth-first link discovery used
// when a site exposes no sitemap.
package crawl

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// Config controls fallback crawling.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	// MaxURLs caps how many page URLs one crawl may collect. The cap, plus
	// the emptying frontier, guarantees termination on any link graph.
	MaxURLs int
}

// Crawler discovers same-origin URLs breadth-first from a seed page.
type Crawler struct {
	cfg    Config
	logger *zap.Logger
}

// New constructs a Crawler.
func New(cfg Config, logger *zap.Logger) *Crawler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxURLs <= 0 {
		cfg.MaxURLs = 100
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Crawler{cfg: cfg, logger: logger}
}

// Crawl walks the site starting at seedURL and returns the ordered set of
// reachable same-origin URLs, at most cfg.MaxURLs of them. A page that
// fails to fetch contributes no outgoing links but does not stop the
// traversal.
func (c *Crawler) Crawl(ctx context.Context, seedURL string) ([]string, error) {
	seed, err := url.Parse(seedURL)
	if err != nil {
		return nil, fmt.Errorf("parse seed url: %w", err)
	}

	var (
		pageLinks []string
		fetched   bool
	)
	collector := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	)
	if c.cfg.UserAgent != "" {
		collector.UserAgent = c.cfg.UserAgent
	}
	collector.SetRequestTimeout(c.cfg.Timeout)
	collector.OnResponse(func(_ *colly.Response) {
		fetched = true
	})
	collector.OnHTML("a[href]", func(e *colly.HTMLElement) {
		if link := e.Request.AbsoluteURL(e.Attr("href")); link != "" {
			pageLinks = append(pageLinks, link)
		}
	})

	var (
		results  []string
		frontier = []string{seed.String()}
		visited  = map[string]struct{}{}
	)
	for len(frontier) > 0 && len(results) < c.cfg.MaxURLs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		current := frontier[0]
		frontier = frontier[1:]
		if _, ok := visited[current]; ok {
			continue
		}
		visited[current] = struct{}{}

		pageLinks = pageLinks[:0]
		fetched = false
		if err := collector.Visit(current); err != nil || !fetched {
			c.logger.Warn("crawl fetch failed", zap.String("url", current), zap.Error(err))
			continue
		}
		results = append(results, current)
		c.logger.Debug("crawled page", zap.String("url", current), zap.Int("collected", len(results)))

		for _, link := range pageLinks {
			if !sameOrigin(seed, link) {
				continue
			}
			if _, ok := visited[link]; ok {
				continue
			}
			frontier = append(frontier, link)
		}
	}
	return results, nil
}

func sameOrigin(seed *url.URL, raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return strings.EqualFold(u.Hostname(), seed.Hostname())
}
