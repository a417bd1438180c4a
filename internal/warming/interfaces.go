package warming

import (
	"context"
	"time"
)

// URLResolver locates and resolves sitemaps into page URL sets.
type URLResolver interface {
	Discover(ctx context.Context, baseURL string) (string, error)
	Resolve(ctx context.Context, sitemapURL string, visited map[string]struct{}) ([]string, error)
}

// Fallback discovers URLs by crawling when no sitemap is available.
type Fallback interface {
	Crawl(ctx context.Context, seedURL string) ([]string, error)
}

// TargetRequester executes one warm target to a terminal outcome.
type TargetRequester interface {
	Request(ctx context.Context, target WarmTarget) Outcome
}

// Gate throttles workers per edge location key.
type Gate interface {
	Acquire(ctx context.Context, key string) error
}

// Confirmer is the operator consent gate: the run proceeds only on an
// explicit affirmative answer.
type Confirmer interface {
	Confirm(domain string, urlCount, targetCount int) (bool, error)
}

// FallbackAction is the discrete policy choice taken when discovery finds
// nothing to warm.
type FallbackAction int

// Available fallback actions.
const (
	FallbackAbort FallbackAction = iota
	FallbackHomepage
	FallbackManualSitemap
)

// FallbackDecision pairs an action with its parameter.
type FallbackDecision struct {
	Action     FallbackAction
	SitemapURL string
}

// FallbackDecider resolves the no-sitemap policy choice, typically by
// prompting the operator.
type FallbackDecider interface {
	Decide(domain string) (FallbackDecision, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
