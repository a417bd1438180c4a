package warming

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mjfield/edgewarm/internal/metrics"
	"github.com/mjfield/edgewarm/internal/progress"
	"github.com/mjfield/edgewarm/internal/sitemap"
)

// Policy selects how the Cartesian product of URLs and locations is
// ordered for dispatch.
type Policy string

// Supported scheduling policies.
const (
	// PolicyFlat dispatches every (url, location) pair exactly once.
	PolicyFlat Policy = "flat"
	// PolicyGeoPriority dispatches PriorityPasses full passes over the
	// priority region before any other region is touched, then every
	// remaining location exactly once.
	PolicyGeoPriority Policy = "geo-priority"
)

// State is the scheduler's per-domain lifecycle position. Transitions are
// strictly forward within one domain cycle.
type State string

// Scheduler states.
const (
	StateIdle        State = "idle"
	StateDiscovering State = "discovering"
	StateConfirming  State = "confirming"
	StateWarming     State = "warming"
	StateSummarizing State = "summarizing"
	StateDone        State = "done"
)

// SchedulerConfig controls a run.
type SchedulerConfig struct {
	// Workers bounds the dispatch pool. Values above the catalog size are
	// clamped: the per-location gate serializes requests anyway.
	Workers int
	Policy  Policy
	// PriorityRegion and PriorityPasses configure PolicyGeoPriority.
	PriorityRegion string
	PriorityPasses int
	// InterDomainCooldown is the mandatory pause between domains.
	InterDomainCooldown time.Duration
	// CrawlFallback enables link crawling when no sitemap is found.
	CrawlFallback bool
	// ManualSitemapURL, when set, skips candidate-path discovery.
	ManualSitemapURL string
}

// Scheduler orchestrates a warming run: discovery, operator confirmation,
// the throttled warming fan-out, and summarization.
type Scheduler struct {
	catalog   Catalog
	resolver  URLResolver
	fallback  Fallback
	requester TargetRequester
	gate      Gate
	confirmer Confirmer
	decider   FallbackDecider
	agg       *Aggregator
	emitter   progress.Emitter
	clock     Clock
	cfg       SchedulerConfig
	logger    *zap.Logger

	state atomic.Value
}

// NewScheduler wires the orchestration core together.
func NewScheduler(
	catalog Catalog,
	resolver URLResolver,
	fallback Fallback,
	requester TargetRequester,
	gate Gate,
	confirmer Confirmer,
	decider FallbackDecider,
	emitter progress.Emitter,
	clock Clock,
	cfg SchedulerConfig,
	logger *zap.Logger,
) *Scheduler {
	if emitter == nil {
		emitter = progress.Discard
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicyFlat
	}
	if cfg.PriorityPasses <= 0 {
		cfg.PriorityPasses = 1
	}
	s := &Scheduler{
		catalog:   catalog,
		resolver:  resolver,
		fallback:  fallback,
		requester: requester,
		gate:      gate,
		confirmer: confirmer,
		decider:   decider,
		agg:       NewAggregator(clock),
		emitter:   emitter,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
	s.state.Store(StateIdle)
	return s
}

// State reports the scheduler's current lifecycle position.
func (s *Scheduler) State() State {
	return s.state.Load().(State)
}

func (s *Scheduler) setState(st State) {
	s.state.Store(st)
}

// Run warms every domain in order and returns the final summary. The
// summary is always produced, even when the run ends early: an abort or
// cancellation yields the partial reduction plus the terminating error.
func (s *Scheduler) Run(ctx context.Context, domains []string) (RunSummary, error) {
	if len(domains) == 0 {
		return RunSummary{}, ErrNoDomains
	}
	s.emitter.Emit(progress.Event{Stage: progress.StageRunStart})

	var runErr error
	for i, domain := range domains {
		if err := s.warmDomain(ctx, domain); err != nil {
			runErr = err
			break
		}
		if i < len(domains)-1 && s.cfg.InterDomainCooldown > 0 {
			s.logger.Info("inter-domain cooldown",
				zap.Duration("cooldown", s.cfg.InterDomainCooldown))
			if err := pauseFor(ctx, s.cfg.InterDomainCooldown); err != nil {
				runErr = err
				break
			}
		}
	}

	s.setState(StateSummarizing)
	summary := s.agg.Summary()
	s.setState(StateDone)

	status := "succeeded"
	if runErr != nil {
		status = "aborted"
	}
	s.emitter.Emit(progress.Event{Stage: progress.StageRunDone, Note: status})
	return summary, runErr
}

func (s *Scheduler) warmDomain(ctx context.Context, domain string) error {
	s.setState(StateDiscovering)
	urls, err := s.discover(ctx, domain)
	if err != nil {
		return err
	}
	s.emitter.Emit(progress.Event{
		Stage:    progress.StageDiscoveryDone,
		Domain:   domain,
		URLCount: len(urls),
	})
	if len(urls) == 0 {
		s.logger.Warn("nothing to warm", zap.String("domain", domain))
		return nil
	}

	s.setState(StateConfirming)
	targets := s.buildTargets(domain, urls)
	ok, err := s.confirmer.Confirm(domain, len(urls), len(targets))
	if err != nil {
		return fmt.Errorf("confirm: %w", err)
	}
	if !ok {
		return ErrUserAborted
	}

	s.setState(StateWarming)
	s.agg.StartDomain(domain)
	s.warm(ctx, domain, targets)
	s.agg.FinishDomain(domain)
	return ctx.Err()
}

// discover produces the URL set for one domain: sitemap resolution first,
// then the crawl fallback, then the operator's discrete policy choice.
// Discovery failures are absorbed; only cancellation propagates.
func (s *Scheduler) discover(ctx context.Context, domain string) ([]string, error) {
	visited := make(map[string]struct{})
	var urls []string

	sitemapURL := s.cfg.ManualSitemapURL
	if sitemapURL == "" {
		found, err := s.resolver.Discover(ctx, domain)
		switch {
		case err == nil:
			sitemapURL = found
		case errors.Is(err, sitemap.ErrNotFound):
			s.logger.Info("no sitemap found", zap.String("domain", domain))
		default:
			return nil, err
		}
	}
	if sitemapURL != "" {
		resolved, err := s.resolver.Resolve(ctx, sitemapURL, visited)
		if err != nil {
			return nil, err
		}
		urls = resolved
	}

	if len(urls) == 0 && s.cfg.CrawlFallback && s.fallback != nil {
		crawled, err := s.fallback.Crawl(ctx, domain)
		if err != nil {
			return nil, err
		}
		urls = crawled
	}

	if len(urls) == 0 && s.decider != nil {
		decision, err := s.decider.Decide(domain)
		if err != nil {
			return nil, fmt.Errorf("fallback decision: %w", err)
		}
		switch decision.Action {
		case FallbackHomepage:
			urls = []string{domain}
		case FallbackManualSitemap:
			resolved, err := s.resolver.Resolve(ctx, decision.SitemapURL, visited)
			if err != nil {
				return nil, err
			}
			urls = resolved
		case FallbackAbort:
			return nil, nil
		}
	}

	return withHomepage(domain, urls), nil
}

// withHomepage guarantees the domain root itself is warmed alongside the
// sitemap-derived pages.
func withHomepage(domain string, urls []string) []string {
	if len(urls) == 0 {
		return urls
	}
	for _, u := range urls {
		if u == domain {
			return urls
		}
	}
	return append([]string{domain}, urls...)
}

// buildTargets expands urls against the location catalog in dispatch
// order. Under geo-priority every priority-phase target precedes every
// worldwide-phase target in the returned slice; dispatch preserves that
// order, which is what the policy guarantees (completion order is not
// constrained).
func (s *Scheduler) buildTargets(domain string, urls []string) []WarmTarget {
	if s.cfg.Policy == PolicyGeoPriority && s.cfg.PriorityRegion != "" {
		priority := s.catalog.ByRegion(s.cfg.PriorityRegion)
		rest := s.catalog.Except(s.cfg.PriorityRegion)

		targets := make([]WarmTarget, 0,
			len(urls)*(len(priority)*s.cfg.PriorityPasses+len(rest)))
		for pass := 1; pass <= s.cfg.PriorityPasses; pass++ {
			for _, u := range urls {
				for _, loc := range priority {
					targets = append(targets, WarmTarget{
						Domain: domain, URL: u, Location: loc,
						Phase: PhasePriority, Pass: pass,
					})
				}
			}
		}
		for _, u := range urls {
			for _, loc := range rest {
				targets = append(targets, WarmTarget{
					Domain: domain, URL: u, Location: loc,
					Phase: PhaseWorldwide, Pass: 1,
				})
			}
		}
		return targets
	}

	targets := make([]WarmTarget, 0, len(urls)*len(s.catalog))
	for _, u := range urls {
		for _, loc := range s.catalog {
			targets = append(targets, WarmTarget{
				Domain: domain, URL: u, Location: loc,
				Phase: PhaseFlat, Pass: 1,
			})
		}
	}
	return targets
}

// warm drains the target list through a bounded worker pool. The queue is
// FIFO, so targets are picked up in slice order; on cancellation no new
// targets are handed out and in-flight ones run to a terminal outcome.
func (s *Scheduler) warm(ctx context.Context, domain string, targets []WarmTarget) {
	total := len(targets)
	s.emitter.Emit(progress.Event{
		Stage:  progress.StageWarmingStart,
		Domain: domain,
		Total:  total,
	})

	workers := s.cfg.Workers
	if workers <= 0 || workers > len(s.catalog) {
		workers = len(s.catalog)
	}

	queue := make(chan WarmTarget)
	var (
		wg        sync.WaitGroup
		completed atomic.Int64
		succeeded atomic.Int64
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for target := range queue {
				s.execute(ctx, target, total, &completed, &succeeded)
			}
		}()
	}

feed:
	for _, target := range targets {
		select {
		case <-ctx.Done():
			break feed
		case queue <- target:
		}
	}
	close(queue)
	wg.Wait()

	s.emitter.Emit(progress.Event{
		Stage:     progress.StageDomainDone,
		Domain:    domain,
		Completed: int(succeeded.Load()),
		Total:     total,
	})
}

func (s *Scheduler) execute(
	ctx context.Context,
	target WarmTarget,
	total int,
	completed, succeeded *atomic.Int64,
) {
	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()

	waitStart := time.Now()
	if err := s.gate.Acquire(ctx, target.Location.Code); err != nil {
		s.logger.Debug("rate limit wait interrupted",
			zap.String("location", target.Location.Code), zap.Error(err))
	}
	metrics.ObserveRateLimitWait(target.Location.Code, time.Since(waitStart))
	outcome := s.requester.Request(ctx, target)
	s.agg.Record(outcome)

	done := completed.Add(1)
	if outcome.Success {
		succeeded.Add(1)
	}
	s.emitter.Emit(progress.Event{
		Stage:        progress.StageTargetDone,
		Domain:       target.Domain,
		URL:          target.URL,
		LocationName: target.Location.Name,
		LocationCode: target.Location.Code,
		Region:       target.Location.Region,
		Phase:        string(target.Phase),
		Pass:         target.Pass,
		Attempt:      outcome.Attempts,
		Success:      outcome.Success,
		StatusCode:   outcome.StatusCode,
		Failure:      string(outcome.Failure),
		Latency:      outcome.Latency,
		Completed:    int(done),
		Total:        total,
	})
}
