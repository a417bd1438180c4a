package warming

import (
	"sync"
	"time"
)

// Aggregator reduces the outcome stream into a RunSummary. Outcomes may
// arrive from any worker in any order; the reduction is commutative and
// all state is guarded by a single mutex.
type Aggregator struct {
	mu            sync.Mutex
	clock         Clock
	started       time.Time
	domainStarted map[string]time.Time

	total     int
	succeeded int
	failed    int
	perDomain map[string]DomainStats
	failures  []FailureRecord
}

// NewAggregator starts the run timer and returns an empty aggregator.
func NewAggregator(clock Clock) *Aggregator {
	return &Aggregator{
		clock:         clock,
		started:       clock.Now(),
		domainStarted: make(map[string]time.Time),
		perDomain:     make(map[string]DomainStats),
	}
}

// StartDomain marks the beginning of one domain's warming phase.
func (a *Aggregator) StartDomain(domain string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.domainStarted[domain] = a.clock.Now()
	if _, ok := a.perDomain[domain]; !ok {
		a.perDomain[domain] = DomainStats{}
	}
}

// FinishDomain freezes the domain's duration.
func (a *Aggregator) FinishDomain(domain string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	started, ok := a.domainStarted[domain]
	if !ok {
		return
	}
	stats := a.perDomain[domain]
	stats.Duration = a.clock.Now().Sub(started)
	a.perDomain[domain] = stats
}

// Record folds one terminal outcome into the summary.
func (a *Aggregator) Record(o Outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.total++
	stats := a.perDomain[o.Target.Domain]
	stats.Targets++
	if o.Success {
		a.succeeded++
		stats.Succeeded++
	} else {
		a.failed++
		stats.Failed++
		a.failures = append(a.failures, FailureRecord{
			Domain:     o.Target.Domain,
			URL:        o.Target.URL,
			Location:   o.Target.Location,
			Failure:    o.Failure,
			StatusCode: o.StatusCode,
			Attempts:   o.Attempts,
			Phase:      o.Target.Phase,
			Pass:       o.Target.Pass,
		})
	}
	a.perDomain[o.Target.Domain] = stats
}

// Summary snapshots the reduction. It may be called mid-run on abort; the
// result covers every outcome received so far.
func (a *Aggregator) Summary() RunSummary {
	a.mu.Lock()
	defer a.mu.Unlock()

	perDomain := make(map[string]DomainStats, len(a.perDomain))
	for k, v := range a.perDomain {
		perDomain[k] = v
	}
	return RunSummary{
		TotalTargets: a.total,
		Succeeded:    a.succeeded,
		Failed:       a.failed,
		Duration:     a.clock.Now().Sub(a.started),
		PerDomain:    perDomain,
		Failures:     append([]FailureRecord(nil), a.failures...),
	}
}
