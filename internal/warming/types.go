// Package warming defines the cache warming engine: target expansion,
// the per-request retry policy, scheduling, and result aggregation.
package warming

import (
	"time"
)

// EdgeLocation is one CDN point of presence. Identity is the Code field;
// the catalog is read-only for the lifetime of a run.
type EdgeLocation struct {
	Name   string `json:"name"`
	Code   string `json:"code"`
	Region string `json:"region"`
}

// Phase labels which scheduling phase dispatched a target.
type Phase string

// Scheduling phases. A flat run uses PhaseFlat for every target; a
// geo-priority run dispatches PhasePriority targets before PhaseWorldwide.
const (
	PhaseFlat      Phase = "flat"
	PhasePriority  Phase = "priority"
	PhaseWorldwide Phase = "worldwide"
)

// WarmTarget is a single unit of work: one GET for one URL against one
// edge location. Targets are created by the scheduler and never mutated.
type WarmTarget struct {
	Domain   string       `json:"domain"`
	URL      string       `json:"url"`
	Location EdgeLocation `json:"location"`
	Phase    Phase        `json:"phase"`
	Pass     int          `json:"pass"`
}

// FailureKind classifies why a target could not be warmed.
type FailureKind string

// Failure classifications recorded on terminal outcomes.
const (
	FailureNone       FailureKind = ""
	FailureHTTPStatus FailureKind = "http_status"
	FailureTimeout    FailureKind = "timeout"
	FailureTransport  FailureKind = "transport"
	FailureMaxRetries FailureKind = "max_retries"
)

// Outcome is the terminal result for one WarmTarget. Every dispatched
// target yields exactly one Outcome.
type Outcome struct {
	Target     WarmTarget    `json:"target"`
	Success    bool          `json:"success"`
	Attempts   int           `json:"attempts"`
	Latency    time.Duration `json:"latency"`
	StatusCode int           `json:"status_code,omitempty"`
	Failure    FailureKind   `json:"failure,omitempty"`
}

// FailureRecord retains enough context for an operator to retry by hand.
type FailureRecord struct {
	Domain     string       `json:"domain"`
	URL        string       `json:"url"`
	Location   EdgeLocation `json:"location"`
	Failure    FailureKind  `json:"failure"`
	StatusCode int          `json:"status_code,omitempty"`
	Attempts   int          `json:"attempts"`
	Phase      Phase        `json:"phase"`
	Pass       int          `json:"pass"`
}

// DomainStats breaks a summary down per warmed domain.
type DomainStats struct {
	Targets   int           `json:"targets"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// RunSummary is the final reduction over all outcomes of a run.
type RunSummary struct {
	TotalTargets int                    `json:"total_targets"`
	Succeeded    int                    `json:"succeeded"`
	Failed       int                    `json:"failed"`
	Duration     time.Duration          `json:"duration"`
	PerDomain    map[string]DomainStats `json:"per_domain"`
	Failures     []FailureRecord        `json:"failures,omitempty"`
}

// SuccessRate returns succeeded/total in [0,1]. A run with no targets
// trivially succeeded, so the empty rate is 1.
func (s RunSummary) SuccessRate() float64 {
	if s.TotalTargets == 0 {
		return 1
	}
	return float64(s.Succeeded) / float64(s.TotalTargets)
}
