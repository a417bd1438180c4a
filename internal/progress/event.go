// Package progress defines the structured event stream emitted by the
// warming engine and the sink interface that renders or records it.
package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the kind of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart      Stage = "RUN_START"
	StageDiscoveryDone Stage = "DISCOVERY_DONE"
	StageWarmingStart  Stage = "WARMING_START"
	StageAttempt       Stage = "ATTEMPT"
	StageTargetDone    Stage = "TARGET_DONE"
	StageDomainDone    Stage = "DOMAIN_DONE"
	StageRunDone       Stage = "RUN_DONE"
)

// Event captures one milestone of a warming run. Location, phase, and
// failure are carried as plain labels so this package stays independent of
// the engine types. Outcome fields are only meaningful for ATTEMPT and
// TARGET_DONE stages.
type Event struct {
	RunID  uuid.UUID
	TS     time.Time
	Stage  Stage
	Domain string

	URL          string
	LocationName string
	LocationCode string
	Region       string
	Phase        string
	Pass         int

	Attempt    int
	Success    bool
	StatusCode int
	Failure    string
	Latency    time.Duration

	// Completed/Total drive percent rendering; URLCount carries the
	// discovery result size.
	Completed int
	Total     int
	URLCount  int

	Note string
}

// Validate performs coarse validation on event payloads.
func (e Event) Validate() error {
	if e.RunID == uuid.Nil {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageDiscoveryDone, StageWarmingStart, StageDomainDone, StageRunDone:
	case StageAttempt:
		if e.URL == "" || e.Attempt <= 0 {
			return errors.New("attempt event requires url and attempt number")
		}
	case StageTargetDone:
		if e.URL == "" {
			return errors.New("target done event requires url")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Latency < 0 {
		return errors.New("latency must be >= 0")
	}
	return nil
}

// Percent returns completion as an integer percentage in [0,100].
func (e Event) Percent() int {
	if e.Total <= 0 {
		return 0
	}
	return e.Completed * 100 / e.Total
}
