package warming

import (
	"context"
	"errors"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/mjfield/edgewarm/internal/fetch"
	"github.com/mjfield/edgewarm/internal/progress"
)

// RequesterConfig controls the per-target retry policy.
type RequesterConfig struct {
	// MaxRetries is the attempt budget per target (default 3).
	MaxRetries int
	// RetryDelay is the fixed pause between failed attempts (default 2s).
	// There is no backoff or jitter on purpose: the cadence mirrors what
	// the target CDN is told to expect.
	RetryDelay time.Duration
}

// Requester issues a warming GET for one (url, location) pair with bounded
// retries. An attempt succeeds iff the response status is exactly 200;
// every other status, timeout, or transport failure counts against the
// attempt budget.
type Requester struct {
	fetcher fetch.Fetcher
	profile HeaderProfile
	cfg     RequesterConfig
	emitter progress.Emitter
	logger  *zap.Logger
}

// NewRequester constructs a Requester.
func NewRequester(
	fetcher fetch.Fetcher,
	profile HeaderProfile,
	cfg RequesterConfig,
	emitter progress.Emitter,
	logger *zap.Logger,
) *Requester {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if emitter == nil {
		emitter = progress.Discard
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Requester{
		fetcher: fetcher,
		profile: profile,
		cfg:     cfg,
		emitter: emitter,
		logger:  logger,
	}
}

// Request drives target to a terminal Outcome. It always returns an
// outcome, even when ctx is canceled mid-flight: the current attempt is
// finished and the target is recorded as failed.
func (r *Requester) Request(ctx context.Context, target WarmTarget) Outcome {
	var (
		lastKind   FailureKind
		lastStatus int
		latency    time.Duration
		attempts   int
	)

	for attempt := 1; attempt <= r.cfg.MaxRetries; attempt++ {
		attempts = attempt
		start := time.Now()
		resp, err := r.fetcher.Fetch(ctx, fetch.Request{
			URL:     target.URL,
			Headers: r.profile.Headers(target.Location),
		})
		latency = time.Since(start)

		if err == nil && resp.StatusCode == 200 {
			r.emitAttempt(target, attempt, resp.StatusCode, FailureNone)
			return Outcome{
				Target:     target,
				Success:    true,
				Attempts:   attempt,
				Latency:    resp.Duration,
				StatusCode: resp.StatusCode,
			}
		}

		switch {
		case err != nil:
			lastKind = classifyError(err)
			lastStatus = 0
		default:
			lastKind = FailureHTTPStatus
			lastStatus = resp.StatusCode
		}
		r.emitAttempt(target, attempt, lastStatus, lastKind)
		r.logger.Debug("warm attempt failed",
			zap.String("url", target.URL),
			zap.String("location", target.Location.Code),
			zap.Int("attempt", attempt),
			zap.Int("status", lastStatus),
			zap.String("failure", string(lastKind)),
		)

		if ctx.Err() != nil {
			break
		}
		if attempt < r.cfg.MaxRetries {
			if err := pauseFor(ctx, r.cfg.RetryDelay); err != nil {
				break
			}
		}
	}

	if lastKind == FailureNone {
		lastKind = FailureMaxRetries
	}
	return Outcome{
		Target:     target,
		Success:    false,
		Attempts:   attempts,
		Latency:    latency,
		StatusCode: lastStatus,
		Failure:    lastKind,
	}
}

func (r *Requester) emitAttempt(target WarmTarget, attempt, status int, kind FailureKind) {
	r.emitter.Emit(progress.Event{
		Stage:        progress.StageAttempt,
		Domain:       target.Domain,
		URL:          target.URL,
		LocationName: target.Location.Name,
		LocationCode: target.Location.Code,
		Region:       target.Location.Region,
		Phase:        string(target.Phase),
		Pass:         target.Pass,
		Attempt:      attempt,
		Success:      kind == FailureNone,
		StatusCode:   status,
		Failure:      string(kind),
	})
}

// classifyError maps a transport failure onto the outcome taxonomy. A
// canceled context surfaces as a transport failure: the attempt was cut
// off on the wire, and the scheduler stops dispatching anyway.
func classifyError(err error) FailureKind {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	return FailureTransport
}

func pauseFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
