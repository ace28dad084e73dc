// Package sync repeats triage runs on an interval for long-running use.
package sync

import (
	"context"
	"errors"
	"log/slog"
	gosync "sync"
	"time"

	"github.com/nhle/mail-triage/internal/logging"
	"github.com/nhle/mail-triage/internal/source"
	"github.com/nhle/mail-triage/internal/triage"
)

// RunState represents the current state of the poller.
type RunState int

const (
	StateIdle RunState = iota
	StateRunning
	StateError
)

// Status holds the outcome of the most recent run.
type Status struct {
	State   RunState
	LastRun time.Time
	Summary triage.Summary
	Error   error
	Runs    int
}

// Runner performs one triage pass.
type Runner interface {
	Run(ctx context.Context) (triage.Summary, error)
}

// ResultFunc is called after every run.
type ResultFunc func(triage.Summary, error)

// defaultInterval is used when no positive interval is configured.
const defaultInterval = 5 * time.Minute

// Poller runs a Runner immediately and then every interval, one run at a
// time. Runs never overlap.
type Poller struct {
	runner    Runner
	interval  time.Duration
	logger    *slog.Logger
	onResult  ResultFunc
	triggerCh chan struct{}

	mu     gosync.Mutex
	status Status
}

// New creates a Poller. A nil logger discards output; a nil onResult is
// ignored.
func New(r Runner, interval time.Duration, logger *slog.Logger, onResult ResultFunc) *Poller {
	if interval <= 0 {
		interval = defaultInterval
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Poller{
		runner:    r,
		interval:  interval,
		logger:    logging.WithOperation(logger, "triage.watch"),
		onResult:  onResult,
		triggerCh: make(chan struct{}, 1),
	}
}

// Run polls until ctx is cancelled, returning nil, or until a run fails
// with an authentication error, which is returned since retrying cannot
// succeed. Other fatal errors are retried on the next tick.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Do an initial run immediately
	if err := p.runOnce(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-p.triggerCh:
		}
		if err := p.runOnce(ctx); err != nil {
			return err
		}
	}
}

// Trigger requests an immediate run. Requests made while one is already
// pending are dropped.
func (p *Poller) Trigger() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
		// Channel full; a run is already pending
	}
}

// Status returns the outcome of the most recent run.
func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// runOnce performs one run and returns an error only when polling must
// stop.
func (p *Poller) runOnce(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}

	p.setState(StateRunning)
	summary, err := p.runner.Run(ctx)

	p.mu.Lock()
	p.status.LastRun = time.Now()
	p.status.Summary = summary
	p.status.Error = err
	p.status.Runs++
	if err != nil {
		p.status.State = StateError
	} else {
		p.status.State = StateIdle
	}
	p.mu.Unlock()

	if p.onResult != nil {
		p.onResult(summary, err)
	}

	switch {
	case err == nil:
		p.logger.Info("run finished", slog.Duration("next_in", p.interval))
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil
	case source.IsAuthError(err):
		p.logger.Error("authentication rejected, stopping", logging.Err(err))
		return err
	default:
		p.logger.Warn("run failed, retrying on next tick", logging.Err(err))
		return nil
	}
}

func (p *Poller) setState(s RunState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.State = s
}
