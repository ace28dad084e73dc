// Package triage drives one pass over the unread messages of a mailbox:
// fetch, parse, classify and, for action items, route.
package triage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/mail-triage/internal/ai"
	"github.com/nhle/mail-triage/internal/logging"
	"github.com/nhle/mail-triage/internal/model"
	"github.com/nhle/mail-triage/internal/parser"
	"github.com/nhle/mail-triage/internal/router"
	"github.com/nhle/mail-triage/internal/source"
)

// Classifier labels one message. It never fails; errors come back in
// the Result with LabelUnknown.
type Classifier interface {
	Classify(ctx context.Context, subject, body string) ai.Result
}

// Router delivers an action record to its destinations.
type Router interface {
	Route(ctx context.Context, rec router.Record) router.Outcome
}

// History records runs and per-message results. It is optional.
type History interface {
	StartRun(ctx context.Context, run model.Run) (model.Run, error)
	FinishRun(ctx context.Context, run model.Run) error
	SaveResult(ctx context.Context, result model.TriageResult) error
}

// Summary tallies one run.
type Summary struct {
	RunID string

	// Total is the number of unread identifiers listed; Processed counts
	// those that reached classification.
	Total       int
	Processed   int
	FetchFailed int
	ByLabel     map[model.Label]int

	LogWrites   int
	LogFailures int
	DBWrites    int
	DBFailures  int
	Skipped     int
}

// Routed is the number of action records handed to the router.
func (s Summary) Routed() int {
	return s.ByLabel[model.LabelActionRequired]
}

// Driver owns the mailbox session for the duration of a run. Messages are
// handled strictly one at a time in listing order.
type Driver struct {
	Mailbox    source.Mailbox
	Classifier Classifier
	Router     Router
	History    History // optional
	Log        *slog.Logger

	// Account is recorded with the run; it is never logged in clear.
	Account string

	// Limit caps how many identifiers are processed; zero means all.
	Limit int

	// MarkSeen sets \Seen on each message once it has been handled.
	MarkSeen bool
}

// Run connects, processes every unread message and disconnects. It
// returns an error only for failures that prevent processing altogether
// (connect, authenticate, select, list) or when ctx is cancelled; the
// summary is valid in every case.
func (d *Driver) Run(ctx context.Context) (summary Summary, err error) {
	log := d.Log
	if log == nil {
		log = logging.Discard()
	}
	provider := string(d.Mailbox.Provider())
	log = logging.WithOperation(logging.WithProvider(log, provider), "triage.run")

	summary = Summary{ByLabel: make(map[model.Label]int)}
	start := time.Now()

	run := d.startRun(ctx, log, provider)
	summary.RunID = run.ID
	log = log.With(logging.RunID(run.ID))

	defer func() {
		if closeErr := d.Mailbox.Close(); closeErr != nil {
			log.Warn("closing mailbox failed", logging.Err(closeErr))
		}
		d.finishRun(log, run, summary, err)
	}()

	log.Info("connecting", logging.Account(d.Account))
	if err := d.Mailbox.Connect(ctx); err != nil {
		log.Error("connection failed", logging.Err(err))
		return summary, err
	}

	ids, err := d.Mailbox.ListUnread(ctx)
	if err != nil {
		log.Error("listing unread messages failed", logging.Err(err))
		return summary, fmt.Errorf("listing unread messages: %w", err)
	}

	summary.Total = len(ids)
	if d.Limit > 0 && len(ids) > d.Limit {
		ids = ids[:d.Limit]
	}
	log.Info("found unread messages", slog.Int("count", summary.Total), slog.Int("processing", len(ids)))

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			log.Warn("run cancelled", slog.Int("remaining", len(ids)-i))
			return summary, err
		}
		d.process(ctx, log, run.ID, provider, id, &summary)
	}

	log.Info("run complete",
		slog.Int("processed", summary.Processed),
		slog.Int("fetch_failed", summary.FetchFailed),
		slog.Int("routed", summary.Routed()),
		slog.Duration(logging.KeyDuration, time.Since(start)),
	)
	return summary, nil
}

// process handles one message. Nothing that goes wrong here escapes.
func (d *Driver) process(
	ctx context.Context,
	log *slog.Logger,
	runID, provider string,
	id source.MessageID,
	summary *Summary,
) {
	log = log.With(logging.MessageID(string(id)))

	result := model.TriageResult{
		RunID:     runID,
		Provider:  provider,
		MessageID: string(id),
	}

	raw, err := d.Mailbox.Fetch(ctx, id)
	if err != nil {
		summary.FetchFailed++
		log.Error("fetch failed, skipping message", logging.Err(err))
		result.Error = err.Error()
		d.saveResult(ctx, log, result)
		return
	}

	msg := parser.Parse(raw)
	log = log.With(logging.Subject(msg.Subject))

	res := d.Classifier.Classify(ctx, msg.Subject, msg.Body)
	summary.Processed++
	summary.ByLabel[res.Label]++

	result.Subject = msg.Subject
	result.Sender = msg.Sender
	result.Label = res.Label
	if !msg.ReceivedAt.IsUnknown() {
		t := msg.ReceivedAt.Time
		result.ReceivedAt = &t
	}

	if res.Err != nil {
		log.Warn("classification failed", logging.Label(res.Label.String()), logging.Err(res.Err))
		result.Error = res.Err.Error()
	} else {
		log.Info("classified", logging.Label(res.Label.String()))
	}

	if res.Label.Routable() {
		out := d.Router.Route(ctx, router.NewRecord(id, msg, res.Label))
		summary.record(out)
		result.LoggedLocally = out.Logged
		result.SavedRemotely = out.Saved
		if routeErr := errors.Join(out.LogErr, out.DBErr); routeErr != nil {
			result.Error = routeErr.Error()
		}
	}

	d.saveResult(ctx, log, result)

	if d.MarkSeen {
		if err := d.Mailbox.MarkSeen(ctx, id); err != nil {
			log.Warn("marking message seen failed", logging.Err(err))
		}
	}
}

func (s *Summary) record(out router.Outcome) {
	if out.Skipped {
		s.Skipped++
		return
	}
	if out.Logged {
		s.LogWrites++
	}
	if out.LogErr != nil {
		s.LogFailures++
	}
	if out.Saved {
		s.DBWrites++
	}
	if out.DBErr != nil {
		s.DBFailures++
	}
}

func (d *Driver) startRun(ctx context.Context, log *slog.Logger, provider string) model.Run {
	run := model.Run{
		ID:        uuid.New().String(),
		Provider:  provider,
		Account:   logging.AnonymizeEmail(d.Account),
		StartedAt: time.Now().UTC(),
	}
	if d.History == nil {
		return run
	}

	started, err := d.History.StartRun(ctx, run)
	if err != nil {
		log.Warn("recording run start failed", logging.Err(err))
		return run
	}
	return started
}

// finishRun uses a fresh context so a cancelled run is still recorded.
func (d *Driver) finishRun(log *slog.Logger, run model.Run, summary Summary, runErr error) {
	if d.History == nil {
		return
	}

	now := time.Now().UTC()
	run.FinishedAt = &now
	run.Total = summary.Total
	run.Processed = summary.Processed
	run.Routed = summary.Routed()
	if runErr != nil {
		run.Error = runErr.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.History.FinishRun(ctx, run); err != nil {
		log.Warn("recording run end failed", logging.Err(err))
	}
}

func (d *Driver) saveResult(ctx context.Context, log *slog.Logger, result model.TriageResult) {
	if d.History == nil {
		return
	}
	result.ProcessedAt = time.Now().UTC()
	if err := d.History.SaveResult(ctx, result); err != nil {
		log.Warn("recording result failed", logging.Err(err))
	}
}
