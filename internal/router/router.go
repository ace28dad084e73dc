// Package router delivers action-required messages to their two
// destinations: a local append-only log and a page database. The two
// writes are independent; one failing never undoes or prevents the other.
package router

import (
	"context"
	"log/slog"

	"github.com/nhle/mail-triage/internal/logging"
)

// PageCreator creates a database record for an action record.
type PageCreator interface {
	CreatePage(ctx context.Context, rec Record) error
}

// Outcome reports what happened at each destination.
type Outcome struct {
	Logged bool
	Saved  bool

	// LogErr and DBErr are the per-destination failures, if any.
	LogErr error
	DBErr  error

	// Skipped is set when routing was suppressed (dry run).
	Skipped bool
}

// Failed reports whether any destination failed.
func (o Outcome) Failed() bool {
	return o.LogErr != nil || o.DBErr != nil
}

// Router writes action records to the local log and, when configured,
// to the page database.
type Router struct {
	log    *ActionLog
	pages  PageCreator
	dryRun bool
	logger *slog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithPages enables the page database destination.
func WithPages(p PageCreator) Option {
	return func(r *Router) { r.pages = p }
}

// WithDryRun suppresses both writes.
func WithDryRun(dryRun bool) Option {
	return func(r *Router) { r.dryRun = dryRun }
}

// WithLogger sets the logger used for routing events.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// New returns a Router appending to log.
func New(log *ActionLog, opts ...Option) *Router {
	r := &Router{log: log}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	return r
}

// Route writes rec to every enabled destination. Only ActionRequired
// records are accepted; others are ignored.
func (r *Router) Route(ctx context.Context, rec Record) Outcome {
	var out Outcome
	if !rec.Label.Routable() {
		return out
	}

	logger := r.logger.With(
		logging.MessageID(string(rec.MessageID)),
		logging.Subject(rec.Subject),
	)

	if r.dryRun {
		logger.Info("dry run: routing skipped")
		out.Skipped = true
		return out
	}

	if err := r.log.Append(rec); err != nil {
		out.LogErr = err
		logger.Error("writing action log failed", logging.Err(err))
	} else {
		out.Logged = true
		logger.Info("wrote action log", slog.String("path", r.log.Path()))
	}

	if r.pages == nil {
		return out
	}

	if err := r.pages.CreatePage(ctx, rec); err != nil {
		out.DBErr = err
		logger.Error("creating database page failed", logging.Err(err))
	} else {
		out.Saved = true
		logger.Info("created database page")
	}

	return out
}
