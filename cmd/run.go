package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/mail-triage/internal/ai"
	"github.com/nhle/mail-triage/internal/credential"
	"github.com/nhle/mail-triage/internal/logging"
	"github.com/nhle/mail-triage/internal/router"
	"github.com/nhle/mail-triage/internal/source/email"
	"github.com/nhle/mail-triage/internal/store"
	triagesync "github.com/nhle/mail-triage/internal/sync"
	"github.com/nhle/mail-triage/internal/triage"
	"github.com/nhle/mail-triage/internal/ui/report"
)

func newRunCmd() *cobra.Command {
	var (
		dryRun bool
		limit  int
		watch  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Classify unread mail and route action items",
		Long: `Connect to the configured mailbox, classify every unread message with the
local model and, for messages labelled Action Required, append a block to
the action log and create a Notion page.

Per-message failures are logged and skipped; only connection, login or
mailbox selection failures stop the run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.Default()

			cfg, err := loadConfig(credential.New())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("%w (run `mailtriage setup` first)", err)
			}

			mailbox, err := email.NewFromConfig(cfg.Mail)
			if err != nil {
				return err
			}

			classifier, err := ai.New(cfg.Ollama, logger)
			if err != nil {
				return err
			}

			opts := []router.Option{router.WithDryRun(dryRun), router.WithLogger(logger)}
			if cfg.NotionEnabled() {
				opts = append(opts, router.WithPages(
					router.NewNotionPages(cfg.Notion.APIKey, cfg.Notion.DatabaseID, cfg.Notion.BodyLimit),
				))
			} else {
				logger.Info("notion database not configured, writing the local log only",
					slog.Bool("database_id_set", cfg.Notion.DatabaseID != ""),
					slog.String("api_key", logging.SanitizeToken(cfg.Notion.APIKey)),
				)
			}

			d := &triage.Driver{
				Mailbox:    mailbox,
				Classifier: classifier,
				Router:     router.New(router.NewActionLog(cfg.Output.LogFile), opts...),
				Log:        logger,
				Account:    cfg.Mail.Account,
				Limit:      limit,
				MarkSeen:   cfg.Run.MarkSeen && !dryRun,
			}

			if cfg.Output.HistoryDB != "" {
				history, err := openHistory(cfg.Output.HistoryDB)
				if err != nil {
					logger.Warn("history disabled", logging.Err(err))
				} else {
					defer history.Close()
					d.History = history
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()

			if watch > 0 {
				return watchInbox(ctx, d, watch, dryRun, out, logger)
			}

			start := time.Now()
			summary, runErr := d.Run(ctx)

			fmt.Fprintln(out, report.Summary(summary, dryRun))
			fmt.Fprintln(out, report.Duration(time.Since(start)))

			return runErr
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "classify only; do not write the log or Notion")
	cmd.Flags().IntVar(&limit, "limit", 0, "process at most this many unread messages (0 = all)")
	cmd.Flags().DurationVar(&watch, "watch", 0, "keep running and triage again at this interval (e.g. 5m); SIGHUP triggers a run")
	return cmd
}

// watchInbox repeats the run until ctx is cancelled. SIGHUP requests an
// immediate run.
func watchInbox(
	ctx context.Context,
	d *triage.Driver,
	interval time.Duration,
	dryRun bool,
	out io.Writer,
	logger *slog.Logger,
) error {
	var p *triagesync.Poller
	p = triagesync.New(d, interval, logger, func(s triage.Summary, err error) {
		fmt.Fprintln(out, report.Summary(s, dryRun))
		fmt.Fprintln(out, report.Watch(p.Status(), interval))
	})

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				p.Trigger()
			}
		}
	}()

	return p.Run(ctx)
}

// openHistory opens the history database, creating its directory.
func openHistory(path string) (*store.SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}
	return store.NewSQLiteStore(path)
}
