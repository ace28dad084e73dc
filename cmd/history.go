package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/mail-triage/internal/credential"
	"github.com/nhle/mail-triage/internal/model"
	"github.com/nhle/mail-triage/internal/store"
	"github.com/nhle/mail-triage/internal/ui/report"
)

// historyOptions mirrors the history command flags.
type historyOptions struct {
	limit    int
	offset   int
	label    string
	runID    string
	provider string
	runs     bool
}

func newHistoryCmd() *cobra.Command {
	var opts historyOptions

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently triaged messages or past runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := historyFilter(opts)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(credential.New())
			if err != nil {
				return err
			}
			if cfg.Output.HistoryDB == "" {
				return errors.New("history is disabled (output.history_db is empty)")
			}

			s, err := openHistory(cfg.Output.HistoryDB)
			if err != nil {
				return err
			}
			defer s.Close()

			var out string
			if opts.runs {
				out, err = renderRuns(cmd.Context(), s, opts.limit)
			} else {
				out, err = renderResults(cmd.Context(), s, filter)
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.limit, "limit", 20, "number of rows to show")
	f.IntVar(&opts.offset, "offset", 0, "skip this many results")
	f.StringVar(&opts.label, "label", "", `only show one label ("Action Required", "Spam", "Low Priority", "Unknown")`)
	f.StringVar(&opts.runID, "run", "", "only show results of one run")
	f.StringVar(&opts.provider, "provider", "", `only show results from one provider ("gmail", "icloud")`)
	f.BoolVar(&opts.runs, "runs", false, "list past runs with per-label counts instead of messages")
	return cmd
}

// historyFilter builds a store filter from the command flags.
func historyFilter(opts historyOptions) (store.ResultFilter, error) {
	if opts.offset < 0 {
		return store.ResultFilter{}, fmt.Errorf("offset must not be negative")
	}
	filter := store.ResultFilter{Limit: opts.limit, Offset: opts.offset}

	if id := strings.TrimSpace(opts.runID); id != "" {
		filter.RunID = &id
	}
	if p := strings.ToLower(strings.TrimSpace(opts.provider)); p != "" {
		filter.Provider = &p
	}

	label := strings.TrimSpace(opts.label)
	if label == "" {
		return filter, nil
	}

	l, ok := model.ParseLabel(label)
	if !ok {
		if !strings.EqualFold(label, model.LabelUnknown.String()) {
			return store.ResultFilter{}, fmt.Errorf("unknown label %q", label)
		}
		l = model.LabelUnknown
	}
	filter.Label = &l
	return filter, nil
}

func renderResults(ctx context.Context, s store.Store, filter store.ResultFilter) (string, error) {
	results, err := s.GetResults(ctx, filter)
	if err != nil {
		return "", err
	}
	return report.History(results), nil
}

// renderRuns lists recent runs together with their per-label tallies.
func renderRuns(ctx context.Context, s store.Store, limit int) (string, error) {
	runs, err := s.GetRuns(ctx, limit)
	if err != nil {
		return "", err
	}

	counts := make(map[string]map[model.Label]int, len(runs))
	for _, r := range runs {
		c, err := s.CountByLabel(ctx, r.ID)
		if err != nil {
			return "", err
		}
		counts[r.ID] = c
	}

	return report.Runs(runs, counts), nil
}
