// Package report renders run summaries and triage history for the
// terminal.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/nhle/mail-triage/internal/model"
	triagesync "github.com/nhle/mail-triage/internal/sync"
	"github.com/nhle/mail-triage/internal/theme"
	"github.com/nhle/mail-triage/internal/triage"
)

const subjectWidth = 48

// Summary renders the outcome of one run as a bordered panel.
func Summary(s triage.Summary, dryRun bool) string {
	var lines []string

	title := "Triage run"
	if dryRun {
		title += " (dry run)"
	}
	lines = append(lines, theme.HeaderStyle.Render(title), "")

	lines = append(lines,
		kv("Unread", fmt.Sprintf("%d", s.Total)),
		kv("Classified", fmt.Sprintf("%d", s.Processed)),
		kv("Fetch failures", count(s.FetchFailed)),
	)

	for _, l := range append(model.Labels, model.LabelUnknown) {
		lines = append(lines, kv(l.String(), theme.LabelStyle(l).Render(fmt.Sprintf("%d", s.ByLabel[l]))))
	}

	lines = append(lines, "")
	if dryRun {
		lines = append(lines, kv("Routing skipped", fmt.Sprintf("%d", s.Skipped)))
	} else {
		lines = append(lines,
			kv("Log writes", ok(s.LogWrites)+" / "+count(s.LogFailures)+" failed"),
			kv("Database pages", ok(s.DBWrites)+" / "+count(s.DBFailures)+" failed"),
		)
	}

	if s.RunID != "" {
		lines = append(lines, "", theme.HelpStyle.Render("run "+s.RunID))
	}

	return theme.PanelStyle.Render(strings.Join(lines, "\n"))
}

// History renders stored results as a table, newest first.
func History(results []model.TriageResult) string {
	if len(results) == 0 {
		return theme.HelpStyle.Render("No triage history yet.")
	}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.ProcessedAt.Local().Format("2006-01-02 15:04"),
			r.Label.String(),
			shorten(r.Subject, subjectWidth),
			r.Sender,
			destinations(r),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(theme.BorderStyle).
		Headers("PROCESSED", "LABEL", "SUBJECT", "FROM", "ROUTED").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return base.Bold(true)
			}
			if col == 1 && row >= 0 && row < len(results) {
				return theme.LabelStyle(results[row].Label).Padding(0, 1)
			}
			return base
		})

	return t.String()
}

// Runs renders past runs with the per-label tallies from counts, keyed by
// run ID.
func Runs(runs []model.Run, counts map[string]map[model.Label]int) string {
	if len(runs) == 0 {
		return theme.HelpStyle.Render("No runs recorded yet.")
	}

	headers := []string{"STARTED", "RUN", "PROVIDER", "UNREAD"}
	for _, l := range append(model.Labels, model.LabelUnknown) {
		headers = append(headers, strings.ToUpper(l.String()))
	}
	headers = append(headers, "STATUS")

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		row := []string{
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			shortID(r.ID),
			r.Provider,
			fmt.Sprintf("%d", r.Total),
		}
		for _, l := range append(model.Labels, model.LabelUnknown) {
			row = append(row, fmt.Sprintf("%d", counts[r.ID][l]))
		}
		row = append(row, runStatus(r))
		rows = append(rows, row)
	}

	last := len(headers) - 1
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(theme.BorderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return base.Bold(true)
			}
			if col == last && row >= 0 && row < len(runs) && runs[row].Error != "" {
				return theme.ErrorStyle.Padding(0, 1)
			}
			return base
		})

	return t.String()
}

// Watch renders the footer printed after each run in watch mode.
func Watch(st triagesync.Status, interval time.Duration) string {
	line := fmt.Sprintf("run %d finished %s", st.Runs, st.LastRun.Local().Format("15:04:05"))
	if st.Error != nil {
		line += ", failed: " + st.Error.Error()
	}
	line += ", next at " + st.LastRun.Add(interval).Local().Format("15:04:05")
	return theme.HelpStyle.Render(line)
}

func runStatus(r model.Run) string {
	switch {
	case r.Error != "":
		return shorten(r.Error, 40)
	case r.FinishedAt == nil:
		return "running"
	default:
		return "ok"
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// destinations summarises where an action record went.
func destinations(r model.TriageResult) string {
	if !r.Label.Routable() {
		if r.Error != "" {
			return "error"
		}
		return "-"
	}
	var parts []string
	if r.LoggedLocally {
		parts = append(parts, "log")
	}
	if r.SavedRemotely {
		parts = append(parts, "notion")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}

// Duration formats elapsed run time for the footer line.
func Duration(d time.Duration) string {
	return theme.HelpStyle.Render("finished in " + d.Round(time.Millisecond).String())
}

func kv(key, value string) string {
	return theme.KeyStyle.Render(key) + value
}

func count(n int) string {
	if n == 0 {
		return "0"
	}
	return theme.ErrorStyle.Render(fmt.Sprintf("%d", n))
}

func ok(n int) string {
	return theme.OKStyle.Render(fmt.Sprintf("%d", n))
}

func shorten(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
