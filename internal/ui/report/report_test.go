package report

import (
	"strings"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/mail-triage/internal/model"
	triagesync "github.com/nhle/mail-triage/internal/sync"
	"github.com/nhle/mail-triage/internal/triage"
)

func TestSummary(t *testing.T) {
	out := Summary(triage.Summary{
		RunID:       "run-1",
		Total:       3,
		Processed:   2,
		FetchFailed: 1,
		ByLabel: map[model.Label]int{
			model.LabelActionRequired: 1,
			model.LabelSpam:           1,
		},
		LogWrites: 1,
		DBWrites:  1,
	}, false)

	for _, want := range []string{"Triage run", "Unread", "Action Required", "Spam", "Log writes", "run-1"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "dry run")
}

func TestSummary_DryRun(t *testing.T) {
	out := Summary(triage.Summary{ByLabel: map[model.Label]int{}, Skipped: 2}, true)

	assert.Contains(t, out, "dry run")
	assert.Contains(t, out, "Routing skipped")
	assert.NotContains(t, out, "Log writes")
}

func TestHistory_Empty(t *testing.T) {
	assert.Contains(t, History(nil), "No triage history")
}

func TestHistory(t *testing.T) {
	out := History([]model.TriageResult{
		{
			Subject:       "Invoice Due",
			Sender:        "billing@vendor.example",
			Label:         model.LabelActionRequired,
			LoggedLocally: true,
			SavedRemotely: true,
			ProcessedAt:   time.Now(),
		},
		{
			Subject:     strings.Repeat("long subject ", 10),
			Sender:      "news@example.com",
			Label:       model.LabelLowPriority,
			ProcessedAt: time.Now(),
		},
	})

	assert.Contains(t, out, "Invoice Due")
	assert.Contains(t, out, "log+notion")
	assert.Contains(t, out, "Low Priority")
	assert.Contains(t, out, "…")
}

func TestDestinations(t *testing.T) {
	assert.Equal(t, "-", destinations(model.TriageResult{Label: model.LabelSpam}))
	assert.Equal(t, "error", destinations(model.TriageResult{Error: "fetch failed"}))
	assert.Equal(t, "none", destinations(model.TriageResult{Label: model.LabelActionRequired}))
	assert.Equal(t, "log", destinations(model.TriageResult{Label: model.LabelActionRequired, LoggedLocally: true}))
}

func TestRuns_Empty(t *testing.T) {
	assert.Contains(t, Runs(nil, nil), "No runs recorded")
}

func TestRuns(t *testing.T) {
	finished := time.Now()
	runs := []model.Run{
		{ID: "0123456789abcdef", Provider: "gmail", StartedAt: time.Now(), FinishedAt: &finished, Total: 4},
		{ID: "fedcba9876543210", Provider: "icloud", StartedAt: time.Now(), Error: "auth error (icloud): bad password"},
		{ID: "running-run", Provider: "gmail", StartedAt: time.Now()},
	}
	counts := map[string]map[model.Label]int{
		"0123456789abcdef": {model.LabelActionRequired: 3, model.LabelSpam: 1},
	}

	out := Runs(runs, counts)
	for _, want := range []string{"01234567", "fedcba98", "ACTION REQUIRED", "UNKNOWN", "icloud", "ok", "auth error", "running"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "0123456789abcdef")
}

func TestWatch(t *testing.T) {
	last := time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)

	out := Watch(triagesync.Status{Runs: 2, LastRun: last}, 5*time.Minute)
	assert.Contains(t, out, "run 2 finished 10:00:00")
	assert.Contains(t, out, "next at 10:05:00")

	out = Watch(triagesync.Status{Runs: 3, LastRun: last, Error: errors.New("connection refused")}, time.Minute)
	assert.Contains(t, out, "failed: connection refused")
}
