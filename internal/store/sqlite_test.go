package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mail-triage/internal/model"
	"github.com/nhle/mail-triage/internal/store"
	"github.com/nhle/mail-triage/tests/testutil"
)

func startRun(t *testing.T, s *store.SQLiteStore) model.Run {
	t.Helper()
	run, err := s.StartRun(context.Background(), model.Run{
		Provider: "gmail",
		Account:  "user@example.com",
	})
	require.NoError(t, err)
	return run
}

func TestStartRun_AssignsIDAndStart(t *testing.T) {
	s := testutil.NewTestStore(t)

	run := startRun(t, s)
	assert.NotEmpty(t, run.ID)
	assert.False(t, run.StartedAt.IsZero())

	runs, err := s.GetRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Nil(t, runs[0].FinishedAt)
}

func TestFinishRun(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	run := startRun(t, s)
	run.Total = 3
	run.Processed = 2
	run.Routed = 1
	require.NoError(t, s.FinishRun(ctx, run))

	runs, err := s.GetRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 3, runs[0].Total)
	assert.Equal(t, 2, runs[0].Processed)
	assert.Equal(t, 1, runs[0].Routed)
	assert.NotNil(t, runs[0].FinishedAt)
}

func TestFinishRun_UnknownRun(t *testing.T) {
	s := testutil.NewTestStore(t)
	err := s.FinishRun(context.Background(), model.Run{ID: "missing"})
	assert.Error(t, err)
}

func TestSaveResult_RoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	run := startRun(t, s)

	received := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, s.SaveResult(ctx, model.TriageResult{
		RunID:         run.ID,
		Provider:      "gmail",
		MessageID:     "7",
		Subject:       "Invoice Due",
		Sender:        "billing@vendor.example",
		ReceivedAt:    &received,
		Label:         model.LabelActionRequired,
		LoggedLocally: true,
	}))

	results, err := s.GetResults(ctx, store.ResultFilter{})
	require.NoError(t, err)
	require.Len(t, results, 1)

	got := results[0]
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "Invoice Due", got.Subject)
	assert.Equal(t, model.LabelActionRequired, got.Label)
	assert.True(t, got.LoggedLocally)
	assert.False(t, got.SavedRemotely)
	require.NotNil(t, got.ReceivedAt)
	assert.True(t, got.ReceivedAt.Equal(received))
}

func TestSaveResult_UnknownDateStaysNull(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	run := startRun(t, s)

	require.NoError(t, s.SaveResult(ctx, model.TriageResult{
		RunID: run.ID, Provider: "icloud", MessageID: "1", Label: model.LabelSpam,
	}))

	results, err := s.GetResults(ctx, store.ResultFilter{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Nil(t, results[0].ReceivedAt)
}

func TestSaveResult_RequiresRun(t *testing.T) {
	s := testutil.NewTestStore(t)
	err := s.SaveResult(context.Background(), model.TriageResult{MessageID: "1"})
	assert.Error(t, err)
}

func TestGetResults_Filters(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	first := startRun(t, s)
	second := startRun(t, s)

	labels := []model.Label{
		model.LabelActionRequired, model.LabelSpam, model.LabelSpam, model.LabelUnknown,
	}
	for i, l := range labels {
		runID := first.ID
		if i == 3 {
			runID = second.ID
		}
		require.NoError(t, s.SaveResult(ctx, model.TriageResult{
			RunID: runID, Provider: "gmail", MessageID: string(rune('1' + i)), Label: l,
		}))
	}

	spam := model.LabelSpam
	results, err := s.GetResults(ctx, store.ResultFilter{Label: &spam})
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = s.GetResults(ctx, store.ResultFilter{RunID: &second.ID})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, model.LabelUnknown, results[0].Label)

	results, err = s.GetResults(ctx, store.ResultFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = s.GetResults(ctx, store.ResultFilter{Offset: 3})
	require.NoError(t, err)
	assert.Len(t, results, 1)

	icloud := "icloud"
	results, err = s.GetResults(ctx, store.ResultFilter{Provider: &icloud})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestCountByLabel(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	run := startRun(t, s)

	for i, l := range []model.Label{model.LabelSpam, model.LabelSpam, model.LabelLowPriority} {
		require.NoError(t, s.SaveResult(ctx, model.TriageResult{
			RunID: run.ID, Provider: "gmail", MessageID: string(rune('1' + i)), Label: l,
		}))
	}

	counts, err := s.CountByLabel(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[model.LabelSpam])
	assert.Equal(t, 1, counts[model.LabelLowPriority])
	assert.Zero(t, counts[model.LabelActionRequired])
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := t.TempDir() + "/history.db"

	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	_ = startRun(t, s)
	require.NoError(t, s.Close())

	s, err = store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	runs, err := s.GetRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
