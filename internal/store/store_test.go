package store

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "db", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	s := newTestStore(t)

	run, err := s.StartRun("prompts.txt", "videos")
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)

	require.NoError(t, s.RecordPrompt(run.ID, 1, "A robot walks", OutcomeProcessed, ""))
	require.NoError(t, s.RecordPrompt(run.ID, 2, "A cat flies", OutcomeSkipped, ""))
	require.NoError(t, s.RecordPrompt(run.ID, 3, "A dog swims", OutcomeFailed, "element not found"))
	require.NoError(t, s.RecordRename(run.ID, "b.mp4", "video_1.mp4"))
	require.NoError(t, s.SetPromptFile(run.ID, "/home/me/Desktop/fallback.txt"))
	require.NoError(t, s.FinishRun(run.ID))

	runs, err := s.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	got := runs[0]
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "/home/me/Desktop/fallback.txt", got.PromptFile)
	assert.Equal(t, "videos", got.OutputDir)
	assert.False(t, got.FinishedAt.IsZero())
	assert.Equal(t, 1, got.Processed)
	assert.Equal(t, 1, got.Skipped)
	assert.Equal(t, 1, got.Failed)
	assert.Equal(t, 1, got.Renamed)

	events, err := s.RunEvents(run.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "A robot walks", events[0].Prompt)
	assert.Equal(t, OutcomeFailed, events[2].Outcome)
	assert.Equal(t, "element not found", events[2].Detail)
}

func TestRecentRunsNewestFirst(t *testing.T) {
	s := newTestStore(t)

	clock := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	first, err := s.StartRun("a.txt", "out")
	require.NoError(t, err)
	clock = clock.Add(time.Hour)
	second, err := s.StartRun("b.txt", "out")
	require.NoError(t, err)

	runs, err := s.RecentRuns(1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, second.ID, runs[0].ID)
	assert.True(t, runs[0].FinishedAt.IsZero())

	runs, err = s.RecentRuns(5)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, first.ID, runs[1].ID)
}

func TestReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := New(path)
	require.NoError(t, err)
	_, err = s.StartRun("p.txt", "out")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = New(path)
	require.NoError(t, err)
	defer s.Close()

	runs, err := s.RecentRuns(10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestReportRoundTrip(t *testing.T) {
	s := newTestStore(t)

	run, err := s.StartRun("prompts.txt", "videos")
	require.NoError(t, err)
	require.NoError(t, s.RecordPrompt(run.ID, 1, "A robot walks", OutcomeProcessed, ""))
	require.NoError(t, s.RecordPrompt(run.ID, 2, "A cat flies", OutcomeStopped, ""))
	require.NoError(t, s.RecordRename(run.ID, "b.mp4", "video_1.mp4"))
	require.NoError(t, s.FinishRun(run.ID))

	report, err := s.Report(run.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	require.Len(t, report.Events, 2)
	require.Len(t, report.Renames, 1)
	assert.Equal(t, "video_1.mp4", report.Renames[0].To)

	dir := t.TempDir()
	path, err := WriteReport(dir, report)
	require.NoError(t, err)

	latest, err := LatestReport(dir)
	require.NoError(t, err)
	assert.Equal(t, path, latest)

	loaded, err := LoadReport(latest)
	require.NoError(t, err)
	assert.Equal(t, run.ID, loaded.ID)
	assert.Equal(t, OutcomeStopped, loaded.Events[1].Outcome)
	assert.Equal(t, "b.mp4", loaded.Renames[0].From)
}

func TestReportUnknownRun(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Report("missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestLatestReportEmptyDir(t *testing.T) {
	_, err := LatestReport(filepath.Join(t.TempDir(), "none"))
	assert.Error(t, err)
}
