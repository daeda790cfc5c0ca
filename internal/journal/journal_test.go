package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/callpulse/internal/feature"
)

func TestRecordAndRecent(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "nested", "runs.db"))
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, j.Record(ctx, feature.Result{
		Feature:  feature.Sentiment,
		RunID:    "run-1",
		Kind:     feature.KindReport,
		Text:     "the report text is not stored",
		Records:  100,
		Duration: 1500 * time.Millisecond,
	}, feature.Params{Origin: "cli", ManagerID: "42"}, base))
	require.NoError(t, j.Record(ctx, feature.Result{
		Feature: feature.AgentPerformance,
		RunID:   "run-2",
		Kind:    feature.KindFailure,
		Cause:   "the analysis service did not answer in time",
	}, feature.Params{}, base.Add(time.Minute)))

	got, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "run-2", got[0].RunID)
	assert.Equal(t, "unknown", got[0].Origin)
	assert.Equal(t, "failure", got[0].Kind)
	assert.Equal(t, "the analysis service did not answer in time", got[0].Cause)

	assert.Equal(t, Entry{
		RunID:     "run-1",
		Origin:    "cli",
		Feature:   "sentiment",
		ManagerID: "42",
		Kind:      "report",
		Records:   100,
		Duration:  1500 * time.Millisecond,
		StartedAt: base,
	}, got[1])

	one, err := j.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, one, 1)
}

func TestDuplicateRunIDRejected(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer j.Close()
	r := feature.Result{Feature: feature.Sentiment, RunID: "same"}
	require.NoError(t, j.Record(context.Background(), r, feature.Params{}, time.Now()))
	assert.Error(t, j.Record(context.Background(), r, feature.Params{}, time.Now()))
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(" ")
	assert.Error(t, err)
}
