package metrics

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cafe-calorie/internal/database"
	"cafe-calorie/internal/planner"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "metrics.db"))
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db.SQL)
	now := time.Now().UTC()
	earlier := now.AddDate(0, 0, -2)

	require.NoError(t, store.Record(ctx, RunMetric{Source: "api", Tier: planner.TierCombination, Evaluations: 100, Latency: 2 * time.Millisecond, Timestamp: now}))
	require.NoError(t, store.Record(ctx, RunMetric{Source: "api", Tier: planner.TierEmpty, Evaluations: 300, Truncated: true, Latency: 4 * time.Millisecond, Timestamp: now}))
	require.NoError(t, store.Record(ctx, RunMetric{Source: "telegram", Tier: planner.TierFallbackProtein, Evaluations: 5, Timestamp: earlier}))
	require.NoError(t, store.Record(ctx, RunMetric{Source: "cli", Tier: planner.TierCombination, Timestamp: now.AddDate(0, 0, -40)}))

	usage, err := store.GetDailyUsage(ctx, 7)
	require.NoError(t, err)
	require.Len(t, usage, 2)

	assert.Equal(t, now.Format("2006-01-02"), usage[0].Date)
	assert.Equal(t, 2, usage[0].Runs)
	assert.Equal(t, 1, usage[0].EmptyPlans)
	assert.Equal(t, 1, usage[0].Truncated)
	assert.InDelta(t, 200, usage[0].AvgEvaluations, 0.001)
	assert.InDelta(t, 3, usage[0].AvgLatencyMillis, 0.001)

	assert.Equal(t, earlier.Format("2006-01-02"), usage[1].Date)
	assert.Equal(t, 1, usage[1].Runs)
	assert.Equal(t, 0, usage[1].EmptyPlans)

	removed, err := store.Cleanup(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestStore_TokenUsage(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "metrics.db"))
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db.SQL)
	now := time.Now().UTC()
	earlier := now.AddDate(0, 0, -3)

	require.NoError(t, store.Record(ctx, RunMetric{Source: "telegram", Tier: planner.TierFallbackProtein, Timestamp: now}))
	require.NoError(t, store.RecordTokens(ctx, TokenMetric{Source: "telegram", Model: "gemini-2.5-flash", PromptTokens: 120, CompletionTokens: 30, Timestamp: now}))
	require.NoError(t, store.RecordTokens(ctx, TokenMetric{Source: "telegram", Model: "gemini-2.5-flash", PromptTokens: 80, CompletionTokens: 20, Timestamp: now}))
	require.NoError(t, store.RecordTokens(ctx, TokenMetric{Source: "cli", Model: "llama-3.3-70b-versatile", PromptTokens: 50, CompletionTokens: 10, Timestamp: earlier}))
	require.NoError(t, store.RecordTokens(ctx, TokenMetric{Source: "cli", Model: "llama-3.3-70b-versatile", PromptTokens: 999, Timestamp: now.AddDate(0, 0, -40)}))

	usage, err := store.GetDailyUsage(ctx, 7)
	require.NoError(t, err)
	require.Len(t, usage, 2)

	assert.Equal(t, now.Format("2006-01-02"), usage[0].Date)
	assert.Equal(t, 1, usage[0].Runs)
	assert.Equal(t, 200, usage[0].PromptTokens)
	assert.Equal(t, 50, usage[0].CompletionTokens)

	assert.Equal(t, earlier.Format("2006-01-02"), usage[1].Date)
	assert.Equal(t, 0, usage[1].Runs)
	assert.Equal(t, 50, usage[1].PromptTokens)
	assert.Equal(t, 10, usage[1].CompletionTokens)

	removed, err := store.Cleanup(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollectors(reg)

	c.Observe(RunMetric{Tier: planner.TierCombination, Evaluations: 10, Latency: time.Millisecond})
	c.Observe(RunMetric{Tier: planner.TierCombination, Evaluations: 10, Truncated: true})
	c.Observe(RunMetric{})

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Runs.WithLabelValues(string(planner.TierCombination))))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Runs.WithLabelValues(string(planner.TierEmpty))))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Truncated))
	assert.Equal(t, 1, testutil.CollectAndCount(c.Evaluations))
}

func TestGetSysHealth(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a"), make([]byte, 2048), 0644))

	h := GetSysHealth(dir)
	assert.Equal(t, "2.0 KB", h.DataDiskSize)
	assert.Positive(t, h.Goroutines)
	assert.Equal(t, "0 B", humanBytes(0))
	assert.Equal(t, "1.5 MB", humanBytes(3<<19))
}
