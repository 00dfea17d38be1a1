package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"cafe-calorie/internal/catalog"
	"cafe-calorie/internal/database"
	"cafe-calorie/internal/metrics"
	"cafe-calorie/internal/planner"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestApp(t *testing.T) (*App, *metrics.Store, *metrics.Collectors) {
	t.Helper()
	cafes, err := catalog.Default()
	require.NoError(t, err)

	store := metrics.NewStore(newTestDB(t).SQL)
	collectors := metrics.NewCollectors(prometheus.NewRegistry())
	return NewApp(catalog.NewStatic(cafes), planner.NewEngine(planner.Options{}), store, collectors), store, collectors
}

var lunch = planner.Goals{MaxCalories: 700, MinProtein: 30, MaxCarbs: 90, MaxFat: 30, DietaryPreference: planner.PreferenceAny}

func TestApp_Recommend(t *testing.T) {
	ctx := context.Background()
	a, store, collectors := newTestApp(t)

	rec, err := a.Recommend(ctx, "test", lunch, []string{"Grilled Chicken Breast"})
	require.NoError(t, err)
	require.False(t, rec.Plan.IsEmpty())
	assert.Equal(t, planner.TierCombination, rec.Plan.Tier)
	assert.NotContains(t, rec.Plan.DishNames(), "Grilled Chicken Breast")
	assert.LessOrEqual(t, rec.Plan.Nutrients.Calories, lunch.MaxCalories)
	assert.GreaterOrEqual(t, rec.Plan.Nutrients.Protein, lunch.MinProtein)
	assert.Positive(t, rec.Stats.Evaluations)

	usage, err := store.GetDailyUsage(ctx, 1)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, 1, usage[0].Runs)
	assert.Equal(t, 1.0, testutil.ToFloat64(collectors.Runs.WithLabelValues(string(planner.TierCombination))))
}

func TestApp_Recommend_InvalidGoals(t *testing.T) {
	a, _, collectors := newTestApp(t)

	_, err := a.Recommend(context.Background(), "test", planner.Goals{MaxCalories: -1}, nil)
	assert.ErrorIs(t, err, planner.ErrInvalidInput)
	assert.Zero(t, testutil.CollectAndCount(collectors.Runs))
}

func TestApp_Alternate(t *testing.T) {
	ctx := context.Background()
	a, _, _ := newTestApp(t)

	first, err := a.Recommend(ctx, "test", lunch, nil)
	require.NoError(t, err)
	require.False(t, first.Plan.IsEmpty())

	second, err := a.Alternate(ctx, "test", lunch, []string{"Naan Bread"}, first.Plan)
	require.NoError(t, err)
	for _, name := range second.Plan.DishNames() {
		assert.NotContains(t, first.Plan.DishNames(), name)
		assert.NotEqual(t, "Naan Bread", name)
	}
	assert.Equal(t, "Naan Bread", second.Excluded[0])
	assert.Subset(t, second.Excluded, first.Plan.DishNames())
}

type failingProvider struct{}

func (failingProvider) Dishes(context.Context) ([]planner.Dish, error) {
	return nil, errors.New("catalog offline")
}

func TestApp_Recommend_ProviderError(t *testing.T) {
	a := NewApp(failingProvider{}, planner.NewEngine(planner.Options{}), nil, nil)
	_, err := a.Recommend(context.Background(), "test", lunch, nil)
	assert.ErrorContains(t, err, "catalog offline")
}

func TestMergeExclusions(t *testing.T) {
	got := MergeExclusions([]string{"a", "b"}, nil, []string{"b", "c", "a"})
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Nil(t, MergeExclusions())
}
