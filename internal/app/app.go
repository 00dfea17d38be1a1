package app

import (
	"context"
	"fmt"
	"time"

	"cafe-calorie/internal/catalog"
	"cafe-calorie/internal/logging"
	"cafe-calorie/internal/metrics"
	"cafe-calorie/internal/planner"
)

// Recommendation is a generated plan plus what it took to produce it.
type Recommendation struct {
	Plan     planner.MealPlan
	Stats    planner.SearchStats
	Excluded []string
	Latency  time.Duration
}

// App holds the application's dependencies.
type App struct {
	dishes       catalog.Provider
	engine       *planner.Engine
	metricsStore *metrics.Store
	collectors   *metrics.Collectors
}

// NewApp creates and initializes a new App instance. metricsStore and
// collectors may be nil.
func NewApp(
	dishes catalog.Provider,
	engine *planner.Engine,
	metricsStore *metrics.Store,
	collectors *metrics.Collectors,
) *App {
	return &App{
		dishes:       dishes,
		engine:       engine,
		metricsStore: metricsStore,
		collectors:   collectors,
	}
}

// Dishes returns the current catalog.
func (a *App) Dishes(ctx context.Context) ([]planner.Dish, error) {
	dishes, err := a.dishes.Dishes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load dishes: %w", err)
	}
	return dishes, nil
}

// Recommend generates a plan for goals from the current catalog. source names
// the caller in recorded metrics.
func (a *App) Recommend(ctx context.Context, source string, goals planner.Goals, excluded []string) (Recommendation, error) {
	dishes, err := a.Dishes(ctx)
	if err != nil {
		return Recommendation{}, err
	}

	start := time.Now()
	plan, stats, err := a.engine.Generate(goals, dishes, excluded)
	if err != nil {
		return Recommendation{}, err
	}
	rec := Recommendation{Plan: plan, Stats: stats, Excluded: excluded, Latency: time.Since(start)}

	a.record(ctx, source, rec)
	logging.Info().
		Str("source", source).
		Str("tier", string(plan.Tier)).
		Int("items", len(plan.Items)).
		Int("evaluations", stats.Evaluations).
		Bool("truncated", stats.Truncated).
		Dur("latency", rec.Latency).
		Msg("meal plan generated")
	return rec, nil
}

// Alternate generates a plan that shares no dish with previous, on top of
// the given exclusions.
func (a *App) Alternate(ctx context.Context, source string, goals planner.Goals, excluded []string, previous planner.MealPlan) (Recommendation, error) {
	return a.Recommend(ctx, source, goals, MergeExclusions(excluded, previous.DishNames()))
}

// MergeExclusions returns the union of the lists, keeping first-seen order.
func MergeExclusions(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, name := range list {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}

func (a *App) record(ctx context.Context, source string, rec Recommendation) {
	m := metrics.RunMetric{
		Source:      source,
		Tier:        rec.Plan.Tier,
		Candidates:  rec.Stats.Candidates,
		Evaluations: rec.Stats.Evaluations,
		Truncated:   rec.Stats.Truncated,
		Latency:     rec.Latency,
		Timestamp:   time.Now().UTC(),
	}
	if a.collectors != nil {
		a.collectors.Observe(m)
	}
	if a.metricsStore != nil {
		if err := a.metricsStore.Record(ctx, m); err != nil {
			logging.Warn().Err(err).Msg("failed to record run metric")
		}
	}
}
