// Package planner recommends a meal: a few dish portions whose combined
// nutrients fit a set of dietary goals.
//
// The search is a bounded enumeration, not an optimizer. Candidates are every
// dish at every serving multiple that fits the goals alone, ordered by protein
// density. Subsets of up to MaxDistinctItems candidates are walked depth first
// and the feasible one closest to the calorie ceiling wins, higher protein
// breaking ties. When nothing fits, a single portion is chosen instead, and
// failing that the plan is empty.
//
// Everything is computed per call, so an Engine may be shared between goroutines.
package planner

// Options tune an Engine.
type Options struct {
	// MaxEvaluations caps how many combinations the search scores. Zero
	// means no cap. A capped search keeps the best plan found so far.
	MaxEvaluations int
}

// Engine generates meal plans.
type Engine struct {
	opts Options
}

// NewEngine creates a new Engine.
func NewEngine(opts Options) *Engine {
	if opts.MaxEvaluations < 0 {
		opts.MaxEvaluations = 0
	}
	return &Engine{opts: opts}
}

// Generate runs the full pipeline with no evaluation cap.
func Generate(goals Goals, dishes []Dish, excluded []string) (MealPlan, error) {
	plan, _, err := NewEngine(Options{}).Generate(goals, dishes, excluded)
	return plan, err
}

// Generate selects the plan for goals from dishes, never using a dish named in
// excluded. Goals or dishes that fail validation return ErrInvalidInput.
// Unsatisfiable goals are not an error: they produce a fallback or empty plan.
func (e *Engine) Generate(goals Goals, dishes []Dish, excluded []string) (MealPlan, SearchStats, error) {
	var stats SearchStats

	goals = goals.Normalize()
	if err := goals.Validate(); err != nil {
		return MealPlan{}, stats, err
	}
	for _, d := range dishes {
		if err := d.Validate(); err != nil {
			return MealPlan{}, stats, err
		}
	}

	filtered := FilterDishes(dishes, goals, excluded)
	candidates := GenerateCandidates(filtered, goals)
	stats.Candidates = len(candidates)

	if winner := searchCombinations(candidates, goals, e.opts.MaxEvaluations, &stats); winner.found() {
		return MealPlan{
			Items:     winner.items,
			Nutrients: winner.nutrients,
			Tier:      TierCombination,
		}, stats, nil
	}

	// Any pair the protein tier accepts is also a one-item combination, so
	// that tier only answers when MaxEvaluations truncated the search.
	if item, tier, ok := fallback(filtered, goals); ok {
		items := []CandidateItem{item}
		return MealPlan{
			Items:     items,
			Nutrients: TotalNutrients(items),
			Tier:      tier,
		}, stats, nil
	}

	return emptyPlan(), stats, nil
}
