package planner

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recursiveSearch is the straightforward recursive walk. The work-list search
// must agree with it exactly.
func recursiveSearch(candidates []CandidateItem, goals Goals) best {
	winner := newBest()
	var walk func(start int, combo []CandidateItem)
	walk = func(start int, combo []CandidateItem) {
		if len(combo) > 0 {
			n := TotalNutrients(combo)
			if n.satisfies(goals) {
				winner.consider(append([]CandidateItem(nil), combo...), n, goals.MaxCalories)
			}
		}
		if len(combo) >= MaxDistinctItems || start >= len(candidates) {
			return
		}
		for i := start; i < len(candidates); i++ {
			next := append(append([]CandidateItem(nil), combo...), candidates[i])
			if TotalNutrients(next).withinLimits(goals) {
				walk(i+1, next)
			}
		}
	}
	walk(0, nil)
	return winner
}

func TestSearchCombinations_MatchesRecursiveWalk(t *testing.T) {
	dishes := cafeDishes()
	for _, maxCal := range []float64{150, 420, 650, 1000} {
		for _, minProtein := range []float64{0, 18, 45, 80} {
			for _, maxFat := range []float64{8, 30} {
				goals := Goals{MaxCalories: maxCal, MinProtein: minProtein, MaxCarbs: 70, MaxFat: maxFat, DietaryPreference: PreferenceAny}
				candidates := GenerateCandidates(dishes, goals)

				var stats SearchStats
				got := searchCombinations(candidates, goals, 0, &stats)
				want := recursiveSearch(candidates, goals)

				require.Equal(t, want.found(), got.found(), "goals %+v", goals)
				assert.Equal(t, want.items, got.items, "goals %+v", goals)
				assert.Equal(t, want.nutrients, got.nutrients, "goals %+v", goals)
			}
		}
	}
}

func TestBestConsider(t *testing.T) {
	a := []CandidateItem{{Dish: dish("A", 100, 5, 0, 0), Quantity: 1}}
	b := []CandidateItem{{Dish: dish("B", 100, 9, 0, 0), Quantity: 1}}
	c := []CandidateItem{{Dish: dish("C", 100, 9, 0, 0), Quantity: 1}}

	w := newBest()
	assert.False(t, w.found())
	assert.True(t, math.IsInf(w.diff, 1))

	w.consider(a, TotalNutrients(a), 150)
	assert.Equal(t, "A", w.items[0].Dish.Name)

	w.consider(b, TotalNutrients(b), 150)
	assert.Equal(t, "B", w.items[0].Dish.Name, "same distance, more protein")

	w.consider(c, TotalNutrients(c), 150)
	assert.Equal(t, "B", w.items[0].Dish.Name, "equal protein keeps the earlier one")

	closer := []CandidateItem{{Dish: dish("D", 140, 1, 0, 0), Quantity: 1}}
	w.consider(closer, TotalNutrients(closer), 150)
	assert.Equal(t, "D", w.items[0].Dish.Name)
	assert.Equal(t, 10.0, w.diff)
}

func TestFallback(t *testing.T) {
	dishes := []Dish{
		dish("Lean", 150, 30, 0, 2),
		dish("Rich", 400, 12, 10, 30),
	}

	t.Run("ProteinTier", func(t *testing.T) {
		goals := Goals{MaxCalories: 320, MinProtein: 25, MaxCarbs: 50, MaxFat: 20}
		item, tier, ok := fallback(dishes, goals)
		require.True(t, ok)
		assert.Equal(t, TierFallbackProtein, tier)
		assert.Equal(t, "Lean", item.Dish.Name)
		assert.Equal(t, 2.0, item.Quantity)
	})

	t.Run("CalorieTier", func(t *testing.T) {
		goals := Goals{MaxCalories: 420, MinProtein: 200, MaxCarbs: 50, MaxFat: 20}
		item, tier, ok := fallback(dishes, goals)
		require.True(t, ok)
		assert.Equal(t, TierFallbackCalories, tier)
		assert.Equal(t, "Rich", item.Dish.Name)
		assert.Equal(t, 1.0, item.Quantity)
	})

	t.Run("Nothing", func(t *testing.T) {
		_, tier, ok := fallback(dishes, Goals{MaxCalories: 10})
		assert.False(t, ok)
		assert.Equal(t, TierEmpty, tier)
	})
}
