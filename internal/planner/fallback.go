package planner

import (
	"math"
	"sort"
)

// fallback picks a single (dish, multiple) when no combination satisfies the
// goals. The first tier honours every goal; the second only the calorie
// ceiling. Both keep the pair closest to the ceiling, first found on ties.
func fallback(dishes []Dish, goals Goals) (CandidateItem, Tier, bool) {
	byProtein := make([]Dish, len(dishes))
	copy(byProtein, dishes)
	sort.SliceStable(byProtein, func(i, j int) bool {
		return byProtein[i].Protein > byProtein[j].Protein
	})

	if item, ok := closestSingle(byProtein, goals, func(n Nutrients) bool {
		return n.satisfies(goals)
	}); ok {
		return item, TierFallbackProtein, true
	}

	if item, ok := closestSingle(byProtein, goals, func(n Nutrients) bool {
		return n.Calories <= goals.MaxCalories
	}); ok {
		return item, TierFallbackCalories, true
	}

	return CandidateItem{}, TierEmpty, false
}

func closestSingle(dishes []Dish, goals Goals, accept func(Nutrients) bool) (CandidateItem, bool) {
	var (
		chosen  CandidateItem
		found   bool
		minDiff = math.Inf(1)
	)
	for _, d := range dishes {
		for _, q := range ServingMultiples {
			item := CandidateItem{Dish: d, Quantity: q}
			n := item.Scaled()
			if !accept(n) {
				continue
			}
			if diff := math.Abs(n.Calories - goals.MaxCalories); diff < minDiff {
				minDiff = diff
				chosen = item
				found = true
			}
		}
	}
	return chosen, found
}
