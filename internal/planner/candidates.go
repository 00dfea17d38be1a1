package planner

import "sort"

// ServingMultiples are the portion sizes considered for every dish, in search order.
var ServingMultiples = [...]float64{0.5, 1.0, 1.5, 2.0}

// FilterDishes drops excluded dishes and applies the dietary preference.
//
// Vegan keeps only dishes tagged Vegan. Vegetarian only removes dishes tagged
// Non-Vegetarian, so an untagged dish passes. Any and Non-Vegetarian keep all.
func FilterDishes(dishes []Dish, goals Goals, excluded []string) []Dish {
	skip := make(map[string]struct{}, len(excluded))
	for _, name := range excluded {
		skip[name] = struct{}{}
	}

	filtered := make([]Dish, 0, len(dishes))
	for _, d := range dishes {
		if _, ok := skip[d.Name]; ok {
			continue
		}
		switch goals.DietaryPreference {
		case PreferenceVegan:
			if !d.HasTag(TagVegan) {
				continue
			}
		case PreferenceVegetarian:
			if d.HasTag(TagNonVegetarian) {
				continue
			}
		}
		filtered = append(filtered, d)
	}
	return filtered
}

// GenerateCandidates expands dishes into (dish, multiple) items that fit the
// calorie, carb and fat limits on their own, ordered by protein per calorie.
func GenerateCandidates(dishes []Dish, goals Goals) []CandidateItem {
	items := make([]CandidateItem, 0, len(dishes)*len(ServingMultiples))
	for _, d := range dishes {
		for _, q := range ServingMultiples {
			item := CandidateItem{Dish: d, Quantity: q}
			if item.Scaled().withinLimits(goals) {
				items = append(items, item)
			}
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return proteinPerCalorie(items[i]) > proteinPerCalorie(items[j])
	})
	return items
}

// proteinPerCalorie is zero for calorie-free dishes.
func proteinPerCalorie(c CandidateItem) float64 {
	if c.Dish.Calories <= 0 {
		return 0
	}
	return (c.Dish.Protein * c.Quantity) / (c.Dish.Calories * c.Quantity)
}
