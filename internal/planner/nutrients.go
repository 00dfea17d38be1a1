package planner

// TotalNutrients sums each nutrient of items scaled by quantity.
// The sum runs in item order starting from zero.
func TotalNutrients(items []CandidateItem) Nutrients {
	var total Nutrients
	for _, it := range items {
		total.Calories += it.Dish.Calories * it.Quantity
		total.Protein += it.Dish.Protein * it.Quantity
		total.Carbs += it.Dish.Carbs * it.Quantity
		total.Fat += it.Dish.Fat * it.Quantity
	}
	return total
}

// withinLimits checks the upper bounds only. Protein is an aggregate
// lower bound and is not part of it.
func (n Nutrients) withinLimits(g Goals) bool {
	return n.Calories <= g.MaxCalories && n.Carbs <= g.MaxCarbs && n.Fat <= g.MaxFat
}

// satisfies checks every goal threshold.
func (n Nutrients) satisfies(g Goals) bool {
	return n.withinLimits(g) && n.Protein >= g.MinProtein
}
