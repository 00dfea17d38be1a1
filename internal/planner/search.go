package planner

import "math"

// MaxDistinctItems bounds the size of a combination.
const MaxDistinctItems = 3

// SearchStats describes one engine run.
type SearchStats struct {
	Candidates  int  `json:"candidates"`
	Evaluations int  `json:"evaluations"`
	Truncated   bool `json:"truncated"`
}

// best is the running winner of the combination search.
type best struct {
	items     []CandidateItem
	nutrients Nutrients
	diff      float64
}

func newBest() best {
	return best{diff: math.Inf(1)}
}

func (b best) found() bool {
	return len(b.items) > 0
}

// consider replaces b when n is closer to the calorie ceiling, or equally close
// with strictly more protein. Earlier combinations win exact ties.
func (b *best) consider(items []CandidateItem, n Nutrients, maxCalories float64) {
	diff := math.Abs(n.Calories - maxCalories)
	if diff < b.diff || (diff == b.diff && n.Protein > b.nutrients.Protein) {
		b.items = items
		b.nutrients = n
		b.diff = diff
	}
}

// frame is a partial combination waiting on the work list.
type frame struct {
	items     []CandidateItem
	cursor    int
	nutrients Nutrients
}

// searchCombinations enumerates subsets of up to MaxDistinctItems candidates
// depth first. Children only use candidates after the parent's cursor, so each
// subset is visited once. A child that breaks a calorie, carb or fat limit is
// pruned along with everything below it. Every visited non-empty state is
// checked against all goals.
//
// The work list pops states in the same pre-order a recursive walk would
// visit them, which keeps tie-breaks stable. limit caps evaluations when > 0.
func searchCombinations(candidates []CandidateItem, goals Goals, limit int, stats *SearchStats) best {
	winner := newBest()
	stack := []frame{{}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if len(top.items) > 0 {
			if limit > 0 && stats.Evaluations >= limit {
				stats.Truncated = true
				break
			}
			stats.Evaluations++
			if top.nutrients.satisfies(goals) {
				winner.consider(top.items, top.nutrients, goals.MaxCalories)
			}
		}

		if len(top.items) >= MaxDistinctItems || top.cursor >= len(candidates) {
			continue
		}

		// Pushed in reverse so the lowest index is explored first.
		for i := len(candidates) - 1; i >= top.cursor; i-- {
			combo := make([]CandidateItem, len(top.items), len(top.items)+1)
			copy(combo, top.items)
			combo = append(combo, candidates[i])

			n := TotalNutrients(combo)
			if !n.withinLimits(goals) {
				continue
			}
			stack = append(stack, frame{items: combo, cursor: i + 1, nutrients: n})
		}
	}

	return winner
}
