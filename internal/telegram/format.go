package telegram

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"cafe-calorie/internal/metrics"
	"cafe-calorie/internal/planner"
)

func formatPlanMarkdown(plan planner.MealPlan, goals planner.Goals) string {
	var sb strings.Builder

	if plan.IsEmpty() {
		sb.WriteString("😕 *No dish fits these goals.*\nTry a higher calorie limit or fewer exclusions.\n")
		sb.WriteString(formatGoals(goals))
		return sb.String()
	}

	sb.WriteString("🍽 *Your meal plan*\n\n")
	for _, it := range plan.Items {
		n := it.Scaled()
		fmt.Fprintf(&sb, "• %s ×%s: %s kcal, %sg protein\n",
			it.Dish.Name, num(it.Quantity), num(n.Calories), num(n.Protein))
	}

	t := plan.Nutrients
	fmt.Fprintf(&sb, "\n*Total:* %s kcal · %sg protein · %sg carbs · %sg fat\n",
		num(t.Calories), num(t.Protein), num(t.Carbs), num(t.Fat))

	switch plan.Tier {
	case planner.TierFallbackProtein, planner.TierFallbackCalories:
		sb.WriteString("\n⚠️ _No combination met every goal, so this is the best single dish._\n")
	}
	sb.WriteString(formatGoals(goals))
	return sb.String()
}

func formatGoals(g planner.Goals) string {
	return fmt.Sprintf("\n_Goals: ≤%s kcal, ≥%sg protein, ≤%sg carbs, ≤%sg fat (%s)_",
		num(g.MaxCalories), num(g.MinProtein), num(g.MaxCarbs), num(g.MaxFat), g.Normalize().DietaryPreference)
}

func formatMetricsMarkdown(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent Plans*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		fmt.Fprintf(&sb, "• *%s*: %d plans (%d empty, %d capped), avg %s evals, %s ms\n",
			d.Date, d.Runs, d.EmptyPlans, d.Truncated, num(d.AvgEvaluations), num(d.AvgLatencyMillis))
		if d.PromptTokens+d.CompletionTokens > 0 {
			fmt.Fprintf(&sb, "  ↳ LLM: %d prompt / %d completion tokens\n", d.PromptTokens, d.CompletionTokens)
		}
	}

	sb.WriteString("\n🧠 *System Health*\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "• Uptime: %s\n", health.Uptime)
	fmt.Fprintf(&sb, "• Disk Data: %s\n", health.DataDiskSize)
	return sb.String()
}

// num prints v with at most one decimal.
func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}

func dataDir(dbPath string) string {
	if dbPath == "" {
		return "data"
	}
	return filepath.Dir(dbPath)
}
