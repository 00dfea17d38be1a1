package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"cafe-calorie/internal/planner"
)

const goalsPrompt = `You convert a cafe visitor's request into nutrition goals.
Answer with a single JSON object and nothing else, using these keys:
  "max_calories" (number, kcal), "min_protein" (number, grams),
  "max_carbs" (number, grams), "max_fat" (number, grams),
  "dietary_preference" (one of "Any", "Vegan", "Vegetarian", "Non-Vegetarian"),
  "excluded_dish_names" (array of dish names the visitor does not want).
Omit any key the request does not mention.
{{- if .Dishes}}
Dish names on today's menu: {{join .Dishes ", "}}.
{{- end}}

Request: {{.Text}}`

var goalsTmpl = template.Must(template.New("goals").
	Funcs(template.FuncMap{"join": strings.Join}).
	Parse(goalsPrompt))

// ParsedRequest is a free-text request turned into engine input.
type ParsedRequest struct {
	Goals    planner.Goals
	Excluded []string
	Usage    TokenUsage
}

// GoalParser turns free text like "vegan lunch under 600 kcal" into Goals.
type GoalParser struct {
	textGen  TextGenerator
	defaults planner.Goals
}

// NewGoalParser creates a parser that fills unspecified fields from defaults.
func NewGoalParser(textGen TextGenerator, defaults planner.Goals) *GoalParser {
	return &GoalParser{textGen: textGen, defaults: defaults}
}

type goalsReply struct {
	MaxCalories       *float64 `json:"max_calories"`
	MinProtein        *float64 `json:"min_protein"`
	MaxCarbs          *float64 `json:"max_carbs"`
	MaxFat            *float64 `json:"max_fat"`
	DietaryPreference string   `json:"dietary_preference"`
	Excluded          []string `json:"excluded_dish_names"`
}

// Parse asks the model for goals. menu, when given, lets the model resolve
// dish names the visitor wants excluded.
func (p *GoalParser) Parse(ctx context.Context, text string, menu []string) (ParsedRequest, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ParsedRequest{Goals: p.defaults.Normalize()}, nil
	}

	var buf bytes.Buffer
	if err := goalsTmpl.Execute(&buf, struct {
		Text   string
		Dishes []string
	}{text, menu}); err != nil {
		return ParsedRequest{}, fmt.Errorf("failed to build goals prompt: %w", err)
	}

	resp, err := p.textGen.GenerateContent(ctx, buf.String())
	if err != nil {
		return ParsedRequest{}, fmt.Errorf("failed to get LLM response: %w", err)
	}

	var reply goalsReply
	if err := json.Unmarshal([]byte(stripFences(resp.Content)), &reply); err != nil {
		return ParsedRequest{Usage: resp.Usage}, fmt.Errorf("failed to unmarshal LLM response: %w", err)
	}

	goals := p.merge(reply)
	if err := goals.Validate(); err != nil {
		return ParsedRequest{Usage: resp.Usage}, err
	}
	return ParsedRequest{Goals: goals, Excluded: reply.Excluded, Usage: resp.Usage}, nil
}

func (p *GoalParser) merge(r goalsReply) planner.Goals {
	g := p.defaults
	if r.MaxCalories != nil {
		g.MaxCalories = *r.MaxCalories
	}
	if r.MinProtein != nil {
		g.MinProtein = *r.MinProtein
	}
	if r.MaxCarbs != nil {
		g.MaxCarbs = *r.MaxCarbs
	}
	if r.MaxFat != nil {
		g.MaxFat = *r.MaxFat
	}
	if r.DietaryPreference != "" {
		g.DietaryPreference = planner.DietaryPreference(r.DietaryPreference)
	}
	return g.Normalize()
}

// stripFences removes a markdown code fence some models wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
