package planner

// DietaryTag labels a dish with the diets it fits.
type DietaryTag string

const (
	TagVegan         DietaryTag = "Vegan"
	TagVegetarian    DietaryTag = "Vegetarian"
	TagNonVegetarian DietaryTag = "Non-Vegetarian"
)

// DietaryPreference is the diet requested in Goals.
type DietaryPreference string

const (
	PreferenceAny           DietaryPreference = "Any"
	PreferenceVegan         DietaryPreference = "Vegan"
	PreferenceVegetarian    DietaryPreference = "Vegetarian"
	PreferenceNonVegetarian DietaryPreference = "Non-Vegetarian"
)

// Nutrients is an aggregate nutrient profile.
type Nutrients struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Dish is a catalog entry. Nutrients describe one serving.
type Dish struct {
	Name        string       `json:"name" yaml:"name" validate:"required"`
	Calories    float64      `json:"calories" yaml:"calories" validate:"gte=0"`
	Protein     float64      `json:"protein" yaml:"protein" validate:"gte=0"`
	Carbs       float64      `json:"carbs" yaml:"carbs" validate:"gte=0"`
	Fat         float64      `json:"fat" yaml:"fat" validate:"gte=0"`
	DietaryTags []DietaryTag `json:"dietary_tags" yaml:"dietary_tags" validate:"dive,oneof=Vegan Vegetarian Non-Vegetarian"`
	ServingSize float64      `json:"serving_size,omitempty" yaml:"serving_size,omitempty"`
	ServingUnit string       `json:"serving_unit,omitempty" yaml:"serving_unit,omitempty"`
	Type        string       `json:"type,omitempty" yaml:"type,omitempty"`
}

// HasTag reports whether the dish carries tag.
func (d Dish) HasTag(tag DietaryTag) bool {
	for _, t := range d.DietaryTags {
		if t == tag {
			return true
		}
	}
	return false
}

// Goals are the caller supplied nutrient thresholds.
type Goals struct {
	MaxCalories       float64           `json:"max_calories" validate:"gte=0"`
	MinProtein        float64           `json:"min_protein" validate:"gte=0"`
	MaxCarbs          float64           `json:"max_carbs" validate:"gte=0"`
	MaxFat            float64           `json:"max_fat" validate:"gte=0"`
	DietaryPreference DietaryPreference `json:"dietary_preference" validate:"oneof=Any Vegan Vegetarian Non-Vegetarian"`
}

// CandidateItem is a dish at a given serving multiple.
type CandidateItem struct {
	Dish     Dish    `json:"dish"`
	Quantity float64 `json:"quantity"`
}

// Scaled returns the item's nutrients at its quantity.
func (c CandidateItem) Scaled() Nutrients {
	return Nutrients{
		Calories: c.Dish.Calories * c.Quantity,
		Protein:  c.Dish.Protein * c.Quantity,
		Carbs:    c.Dish.Carbs * c.Quantity,
		Fat:      c.Dish.Fat * c.Quantity,
	}
}

// Tier records which search path produced a plan.
type Tier string

const (
	TierCombination      Tier = "combination"
	TierFallbackProtein  Tier = "fallback-protein"
	TierFallbackCalories Tier = "fallback-calories"
	TierEmpty            Tier = "empty"
)

// MealPlan is the engine result. Items are in discovery order.
type MealPlan struct {
	Items     []CandidateItem `json:"meal"`
	Nutrients Nutrients       `json:"nutrients"`
	Tier      Tier            `json:"tier"`
}

// IsEmpty reports whether the plan holds no items.
func (p MealPlan) IsEmpty() bool {
	return len(p.Items) == 0
}

// DishNames lists the names of the plan's dishes in item order.
func (p MealPlan) DishNames() []string {
	names := make([]string, 0, len(p.Items))
	for _, it := range p.Items {
		names = append(names, it.Dish.Name)
	}
	return names
}

func emptyPlan() MealPlan {
	return MealPlan{Items: []CandidateItem{}, Tier: TierEmpty}
}
