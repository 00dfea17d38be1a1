package planner

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidInput is returned for goals or dishes the engine cannot reason
// about: negative or non-finite numbers, unknown diets, unnamed dishes.
var ErrInvalidInput = errors.New("invalid input")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Normalize fills the defaults a caller may omit. An empty preference means Any.
func (g Goals) Normalize() Goals {
	if g.DietaryPreference == "" {
		g.DietaryPreference = PreferenceAny
	}
	return g
}

// Validate checks goals at the engine boundary.
func (g Goals) Validate() error {
	if err := finite(
		field{"max_calories", g.MaxCalories},
		field{"min_protein", g.MinProtein},
		field{"max_carbs", g.MaxCarbs},
		field{"max_fat", g.MaxFat},
	); err != nil {
		return fmt.Errorf("%w: goals: %v", ErrInvalidInput, err)
	}
	if err := validate.Struct(g); err != nil {
		return fmt.Errorf("%w: goals: %s", ErrInvalidInput, describe(err))
	}
	return nil
}

// Validate checks a single catalog entry.
func (d Dish) Validate() error {
	if err := finite(
		field{"calories", d.Calories},
		field{"protein", d.Protein},
		field{"carbs", d.Carbs},
		field{"fat", d.Fat},
	); err != nil {
		return fmt.Errorf("%w: dish %q: %v", ErrInvalidInput, d.Name, err)
	}
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: dish %q: %s", ErrInvalidInput, d.Name, describe(err))
	}
	return nil
}

type field struct {
	name  string
	value float64
}

func finite(fields ...field) error {
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%s must be a finite number", f.name)
		}
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "gte":
		return fmt.Sprintf("%s must not be negative", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s has unknown value %v", fe.Field(), fe.Value())
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
