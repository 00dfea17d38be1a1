// Package catalog supplies the dish records the planner searches over.
//
// Menus are organised cafe -> station -> dish. The planner only wants a flat
// list, so every source here ends in Flatten.
package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"cafe-calorie/internal/planner"
)

// Dish categories. Informational only.
const (
	TypeMain     = "main"
	TypeSide     = "side"
	TypeDessert  = "dessert"
	TypeBeverage = "beverage"
)

// Station is a counter inside a cafe.
type Station struct {
	Name   string         `json:"name" yaml:"name"`
	Dishes []planner.Dish `json:"dishes" yaml:"dishes"`
}

// Cafe is one menu.
type Cafe struct {
	ID       string    `json:"id" yaml:"id"`
	Name     string    `json:"name" yaml:"name"`
	ImageURL string    `json:"image_url,omitempty" yaml:"image_url,omitempty"`
	Stations []Station `json:"stations" yaml:"stations"`
}

// Flatten lists every dish in cafe, station, dish order. A name seen twice
// keeps its first occurrence, since the planner identifies dishes by name.
func Flatten(cafes []Cafe) []planner.Dish {
	seen := make(map[string]struct{})
	var dishes []planner.Dish
	for _, c := range cafes {
		for _, s := range c.Stations {
			for _, d := range s.Dishes {
				if _, dup := seen[d.Name]; dup {
					continue
				}
				seen[d.Name] = struct{}{}
				dishes = append(dishes, d)
			}
		}
	}
	return dishes
}

// Provider returns the current flat catalog.
type Provider interface {
	Dishes(ctx context.Context) ([]planner.Dish, error)
}

// Static is a Provider over a fixed set of cafes.
type Static struct {
	mu     sync.RWMutex
	cafes  []Cafe
	dishes []planner.Dish
}

// NewStatic creates a Static provider.
func NewStatic(cafes []Cafe) *Static {
	s := &Static{}
	s.Replace(cafes)
	return s
}

// Dishes returns a copy of the flattened catalog.
func (s *Static) Dishes(_ context.Context) ([]planner.Dish, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]planner.Dish, len(s.dishes))
	copy(out, s.dishes)
	return out, nil
}

// Cafes returns the nested menus.
func (s *Static) Cafes() []Cafe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cafes
}

// Replace swaps the catalog atomically.
func (s *Static) Replace(cafes []Cafe) {
	dishes := Flatten(cafes)
	s.mu.Lock()
	s.cafes = cafes
	s.dishes = dishes
	s.mu.Unlock()
}

//go:embed default_catalog.json
var defaultCatalogJSON []byte

// Default returns the built-in demo menus.
func Default() ([]Cafe, error) {
	var cafes []Cafe
	if err := json.Unmarshal(defaultCatalogJSON, &cafes); err != nil {
		return nil, fmt.Errorf("failed to decode default catalog: %w", err)
	}
	return cafes, nil
}

// Validate checks every dish of the menus.
func Validate(cafes []Cafe) error {
	for _, c := range cafes {
		for _, s := range c.Stations {
			for _, d := range s.Dishes {
				if err := d.Validate(); err != nil {
					return fmt.Errorf("cafe %s, station %s: %w", c.ID, s.Name, err)
				}
			}
		}
	}
	return nil
}
