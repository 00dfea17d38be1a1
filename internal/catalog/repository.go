package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cafe-calorie/internal/planner"
)

// Repository is a database-backed dish catalog.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

const upsertDish = `
INSERT INTO dishes (name, cafe_id, station, calories, protein, carbs, fat, dietary_tags,
                    serving_size, serving_unit, type, position, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
    cafe_id = excluded.cafe_id,
    station = excluded.station,
    calories = excluded.calories,
    protein = excluded.protein,
    carbs = excluded.carbs,
    fat = excluded.fat,
    dietary_tags = excluded.dietary_tags,
    serving_size = excluded.serving_size,
    serving_unit = excluded.serving_unit,
    type = excluded.type,
    updated_at = excluded.updated_at`

// SaveCafes validates and upserts every dish of cafes in one transaction.
// New dishes are appended after existing ones; updated dishes keep their place.
func (r *Repository) SaveCafes(ctx context.Context, cafes []Cafe) (int, error) {
	if err := Validate(cafes); err != nil {
		return 0, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), -1) + 1 FROM dishes`).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to read dish positions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, upsertDish)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare dish upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	saved := 0
	for _, c := range cafes {
		for _, s := range c.Stations {
			for _, d := range s.Dishes {
				tags, err := json.Marshal(d.DietaryTags)
				if err != nil {
					return 0, fmt.Errorf("failed to marshal tags for %s: %w", d.Name, err)
				}
				if _, err := stmt.ExecContext(ctx, d.Name, c.ID, s.Name, d.Calories, d.Protein, d.Carbs, d.Fat,
					string(tags), d.ServingSize, d.ServingUnit, d.Type, next, now); err != nil {
					return 0, fmt.Errorf("failed to save dish %s: %w", d.Name, err)
				}
				next++
				saved++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit dishes: %w", err)
	}
	return saved, nil
}

// List retrieves all dishes in catalog order, optionally excluding names.
func (r *Repository) List(ctx context.Context, excludeNames []string) ([]planner.Dish, error) {
	query := `SELECT name, calories, protein, carbs, fat, dietary_tags, serving_size, serving_unit, type
FROM dishes`
	args := make([]interface{}, 0, len(excludeNames))
	if len(excludeNames) > 0 {
		query += ` WHERE name NOT IN (?` + strings.Repeat(`, ?`, len(excludeNames)-1) + `)`
		for _, n := range excludeNames {
			args = append(args, n)
		}
	}
	query += ` ORDER BY position, name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list dishes: %w", err)
	}
	defer rows.Close()

	var dishes []planner.Dish
	for rows.Next() {
		var (
			d    planner.Dish
			tags string
		)
		if err := rows.Scan(&d.Name, &d.Calories, &d.Protein, &d.Carbs, &d.Fat, &tags,
			&d.ServingSize, &d.ServingUnit, &d.Type); err != nil {
			return nil, fmt.Errorf("failed to scan dish: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &d.DietaryTags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags for %s: %w", d.Name, err)
		}
		dishes = append(dishes, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dishes: %w", err)
	}
	return dishes, nil
}

// Dishes implements Provider.
func (r *Repository) Dishes(ctx context.Context) ([]planner.Dish, error) {
	return r.List(ctx, nil)
}

// Count returns the number of dishes in the database.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dishes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count dishes: %w", err)
	}
	return n, nil
}

// Delete removes a dish by name. Deleting a missing dish is not an error.
func (r *Repository) Delete(ctx context.Context, name string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM dishes WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete dish %s: %w", name, err)
	}
	return nil
}
