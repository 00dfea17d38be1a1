package app

import (
	"context"
	"fmt"

	"cafe-calorie/internal/catalog"
	"cafe-calorie/internal/logging"
)

// SeedCatalog stores cafes in repo, defaulting to the embedded catalog when
// cafes is empty. It returns the number of dishes written.
func SeedCatalog(ctx context.Context, repo *catalog.Repository, cafes []catalog.Cafe) (int, error) {
	if len(cafes) == 0 {
		var err error
		if cafes, err = catalog.Default(); err != nil {
			return 0, fmt.Errorf("failed to load default catalog: %w", err)
		}
	}

	n, err := repo.SaveCafes(ctx, cafes)
	if err != nil {
		return 0, fmt.Errorf("failed to seed catalog: %w", err)
	}
	logging.Info().Int("cafes", len(cafes)).Int("dishes", n).Msg("catalog seeded")
	return n, nil
}

// ImportMenu scrapes a cafe menu page and stores its dishes.
func ImportMenu(ctx context.Context, importer *catalog.MenuImporter, repo *catalog.Repository, url string) (catalog.Cafe, error) {
	cafe, err := importer.ImportURL(ctx, url)
	if err != nil {
		return catalog.Cafe{}, fmt.Errorf("failed to import menu: %w", err)
	}

	n, err := repo.SaveCafes(ctx, []catalog.Cafe{cafe})
	if err != nil {
		return catalog.Cafe{}, fmt.Errorf("failed to save menu: %w", err)
	}
	logging.Info().Str("cafe", cafe.ID).Str("url", url).Int("dishes", n).Msg("menu imported")
	return cafe, nil
}
