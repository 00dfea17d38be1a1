package app

import (
	"context"
	"errors"
	"fmt"

	"cafe-calorie/internal/catalog"
	"cafe-calorie/internal/logging"
)

// OpenCatalog picks the dish source. A non-empty path serves that file and
// reloads it on change until ctx ends. Otherwise dishes come from repo, which
// is seeded from the embedded catalog when empty. The returned func releases
// the source.
func OpenCatalog(ctx context.Context, path string, repo *catalog.Repository) (catalog.Provider, func() error, error) {
	if path != "" {
		w, err := catalog.NewWatcher(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open catalog file: %w", err)
		}
		go func() {
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logging.Error().Err(err).Str("path", path).Msg("catalog watcher stopped")
			}
		}()
		logging.Info().Str("path", path).Int("cafes", len(w.Cafes())).Msg("serving catalog file")
		return w, w.Close, nil
	}

	n, err := repo.Count(ctx)
	if err != nil {
		return nil, nil, err
	}
	if n == 0 {
		if _, err := SeedCatalog(ctx, repo, nil); err != nil {
			return nil, nil, err
		}
	}
	return repo, func() error { return nil }, nil
}
