package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlMenu = `
- id: corner
  name: Corner Cafe
  stations:
    - name: Counter
      dishes:
        - name: Hummus Wrap
          calories: 320
          protein: 11
          carbs: 42
          fat: 12
          dietary_tags: [Vegan]
          serving_size: 1
          serving_unit: wrap
          type: main
`

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("YAML", func(t *testing.T) {
		path := filepath.Join(dir, "menu.yaml")
		require.NoError(t, os.WriteFile(path, []byte(yamlMenu), 0644))

		cafes, err := LoadFile(path)
		require.NoError(t, err)
		require.Len(t, cafes, 1)
		d := Flatten(cafes)[0]
		assert.Equal(t, "Hummus Wrap", d.Name)
		assert.Equal(t, 320.0, d.Calories)
		assert.Equal(t, "wrap", d.ServingUnit)
	})

	t.Run("JSONRoundTrip", func(t *testing.T) {
		cafes, err := Default()
		require.NoError(t, err)
		path := filepath.Join(dir, "sub", "menu.json")
		require.NoError(t, SaveFile(path, cafes))

		loaded, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, Flatten(cafes), Flatten(loaded))
	})

	t.Run("UnsupportedExtension", func(t *testing.T) {
		path := filepath.Join(dir, "menu.txt")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
		_, err := LoadFile(path)
		assert.ErrorContains(t, err, "unsupported catalog format")
	})

	t.Run("InvalidDish", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"id":"x","stations":[{"name":"s","dishes":[{"name":"Soup","calories":-5}]}]}]`), 0644))
		_, err := LoadFile(path)
		assert.Error(t, err)
	})

	t.Run("Empty", func(t *testing.T) {
		path := filepath.Join(dir, "empty.yaml")
		require.NoError(t, os.WriteFile(path, nil, 0644))
		_, err := LoadFile(path)
		assert.ErrorContains(t, err, "has no dishes")
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(dir, "nope.json"))
		assert.Error(t, err)
	})
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "menu.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlMenu), 0644))

	w, err := NewWatcher(path)
	require.NoError(t, err)
	defer w.Close()

	reloads := make(chan error, 100)
	w.OnReload = func(err error) {
		select {
		case reloads <- err:
		default:
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	dishes, err := w.Dishes(ctx)
	require.NoError(t, err)
	require.Len(t, dishes, 1)

	waitForError := func() error {
		deadline := time.After(5 * time.Second)
		for {
			select {
			case err := <-reloads:
				if err != nil {
					return err
				}
			case <-deadline:
				t.Fatal("timed out waiting for a failed reload")
				return nil
			}
		}
	}

	updated := yamlMenu + `        - name: Mint Tea
          calories: 5
          protein: 0
          carbs: 1
          fat: 0
          dietary_tags: [Vegan]
`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0644))
	require.Eventually(t, func() bool {
		dishes, _ := w.Dishes(ctx)
		return len(dishes) == 2
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("- id: [broken"), 0644))
	assert.Error(t, waitForError())
	dishes, _ = w.Dishes(ctx)
	assert.Len(t, dishes, 2, "previous catalog survives a bad reload")
}
