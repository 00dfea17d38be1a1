package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"cafe-calorie/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const grillMenu = `<html><body data-cafe-id="grill">
<h1 class="cafe-name">Grill</h1>
<section class="station"><h2>Grill Station</h2><table>
  <tr class="dish" data-type="main">
    <td class="name">Smoked Tofu</td><td class="calories">210</td>
    <td class="protein">22</td><td class="carbs">6</td><td class="fat">11</td>
    <td class="tags">Vegan</td><td class="serving">1 slab</td>
  </tr>
</table></section></body></html>`

func TestSeedCatalog(t *testing.T) {
	ctx := context.Background()
	repo := catalog.NewRepository(newTestDB(t).SQL)

	cafes, err := catalog.Default()
	require.NoError(t, err)

	n, err := SeedCatalog(ctx, repo, nil)
	require.NoError(t, err)
	assert.Equal(t, len(catalog.Flatten(cafes)), n)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, count)
}

func TestImportMenu(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(grillMenu))
	}))
	defer srv.Close()

	repo := catalog.NewRepository(newTestDB(t).SQL)
	cafe, err := ImportMenu(ctx, catalog.NewMenuImporter(), repo, srv.URL+"/menu")
	require.NoError(t, err)
	assert.Equal(t, "grill", cafe.ID)

	dishes, err := repo.Dishes(ctx)
	require.NoError(t, err)
	require.Len(t, dishes, 1)
	assert.Equal(t, "Smoked Tofu", dishes[0].Name)
	assert.Equal(t, 22.0, dishes[0].Protein)
}
