package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cafe-calorie/internal/logging"
	"cafe-calorie/internal/planner"

	"github.com/PuerkitoBio/goquery"
)

// MenuImporter scrapes a cafe menu page into a Cafe.
//
// The page is expected to mark up one cafe:
//
//	<body data-cafe-id="fiesta"><h1 class="cafe-name">Fiesta</h1>
//	  <section class="station"><h2 class="station-name">Mains</h2><table>
//	    <tr class="dish" data-type="main">
//	      <td class="name">Dal Makhani</td><td class="calories">300 kcal</td>
//	      <td class="protein">15 g</td><td class="carbs">40 g</td><td class="fat">10 g</td>
//	      <td class="tags">Vegetarian</td><td class="serving">1 bowl</td>
//	    </tr></table>
//
// Rows that cannot be parsed are skipped and logged.
type MenuImporter struct {
	httpClient *http.Client
}

// NewMenuImporter creates a new MenuImporter.
func NewMenuImporter() *MenuImporter {
	return &MenuImporter{httpClient: &http.Client{Timeout: 15 * time.Second}}
}

// ImportURL fetches url and parses it.
func (m *MenuImporter) ImportURL(ctx context.Context, url string) (Cafe, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Cafe{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return Cafe{}, fmt.Errorf("failed to fetch menu: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Cafe{}, fmt.Errorf("failed to fetch menu: status %d", resp.StatusCode)
	}

	return ParseMenu(resp.Body, slugFromURL(url))
}

// ParseMenu reads menu HTML. fallbackID is used when the page names no cafe id.
func ParseMenu(r io.Reader, fallbackID string) (Cafe, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Cafe{}, fmt.Errorf("failed to parse menu html: %w", err)
	}

	logger := logging.With("menu-importer")
	cafe := Cafe{ID: fallbackID}
	if id, ok := doc.Find("[data-cafe-id]").First().Attr("data-cafe-id"); ok && id != "" {
		cafe.ID = id
	}
	cafe.Name = firstText(doc.Selection, ".cafe-name", "h1", "title")
	if cafe.Name == "" {
		cafe.Name = cafe.ID
	}
	if src, ok := doc.Find(".cafe-image").First().Attr("src"); ok {
		cafe.ImageURL = src
	}

	doc.Find(".station").Each(func(_ int, s *goquery.Selection) {
		station := Station{Name: firstText(s, ".station-name", "h2", "h3")}
		s.Find(".dish").Each(func(_ int, row *goquery.Selection) {
			d, err := parseDish(row)
			if err != nil {
				logger.Warn().Err(err).Str("station", station.Name).Msg("skipping menu row")
				return
			}
			station.Dishes = append(station.Dishes, d)
		})
		if len(station.Dishes) > 0 {
			cafe.Stations = append(cafe.Stations, station)
		}
	})

	if len(cafe.Stations) == 0 {
		return Cafe{}, fmt.Errorf("no dishes found in menu")
	}
	return cafe, nil
}

func parseDish(row *goquery.Selection) (planner.Dish, error) {
	d := planner.Dish{
		Name: strings.TrimSpace(row.Find(".name").First().Text()),
		Type: strings.ToLower(strings.TrimSpace(row.AttrOr("data-type", ""))),
	}
	if d.Name == "" {
		return d, fmt.Errorf("dish row has no name")
	}

	fields := []struct {
		class string
		dst   *float64
	}{
		{".calories", &d.Calories},
		{".protein", &d.Protein},
		{".carbs", &d.Carbs},
		{".fat", &d.Fat},
	}
	for _, f := range fields {
		v, err := parseAmount(row.Find(f.class).First().Text())
		if err != nil {
			return d, fmt.Errorf("dish %s %s: %w", d.Name, strings.TrimPrefix(f.class, "."), err)
		}
		*f.dst = v
	}

	for _, tag := range strings.Split(row.Find(".tags").First().Text(), ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			d.DietaryTags = append(d.DietaryTags, planner.DietaryTag(tag))
		}
	}

	if serving := strings.Fields(row.Find(".serving").First().Text()); len(serving) > 0 {
		if size, err := parseAmount(serving[0]); err == nil {
			d.ServingSize = size
			d.ServingUnit = strings.Join(serving[1:], " ")
		}
	}

	if err := d.Validate(); err != nil {
		return d, err
	}
	return d, nil
}

var amountPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// parseAmount extracts the first number from text like "300 kcal".
func parseAmount(text string) (float64, error) {
	m := amountPattern.FindString(text)
	if m == "" {
		return 0, fmt.Errorf("no number in %q", strings.TrimSpace(text))
	}
	return strconv.ParseFloat(m, 64)
}

func firstText(s *goquery.Selection, selectors ...string) string {
	for _, sel := range selectors {
		if t := strings.TrimSpace(s.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func slugFromURL(url string) string {
	u := strings.ToLower(url)
	u = strings.TrimPrefix(strings.TrimPrefix(u, "https://"), "http://")
	return strings.Trim(slugPattern.ReplaceAllString(u, "-"), "-")
}
