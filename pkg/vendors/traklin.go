package vendors

import (
	"github.com/tidwall/gjson"

	"github.com/pricescope/pricescope/internal/utils"
	"github.com/pricescope/pricescope/pkg/catalog"
)

// TraklinSelect parses Traklin's autosuggest response: a top-level JSON
// array of product hits. Catalog numbers arrive embedded in display strings,
// so the SKU is the digits-only extraction.
func TraklinSelect(body string) ([]catalog.Candidate, error) {
	parsed := gjson.Parse(body)
	if !parsed.IsArray() {
		return nil, catalog.Errorf(catalog.KindInvalidUpstreamResponse, "Traklin response must be a list of results")
	}

	var out []catalog.Candidate
	for _, item := range parsed.Array() {
		if missing, ok := requireKeys(item, "name", "description", "catalog_number", "href", "img_src"); !ok {
			return nil, catalog.Errorf(catalog.KindInvalidUpstreamResponse, "Traklin response missing key: %s", missing)
		}

		out = append(out, catalog.Candidate{
			Name:        oneLine(item.Get("name")),
			Description: oneLine(item.Get("description")),
			SKU:         utils.DigitsOnly(item.Get("catalog_number").String()),
			URL:         item.Get("href").String(),
			ImageURL:    item.Get("img_src").String(),
			Extra: map[string]any{
				"internal_id": item.Get("value").Int(),
			},
		})
	}
	return out, nil
}
