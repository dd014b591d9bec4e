package vendors

import (
	"github.com/tidwall/gjson"

	"github.com/pricescope/pricescope/pkg/catalog"
	"github.com/pricescope/pricescope/pkg/scraper"
)

// PayngoSelect parses the instantsearchplus autosuggest shape shared by
// Payngo and Shekem: an object with an items array of tersely-keyed hits.
func PayngoSelect(body string) ([]catalog.Candidate, error) {
	parsed := gjson.Parse(body)
	items := parsed.Get("items")
	if !items.Exists() {
		return nil, catalog.Errorf(catalog.KindInvalidUpstreamResponse, "instantsearchplus response missing 'items' key")
	}

	var out []catalog.Candidate
	for _, item := range items.Array() {
		out = append(out, catalog.Candidate{
			Name:        oneLine(item.Get("l")),
			Description: oneLine(item.Get("d")),
			SKU:         item.Get("sku").String(),
			URL:         item.Get("u").String(),
			ImageURL:    item.Get("t2").String(),
			OrigPrice:   scraper.PriceToInt(item.Get("p_c")),
			DiscPrice:   scraper.PriceToInt(item.Get("p")),
		})
	}
	return out, nil
}

// ShekemSelect is PayngoSelect: Shekem runs the same storefront search with
// a different store id.
func ShekemSelect(body string) ([]catalog.Candidate, error) {
	return PayngoSelect(body)
}
