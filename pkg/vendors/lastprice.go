package vendors

import (
	"github.com/tidwall/gjson"

	"github.com/pricescope/pricescope/pkg/catalog"
)

// LastPriceSelect parses LastPrice's searchbox response: an object carrying
// a products array. LastPrice takes the query in its form body, not a query
// param, so its descriptor declares a form template instead of a search
// param.
func LastPriceSelect(body string) ([]catalog.Candidate, error) {
	parsed := gjson.Parse(body)
	if !parsed.IsObject() {
		return nil, catalog.Errorf(catalog.KindInvalidUpstreamResponse, "LastPrice response is not an object")
	}
	products := parsed.Get("products")
	if !products.Exists() {
		return nil, catalog.Errorf(catalog.KindInvalidUpstreamResponse, "LastPrice response missing 'products' key")
	}

	var out []catalog.Candidate
	for _, item := range products.Array() {
		if missing, ok := requireKeys(item, "title", "subtitle", "productId", "url", "image"); !ok {
			return nil, catalog.Errorf(catalog.KindInvalidUpstreamResponse, "LastPrice response missing key: %s", missing)
		}

		out = append(out, catalog.Candidate{
			Name:        oneLine(item.Get("title")),
			Description: oneLine(item.Get("subtitle")),
			SKU:         item.Get("productId").String(),
			URL:         item.Get("url").String(),
			ImageURL:    item.Get("image").String(),
		})
	}
	return out, nil
}
