package vendors

import (
	"github.com/tidwall/gjson"

	"github.com/pricescope/pricescope/pkg/catalog"
	"github.com/pricescope/pricescope/pkg/scraper"
)

// KSPSelect parses KSP's category search response: hits live under
// result.items. KSP is the one vendor with a dedicated product data API, so
// its candidates feed the api detail stage keyed by uin.
func KSPSelect(body string) ([]catalog.Candidate, error) {
	parsed := gjson.Parse(body)
	items := parsed.Get("result.items")
	if !items.Exists() {
		return nil, catalog.Errorf(catalog.KindInvalidUpstreamResponse, "KSP response missing 'result.items' key")
	}

	var out []catalog.Candidate
	for _, item := range items.Array() {
		uin := item.Get("uin").String()
		out = append(out, catalog.Candidate{
			Name:        oneLine(item.Get("name")),
			Description: item.Get("description").String(),
			SKU:         uin,
			URL:         "https://ksp.co.il/web/item/" + uin,
			ImageURL:    item.Get("img").String(),
			OrigPrice:   scraper.PriceToInt(item.Get("price")),
			DiscPrice:   scraper.PriceToInt(item.Get("min_price")),
		})
	}
	return out, nil
}

// KSPDetail maps KSP's item API response into the canonical product. Prices
// come back in whole shekels; availability and condition are not exposed by
// this API and default to empty.
func KSPDetail(detail gjson.Result, picked catalog.Candidate) (*catalog.Product, error) {
	data := detail.Get("result.data")
	if !data.Exists() {
		return nil, catalog.Errorf(catalog.KindParse, "KSP item response missing 'result.data'")
	}

	var images []string
	for _, img := range detail.Get("result.images").Array() {
		if src := img.Get("sizes.b.src").String(); src != "" {
			images = append(images, src)
		}
	}

	return &catalog.Product{
		SKU:         data.Get("uin").String(),
		Name:        data.Get("name").String(),
		Price:       scraper.PriceToInt(data.Get("price")),
		OrigPrice:   picked.OrigPrice,
		DiscPrice:   picked.DiscPrice,
		Currency:    "ILS",
		URL:         detail.Get("seo.myUrl").String(),
		Images:      images,
		Description: data.Get("smalldesc").String(),
		Brand:       data.Get("brandName").String(),
		Metadata: map[string]any{
			"cheaperViaPhone": data.Get("cheaperPriceViaPhone").Value(),
			"redMsg":          detail.Get("result.redMsg").Value(),
			"tags":            detail.Get("result.tags").Value(),
		},
		Extra: picked.Extra,
	}, nil
}
