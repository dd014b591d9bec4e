package vendors

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"github.com/pricescope/pricescope/pkg/catalog"
)

// MissingSKU marks a Neto candidate whose product id could not be resolved
// from the search fragment. The detail stage falls back through the page's
// JSON-LD before giving up.
const MissingSKU = "MISSING"

// NetoSelect parses Neto's autocomplete response: a JSON envelope whose
// section "10" carries an HTML fragment of product cards. Attributes are
// extracted positionally from each card; a missing attribute degrades to an
// empty field rather than failing, except that the fragment itself must
// exist and be non-empty.
func NetoSelect(body string) ([]catalog.Candidate, error) {
	fragment := gjson.Get(body, "10.html")
	if !fragment.Exists() {
		return nil, catalog.Errorf(catalog.KindInvalidUpstreamResponse, "Neto response missing 'html' key")
	}
	html := fragment.String()
	if html == "" {
		return nil, catalog.Errorf(catalog.KindInvalidUpstreamResponse, "Neto response 'html' is empty")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, catalog.NewError(catalog.KindInvalidUpstreamResponse, err)
	}

	var out []catalog.Candidate
	doc.Find("ul.amsearch-product-list li.amsearch-item.product-item").Each(func(_ int, li *goquery.Selection) {
		// Prefer data-click-url, fall back to the product link.
		url, ok := li.Attr("data-click-url")
		if !ok {
			url, _ = li.Find("a.amsearch-link").Attr("href")
		}

		name := strings.TrimSpace(li.Find("a.amsearch-link").Text())
		img, _ := li.Find("img.product-image-photo").Attr("src")

		price := 0
		if amount, ok := li.Find("[data-price-type='basePrice']").Attr("data-price-amount"); ok {
			if f, err := strconv.ParseFloat(strings.ReplaceAll(amount, ",", ""), 64); err == nil {
				price = int(f)
			}
		}

		sku, ok := li.Find(".price-box").Attr("data-product-id")
		if !ok || sku == "" {
			sku = MissingSKU
		}

		out = append(out, catalog.Candidate{
			Name:      name,
			SKU:       sku,
			URL:       url,
			ImageURL:  img,
			OrigPrice: price,
			Extra:     map[string]any{},
		})
	})

	return out, nil
}
