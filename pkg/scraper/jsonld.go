package scraper

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"github.com/pricescope/pricescope/pkg/catalog"
)

// NormalizeJSONLD scans a product page for embedded JSON-LD blocks and
// normalizes the first Product-typed block it finds. Pages that wrap the
// product in an ItemPage envelope (the Neto case) are unwrapped through
// mainEntity. Returns (nil, nil) when the page carries no Product block,
// which the pipeline treats as an empty result rather than a failure.
func NormalizeJSONLD(html string, picked catalog.Candidate) (*catalog.Product, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, catalog.NewError(catalog.KindParse, err)
	}

	var product *catalog.Product
	var parseErr error

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		block := gjson.Parse(sel.Text())

		if block.Get("@type").String() == "ItemPage" && block.Get("mainEntity").Exists() {
			block = block.Get("mainEntity")
		}
		if block.Get("@type").String() != "Product" {
			return true
		}

		product, parseErr = productFromBlock(block, picked)
		return false
	})

	if parseErr != nil {
		return nil, parseErr
	}
	return product, nil
}

func productFromBlock(block gjson.Result, picked catalog.Candidate) (*catalog.Product, error) {
	offers := block.Get("offers")

	sku := firstString(block.Get("sku"), block.Get("SKU"), offers.Get("sku"))
	if sku == "" {
		sku = picked.SKU
	}
	if sku == "" {
		return nil, catalog.Errorf(catalog.KindParse, "no valid SKU found")
	}

	// brand is either a plain string or a nested object with a name field.
	// It is allowed to be absent entirely.
	brand := block.Get("brand").String()
	if block.Get("brand").IsObject() {
		brand = block.Get("brand.name").String()
	}

	name := block.Get("name").String()
	if name == "" {
		name = picked.Name
	}

	images := imageList(block.Get("image"))
	if len(images) == 0 && picked.ImageURL != "" {
		images = []string{picked.ImageURL}
	}

	p := &catalog.Product{
		SKU:          sku,
		Name:         name,
		Price:        PriceToInt(offers.Get("price")),
		OrigPrice:    picked.OrigPrice,
		DiscPrice:    picked.DiscPrice,
		Currency:     offers.Get("priceCurrency").String(),
		URL:          picked.URL,
		Images:       images,
		Description:  block.Get("description").String(),
		Availability: offers.Get("availability").String(),
		Condition:    offers.Get("itemCondition").String(),
		Brand:        brand,
		Extra:        picked.Extra,
	}

	if rating := block.Get("aggregateRating"); rating.Exists() {
		p.Metadata = map[string]any{"aggregateRating": rating.Value()}
	}

	return p, nil
}

func firstString(results ...gjson.Result) string {
	for _, r := range results {
		if s := r.String(); s != "" && r.Type != gjson.JSON {
			return s
		}
	}
	return ""
}

func imageList(img gjson.Result) []string {
	switch {
	case img.IsArray():
		var out []string
		for _, r := range img.Array() {
			if s := r.String(); s != "" {
				out = append(out, s)
			}
		}
		return out
	case img.String() != "":
		return []string{img.String()}
	}
	return nil
}

// PriceToInt coerces a JSON-LD price value (number or formatted string like
// "3,790.00") to a whole-unit integer, truncating any fraction.
func PriceToInt(r gjson.Result) int {
	switch r.Type {
	case gjson.Number:
		return int(r.Int())
	case gjson.String:
		s := strings.ReplaceAll(strings.TrimSpace(r.String()), ",", "")
		if s == "" {
			return 0
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int(f)
		}
	}
	return 0
}
