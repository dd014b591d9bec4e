package vendors

import (
	"github.com/pricescope/pricescope/pkg/catalog"
	"github.com/pricescope/pricescope/pkg/scraper"
)

// AnchorVendor is the vendor whose SKU keys the cross-vendor product
// identity.
const AnchorVendor = "Traklin"

// All returns the static vendor registry: one immutable descriptor plus
// selector/normalizer pair per configured vendor. Built once at startup and
// passed by reference into the orchestrator; nothing mutates it afterwards.
func All() []scraper.Config {
	return []scraper.Config{
		{
			Descriptor: catalog.Descriptor{
				Name:           "Traklin",
				SearchEndpoint: "https://www.traklin.co.il/ajax/content_auto_suggest.ashx",
				SearchParam:    "prefix",
				Strategy:       catalog.FetchEmbeddedLD,
			},
			Select: TraklinSelect,
		},
		{
			Descriptor: catalog.Descriptor{
				Name:           "KSP",
				SearchEndpoint: "https://ksp.co.il/m_action/api/category/0",
				SearchParam:    "search",
				Strategy:       catalog.FetchAPI,
				DetailEndpoint: "https://ksp.co.il/m_action/api/item",
			},
			Select: KSPSelect,
			Detail: KSPDetail,
		},
		{
			Descriptor: catalog.Descriptor{
				Name:           "Payngo",
				SearchEndpoint: "https://api.instantsearchplus.com",
				SearchParam:    "q",
				Params: map[string]string{
					"store_id":      "1",
					"UUID":          "b655c070-2db6-4709-933f-df029bd118a8",
					"cdn_cache_key": "1757229797",
				},
				Strategy: catalog.FetchEmbeddedLD,
			},
			Select: PayngoSelect,
		},
		{
			Descriptor: catalog.Descriptor{
				Name:           "Shekem",
				SearchEndpoint: "https://api.instantsearchplus.com",
				SearchParam:    "q",
				Params: map[string]string{
					"store_id":      "2",
					"UUID":          "b655c070-2db6-4709-933f-df029bd118a8",
					"cdn_cache_key": "1757229797",
				},
				Strategy: catalog.FetchEmbeddedLD,
			},
			Select: ShekemSelect,
		},
		{
			Descriptor: catalog.Descriptor{
				Name:           "LastPrice",
				SearchEndpoint: "https://www.lastprice.co.il/oapi/oapi_searchbox.asp",
				Form: map[string]string{
					"query":       "",
					"ResultLimit": "30",
				},
				Strategy: catalog.FetchEmbeddedLD,
			},
			Select: LastPriceSelect,
		},
		{
			Descriptor: catalog.Descriptor{
				Name:           "Neto",
				SearchEndpoint: "https://www.netoneto.co.il/amasty_xsearch/autocomplete/index/",
				SearchParam:    "q",
				Headers: map[string]string{
					"Accept":           "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
					"Referer":          "https://www.netoneto.co.il/",
					"X-Requested-With": "XMLHttpRequest",
				},
				Params: map[string]string{
					"uenc": "aHR0cHM6Ly93d3cubmV0b25ldG8uY28uaWwv",
				},
				Strategy: catalog.FetchEmbeddedLD,
			},
			Select: NetoSelect,
		},
	}
}
