package catalog

// FetchStrategy selects how a vendor's detail stage retrieves product data.
type FetchStrategy string

const (
	// FetchAPI fetches product details from a dedicated JSON endpoint.
	FetchAPI FetchStrategy = "api"
	// FetchEmbeddedLD scrapes JSON-LD blocks embedded in the product page.
	FetchEmbeddedLD FetchStrategy = "html_json_ld"
)

// Descriptor is the static, immutable configuration for one vendor.
// Built once at startup by the registry and passed by reference; nothing
// mutates it afterwards.
type Descriptor struct {
	Name           string
	SearchEndpoint string
	Headers        map[string]string
	Params         map[string]string
	Cookies        map[string]string
	Form           map[string]string

	// SearchParam is the query-string key the free-text query is injected
	// into. When empty, the query is injected into the "query" form field
	// instead (the LastPrice case).
	SearchParam string

	Strategy FetchStrategy

	// DetailEndpoint is the product data endpoint base URL.
	// Required when Strategy is FetchAPI.
	DetailEndpoint string
}

// Candidate is one minimally-normalized search hit. It lives only between
// the search and detail stages of a single query and is never persisted.
type Candidate struct {
	Name        string
	Description string
	SKU         string
	URL         string
	ImageURL    string

	// Prices are in the smallest currency unit; 0 means the vendor's search
	// response did not expose a price.
	OrigPrice int
	DiscPrice int

	Extra map[string]any
}

// Product is the canonical normalized output of one vendor's detail stage.
// SKU and Name are always set; price fields default to 0 when a vendor does
// not expose them.
type Product struct {
	SKU          string         `json:"sku"`
	Name         string         `json:"name"`
	Price        int            `json:"price"`
	OrigPrice    int            `json:"orig_price"`
	DiscPrice    int            `json:"disc_price"`
	Currency     string         `json:"currency"`
	URL          string         `json:"url"`
	Images       []string       `json:"images"`
	Description  string         `json:"description"`
	Availability string         `json:"availability"`
	Condition    string         `json:"condition"`
	Brand        string         `json:"brand"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	Extra        map[string]any `json:"extra,omitempty"`
}
