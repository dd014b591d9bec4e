package scraper

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/pricescope/pricescope/pkg/catalog"
	"github.com/pricescope/pricescope/pkg/whttp"
)

// SelectFunc parses one raw search response into an ordered list of
// candidates. It is pure and vendor-specific: a shape violation returns a
// KindInvalidUpstreamResponse error, a well-shaped empty response returns an
// empty slice.
type SelectFunc func(body string) ([]catalog.Candidate, error)

// DetailFunc maps a vendor's detail API response into the canonical product.
// Only required for the api fetch strategy.
type DetailFunc func(detail gjson.Result, picked catalog.Candidate) (*catalog.Product, error)

// Config registers one vendor: its immutable descriptor plus the pair of
// pure functions implementing its fetch strategy.
type Config struct {
	Descriptor catalog.Descriptor
	Select     SelectFunc
	Detail     DetailFunc
}

// Options carries the collaborators injected into a scraper.
type Options struct {
	Fetcher *whttp.Fetcher
	Metrics *Metrics
	Log     logrus.FieldLogger
}

// Scraper runs the two-stage pipeline (search, pick, fetch-detail) for one
// vendor. A scraper holds no per-query state; Run may be called for any
// number of queries but each call is independent.
type Scraper struct {
	desc     catalog.Descriptor
	selectFn SelectFunc
	detailFn DetailFunc
	fetcher  *whttp.Fetcher
	metrics  *Metrics
	log      logrus.FieldLogger
}

// New validates the vendor's declared capabilities and builds its scraper.
func New(cfg Config, opts Options) (*Scraper, error) {
	if cfg.Descriptor.Name == "" {
		return nil, catalog.Errorf(catalog.KindConfiguration, "descriptor has no vendor name")
	}
	if cfg.Descriptor.SearchEndpoint == "" {
		return nil, catalog.Errorf(catalog.KindConfiguration, "%s: descriptor has no search endpoint", cfg.Descriptor.Name)
	}
	if cfg.Select == nil {
		return nil, catalog.Errorf(catalog.KindConfiguration, "%s: no search selector registered", cfg.Descriptor.Name)
	}
	if cfg.Descriptor.Strategy == catalog.FetchAPI {
		if cfg.Descriptor.DetailEndpoint == "" {
			return nil, catalog.Errorf(catalog.KindConfiguration,
				"%s: fetch strategy %q requires a product data endpoint", cfg.Descriptor.Name, cfg.Descriptor.Strategy)
		}
		if cfg.Detail == nil {
			return nil, catalog.Errorf(catalog.KindConfiguration,
				"%s: fetch strategy %q requires a detail normalizer", cfg.Descriptor.Name, cfg.Descriptor.Strategy)
		}
	}

	s := &Scraper{
		desc:     cfg.Descriptor,
		selectFn: cfg.Select,
		detailFn: cfg.Detail,
		fetcher:  opts.Fetcher,
		metrics:  opts.Metrics,
		log:      opts.Log,
	}
	if s.fetcher == nil {
		s.fetcher = whttp.NewFetcher()
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	return s, nil
}

// Name returns the vendor name this scraper is bound to.
func (s *Scraper) Name() string {
	return s.desc.Name
}

// Run executes the pipeline for one query. It returns (product, nil) on
// success, (nil, nil) when the vendor had no matching candidate, and
// (nil, err) with a kind-tagged error otherwise. Failures are returned, not
// caught: the orchestrator owns isolation.
func (s *Scraper) Run(ctx context.Context, query string) (*catalog.Product, error) {
	candidates, err := s.search(ctx, query)
	if err != nil {
		s.metrics.IncError(s.desc.Name, string(catalog.KindOf(err)))
		return nil, err
	}

	if len(candidates) == 0 {
		s.log.Debugf("[%s] no search result found for query %q", s.desc.Name, query)
		s.metrics.IncEmpty(s.desc.Name)
		return nil, nil
	}

	// The vendor's own relevance ranking is trusted as-is.
	picked := candidates[0]

	product, err := s.fetchDetail(ctx, picked)
	if err != nil {
		s.metrics.IncError(s.desc.Name, string(catalog.KindOf(err)))
		return nil, err
	}
	if product == nil {
		s.metrics.IncEmpty(s.desc.Name)
		return nil, nil
	}

	s.metrics.IncProduct(s.desc.Name)
	return product, nil
}

func (s *Scraper) search(ctx context.Context, query string) ([]catalog.Candidate, error) {
	params := cloneMap(s.desc.Params)
	form := cloneMap(s.desc.Form)

	if s.desc.SearchParam != "" {
		params[s.desc.SearchParam] = query
	} else {
		// The vendor takes the query in its request body instead.
		if _, ok := form["query"]; !ok {
			return nil, catalog.Errorf(catalog.KindConfiguration,
				"%s: no search param and no query field declared in form template", s.desc.Name)
		}
		form["query"] = query
	}

	start := time.Now()
	s.metrics.IncRequest(s.desc.Name, "search")
	body, err := s.fetcher.FetchText(ctx, &whttp.Request{
		URL:     s.desc.SearchEndpoint,
		Headers: s.desc.Headers,
		Params:  params,
		Form:    form,
		Cookies: s.desc.Cookies,
	})
	s.metrics.ObserveDuration(s.desc.Name, "search", time.Since(start))
	if err != nil {
		return nil, err
	}

	candidates, err := s.selectFn(body)
	if err != nil {
		return nil, err
	}
	s.log.Debugf("[%s] %d search results for %q", s.desc.Name, len(candidates), query)
	return candidates, nil
}

func (s *Scraper) fetchDetail(ctx context.Context, picked catalog.Candidate) (*catalog.Product, error) {
	switch s.desc.Strategy {
	case catalog.FetchAPI:
		return s.detailAPI(ctx, picked)
	case catalog.FetchEmbeddedLD:
		return s.detailEmbedded(ctx, picked)
	default:
		return nil, catalog.Errorf(catalog.KindConfiguration, "%s: unknown fetch strategy %q", s.desc.Name, s.desc.Strategy)
	}
}

func (s *Scraper) detailAPI(ctx context.Context, picked catalog.Candidate) (*catalog.Product, error) {
	sku := picked.SKU
	if sku == "" {
		// Fall back to the last path segment of the candidate URL.
		parts := strings.Split(strings.Trim(picked.URL, "/"), "/")
		sku = parts[len(parts)-1]
	}
	detailURL := strings.TrimRight(s.desc.DetailEndpoint, "/") + "/" + sku

	start := time.Now()
	s.metrics.IncRequest(s.desc.Name, "detail")
	detail, err := s.fetcher.FetchJSON(ctx, &whttp.Request{URL: detailURL})
	s.metrics.ObserveDuration(s.desc.Name, "detail", time.Since(start))
	if err != nil {
		return nil, err
	}

	return s.detailFn(detail, picked)
}

func (s *Scraper) detailEmbedded(ctx context.Context, picked catalog.Candidate) (*catalog.Product, error) {
	if picked.URL == "" {
		return nil, catalog.Errorf(catalog.KindParse, "%s: candidate has no detail URL", s.desc.Name)
	}

	start := time.Now()
	s.metrics.IncRequest(s.desc.Name, "detail")
	html, err := s.fetcher.FetchText(ctx, &whttp.Request{
		URL:     picked.URL,
		Headers: s.desc.Headers,
		Cookies: s.desc.Cookies,
	})
	s.metrics.ObserveDuration(s.desc.Name, "detail", time.Since(start))
	if err != nil {
		return nil, err
	}

	return NormalizeJSONLD(html, picked)
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
