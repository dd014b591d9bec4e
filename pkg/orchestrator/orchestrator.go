// Package orchestrator fans one query out across every configured vendor
// scraper, isolates per-vendor failures, reconciles the results under the
// anchor vendor's product identity and persists the session outcome.
package orchestrator

import (
	"context"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/pricescope/pricescope/pkg/catalog"
	"github.com/pricescope/pricescope/pkg/scraper"
)

// Session statuses. A session starts running and reaches exactly one
// terminal status.
const (
	StatusRunning        = "running"
	StatusSuccess        = "success"
	StatusPartialSuccess = "partial_success"
	StatusFailure        = "failure"
	StatusNoAnchor       = "failed_no_anchor"
	StatusInvalidAnchor  = "failed_invalid_anchor"
)

// Initiators.
const (
	InitiatorUser = "user"
	InitiatorAPI  = "api"
)

// Gateway is the narrow persistence contract the orchestrator consumes.
// *storage.DB satisfies it.
type Gateway interface {
	OpenSession(ctx context.Context, query, initiator string) (int64, error)
	CloseSession(ctx context.Context, sessionID int64, status string, attempted, succeeded int) error
	UpsertIdentity(ctx context.Context, anchorSKU int64, vendorSKU, vendorName, name, description string) error
	AppendSnapshot(ctx context.Context, sessionID, anchorSKU int64, vendorName string, p catalog.Product) error
}

// Result is one successfully persisted per-vendor product.
type Result struct {
	Vendor  string          `json:"vendor"`
	Product catalog.Product `json:"product"`
}

type Orchestrator struct {
	scrapers []*scraper.Scraper
	anchor   string
	store    Gateway
	log      logrus.FieldLogger
}

func New(scrapers []*scraper.Scraper, anchor string, store Gateway, log logrus.FieldLogger) *Orchestrator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Orchestrator{scrapers: scrapers, anchor: anchor, store: store, log: log}
}

// outcome is the terminal state of one vendor task: a normalized product, an
// empty result (both nil) or a failure.
type outcome struct {
	vendor  string
	product *catalog.Product
	err     error
}

// Run executes one scrape session for query. Per-vendor failures never
// propagate to the caller; the returned error is non-nil only when the
// session itself could not be opened.
func (o *Orchestrator) Run(ctx context.Context, query, initiator string) ([]Result, string, error) {
	o.log.Infof("Starting multi-vendor scrape for query %q", query)

	sessionID, err := o.store.OpenSession(ctx, query, initiator)
	if err != nil {
		return nil, "", err
	}
	o.log.Debugf("Created scrape session %d", sessionID)

	// Fan out: one task per vendor, full isolation, barrier on all of them.
	outcomes := make([]outcome, len(o.scrapers))
	var wg sync.WaitGroup
	for i, s := range o.scrapers {
		wg.Add(1)
		go func(i int, s *scraper.Scraper) {
			defer wg.Done()
			product, err := s.Run(ctx, query)
			outcomes[i] = outcome{vendor: s.Name(), product: product, err: err}
		}(i, s)
	}
	wg.Wait()

	attempted := len(o.scrapers)

	var valid []outcome
	for _, oc := range outcomes {
		switch {
		case oc.err != nil:
			o.log.Errorf("[%s] scrape failed for %q: %v", oc.vendor, query, oc.err)
		case oc.product == nil:
			o.log.Infof("[%s] no result found for %q", oc.vendor, query)
		default:
			o.log.Infof("[%s] found %q (SKU %s)", oc.vendor, oc.product.Name, oc.product.SKU)
			valid = append(valid, oc)
		}
	}

	anchorProduct := o.findAnchor(valid)
	if anchorProduct == nil {
		o.log.Warnf("No %s result for %q, cannot determine product identity", o.anchor, query)
		o.closeSession(ctx, sessionID, StatusNoAnchor, attempted, 0)
		return nil, StatusNoAnchor, nil
	}

	anchorSKU, err := strconv.ParseInt(anchorProduct.SKU, 10, 64)
	if err != nil {
		o.log.Errorf("%s SKU %q is not an integer, cannot persist results", o.anchor, anchorProduct.SKU)
		o.closeSession(ctx, sessionID, StatusInvalidAnchor, attempted, 0)
		return nil, StatusInvalidAnchor, nil
	}

	var saved []Result
	for _, oc := range valid {
		p := *oc.product
		if err := o.store.UpsertIdentity(ctx, anchorSKU, p.SKU, oc.vendor, p.Name, p.Description); err != nil {
			o.log.Errorf("Failed to upsert identity for %s: %v", oc.vendor, err)
			continue
		}
		if err := o.store.AppendSnapshot(ctx, sessionID, anchorSKU, oc.vendor, p); err != nil {
			o.log.Errorf("Failed to append snapshot for %s: %v", oc.vendor, err)
			continue
		}
		saved = append(saved, Result{Vendor: oc.vendor, Product: p})
	}

	status := StatusFailure
	switch {
	case len(saved) == attempted:
		status = StatusSuccess
	case len(saved) > 0:
		status = StatusPartialSuccess
	}

	o.closeSession(ctx, sessionID, status, attempted, len(saved))
	o.log.Infof("Scrape session %d completed: %s, saved %d/%d", sessionID, status, len(saved), attempted)
	return saved, status, nil
}

func (o *Orchestrator) findAnchor(valid []outcome) *catalog.Product {
	for _, oc := range valid {
		if oc.vendor == o.anchor {
			return oc.product
		}
	}
	return nil
}

func (o *Orchestrator) closeSession(ctx context.Context, sessionID int64, status string, attempted, succeeded int) {
	if err := o.store.CloseSession(ctx, sessionID, status, attempted, succeeded); err != nil {
		o.log.Errorf("Failed to close session %d: %v", sessionID, err)
	}
}
