package orchestrator_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/pricescope/pricescope/pkg/catalog"
	"github.com/pricescope/pricescope/pkg/orchestrator"
	"github.com/pricescope/pricescope/pkg/scraper"
)

func listSelect(body string) ([]catalog.Candidate, error) {
	items := gjson.Get(body, "items")
	if !items.Exists() {
		return nil, catalog.Errorf(catalog.KindInvalidUpstreamResponse, "missing 'items' key")
	}
	var out []catalog.Candidate
	for _, item := range items.Array() {
		out = append(out, catalog.Candidate{
			Name: item.Get("name").String(),
			SKU:  item.Get("sku").String(),
			URL:  item.Get("url").String(),
		})
	}
	return out, nil
}

const ldPage = `<html><script type="application/ld+json">
{"@type": "Product", "sku": "%s", "name": "%s", "description": "test product", "offers": {"price": 100, "priceCurrency": "ILS"}}
</script></html>`

// testVendor builds a scraper backed by its own test server. mode is one of
// "ok", "empty" or "fail".
func testVendor(t *testing.T, name, sku, mode string) *scraper.Scraper {
	t.Helper()

	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	mux.HandleFunc("/product", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, ldPage, sku, name+" product")
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		switch mode {
		case "fail":
			http.Error(w, "boom", http.StatusInternalServerError)
		case "empty":
			fmt.Fprint(w, `{"items": []}`)
		default:
			fmt.Fprintf(w, `{"items": [{"name": "%s hit", "sku": "%s", "url": "%s/product"}]}`, name, sku, ts.URL)
		}
	})

	s, err := scraper.New(scraper.Config{
		Descriptor: catalog.Descriptor{
			Name:           name,
			SearchEndpoint: ts.URL + "/search",
			SearchParam:    "q",
			Strategy:       catalog.FetchEmbeddedLD,
		},
		Select: listSelect,
	}, scraper.Options{})
	require.NoError(t, err)
	return s
}

type closedSession struct {
	status    string
	attempted int
	succeeded int
}

type fakeGateway struct {
	mu         sync.Mutex
	nextID     int64
	failOpen   bool
	failFor    map[string]bool // vendor names whose persistence fails
	closed     map[int64]closedSession
	identities map[string]int // "anchor/vendorSKU" -> upsert count
	snapshots  []string       // vendor names in persistence order
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		closed:     make(map[int64]closedSession),
		identities: make(map[string]int),
	}
}

func (g *fakeGateway) OpenSession(ctx context.Context, query, initiator string) (int64, error) {
	if g.failOpen {
		return 0, errors.New("db down")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	return g.nextID, nil
}

func (g *fakeGateway) CloseSession(ctx context.Context, sessionID int64, status string, attempted, succeeded int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed[sessionID] = closedSession{status: status, attempted: attempted, succeeded: succeeded}
	return nil
}

func (g *fakeGateway) UpsertIdentity(ctx context.Context, anchorSKU int64, vendorSKU, vendorName, name, description string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failFor[vendorName] {
		return errors.New("constraint violation")
	}
	g.identities[fmt.Sprintf("%d/%s", anchorSKU, vendorSKU)]++
	return nil
}

func (g *fakeGateway) AppendSnapshot(ctx context.Context, sessionID, anchorSKU int64, vendorName string, p catalog.Product) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failFor[vendorName] {
		return errors.New("constraint violation")
	}
	g.snapshots = append(g.snapshots, vendorName)
	return nil
}

func TestRunAllVendorsSucceed(t *testing.T) {
	scrapers := []*scraper.Scraper{
		testVendor(t, "Traklin", "123456", "ok"),
		testVendor(t, "Payngo", "P-1", "ok"),
		testVendor(t, "Neto", "5150", "ok"),
	}
	gw := newFakeGateway()
	orch := orchestrator.New(scrapers, "Traklin", gw, nil)

	results, status, err := orch.Run(context.Background(), "GR-730BINS", orchestrator.InitiatorUser)
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StatusSuccess, status)
	assert.Len(t, results, 3)
	assert.Len(t, gw.snapshots, 3)
	assert.Equal(t, closedSession{status: orchestrator.StatusSuccess, attempted: 3, succeeded: 3}, gw.closed[1])

	// Every identity keys off the anchor SKU.
	for key := range gw.identities {
		assert.Contains(t, key, "123456/")
	}
}

func TestRunAnchorFailureWritesNothing(t *testing.T) {
	scrapers := []*scraper.Scraper{
		testVendor(t, "Traklin", "123456", "fail"),
		testVendor(t, "Payngo", "P-1", "ok"),
		testVendor(t, "Neto", "5150", "ok"),
	}
	gw := newFakeGateway()
	orch := orchestrator.New(scrapers, "Traklin", gw, nil)

	results, status, err := orch.Run(context.Background(), "GR-730BINS", orchestrator.InitiatorUser)
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StatusNoAnchor, status)
	assert.Empty(t, results)
	assert.Empty(t, gw.snapshots)
	assert.Empty(t, gw.identities)
	assert.Equal(t, closedSession{status: orchestrator.StatusNoAnchor, attempted: 3, succeeded: 0}, gw.closed[1])
}

func TestRunNonNumericAnchorSKU(t *testing.T) {
	scrapers := []*scraper.Scraper{
		testVendor(t, "Traklin", "AB12", "ok"),
		testVendor(t, "Payngo", "P-1", "ok"),
	}
	gw := newFakeGateway()
	orch := orchestrator.New(scrapers, "Traklin", gw, nil)

	results, status, err := orch.Run(context.Background(), "GR-730BINS", orchestrator.InitiatorUser)
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StatusInvalidAnchor, status)
	assert.Empty(t, results)
	assert.Empty(t, gw.snapshots)
	assert.Empty(t, gw.identities)
}

func TestRunOneVendorFailureIsIsolated(t *testing.T) {
	scrapers := []*scraper.Scraper{
		testVendor(t, "Traklin", "123456", "ok"),
		testVendor(t, "Payngo", "P-1", "fail"),
		testVendor(t, "Neto", "5150", "ok"),
	}
	gw := newFakeGateway()
	orch := orchestrator.New(scrapers, "Traklin", gw, nil)

	results, status, err := orch.Run(context.Background(), "GR-730BINS", orchestrator.InitiatorUser)
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StatusPartialSuccess, status)
	assert.Len(t, results, 2)
	assert.Len(t, gw.snapshots, 2)
	assert.Equal(t, closedSession{status: orchestrator.StatusPartialSuccess, attempted: 3, succeeded: 2}, gw.closed[1])
}

func TestRunEmptyVendorIsNotAFailureButNotSaved(t *testing.T) {
	scrapers := []*scraper.Scraper{
		testVendor(t, "Traklin", "123456", "ok"),
		testVendor(t, "LastPrice", "LP9", "empty"),
	}
	gw := newFakeGateway()
	orch := orchestrator.New(scrapers, "Traklin", gw, nil)

	results, status, err := orch.Run(context.Background(), "GR-730BINS", orchestrator.InitiatorUser)
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StatusPartialSuccess, status)
	assert.Len(t, results, 1)
	assert.Equal(t, "Traklin", results[0].Vendor)
}

func TestRunPersistenceFailureSkipsOnlyThatVendor(t *testing.T) {
	scrapers := []*scraper.Scraper{
		testVendor(t, "Traklin", "123456", "ok"),
		testVendor(t, "Payngo", "P-1", "ok"),
		testVendor(t, "Neto", "5150", "ok"),
	}
	gw := newFakeGateway()
	gw.failFor = map[string]bool{"Payngo": true}
	orch := orchestrator.New(scrapers, "Traklin", gw, nil)

	results, status, err := orch.Run(context.Background(), "GR-730BINS", orchestrator.InitiatorUser)
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StatusPartialSuccess, status)
	assert.Len(t, results, 2)
	for _, r := range results {
		assert.NotEqual(t, "Payngo", r.Vendor)
	}
}

func TestRunAllVendorsFail(t *testing.T) {
	// Anchor succeeds but every persistence call fails: zero saved rows
	// classifies the session as failure.
	scrapers := []*scraper.Scraper{
		testVendor(t, "Traklin", "123456", "ok"),
	}
	gw := newFakeGateway()
	gw.failFor = map[string]bool{"Traklin": true}
	orch := orchestrator.New(scrapers, "Traklin", gw, nil)

	results, status, err := orch.Run(context.Background(), "GR-730BINS", orchestrator.InitiatorUser)
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StatusFailure, status)
	assert.Empty(t, results)
}

func TestRunSessionOpenFailureIsHard(t *testing.T) {
	gw := newFakeGateway()
	gw.failOpen = true
	orch := orchestrator.New(nil, "Traklin", gw, nil)

	_, _, err := orch.Run(context.Background(), "GR-730BINS", orchestrator.InitiatorUser)
	require.Error(t, err)
}
