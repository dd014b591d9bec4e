package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricescope/pricescope/pkg/catalog"
	"github.com/pricescope/pricescope/pkg/orchestrator"
	"github.com/pricescope/pricescope/pkg/storage"
)

func newTestServer(t *testing.T, user, pass string) (*Server, *storage.DB) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	orch := orchestrator.New(nil, "Traklin", db, nil)
	return New(db, orch, nil, user, pass), db
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, "", "")
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestVendorsEndpoint(t *testing.T) {
	s, db := newTestServer(t, "", "")
	require.NoError(t, db.EnsureVendors(context.Background(), []string{"Traklin", "KSP"}))

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/vendors")
	require.NoError(t, err)
	defer resp.Body.Close()

	var vendors []storage.Vendor
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&vendors))
	require.Len(t, vendors, 2)
	assert.Equal(t, "KSP", vendors[0].Name)
}

func TestProductsAndSnapshotsEndpoints(t *testing.T) {
	s, db := newTestServer(t, "", "")
	ctx := context.Background()

	id, err := db.OpenSession(ctx, "GR-730BINS", "api")
	require.NoError(t, err)
	require.NoError(t, db.UpsertIdentity(ctx, 123456, "P-1", "Payngo", "Fridge", ""))
	require.NoError(t, db.AppendSnapshot(ctx, id, 123456, "Payngo", catalog.Product{
		SKU: "P-1", Name: "Fridge", Price: 3790, Currency: "ILS", Images: []string{"a", "b"},
	}))

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/products")
	require.NoError(t, err)
	var products []storage.Identity
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
	resp.Body.Close()
	require.Len(t, products, 1)
	assert.Equal(t, int64(123456), products[0].AnchorSKU)

	resp, err = http.Get(ts.URL + "/api/snapshots?anchor_sku=123456")
	require.NoError(t, err)
	var snaps []storage.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snaps))
	resp.Body.Close()
	require.Len(t, snaps, 1)
	assert.Equal(t, []string{"a", "b"}, snaps[0].Images)
	assert.Equal(t, 3790, snaps[0].Price)
}

func TestSnapshotsRejectsBadAnchor(t *testing.T) {
	s, _ := newTestServer(t, "", "")
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/snapshots?anchor_sku=AB12")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestScrapeRequiresQuery(t *testing.T) {
	s, _ := newTestServer(t, "", "")
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/scrape")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestScrapeReturnsSessionStatus(t *testing.T) {
	// No scrapers are configured, so the anchor can never resolve: the
	// endpoint still answers normally with an empty result set.
	s, db := newTestServer(t, "", "")
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/scrape?query=GR-730BINS")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body ScrapeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, orchestrator.StatusNoAnchor, body.Status)
	assert.Empty(t, body.Results)

	sessions, err := db.ListSessions(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "api", sessions[0].Initiator)
}

func TestBasicAuth(t *testing.T) {
	s, _ := newTestServer(t, "admin", "hunter2")
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/products")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest("GET", ts.URL+"/api/products", nil)
	req.SetBasicAuth("admin", "hunter2")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Health stays open.
	resp, err = http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
