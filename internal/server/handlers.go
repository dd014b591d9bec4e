package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pricescope/pricescope/pkg/orchestrator"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := s.DB.ListVendors(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, vendors)
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.DB.ListProducts(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, products)
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var anchorSKU int64
	if raw := q.Get("anchor_sku"); raw != "" {
		var err error
		anchorSKU, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "anchor_sku must be an integer", http.StatusBadRequest)
			return
		}
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	snapshots, err := s.DB.ListSnapshots(r.Context(), anchorSKU, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, snapshots)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	sessions, err := s.DB.ListSessions(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, sessions)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.DB.GetStats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}

// ScrapeResponse wraps one scrape invocation's outcome.
type ScrapeResponse struct {
	Status  string                `json:"status"`
	Results []orchestrator.Result `json:"results"`
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		http.Error(w, "missing query parameter", http.StatusBadRequest)
		return
	}

	results, status, err := s.Orch.Run(r.Context(), query, orchestrator.InitiatorAPI)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if results == nil {
		results = []orchestrator.Result{}
	}
	writeJSON(w, ScrapeResponse{Status: status, Results: results})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
