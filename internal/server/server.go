package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pricescope/pricescope/pkg/orchestrator"
	"github.com/pricescope/pricescope/pkg/storage"
)

// Server exposes the read-only query API plus the scrape trigger. The
// orchestrator is invoked synchronously from the /api/scrape boundary.
type Server struct {
	DB       *storage.DB
	Orch     *orchestrator.Orchestrator
	Registry *prometheus.Registry
	Username string
	Password string
}

func New(db *storage.DB, orch *orchestrator.Orchestrator, registry *prometheus.Registry, user, pass string) *Server {
	return &Server{
		DB:       db,
		Orch:     orch,
		Registry: registry,
		Username: user,
		Password: pass,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	// API Group
	mux.HandleFunc("GET /api/vendors", s.basicAuth(s.handleVendors))
	mux.HandleFunc("GET /api/products", s.basicAuth(s.handleProducts))
	mux.HandleFunc("GET /api/snapshots", s.basicAuth(s.handleSnapshots))
	mux.HandleFunc("GET /api/sessions", s.basicAuth(s.handleSessions))
	mux.HandleFunc("GET /api/stats", s.basicAuth(s.handleStats))
	mux.HandleFunc("GET /api/scrape", s.basicAuth(s.handleScrape))

	if s.Registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{}))
	}

	return mux
}

func (s *Server) Start(addr string) error {
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
