package api

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"regcache/internal/engine"
	"regcache/internal/trace"
)

// Server exposes one cache model over HTTP: key operations that run the
// full register-mapped protocol, a decoded status view, and a raw bus
// endpoint for register-level poking. The model is a single synchronous
// design, so all handlers serialize on one mutex — the HTTP layer is the
// sole bus requester and the one-in-flight-request rule holds.
type Server struct {
	mu    sync.Mutex
	cache *engine.Cache
	rec   *trace.Recorder
}

// NewServer wires the handlers into a router and exposes a health check.
// rec may be nil to disable operation tracing.
func NewServer(cache *engine.Cache, rec *trace.Recorder) http.Handler {
	s := &Server{cache: cache, rec: rec}

	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Put("/keys/{key}", s.putKey)
		r.Get("/keys/{key}", s.getKey)
		r.Delete("/keys/{key}", s.deleteKey)
		r.Get("/status", s.status)
		r.Post("/bus", s.busTransaction)
	})

	return r
}
