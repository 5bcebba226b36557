// Package httptransport assembles the HTTP surface: global middleware, the
// health and metrics endpoints, and every feature handler's routes.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"novabook/internal/platform/middleware"
)

// Registrar is implemented by each feature handler.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter wires global middleware and mounts every handler. Handlers own
// their authentication requirements; the router only carries the concerns
// every request shares.
func NewRouter(logger *slog.Logger, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	for _, h := range handlers {
		h.Register(r)
	}
	return r
}
