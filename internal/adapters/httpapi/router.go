package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// NewRouter mounts the analysis handler on every path in analyzePaths, for
// all methods, plus GET /health.
func NewRouter(handlers *Handlers, logger *zap.Logger, analyzePaths ...string) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(AccessLog(logger))
	r.Use(Recover(logger))

	r.Get("/health", handlers.Health)
	for _, path := range analyzePaths {
		if path == "" {
			continue
		}
		r.HandleFunc(path, handlers.Analyze)
	}

	return r
}
