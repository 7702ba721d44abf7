package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/kpaulsen/apflow/internal/http/document"
	"github.com/kpaulsen/apflow/internal/http/export"
	"github.com/kpaulsen/apflow/internal/http/hold"
)

func New(
	documentsV1 *document.Handler,
	holdsV1 *hold.Handler,
	exportsV1 *export.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	// The admin dashboard is served from its own origin.
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/documents", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			documentsV1.Routes(r)
		})

		r.Route("/holds", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			holdsV1.Routes(r)
		})

		r.Route("/exports", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			exportsV1.Routes(r)
		})
	})

	return router
}
