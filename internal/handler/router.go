package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewRouter はルーターを生成する。
func NewRouter(h *LicenseHandler) http.Handler {
	r := chi.NewRouter()

	// ミドルウェア
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)

	// ルート定義
	r.Route("/v1/licenses", func(r chi.Router) {
		r.Post("/validate", h.Validate)
		r.Post("/reload", h.Reload)
	})
	r.Get("/healthz", h.Health)

	return otelhttp.NewHandler(r, "license-entitlement-service")
}
