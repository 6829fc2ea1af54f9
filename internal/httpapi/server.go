package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"mural-budget/internal/config"
)

const apiPrefix = "/api/v1"

// NewRouter wires the website endpoints.
func NewRouter(h *Handler, cfg config.HTTPConfig, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID, middleware.RealIP, LoggerMiddleware(logger), middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.Health)

	r.Route(apiPrefix, func(r chi.Router) {
		r.Get("/catalog", h.Catalog)
		r.Post("/estimate", h.Estimate)
		r.Get("/cep/{cep}", h.LookupPostalCode)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.CreateSession)
			r.Get("/{sessionID}", h.GetSession)
			r.Put("/{sessionID}", h.UpdateSession)
			r.Delete("/{sessionID}", h.DeleteSession)
		})

		r.Route("/leads", func(r chi.Router) {
			r.Post("/", h.CreateLead)
			r.Get("/{leadID}/share", h.ShareLead)
			r.Get("/{leadID}/export", h.ExportLead)
		})
	})

	return r
}

func NewServer(h *Handler, cfg config.HTTPConfig, logger *zap.Logger) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      NewRouter(h, cfg, logger),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}
