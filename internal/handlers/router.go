package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	mw "finitefield.org/pagemaker/internal/middleware"
	"finitefield.org/pagemaker/internal/platform/httpx"
)

type routerConfig struct {
	basePath    string
	middlewares []func(http.Handler) http.Handler
}

// RouterOption customises the router configuration before construction.
type RouterOption func(*routerConfig)

const (
	defaultAPIPrefix  = "/api/v1"
	defaultTimeout    = 60 * time.Second
	errorNotFoundCode = "route_not_found"
)

// WithMiddlewares replaces the default middleware chain.
func WithMiddlewares(middlewares ...func(http.Handler) http.Handler) RouterOption {
	return func(cfg *routerConfig) {
		cfg.middlewares = middlewares
	}
}

// WithBasePath mounts the API routes under path instead of /api/v1.
func WithBasePath(path string) RouterOption {
	return func(cfg *routerConfig) {
		if path != "" {
			cfg.basePath = path
		}
	}
}

// NewRouter constructs the chi router with shared middleware and the editor API routes.
func NewRouter(h *Handlers, opts ...RouterOption) chi.Router {
	cfg := routerConfig{
		basePath: defaultAPIPrefix,
		middlewares: []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Timeout(defaultTimeout),
		},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := chi.NewRouter()
	for _, m := range cfg.middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError(errorNotFoundCode, fmt.Sprintf("no route for %s", req.URL.Path), http.StatusNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("method_not_allowed", fmt.Sprintf("method %s not allowed on %s", req.Method, req.URL.Path), http.StatusMethodNotAllowed))
	})

	r.Get("/healthz", h.Healthz)

	r.Route(cfg.basePath, func(api chi.Router) {
		api.Use(mw.Locale(h.bundle))
		api.Post("/analyze", h.Analyze)
		api.Post("/sanitize", h.Sanitize)
		api.Post("/split", h.Split)
		api.Get("/i18n", h.Languages)
		api.Get("/i18n/{lang}", h.Messages)
	})

	return r
}
