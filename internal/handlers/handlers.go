package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"finitefield.org/pagemaker/internal/i18n"
	mw "finitefield.org/pagemaker/internal/middleware"
	"finitefield.org/pagemaker/internal/pagehtml"
	"finitefield.org/pagemaker/internal/platform/httpx"
	"finitefield.org/pagemaker/internal/platform/requestctx"
	"finitefield.org/pagemaker/internal/textmetrics"
)

const defaultMaxBodyBytes = 2 << 20

// Handlers serves the editor API.
type Handlers struct {
	bundle   *i18n.Bundle
	maxBody  int64
	started  time.Time
	clock    func() time.Time
	moduleID func(pagehtml.Kind) string

	analyzeRequests metric.Int64Counter
	analyzeBytes    metric.Int64Histogram
}

// Option customises Handlers.
type Option func(*Handlers)

// WithMaxBodyBytes bounds request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handlers) {
		if n > 0 {
			h.maxBody = n
		}
	}
}

// WithClock overrides the time source used by the health endpoint.
func WithClock(clock func() time.Time) Option {
	return func(h *Handlers) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// WithModuleIDs overrides module ID generation for split responses.
func WithModuleIDs(gen func(pagehtml.Kind) string) Option {
	return func(h *Handlers) {
		h.moduleID = gen
	}
}

// New builds the handlers around a loaded message bundle.
func New(bundle *i18n.Bundle, opts ...Option) *Handlers {
	h := &Handlers{
		bundle:  bundle,
		maxBody: defaultMaxBodyBytes,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.started = h.clock()

	meter := otel.Meter("finitefield.org/pagemaker/internal/handlers")
	var err error
	if h.analyzeRequests, err = meter.Int64Counter("pagemaker.analyze.requests",
		metric.WithDescription("Content analysis requests by input format.")); err != nil {
		otel.Handle(err)
	}
	if h.analyzeBytes, err = meter.Int64Histogram("pagemaker.analyze.bytes",
		metric.WithDescription("Size of analysed content."), metric.WithUnit("By")); err != nil {
		otel.Handle(err)
	}
	return h
}

func (h *Handlers) lang(r *http.Request) string {
	return mw.Lang(r, h.bundle.Default())
}

func (h *Handlers) t(r *http.Request, key string, params map[string]any) string {
	return h.bundle.T(h.lang(r), key, params)
}

// decode reads the JSON body and writes a localized error when it fails.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := httpx.DecodeJSON(w, r, dst, h.maxBody)
	if err == nil {
		return true
	}
	ctx := r.Context()
	requestctx.Logger(ctx).Debug("rejecting request body", zap.Error(err))
	if errors.Is(err, httpx.ErrBodyTooLarge) {
		limit := textmetrics.FormatByteSize(h.maxBody)
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large",
			h.t(r, "errors.VALIDATION_FILE_TOO_LARGE", map[string]any{"limit": limit}),
			http.StatusRequestEntityTooLarge).WithDetails(map[string]any{"limit_bytes": h.maxBody}))
		return false
	}
	httpx.WriteError(ctx, w, httpx.NewError("invalid_request",
		h.t(r, "errors.VALIDATION_INVALID_FORMAT", nil), http.StatusBadRequest))
	return false
}

func (h *Handlers) internalError(ctx context.Context, w http.ResponseWriter, r *http.Request, err error) {
	requestctx.Logger(ctx).Error("request failed", zap.Error(err))
	httpx.WriteError(ctx, w, httpx.NewError("internal_server_error",
		h.t(r, "errors.SERVER_INTERNAL_ERROR", nil), http.StatusInternalServerError))
}

// Healthz responds with a simple status payload for monitoring and readiness checks.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	now := h.clock()
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    now.Sub(h.started).String(),
		"timestamp": now.UTC().Format(time.RFC3339),
	})
}
