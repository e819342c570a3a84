package handlers

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"finitefield.org/pagemaker/internal/markup"
	"finitefield.org/pagemaker/internal/pagehtml"
	"finitefield.org/pagemaker/internal/platform/httpx"
	"finitefield.org/pagemaker/internal/platform/requestctx"
	"finitefield.org/pagemaker/internal/textmetrics"
)

type analyzeRequest struct {
	Content    string `json:"content"`
	Format     string `json:"format"`
	Abbreviate bool   `json:"abbreviate"`
	Split      bool   `json:"split"`
}

type countDisplay struct {
	StandardCount string `json:"standardCount"`
	RakutenCount  string `json:"rakutenCount"`
	Size          string `json:"size"`
	Summary       string `json:"summary"`
}

type measurement struct {
	textmetrics.Report
	Display countDisplay `json:"display"`
}

type analyzeResponse struct {
	Lang      string            `json:"lang"`
	Format    markup.Format     `json:"format"`
	HTML      string            `json:"html"`
	Raw       measurement       `json:"raw"`
	Sanitized measurement       `json:"sanitized"`
	Labels    map[string]string `json:"labels"`
	Modules   []pagehtml.Module `json:"modules,omitempty"`
}

func (h *Handlers) measure(r *http.Request, text string, abbreviate bool) measurement {
	lang := h.lang(r)
	tag := h.bundle.Tag(lang)
	report := textmetrics.Inspect(text)
	d := countDisplay{
		StandardCount: textmetrics.FormatCountIn(tag, float64(report.StandardCount), abbreviate),
		RakutenCount:  textmetrics.FormatCountIn(tag, report.RakutenCount, abbreviate),
		Size:          textmetrics.FormatByteSize(int64(report.Bytes)),
	}
	d.Summary = h.bundle.T(lang, "editor.charCount.summary", map[string]any{
		"standard": d.StandardCount,
		"rakuten":  d.RakutenCount,
		"size":     d.Size,
	})
	return measurement{Report: report, Display: d}
}

// Analyze renders the submitted content to HTML, sanitizes it and reports
// counts for both the raw input and the sanitized output.
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req analyzeRequest
	if !h.decode(w, r, &req) {
		return
	}

	format, err := markup.ParseFormat(req.Format)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("unknown_format",
			h.t(r, "errors.UNKNOWN_CONTENT_FORMAT", map[string]any{"format": req.Format}),
			http.StatusBadRequest))
		return
	}

	attrs := metric.WithAttributes(attribute.String("format", string(format)))
	if h.analyzeRequests != nil {
		h.analyzeRequests.Add(ctx, 1, attrs)
	}
	if h.analyzeBytes != nil {
		h.analyzeBytes.Record(ctx, int64(len(req.Content)), attrs)
	}

	rendered, err := markup.Render(format, req.Content)
	if err != nil {
		h.internalError(ctx, w, r, err)
		return
	}
	clean := pagehtml.Sanitize(rendered)

	lang := h.lang(r)
	resp := analyzeResponse{
		Lang:      lang,
		Format:    format,
		HTML:      clean,
		Raw:       h.measure(r, req.Content, req.Abbreviate),
		Sanitized: h.measure(r, clean, req.Abbreviate),
		Labels: map[string]string{
			"standard": h.bundle.T(lang, "editor.charCount.standard", nil),
			"rakuten":  h.bundle.T(lang, "editor.charCount.rakuten", nil),
			"bytes":    h.bundle.T(lang, "editor.charCount.bytes", nil),
		},
	}

	if req.Split {
		modules, err := pagehtml.Split(clean, pagehtml.SplitOptions{IDGen: h.moduleID})
		if err != nil {
			h.internalError(ctx, w, r, err)
			return
		}
		resp.Modules = modules
	}

	requestctx.Logger(ctx).Debug("content analysed",
		zap.String("format", string(format)),
		zap.Int("bytes", resp.Raw.Bytes),
		zap.Float64("rakuten_count", resp.Raw.RakutenCount),
	)
	httpx.WriteJSON(w, http.StatusOK, resp)
}

type sanitizeRequest struct {
	Content string `json:"content"`
}

type sanitizeResponse struct {
	HTML  string            `json:"html"`
	Stats textmetrics.Stats `json:"stats"`
}

// Sanitize applies the marketplace whitelist to an HTML fragment.
func (h *Handlers) Sanitize(w http.ResponseWriter, r *http.Request) {
	var req sanitizeRequest
	if !h.decode(w, r, &req) {
		return
	}
	clean := pagehtml.Sanitize(req.Content)
	httpx.WriteJSON(w, http.StatusOK, sanitizeResponse{
		HTML:  clean,
		Stats: textmetrics.ContentStats(clean),
	})
}

type splitRequest struct {
	Content       string `json:"content"`
	TableAsAtomic *bool  `json:"tableAsAtomic"`
	MergeBreaks   *bool  `json:"mergeBreaks"`
}

type splitModule struct {
	pagehtml.Module
	Label string `json:"label"`
}

type splitResponse struct {
	Modules []splitModule `json:"modules"`
	Export  string        `json:"export"`
	Summary string        `json:"summary"`
}

// Split breaks a page into editable modules. Both flags default to true.
func (h *Handlers) Split(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req splitRequest
	if !h.decode(w, r, &req) {
		return
	}
	opts := pagehtml.SplitOptions{
		TablesAsText:   req.TableAsAtomic != nil && !*req.TableAsAtomic,
		SeparateBreaks: req.MergeBreaks != nil && !*req.MergeBreaks,
		IDGen:          h.moduleID,
	}
	modules, err := pagehtml.Split(req.Content, opts)
	if err != nil {
		h.internalError(ctx, w, r, err)
		return
	}

	lang := h.lang(r)
	out := make([]splitModule, 0, len(modules))
	for _, m := range modules {
		out = append(out, splitModule{
			Module: m,
			Label:  h.bundle.T(lang, "editor.modules."+string(m.Kind), nil),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, splitResponse{
		Modules: out,
		Export:  pagehtml.Export(modules),
		Summary: h.bundle.T(lang, "editor.split.summary", map[string]any{"count": len(modules)}),
	})
}
