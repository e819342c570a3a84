package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"finitefield.org/pagemaker/internal/platform/httpx"
)

type languageInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Languages lists the supported display languages.
func (h *Handlers) Languages(w http.ResponseWriter, r *http.Request) {
	supported := h.bundle.Supported()
	langs := make([]languageInfo, 0, len(supported))
	for _, code := range supported {
		langs = append(langs, languageInfo{
			Code: code,
			Name: h.bundle.TDefault(code, "language.name", code),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"languages": langs,
		"default":   h.bundle.Default(),
		"fallback":  h.bundle.Fallback(),
		"current":   h.lang(r),
	})
}

// Messages returns the message catalog for the language in the path.
func (h *Handlers) Messages(w http.ResponseWriter, r *http.Request) {
	requested := chi.URLParam(r, "lang")
	norm, err := h.bundle.Normalize(requested)
	if err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("unsupported_language",
			h.t(r, "errors.UNSUPPORTED_LANGUAGE", map[string]any{"lang": requested}),
			http.StatusNotFound).WithDetails(map[string]any{"supported": h.bundle.Supported()}))
		return
	}
	tree, err := h.bundle.Messages(norm)
	if err != nil {
		h.internalError(r.Context(), w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"lang":     norm,
		"messages": tree,
	})
}
