package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"finitefield.org/pagemaker/internal/i18n"
	"finitefield.org/pagemaker/internal/platform/requestctx"
)

// LangCookie remembers an explicit ?hl= choice.
const LangCookie = "hl"

// Locale resolves the display language from ?hl=, the hl cookie, then
// Accept-Language, and stores it on the request context.
func Locale(bundle *i18n.Bundle) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := ""
			if q := r.URL.Query().Get("hl"); q != "" {
				if norm, err := bundle.Normalize(q); err == nil {
					lang = norm
					http.SetCookie(w, &http.Cookie{Name: LangCookie, Value: norm, Path: "/", SameSite: http.SameSiteLaxMode})
				}
			}
			if lang == "" {
				if c, err := r.Cookie(LangCookie); err == nil && c.Value != "" {
					if norm, err := bundle.Normalize(c.Value); err == nil {
						lang = norm
					}
				}
			}
			if lang == "" {
				lang = bundle.Resolve(r.Header.Get("Accept-Language"))
			}

			w.Header().Add("Vary", "Accept-Language")
			w.Header().Set("Content-Language", lang)

			ctx := requestctx.WithLanguage(r.Context(), lang)
			ctx = requestctx.WithLogger(ctx, requestctx.Logger(ctx).With(zap.String("lang", lang)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Lang returns the language resolved by Locale, or fallback when Locale did
// not run.
func Lang(r *http.Request, fallback string) string {
	if lang := requestctx.Language(r.Context()); lang != "" {
		return lang
	}
	return fallback
}
