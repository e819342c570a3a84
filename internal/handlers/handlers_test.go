package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"finitefield.org/pagemaker/internal/i18n"
	"finitefield.org/pagemaker/internal/pagehtml"
	"finitefield.org/pagemaker/locales"
)

func newTestHandlers(t *testing.T, opts ...Option) *Handlers {
	t.Helper()
	bundle, err := i18n.Load(locales.FS(), i18n.Options{Default: "zh-CN", Fallback: "en-US", Supported: []string{"zh-CN", "ja-JP", "en-US"}})
	if err != nil {
		t.Fatalf("load bundle: %v", err)
	}
	n := 0
	ids := WithModuleIDs(func(k pagehtml.Kind) string {
		n++
		return fmt.Sprintf("%s-%d", k, n)
	})
	return New(bundle, append([]Option{ids}, opts...)...)
}

func do(t *testing.T, h http.Handler, method, target, body, acceptLang string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if acceptLang != "" {
		req.Header.Set("Accept-Language", acceptLang)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse response %q: %v", rr.Body.String(), err)
	}
	return rr, payload
}

func TestHealthz(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	h := newTestHandlers(t, WithClock(func() time.Time { return now }))
	now = start.Add(30 * time.Second)

	rr, body := do(t, NewRouter(h), http.MethodGet, "/healthz", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if body["status"] != "ok" {
		t.Fatalf("expected status ok, got %v", body["status"])
	}
	if body["uptime"] != "30s" {
		t.Fatalf("expected uptime 30s, got %v", body["uptime"])
	}
	if body["timestamp"] != "2024-01-01T00:00:30Z" {
		t.Fatalf("unexpected timestamp %v", body["timestamp"])
	}
}

func TestAnalyzeText(t *testing.T) {
	router := NewRouter(newTestHandlers(t))

	rr, body := do(t, router, http.MethodPost, "/api/v1/analyze", `{"content":"あいう","format":"text"}`, "en-US")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Content-Language"); got != "en-US" {
		t.Fatalf("expected Content-Language en-US, got %q", got)
	}
	raw := body["raw"].(map[string]any)
	if raw["standardCount"] != float64(3) || raw["rakutenCount"] != float64(3) || raw["bytes"] != float64(9) {
		t.Fatalf("unexpected raw stats %v", raw)
	}
	if raw["graphemes"] != float64(3) || raw["displayWidth"] != float64(6) {
		t.Fatalf("unexpected inspect fields %v", raw)
	}
	display := raw["display"].(map[string]any)
	if display["summary"] != "3 characters / 3 Rakuten characters / 9 B" {
		t.Fatalf("unexpected summary %v", display["summary"])
	}
	labels := body["labels"].(map[string]any)
	if labels["rakuten"] != "Rakuten characters" {
		t.Fatalf("unexpected labels %v", labels)
	}
	if _, ok := body["modules"]; ok {
		t.Fatalf("modules should be omitted unless requested")
	}
}

func TestAnalyzeSanitizesAndSplits(t *testing.T) {
	router := NewRouter(newTestHandlers(t))
	content := `<p>あい</p><script>alert(1)</script>`
	payload, _ := json.Marshal(map[string]any{"content": content, "split": true})

	rr, body := do(t, router, http.MethodPost, "/api/v1/analyze", string(payload), "ja")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if body["html"] != "<p>あい</p>" {
		t.Fatalf("unexpected sanitized html %v", body["html"])
	}
	if body["format"] != "html" {
		t.Fatalf("expected html format, got %v", body["format"])
	}
	clean := body["sanitized"].(map[string]any)
	if clean["standardCount"] != float64(9) || clean["rakutenCount"] != 5.5 || clean["bytes"] != float64(13) {
		t.Fatalf("unexpected sanitized stats %v", clean)
	}
	raw := body["raw"].(map[string]any)
	if raw["bytes"] != float64(len(content)) {
		t.Fatalf("raw bytes should measure the input, got %v", raw["bytes"])
	}
	modules := body["modules"].([]any)
	if len(modules) != 1 {
		t.Fatalf("expected one module, got %v", modules)
	}
	if m := modules[0].(map[string]any); m["id"] != "text-1" || m["kind"] != "text" {
		t.Fatalf("unexpected module %v", m)
	}
}

func TestAnalyzeMarkdownAbbreviates(t *testing.T) {
	router := NewRouter(newTestHandlers(t))
	payload, _ := json.Marshal(map[string]any{
		"content":    "**" + strings.Repeat("a", 1500) + "**",
		"format":     "markdown",
		"abbreviate": true,
	})

	rr, body := do(t, router, http.MethodPost, "/api/v1/analyze?hl=en-US", string(payload), "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	html := body["html"].(string)
	if !strings.HasPrefix(html, "<p><strong>") {
		t.Fatalf("expected rendered markdown, got %q", html)
	}
	raw := body["raw"].(map[string]any)
	display := raw["display"].(map[string]any)
	if display["standardCount"] != "1.5k" {
		t.Fatalf("expected abbreviated count, got %v", display["standardCount"])
	}
}

func TestAnalyzeErrors(t *testing.T) {
	router := NewRouter(newTestHandlers(t, WithMaxBodyBytes(64)))
	cases := []struct {
		name    string
		body    string
		status  int
		code    string
		message string
	}{
		{"unknown format", `{"content":"x","format":"rtf"}`, http.StatusBadRequest, "unknown_format", "Unknown content format: rtf"},
		{"malformed json", `{"content":`, http.StatusBadRequest, "invalid_request", "The request body is not valid."},
		{"unknown field", `{"content":"x","extra":1}`, http.StatusBadRequest, "invalid_request", "The request body is not valid."},
		{"too large", `{"content":"` + strings.Repeat("x", 128) + `"}`, http.StatusRequestEntityTooLarge, "payload_too_large", "The content exceeds the maximum size of 64 B."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr, body := do(t, router, http.MethodPost, "/api/v1/analyze", tc.body, "en")
			if rr.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rr.Code)
			}
			if body["error"] != tc.code {
				t.Fatalf("expected error %s, got %v", tc.code, body["error"])
			}
			if body["message"] != tc.message {
				t.Fatalf("expected message %q, got %v", tc.message, body["message"])
			}
		})
	}
}

func TestSanitizeEndpoint(t *testing.T) {
	router := NewRouter(newTestHandlers(t))

	rr, body := do(t, router, http.MethodPost, "/api/v1/sanitize", `{"content":"<div><b>太字</b></div>"}`, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if body["html"] != "<b>太字</b>" {
		t.Fatalf("unexpected html %v", body["html"])
	}
	stats := body["stats"].(map[string]any)
	if stats["standardCount"] != float64(9) || stats["rakutenCount"] != 5.5 {
		t.Fatalf("unexpected stats %v", stats)
	}
}

func TestSplitEndpoint(t *testing.T) {
	page := `<p>a</p><br><br><table><tr><td>x</td></tr></table>`

	t.Run("defaults", func(t *testing.T) {
		router := NewRouter(newTestHandlers(t))
		payload, _ := json.Marshal(map[string]any{"content": page})
		rr, body := do(t, router, http.MethodPost, "/api/v1/split", string(payload), "en-US")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}
		modules := body["modules"].([]any)
		want := []string{"text", "gap", "table"}
		if len(modules) != len(want) {
			t.Fatalf("expected %d modules, got %v", len(want), modules)
		}
		var export strings.Builder
		for i, raw := range modules {
			m := raw.(map[string]any)
			if m["kind"] != want[i] {
				t.Fatalf("module %d: expected %s, got %v", i, want[i], m["kind"])
			}
			export.WriteString(m["html"].(string))
		}
		if label := modules[1].(map[string]any)["label"]; label != "Spacer" {
			t.Fatalf("expected localized label, got %v", label)
		}
		if body["export"] != export.String() {
			t.Fatalf("export should concatenate modules, got %v", body["export"])
		}
		if body["summary"] != "Split into 3 modules" {
			t.Fatalf("unexpected summary %v", body["summary"])
		}
	})

	t.Run("separate breaks and inline tables", func(t *testing.T) {
		router := NewRouter(newTestHandlers(t))
		payload, _ := json.Marshal(map[string]any{"content": page, "tableAsAtomic": false, "mergeBreaks": false})
		rr, body := do(t, router, http.MethodPost, "/api/v1/split", string(payload), "ja")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}
		modules := body["modules"].([]any)
		want := []string{"text", "gap", "gap", "text"}
		if len(modules) != len(want) {
			t.Fatalf("expected %d modules, got %v", len(want), modules)
		}
		for i, raw := range modules {
			if kind := raw.(map[string]any)["kind"]; kind != want[i] {
				t.Fatalf("module %d: expected %s, got %v", i, want[i], kind)
			}
		}
		if body["summary"] != "4個のモジュールに分割しました" {
			t.Fatalf("unexpected summary %v", body["summary"])
		}
	})
}

func TestI18nEndpoints(t *testing.T) {
	router := NewRouter(newTestHandlers(t))

	rr, body := do(t, router, http.MethodGet, "/api/v1/i18n/ja", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if body["lang"] != "ja-JP" {
		t.Fatalf("expected ja-JP, got %v", body["lang"])
	}
	messages := body["messages"].(map[string]any)
	if name := messages["language"].(map[string]any)["name"]; name != "日本語" {
		t.Fatalf("unexpected language name %v", name)
	}

	rr, body = do(t, router, http.MethodGet, "/api/v1/i18n/fr", "", "en")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
	if body["error"] != "unsupported_language" || body["message"] != "Unsupported language: fr" {
		t.Fatalf("unexpected error body %v", body)
	}

	rr, body = do(t, router, http.MethodGet, "/api/v1/i18n", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if body["default"] != "zh-CN" || body["current"] != "zh-CN" {
		t.Fatalf("unexpected language listing %v", body)
	}
	if langs := body["languages"].([]any); len(langs) != 3 {
		t.Fatalf("expected 3 languages, got %v", langs)
	}
}

func TestRouterFallbacks(t *testing.T) {
	router := NewRouter(newTestHandlers(t))

	rr, body := do(t, router, http.MethodGet, "/missing", "", "")
	if rr.Code != http.StatusNotFound || body["error"] != "route_not_found" {
		t.Fatalf("unexpected not found response %d %v", rr.Code, body)
	}
	rr, body = do(t, router, http.MethodGet, "/api/v1/analyze", "", "")
	if rr.Code != http.StatusMethodNotAllowed || body["error"] != "method_not_allowed" {
		t.Fatalf("unexpected method response %d %v", rr.Code, body)
	}
}
