// Package markup turns editor input into HTML before it is measured.
package markup

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Format names the syntax of a content body.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// ErrUnknownFormat is returned for formats other than html, markdown and text.
var ErrUnknownFormat = errors.New("markup: unknown format")

var md = goldmark.New(
	goldmark.WithExtensions(extension.Table, extension.Strikethrough),
	goldmark.WithRendererOptions(
		gmhtml.WithHardWraps(),
		gmhtml.WithUnsafe(),
	),
)

// ParseFormat normalises a format name. An empty name means html.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatHTML, nil
	case FormatHTML, FormatMarkdown, FormatText:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Render converts body to HTML. Markdown may embed raw HTML; the caller is
// expected to sanitize the result.
func Render(format Format, body string) (string, error) {
	switch format {
	case FormatHTML, "":
		return body, nil
	case FormatText:
		escaped := html.EscapeString(body)
		escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
		return strings.ReplaceAll(escaped, "\n", "<br>"), nil
	case FormatMarkdown:
		var buf bytes.Buffer
		if err := md.Convert([]byte(body), &buf); err != nil {
			return "", fmt.Errorf("render markdown: %w", err)
		}
		return buf.String(), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
