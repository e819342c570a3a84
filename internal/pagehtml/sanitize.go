// Package pagehtml prepares page HTML for the marketplace's item description
// fields: it strips everything outside the tag whitelist and splits a page
// into the modules shown in the editor.
package pagehtml

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

var cellAttrs = []string{"align", "bgcolor", "bordercolor", "height", "valign", "width", "colspan", "rowspan", "axis", "headers"}

func newPagePolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("table", "tr", "td", "th", "p", "br", "font", "b", "strong", "i", "u", "center", "a", "img", "hr")
	// <font> and <a> are meaningful without attributes in legacy markup
	p.AllowNoAttrs().OnElements("font", "a", "img")

	p.AllowAttrs("href", "target").OnElements("a")
	p.AllowAttrs("src", "alt", "width", "height", "border").OnElements("img")
	p.AllowAttrs("align", "bgcolor", "border", "bordercolor", "cellpadding", "cellspacing", "frame", "height", "rules", "width").OnElements("table")
	p.AllowAttrs("align", "bgcolor", "bordercolor", "height", "valign").OnElements("tr")
	p.AllowAttrs(cellAttrs...).OnElements("td", "th")
	p.AllowAttrs("align").OnElements("p")
	p.AllowAttrs("color", "size").OnElements("font")

	p.RequireParseableURLs(true)
	p.AllowRelativeURLs(true)
	p.AllowURLSchemes("http", "https", "mailto", "tel")
	return p
}

func pagePolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = newPagePolicy()
	})
	return policy
}

// Sanitize keeps whitelisted tags and attributes. script, style and iframe
// are dropped with their content; every other tag is unwrapped. Full-width
// spaces (U+3000) survive untouched.
func Sanitize(html string) string {
	if html == "" {
		return ""
	}
	return pagePolicy().Sanitize(html)
}
