package pagehtml

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/oklog/ulid/v2"
	"golang.org/x/net/html"

	"finitefield.org/pagemaker/internal/textmetrics"
)

// Kind classifies a top-level module of a page.
type Kind string

const (
	KindGap   Kind = "gap"
	KindImage Kind = "image"
	KindTable Kind = "table"
	KindText  Kind = "text"
)

// Module is one editable block of a page.
type Module struct {
	ID    string            `json:"id"`
	Kind  Kind              `json:"kind"`
	HTML  string            `json:"html"`
	Stats textmetrics.Stats `json:"stats"`
}

// SplitOptions tunes Split. The zero value treats top-level tables as atomic
// and merges consecutive top-level <br> into one gap.
type SplitOptions struct {
	// TablesAsText folds top-level tables into text modules.
	TablesAsText bool
	// SeparateBreaks emits one gap module per top-level <br>.
	SeparateBreaks bool
	// IDGen overrides module ID generation.
	IDGen func(Kind) string
}

func defaultModuleID(kind Kind) string {
	return string(kind) + "-" + strings.ToLower(ulid.Make().String())
}

// Split parses pageHTML and groups its top-level nodes into modules in
// document order.
func Split(pageHTML string, opts SplitOptions) ([]Module, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}
	idGen := opts.IDGen
	if idGen == nil {
		idGen = defaultModuleID
	}

	nodes := doc.Find("body").Contents().Nodes
	modules := make([]Module, 0, len(nodes))
	emit := func(group []*html.Node, kind Kind) error {
		m, err := newModule(group, kind, idGen)
		if err != nil {
			return err
		}
		modules = append(modules, m)
		return nil
	}

	for i := 0; i < len(nodes); {
		n := nodes[i]
		switch {
		case n.Type == html.TextNode:
			if strings.TrimSpace(n.Data) == "" {
				i++
				continue
			}
			next := collectText(nodes, i)
			if err := emit(nodes[i:next], KindText); err != nil {
				return nil, err
			}
			i = next
		case n.Type == html.ElementNode:
			var (
				kind Kind
				next = i + 1
			)
			switch {
			case n.Data == "br":
				kind = KindGap
				if !opts.SeparateBreaks {
					next = collectBreaks(nodes, i)
				}
			case n.Data == "p" && isBreakParagraph(n):
				kind = KindGap
			case n.Data == "img", n.Data == "a" && isImageLink(n):
				kind = KindImage
			case n.Data == "table" && !opts.TablesAsText:
				kind = KindTable
			default:
				kind = KindText
				next = collectText(nodes, i)
			}
			if err := emit(nodes[i:next], kind); err != nil {
				return nil, err
			}
			i = next
		default:
			// comments, doctype
			i++
		}
	}
	return modules, nil
}

func collectBreaks(nodes []*html.Node, start int) int {
	i := start
	for i < len(nodes) && nodes[i].Type == html.ElementNode && nodes[i].Data == "br" {
		i++
	}
	return i
}

// collectText returns the end of the text module starting at start. Each
// top-level <p> is a module of its own; other inline content is merged until
// a gap, image, table or paragraph begins. The node at start is always taken.
func collectText(nodes []*html.Node, start int) int {
	i := start
	for i < len(nodes) {
		n := nodes[i]
		if n.Type != html.ElementNode {
			i++
			continue
		}
		first := i == start
		switch {
		case n.Data == "p" && isBreakParagraph(n), n.Data == "br":
			if !first {
				return i
			}
		case n.Data == "table", n.Data == "img":
			if !first {
				return i
			}
		case n.Data == "p":
			if first {
				return i + 1
			}
			return i
		}
		i++
	}
	return i
}

// isBreakParagraph reports whether p holds nothing but <br> and whitespace.
func isBreakParagraph(p *html.Node) bool {
	return onlyChild(p, "br")
}

// isImageLink reports whether a wraps nothing but <img> and whitespace.
func isImageLink(a *html.Node) bool {
	return onlyChild(a, "img")
}

func onlyChild(n *html.Node, tag string) bool {
	sel := goquery.NewDocumentFromNode(n).Selection
	found := false
	ok := true
	sel.Contents().EachWithBreak(func(_ int, c *goquery.Selection) bool {
		node := c.Get(0)
		switch node.Type {
		case html.ElementNode:
			if node.Data != tag {
				ok = false
				return false
			}
			found = true
		case html.TextNode:
			if strings.TrimSpace(node.Data) != "" {
				ok = false
				return false
			}
		}
		return true
	})
	return ok && found
}

func newModule(group []*html.Node, kind Kind, idGen func(Kind) string) (Module, error) {
	var buf bytes.Buffer
	for _, n := range group {
		if err := html.Render(&buf, n); err != nil {
			return Module{}, fmt.Errorf("render %s module: %w", kind, err)
		}
	}
	clean := Sanitize(buf.String())
	return Module{
		ID:    idGen(kind),
		Kind:  kind,
		HTML:  clean,
		Stats: textmetrics.ContentStats(clean),
	}, nil
}

// Export joins module HTML in order without separators and sanitizes the
// result once more.
func Export(modules []Module) string {
	var b strings.Builder
	for _, m := range modules {
		b.WriteString(m.HTML)
	}
	return Sanitize(b.String())
}
