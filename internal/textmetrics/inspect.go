package textmetrics

import (
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// Report extends Stats with code point, grapheme and display-width counts.
// The extra numbers are informational; the marketplace only checks
// RakutenCount.
type Report struct {
	Stats
	CodePoints   int `json:"codePoints"`
	Graphemes    int `json:"graphemes"`
	DisplayWidth int `json:"displayWidth"`
}

// Inspect measures text in every unit the editor displays.
func Inspect(text string) Report {
	return Report{
		Stats:        ContentStats(text),
		CodePoints:   utf8.RuneCountInString(text),
		Graphemes:    uniseg.GraphemeClusterCount(text),
		DisplayWidth: uniseg.StringWidth(text),
	}
}
