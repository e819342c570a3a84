// Package textmetrics measures editor content the way the marketplace counts
// it: full-width characters are one unit, half-width characters half a unit.
//
// All functions are pure and safe for concurrent use.
package textmetrics

const (
	// halfWidthMax is the largest UTF-16 code unit counted as half-width.
	halfWidthMax = 0xFF

	fullWidthUnit = 1.0
	halfWidthUnit = 0.5
)

// Stats is the character summary shown next to the HTML editor.
type Stats struct {
	StandardCount int     `json:"standardCount"`
	RakutenCount  float64 `json:"rakutenCount"`
	Bytes         int     `json:"bytes"`
}

// WidthAwareCount sums 1 for every UTF-16 code unit above 0xFF and 0.5 for
// every other unit.
//
// Counting is per code unit, not per character: a rune outside the Basic
// Multilingual Plane is a surrogate pair and counts 2.0. Invalid UTF-8 bytes
// count as U+FFFD.
func WidthAwareCount(text string) float64 {
	var count float64
	for _, r := range text {
		if r > 0xFFFF {
			// both surrogate halves are above 0xFF
			count += 2 * fullWidthUnit
			continue
		}
		if r > halfWidthMax {
			count += fullWidthUnit
		} else {
			count += halfWidthUnit
		}
	}
	return count
}

// UTF16Len returns the number of UTF-16 code units needed to encode text.
func UTF16Len(text string) int {
	n := 0
	for _, r := range text {
		if r > 0xFFFF {
			n += 2
			continue
		}
		n++
	}
	return n
}

// ContentStats returns the standard length (UTF-16 code units), the
// marketplace count and the UTF-8 size of html.
func ContentStats(html string) Stats {
	return Stats{
		StandardCount: UTF16Len(html),
		RakutenCount:  WidthAwareCount(html),
		Bytes:         len(html),
	}
}
