package textmetrics

import (
	"strconv"

	"golang.org/x/text/language"

	"finitefield.org/pagemaker/internal/format"
)

const (
	abbreviateFrom = 1000
	kibibyte       = 1024
)

// FormatCount renders count for display using the default locale.
// With abbreviate set, counts of 1000 and above become "1.5k".
func FormatCount(count float64, abbreviate bool) string {
	return FormatCountIn(format.DefaultLocale, count, abbreviate)
}

// FormatCountIn is FormatCount with an explicit locale for digit grouping.
func FormatCountIn(tag language.Tag, count float64, abbreviate bool) string {
	if abbreviate && count >= abbreviateFrom {
		return format.Fixed(count/abbreviateFrom, 1) + "k"
	}
	return format.Number(tag, count, 3)
}

// FormatByteSize renders a byte size as "512 B" below 1 KiB and as
// kilobytes with two decimals otherwise. There is no MB tier.
func FormatByteSize(bytes int64) string {
	if bytes < kibibyte {
		return strconv.FormatInt(bytes, 10) + " B"
	}
	return format.Fixed(float64(bytes)/kibibyte, 2) + " KB"
}
