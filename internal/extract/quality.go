package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// minTextLength is the smallest stripped length a real invoice text
	// layer produces; anything shorter came from an empty or image-only PDF.
	minTextLength = 50

	// minAlnumRatio is the lowest tolerable share of alphanumeric runes.
	// Embedded-font and scanned documents extract as symbol soup well below it.
	minAlnumRatio = 0.3
)

// TextQualityPoor reports whether directly extracted text is too short or
// too garbled to trust, in which case the caller should re-derive the text
// through the recognition fallback.
func TextQualityPoor(text string) bool {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minTextLength {
		return true
	}

	var alnum, total int
	for _, r := range text {
		total++
		// IsNumber, not IsDigit: fraction and roman-numeral forms count
		// as alphanumeric here.
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			alnum++
		}
	}
	if total > 0 && float64(alnum)/float64(total) < minAlnumRatio {
		return true
	}

	return false
}
