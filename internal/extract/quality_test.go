package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextQualityGoodText(t *testing.T) {
	good := "This is a properly formatted invoice with lots of readable text content."
	assert.False(t, TextQualityPoor(good))
}

func TestTextQualityShortTextIsPoor(t *testing.T) {
	assert.True(t, TextQualityPoor("abc"))
	assert.True(t, TextQualityPoor(""))
	assert.True(t, TextQualityPoor(strings.Repeat(" ", 200)), "whitespace strips to nothing")
}

func TestTextQualityGarbledTextIsPoor(t *testing.T) {
	// Symbol soup from an embedded-font PDF: long enough, but nearly no
	// alphanumeric content.
	garbled := strings.Repeat("∂ƒ˙©˙∆˚¬∆˚¬∂∫˜˚∆√ç≈ @#$%^&*() ", 5)
	assert.True(t, TextQualityPoor(garbled))
}

func TestTextQualityCountsNumericForms(t *testing.T) {
	// Vulgar fractions and roman numerals are numeric runes, not digits,
	// and must not drag the alphanumeric ratio down.
	numeric := strings.Repeat("Ⅷ½", 30)
	assert.False(t, TextQualityPoor(numeric))
}

func TestTextQualityBoundaryLength(t *testing.T) {
	// 49 alphanumeric runes fail the length rule; 50 pass both rules.
	assert.True(t, TextQualityPoor(strings.Repeat("a", 49)))
	assert.False(t, TextQualityPoor(strings.Repeat("a", 50)))
}
