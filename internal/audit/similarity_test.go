package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatioIdenticalStrings(t *testing.T) {
	assert.Equal(t, 1.0, Ratio("ROADWAY EXPRESS", "ROADWAY EXPRESS"))
	assert.Equal(t, 1.0, Ratio("", ""))
}

func TestRatioDisjointStrings(t *testing.T) {
	assert.Equal(t, 0.0, Ratio("ABC", "XYZ"))
	assert.Equal(t, 0.0, Ratio("ABC", ""))
}

func TestRatioSingleDroppedLetter(t *testing.T) {
	// 14 matched runes out of 29 total: 2*14/29.
	got := Ratio("ROADWAY EXPRES", "ROADWAY EXPRESS")
	assert.InDelta(t, 28.0/29.0, got, 1e-9)
	assert.GreaterOrEqual(t, got, DefaultMinSimilarity)
}

func TestRatioDifferentCarriers(t *testing.T) {
	got := Ratio("FEDEX FREIGHT", "ROADWAY EXPRESS")
	assert.Less(t, got, DefaultMinSimilarity)
}

func TestRatioCountsRecursiveBlocks(t *testing.T) {
	// Longest block "AB" splits the remainder; "D" still matches on the right.
	// Blocks: "AB" (2) + "D" (1), total length 8.
	assert.InDelta(t, 2*3.0/8.0, Ratio("ABXD", "ABYD"), 1e-9)
}

func TestRatioIsSymmetricEnoughForThreshold(t *testing.T) {
	a, b := "ROADWAY EXPRESS", "ROADWAY EXPRES"
	assert.InDelta(t, Ratio(a, b), Ratio(b, a), 1e-9)
}
