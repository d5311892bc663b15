package ocr

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidGray(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func TestAdaptiveThresholdSeparatesInkFromPaper(t *testing.T) {
	// Light page with a thin dark stroke across it.
	img := solidGray(50, 50, 220)
	for x := 0; x < 50; x++ {
		img.SetGray(x, 25, color.Gray{Y: 10})
		img.SetGray(x, 26, color.Gray{Y: 10})
	}

	out := adaptiveThreshold(img, thresholdWindow, thresholdOffset)

	assert.Equal(t, uint8(0), out.GrayAt(25, 25).Y, "stroke must binarize to black")
	assert.Equal(t, uint8(255), out.GrayAt(25, 5).Y, "paper must binarize to white")
	assert.Equal(t, uint8(255), out.GrayAt(25, 28).Y, "paper next to the stroke stays white")
}

func TestAdaptiveThresholdHandlesUnevenLighting(t *testing.T) {
	// A horizontal brightness gradient simulating a badly lit scan. A global
	// threshold would swallow one side; the local one must keep both dark
	// strokes.
	img := image.NewGray(image.Rect(0, 0, 100, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 100; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(100 + x)})
		}
	}
	for x := 0; x < 100; x++ {
		img.SetGray(x, 20, color.Gray{Y: 30})
	}

	out := adaptiveThreshold(img, thresholdWindow, thresholdOffset)

	assert.Equal(t, uint8(0), out.GrayAt(10, 20).Y, "stroke in the dark region")
	assert.Equal(t, uint8(0), out.GrayAt(90, 20).Y, "stroke in the bright region")
	assert.Equal(t, uint8(255), out.GrayAt(10, 5).Y)
	assert.Equal(t, uint8(255), out.GrayAt(90, 35).Y)
}

func TestMedianDenoiseRemovesIsolatedSpeckle(t *testing.T) {
	img := solidGray(20, 20, 255)
	img.SetGray(10, 10, color.Gray{Y: 0})

	out := medianDenoise(img)

	assert.Equal(t, uint8(255), out.GrayAt(10, 10).Y, "lone dark pixel is noise")
}

func TestMedianDenoisePreservesSolidStrokes(t *testing.T) {
	img := solidGray(20, 20, 255)
	for y := 8; y <= 12; y++ {
		for x := 8; x <= 12; x++ {
			img.SetGray(x, y, color.Gray{Y: 0})
		}
	}

	out := medianDenoise(img)

	assert.Equal(t, uint8(0), out.GrayAt(10, 10).Y, "interior of a glyph stroke survives")
}

func TestPrepareProducesDecodablePNG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 30, 30))
	for i := range src.Pix {
		src.Pix[i] = 200
	}

	data, err := NewPreprocessor().Prepare(src)
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), decoded.Bounds())
}
