package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"
)

const (
	// Neighborhood size and offset for local binarization. A single global
	// threshold fails on scans with uneven lighting, so each pixel is
	// compared against the mean of the window centered on it.
	thresholdWindow = 11
	thresholdOffset = 2
)

// Preprocessor cleans up a rendered page before recognition: grayscale,
// adaptive binarization, then a median pass to knock out scanner speckle.
type Preprocessor struct{}

// NewPreprocessor creates an image preprocessor.
func NewPreprocessor() *Preprocessor {
	return &Preprocessor{}
}

// Prepare runs the full cleanup pipeline and returns the result as PNG
// bytes ready to hand to the recognition engine.
func (p *Preprocessor) Prepare(img image.Image) ([]byte, error) {
	gray := toGray(imaging.Grayscale(img))
	binary := adaptiveThreshold(gray, thresholdWindow, thresholdOffset)
	clean := medianDenoise(binary)

	var buf bytes.Buffer
	if err := png.Encode(&buf, clean); err != nil {
		return nil, fmt.Errorf("failed to encode preprocessed page: %w", err)
	}
	return buf.Bytes(), nil
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, img.At(x, y))
		}
	}
	return gray
}

// adaptiveThreshold binarizes gray against the mean of the window x window
// neighborhood of each pixel, minus offset. Pixels above the local mean
// become white, everything else black. A summed-area table keeps the window
// mean O(1) per pixel.
func adaptiveThreshold(gray *image.Gray, window, offset int) *image.Gray {
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := image.NewGray(bounds)
	if w == 0 || h == 0 {
		return out
	}

	integral := make([]uint64, (w+1)*(h+1))
	stride := w + 1
	for y := 0; y < h; y++ {
		var rowSum uint64
		for x := 0; x < w; x++ {
			rowSum += uint64(gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
			integral[(y+1)*stride+x+1] = integral[y*stride+x+1] + rowSum
		}
	}

	half := window / 2
	for y := 0; y < h; y++ {
		y0, y1 := max(0, y-half), min(h-1, y+half)
		for x := 0; x < w; x++ {
			x0, x1 := max(0, x-half), min(w-1, x+half)

			sum := integral[(y1+1)*stride+x1+1] -
				integral[y0*stride+x1+1] -
				integral[(y1+1)*stride+x0] +
				integral[y0*stride+x0]
			count := uint64((y1 - y0 + 1) * (x1 - x0 + 1))
			mean := int(sum / count)

			v := uint8(0)
			if int(gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y) > mean-offset {
				v = 255
			}
			out.SetGray(bounds.Min.X+x, bounds.Min.Y+y, color.Gray{Y: v})
		}
	}
	return out
}

// medianDenoise applies a 3x3 median filter. On a binarized page this
// removes isolated speckle without eroding glyph strokes.
func medianDenoise(gray *image.Gray) *image.Gray {
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := image.NewGray(bounds)

	var window [9]uint8
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			n := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					ny, nx := y+dy, x+dx
					if ny < 0 || ny >= h || nx < 0 || nx >= w {
						continue
					}
					window[n] = gray.GrayAt(bounds.Min.X+nx, bounds.Min.Y+ny).Y
					n++
				}
			}
			out.SetGray(bounds.Min.X+x, bounds.Min.Y+y, color.Gray{Y: median(window[:n])})
		}
	}
	return out
}

func median(vals []uint8) uint8 {
	// Insertion sort; at most 9 elements.
	for i := 1; i < len(vals); i++ {
		for j := i; j > 0 && vals[j-1] > vals[j]; j-- {
			vals[j-1], vals[j] = vals[j], vals[j-1]
		}
	}
	return vals[len(vals)/2]
}
