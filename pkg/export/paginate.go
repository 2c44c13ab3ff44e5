package export

import "math"

// A4 portrait in points.
const (
	A4Width  = 595.28
	A4Height = 841.89
)

// ceil(h/p) stays exact when h is a whole number of pages up to float noise.
const pageEpsilon = 1e-9

// PageCount is ceil(h/p), at least one page.
func PageCount(h, p float64) int {
	if h <= 0 || p <= 0 {
		return 1
	}
	n := int(math.Ceil(h/p - pageEpsilon))
	return max(n, 1)
}

// Offsets returns the y at which page i draws the whole image: -p*i.
func Offsets(h, p float64) []float64 {
	n := PageCount(h, p)
	out := make([]float64, n)
	for i := range out {
		out[i] = -p * float64(i)
	}
	return out
}

// FitHeight scales an image of w×h pixels to pageWidth and returns its height.
func FitHeight(w, h int, pageWidth float64) float64 {
	if w <= 0 {
		return 0
	}
	return float64(h) * pageWidth / float64(w)
}
