package intake

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// blurVarianceThreshold is tuned to the exact gradient formula used in
// LikelyBlurry. Changing the formula invalidates the threshold.
const blurVarianceThreshold = 500.0

// LikelyBlurry reports whether image content appears out of focus. For every
// horizontally adjacent pixel pair it sums the absolute per-channel RGB
// deltas, squares the sum, and averages the squares across the image; a low
// average means few sharp edges. Content that does not decode as an image is
// reported as not blurry.
func LikelyBlurry(content []byte) bool {
	img, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return false
	}

	bounds := img.Bounds()
	if bounds.Dx() < 2 || bounds.Dy() < 1 {
		return false
	}

	var total float64
	var count int

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X-1; x++ {
			r1, g1, b1, _ := img.At(x, y).RGBA()
			r2, g2, b2, _ := img.At(x+1, y).RGBA()

			// RGBA returns 16-bit channels, shift down to 8-bit
			diff := absDiff(r1>>8, r2>>8) + absDiff(g1>>8, g2>>8) + absDiff(b1>>8, b2>>8)
			total += float64(diff * diff)
			count++
		}
	}

	if count == 0 {
		return false
	}

	return total/float64(count) < blurVarianceThreshold
}

func absDiff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}
