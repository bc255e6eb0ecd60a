// Package imagehash implements the perceptual hash algorithms used to
// fingerprint sampled video frames: average hash (aHash), difference hash
// (dHash), DCT-based perceptual hash (pHash) and a normalized RGB color
// histogram. All hashes are 64-bit and rendered as 16-char lowercase hex.
package imagehash

import (
	"image"
	"sort"

	"golang.org/x/image/draw"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// AverageHash resizes the image to 8x8 grayscale and sets a bit for every
// pixel at or above the mean luminance.
func AverageHash(img image.Image) string {
	pixels := grayPixels(img, 8, 8)

	var sum float64
	for _, v := range pixels {
		sum += v
	}
	mean := sum / float64(len(pixels))

	bits := make([]byte, len(pixels))
	for i, v := range pixels {
		if v >= mean {
			bits[i] = 1
		}
	}
	return bitsToHex(bits)
}

// DifferenceHash resizes the image to 9x8 grayscale and sets a bit wherever
// a pixel is darker than its right-hand neighbour (horizontal gradient sign).
func DifferenceHash(img image.Image) string {
	pixels := grayPixels(img, 9, 8)

	bits := make([]byte, 64)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if pixels[y*9+x] < pixels[y*9+x+1] {
				bits[y*8+x] = 1
			}
		}
	}
	return bitsToHex(bits)
}

// PerceptualHash resizes the image to 32x32 grayscale, applies a 2D type-II
// DCT and thresholds the top-left 8x8 coefficient block against the median
// of its 63 AC coefficients. The DC coefficient (0,0) is always a 0 bit.
func PerceptualHash(img image.Image) string {
	pixels := grayPixels(img, 32, 32)
	coeffs := dct2D(pixels, 32)

	// Top-left 8x8 block, skipping the DC term.
	ac := make([]float64, 0, 63)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if x == 0 && y == 0 {
				continue
			}
			ac = append(ac, coeffs[y*32+x])
		}
	}
	median := medianOf(ac)

	bits := make([]byte, 64)
	i := 1
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if x == 0 && y == 0 {
				continue
			}
			if coeffs[y*32+x] > median {
				bits[i] = 1
			}
			i++
		}
	}
	return bitsToHex(bits)
}

// ColorHistogram resizes the image to 64x64 and buckets each RGB channel
// into 64 bins (192 floats total), normalized by pixel count so each
// channel's bins sum to ~1.
func ColorHistogram(img image.Image) []float64 {
	const size = 64
	scaled := scale(img, size, size)

	hist := make([]float64, 192)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, b, _ := scaled.At(x, y).RGBA()
			hist[(r>>8)/4]++
			hist[64+(g>>8)/4]++
			hist[128+(b>>8)/4]++
		}
	}
	n := float64(size * size)
	for i := range hist {
		hist[i] /= n
	}
	return hist
}

// scale resamples the image to w x h using bilinear interpolation.
func scale(img image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// grayPixels returns the w*h luminance values (0-255) of the scaled image
// in row-major order, using the Rec. 601 weights 0.299R + 0.587G + 0.114B.
func grayPixels(img image.Image, w, h int) []float64 {
	scaled := scale(img, w, h)
	pixels := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := scaled.At(x, y).RGBA()
			pixels[y*w+x] = 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
		}
	}
	return pixels
}

// bitsToHex packs a bit slice into lowercase hex, 4 bits per digit,
// most-significant bit first.
func bitsToHex(bits []byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, 0, len(bits)/4)
	for i := 0; i+3 < len(bits); i += 4 {
		v := bits[i]<<3 | bits[i+1]<<2 | bits[i+2]<<1 | bits[i+3]
		out = append(out, digits[v])
	}
	return string(out)
}

func medianOf(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted[len(sorted)/2]
}
