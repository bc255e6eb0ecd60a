package imagehash

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(c color.Color, w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// horizontal luminance ramp, dark on the left
func rampImage(w, h int) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x * 255 / (w - 1))})
		}
	}
	return img
}

func checkerImage(w, h, cell int) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/cell+y/cell)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

func TestAverageHashUniform(t *testing.T) {
	// Every pixel equals the mean, so every bit is set.
	hash := AverageHash(solidImage(color.Gray{Y: 128}, 64, 64))
	assert.Equal(t, "ffffffffffffffff", hash)
}

func TestDifferenceHash(t *testing.T) {
	// No horizontal gradient at all.
	assert.Equal(t, "0000000000000000", DifferenceHash(solidImage(color.Gray{Y: 90}, 64, 64)))

	// Strictly increasing left to right: every comparison fires.
	assert.Equal(t, "ffffffffffffffff", DifferenceHash(rampImage(90, 80)))
}

func TestPerceptualHashFormat(t *testing.T) {
	hash := PerceptualHash(checkerImage(64, 64, 8))
	require.Len(t, hash, 16)
	for _, c := range hash {
		assert.Contains(t, "0123456789abcdef", string(c))
	}
}

func TestPerceptualHashDeterministic(t *testing.T) {
	img := checkerImage(64, 64, 8)
	assert.Equal(t, PerceptualHash(img), PerceptualHash(img))
}

func TestPerceptualHashDistinguishesContent(t *testing.T) {
	a := PerceptualHash(checkerImage(64, 64, 8))
	b := PerceptualHash(rampImage(64, 64))
	dist, err := HammingDistance(a, b)
	require.NoError(t, err)
	assert.Greater(t, dist, 0)
}

func TestPerceptualHashDCBitForcedZero(t *testing.T) {
	// Bit 0 is the DC term and always 0, so the first hex digit is < 8.
	for _, img := range []image.Image{checkerImage(64, 64, 4), rampImage(64, 64), solidImage(color.White, 32, 32)} {
		hash := PerceptualHash(img)
		nib, err := hexNibble(hash[0])
		require.NoError(t, err)
		assert.Less(t, nib, uint8(8), "DC bit must be 0 in %s", hash)
	}
}

func TestColorHistogram(t *testing.T) {
	hist := ColorHistogram(solidImage(color.RGBA{R: 255, A: 255}, 32, 32))
	require.Len(t, hist, 192)

	// Solid red: all mass in the top red bin and the bottom green/blue bins.
	assert.InDelta(t, 1.0, hist[63], 1e-9)
	assert.InDelta(t, 1.0, hist[64], 1e-9)
	assert.InDelta(t, 1.0, hist[128], 1e-9)

	var r, g, b float64
	for i := 0; i < 64; i++ {
		r += hist[i]
		g += hist[64+i]
		b += hist[128+i]
	}
	assert.InDelta(t, 1.0, r, 1e-9)
	assert.InDelta(t, 1.0, g, 1e-9)
	assert.InDelta(t, 1.0, b, 1e-9)
}

func TestBitsToHex(t *testing.T) {
	assert.Equal(t, "8", bitsToHex([]byte{1, 0, 0, 0}))
	assert.Equal(t, "f0", bitsToHex([]byte{1, 1, 1, 1, 0, 0, 0, 0}))
	assert.Equal(t, "a5", bitsToHex([]byte{1, 0, 1, 0, 0, 1, 0, 1}))
}

func TestDCT1DConstantSignal(t *testing.T) {
	in := []float64{1, 1, 1, 1}
	out := make([]float64, 4)
	dct1D(in, out)

	// Constant input concentrates all energy in the DC coefficient.
	assert.InDelta(t, 2.0, out[0], 1e-12)
	for k := 1; k < 4; k++ {
		assert.InDelta(t, 0.0, out[k], 1e-12)
	}
}

func TestDCT1DImpulse(t *testing.T) {
	in := []float64{1, 0, 0, 0}
	out := make([]float64, 4)
	dct1D(in, out)

	assert.InDelta(t, 0.5, out[0], 1e-12)
	for k := 1; k < 4; k++ {
		want := math.Sqrt(0.5) * math.Cos(math.Pi*float64(k)/8)
		assert.InDelta(t, want, out[k], 1e-12)
	}
}

func TestHammingDistance(t *testing.T) {
	dist, err := HammingDistance("a5f0c3", "a5f0c3")
	require.NoError(t, err)
	assert.Equal(t, 0, dist)

	dist, err = HammingDistance("00", "0f")
	require.NoError(t, err)
	assert.Equal(t, 4, dist)

	dist, err = HammingDistance("0000000000000000", "ffffffffffffffff")
	require.NoError(t, err)
	assert.Equal(t, 64, dist)
}

func TestHammingDistanceLengthMismatch(t *testing.T) {
	_, err := HammingDistance("abcd", "abc")
	assert.ErrorIs(t, err, ErrHashLengthMismatch)
}

func TestHammingDistanceInvalidHex(t *testing.T) {
	_, err := HammingDistance("zz", "00")
	assert.Error(t, err)
}

func TestSimilarity(t *testing.T) {
	sim, err := Similarity("deadbeef", "deadbeef")
	require.NoError(t, err)
	assert.Equal(t, 1.0, sim)

	// 4 differing bits out of 8.
	sim, err = Similarity("00", "0f")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, sim, 1e-9)
}
