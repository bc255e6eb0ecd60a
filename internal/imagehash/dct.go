package imagehash

import "math"

// dct2D applies a type-II DCT to an n x n row-major pixel block, rows first
// then columns, over owned buffers. Quadratic per axis, which is fine at the
// 32x32 size pHash uses.
func dct2D(pixels []float64, n int) []float64 {
	rows := make([]float64, n*n)
	row := make([]float64, n)
	for y := 0; y < n; y++ {
		dct1D(pixels[y*n:(y+1)*n], row)
		copy(rows[y*n:(y+1)*n], row)
	}

	out := make([]float64, n*n)
	col := make([]float64, n)
	res := make([]float64, n)
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			col[y] = rows[y*n+x]
		}
		dct1D(col, res)
		for y := 0; y < n; y++ {
			out[y*n+x] = res[y]
		}
	}
	return out
}

// dct1D writes the orthonormal type-II DCT of in to out (same length).
func dct1D(in, out []float64) {
	n := len(in)
	for k := 0; k < n; k++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += in[i] * math.Cos(math.Pi*float64(k)*(2*float64(i)+1)/(2*float64(n)))
		}
		scale := math.Sqrt(2 / float64(n))
		if k == 0 {
			scale = math.Sqrt(1 / float64(n))
		}
		out[k] = sum * scale
	}
}
