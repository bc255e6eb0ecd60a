package imagehash

import (
	"fmt"
	"math/bits"
)

// ErrHashLengthMismatch is returned when two hex hashes of different bit
// lengths are compared.
var ErrHashLengthMismatch = fmt.Errorf("hash length mismatch")

// HammingDistance counts the differing bits between two equal-length hex
// hashes.
func HammingDistance(a, b string) (int, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d chars", ErrHashLengthMismatch, len(a), len(b))
	}
	distance := 0
	for i := 0; i < len(a); i++ {
		va, err := hexNibble(a[i])
		if err != nil {
			return 0, err
		}
		vb, err := hexNibble(b[i])
		if err != nil {
			return 0, err
		}
		distance += bits.OnesCount8(va ^ vb)
	}
	return distance, nil
}

// Similarity maps Hamming distance to a 0-1 score (1 = identical).
func Similarity(a, b string) (float64, error) {
	dist, err := HammingDistance(a, b)
	if err != nil {
		return 0, err
	}
	maxBits := len(a) * 4
	if maxBits == 0 {
		return 1.0, nil
	}
	return 1.0 - float64(dist)/float64(maxBits), nil
}

func hexNibble(c byte) (uint8, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	}
	return 0, fmt.Errorf("invalid hex character %q", c)
}
