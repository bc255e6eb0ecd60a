package duplicate

import (
	"fmt"
	"math"

	"github.com/veristamp/veristamp/internal/fingerprint"
	"github.com/veristamp/veristamp/internal/imagehash"
)

// Weights of the composite similarity score. They sum to 1; a term whose
// inputs are missing on either side contributes 0 without renormalizing.
const (
	weightPHash     = 0.4
	weightDHash     = 0.3
	weightAHash     = 0.1
	weightHistogram = 0.2
)

// VideoComparison is the pairwise similarity verdict between two
// fingerprint bundles.
type VideoComparison struct {
	Similarity          float64 `json:"similarity"`
	PHashDistance       int     `json:"phashDistance"`
	PHashSimilarity     float64 `json:"phashSimilarity"`
	DHashSimilarity     float64 `json:"dhashSimilarity"`
	AHashSimilarity     float64 `json:"ahashSimilarity"`
	HistogramSimilarity float64 `json:"histogramSimilarity"`
	IsSameVideo         bool    `json:"isSameVideo"`
}

// CompareVideos scores two fingerprint bundles with the weighted composite
// 0.4·pHash + 0.3·dHash + 0.1·aHash + 0.2·histogram-cosine. Two videos are
// the same when the pHash distance is within the block threshold.
func (d *Detector) CompareVideos(a, b *fingerprint.PerceptualHashData) (*VideoComparison, error) {
	pDist, err := imagehash.HammingDistance(a.PHash, b.PHash)
	if err != nil {
		return nil, fmt.Errorf("phash: %w", err)
	}
	pSim := 1.0 - float64(pDist)/float64(len(a.PHash)*4)

	cmp := &VideoComparison{
		PHashDistance:   pDist,
		PHashSimilarity: pSim,
		IsSameVideo:     pDist <= d.thresholds.Block,
	}

	if a.DHash != "" && b.DHash != "" {
		sim, err := imagehash.Similarity(a.DHash, b.DHash)
		if err != nil {
			return nil, fmt.Errorf("dhash: %w", err)
		}
		cmp.DHashSimilarity = sim
	}
	if a.AHash != "" && b.AHash != "" {
		sim, err := imagehash.Similarity(a.AHash, b.AHash)
		if err != nil {
			return nil, fmt.Errorf("ahash: %w", err)
		}
		cmp.AHashSimilarity = sim
	}
	cmp.HistogramSimilarity = cosineSimilarity(a.ColorHistogram, b.ColorHistogram)

	cmp.Similarity = weightPHash*cmp.PHashSimilarity +
		weightDHash*cmp.DHashSimilarity +
		weightAHash*cmp.AHashSimilarity +
		weightHistogram*cmp.HistogramSimilarity
	return cmp, nil
}

// cosineSimilarity returns dot(a,b)/(|a||b|), or 0 when either vector is
// empty, mismatched or zero.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
