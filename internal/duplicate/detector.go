// Package duplicate runs the weighted near-duplicate policy: a new
// fingerprint is compared against a caller-supplied corpus of previously
// verified media and the best evidence drives an allow/warn/block
// recommendation.
package duplicate

import (
	"errors"
	"log"
	"sort"

	"github.com/veristamp/veristamp/internal/imagehash"
)

// Hash types attached to matches.
const (
	HashTypeSHA256 = "sha256"
	HashTypePHash  = "phash"
	HashTypeDHash  = "dhash"
)

// Recommendations, strongest last.
const (
	RecommendationAllow = "allow"
	RecommendationWarn  = "warn"
	RecommendationBlock = "block"
)

// Thresholds are Hamming-distance cutoffs (in bits). Injectable so boundary
// values can be exercised deterministically in tests.
type Thresholds struct {
	Block         int // distance at or below which content is blocked
	Warn          int // distance at or below which content is flagged
	LowSimilarity int // distance at or below which a match is recorded at all
}

func DefaultThresholds() Thresholds {
	return Thresholds{Block: 3, Warn: 10, LowSimilarity: 15}
}

// CorpusEntry is one previously fingerprinted video, supplied up front by
// the caller; the detector never reaches into a database itself.
type CorpusEntry struct {
	VerificationID string
	VideoID        string
	SHA256Hash     string
	PHash          string
	DHash          string // optional
	CreatorName    string // optional
}

// Submission is the new content under check.
type Submission struct {
	SHA256Hash string
	PHash      string
	DHash      string // optional
}

// Match is one piece of duplicate evidence against a corpus entry.
type Match struct {
	VerificationID string  `json:"verificationId"`
	VideoID        string  `json:"videoId"`
	HashType       string  `json:"hashType"`
	Similarity     float64 `json:"similarity"`
	Distance       int     `json:"distance"`
}

// CheckResult is the ranked, bounded outcome of a corpus scan.
type CheckResult struct {
	IsDuplicate            bool    `json:"isDuplicate"`
	Confidence             float64 `json:"confidence"`
	OriginalVerificationID string  `json:"originalVerificationId,omitempty"`
	OriginalVideoID        string  `json:"originalVideoId,omitempty"`
	OriginalCreatorName    string  `json:"originalCreatorName,omitempty"`
	Matches                []Match `json:"matches"`
	Recommendation         string  `json:"recommendation"`
}

type Detector struct {
	thresholds Thresholds
}

func NewDetector(t Thresholds) *Detector {
	return &Detector{thresholds: t}
}

// Check scans the corpus for exact and perceptual matches. Matches are
// deduplicated per verification ID (best similarity wins) and ranked
// descending; the recommendation is evaluated against the best match.
// Corpus entries whose stored hashes have a different bit length than the
// submission's are skipped, not fatal: legacy entries may predate the
// current hash size.
func (d *Detector) Check(sub Submission, corpus []CorpusEntry) *CheckResult {
	best := make(map[string]Match)
	record := func(m Match) {
		if prev, ok := best[m.VerificationID]; !ok || m.Similarity > prev.Similarity {
			best[m.VerificationID] = m
		}
	}

	skipped := 0
	for _, entry := range corpus {
		if sub.SHA256Hash != "" && entry.SHA256Hash == sub.SHA256Hash {
			record(Match{
				VerificationID: entry.VerificationID,
				VideoID:        entry.VideoID,
				HashType:       HashTypeSHA256,
				Similarity:     1.0,
				Distance:       0,
			})
			continue
		}

		if m, ok := d.perceptualMatch(sub.PHash, entry.PHash, HashTypePHash, entry, &skipped); ok {
			record(m)
		}
		if m, ok := d.perceptualMatch(sub.DHash, entry.DHash, HashTypeDHash, entry, &skipped); ok {
			record(m)
		}
	}
	if skipped > 0 {
		log.Printf("Duplicate: skipped %d corpus hashes with mismatched length", skipped)
	}

	matches := make([]Match, 0, len(best))
	for _, m := range best {
		matches = append(matches, m)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	result := &CheckResult{Matches: matches, Recommendation: RecommendationAllow}
	if len(matches) == 0 {
		return result
	}

	top := matches[0]
	result.Confidence = top.Similarity
	switch {
	case top.HashType == HashTypeSHA256:
		result.Recommendation = RecommendationBlock
	case top.Distance <= d.thresholds.Block:
		result.Recommendation = RecommendationBlock
	case top.Distance <= d.thresholds.Warn:
		result.Recommendation = RecommendationWarn
	}
	result.IsDuplicate = result.Recommendation != RecommendationAllow
	result.OriginalVerificationID = top.VerificationID
	result.OriginalVideoID = top.VideoID
	for _, entry := range corpus {
		if entry.VerificationID == top.VerificationID {
			result.OriginalCreatorName = entry.CreatorName
			break
		}
	}
	return result
}

func (d *Detector) perceptualMatch(subHash, entryHash, hashType string, entry CorpusEntry, skipped *int) (Match, bool) {
	if subHash == "" || entryHash == "" {
		return Match{}, false
	}
	dist, err := imagehash.HammingDistance(subHash, entryHash)
	if err != nil {
		if errors.Is(err, imagehash.ErrHashLengthMismatch) {
			*skipped++
			return Match{}, false
		}
		log.Printf("Duplicate: unreadable %s for %s: %v", hashType, entry.VerificationID, err)
		return Match{}, false
	}
	if dist > d.thresholds.LowSimilarity {
		return Match{}, false
	}
	maxBits := len(subHash) * 4
	return Match{
		VerificationID: entry.VerificationID,
		VideoID:        entry.VideoID,
		HashType:       hashType,
		Similarity:     1.0 - float64(dist)/float64(maxBits),
		Distance:       dist,
	}, true
}
