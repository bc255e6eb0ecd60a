package merkle

import (
	"errors"
	"fmt"
)

// ErrFrameOutOfRange is returned when a proof is requested for a frame
// number outside [0, totalFrames).
var ErrFrameOutOfRange = errors.New("merkle: frame number out of range")

// Position says which side a sibling hash occupies relative to the running
// hash when a proof is folded.
type Position string

const (
	PositionLeft  Position = "left"
	PositionRight Position = "right"
)

// ProofStep is one sibling on the path from a leaf to the root.
type ProofStep struct {
	Hash     string   `json:"hash"`
	Position Position `json:"position"`
	Level    int      `json:"level"`
}

// Proof is an inclusion proof for a single frame. Applying each step in
// order to FrameHash reproduces RootHash.
type Proof struct {
	FrameNumber      int         `json:"frameNumber"`
	FrameHash        string      `json:"frameHash"`
	FrameTimestampMs int         `json:"frameTimestampMs"`
	Steps            []ProofStep `json:"proof"`
	RootHash         string      `json:"rootHash"`
}

// GenerateProof walks from the frame's leaf to the root, recording the
// sibling hash at each level. When a node has no sibling (odd tail) it is
// paired with itself, mirroring the build rule exactly.
func GenerateProof(t *Tree, frameNumber int) (*Proof, error) {
	if frameNumber < 0 || frameNumber >= t.TotalFrames {
		return nil, fmt.Errorf("%w: %d (tree has %d frames)", ErrFrameOutOfRange, frameNumber, t.TotalFrames)
	}

	// Offsets of each level inside the flat node slice.
	sizes := levelSizes(t.TotalFrames)
	offsets := make([]int, len(sizes))
	for i := 1; i < len(sizes); i++ {
		offsets[i] = offsets[i-1] + sizes[i-1]
	}

	leaf := t.Nodes[frameNumber]
	proof := &Proof{
		FrameNumber: frameNumber,
		FrameHash:   leaf.Hash,
		RootHash:    t.RootHash,
	}
	if leaf.FrameTimestampMs != nil {
		proof.FrameTimestampMs = *leaf.FrameTimestampMs
	}

	idx := frameNumber
	for level := 0; level < len(sizes)-1; level++ {
		sibling := idx - 1
		position := PositionLeft
		if idx%2 == 0 {
			sibling = idx + 1
			position = PositionRight
		}
		if sibling >= sizes[level] {
			sibling = idx // odd tail pairs with itself
		}
		proof.Steps = append(proof.Steps, ProofStep{
			Hash:     t.Nodes[offsets[level]+sibling].Hash,
			Position: position,
			Level:    level,
		})
		idx /= 2
	}
	return proof, nil
}

// VerifyProof folds the proof steps over the frame hash and reports whether
// the result matches the claimed root. It is a total function: malformed or
// tampered proofs return false, never an error, so it is safe to run on
// untrusted input.
func VerifyProof(p *Proof) bool {
	if p == nil {
		return false
	}
	current := p.FrameHash
	for _, step := range p.Steps {
		switch step.Position {
		case PositionLeft:
			current = hashPair(step.Hash, current)
		case PositionRight:
			current = hashPair(current, step.Hash)
		default:
			return false
		}
	}
	return current == p.RootHash
}

// levelSizes returns the node count per level, leaves first, halving
// (rounded up) until a single root remains.
func levelSizes(totalFrames int) []int {
	sizes := []int{totalFrames}
	for n := totalFrames; n > 1; n = (n + 1) / 2 {
		sizes = append(sizes, (n+1)/2)
	}
	return sizes
}
