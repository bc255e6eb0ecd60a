// Package merkle builds binary hash trees over per-frame leaf hashes and
// produces inclusion proofs so a single frame can be authenticated against
// a stored root without re-hashing the whole video.
package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
)

// ErrEmptyTree is returned when a tree build is attempted with no leaves.
var ErrEmptyTree = errors.New("merkle: cannot build tree with no leaf hashes")

// Node is a single position in the tree. Level-0 nodes carry the frame
// number and capture timestamp; internal nodes carry the indices of their
// children on the level below.
type Node struct {
	Level            int
	Index            int
	Hash             string
	FrameNumber      *int
	FrameTimestampMs *int
	LeftChildIndex   *int
	RightChildIndex  *int
}

// Tree is the immutable result of a build. Any frame change requires a
// full rebuild; nodes are stored level by level, leaves first.
type Tree struct {
	RootHash        string
	Depth           int
	TotalFrames     int
	FrameIntervalMs int
	DurationMs      int
	Nodes           []Node
	HashAlgorithm   string
}

// Leaf is one frame's hash and capture timestamp, in capture order.
type Leaf struct {
	Hash        string
	TimestampMs int
}

// BuildTree constructs the tree bottom-up. Nodes on a level are paired
// (2i, 2i+1); an odd tail node is paired with itself. That self-pairing is
// a compatibility constraint carried from archived trees, not a security
// property. Parent hashes are sha256 over the hex-string concatenation of
// the child hashes.
func BuildTree(leaves []Leaf, frameIntervalMs, durationMs int) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}

	nodes := make([]Node, 0, 2*len(leaves))
	level := make([]Node, len(leaves))
	for i, leaf := range leaves {
		frame, ts := i, leaf.TimestampMs
		level[i] = Node{
			Level:            0,
			Index:            i,
			Hash:             leaf.Hash,
			FrameNumber:      &frame,
			FrameTimestampMs: &ts,
		}
	}
	nodes = append(nodes, level...)

	depth := 0
	for len(level) > 1 {
		depth++
		next := make([]Node, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			left := level[i]
			right := left // odd tail pairs with itself
			if i+1 < len(level) {
				right = level[i+1]
			}
			lc, rc := left.Index, right.Index
			next = append(next, Node{
				Level:           depth,
				Index:           i / 2,
				Hash:            hashPair(left.Hash, right.Hash),
				LeftChildIndex:  &lc,
				RightChildIndex: &rc,
			})
		}
		nodes = append(nodes, next...)
		level = next
	}

	return &Tree{
		RootHash:        level[0].Hash,
		Depth:           depth,
		TotalFrames:     len(leaves),
		FrameIntervalMs: frameIntervalMs,
		DurationMs:      durationMs,
		Nodes:           nodes,
		HashAlgorithm:   "sha256",
	}, nil
}

// LevelNodes returns the nodes at one level, in index order.
func (t *Tree) LevelNodes(level int) []Node {
	var out []Node
	for _, n := range t.Nodes {
		if n.Level == level {
			out = append(out, n)
		}
	}
	return out
}

// hashPair hashes the concatenation of two lowercase hex strings. The
// children are hashed as text, not decoded bytes, matching the persisted
// root format.
func hashPair(left, right string) string {
	sum := sha256.Sum256([]byte(left + right))
	return hex.EncodeToString(sum[:])
}

// expectedDepth is ceil(log2(n)) for n > 1, else 0. Used by the decoder
// sanity check.
func expectedDepth(n int) int {
	if n <= 1 {
		return 0
	}
	return int(math.Ceil(math.Log2(float64(n))))
}

func (t *Tree) String() string {
	return fmt.Sprintf("merkle.Tree{root=%s frames=%d depth=%d}", t.RootHash, t.TotalFrames, t.Depth)
}
