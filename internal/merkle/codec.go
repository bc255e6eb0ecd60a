package merkle

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedTree is returned when a serialized tree cannot be decoded.
var ErrMalformedTree = errors.New("merkle: malformed serialized tree")

// The short-key JSON shape below is the storage contract for archived
// trees; changing a key invalidates every persisted proof.

type serializedNode struct {
	Level            int    `json:"l"`
	Index            int    `json:"x"`
	Hash             string `json:"h"`
	FrameNumber      *int   `json:"fn,omitempty"`
	FrameTimestampMs *int   `json:"ft,omitempty"`
	LeftChildIndex   *int   `json:"lc,omitempty"`
	RightChildIndex  *int   `json:"rc,omitempty"`
}

type serializedTree struct {
	Root          string           `json:"r"`
	Depth         int              `json:"d"`
	Frames        int              `json:"f"`
	IntervalMs    int              `json:"i"`
	DurationMs    int              `json:"t"`
	HashAlgorithm string           `json:"a"`
	Nodes         []serializedNode `json:"n"`
}

// EncodeTree serializes a tree to its compact storage form.
func EncodeTree(t *Tree) ([]byte, error) {
	st := serializedTree{
		Root:          t.RootHash,
		Depth:         t.Depth,
		Frames:        t.TotalFrames,
		IntervalMs:    t.FrameIntervalMs,
		DurationMs:    t.DurationMs,
		HashAlgorithm: t.HashAlgorithm,
		Nodes:         make([]serializedNode, len(t.Nodes)),
	}
	for i, n := range t.Nodes {
		st.Nodes[i] = serializedNode{
			Level:            n.Level,
			Index:            n.Index,
			Hash:             n.Hash,
			FrameNumber:      n.FrameNumber,
			FrameTimestampMs: n.FrameTimestampMs,
			LeftChildIndex:   n.LeftChildIndex,
			RightChildIndex:  n.RightChildIndex,
		}
	}
	return json.Marshal(st)
}

// DecodeTree is the exact inverse of EncodeTree. Round-tripping reproduces
// a bit-identical structure and root hash.
func DecodeTree(data []byte) (*Tree, error) {
	var st serializedTree
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTree, err)
	}
	if st.Root == "" || len(st.Nodes) == 0 || st.Frames <= 0 {
		return nil, fmt.Errorf("%w: missing root, nodes or frame count", ErrMalformedTree)
	}
	if st.Depth != expectedDepth(st.Frames) {
		return nil, fmt.Errorf("%w: depth %d inconsistent with %d frames", ErrMalformedTree, st.Depth, st.Frames)
	}

	t := &Tree{
		RootHash:        st.Root,
		Depth:           st.Depth,
		TotalFrames:     st.Frames,
		FrameIntervalMs: st.IntervalMs,
		DurationMs:      st.DurationMs,
		HashAlgorithm:   st.HashAlgorithm,
		Nodes:           make([]Node, len(st.Nodes)),
	}
	for i, n := range st.Nodes {
		t.Nodes[i] = Node{
			Level:            n.Level,
			Index:            n.Index,
			Hash:             n.Hash,
			FrameNumber:      n.FrameNumber,
			FrameTimestampMs: n.FrameTimestampMs,
			LeftChildIndex:   n.LeftChildIndex,
			RightChildIndex:  n.RightChildIndex,
		}
	}
	return t, nil
}
