package merkle

// Comparison is the result of a positional diff between two trees.
type Comparison struct {
	Identical      bool
	ModifiedFrames []int
	RemovedFrames  []int
	AddedFrames    []int
}

// CompareTrees diffs two trees by frame index, not by content alignment:
// a frame inserted or removed at the front shifts every later index and
// reports as a run of modifications. Trees with equal roots are reported
// identical without inspecting leaves.
func CompareTrees(a, b *Tree) *Comparison {
	if a.RootHash == b.RootHash {
		return &Comparison{Identical: true}
	}

	leavesA := a.LevelNodes(0)
	leavesB := b.LevelNodes(0)

	result := &Comparison{}
	max := len(leavesA)
	if len(leavesB) > max {
		max = len(leavesB)
	}
	for i := 0; i < max; i++ {
		switch {
		case i >= len(leavesB):
			result.RemovedFrames = append(result.RemovedFrames, i)
		case i >= len(leavesA):
			result.AddedFrames = append(result.AddedFrames, i)
		case leavesA[i].Hash != leavesB[i].Hash:
			result.ModifiedFrames = append(result.ModifiedFrames, i)
		}
	}
	return result
}
