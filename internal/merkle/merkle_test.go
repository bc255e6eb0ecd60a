package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sha(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func makeLeaves(hashes ...string) []Leaf {
	leaves := make([]Leaf, len(hashes))
	for i, h := range hashes {
		leaves[i] = Leaf{Hash: h, TimestampMs: i * 1000}
	}
	return leaves
}

func TestBuildTreeEmpty(t *testing.T) {
	_, err := BuildTree(nil, 1000, 0)
	assert.ErrorIs(t, err, ErrEmptyTree)
}

func TestBuildTreeSingleLeaf(t *testing.T) {
	tree, err := BuildTree(makeLeaves("aa"), 1000, 1000)
	require.NoError(t, err)

	assert.Equal(t, "aa", tree.RootHash)
	assert.Equal(t, 0, tree.Depth)
	assert.Equal(t, 1, tree.TotalFrames)
	assert.Equal(t, "sha256", tree.HashAlgorithm)

	proof, err := GenerateProof(tree, 0)
	require.NoError(t, err)
	assert.Empty(t, proof.Steps)
	assert.True(t, VerifyProof(proof))
}

func TestBuildTreeDeterministicRoot(t *testing.T) {
	h0, h1, h2, h3 := sha("f0"), sha("f1"), sha("f2"), sha("f3")
	tree, err := BuildTree(makeLeaves(h0, h1, h2, h3), 1000, 4000)
	require.NoError(t, err)

	want := sha(sha(h0+h1) + sha(h2+h3))
	assert.Equal(t, want, tree.RootHash)
	assert.Equal(t, 2, tree.Depth)
	assert.Equal(t, 4, tree.TotalFrames)
	assert.Len(t, tree.Nodes, 7)
}

func TestBuildTreeOddLeafSelfPairs(t *testing.T) {
	h0, h1, h2 := sha("f0"), sha("f1"), sha("f2")
	tree, err := BuildTree(makeLeaves(h0, h1, h2), 1000, 3000)
	require.NoError(t, err)

	// The odd tail h2 pairs with itself on level 0.
	want := sha(sha(h0+h1) + sha(h2+h2))
	assert.Equal(t, want, tree.RootHash)
	assert.Equal(t, 2, tree.Depth)
}

func TestBuildTreeLevelCounts(t *testing.T) {
	leaves := makeLeaves(sha("a"), sha("b"), sha("c"), sha("d"), sha("e"))
	tree, err := BuildTree(leaves, 1000, 5000)
	require.NoError(t, err)

	// 5 -> 3 -> 2 -> 1, halving rounded up each level.
	assert.Len(t, tree.LevelNodes(0), 5)
	assert.Len(t, tree.LevelNodes(1), 3)
	assert.Len(t, tree.LevelNodes(2), 2)
	assert.Len(t, tree.LevelNodes(3), 1)
	assert.Equal(t, 3, tree.Depth)
}

func TestLeafMetadata(t *testing.T) {
	tree, err := BuildTree(makeLeaves(sha("a"), sha("b")), 500, 1000)
	require.NoError(t, err)

	leaves := tree.LevelNodes(0)
	require.Len(t, leaves, 2)
	require.NotNil(t, leaves[1].FrameNumber)
	require.NotNil(t, leaves[1].FrameTimestampMs)
	assert.Equal(t, 1, *leaves[1].FrameNumber)
	assert.Equal(t, 1000, *leaves[1].FrameTimestampMs)

	root := tree.LevelNodes(1)
	require.Len(t, root, 1)
	assert.Nil(t, root[0].FrameNumber)
	require.NotNil(t, root[0].LeftChildIndex)
	require.NotNil(t, root[0].RightChildIndex)
	assert.Equal(t, 0, *root[0].LeftChildIndex)
	assert.Equal(t, 1, *root[0].RightChildIndex)
}

func TestGenerateProofKnownPath(t *testing.T) {
	h0, h1, h2, h3 := sha("f0"), sha("f1"), sha("f2"), sha("f3")
	tree, err := BuildTree(makeLeaves(h0, h1, h2, h3), 1000, 4000)
	require.NoError(t, err)

	proof, err := GenerateProof(tree, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, proof.FrameNumber)
	assert.Equal(t, h1, proof.FrameHash)
	assert.Equal(t, 1000, proof.FrameTimestampMs)
	require.Len(t, proof.Steps, 2)
	assert.Equal(t, ProofStep{Hash: h0, Position: PositionLeft, Level: 0}, proof.Steps[0])
	assert.Equal(t, ProofStep{Hash: sha(h2 + h3), Position: PositionRight, Level: 1}, proof.Steps[1])
	assert.True(t, VerifyProof(proof))
}

func TestProofSoundnessAllFramesAllSizes(t *testing.T) {
	for n := 1; n <= 9; n++ {
		var leaves []Leaf
		for i := 0; i < n; i++ {
			leaves = append(leaves, Leaf{Hash: sha(fmt.Sprintf("frame-%d-%d", n, i)), TimestampMs: i * 200})
		}
		tree, err := BuildTree(leaves, 200, n*200)
		require.NoError(t, err)

		for i := 0; i < n; i++ {
			proof, err := GenerateProof(tree, i)
			require.NoError(t, err, "n=%d frame=%d", n, i)
			assert.True(t, VerifyProof(proof), "n=%d frame=%d", n, i)
		}
	}
}

func TestProofTamperDetection(t *testing.T) {
	tree, err := BuildTree(makeLeaves(sha("a"), sha("b"), sha("c"), sha("d")), 1000, 4000)
	require.NoError(t, err)
	proof, err := GenerateProof(tree, 2)
	require.NoError(t, err)

	flip := func(s string, i int) string {
		b := []byte(s)
		if b[i] == '0' {
			b[i] = '1'
		} else {
			b[i] = '0'
		}
		return string(b)
	}

	for i := range proof.FrameHash {
		tampered := *proof
		tampered.FrameHash = flip(proof.FrameHash, i)
		assert.False(t, VerifyProof(&tampered), "frame hash char %d", i)
	}
	for s := range proof.Steps {
		for i := range proof.Steps[s].Hash {
			tampered := *proof
			tampered.Steps = append([]ProofStep(nil), proof.Steps...)
			tampered.Steps[s].Hash = flip(proof.Steps[s].Hash, i)
			assert.False(t, VerifyProof(&tampered), "step %d char %d", s, i)
		}
	}
}

func TestGenerateProofOutOfRange(t *testing.T) {
	tree, err := BuildTree(makeLeaves(sha("a"), sha("b")), 1000, 2000)
	require.NoError(t, err)

	_, err = GenerateProof(tree, -1)
	assert.ErrorIs(t, err, ErrFrameOutOfRange)
	_, err = GenerateProof(tree, 2)
	assert.ErrorIs(t, err, ErrFrameOutOfRange)
}

func TestVerifyProofNeverPanics(t *testing.T) {
	assert.False(t, VerifyProof(nil))
	assert.False(t, VerifyProof(&Proof{}))
	assert.False(t, VerifyProof(&Proof{
		FrameHash: "aa",
		RootHash:  "bb",
		Steps:     []ProofStep{{Hash: "cc", Position: "sideways", Level: 0}},
	}))
}

func TestCompareTreesIdentical(t *testing.T) {
	leaves := makeLeaves(sha("a"), sha("b"), sha("c"))
	a, err := BuildTree(leaves, 1000, 3000)
	require.NoError(t, err)
	b, err := BuildTree(leaves, 1000, 3000)
	require.NoError(t, err)

	cmp := CompareTrees(a, b)
	assert.True(t, cmp.Identical)
	assert.Empty(t, cmp.ModifiedFrames)
}

func TestCompareTreesModified(t *testing.T) {
	h := []string{sha("a"), sha("b"), sha("c"), sha("d")}
	a, err := BuildTree(makeLeaves(h...), 1000, 4000)
	require.NoError(t, err)

	h2 := []string{h[0], h[1], sha("tampered"), h[3]}
	b, err := BuildTree(makeLeaves(h2...), 1000, 4000)
	require.NoError(t, err)

	cmp := CompareTrees(a, b)
	assert.False(t, cmp.Identical)
	assert.Equal(t, []int{2}, cmp.ModifiedFrames)
	assert.Empty(t, cmp.RemovedFrames)
	assert.Empty(t, cmp.AddedFrames)
}

func TestCompareTreesAddedRemoved(t *testing.T) {
	short, err := BuildTree(makeLeaves(sha("a"), sha("b")), 1000, 2000)
	require.NoError(t, err)
	long, err := BuildTree(makeLeaves(sha("a"), sha("b"), sha("c")), 1000, 3000)
	require.NoError(t, err)

	cmp := CompareTrees(short, long)
	assert.Equal(t, []int{2}, cmp.AddedFrames)

	cmp = CompareTrees(long, short)
	assert.Equal(t, []int{2}, cmp.RemovedFrames)
}

func TestCodecRoundTrip(t *testing.T) {
	tree, err := BuildTree(makeLeaves(sha("a"), sha("b"), sha("c"), sha("d"), sha("e")), 2000, 10000)
	require.NoError(t, err)

	data, err := EncodeTree(tree)
	require.NoError(t, err)

	decoded, err := DecodeTree(data)
	require.NoError(t, err)
	assert.Equal(t, tree, decoded)

	// Round-trip again to make sure encoding is stable.
	data2, err := EncodeTree(decoded)
	require.NoError(t, err)
	assert.Equal(t, data, data2)
}

func TestCodecShortKeys(t *testing.T) {
	tree, err := BuildTree(makeLeaves(sha("a"), sha("b")), 1000, 2000)
	require.NoError(t, err)
	data, err := EncodeTree(tree)
	require.NoError(t, err)

	// The storage contract uses abbreviated keys.
	s := string(data)
	for _, key := range []string{`"r":`, `"d":`, `"f":`, `"i":`, `"t":`, `"a":`, `"n":`, `"l":`, `"x":`, `"h":`, `"fn":`, `"ft":`, `"lc":`, `"rc":`} {
		assert.Contains(t, s, key)
	}
	assert.NotContains(t, s, "rootHash")
}

func TestDecodeTreeMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":     "{",
		"empty object": "{}",
		"no nodes":     `{"r":"ab","d":0,"f":1,"a":"sha256","n":[]}`,
		"bad depth":    `{"r":"ab","d":5,"f":2,"a":"sha256","n":[{"l":0,"x":0,"h":"ab"}]}`,
		"zero frames":  `{"r":"ab","d":0,"f":0,"a":"sha256","n":[{"l":0,"x":0,"h":"ab"}]}`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeTree([]byte(input))
			assert.ErrorIs(t, err, ErrMalformedTree)
		})
	}
}
