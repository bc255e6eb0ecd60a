package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/veristamp/veristamp/internal/duplicate"
	"github.com/veristamp/veristamp/internal/fingerprint"
	"github.com/veristamp/veristamp/internal/frames"
	"github.com/veristamp/veristamp/internal/merkle"
	"github.com/veristamp/veristamp/internal/repository"
)

// FingerprintHandler runs the full pipeline for one video: sample frames,
// hash them, build the merkle tree, persist the verification and check the
// corpus for duplicates.
type FingerprintHandler struct {
	repo     *repository.VerificationRepository
	engine   *fingerprint.Engine
	sampler  *frames.Sampler
	detector *duplicate.Detector
}

func NewFingerprintHandler(repo *repository.VerificationRepository, engine *fingerprint.Engine,
	sampler *frames.Sampler, detector *duplicate.Detector) *FingerprintHandler {
	return &FingerprintHandler{repo: repo, engine: engine, sampler: sampler, detector: detector}
}

func (h *FingerprintHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p FingerprintPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	log.Printf("Fingerprint: processing video %s (%s)", p.VideoID, p.VideoPath)

	sample, err := h.sampler.Extract(ctx, p.VideoPath)
	if err != nil {
		return fmt.Errorf("sample frames: %w", err)
	}
	defer sample.Cleanup()

	data, err := h.engine.Fingerprint(ctx, p.VideoID, sample.Frames)
	if err != nil {
		return fmt.Errorf("fingerprint: %w", err)
	}

	leaves := make([]merkle.Leaf, len(sample.Frames))
	for i, frame := range sample.Frames {
		hash, err := frames.FileSHA256(frame.ImagePath)
		if err != nil {
			return fmt.Errorf("hash frame %d: %w", i, err)
		}
		leaves[i] = merkle.Leaf{Hash: hash, TimestampMs: frame.TimestampMs}
	}
	tree, err := merkle.BuildTree(leaves, sample.FrameIntervalMs, sample.DurationMs)
	if err != nil {
		return fmt.Errorf("build tree: %w", err)
	}
	encoded, err := merkle.EncodeTree(tree)
	if err != nil {
		return fmt.Errorf("encode tree: %w", err)
	}

	digest, err := frames.FileSHA256(p.VideoPath)
	if err != nil {
		return fmt.Errorf("hash video: %w", err)
	}

	corpus, err := h.repo.ListCorpus()
	if err != nil {
		return fmt.Errorf("list corpus: %w", err)
	}
	result := h.detector.Check(duplicate.Submission{
		SHA256Hash: digest,
		PHash:      data.PHash,
		DHash:      data.DHash,
	}, corpus)

	status := "clean"
	if result.IsDuplicate {
		status = "potential"
		log.Printf("Fingerprint: video %s flagged %s against %s (confidence %.3f)",
			p.VideoID, result.Recommendation, result.OriginalVideoID, result.Confidence)
	}

	v := &repository.Verification{
		VideoID:         p.VideoID,
		FilePath:        p.VideoPath,
		SHA256Hash:      digest,
		PHash:           data.PHash,
		DHash:           data.DHash,
		AHash:           data.AHash,
		CreatorName:     p.CreatorName,
		MerkleTree:      encoded,
		RootHash:        tree.RootHash,
		TotalFrames:     tree.TotalFrames,
		FrameIntervalMs: tree.FrameIntervalMs,
		DurationMs:      tree.DurationMs,
		DuplicateStatus: status,
	}
	if err := h.repo.Create(v); err != nil {
		return fmt.Errorf("save verification: %w", err)
	}
	if err := h.repo.RecordDuplicateCheck(v.ID, result); err != nil {
		log.Printf("Fingerprint: failed to record duplicate check for %s: %v", v.ID, err)
	}

	log.Printf("Fingerprint: video %s verified, root=%s frames=%d recommendation=%s",
		p.VideoID, tree.RootHash, tree.TotalFrames, result.Recommendation)
	return nil
}
