package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/veristamp/veristamp/internal/duplicate"
	"github.com/veristamp/veristamp/internal/imagehash"
	"github.com/veristamp/veristamp/internal/repository"
)

// SweepHandler re-scans the whole corpus pairwise and flags verifications
// whose perceptual hashes fall inside the warn threshold. Runs off-peak on
// a schedule; new submissions are checked inline by the fingerprint task.
type SweepHandler struct {
	repo       *repository.VerificationRepository
	thresholds duplicate.Thresholds
}

func NewSweepHandler(repo *repository.VerificationRepository, thresholds duplicate.Thresholds) *SweepHandler {
	return &SweepHandler{repo: repo, thresholds: thresholds}
}

func (h *SweepHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p SweepPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	corpus, err := h.repo.ListCorpus()
	if err != nil {
		return fmt.Errorf("list corpus: %w", err)
	}
	log.Printf("Sweep: comparing %d verifications pairwise", len(corpus))

	pairs := 0
	skippedLen := 0
	flagged := 0
	for i := 0; i < len(corpus); i++ {
		if err := ctx.Err(); err != nil {
			log.Printf("Sweep: cancelled after %d comparisons", pairs)
			return err
		}
		for j := i + 1; j < len(corpus); j++ {
			if corpus[i].PHash == "" || corpus[j].PHash == "" {
				continue
			}
			dist, err := imagehash.HammingDistance(corpus[i].PHash, corpus[j].PHash)
			if err != nil {
				skippedLen++
				continue
			}
			pairs++
			if dist > h.thresholds.Warn {
				continue
			}
			flagged++
			log.Printf("Sweep: near-duplicate pair dist=%d: %s <-> %s", dist, corpus[i].VideoID, corpus[j].VideoID)
			for _, entry := range []duplicate.CorpusEntry{corpus[i], corpus[j]} {
				id, err := uuid.Parse(entry.VerificationID)
				if err != nil {
					continue
				}
				if err := h.repo.UpdateDuplicateStatus(id, "potential"); err != nil {
					log.Printf("Sweep: failed to flag %s: %v", entry.VerificationID, err)
				}
			}
		}
	}

	log.Printf("Sweep: %d comparisons, %d skipped (hash length mismatch), %d pairs flagged", pairs, skippedLen, flagged)
	return nil
}
