package jobs

import (
	"github.com/veristamp/veristamp/internal/config"
	"github.com/veristamp/veristamp/internal/duplicate"
	"github.com/veristamp/veristamp/internal/fingerprint"
	"github.com/veristamp/veristamp/internal/frames"
	"github.com/veristamp/veristamp/internal/repository"
)

// ──────── Payloads ────────

type FingerprintPayload struct {
	VideoID     string `json:"video_id"`
	VideoPath   string `json:"video_path"`
	CreatorName string `json:"creator_name,omitempty"`
}

type SweepPayload struct {
	Requested string `json:"requested,omitempty"` // manual|schedule
}

// ──────── Register all handlers ────────

func RegisterHandlers(q *Queue, cfg *config.Config, repo *repository.VerificationRepository,
	engine *fingerprint.Engine, sampler *frames.Sampler, detector *duplicate.Detector) {

	q.RegisterHandler(TaskFingerprintVideo, NewFingerprintHandler(repo, engine, sampler, detector))
	q.RegisterHandler(TaskDuplicatesSweep, NewSweepHandler(repo, cfg.Thresholds))
}
