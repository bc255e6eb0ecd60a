package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/veristamp/veristamp/internal/config"
	"github.com/veristamp/veristamp/internal/db"
	"github.com/veristamp/veristamp/internal/duplicate"
	"github.com/veristamp/veristamp/internal/fingerprint"
	"github.com/veristamp/veristamp/internal/frames"
	"github.com/veristamp/veristamp/internal/jobs"
	"github.com/veristamp/veristamp/internal/repository"
	"github.com/veristamp/veristamp/internal/scheduler"
	"github.com/veristamp/veristamp/internal/watcher"
)

const version = "0.3.0"

func main() {
	log.Printf("VeriStamp worker %s starting...", version)

	cfg := config.Load()

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer database.Close()

	if err := db.Migrate(database, "migrations"); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	repo := repository.NewVerificationRepository(database.DB)
	engine := fingerprint.NewEngine(cfg.HashWorkers)
	sampler := frames.NewSampler(cfg.FFmpegPath, cfg.FFprobePath, cfg.TempDir)
	detector := duplicate.NewDetector(cfg.Thresholds)

	queue := jobs.NewQueue(cfg.RedisAddr, cfg.Concurrency)
	jobs.RegisterHandlers(queue, cfg, repo, engine, sampler, detector)

	if err := queue.Start(context.Background()); err != nil {
		log.Fatalf("queue start failed: %v", err)
	}

	inbox, err := watcher.New(cfg.InboxDir, func(path string) {
		videoID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		payload := jobs.FingerprintPayload{VideoID: videoID, VideoPath: path}
		if _, err := queue.EnqueueUnique(jobs.TaskFingerprintVideo, payload, "fingerprint:"+videoID); err != nil {
			log.Printf("enqueue fingerprint for %s failed: %v", path, err)
		}
	})
	if err != nil {
		log.Fatalf("watcher init failed: %v", err)
	}
	if err := inbox.Start(); err != nil {
		log.Fatalf("watcher start failed: %v", err)
	}

	sweeps := scheduler.New(cfg.SweepSchedule, func() {
		if _, err := queue.EnqueueUnique(jobs.TaskDuplicatesSweep, jobs.SweepPayload{Requested: "schedule"}, "sweep"); err != nil {
			log.Printf("enqueue sweep failed: %v", err)
		}
	})
	if err := sweeps.Start(); err != nil {
		log.Fatalf("scheduler start failed: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	sweeps.Stop()
	inbox.Stop()
	queue.Stop()
}
