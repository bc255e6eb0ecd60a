package config

import (
	"os"

	"github.com/spf13/cast"

	"github.com/veristamp/veristamp/internal/duplicate"
)

type Config struct {
	DatabaseURL   string
	RedisAddr     string
	InboxDir      string
	TempDir       string
	FFmpegPath    string
	FFprobePath   string
	HashWorkers   int
	Concurrency   int
	SweepSchedule string
	Thresholds    duplicate.Thresholds
}

func Load() *Config {
	defaults := duplicate.DefaultThresholds()
	return &Config{
		DatabaseURL:   env("DATABASE_URL", "postgres://veristamp:veristamp@db:5432/veristamp?sslmode=disable"),
		RedisAddr:     env("REDIS_ADDR", "redis:6379"),
		InboxDir:      env("INBOX_DIR", "/data/inbox"),
		TempDir:       env("TEMP_DIR", os.TempDir()),
		FFmpegPath:    env("FFMPEG_PATH", "ffmpeg"),
		FFprobePath:   env("FFPROBE_PATH", "ffprobe"),
		HashWorkers:   envInt("HASH_WORKERS", 4),
		Concurrency:   envInt("JOB_CONCURRENCY", 2),
		SweepSchedule: env("SWEEP_SCHEDULE", "0 3 * * *"),
		Thresholds: duplicate.Thresholds{
			Block:         envInt("DUPLICATE_BLOCK_THRESHOLD", defaults.Block),
			Warn:          envInt("DUPLICATE_WARN_THRESHOLD", defaults.Warn),
			LowSimilarity: envInt("DUPLICATE_LOW_SIMILARITY_THRESHOLD", defaults.LowSimilarity),
		},
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		return cast.ToInt(v)
	}
	return fallback
}
