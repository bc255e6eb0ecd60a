// Package frames is the frame-sampling adapter: it probes a video's
// duration, extracts stills at a duration-bucketed interval into a scratch
// directory and hands the engine an ordered list of sampled frames. The
// hashing core never decodes video itself.
package frames

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"

	"github.com/veristamp/veristamp/internal/fingerprint"
)

const extractTimeout = 5 * time.Minute

// Sampler shells out to ffmpeg/ffprobe, the same way the rest of the
// system drives media tooling.
type Sampler struct {
	ffmpegPath  string
	ffprobePath string
	tempDir     string
}

func NewSampler(ffmpegPath, ffprobePath, tempDir string) *Sampler {
	return &Sampler{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath, tempDir: tempDir}
}

// Sample is the extracted frame set plus the sampling parameters the tree
// builder records. Cleanup releases the scratch directory and is safe to
// call more than once; callers must invoke it on every exit path.
type Sample struct {
	Frames          []fingerprint.SampledFrame
	DurationMs      int
	FrameIntervalMs int
	Cleanup         func()
}

// Plan returns the sampling interval and frame cap for a video duration,
// bucketed so short clips sample densely and long ones stay bounded.
func Plan(durationSeconds float64) (intervalMs, maxFrames int) {
	switch {
	case durationSeconds <= 30:
		return 1000, 30
	case durationSeconds <= 300:
		return 2000, 150
	case durationSeconds <= 1800:
		return 5000, 360
	default:
		return 10000, 500
	}
}

// Extract probes the video, extracts frames at the planned interval and
// returns them in capture-time order. The scratch directory is removed on
// every failure path before returning; on success the caller owns it via
// Cleanup.
func (s *Sampler) Extract(ctx context.Context, videoPath string) (*Sample, error) {
	durationSeconds, err := s.probeDuration(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("probe duration: %w", err)
	}
	intervalMs, maxFrames := Plan(durationSeconds)

	dir, err := os.MkdirTemp(s.tempDir, "frames-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Printf("Frames: scratch cleanup failed for %s: %v", dir, err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, extractTimeout)
	defer cancel()

	fps := 1000.0 / float64(intervalMs)
	cmd := exec.CommandContext(ctx, s.ffmpegPath,
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=%g,scale=320:-1", fps),
		"-frames:v", fmt.Sprintf("%d", maxFrames),
		"-y",
		filepath.Join(dir, "frame-%05d.jpg"),
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		cleanup()
		log.Printf("Frames: extraction failed: %s", lastLine(string(output)))
		return nil, fmt.Errorf("extract frames: %w", err)
	}

	paths, err := filepath.Glob(filepath.Join(dir, "frame-*.jpg"))
	if err != nil || len(paths) == 0 {
		cleanup()
		return nil, fmt.Errorf("no frames extracted from %s", videoPath)
	}
	sort.Strings(paths)

	sample := &Sample{
		DurationMs:      int(durationSeconds * 1000),
		FrameIntervalMs: intervalMs,
		Cleanup:         cleanup,
		Frames:          make([]fingerprint.SampledFrame, len(paths)),
	}
	for i, p := range paths {
		sample.Frames[i] = fingerprint.SampledFrame{
			TimestampMs: i * intervalMs,
			ImagePath:   p,
		}
	}
	return sample, nil
}

func lastLine(s string) string {
	lines := []byte(s)
	end := len(lines)
	for end > 0 && (lines[end-1] == '\n' || lines[end-1] == '\r') {
		end--
	}
	start := end
	for start > 0 && lines[start-1] != '\n' {
		start--
	}
	return string(lines[start:end])
}
