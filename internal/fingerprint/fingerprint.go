// Package fingerprint orchestrates perceptual hashing of sampled video
// frames into a PerceptualHashData bundle: whole-video summary hashes
// computed on the median frame plus per-frame hash pairs for finer-grained
// comparison.
package fingerprint

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"sync"

	"github.com/veristamp/veristamp/internal/imagehash"
)

// ErrNoFrames is returned when fingerprinting is attempted with an empty
// frame list.
var ErrNoFrames = errors.New("fingerprint: no sampled frames")

// SampledFrame is one extracted still, as supplied by the frame-sampling
// collaborator.
type SampledFrame struct {
	TimestampMs int
	ImagePath   string
}

// FrameHash is the per-frame hash pair kept for frame-local comparisons.
type FrameHash struct {
	TimestampMs int    `json:"timestamp"`
	PHash       string `json:"phash"`
	DHash       string `json:"dhash"`
}

// PerceptualHashData is the fingerprint bundle for one video. The summary
// hashes come from the frame nearest the temporal median of the sample.
type PerceptualHashData struct {
	PHash          string      `json:"phash"`
	DHash          string      `json:"dhash"`
	AHash          string      `json:"ahash"`
	FrameHashes    []FrameHash `json:"frameHashes"`
	ColorHistogram []float64   `json:"colorHistogram"`
}

// Engine hashes sampled frames on a bounded worker pool. Frames are
// independent, so workers share no state; a single frame failure fails the
// whole run rather than producing a partial bundle.
type Engine struct {
	workers int
}

func NewEngine(workers int) *Engine {
	if workers <= 0 {
		workers = 4
	}
	return &Engine{workers: workers}
}

// Fingerprint computes the bundle for one video's sampled frames.
func (e *Engine) Fingerprint(ctx context.Context, videoID string, frames []SampledFrame) (*PerceptualHashData, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}

	median := len(frames) / 2
	img, err := loadImage(frames[median].ImagePath)
	if err != nil {
		return nil, fmt.Errorf("load median frame %d: %w", median, err)
	}
	data := &PerceptualHashData{
		PHash:          imagehash.PerceptualHash(img),
		DHash:          imagehash.DifferenceHash(img),
		AHash:          imagehash.AverageHash(img),
		ColorHistogram: imagehash.ColorHistogram(img),
		FrameHashes:    make([]FrameHash, len(frames)),
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	work := make(chan int)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				frame := frames[i]
				img, err := loadImage(frame.ImagePath)
				if err != nil {
					fail(fmt.Errorf("frame %d (%dms): %w", i, frame.TimestampMs, err))
					continue
				}
				// Each worker writes a distinct index; no lock needed.
				data.FrameHashes[i] = FrameHash{
					TimestampMs: frame.TimestampMs,
					PHash:       imagehash.PerceptualHash(img),
					DHash:       imagehash.DifferenceHash(img),
				}
			}
		}()
	}

feed:
	for i := range frames {
		select {
		case <-ctx.Done():
			break feed
		case work <- i:
		}
	}
	close(work)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log.Printf("Fingerprint: hashed %d frames for video %s", len(frames), videoID)
	return data, nil
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}
