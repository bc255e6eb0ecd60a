package frames

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanBuckets(t *testing.T) {
	tests := []struct {
		name            string
		durationSeconds float64
		intervalMs      int
		maxFrames       int
	}{
		{"short clip", 12, 1000, 30},
		{"30s boundary", 30, 1000, 30},
		{"medium", 120, 2000, 150},
		{"5min boundary", 300, 2000, 150},
		{"long", 900, 5000, 360},
		{"30min boundary", 1800, 5000, 360},
		{"feature length", 5400, 10000, 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			interval, max := Plan(tt.durationSeconds)
			assert.Equal(t, tt.intervalMs, interval)
			assert.Equal(t, tt.maxFrames, max)
		})
	}
}

func TestFileSHA256(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	digest, err := FileSHA256(path)
	require.NoError(t, err)
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", digest)
}

func TestFileSHA256Missing(t *testing.T) {
	_, err := FileSHA256(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestLastLine(t *testing.T) {
	assert.Equal(t, "third", lastLine("first\nsecond\nthird\n"))
	assert.Equal(t, "only", lastLine("only"))
	assert.Equal(t, "", lastLine(""))
}
