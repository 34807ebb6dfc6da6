package audio

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewSynthesizerCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "audio")

	_, err := NewSynthesizer(dir, "en", 300, zap.NewNop())
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCleanupOldRemovesOnlyStaleFiles(t *testing.T) {
	dir := t.TempDir()

	synth, err := NewSynthesizer(dir, "en", 300, zap.NewNop())
	require.NoError(t, err)

	stale := filepath.Join(dir, "response_1.mp3")
	require.NoError(t, os.WriteFile(stale, []byte("mp3"), 0o644))
	old := time.Now().Add(-10 * time.Minute)
	require.NoError(t, os.Chtimes(stale, old, old))

	fresh := filepath.Join(dir, "response_2.mp3")
	require.NoError(t, os.WriteFile(fresh, []byte("mp3"), 0o644))

	removed := synth.CleanupOld(5 * time.Minute)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(fresh)
	assert.NoError(t, err)
}
