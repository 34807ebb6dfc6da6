package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	htgotts "github.com/hegedustibor/htgo-tts"
	"go.uber.org/zap"

	"github.com/charlene/charlene/internal/chat"
)

// Synthesizer implements chat.Synthesizer by rendering reply text to mp3
// files under a local audio directory. Files are short-lived; CleanupOld
// removes anything older than the configured TTL.
type Synthesizer struct {
	dir           string
	language      string
	maxTextLength int
	logger        *zap.Logger
}

// NewSynthesizer creates a new synthesizer and ensures the audio directory exists
func NewSynthesizer(dir, language string, maxTextLength int, logger *zap.Logger) (*Synthesizer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audio directory: %w", err)
	}

	return &Synthesizer{
		dir:           dir,
		language:      language,
		maxTextLength: maxTextLength,
		logger:        logger,
	}, nil
}

// Dir returns the directory synthesized files are written to
func (s *Synthesizer) Dir() string {
	return s.dir
}

// Synthesize renders text to an mp3 file and returns its file name. Long
// replies are cut to the configured length so generation stays fast.
func (s *Synthesizer) Synthesize(text string) (string, error) {
	if s.maxTextLength > 0 {
		if runes := []rune(text); len(runes) > s.maxTextLength {
			text = string(runes[:s.maxTextLength]) + "..."
		}
	}

	speech := htgotts.Speech{Folder: s.dir, Language: s.language}
	id := fmt.Sprintf("response_%d", time.Now().UnixNano())

	path, err := speech.CreateSpeechFile(text, id)
	if err != nil {
		return "", chat.NewUpstreamError("", err)
	}

	return filepath.Base(path), nil
}

// CleanupOld removes synthesized files older than ttl and returns how many
// were deleted
func (s *Synthesizer) CleanupOld(ttl time.Duration) int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("Failed to read audio directory", zap.Error(err))
		return 0
	}

	now := time.Now()
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if now.Sub(info.ModTime()) > ttl {
			if err := os.Remove(filepath.Join(s.dir, entry.Name())); err == nil {
				removed++
			}
		}
	}

	if removed > 0 {
		s.logger.Debug("Cleaned up audio files", zap.Int("removed", removed))
	}

	return removed
}

// StartCleanup runs CleanupOld every interval until ctx is cancelled
func (s *Synthesizer) StartCleanup(ctx context.Context, interval, ttl time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.CleanupOld(ttl)
			}
		}
	}()
}
