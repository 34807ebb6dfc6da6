package audio

import (
	"bytes"
	"context"
	"errors"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	"go.uber.org/zap"

	"github.com/charlene/charlene/internal/chat"
)

// AssemblyAI implements chat.Transcriber using the hosted AssemblyAI service.
// The SDK handles the upload/submit/poll cycle; the transcribed text re-enters
// the system as an ordinary chat message.
type AssemblyAI struct {
	client   *aai.Client
	language string
	logger   *zap.Logger
}

// NewAssemblyAI creates a new transcriber
func NewAssemblyAI(apiKey, language string, logger *zap.Logger) *AssemblyAI {
	return &AssemblyAI{
		client:   aai.NewClient(apiKey),
		language: language,
		logger:   logger,
	}
}

// Transcribe converts recorded audio into text
func (t *AssemblyAI) Transcribe(ctx context.Context, audio []byte) (string, error) {
	params := &aai.TranscriptOptionalParams{}
	if t.language != "" {
		params.LanguageCode = aai.TranscriptLanguageCode(t.language)
	}

	transcript, err := t.client.Transcripts.TranscribeFromReader(ctx, bytes.NewReader(audio), params)
	if err != nil {
		return "", chat.NewUpstreamError("", err)
	}

	if transcript.Text == nil || *transcript.Text == "" {
		return "", chat.NewUpstreamError("", errors.New("transcription produced no text"))
	}

	t.logger.Debug("Transcribed audio",
		zap.Int("audio_bytes", len(audio)),
		zap.Int("text_length", len(*transcript.Text)))

	return *transcript.Text, nil
}
