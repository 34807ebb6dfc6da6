package chat

import (
	"context"
	"time"
)

// SessionStore defines the interface for session storage operations
type SessionStore interface {
	// GetOrCreate returns the session for id, or a fresh session under a
	// previously unused identifier when id is empty or unknown.
	GetOrCreate(id string) (*Session, bool)
	// Get returns the session for id, or a not-found error. Callers treat
	// the error as a client fault, never a server one.
	Get(id string) (*Session, error)
	// Delete removes a session; removing an absent id is not an error.
	Delete(id string)
	// SweepExpired removes every session strictly older than maxAge.
	SweepExpired(maxAge time.Duration) int
	// Len reports the number of live sessions.
	Len() int
}

// Assistant is the external text-generation collaborator
type Assistant interface {
	Generate(ctx context.Context, message, userName string, history []Message) (string, error)
}

// Transcriber converts recorded audio into text
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Synthesizer converts reply text into a playable audio resource and
// returns the file name under the audio directory
type Synthesizer interface {
	Synthesize(text string) (string, error)
}
