package chat

import (
	"sync"
	"time"
)

// Role identifies who produced a history entry
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry in a session's conversation history
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ConversationState is the explicit per-turn state of a session
type ConversationState int

const (
	// StateGreeting: very first message of the session, name still unknown
	StateGreeting ConversationState = iota
	// StateAwaitingName: past the greeting but the visitor hasn't given a name
	StateAwaitingName
	// StateEngaged: name known, normal assistant-backed Q&A
	StateEngaged
)

func (s ConversationState) String() string {
	switch s {
	case StateGreeting:
		return "greeting"
	case StateAwaitingName:
		return "awaiting_name"
	case StateEngaged:
		return "engaged"
	default:
		return "unknown"
	}
}

// Session holds one visitor's conversation state for the lifetime of the process
type Session struct {
	ID           string
	UserName     string
	History      []Message
	MessageCount int
	CreatedAt    time.Time

	// serializes read-modify-write turns on this session. The store map has
	// its own lock; this one is per session so unrelated sessions never wait
	// on each other.
	mu sync.Mutex
}

// Lock acquires the per-session turn lock
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the per-session turn lock
func (s *Session) Unlock() { s.mu.Unlock() }

// State derives the conversation state from the counters. MessageCount must
// already include the message being handled.
func (s *Session) State() ConversationState {
	switch {
	case s.UserName != "":
		return StateEngaged
	case s.MessageCount <= 1:
		return StateGreeting
	default:
		return StateAwaitingName
	}
}

// SessionInfo is the response for the session endpoint
type SessionInfo struct {
	SessionID      string `json:"sessionId"`
	BotName        string `json:"botName"`
	WelcomeMessage string `json:"welcomeMessage"`
}

// ChatRequest is the inbound body for the chat endpoint
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

// ChatResponse is the reply for a completed chat turn
type ChatResponse struct {
	Text      string `json:"text"`
	UserName  string `json:"userName,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// ClearSessionRequest is the inbound body for the clear-session endpoint
type ClearSessionRequest struct {
	SessionID string `json:"sessionId"`
}
