package chat

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Reply templates for the turns that never reach the assistant.
const (
	greetingTemplate = "👋 Hi! I'm *%s*, your virtual assistant for everything sewing!\n\nSo our conversation can be more personal, what's your name? 😊"
	nameAckTemplate  = "Nice to meet you, *%s*! 😊\n\nNow, how can I help you with sewing, pattern making, or your atelier?"

	fallbackReply    = "I'm sorry, I'm having some technical difficulties right now. Could you rephrase your sewing question?"
	rateLimitedReply = "I'm processing a lot of requests at the moment. Could you repeat your sewing question?"
)

// Service orchestrates one conversation turn: it decides between the
// greeting, name capture and assistant delegation, and keeps the session's
// history bounded.
type Service struct {
	store      SessionStore
	assistant  Assistant
	botName    string
	maxHistory int
	timeout    time.Duration
	logger     *zap.Logger
}

// NewService creates a new conversation service
func NewService(store SessionStore, assistant Assistant, botName string, maxHistory int, timeout time.Duration, logger *zap.Logger) *Service {
	return &Service{
		store:      store,
		assistant:  assistant,
		botName:    botName,
		maxHistory: maxHistory,
		timeout:    timeout,
		logger:     logger,
	}
}

// TurnResult is the outcome of one completed conversation turn
type TurnResult struct {
	Text     string
	UserName string
}

// Respond handles one inbound message for an existing session. Unknown
// session ids fail with a not-found error; collaborator failures are
// converted to fixed fallback replies and never propagate.
func (s *Service) Respond(ctx context.Context, sessionID, message string) (*TurnResult, error) {
	session, err := s.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	session.Lock()
	session.MessageCount++

	switch session.State() {
	case StateGreeting:
		// First message ever: introduce the bot and ask for a name.
		// History stays untouched.
		session.Unlock()
		return &TurnResult{Text: fmt.Sprintf(greetingTemplate, s.botName)}, nil

	case StateAwaitingName:
		if LooksLikeName(message) {
			session.UserName = ExtractName(message)
			name := session.UserName
			session.Unlock()

			s.logger.Info("Captured visitor name",
				zap.String("session_id", sessionID),
				zap.String("user_name", name))
			return &TurnResult{Text: fmt.Sprintf(nameAckTemplate, name), UserName: name}, nil
		}
		// Not a name: fall through to the assistant like any other message.

	case StateEngaged:
		// UserName is set and is never overwritten, whatever the message says.
	}

	// Snapshot under the lock, release it for the network call. A sibling
	// request arriving during the call sees pre-update state; last writer wins.
	userName := session.UserName
	history := append([]Message(nil), session.History...)
	session.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.assistant.Generate(callCtx, message, userName, history)
	if err != nil {
		s.logger.Error("Assistant call failed",
			zap.String("session_id", sessionID),
			zap.Error(err))

		// The failed exchange is not persisted.
		if IsRateLimited(err) {
			return &TurnResult{Text: rateLimitedReply, UserName: userName}, nil
		}
		return &TurnResult{Text: fallbackReply, UserName: userName}, nil
	}

	session.Lock()
	session.History = append(session.History,
		Message{Role: RoleUser, Content: message},
		Message{Role: RoleAssistant, Content: reply},
	)
	if excess := len(session.History) - s.maxHistory; excess > 0 {
		if excess%2 != 0 {
			excess++ // trim whole exchanges only
		}
		session.History = append([]Message(nil), session.History[excess:]...)
	}
	userName = session.UserName
	session.Unlock()

	return &TurnResult{Text: reply, UserName: userName}, nil
}
