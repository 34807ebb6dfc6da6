package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedAssistant is a chat.Assistant double that records its calls and
// replies with either a scripted error or "reply to <message>".
type scriptedAssistant struct {
	err          error
	calls        int
	lastUserName string
	lastHistory  []Message
}

func (a *scriptedAssistant) Generate(_ context.Context, message, userName string, history []Message) (string, error) {
	a.calls++
	a.lastUserName = userName
	a.lastHistory = append([]Message(nil), history...)
	if a.err != nil {
		return "", a.err
	}
	return "reply to " + message, nil
}

func newTestService(a *scriptedAssistant) (*Service, *InMemoryStore, *Session) {
	store := NewInMemoryStore(zap.NewNop())
	session, _ := store.GetOrCreate("")
	svc := NewService(store, a, "Charlene", 16, time.Second, zap.NewNop())
	return svc, store, session
}

func TestRespondGreetsOnFirstMessage(t *testing.T) {
	a := &scriptedAssistant{}
	svc, _, session := newTestService(a)

	result, err := svc.Respond(context.Background(), session.ID, "hello")
	require.NoError(t, err)

	assert.Contains(t, result.Text, "Charlene")
	assert.Empty(t, result.UserName)
	assert.Equal(t, 0, a.calls, "greeting must not reach the assistant")
	assert.Empty(t, session.History, "greeting must not touch history")
	assert.Empty(t, session.UserName)
	assert.Equal(t, 1, session.MessageCount)
}

func TestRespondGreetsEvenWhenFirstMessageLooksLikeName(t *testing.T) {
	a := &scriptedAssistant{}
	svc, _, session := newTestService(a)

	result, err := svc.Respond(context.Background(), session.ID, "Maria")
	require.NoError(t, err)

	// message one is always the greeting; the name is asked for, not taken
	assert.Contains(t, result.Text, "Charlene")
	assert.Empty(t, session.UserName)
	assert.Equal(t, 0, a.calls)
}

func TestRespondUnknownSession(t *testing.T) {
	a := &scriptedAssistant{}
	svc, _, _ := newTestService(a)

	_, err := svc.Respond(context.Background(), "session_unknown", "hello")
	require.Error(t, err)
	assert.True(t, IsSessionNotFound(err))
	assert.Equal(t, 0, a.calls)
}

func TestRespondCapturesBareWordName(t *testing.T) {
	a := &scriptedAssistant{}
	svc, _, session := newTestService(a)

	_, err := svc.Respond(context.Background(), session.ID, "hello")
	require.NoError(t, err)

	result, err := svc.Respond(context.Background(), session.ID, "Maria")
	require.NoError(t, err)

	assert.Equal(t, "Maria", session.UserName)
	assert.Equal(t, "Maria", result.UserName)
	assert.Contains(t, result.Text, "Maria")
	assert.Equal(t, 0, a.calls, "name capture must not reach the assistant")
	assert.Empty(t, session.History, "name capture must not touch history")
}

func TestRespondCapturesIntroducedName(t *testing.T) {
	a := &scriptedAssistant{}
	svc, _, session := newTestService(a)

	_, err := svc.Respond(context.Background(), session.ID, "hi there")
	require.NoError(t, err)

	result, err := svc.Respond(context.Background(), session.ID, "my name is Bianca")
	require.NoError(t, err)

	assert.Equal(t, "Bianca", session.UserName)
	assert.Contains(t, result.Text, "Bianca")
	assert.Equal(t, 0, a.calls)
}

func TestRespondDelegatesWhenSecondMessageIsNotAName(t *testing.T) {
	a := &scriptedAssistant{}
	svc, _, session := newTestService(a)

	_, err := svc.Respond(context.Background(), session.ID, "hello")
	require.NoError(t, err)

	result, err := svc.Respond(context.Background(), session.ID, "how do you hem linen trousers?")
	require.NoError(t, err)

	assert.Equal(t, 1, a.calls)
	assert.Empty(t, a.lastUserName)
	assert.Equal(t, "reply to how do you hem linen trousers?", result.Text)
	require.Len(t, session.History, 2)
	assert.Equal(t, RoleUser, session.History[0].Role)
	assert.Equal(t, RoleAssistant, session.History[1].Role)
}

func TestRespondNeverOverwritesName(t *testing.T) {
	a := &scriptedAssistant{}
	svc, _, session := newTestService(a)

	_, err := svc.Respond(context.Background(), session.ID, "hello")
	require.NoError(t, err)
	_, err = svc.Respond(context.Background(), session.ID, "Maria")
	require.NoError(t, err)

	_, err = svc.Respond(context.Background(), session.ID, "call me Bob")
	require.NoError(t, err)

	assert.Equal(t, "Maria", session.UserName)
	assert.Equal(t, 1, a.calls, "engaged message goes to the assistant")
	assert.Equal(t, "Maria", a.lastUserName)
}

func TestRespondFallbackOnAssistantFailure(t *testing.T) {
	a := &scriptedAssistant{}
	svc, _, session := newTestService(a)

	_, err := svc.Respond(context.Background(), session.ID, "hello")
	require.NoError(t, err)
	_, err = svc.Respond(context.Background(), session.ID, "Maria")
	require.NoError(t, err)

	_, err = svc.Respond(context.Background(), session.ID, "what thread for denim?")
	require.NoError(t, err)
	require.Len(t, session.History, 2)

	a.err = NewUpstreamError("", errors.New("connection reset"))
	result, err := svc.Respond(context.Background(), session.ID, "and for silk?")
	require.NoError(t, err)

	assert.Equal(t, fallbackReply, result.Text)
	assert.Len(t, session.History, 2, "failed exchange must not be persisted")
}

func TestRespondRateLimitedReply(t *testing.T) {
	a := &scriptedAssistant{err: NewRateLimitedError("", errors.New("429"))}
	svc, _, session := newTestService(a)

	_, err := svc.Respond(context.Background(), session.ID, "hello")
	require.NoError(t, err)
	_, err = svc.Respond(context.Background(), session.ID, "Maria")
	require.NoError(t, err)

	result, err := svc.Respond(context.Background(), session.ID, "how do I price a dress?")
	require.NoError(t, err)

	assert.Equal(t, rateLimitedReply, result.Text)
	assert.NotEqual(t, fallbackReply, result.Text)
	assert.Empty(t, session.History)
}

func TestRespondTrimsHistoryToRecentExchanges(t *testing.T) {
	a := &scriptedAssistant{}
	svc, _, session := newTestService(a)

	_, err := svc.Respond(context.Background(), session.ID, "hello")
	require.NoError(t, err)
	_, err = svc.Respond(context.Background(), session.ID, "Maria")
	require.NoError(t, err)

	for i := 1; i <= 10; i++ {
		_, err = svc.Respond(context.Background(), session.ID, fmt.Sprintf("question %d", i))
		require.NoError(t, err)

		assert.LessOrEqual(t, len(session.History), 16)
		assert.Zero(t, len(session.History)%2, "history must stay in user/assistant pairs")
	}

	// only the most recent 8 exchanges survive, oldest dropped first
	require.Len(t, session.History, 16)
	assert.Equal(t, Message{Role: RoleUser, Content: "question 3"}, session.History[0])
	assert.Equal(t, Message{Role: RoleAssistant, Content: "reply to question 3"}, session.History[1])
	assert.Equal(t, Message{Role: RoleUser, Content: "question 10"}, session.History[14])
	assert.Equal(t, Message{Role: RoleAssistant, Content: "reply to question 10"}, session.History[15])
}

func TestRespondPassesBoundedHistoryToAssistant(t *testing.T) {
	a := &scriptedAssistant{}
	svc, _, session := newTestService(a)

	_, err := svc.Respond(context.Background(), session.ID, "hello")
	require.NoError(t, err)
	_, err = svc.Respond(context.Background(), session.ID, "Maria")
	require.NoError(t, err)

	_, err = svc.Respond(context.Background(), session.ID, "first question")
	require.NoError(t, err)
	assert.Empty(t, a.lastHistory, "first delegated turn sees no history")

	_, err = svc.Respond(context.Background(), session.ID, "second question")
	require.NoError(t, err)
	require.Len(t, a.lastHistory, 2)
	assert.Equal(t, "first question", a.lastHistory[0].Content)
}

func TestSessionStateTransitions(t *testing.T) {
	session := &Session{}

	session.MessageCount = 1
	assert.Equal(t, StateGreeting, session.State())

	session.MessageCount = 2
	assert.Equal(t, StateAwaitingName, session.State())

	session.UserName = "Maria"
	assert.Equal(t, StateEngaged, session.State())

	// a set name wins even on a hypothetical first message
	session.MessageCount = 1
	assert.Equal(t, StateEngaged, session.State())
}
