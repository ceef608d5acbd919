package chat

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/youquery/backend/portfolio"
)

type fakeLLM struct {
	reply    string
	err      error
	received []llms.MessageContent
}

func (f *fakeLLM) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.received = messages
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.reply}},
	}, nil
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := f.GenerateContent(ctx, []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)}, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

type fakeHistory struct {
	turns     map[string][]*Message
	loadErr   error
	appendErr error
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{turns: map[string][]*Message{}}
}

func (f *fakeHistory) Load(_ context.Context, userID, conversationID string) ([]*Message, error) {
	return f.turns[userID+"/"+conversationID], f.loadErr
}

func (f *fakeHistory) Append(_ context.Context, userID, conversationID string, msgs ...*Message) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	key := userID + "/" + conversationID
	f.turns[key] = append(f.turns[key], msgs...)
	return nil
}

func promptFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "assistant.tmpl")
	content := "You are YouQuery AI.{{ if .Profile }} Talking to {{ .Profile.Name }}.{{ end }}"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestRelay(t *testing.T, llm llms.Model, history History, profile ProfileLoader) *Relay {
	t.Helper()
	r, err := NewRelay(llm, history, profile, promptFile(t))
	require.NoError(t, err)
	r.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return r
}

func TestSendFirstMessageTranscript(t *testing.T) {
	llm := &fakeLLM{reply: "hi!"}
	history := newFakeHistory()
	relay := newTestRelay(t, llm, history, nil)

	reply, err := relay.Send(context.Background(), "u1", "c1", "hello")

	require.NoError(t, err)
	assert.Equal(t, "hi!", reply.Text)

	// system prompt plus exactly the one user turn
	require.Len(t, llm.received, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, llm.received[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, llm.received[1].Role)

	turns := history.turns["u1/c1"]
	require.Len(t, turns, 2)
	assert.Equal(t, "user: hello", Transcript(turns[:1]))
}

func TestSendReplaysPriorTurnsInOrder(t *testing.T) {
	llm := &fakeLLM{reply: "third"}
	history := newFakeHistory()
	history.turns["u1/c1"] = []*Message{
		{Sender: SenderUser, Text: "first"},
		{Sender: SenderBot, Text: "second"},
	}
	relay := newTestRelay(t, llm, history, nil)

	_, err := relay.Send(context.Background(), "u1", "c1", "and now?")

	require.NoError(t, err)
	require.Len(t, llm.received, 4)
	assert.Equal(t, llms.ChatMessageTypeHuman, llm.received[1].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, llm.received[2].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, llm.received[3].Role)
}

func TestSendCompletionFailureWritesNothing(t *testing.T) {
	llm := &fakeLLM{err: errors.New("quota exceeded")}
	history := newFakeHistory()
	relay := newTestRelay(t, llm, history, nil)

	_, err := relay.Send(context.Background(), "u1", "c1", "hello")

	assert.Error(t, err)
	assert.Empty(t, history.turns, "no turn is recorded for a failed completion")
}

func TestSendPersistenceFailureStillReturnsReply(t *testing.T) {
	llm := &fakeLLM{reply: "hi!"}
	history := newFakeHistory()
	history.appendErr = errors.New("firestore down")
	relay := newTestRelay(t, llm, history, nil)

	reply, err := relay.Send(context.Background(), "u1", "c1", "hello")

	require.NoError(t, err)
	assert.Equal(t, "hi!", reply.Text)
}

func TestSendGeneratesConversationID(t *testing.T) {
	llm := &fakeLLM{reply: "hi!"}
	relay := newTestRelay(t, llm, newFakeHistory(), nil)

	reply, err := relay.Send(context.Background(), "u1", "", "hello")

	require.NoError(t, err)
	assert.NotEmpty(t, reply.ConversationID)
}

func TestSendWithoutHistoryDoesNotPersist(t *testing.T) {
	llm := &fakeLLM{reply: "hi!"}
	relay := newTestRelay(t, llm, nil, nil)

	reply, err := relay.Send(context.Background(), "u1", "c1", "hello")

	require.NoError(t, err)
	assert.Equal(t, "hi!", reply.Text)
}

type staticProfile struct {
	p *portfolio.Profile
}

func (s staticProfile) Profile(context.Context, string) (*portfolio.Profile, error) {
	return s.p, nil
}

func TestSendRendersProfileIntoSystemPrompt(t *testing.T) {
	llm := &fakeLLM{reply: "hi!"}
	relay := newTestRelay(t, llm, nil, staticProfile{&portfolio.Profile{Name: "Ada"}})

	_, err := relay.Send(context.Background(), "u1", "c1", "hello")

	require.NoError(t, err)
	require.NotEmpty(t, llm.received)
	system := llm.received[0].Parts[0].(llms.TextContent).Text
	assert.Contains(t, system, "Talking to Ada.")
}

func TestTranscript(t *testing.T) {
	msgs := []*Message{
		{Sender: SenderUser, Text: "hello"},
		{Sender: SenderBot, Text: "hi there"},
	}
	assert.Equal(t, "user: hello\nbot: hi there", Transcript(msgs))
	assert.Equal(t, "user: hello", Transcript(msgs[:1]))
	assert.Equal(t, "", Transcript(nil))
}

func TestFindConversation(t *testing.T) {
	tests := []struct {
		name          string
		conversations []*conversation
		id            string
		found         bool
	}{
		{
			name: "found",
			conversations: []*conversation{
				{ID: "c1", Messages: []*Message{{}, {}}},
				{ID: "c2", Messages: []*Message{{}}},
			},
			id:    "c1",
			found: true,
		},
		{
			name: "not found",
			conversations: []*conversation{
				{ID: "c1"},
			},
			id: "c3",
		},
		{
			name: "nil conversations",
			id:   "c1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := findConversation(tt.conversations, tt.id)
			if tt.found {
				require.NotNil(t, got)
				assert.Equal(t, tt.id, got.ID)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}
