// Package chat bridges the dashboard's single text input to the completion
// API, with optional conversation persistence in Firestore.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"

	"github.com/youquery/backend/log"
	"github.com/youquery/backend/portfolio"
)

// FallbackReply is what the UI shows in place of a reply when anything in
// the relay fails. The caller substitutes it; the failure itself is only
// logged.
const FallbackReply = "Sorry, I encountered an error. Please try again later."

var errEmptyCompletion = errors.New("completion returned no choices")

// ProfileLoader supplies the profile the system prompt is rendered with.
// *portfolio.Service satisfies it.
type ProfileLoader interface {
	Profile(ctx context.Context, uid string) (*portfolio.Profile, error)
}

type Relay struct {
	llm     llms.Model
	history History
	profile ProfileLoader
	prompt  *template.Template
	now     func() time.Time
}

// NewRelay wires the relay. history nil disables persistence; profile nil
// renders the prompt without profile context.
func NewRelay(llm llms.Model, history History, profile ProfileLoader, promptFile string) (*Relay, error) {
	prompt, err := template.ParseFiles(promptFile)
	if err != nil {
		return nil, err
	}
	return &Relay{
		llm:     llm,
		history: history,
		profile: profile,
		prompt:  prompt,
		now:     time.Now,
	}, nil
}

type Reply struct {
	ConversationID string
	Text           string
	HTML           string
}

// Send relays one user turn: prior turns are loaded and replayed to the
// completion API ahead of the new message, and on success both new turns
// are appended to storage. There is exactly one request in flight per
// submission; resubmission gating happens at the UI boundary, not here.
func (r *Relay) Send(ctx context.Context, userID, conversationID, text string) (*Reply, error) {
	slogger := log.LoggerFromContext(ctx)

	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	var turns []*Message
	if r.history != nil {
		var err error
		turns, err = r.history.Load(ctx, userID, conversationID)
		if err != nil {
			return nil, fmt.Errorf("loading conversation: %w", err)
		}
	}

	userTurn := &Message{
		ID:     uuid.NewString(),
		Text:   text,
		Sender: SenderUser,
		SentAt: r.now(),
	}

	messages, err := r.buildMessages(ctx, userID, turns, userTurn)
	if err != nil {
		return nil, err
	}
	slogger.Info("relaying message",
		slog.String("conversationID", conversationID),
		slog.String("transcript", Transcript(append(turns, userTurn))),
	)

	resp, err := r.llm.GenerateContent(ctx, messages, llms.WithMaxTokens(1000))
	if err != nil {
		return nil, fmt.Errorf("completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errEmptyCompletion
	}
	replyText := resp.Choices[0].Content

	if r.history != nil {
		botTurn := &Message{
			ID:     uuid.NewString(),
			Text:   replyText,
			Sender: SenderBot,
			SentAt: r.now(),
		}
		if err := r.history.Append(ctx, userID, conversationID, userTurn, botTurn); err != nil {
			// the reply is already in hand; losing the record is logged, not fatal
			slogger.Error("failed to persist conversation turns",
				slog.String("conversationID", conversationID),
				slog.String("errorMsg", err.Error()),
			)
		}
	}

	return &Reply{
		ConversationID: conversationID,
		Text:           replyText,
		HTML:           RenderHTML(replyText),
	}, nil
}

// buildMessages replays stored turns as structured chat messages behind
// the rendered system prompt, the new user turn last.
func (r *Relay) buildMessages(ctx context.Context, userID string, turns []*Message, userTurn *Message) ([]llms.MessageContent, error) {
	var profile *portfolio.Profile
	if r.profile != nil {
		var err error
		profile, err = r.profile.Profile(ctx, userID)
		if err != nil {
			// the assistant still works without profile context
			log.LoggerFromContext(ctx).Error("failed to load profile for prompt",
				slog.String("errorMsg", err.Error()),
			)
		}
	}

	var systemPrompt strings.Builder
	if err := r.prompt.Execute(&systemPrompt, struct {
		Profile *portfolio.Profile
	}{Profile: profile}); err != nil {
		return nil, fmt.Errorf("executing prompt template: %w", err)
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt.String()),
	}
	for _, m := range append(turns, userTurn) {
		switch m.Sender {
		case SenderUser:
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, m.Text))
		case SenderBot:
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeAI, m.Text))
		default:
			return nil, fmt.Errorf("invalid message sender: %s", m.Sender)
		}
	}
	return messages, nil
}

// Transcript renders turns in arrival order, one "sender: text" line each.
func Transcript(msgs []*Message) string {
	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(m.Sender)
		b.WriteString(": ")
		b.WriteString(m.Text)
	}
	return b.String()
}
