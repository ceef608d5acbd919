package youquery

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"

	"github.com/tmc/langchaingo/llms/openai"

	"github.com/youquery/backend/auth"
	"github.com/youquery/backend/chat"
	"github.com/youquery/backend/contract"
	"github.com/youquery/backend/log"
	"github.com/youquery/backend/portfolio"
)

// loggingRoundTripper logs the outgoing completion request details
type loggingRoundTripper struct {
	rt http.RoundTripper
}

func (lrt *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	logger := log.LoggerFromContext(req.Context())
	var bodyBytes []byte
	if req.Body != nil {
		bodyBytes, _ = io.ReadAll(req.Body)
	}
	// reset req.Body so it can be read downstream
	req.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

	logger.Info("openAI request",
		slog.String("url", req.URL.String()),
		slog.String(bodyLogField, string(bodyBytes)),
	)
	return lrt.rt.RoundTrip(req)
}

// Chat relays one message to the assistant. Any failure past
// authentication answers 200 with the fallback reply so the client always
// has something to render.
func Chat(w http.ResponseWriter, r *http.Request) {
	r, logger := requestLogger(r)
	ctx := r.Context()
	logger.Info("chat function called")

	if !requirePost(w, r, logger) {
		return
	}

	token, err := auth.Authenticate(r)
	if err != nil {
		logger.Error("error while authenticating", slog.String(ErrorMsgLogField, err.Error()))
		writeJSON(w, http.StatusUnauthorized, contract.ErrorResponse{Error: "invalid or expired token"})
		return
	}
	logger = logger.With(slog.String(userIDLogField, token.UID))

	var req contract.ChatRequest
	if !decodeBody(w, r, logger, &req) {
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, contract.ErrorResponse{Error: "message is required"})
		return
	}
	logger = logger.With(slog.String(conversationIDLogField, req.ConversationID))
	ctx = log.WithLogger(ctx, logger)

	openAIClient, err := openai.New(
		openai.WithModel(openAIModel),
		openai.WithToken(openaiAPIKey),
		openai.WithHTTPClient(
			&http.Client{
				Transport: &loggingRoundTripper{
					rt: http.DefaultTransport,
				},
			},
		),
	)
	if err != nil {
		logger.Error("error while creating openAI client", slog.String(ErrorMsgLogField, err.Error()))
		writeFallback(w, req.ConversationID)
		return
	}

	// profile context is best effort, the assistant answers without it
	var profiles chat.ProfileLoader
	if db, err := portfolio.NewDatabase(ctx); err == nil {
		profiles = portfolio.NewService(db)
	} else {
		logger.Error("failed to connect to the document store", slog.String(ErrorMsgLogField, err.Error()))
	}

	relay, err := chat.NewRelay(openAIClient, chat.FirestoreHistory{}, profiles, "prompts/assistant.tmpl")
	if err != nil {
		logger.Error("error while building relay", slog.String(ErrorMsgLogField, err.Error()))
		writeFallback(w, req.ConversationID)
		return
	}

	reply, err := relay.Send(ctx, token.UID, req.ConversationID, req.Message)
	if err != nil {
		logger.Error("completion error", slog.String(ErrorMsgLogField, err.Error()))
		writeFallback(w, req.ConversationID)
		return
	}

	writeJSON(w, http.StatusOK, contract.ChatResponse{
		Reply:          reply.Text,
		ReplyHTML:      reply.HTML,
		ConversationID: reply.ConversationID,
	})
}

func writeFallback(w http.ResponseWriter, conversationID string) {
	writeJSON(w, http.StatusOK, contract.ChatResponse{
		Reply:          chat.FallbackReply,
		ConversationID: conversationID,
	})
}
