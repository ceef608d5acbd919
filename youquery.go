// Package youquery exposes the dashboard backend as Cloud Functions HTTP
// endpoints.
package youquery

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/youquery/backend/contract"
	"github.com/youquery/backend/log"
	"github.com/youquery/backend/portfolio"
	"github.com/youquery/backend/session"
)

const (
	ErrorMsgLogField       = "errorMsg"
	bodyLogField           = "body"
	userIDLogField         = "userID"
	routeLogField          = "route"
	kindLogField           = "kind"
	conversationIDLogField = "conversationID"

	gcloudFuncSourceDir = "serverless_function_source_code"
	openAIModel         = "gpt-4o-mini"
)

var openaiAPIKey = os.Getenv("OPENAI_API_KEY")

func init() {
	functions.HTTP("SignUp", SignUp)
	functions.HTTP("Login", Login)
	functions.HTTP("LoginWithProvider", LoginWithProvider)
	functions.HTTP("Logout", Logout)
	functions.HTTP("Verify", Verify)
	functions.HTTP("ResetPassword", ResetPassword)
	functions.HTTP("Portfolio", Portfolio)
	functions.HTTP("Chat", Chat)
	functions.HTTP("Upload", Upload)
	fixDir()
}

// in GCP Functions, source code is placed in a directory named
// "serverless_function_source_code"; need to change the dir to get access
// to the prompt template
func fixDir() {
	fileInfo, err := os.Stat(gcloudFuncSourceDir)
	if err == nil && fileInfo.IsDir() {
		_ = os.Chdir(gcloudFuncSourceDir)
	}
}

// requestLogger threads a logger carrying the request trace through the
// handler's context.
func requestLogger(r *http.Request) (*http.Request, *slog.Logger) {
	ctx := log.WithTraceID(r.Context(), r.Header.Get("X-Cloud-Trace-Context"))
	logger := log.LoggerFromContext(ctx)
	return r.WithContext(log.WithLogger(ctx, logger)), logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeAuthError maps a normalized auth error onto the wire: status from
// the kind, the human-readable message in the body, original detail only
// in the log.
func writeAuthError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var authErr *session.Error
	if !errors.As(err, &authErr) {
		authErr = session.NewError(session.KindRemote, "the service is temporarily unavailable, please try again", err)
	}
	logger.Error("auth operation failed",
		slog.String("code", string(authErr.Kind)),
		slog.String(ErrorMsgLogField, err.Error()),
	)
	writeJSON(w, authErr.HTTPStatus(), contract.ErrorResponse{
		Error: authErr.Message,
		Code:  string(authErr.Kind),
	})
}

// writeValidationError reports field errors inline; validation failures
// never reach the store.
func writeValidationError(w http.ResponseWriter, err error) {
	var fieldErrs portfolio.FieldErrors
	if errors.As(err, &fieldErrs) {
		writeJSON(w, http.StatusBadRequest, contract.ErrorResponse{
			Error:  err.Error(),
			Code:   "validation-error",
			Fields: fieldErrs,
		})
		return
	}
	writeJSON(w, http.StatusBadRequest, contract.ErrorResponse{
		Error: err.Error(),
		Code:  "validation-error",
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, logger *slog.Logger, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		logger.Error("error while decoding request", slog.String(ErrorMsgLogField, err.Error()))
		writeJSON(w, http.StatusBadRequest, contract.ErrorResponse{Error: "malformed request body"})
		return false
	}
	return true
}

func requirePost(w http.ResponseWriter, r *http.Request, logger *slog.Logger) bool {
	if r.Method != http.MethodPost {
		logger.Error("invalid method: " + r.Method)
		http.Error(w, "Method Not Implemented", http.StatusNotImplemented)
		return false
	}
	return true
}
