// Package contract holds the JSON shapes of the HTTP surface.
package contract

import (
	"github.com/youquery/backend/portfolio"
	"github.com/youquery/backend/session"
)

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	Route    string `json:"route,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Route    string `json:"route,omitempty"`
}

type ProviderLoginRequest struct {
	ProviderID    string `json:"providerId"`
	ProviderToken string `json:"providerToken"`
	Route         string `json:"route,omitempty"`
}

type ResetPasswordRequest struct {
	Email string `json:"email"`
}

// AuthResponse is shared by the sign-up, login and verify endpoints.
type AuthResponse struct {
	Success  bool          `json:"success"`
	Message  string        `json:"message,omitempty"`
	User     *session.User `json:"user,omitempty"`
	Token    string        `json:"token,omitempty"`
	Redirect string        `json:"redirect,omitempty"`
}

type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

type StatusResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

type PortfolioResponse struct {
	Success   bool                 `json:"success"`
	Portfolio *portfolio.Portfolio `json:"portfolio"`
}

type SaveRequest struct {
	Project    *portfolio.Project    `json:"project,omitempty"`
	Skill      *portfolio.Skill      `json:"skill,omitempty"`
	Experience *portfolio.Experience `json:"experience,omitempty"`
	Profile    *portfolio.Profile    `json:"profile,omitempty"`
	// Enrich asks the server to fill project metadata from the GitHub API.
	Enrich bool `json:"enrich,omitempty"`
}

type SaveResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
}

type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId,omitempty"`
}

type ChatResponse struct {
	Reply          string `json:"reply"`
	ReplyHTML      string `json:"replyHtml,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
}

type UploadResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
}
