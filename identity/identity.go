// Package identity talks to the Firebase Identity Toolkit REST API. The
// admin SDK deliberately has no password-exchange endpoints, so sign-up and
// sign-in go through the same REST surface the gentoken tool uses.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/youquery/backend/auth"
	"github.com/youquery/backend/session"
)

const defaultBaseURL = "https://identitytoolkit.googleapis.com/v1"

var firebaseAPIKey = os.Getenv("FIREBASE_API_KEY")

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	revoke     func(ctx context.Context, uid string) error
}

// Option configures a Client; used by tests to point at a stub server.
type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithRevokeFunc(fn func(ctx context.Context, uid string) error) Option {
	return func(c *Client) { c.revoke = fn }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		apiKey:     firebaseAPIKey,
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
		revoke:     auth.RevokeSessions,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type accountResponse struct {
	LocalID       string `json:"localId"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	PhotoURL      string `json:"photoUrl"`
	EmailVerified bool   `json:"emailVerified"`
	IDToken       string `json:"idToken"`
	RefreshToken  string `json:"refreshToken"`
}

type apiError struct {
	Details struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*session.Credential, error) {
	payload := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}
	return c.credentialCall(ctx, "accounts:signUp", payload, false)
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*session.Credential, error) {
	payload := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}
	return c.credentialCall(ctx, "accounts:signInWithPassword", payload, false)
}

// SignInWithProvider exchanges an OAuth provider credential (the ID token
// obtained by the client-side popup) for a Firebase session.
func (c *Client) SignInWithProvider(ctx context.Context, providerID, providerToken string) (*session.Credential, error) {
	postBody := url.Values{}
	postBody.Set("id_token", providerToken)
	postBody.Set("providerId", providerID)
	payload := map[string]any{
		"postBody":            postBody.Encode(),
		"requestUri":          "http://localhost",
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}
	return c.credentialCall(ctx, "accounts:signInWithIdp", payload, true)
}

func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	payload := map[string]any{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	}
	_, err := c.call(ctx, "accounts:sendOobCode", payload)
	if err != nil {
		// on this endpoint EMAIL_NOT_FOUND means the account does not exist,
		// not a bad password
		var authErr *session.Error
		if errors.As(err, &authErr) && authErr.Kind == session.KindInvalidCredentials {
			return session.NewError(session.KindUserNotFound, "no account found for this email", nil)
		}
	}
	return err
}

func (c *Client) Revoke(ctx context.Context, uid string) error {
	return c.revoke(ctx, uid)
}

func (c *Client) credentialCall(ctx context.Context, endpoint string, payload map[string]any, provider bool) (*session.Credential, error) {
	body, err := c.call(ctx, endpoint, payload)
	if err != nil {
		// provider exchanges surface unclassified failures as provider errors
		var authErr *session.Error
		if provider && (!errors.As(err, &authErr) || authErr.Kind == session.KindRemote) {
			return nil, session.NewError(session.KindProviderError, "provider sign-in failed", err)
		}
		return nil, err
	}

	var acc accountResponse
	if err := json.Unmarshal(body, &acc); err != nil {
		return nil, fmt.Errorf("decoding identity response: %w", err)
	}
	return &session.Credential{
		User: session.User{
			UID:           acc.LocalID,
			Email:         acc.Email,
			DisplayName:   acc.DisplayName,
			PhotoURL:      acc.PhotoURL,
			EmailVerified: acc.EmailVerified,
		},
		IDToken:      acc.IDToken,
		RefreshToken: acc.RefreshToken,
	}, nil
}

func (c *Client) call(ctx context.Context, endpoint string, payload map[string]any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/%s?key=%s", c.baseURL, endpoint, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(body, resp.StatusCode)
	}
	return body, nil
}

// decodeError maps Identity Toolkit error codes onto the normalized auth
// error kinds. The upstream message sometimes carries a free-text suffix
// ("TOO_MANY_ATTEMPTS_TRY_LATER : ..."), which is stripped first.
func decodeError(body []byte, status int) error {
	var ae apiError
	if err := json.Unmarshal(body, &ae); err != nil || ae.Details.Message == "" {
		return session.NewError(session.KindRemote, "identity service error",
			fmt.Errorf("identity service returned status %d", status))
	}

	code, _, _ := strings.Cut(ae.Details.Message, " ")
	switch code {
	case "EMAIL_EXISTS":
		return session.NewError(session.KindEmailAlreadyInUse, "email already in use", nil)
	case "INVALID_EMAIL", "MISSING_EMAIL":
		return session.NewError(session.KindInvalidEmail, "invalid email address", nil)
	case "WEAK_PASSWORD", "MISSING_PASSWORD":
		return session.NewError(session.KindWeakPassword, "password is too weak", nil)
	case "INVALID_LOGIN_CREDENTIALS", "INVALID_PASSWORD", "EMAIL_NOT_FOUND":
		return session.NewError(session.KindInvalidCredentials, "invalid email or password", nil)
	case "USER_DISABLED":
		return session.NewError(session.KindAccountDisabled, "this account has been disabled", nil)
	case "TOO_MANY_ATTEMPTS_TRY_LATER", "RESET_PASSWORD_EXCEED_LIMIT":
		return session.NewError(session.KindTooManyAttempts, "too many attempts, please try again later", nil)
	case "FEDERATED_USER_ID_ALREADY_LINKED", "INVALID_IDP_RESPONSE", "MISSING_OR_INVALID_NONCE":
		return session.NewError(session.KindProviderError, "provider sign-in failed", nil)
	default:
		return session.NewError(session.KindRemote, "identity service error",
			fmt.Errorf("identity service: %s", ae.Details.Message))
	}
}
