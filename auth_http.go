package youquery

import (
	"log/slog"
	"net/http"

	"github.com/youquery/backend/auth"
	"github.com/youquery/backend/contract"
	"github.com/youquery/backend/identity"
	"github.com/youquery/backend/session"
)

// newSessionManager builds a per-request session manager wired to the
// Identity Toolkit client and captures the redirect the transition calls
// for. The pointer is filled when the manager applies a transition.
func newSessionManager(route string, redirect *string) *session.Manager {
	mgr := session.NewManager(identity.NewClient())
	mgr.Subscribe(func(t session.Transition) {
		if target, ok := session.Redirect(t.Prev, t.Next, route); ok {
			*redirect = target
		}
	})
	return mgr
}

func SignUp(w http.ResponseWriter, r *http.Request) {
	r, logger := requestLogger(r)
	if !requirePost(w, r, logger) {
		return
	}

	var req contract.SignUpRequest
	if !decodeBody(w, r, logger, &req) {
		return
	}

	var redirect string
	mgr := newSessionManager(req.Route, &redirect)
	cred, err := mgr.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(w, logger, err)
		return
	}

	logger.Info("account created", slog.String(userIDLogField, cred.User.UID))
	writeJSON(w, http.StatusCreated, contract.AuthResponse{
		Success:  true,
		Message:  "Account created successfully",
		User:     &cred.User,
		Token:    cred.IDToken,
		Redirect: redirect,
	})
}

func Login(w http.ResponseWriter, r *http.Request) {
	r, logger := requestLogger(r)
	if !requirePost(w, r, logger) {
		return
	}

	var req contract.LoginRequest
	if !decodeBody(w, r, logger, &req) {
		return
	}

	var redirect string
	mgr := newSessionManager(req.Route, &redirect)
	cred, err := mgr.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(w, logger, err)
		return
	}

	logger.Info("user logged in", slog.String(userIDLogField, cred.User.UID))
	writeJSON(w, http.StatusOK, contract.AuthResponse{
		Success:  true,
		Message:  "Login successful",
		User:     &cred.User,
		Token:    cred.IDToken,
		Redirect: redirect,
	})
}

func LoginWithProvider(w http.ResponseWriter, r *http.Request) {
	r, logger := requestLogger(r)
	if !requirePost(w, r, logger) {
		return
	}

	var req contract.ProviderLoginRequest
	if !decodeBody(w, r, logger, &req) {
		return
	}

	var redirect string
	mgr := newSessionManager(req.Route, &redirect)
	cred, err := mgr.SignInWithProvider(r.Context(), req.ProviderID, req.ProviderToken)
	if err != nil {
		writeAuthError(w, logger, err)
		return
	}

	logger.Info("user logged in with provider",
		slog.String(userIDLogField, cred.User.UID),
		slog.String("providerId", req.ProviderID),
	)
	writeJSON(w, http.StatusOK, contract.AuthResponse{
		Success:  true,
		Message:  "Login successful",
		User:     &cred.User,
		Token:    cred.IDToken,
		Redirect: redirect,
	})
}

// Logout always answers success: the session ends locally even when the
// token is missing or revocation fails upstream.
func Logout(w http.ResponseWriter, r *http.Request) {
	r, logger := requestLogger(r)
	if !requirePost(w, r, logger) {
		return
	}

	route := r.URL.Query().Get("route")

	var redirect string
	mgr := newSessionManager(route, &redirect)
	if token, err := auth.Authenticate(r); err == nil {
		mgr.Apply(&session.User{UID: token.UID})
	} else {
		logger.Info("logout without a verifiable token", slog.String(ErrorMsgLogField, err.Error()))
	}
	mgr.SignOut(r.Context())

	writeJSON(w, http.StatusOK, contract.StatusResponse{
		Success:  true,
		Message:  "Logged out successfully",
		Redirect: redirect,
	})
}

// Verify resolves a bearer token into the user it identifies. Clients call
// it on startup to settle an unknown session state.
func Verify(w http.ResponseWriter, r *http.Request) {
	r, logger := requestLogger(r)

	token, err := auth.Authenticate(r)
	if err != nil {
		logger.Error("token verification failed", slog.String(ErrorMsgLogField, err.Error()))
		writeJSON(w, http.StatusUnauthorized, contract.ErrorResponse{
			Error: "invalid or expired token",
			Code:  string(session.KindInvalidCredentials),
		})
		return
	}

	user := &session.User{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		user.Email = email
	}
	if verified, ok := token.Claims["email_verified"].(bool); ok {
		user.EmailVerified = verified
	}
	if name, ok := token.Claims["name"].(string); ok {
		user.DisplayName = name
	}
	if picture, ok := token.Claims["picture"].(string); ok {
		user.PhotoURL = picture
	}

	writeJSON(w, http.StatusOK, contract.AuthResponse{Success: true, User: user})
}

// ResetPassword accepts the request as soon as the credential store does;
// email delivery is not awaited.
func ResetPassword(w http.ResponseWriter, r *http.Request) {
	r, logger := requestLogger(r)
	if !requirePost(w, r, logger) {
		return
	}

	var req contract.ResetPasswordRequest
	if !decodeBody(w, r, logger, &req) {
		return
	}

	mgr := session.NewManager(identity.NewClient())
	if err := mgr.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeAuthError(w, logger, err)
		return
	}

	writeJSON(w, http.StatusOK, contract.StatusResponse{
		Success: true,
		Message: "Password reset email sent",
	})
}
