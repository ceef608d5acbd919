// Package session owns the "who is signed in" state machine. A Manager is
// an explicit session value with a defined lifecycle: created per client
// session, fed by the credential store's listener through Apply, torn down
// on sign-out. Nothing in this package touches a router; navigation is a
// pure decision in Redirect.
package session

import (
	"context"
	"log/slog"
	"net/mail"
	"sync"
	"time"

	"github.com/youquery/backend/log"
)

// State of the session. Unknown holds only until the credential store's
// listener reports for the first time.
type State int

const (
	Unknown State = iota
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// User is the read-only projection of the credential store's identity
// record. The Manager replaces it wholesale on each listener callback.
type User struct {
	UID            string    `json:"uid"`
	Email          string    `json:"email"`
	DisplayName    string    `json:"displayName,omitempty"`
	PhotoURL       string    `json:"photoURL,omitempty"`
	EmailVerified  bool      `json:"emailVerified"`
	CreationTime   time.Time `json:"creationTime"`
	LastSignInTime time.Time `json:"lastSignInTime"`
}

// Credential is what the credential store hands back on a successful
// sign-up or sign-in.
type Credential struct {
	User         User
	IDToken      string
	RefreshToken string
}

// Identity is the remote credential store. The production implementation
// lives in the identity package; tests substitute fakes.
type Identity interface {
	SignUp(ctx context.Context, email, password string) (*Credential, error)
	SignIn(ctx context.Context, email, password string) (*Credential, error)
	SignInWithProvider(ctx context.Context, providerID, providerToken string) (*Credential, error)
	SendPasswordReset(ctx context.Context, email string) error
	Revoke(ctx context.Context, uid string) error
}

// Transition is one delivery from the session listener. Deliveries are
// serialized: a subscriber observes them one at a time, in order.
type Transition struct {
	Prev State
	Next State
	User *User
}

type Manager struct {
	identity Identity

	mu    sync.Mutex
	state State
	user  *User
	subs  []func(Transition)
}

func NewManager(identity Identity) *Manager {
	return &Manager{identity: identity, state: Unknown}
}

// State returns the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// User returns the current user, or nil outside Authenticated.
func (m *Manager) User() *User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// Subscribe registers a callback invoked on every listener delivery,
// including the one that resolves Unknown.
func (m *Manager) Subscribe(fn func(Transition)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

// Apply is the credential store's listener sink. A non-nil user moves the
// session to Authenticated, nil to Unauthenticated. The callback holds the
// manager lock, so deliveries are processed one before the next.
func (m *Manager) Apply(u *User) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.state
	if u != nil {
		m.state = Authenticated
	} else {
		m.state = Unauthenticated
	}
	m.user = u

	t := Transition{Prev: prev, Next: m.state, User: u}
	for _, fn := range m.subs {
		fn(t)
	}
}

// SignUp creates an account with the credential store. The password policy
// (minimum 6 characters) and email well-formedness are enforced here,
// before any remote call.
func (m *Manager) SignUp(ctx context.Context, email, password string) (*Credential, error) {
	if !validEmail(email) {
		return nil, NewError(KindInvalidEmail, "invalid email address", nil)
	}
	if len(password) < 6 {
		return nil, NewError(KindWeakPassword, "password must be at least 6 characters long", nil)
	}

	cred, err := m.identity.SignUp(ctx, email, password)
	if err != nil {
		return nil, normalize(err)
	}
	m.Apply(&cred.User)
	return cred, nil
}

func (m *Manager) SignIn(ctx context.Context, email, password string) (*Credential, error) {
	if !validEmail(email) {
		return nil, NewError(KindInvalidEmail, "invalid email address", nil)
	}

	cred, err := m.identity.SignIn(ctx, email, password)
	if err != nil {
		return nil, normalize(err)
	}
	m.Apply(&cred.User)
	return cred, nil
}

// SignInWithProvider completes an interactive OAuth flow. An empty provider
// token means the user dismissed the popup before the provider answered.
func (m *Manager) SignInWithProvider(ctx context.Context, providerID, providerToken string) (*Credential, error) {
	if providerToken == "" {
		return nil, NewError(KindPopupClosedByUser, "sign-in window was closed before completing", nil)
	}

	cred, err := m.identity.SignInWithProvider(ctx, providerID, providerToken)
	if err != nil {
		return nil, normalize(err)
	}
	m.Apply(&cred.User)
	return cred, nil
}

// SignOut always succeeds locally: the session transitions to
// Unauthenticated even when remote revocation fails, in which case the
// failure is only logged.
func (m *Manager) SignOut(ctx context.Context) {
	u := m.User()
	if u != nil {
		if err := m.identity.Revoke(ctx, u.UID); err != nil {
			log.LoggerFromContext(ctx).Error("failed to revoke session",
				slog.String("uid", u.UID),
				slog.String("errorMsg", err.Error()),
			)
		}
	}
	m.Apply(nil)
}

// RequestPasswordReset asks the credential store to send the reset email.
// It returns once the request is accepted, before delivery.
func (m *Manager) RequestPasswordReset(ctx context.Context, email string) error {
	if !validEmail(email) {
		return NewError(KindInvalidEmail, "invalid email address", nil)
	}
	if err := m.identity.SendPasswordReset(ctx, email); err != nil {
		return normalize(err)
	}
	return nil
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
