package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeIdentity struct {
	cred       *Credential
	err        error
	resetErr   error
	revokeErr  error
	calls      int
	revoked    []string
	resetSent  []string
	lastEmail  string
	lastSecret string
}

func (f *fakeIdentity) SignUp(_ context.Context, email, password string) (*Credential, error) {
	f.calls++
	f.lastEmail = email
	f.lastSecret = password
	return f.cred, f.err
}

func (f *fakeIdentity) SignIn(_ context.Context, email, password string) (*Credential, error) {
	f.calls++
	f.lastEmail = email
	f.lastSecret = password
	return f.cred, f.err
}

func (f *fakeIdentity) SignInWithProvider(_ context.Context, _, _ string) (*Credential, error) {
	f.calls++
	return f.cred, f.err
}

func (f *fakeIdentity) SendPasswordReset(_ context.Context, email string) error {
	f.calls++
	f.resetSent = append(f.resetSent, email)
	return f.resetErr
}

func (f *fakeIdentity) Revoke(_ context.Context, uid string) error {
	f.revoked = append(f.revoked, uid)
	return f.revokeErr
}

func TestManagerStartsUnknown(t *testing.T) {
	m := NewManager(&fakeIdentity{})
	assert.Equal(t, Unknown, m.State())
	assert.Nil(t, m.User())
}

func TestApplyResolvesUnknownExactlyOnce(t *testing.T) {
	m := NewManager(&fakeIdentity{})

	var transitions []Transition
	m.Subscribe(func(tr Transition) {
		transitions = append(transitions, tr)
	})

	m.Apply(&User{UID: "u1"})
	m.Apply(nil)

	assert.Len(t, transitions, 2)
	assert.Equal(t, Unknown, transitions[0].Prev)
	assert.Equal(t, Authenticated, transitions[0].Next)
	assert.Equal(t, Authenticated, transitions[1].Prev)
	assert.Equal(t, Unauthenticated, transitions[1].Next)
	assert.Nil(t, m.User())
}

func TestSignUpRejectsWeakPasswordBeforeRemoteCall(t *testing.T) {
	id := &fakeIdentity{}
	m := NewManager(id)

	_, err := m.SignUp(context.Background(), "a@b.com", "12345")

	var authErr *Error
	assert.ErrorAs(t, err, &authErr)
	assert.Equal(t, KindWeakPassword, authErr.Kind)
	assert.Zero(t, id.calls, "no remote call for a weak password")
	assert.Equal(t, Unknown, m.State())
}

func TestSignUpRejectsMalformedEmailBeforeRemoteCall(t *testing.T) {
	id := &fakeIdentity{}
	m := NewManager(id)

	for _, email := range []string{"", "not-an-email", "a b@c.com", "Someone <a@b.com>"} {
		_, err := m.SignUp(context.Background(), email, "123456")
		var authErr *Error
		assert.ErrorAs(t, err, &authErr, email)
		assert.Equal(t, KindInvalidEmail, authErr.Kind, email)
	}
	assert.Zero(t, id.calls)
}

func TestSignUpTransitionsToAuthenticated(t *testing.T) {
	id := &fakeIdentity{cred: &Credential{User: User{UID: "u1", Email: "a@b.com"}, IDToken: "tok"}}
	m := NewManager(id)

	cred, err := m.SignUp(context.Background(), "a@b.com", "123456")

	assert.NoError(t, err)
	assert.Equal(t, "tok", cred.IDToken)
	assert.Equal(t, Authenticated, m.State())
	assert.Equal(t, "u1", m.User().UID)
}

func TestSignInNormalizesIdentityErrors(t *testing.T) {
	id := &fakeIdentity{err: NewError(KindAccountDisabled, "this account has been disabled", nil)}
	m := NewManager(id)

	_, err := m.SignIn(context.Background(), "a@b.com", "secret")

	var authErr *Error
	assert.ErrorAs(t, err, &authErr)
	assert.Equal(t, KindAccountDisabled, authErr.Kind)
	assert.Equal(t, Unknown, m.State(), "failed sign-in must not move the state machine")
}

func TestSignInWrapsUnknownErrorsAsRemote(t *testing.T) {
	id := &fakeIdentity{err: errors.New("connection reset")}
	m := NewManager(id)

	_, err := m.SignIn(context.Background(), "a@b.com", "secret")

	var authErr *Error
	assert.ErrorAs(t, err, &authErr)
	assert.Equal(t, KindRemote, authErr.Kind)
	assert.ErrorContains(t, errors.Unwrap(authErr), "connection reset")
}

func TestSignInWithProviderPopupClosed(t *testing.T) {
	id := &fakeIdentity{}
	m := NewManager(id)

	_, err := m.SignInWithProvider(context.Background(), "google.com", "")

	var authErr *Error
	assert.ErrorAs(t, err, &authErr)
	assert.Equal(t, KindPopupClosedByUser, authErr.Kind)
	assert.Zero(t, id.calls)
}

func TestSignOutSucceedsLocallyWhenRevokeFails(t *testing.T) {
	id := &fakeIdentity{
		cred:      &Credential{User: User{UID: "u1", Email: "a@b.com"}},
		revokeErr: errors.New("network down"),
	}
	m := NewManager(id)

	_, err := m.SignIn(context.Background(), "a@b.com", "secret")
	assert.NoError(t, err)

	m.SignOut(context.Background())

	assert.Equal(t, Unauthenticated, m.State())
	assert.Nil(t, m.User())
	assert.Equal(t, []string{"u1"}, id.revoked)
}

func TestRequestPasswordResetReturnsBeforeDelivery(t *testing.T) {
	id := &fakeIdentity{}
	m := NewManager(id)

	err := m.RequestPasswordReset(context.Background(), "a@b.com")

	assert.NoError(t, err)
	assert.Equal(t, []string{"a@b.com"}, id.resetSent)
}

func TestErrorHTTPStatus(t *testing.T) {
	tests := []struct {
		kind   Kind
		status int
	}{
		{KindInvalidEmail, 400},
		{KindWeakPassword, 400},
		{KindPopupClosedByUser, 400},
		{KindInvalidCredentials, 401},
		{KindProviderError, 401},
		{KindAccountDisabled, 403},
		{KindUserNotFound, 404},
		{KindEmailAlreadyInUse, 409},
		{KindTooManyAttempts, 429},
		{KindRemote, 500},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, NewError(tt.kind, "", nil).HTTPStatus(), string(tt.kind))
	}
}
