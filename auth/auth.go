package auth

import (
	"context"
	"net/http"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
)

// Authenticate verifies the bearer ID token on req and returns the decoded
// token, or an error when the header is absent, malformed or the token is
// invalid or expired.
func Authenticate(req *http.Request) (*auth.Token, error) {
	ctx := req.Context()
	client, err := Client(ctx)
	if err != nil {
		return nil, err
	}

	jwtToken, err := BearerTokenFromRequest(req)
	if err != nil {
		return nil, err
	}
	return client.VerifyIDToken(ctx, jwtToken)
}

// Client returns a Firebase admin auth client backed by the ambient
// application-default credentials.
func Client(ctx context.Context) (*auth.Client, error) {
	app, err := firebase.NewApp(ctx, nil)
	if err != nil {
		return nil, err
	}
	return app.Auth(ctx)
}

// RevokeSessions invalidates the user's refresh tokens. ID tokens already
// issued stay valid until they expire; sign-out is effective locally either
// way.
func RevokeSessions(ctx context.Context, uid string) error {
	client, err := Client(ctx)
	if err != nil {
		return err
	}
	return client.RevokeRefreshTokens(ctx, uid)
}
