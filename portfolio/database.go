package portfolio

import (
	"context"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
)

var databaseURL = os.Getenv("FIREBASE_DATABASE_URL")

// Database is the slice of the realtime database this service needs. Paths
// are slash-separated from the root, the way the store addresses them.
type Database interface {
	Get(ctx context.Context, path string, v any) error
	Set(ctx context.Context, path string, v any) error
	Push(ctx context.Context, path string, v any) (string, error)
	Delete(ctx context.Context, path string) error
}

type rtdb struct {
	client *db.Client
}

// NewDatabase connects to the Firebase Realtime Database configured via
// FIREBASE_DATABASE_URL.
func NewDatabase(ctx context.Context) (Database, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{DatabaseURL: databaseURL})
	if err != nil {
		return nil, err
	}
	client, err := app.Database(ctx)
	if err != nil {
		return nil, err
	}
	return &rtdb{client: client}, nil
}

func (r *rtdb) Get(ctx context.Context, path string, v any) error {
	return r.client.NewRef(path).Get(ctx, v)
}

func (r *rtdb) Set(ctx context.Context, path string, v any) error {
	return r.client.NewRef(path).Set(ctx, v)
}

func (r *rtdb) Push(ctx context.Context, path string, v any) (string, error) {
	ref, err := r.client.NewRef(path).Push(ctx, v)
	if err != nil {
		return "", err
	}
	return ref.Key, nil
}

func (r *rtdb) Delete(ctx context.Context, path string) error {
	return r.client.NewRef(path).Delete(ctx)
}
