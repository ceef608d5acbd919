package logger

import (
	"context"
	"log"

	"cloud.google.com/go/compute/metadata"
	"cloud.google.com/go/logging"
)

const logID = "backend"

// FromContext returns a standard logger backed by Cloud Logging, for
// packages that want a plain *log.Logger rather than slog.
func FromContext(ctx context.Context) *log.Logger {
	projectID, err := metadata.ProjectIDWithContext(ctx)
	if err != nil {
		log.Fatalf("failed to get project ID: %v", err)
	}
	client, err := logging.NewClient(ctx, projectID)
	if err != nil {
		log.Fatalf("failed to create logging client: %v", err)
	}
	return client.Logger(logID).StandardLogger(logging.Info)
}
