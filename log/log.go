package log

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"time"
)

type ctxKey struct{}

type traceKey struct{}

// CloudLoggingHandler is a slog.Handler that writes records in the Google
// Cloud structured logging format, one JSON object per line on stdout.
type CloudLoggingHandler struct {
	attrs []slog.Attr
}

func NewCloudLoggingHandler() *CloudLoggingHandler {
	return &CloudLoggingHandler{}
}

func (h *CloudLoggingHandler) Handle(ctx context.Context, r slog.Record) error {
	entry := map[string]any{
		"severity": r.Level.String(),
		"time":     time.Now().Format(time.RFC3339),
		"message":  r.Message,
	}

	if traceID := TraceIDFromContext(ctx); traceID != "" {
		entry["logging.googleapis.com/trace"] = traceID
	}

	for _, attr := range h.attrs {
		entry[attr.Key] = attr.Value.Any()
	}

	r.Attrs(func(attr slog.Attr) bool {
		entry[attr.Key] = attr.Value.Any()
		return true
	})

	jsonData, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	os.Stdout.Write(jsonData)
	os.Stdout.Write([]byte("\n"))
	return nil
}

// Enabled always returns true, so all log levels are handled.
func (h *CloudLoggingHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

func (h *CloudLoggingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)
	return &CloudLoggingHandler{attrs: newAttrs}
}

// WithGroup returns the same handler, as grouping is not implemented.
func (h *CloudLoggingHandler) WithGroup(_ string) slog.Handler {
	return h
}

// WithTraceID stores the request trace ID so Handle can attach it to every
// entry written under this context.
func WithTraceID(ctx context.Context, header string) context.Context {
	// X-Cloud-Trace-Context: TRACE_ID/SPAN_ID;o=1
	traceID, _, _ := strings.Cut(header, "/")
	if traceID == "" {
		return ctx
	}
	return context.WithValue(ctx, traceKey{}, traceID)
}

func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	traceID, _ := ctx.Value(traceKey{}).(string)
	return traceID
}

func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func LoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.New(NewCloudLoggingHandler())
}
