package infrastructure

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"studentpulse/internal/config"
)

type contextKey string

const (
	// TraceIDKey is the context key for request trace IDs
	TraceIDKey contextKey = "trace_id"
)

var (
	globalLogger *slog.Logger
	loggerOnce   sync.Once
)

// InitializeLogger builds the process logger from cfg, writing to stdout,
// and installs it as the slog default. Later calls return the first logger.
func InitializeLogger(cfg config.LoggingConfig) *slog.Logger {
	loggerOnce.Do(func() {
		globalLogger = NewLogger(os.Stdout, cfg)
		slog.SetDefault(globalLogger)
	})
	return globalLogger
}

// NewLogger creates a logger that writes to w. Records carry the request
// trace ID from the context when one is present.
func NewLogger(w io.Writer, cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLogLevel(cfg.Level),
		AddSource: cfg.Development,
	}

	return slog.New(&traceHandler{handler: slog.NewJSONHandler(w, opts)})
}

// traceHandler adds trace_id to every record logged with a context that
// carries one, either a request ID or an active span.
type traceHandler struct {
	handler slog.Handler
}

func (h *traceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if traceID := GetTraceID(ctx); traceID != "" {
		r.AddAttrs(slog.String("trace_id", traceID))
	} else if spanID := TraceIDFromContext(ctx); spanID != "" {
		r.AddAttrs(slog.String("trace_id", spanID))
	}
	return h.handler.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{handler: h.handler.WithAttrs(attrs)}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{handler: h.handler.WithGroup(name)}
}

// GetTraceID extracts the trace ID from context
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// WithTraceID adds a trace ID to the context
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
