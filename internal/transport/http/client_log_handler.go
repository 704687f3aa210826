package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	apierrors "studentpulse/internal/errors"
)

const maxClientLogBody = 16 << 10

// ClientLogHandler accepts log entries from the dashboard frontend, such as
// websocket disconnects or chart rendering failures, and writes them to the
// server log.
type ClientLogHandler struct {
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewClientLogHandler creates a new client log handler
func NewClientLogHandler(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ClientLogHandler {
	return &ClientLogHandler{
		logger:       logger.With(slog.String("handler", "client_log")),
		errorHandler: errorHandler,
	}
}

// LogRequest represents a client log entry
type LogRequest struct {
	Level   string                 `json:"level"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Source  string                 `json:"source,omitempty"`
}

// Bind implements render.Binder
func (l *LogRequest) Bind(r *http.Request) error {
	l.Message = strings.TrimSpace(l.Message)
	if l.Message == "" {
		return apierrors.ErrValidation("message", "message is required")
	}
	return nil
}

func (l *LogRequest) level() slog.Level {
	switch strings.ToLower(l.Level) {
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

// Handle handles POST /api/logs
func (h *ClientLogHandler) Handle(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxClientLogBody)

	var req LogRequest
	if err := render.Bind(r, &req); err != nil {
		var apiErr *apierrors.APIError
		if !errors.As(err, &apiErr) {
			err = apierrors.InvalidRequestWithError(err)
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	attrs := []slog.Attr{slog.String("client_source", req.Source)}
	if req.Data != nil {
		attrs = append(attrs, slog.Any("data", req.Data))
	}
	h.logger.LogAttrs(r.Context(), req.level(), req.Message, attrs...)

	render.JSON(w, r, map[string]interface{}{
		"success": true,
	})
}
