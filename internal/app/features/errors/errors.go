// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/civicbridge/internal/app/system/apperr"
	"github.com/dalemusser/civicbridge/internal/app/system/auth"
	"github.com/dalemusser/civicbridge/internal/app/system/httpjson"
	"github.com/dalemusser/civicbridge/internal/app/system/httpmw"
	"go.uber.org/zap"
)

// ErrorLogger writes JSON error responses and logs the server-side detail
// that callers never see.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{Log: logger}
}

func (e *ErrorLogger) fields(r *http.Request, op string, err error, status int) []zap.Field {
	f := []zap.Field{
		zap.String("op", op),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("request_id", httpmw.RequestIDFrom(r.Context())),
	}
	if u, ok := auth.CurrentUser(r); ok {
		f = append(f, zap.String("user_id", u.ID), zap.String("role", u.Role))
	}
	if err != nil {
		f = append(f, zap.Error(err))
	}
	return f
}

// Write classifies err with apperr, logs it at a level that matches the
// status and writes {"error": msg}. 5xx log at Error, 401/403 at Warn and
// the remaining 4xx at Info.
func (e *ErrorLogger) Write(w http.ResponseWriter, r *http.Request, op string, err error) {
	kind := apperr.KindOf(err)
	status := kind.Status()
	fields := append(e.fields(r, op, err, status), zap.String("kind", kind.String()))

	switch {
	case status >= 500:
		e.Log.Error("request failed", fields...)
	case status == http.StatusUnauthorized || status == http.StatusForbidden || status == http.StatusTooManyRequests:
		e.Log.Warn("request rejected", fields...)
	default:
		e.Log.Info("request rejected", fields...)
	}
	httpjson.Error(w, status, apperr.PublicMessage(err))
}

// NotFound answers unmatched routes with a JSON 404.
func NotFound(w http.ResponseWriter, r *http.Request) {
	httpjson.Error(w, http.StatusNotFound, "Not found")
}

// MethodNotAllowed answers known paths requested with the wrong verb.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	httpjson.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
}
