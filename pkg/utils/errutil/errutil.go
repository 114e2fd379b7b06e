package errutil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/risktree/pkg/utils/logging"
)

// Handle logs the error with a message and forwards it to Sentry when a
// Sentry client has been initialized. The error is returned as-is.
func Handle(ctx context.Context, err error, msg string) error {
	if err == nil {
		return nil
	}

	logError(ctx, slog.LevelError, msg, err)
	capture(ctx, err)
	return err
}

// HandleHTTP logs the error and writes it as a JSON body:
// {"error": "...", "status": 404}. Client errors are logged at Warn;
// only 5xx errors are reported to Sentry.
func HandleHTTP(ctx context.Context, w http.ResponseWriter, err error, statusCode int) {
	if err == nil {
		return
	}

	level := slog.LevelWarn
	if statusCode >= http.StatusInternalServerError {
		level = slog.LevelError
		capture(ctx, err)
	}
	logError(ctx, level, "HTTP error", err, "status", statusCode)

	body, _ := json.Marshal(struct {
		Error  string `json:"error"`
		Status int    `json:"status"`
	}{
		Error:  err.Error(),
		Status: statusCode,
	})
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)
	_, _ = w.Write(body)
}

func logError(ctx context.Context, level slog.Level, msg string, err error, attrs ...any) {
	attrs = append(attrs, "error", err.Error())

	var ge *goerr.Error
	if errors.As(err, &ge) {
		attrs = append(attrs, "values", ge.Values(), "stack", ge.Stacks())
	}
	logging.From(ctx).Log(ctx, level, msg, attrs...)
}

func capture(ctx context.Context, err error) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	if hub.Client() == nil {
		return
	}

	var ge *goerr.Error
	if errors.As(err, &ge) {
		hub.WithScope(func(scope *sentry.Scope) {
			for k, v := range ge.Values() {
				scope.SetExtra(k, v)
			}
			hub.CaptureException(err)
		})
		return
	}
	hub.CaptureException(err)
}
