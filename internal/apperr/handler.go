package apperr

import (
	"context"
	"errors"
	"log/slog"

	"github.com/getsentry/sentry-go"

	"github.com/pakreward/rewards-service/pkg/logger"
)

const fallbackNotice = "Something went wrong. Please try again later"

// Recovered is the outcome of recovering an error at the point of a user
// action: the notice the surface should show and whether retrying the same
// action can help.
type Recovered struct {
	Notice    string
	Retryable bool
}

// Handler terminates error propagation at the acting surface. Every error
// is logged at its taxonomy severity; high and critical failures are
// forwarded to Sentry.
type Handler struct {
	log           *slog.Logger
	sentryEnabled bool
}

func NewHandler(log *slog.Logger, sentryEnabled bool) *Handler {
	if log == nil {
		log = slog.Default()
	}

	return &Handler{
		log:           log,
		sentryEnabled: sentryEnabled,
	}
}

// Handle recovers err for the named user action. Nothing propagates past
// this call; the caller shows the notice and moves on.
func (h *Handler) Handle(ctx context.Context, action string, err error) Recovered {
	if err == nil {
		return Recovered{}
	}

	if ctx == nil {
		ctx = context.Background()
	}

	appErr := asAppError(err)

	args := []any{
		slog.String("action", action),
		slog.String("code", appErr.Code),
		slog.String("severity", string(appErr.Severity)),
		slog.Bool("retryable", appErr.Retryable),
		slog.String("error", appErr.Message),
	}
	if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
		args = append(args, slog.String("correlation_id", correlationID))
	}

	// rejections are expected traffic, everything else is an incident
	if appErr.Severity == SeverityLow {
		h.log.Warn("action rejected", args...)
	} else {
		h.log.Error("action failed", args...)
	}

	if h.sentryEnabled && (appErr.Severity == SeverityHigh || appErr.Severity == SeverityCritical) {
		h.report(action, err, appErr)
	}

	notice := appErr.UserMessage
	if notice == "" {
		notice = fallbackNotice
	}

	return Recovered{Notice: notice, Retryable: appErr.Retryable}
}

// asAppError finds the AppError in err's chain, promoting plain errors to
// a high-severity unknown so they still reach reporting.
func asAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		return appErr
	}

	return &AppError{
		Code:     "E000",
		Message:  err.Error(),
		Severity: SeverityHigh,
		cause:    err,
	}
}

func (h *Handler) report(action string, err error, appErr *AppError) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("action", action)
		scope.SetTag("code", appErr.Code)
		scope.SetTag("severity", string(appErr.Severity))
		sentry.CaptureException(err)
	})
}
