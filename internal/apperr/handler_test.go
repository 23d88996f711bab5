package apperr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureHandler(sentryEnabled bool) (*Handler, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewHandler(slog.New(slog.NewTextHandler(&buf, nil)), sentryEnabled), &buf
}

func TestHandle_NilError(t *testing.T) {
	h, buf := captureHandler(false)

	recovered := h.Handle(context.Background(), "claim_daily", nil)
	assert.Equal(t, Recovered{}, recovered)
	assert.Empty(t, buf.String())
}

func TestHandle_RejectionReturnsNoticeAndWarns(t *testing.T) {
	h, buf := captureHandler(false)

	sentinel := errors.New("no spins remaining")
	err := fmt.Errorf("spin wheel: %w", NewRejectionError(sentinel, "No spins left today"))

	recovered := h.Handle(context.Background(), "spin_wheel", err)
	assert.Equal(t, "No spins left today", recovered.Notice)
	assert.False(t, recovered.Retryable)

	out := buf.String()
	assert.Contains(t, out, "action rejected")
	assert.Contains(t, out, "action=spin_wheel")
	assert.Contains(t, out, "code=E300")
}

func TestHandle_StorageErrorIsRetryable(t *testing.T) {
	h, buf := captureHandler(false)

	recovered := h.Handle(context.Background(), "session_resolve", NewStorageError(errors.New("redis down")))
	assert.Equal(t, "Temporary problem, please try again", recovered.Notice)
	assert.True(t, recovered.Retryable)

	out := buf.String()
	assert.Contains(t, out, "action failed")
	assert.Contains(t, out, "code=E200")
}

func TestHandle_PlainErrorGetsFallbackNotice(t *testing.T) {
	h, buf := captureHandler(false)

	recovered := h.Handle(context.Background(), "claim_daily", errors.New("boom"))
	assert.Equal(t, fallbackNotice, recovered.Notice)
	assert.False(t, recovered.Retryable)

	out := buf.String()
	assert.Contains(t, out, "action failed")
	assert.Contains(t, out, "code=E000")
}

func TestHandle_EmptyUserMessageFallsBack(t *testing.T) {
	h, _ := captureHandler(false)

	recovered := h.Handle(context.Background(), "withdraw", &AppError{
		Code:     "E200",
		Message:  "storage error",
		Severity: SeverityHigh,
	})
	assert.Equal(t, fallbackNotice, recovered.Notice)
}

func TestHandle_SentryEnabledWithoutClient(t *testing.T) {
	// reporting with no initialized Sentry client must be a no-op, not a
	// panic
	h, _ := captureHandler(true)

	recovered := h.Handle(context.Background(), "claim_daily", NewStoreCorruptError(errors.New("bad json")))
	assert.Equal(t, "Your saved data could not be read", recovered.Notice)
}
