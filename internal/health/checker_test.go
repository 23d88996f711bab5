package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestChecker_AllHealthy(t *testing.T) {
	checker := NewChecker(testLogger())
	checker.AddCheck("redis", CheckFunc(func(ctx context.Context) error { return nil }))
	checker.AddCheck("postgres", CheckFunc(func(ctx context.Context) error { return nil }))

	results := checker.Check(context.Background())
	assert.Equal(t, map[string]string{"redis": "OK", "postgres": "OK"}, results)
	assert.True(t, checker.Healthy(context.Background()))
}

func TestChecker_ReportsFailures(t *testing.T) {
	checker := NewChecker(testLogger())
	checker.AddCheck("redis", CheckFunc(func(ctx context.Context) error { return nil }))
	checker.AddCheck("postgres", CheckFunc(func(ctx context.Context) error {
		return errors.New("connection refused")
	}))

	results := checker.Check(context.Background())
	assert.Equal(t, "OK", results["redis"])
	assert.Equal(t, "connection refused", results["postgres"])
	assert.False(t, checker.Healthy(context.Background()))
}

func TestAllOK(t *testing.T) {
	assert.True(t, AllOK(map[string]string{"redis": "OK", "postgres": "OK"}))
	assert.False(t, AllOK(map[string]string{"redis": "OK", "postgres": "connection refused"}))
	assert.True(t, AllOK(nil))
}

func TestChecker_IgnoresInvalidRegistrations(t *testing.T) {
	checker := NewChecker(testLogger())
	checker.AddCheck("", CheckFunc(func(ctx context.Context) error { return nil }))
	checker.AddCheck("nil-check", nil)

	assert.Empty(t, checker.Check(context.Background()))
}
