// Package health aggregates component liveness checks for the ops surface.
package health

import (
	"context"
	"database/sql"
	"log/slog"
)

// Checkable represents a component that can report its health status.
type Checkable interface {
	HealthCheck(ctx context.Context) error
}

// CheckFunc adapts a plain function to Checkable.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) HealthCheck(ctx context.Context) error {
	return f(ctx)
}

// DBCheck wraps a *sql.DB ping as a Checkable.
func DBCheck(db *sql.DB) Checkable {
	return CheckFunc(func(ctx context.Context) error {
		return db.PingContext(ctx)
	})
}

// Checker aggregates health checks for multiple components.
type Checker struct {
	log    *slog.Logger
	checks map[string]Checkable
}

// NewChecker instantiates a Checker with the provided logger.
func NewChecker(log *slog.Logger) *Checker {
	return &Checker{
		log:    log,
		checks: make(map[string]Checkable),
	}
}

// AddCheck registers a checkable component by name.
func (c *Checker) AddCheck(name string, check Checkable) {
	if name == "" || check == nil {
		return
	}
	c.checks[name] = check
}

// Check runs all registered health checks and returns their statuses.
func (c *Checker) Check(ctx context.Context) map[string]string {
	results := make(map[string]string, len(c.checks))

	for name, check := range c.checks {
		if err := check.HealthCheck(ctx); err != nil {
			results[name] = err.Error()
			if c.log != nil {
				c.log.Error("health check failed", slog.String("component", name), slog.Any("error", err))
			}
			continue
		}

		results[name] = "OK"
	}

	return results
}

// Healthy reports whether every registered check passed.
func (c *Checker) Healthy(ctx context.Context) bool {
	return AllOK(c.Check(ctx))
}

// AllOK reports whether an already-collected result set is fully healthy,
// so callers holding a Check result do not have to re-run the checks.
func AllOK(results map[string]string) bool {
	for _, status := range results {
		if status != "OK" {
			return false
		}
	}

	return true
}
