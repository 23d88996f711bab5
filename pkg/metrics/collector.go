// Package metrics exposes Prometheus collectors for the rewards service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ledgerOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Total number of ledger operations labeled by operation and status",
		},
		[]string{"operation", "status"},
	)
	ledgerOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_operation_duration_seconds",
			Help:    "Duration of ledger operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	coinsAwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coins_awarded_total",
			Help: "Total coins credited to accounts by source",
		},
		[]string{"source"},
	)
	coinsSpentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coins_spent_total",
			Help: "Total coins debited from accounts by reason",
		},
		[]string{"reason"},
	)
	gameOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "game_outcomes_total",
			Help: "Total number of game outcomes generated per game",
		},
		[]string{"game"},
	)
	withdrawalRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "withdrawal_requests_total",
			Help: "Total number of withdrawal requests by status",
		},
		[]string{"status"},
	)
	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_sessions",
			Help: "Current number of resolved active sessions",
		},
	)
)

// RecordLedgerOp increments operation counters and records duration.
func RecordLedgerOp(operation, status string, duration time.Duration) {
	if operation == "" {
		operation = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	ledgerOperationsTotal.WithLabelValues(operation, status).Inc()
	ledgerOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCoinsAwarded tracks coins credited by a reward source.
func RecordCoinsAwarded(source string, amount int64) {
	if amount <= 0 {
		return
	}

	coinsAwardedTotal.WithLabelValues(source).Add(float64(amount))
}

// RecordCoinsSpent tracks coins debited for a reason.
func RecordCoinsSpent(reason string, amount int64) {
	if amount <= 0 {
		return
	}

	coinsSpentTotal.WithLabelValues(reason).Add(float64(amount))
}

// RecordGameOutcome counts generated outcomes per game.
func RecordGameOutcome(game string) {
	gameOutcomesTotal.WithLabelValues(game).Inc()
}

// RecordWithdrawal counts withdrawal requests by lifecycle status.
func RecordWithdrawal(status string) {
	withdrawalRequestsTotal.WithLabelValues(status).Inc()
}

// SetActiveSessions updates the resolved-session gauge.
func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}
