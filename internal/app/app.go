// Package app bundles the assembled services behind one composition root.
// An interactive surface embeds App instead of wiring the layers itself.
package app

import (
	"github.com/pakreward/rewards-service/internal/apperr"
	"github.com/pakreward/rewards-service/internal/auth"
	"github.com/pakreward/rewards-service/internal/engine"
	"github.com/pakreward/rewards-service/internal/ledger"
	"github.com/pakreward/rewards-service/internal/session"
	"github.com/pakreward/rewards-service/internal/store"
	"github.com/pakreward/rewards-service/internal/withdrawals"
)

// App exposes the service layers an embedding surface needs. Errors is the
// terminal error handler: surfaces pass every operation error through
// Errors.Handle and show the returned notice.
type App struct {
	Auth        *auth.Service
	Engine      *engine.Engine
	Sessions    *session.Manager
	Ledger      *ledger.Service
	Withdrawals *withdrawals.Service
	Store       store.Store
	Errors      *apperr.Handler
}
