package service

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// ledgerGuard halts mutation on trips whose capacity ledger has been caught
// violating its invariant (counters negative, or held/committed exceeding
// total). A violation means the materialized counters no longer agree with
// reality; continuing to sell against them could oversell, so the trip is
// frozen until an operator reconciles it.
type ledgerGuard struct {
	mu     sync.RWMutex
	halted map[string]struct{}
	logger *logrus.Logger
}

func newLedgerGuard(logger *logrus.Logger) *ledgerGuard {
	return &ledgerGuard{
		halted: make(map[string]struct{}),
		logger: logger,
	}
}

// check returns ErrTripQuarantined if the trip is frozen.
func (g *ledgerGuard) check(tripID string) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if _, ok := g.halted[tripID]; ok {
		return ErrTripQuarantined
	}
	return nil
}

// quarantine freezes a trip and alerts the operator. Idempotent.
func (g *ledgerGuard) quarantine(tripID string, cause error) {
	g.mu.Lock()
	_, already := g.halted[tripID]
	g.halted[tripID] = struct{}{}
	g.mu.Unlock()

	if !already {
		g.logger.WithFields(logrus.Fields{
			"trip_id": tripID,
			"cause":   cause,
		}).Error("capacity ledger invariant violated; trip quarantined, operator action required")
	}
}

// Quarantined reports whether a trip is currently frozen.
func (g *ledgerGuard) Quarantined(tripID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.halted[tripID]
	return ok
}
