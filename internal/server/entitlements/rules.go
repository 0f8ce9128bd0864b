// Package entitlements holds the access rule every request handler must
// use: a user may proceed when their ledger is unlimited or still has units.
package entitlements

import (
	"time"

	"github.com/dmitrijs2005/gophledger/internal/server/models"
)

// HasAccess reports whether the ledger grants access.
func HasAccess(l models.EntitlementLedger) bool {
	return l.Unlimited || l.UnitsAvailable > 0
}

// Consume takes one unit from the ledger. Unlimited ledgers are returned
// unchanged with ok=true; exhausted ledgers are returned unchanged with
// ok=false.
func Consume(l models.EntitlementLedger) (models.EntitlementLedger, bool) {
	if l.Unlimited {
		return l, true
	}
	if l.UnitsAvailable > 0 {
		l.UnitsAvailable--
		return l, true
	}
	return l, false
}

// Baseline is the ledger state a bulk reset writes.
func Baseline(uid string, units int64, now time.Time) models.EntitlementLedger {
	return models.EntitlementLedger{
		UID:            uid,
		UnitsAvailable: units,
		Unlimited:      false,
		CanEdit:        false,
		UpdatedAt:      now,
	}
}

// NewLedger is the ledger created alongside a profile, seeded from the
// profile's free units.
func NewLedger(uid string, seed int64, now time.Time) models.EntitlementLedger {
	if seed < 0 {
		seed = 0
	}
	return Baseline(uid, seed, now)
}
