package models

import "time"

// Ledger document field names.
const (
	FieldUnitsAvailable = "unitsAvailable"
	FieldUnlimited      = "unlimited"
	FieldCanEdit        = "canEdit"
	FieldUpdatedAt      = "updatedAt"
)

// EntitlementLedger is the per-user document in the entitlements
// collection. When Unlimited is set, UnitsAvailable is not used for access
// decisions.
type EntitlementLedger struct {
	UID            string    `json:"uid"`
	UnitsAvailable int64     `json:"unitsAvailable"`
	Unlimited      bool      `json:"unlimited"`
	CanEdit        bool      `json:"canEdit"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Fields encodes the ledger as a complete document body.
func (l EntitlementLedger) Fields() map[string]any {
	m := map[string]any{
		FieldUnitsAvailable: l.UnitsAvailable,
		FieldUnlimited:      l.Unlimited,
		FieldCanEdit:        l.CanEdit,
	}
	if !l.UpdatedAt.IsZero() {
		m[FieldUpdatedAt] = Timestamp(l.UpdatedAt)
	}
	return m
}

// LedgerFromFields decodes a stored ledger. Provider-specific fields are
// ignored.
func LedgerFromFields(uid string, fields map[string]any) EntitlementLedger {
	units, _ := Int(fields, FieldUnitsAvailable)
	return EntitlementLedger{
		UID:            uid,
		UnitsAvailable: units,
		Unlimited:      Bool(fields, FieldUnlimited),
		CanEdit:        Bool(fields, FieldCanEdit),
		UpdatedAt:      Time(fields, FieldUpdatedAt),
	}
}
