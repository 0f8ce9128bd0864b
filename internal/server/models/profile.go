package models

import "time"

// Profile document field names.
const (
	FieldEmail              = "email"
	FieldDisplayName        = "displayName"
	FieldEmailVerified      = "emailVerified"
	FieldDisabled           = "disabled"
	FieldCreatedAt          = "createdAt"
	FieldLastActiveAt       = "lastActiveAt"
	FieldPlan               = "plan"
	FieldFreeUnitsRemaining = "freeUnitsRemaining"
)

// ProfileDocument is the per-user document in the users collection.
type ProfileDocument struct {
	UID                string
	Email              string
	DisplayName        string
	EmailVerified      bool
	Disabled           bool
	CreatedAt          time.Time
	LastActiveAt       time.Time
	Plan               Plan
	FreeUnitsRemaining int64
}

// NewProfile synthesizes the profile backfilled for an identity that has
// none: mirrors copied from the identity, free plan, seed units.
func NewProfile(rec IdentityRecord, seed int64) ProfileDocument {
	p := ProfileDocument{
		UID:                rec.UID,
		Email:              rec.Email,
		DisplayName:        rec.DisplayName,
		EmailVerified:      rec.EmailVerified,
		Disabled:           rec.Disabled,
		CreatedAt:          rec.CreatedAt,
		Plan:               PlanFree,
		FreeUnitsRemaining: seed,
	}
	if rec.LastSignInAt != nil {
		p.LastActiveAt = *rec.LastSignInAt
	}
	return p
}

// Fields encodes the profile as a document body.
func (p ProfileDocument) Fields() map[string]any {
	m := map[string]any{
		FieldEmail:              p.Email,
		FieldDisplayName:        p.DisplayName,
		FieldEmailVerified:      p.EmailVerified,
		FieldDisabled:           p.Disabled,
		FieldPlan:               string(p.Plan),
		FieldFreeUnitsRemaining: p.FreeUnitsRemaining,
	}
	if !p.CreatedAt.IsZero() {
		m[FieldCreatedAt] = Timestamp(p.CreatedAt)
	}
	if !p.LastActiveAt.IsZero() {
		m[FieldLastActiveAt] = Timestamp(p.LastActiveAt)
	}
	return m
}

// ProfileFromFields decodes a stored profile. Missing fields take their
// zero values.
func ProfileFromFields(uid string, fields map[string]any) ProfileDocument {
	units, _ := Int(fields, FieldFreeUnitsRemaining)
	return ProfileDocument{
		UID:                uid,
		Email:              String(fields, FieldEmail),
		DisplayName:        String(fields, FieldDisplayName),
		EmailVerified:      Bool(fields, FieldEmailVerified),
		Disabled:           Bool(fields, FieldDisabled),
		CreatedAt:          Time(fields, FieldCreatedAt),
		LastActiveAt:       Time(fields, FieldLastActiveAt),
		Plan:               Plan(String(fields, FieldPlan)),
		FreeUnitsRemaining: units,
	}
}

// MirrorFields returns the profile fields that track the identity record.
func MirrorFields(rec IdentityRecord) map[string]any {
	return map[string]any{
		FieldEmail:         rec.Email,
		FieldDisplayName:   rec.DisplayName,
		FieldEmailVerified: rec.EmailVerified,
		FieldDisabled:      rec.Disabled,
	}
}

// MirrorChanges returns the subset of want whose values differ from the
// stored document. An empty result means the mirrors are current.
func MirrorChanges(stored, want map[string]any) map[string]any {
	changes := map[string]any{}
	for k, v := range want {
		cur, ok := stored[k]
		if !ok {
			// absent string mirrors read as "" and absent flags as false
			if v == "" || v == false {
				continue
			}
			changes[k] = v
			continue
		}
		if cur != v {
			changes[k] = v
		}
	}
	return changes
}
