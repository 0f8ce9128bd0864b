package models

import "time"

// IdentityRecord is an account as known to the identity provider.
type IdentityRecord struct {
	UID           string     `db:"uid" json:"uid"`
	Email         string     `db:"email" json:"email,omitempty"`
	DisplayName   string     `db:"display_name" json:"displayName,omitempty"`
	EmailVerified bool       `db:"email_verified" json:"emailVerified"`
	Disabled      bool       `db:"disabled" json:"disabled"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	LastSignInAt  *time.Time `db:"last_sign_in_at" json:"lastSignInAt,omitempty"`
}

// DependentRecord identifies a document in a dependent collection and the
// uid it claims to belong to.
type DependentRecord struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
	OwnerUID   string `json:"ownerUid"`
}
