// Package models defines the records gophledger reads and writes: identity
// records owned by the identity provider, and the profile, ledger and
// dependent documents held in the document store. Documents travel as
// field maps; the helpers here convert them to typed values and back.
package models

// Collection names used by the engine. Dependent collections are
// configured separately.
const (
	CollectionUsers         = "users"
	CollectionEntitlements  = "entitlements"
	CollectionSubscriptions = "subscriptions"
)

// Plan is the product tier mirrored on a profile.
type Plan string

const (
	PlanFree Plan = "free"
	PlanPaid Plan = "paid"
)
