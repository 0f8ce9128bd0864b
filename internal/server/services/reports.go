package services

import (
	"sort"
	"time"

	"github.com/dmitrijs2005/gophledger/internal/server/models"
)

// Failure is a per-uid error captured in a report.
type Failure struct {
	UID   string `json:"uid"`
	Op    string `json:"op"`
	Error string `json:"error"`
}

// Inconsistencies lists the divergences found between identities,
// profiles and dependent records.
type Inconsistencies struct {
	IdentityWithoutProfile []string                 `json:"identityWithoutProfile"`
	ProfileWithoutIdentity []string                 `json:"profileWithoutIdentity"`
	DataWithoutIdentity    []models.DependentRecord `json:"dataWithoutIdentity"`
}

// RepairSummary counts what an audit removed when repair was requested.
type RepairSummary struct {
	ProfilesDeleted   int            `json:"profilesDeleted"`
	DependentsDeleted map[string]int `json:"dependentsDeleted"`
	Failures          []Failure      `json:"failures"`
}

// ReconciliationReport is the result of a reconcile run.
type ReconciliationReport struct {
	RunID      string    `json:"runId"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	TotalIdentities int `json:"totalIdentities"`
	TotalProfiles   int `json:"totalProfiles"`
	Synced          int `json:"synced"`
	AlreadyExists   int `json:"alreadyExists"`
	Updated         int `json:"updated"`
	LedgersCreated  int `json:"ledgersCreated"`
	Errors          int `json:"errors"`

	Failures []Failure `json:"failures"`
	Inconsistencies
	Repairs *RepairSummary `json:"repairs,omitempty"`
}

// AuditReport is the result of a standalone audit.
type AuditReport struct {
	RunID      string    `json:"runId"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	TotalIdentities int `json:"totalIdentities"`
	TotalProfiles   int `json:"totalProfiles"`
	Inconsistencies
	Repairs *RepairSummary `json:"repairs,omitempty"`
}

// ResetOutcome is the per-uid result of a bulk reset.
type ResetOutcome struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// ResetReport is the result of ResetAllEntitlements.
type ResetReport struct {
	RunID      string    `json:"runId"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	Baseline  int64                   `json:"baseline"`
	Total     int                     `json:"total"`
	Succeeded int                     `json:"succeeded"`
	Failed    int                     `json:"failed"`
	Outcomes  map[string]ResetOutcome `json:"outcomes"`
}

// DeleteResult describes what a cascading delete removed. Deleted maps a
// collection name (or "objects") to the number of items removed.
type DeleteResult struct {
	RunID                 string         `json:"runId"`
	UID                   string         `json:"uid"`
	IdentityAlreadyAbsent bool           `json:"identityAlreadyAbsent"`
	Deleted               map[string]int `json:"deleted"`
	Residue               []string       `json:"residue,omitempty"`
}

func newInconsistencies() Inconsistencies {
	return Inconsistencies{
		IdentityWithoutProfile: []string{},
		ProfileWithoutIdentity: []string{},
		DataWithoutIdentity:    []models.DependentRecord{},
	}
}

func (in *Inconsistencies) sort() {
	sort.Strings(in.IdentityWithoutProfile)
	sort.Strings(in.ProfileWithoutIdentity)
	sort.Slice(in.DataWithoutIdentity, func(i, j int) bool {
		a, b := in.DataWithoutIdentity[i], in.DataWithoutIdentity[j]
		if a.Collection != b.Collection {
			return a.Collection < b.Collection
		}
		return a.ID < b.ID
	})
}

func sortFailures(f []Failure) {
	sort.Slice(f, func(i, j int) bool {
		if f[i].UID != f[j].UID {
			return f[i].UID < f[j].UID
		}
		return f[i].Op < f[j].Op
	})
}
