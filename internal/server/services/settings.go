// Package services holds the administrative operations of gophledger:
// reconciliation of identities against profiles, cascading user deletion,
// bulk entitlement reset and ledger access. Each operation is a plain
// method returning a structured report, callable from the admin HTTP and
// gRPC surfaces, the CLI or a scheduled job.
package services

import (
	"time"

	"github.com/dmitrijs2005/gophledger/internal/idgen"
	"github.com/dmitrijs2005/gophledger/internal/server/config"
)

// Settings carries the knobs shared by the services.
type Settings struct {
	IdentityPageSize     int
	WriteConcurrency     int
	FreeUnitsSeed        int64
	DependentCollections []string
	OwnerField           string
}

// NewSettings extracts service settings from the server config. A negative
// seed is clamped to zero so profiles, ledgers and default resets agree.
func NewSettings(cfg *config.Config) Settings {
	return Settings{
		IdentityPageSize:     cfg.IdentityPageSize,
		WriteConcurrency:     cfg.WriteConcurrency,
		FreeUnitsSeed:        max(int64(cfg.FreeUnitsSeed), 0),
		DependentCollections: cfg.DependentCollections,
		OwnerField:           cfg.OwnerField,
	}
}

func (s Settings) concurrency() int {
	if s.WriteConcurrency < 1 {
		return 1
	}
	return s.WriteConcurrency
}

// seed is the balance given to profiles and ledgers that have none.
func (s Settings) seed() int64 {
	return max(s.FreeUnitsSeed, 0)
}

func (s Settings) ownerField() string {
	if s.OwnerField == "" {
		return "userId"
	}
	return s.OwnerField
}

// clock and run ID sources, replaced in tests.
type runEnv struct {
	now   func() time.Time
	runID func() string
}

func defaultRunEnv() runEnv {
	return runEnv{
		now:   func() time.Time { return time.Now().UTC() },
		runID: idgen.RunID,
	}
}
