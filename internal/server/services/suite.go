package services

import (
	"context"

	"github.com/dmitrijs2005/gophledger/internal/logging"
	"github.com/dmitrijs2005/gophledger/internal/server/docstore"
	"github.com/dmitrijs2005/gophledger/internal/server/identity"
	"github.com/dmitrijs2005/gophledger/internal/server/objects"
)

// Admin is the set of operations the admin surfaces and the CLI expose.
type Admin interface {
	Reconcile(ctx context.Context, opts ReconcileOptions) (*ReconciliationReport, error)
	Audit(ctx context.Context, opts ReconcileOptions) (*AuditReport, error)
	ResetAllEntitlements(ctx context.Context, baseline int64) (*ResetReport, error)
	DeleteUser(ctx context.Context, uid string) (*DeleteResult, error)
	Check(ctx context.Context, uid string) (AccessDecision, error)
	ConsumeUnit(ctx context.Context, uid string) (ConsumeResult, error)
}

// Suite binds every service to one set of adapters.
type Suite struct {
	*Reconciler
	*ResetOperator
	*DeleteCoordinator
	*LedgerService

	Settings Settings
}

var _ Admin = (*Suite)(nil)

// NewSuite builds all services. objs may be nil.
func NewSuite(ids identity.Source, docs docstore.Store, objs objects.Store, settings Settings, logger logging.Logger) *Suite {
	return &Suite{
		Reconciler:        NewReconciler(ids, docs, settings, logger),
		ResetOperator:     NewResetOperator(docs, settings, logger),
		DeleteCoordinator: NewDeleteCoordinator(ids, docs, objs, settings, logger),
		LedgerService:     NewLedgerService(docs, logger),
		Settings:          settings,
	}
}
