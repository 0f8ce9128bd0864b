package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophledger/internal/common"
	"github.com/dmitrijs2005/gophledger/internal/logging"
	"github.com/dmitrijs2005/gophledger/internal/server/docstore"
	"github.com/dmitrijs2005/gophledger/internal/server/entitlements"
	"github.com/dmitrijs2005/gophledger/internal/server/models"
)

// ResetOperator resets every ledger to a baseline. Like Reconciler it
// takes no lock and must not run concurrently with a reconciliation.
type ResetOperator struct {
	docs     docstore.Store
	settings Settings
	logger   logging.Logger
	env      runEnv
}

func NewResetOperator(docs docstore.Store, settings Settings, logger logging.Logger) *ResetOperator {
	return &ResetOperator{docs: docs, settings: settings, logger: logger, env: defaultRunEnv()}
}

// ResetAllEntitlements iterates the ledger collection, not the identity
// provider, so ledgers of deleted identities are reset too. For each uid
// one atomic batch replaces the ledger with the baseline (dropping
// provider-specific fields), sets the profile plan to free with baseline
// free units if the profile exists, and removes the subscription.
func (o *ResetOperator) ResetAllEntitlements(ctx context.Context, baseline int64) (*ResetReport, error) {
	if baseline < 0 {
		return nil, fmt.Errorf("%w: negative baseline %d", common.ErrInvalidArgument, baseline)
	}

	report := &ResetReport{
		RunID:     o.env.runID(),
		StartedAt: o.env.now(),
		Baseline:  baseline,
		Outcomes:  map[string]ResetOutcome{},
	}
	log := o.logger.With("run_id", report.RunID, "op", "reset-entitlements")

	ledgers, err := o.docs.List(ctx, models.CollectionEntitlements)
	if err != nil {
		report.FinishedAt = o.env.now()
		log.Error(ctx, "reset aborted", "error", err)
		return report, fmt.Errorf("list ledgers: %w", err)
	}
	uids := docstore.IDs(ledgers)
	report.Total = len(uids)

	var mu sync.Mutex
	forEachUID(ctx, uids, o.settings.concurrency(), func(ctx context.Context, uid string) {
		err := o.docs.BatchWrite(ctx, o.resetOps(uid, baseline))

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			report.Failed++
			report.Outcomes[uid] = ResetOutcome{OK: false, Error: err.Error()}
			log.Warn(ctx, "reset uid failed", "uid", uid, "error", err)
			return
		}
		report.Succeeded++
		report.Outcomes[uid] = ResetOutcome{OK: true}
	})
	report.FinishedAt = o.env.now()

	log.Info(ctx, "reset finished", "baseline", baseline, "total", report.Total,
		"succeeded", report.Succeeded, "failed", report.Failed)
	return report, nil
}

func (o *ResetOperator) resetOps(uid string, baseline int64) []docstore.WriteOp {
	ledger := entitlements.Baseline(uid, baseline, o.env.now())
	return []docstore.WriteOp{
		docstore.Set(models.CollectionEntitlements, uid, ledger.Fields(), false),
		docstore.Update(models.CollectionUsers, uid, map[string]any{
			models.FieldPlan:               string(models.PlanFree),
			models.FieldFreeUnitsRemaining: baseline,
		}),
		docstore.Delete(models.CollectionSubscriptions, uid),
	}
}
