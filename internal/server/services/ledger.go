package services

import (
	"context"
	"errors"
	"maps"

	"github.com/dmitrijs2005/gophledger/internal/logging"
	"github.com/dmitrijs2005/gophledger/internal/server/docstore"
	"github.com/dmitrijs2005/gophledger/internal/server/entitlements"
	"github.com/dmitrijs2005/gophledger/internal/server/models"
)

// AccessDecision is the answer to "may this user proceed".
type AccessDecision struct {
	UID     string                   `json:"uid"`
	Allowed bool                     `json:"allowed"`
	Ledger  models.EntitlementLedger `json:"ledger"`
}

// ConsumeResult reports whether a unit was taken and the ledger after it.
type ConsumeResult struct {
	OK     bool                     `json:"ok"`
	Ledger models.EntitlementLedger `json:"ledger"`
}

// LedgerService applies the entitlement rules to stored ledgers.
type LedgerService struct {
	docs   docstore.Store
	logger logging.Logger
	env    runEnv
}

func NewLedgerService(docs docstore.Store, logger logging.Logger) *LedgerService {
	return &LedgerService{docs: docs, logger: logger, env: defaultRunEnv()}
}

// Get returns the ledger for uid, or common.ErrorNotFound.
func (s *LedgerService) Get(ctx context.Context, uid string) (models.EntitlementLedger, error) {
	doc, err := s.docs.Get(ctx, models.CollectionEntitlements, uid)
	if err != nil {
		return models.EntitlementLedger{}, err
	}
	return models.LedgerFromFields(uid, doc.Fields), nil
}

// Check evaluates entitlements.HasAccess on the stored ledger.
func (s *LedgerService) Check(ctx context.Context, uid string) (AccessDecision, error) {
	l, err := s.Get(ctx, uid)
	if err != nil {
		return AccessDecision{}, err
	}
	return AccessDecision{UID: uid, Allowed: entitlements.HasAccess(l), Ledger: l}, nil
}

var errNoUnits = errors.New("no units available")

// ConsumeUnit applies entitlements.Consume inside a single atomic
// read-modify-write. An exhausted ledger is left untouched and reported
// with OK false; that is not an error.
func (s *LedgerService) ConsumeUnit(ctx context.Context, uid string) (ConsumeResult, error) {
	var before models.EntitlementLedger
	doc, err := s.docs.Transform(ctx, models.CollectionEntitlements, uid, func(doc docstore.Document) (map[string]any, error) {
		before = models.LedgerFromFields(uid, doc.Fields)
		after, ok := entitlements.Consume(before)
		if !ok {
			return nil, errNoUnits
		}
		fields := maps.Clone(doc.Fields)
		if !after.Unlimited {
			fields[models.FieldUnitsAvailable] = after.UnitsAvailable
			fields[models.FieldUpdatedAt] = models.Timestamp(s.env.now())
		}
		return fields, nil
	})
	if errors.Is(err, errNoUnits) {
		return ConsumeResult{OK: false, Ledger: before}, nil
	}
	if err != nil {
		return ConsumeResult{}, err
	}

	after := models.LedgerFromFields(uid, doc.Fields)
	s.logger.Debug(ctx, "unit consumed", "uid", uid, "units_available", after.UnitsAvailable, "unlimited", after.Unlimited)
	return ConsumeResult{OK: true, Ledger: after}, nil
}
