package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/dmitrijs2005/gophledger/internal/logging"
	"github.com/dmitrijs2005/gophledger/internal/server/docstore"
	"github.com/dmitrijs2005/gophledger/internal/server/entitlements"
	"github.com/dmitrijs2005/gophledger/internal/server/identity"
	"github.com/dmitrijs2005/gophledger/internal/server/models"
)

// ReconcileOptions enables the optional repairs of an audit. Without them
// findings are only reported.
type ReconcileOptions struct {
	// RepairProfiles deletes profile, ledger and subscription documents of
	// uids that have no identity.
	RepairProfiles bool
	// RepairData batch-deletes dependent records whose owner has no
	// identity.
	RepairData bool
}

// Reconciler keeps profiles and ledgers in line with the identity
// provider. It takes no lock: callers must not run two reconciliations,
// or a reconciliation and a bulk reset, at the same time.
type Reconciler struct {
	ids      identity.Source
	docs     docstore.Store
	settings Settings
	logger   logging.Logger
	env      runEnv
}

func NewReconciler(ids identity.Source, docs docstore.Store, settings Settings, logger logging.Logger) *Reconciler {
	return &Reconciler{ids: ids, docs: docs, settings: settings, logger: logger, env: defaultRunEnv()}
}

// snapshot is the state read at the start of a run.
type snapshot struct {
	identities map[string]models.IdentityRecord
	profiles   map[string]map[string]any
	ledgers    map[string]struct{}
}

func (r *Reconciler) readSnapshot(ctx context.Context) (*snapshot, error) {
	records, err := identity.ListAll(ctx, r.ids, r.settings.IdentityPageSize)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	profiles, err := r.docs.List(ctx, models.CollectionUsers)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	ledgers, err := r.docs.List(ctx, models.CollectionEntitlements)
	if err != nil {
		return nil, fmt.Errorf("list ledgers: %w", err)
	}

	s := &snapshot{
		identities: make(map[string]models.IdentityRecord, len(records)),
		profiles:   make(map[string]map[string]any, len(profiles)),
		ledgers:    make(map[string]struct{}, len(ledgers)),
	}
	for _, rec := range records {
		s.identities[rec.UID] = rec
	}
	for _, p := range profiles {
		s.profiles[p.ID] = p.Fields
	}
	for _, l := range ledgers {
		s.ledgers[l.ID] = struct{}{}
	}
	return s, nil
}

// Reconcile backfills missing profiles and ledgers, refreshes mirrored
// identity fields on existing profiles and then audits the result.
//
// Per-uid write failures are counted under Errors and listed in Failures;
// they never stop the run. A failure to read a whole collection aborts the
// run and is returned together with the partially filled report.
func (r *Reconciler) Reconcile(ctx context.Context, opts ReconcileOptions) (*ReconciliationReport, error) {
	report := &ReconciliationReport{
		RunID:           r.env.runID(),
		StartedAt:       r.env.now(),
		Failures:        []Failure{},
		Inconsistencies: newInconsistencies(),
	}
	log := r.logger.With("run_id", report.RunID, "op", "reconcile")
	finish := func() { report.FinishedAt = r.env.now() }

	snap, err := r.readSnapshot(ctx)
	if err != nil {
		finish()
		log.Error(ctx, "reconcile aborted", "error", err)
		return report, err
	}
	report.TotalIdentities = len(snap.identities)
	report.TotalProfiles = len(snap.profiles)

	uids := make([]string, 0, len(snap.identities))
	for uid := range snap.identities {
		uids = append(uids, uid)
	}
	sort.Strings(uids)

	var mu sync.Mutex
	forEachUID(ctx, uids, r.settings.concurrency(), func(ctx context.Context, uid string) {
		out := r.reconcileUID(ctx, snap, uid)

		mu.Lock()
		defer mu.Unlock()
		if out.err != nil {
			report.Errors++
			report.Failures = append(report.Failures, Failure{UID: uid, Op: out.op, Error: out.err.Error()})
			log.Warn(ctx, "reconcile uid failed", "uid", uid, "op", out.op, "error", out.err)
			return
		}
		if out.backfilled {
			report.Synced++
		} else {
			report.AlreadyExists++
		}
		if out.updated {
			report.Updated++
		}
		if out.ledgerCreated {
			report.LedgersCreated++
		}
	})
	sortFailures(report.Failures)

	audit, err := r.audit(ctx, snap.identities, opts)
	if err != nil {
		finish()
		log.Error(ctx, "post-reconcile audit failed", "error", err)
		return report, err
	}
	report.Inconsistencies = audit.findings
	report.Repairs = audit.repairs
	finish()

	if n := len(report.IdentityWithoutProfile); n > 0 {
		log.Error(ctx, "identities still without profile after backfill", "count", n)
	}
	log.Info(ctx, "reconcile finished",
		"identities", report.TotalIdentities,
		"synced", report.Synced,
		"already_exists", report.AlreadyExists,
		"updated", report.Updated,
		"errors", report.Errors,
		"profile_without_identity", len(report.ProfileWithoutIdentity),
		"data_without_identity", len(report.DataWithoutIdentity),
	)
	return report, nil
}

type uidOutcome struct {
	backfilled    bool
	updated       bool
	ledgerCreated bool
	op            string
	err           error
}

// reconcileUID writes what one identity needs in a single atomic batch.
// Backfills use create-if-absent so a profile written concurrently by a
// login is never overwritten.
func (r *Reconciler) reconcileUID(ctx context.Context, snap *snapshot, uid string) uidOutcome {
	rec := snap.identities[uid]
	now := r.env.now()
	_, hasLedger := snap.ledgers[uid]

	var (
		ops []docstore.WriteOp
		out uidOutcome
	)

	stored, hasProfile := snap.profiles[uid]
	if !hasProfile {
		profile := models.NewProfile(rec, r.settings.seed())
		ops = append(ops, docstore.Create(models.CollectionUsers, uid, profile.Fields()))
		if !hasLedger {
			ledger := entitlements.NewLedger(uid, profile.FreeUnitsRemaining, now)
			ops = append(ops, docstore.Create(models.CollectionEntitlements, uid, ledger.Fields()))
			out.ledgerCreated = true
		}
		out.backfilled = true
		out.op = "backfill"
	} else {
		changes := models.MirrorChanges(stored, models.MirrorFields(rec))
		units, seeded := storedUnits(stored)
		if !seeded {
			// seed-once: only a missing or non-numeric balance is written
			units = r.settings.seed()
			changes[models.FieldFreeUnitsRemaining] = units
		}
		if models.String(stored, models.FieldPlan) == "" {
			changes[models.FieldPlan] = string(models.PlanFree)
		}
		if len(changes) > 0 {
			ops = append(ops, docstore.Update(models.CollectionUsers, uid, changes))
			out.updated = true
		}
		if !hasLedger {
			ledger := entitlements.NewLedger(uid, units, now)
			ops = append(ops, docstore.Create(models.CollectionEntitlements, uid, ledger.Fields()))
			out.ledgerCreated = true
		}
		out.op = "refresh"
	}

	if len(ops) == 0 {
		return out
	}
	if err := r.docs.BatchWrite(ctx, ops); err != nil {
		return uidOutcome{op: out.op, err: err}
	}
	return out
}

// Audit reports divergences without touching profiles of live identities.
// Repairs run only when requested in opts.
func (r *Reconciler) Audit(ctx context.Context, opts ReconcileOptions) (*AuditReport, error) {
	report := &AuditReport{
		RunID:           r.env.runID(),
		StartedAt:       r.env.now(),
		Inconsistencies: newInconsistencies(),
	}
	log := r.logger.With("run_id", report.RunID, "op", "audit")

	records, err := identity.ListAll(ctx, r.ids, r.settings.IdentityPageSize)
	if err != nil {
		report.FinishedAt = r.env.now()
		log.Error(ctx, "audit aborted", "error", err)
		return report, fmt.Errorf("list identities: %w", err)
	}
	identities := make(map[string]models.IdentityRecord, len(records))
	for _, rec := range records {
		identities[rec.UID] = rec
	}
	report.TotalIdentities = len(identities)

	res, err := r.audit(ctx, identities, opts)
	report.FinishedAt = r.env.now()
	if err != nil {
		log.Error(ctx, "audit aborted", "error", err)
		return report, err
	}
	report.TotalProfiles = res.profiles
	report.Inconsistencies = res.findings
	report.Repairs = res.repairs

	log.Info(ctx, "audit finished",
		"identities", report.TotalIdentities,
		"identity_without_profile", len(report.IdentityWithoutProfile),
		"profile_without_identity", len(report.ProfileWithoutIdentity),
		"data_without_identity", len(report.DataWithoutIdentity),
	)
	return report, nil
}

type auditResult struct {
	profiles int
	findings Inconsistencies
	repairs  *RepairSummary
}

// audit re-reads profiles and dependent collections and compares them with
// the identity set.
func (r *Reconciler) audit(ctx context.Context, identities map[string]models.IdentityRecord, opts ReconcileOptions) (auditResult, error) {
	res := auditResult{findings: newInconsistencies()}

	profiles, err := r.docs.List(ctx, models.CollectionUsers)
	if err != nil {
		return res, fmt.Errorf("list profiles: %w", err)
	}
	res.profiles = len(profiles)

	profileUIDs := make(map[string]struct{}, len(profiles))
	for _, p := range profiles {
		profileUIDs[p.ID] = struct{}{}
		if _, ok := identities[p.ID]; !ok {
			res.findings.ProfileWithoutIdentity = append(res.findings.ProfileWithoutIdentity, p.ID)
		}
	}
	for uid := range identities {
		if _, ok := profileUIDs[uid]; !ok {
			res.findings.IdentityWithoutProfile = append(res.findings.IdentityWithoutProfile, uid)
		}
	}

	owner := r.settings.ownerField()
	for _, coll := range r.settings.DependentCollections {
		docs, err := r.docs.List(ctx, coll)
		if err != nil {
			return res, fmt.Errorf("list %s: %w", coll, err)
		}
		for _, d := range docs {
			ownerUID := models.String(d.Fields, owner)
			if _, ok := identities[ownerUID]; !ok {
				res.findings.DataWithoutIdentity = append(res.findings.DataWithoutIdentity,
					models.DependentRecord{Collection: coll, ID: d.ID, OwnerUID: ownerUID})
			}
		}
	}
	res.findings.sort()

	if opts.RepairProfiles || opts.RepairData {
		res.repairs = r.repair(ctx, res.findings, opts)
	}
	return res, nil
}

func (r *Reconciler) repair(ctx context.Context, findings Inconsistencies, opts ReconcileOptions) *RepairSummary {
	summary := &RepairSummary{DependentsDeleted: map[string]int{}, Failures: []Failure{}}

	if opts.RepairProfiles {
		var mu sync.Mutex
		forEachUID(ctx, findings.ProfileWithoutIdentity, r.settings.concurrency(), func(ctx context.Context, uid string) {
			err := r.docs.BatchWrite(ctx, []docstore.WriteOp{
				docstore.Delete(models.CollectionUsers, uid),
				docstore.Delete(models.CollectionEntitlements, uid),
				docstore.Delete(models.CollectionSubscriptions, uid),
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Failures = append(summary.Failures, Failure{UID: uid, Op: "delete-profile", Error: err.Error()})
				return
			}
			summary.ProfilesDeleted++
		})
	}

	if opts.RepairData {
		byCollection := map[string][]string{}
		for _, d := range findings.DataWithoutIdentity {
			byCollection[d.Collection] = append(byCollection[d.Collection], d.ID)
		}
		for coll, ids := range byCollection {
			n, err := r.docs.BatchDelete(ctx, coll, ids)
			if err != nil {
				summary.Failures = append(summary.Failures, Failure{Op: "delete-" + coll, Error: err.Error()})
				continue
			}
			summary.DependentsDeleted[coll] = n
		}
	}

	sortFailures(summary.Failures)
	return summary
}

// storedUnits reports whether the profile already holds a finite balance,
// and the whole units a fresh ledger may start from.
func storedUnits(fields map[string]any) (int64, bool) {
	if n, ok := models.Int(fields, models.FieldFreeUnitsRemaining); ok {
		return n, true
	}
	f, ok := models.Number(fields, models.FieldFreeUnitsRemaining)
	if !ok {
		return 0, false
	}
	if f >= math.MaxInt64 {
		return math.MaxInt64, true
	}
	return int64(math.Floor(f)), true
}
