package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophledger/internal/common"
	"github.com/dmitrijs2005/gophledger/internal/logging"
	"github.com/dmitrijs2005/gophledger/internal/server/docstore"
	"github.com/dmitrijs2005/gophledger/internal/server/identity"
	"github.com/dmitrijs2005/gophledger/internal/server/models"
	"github.com/dmitrijs2005/gophledger/internal/server/objects"
)

// ResidueIdentity and ResidueObjects name non-collection residue.
const (
	ResidueIdentity = "identity"
	ResidueObjects  = "objects"
)

// PartialDeleteError reports a cascading delete that left data behind.
// When IdentityDeleted is true the account is gone and a later audit will
// surface the residue as data without identity.
type PartialDeleteError struct {
	UID             string
	IdentityDeleted bool
	Residue         []string
	Err             error
}

func (e *PartialDeleteError) Error() string {
	return fmt.Sprintf("partial delete of %s (identity deleted: %t), residue in [%s]: %v",
		e.UID, e.IdentityDeleted, strings.Join(e.Residue, ", "), e.Err)
}

// Unwrap exposes both common.ErrPartialDelete and the underlying causes.
func (e *PartialDeleteError) Unwrap() []error {
	return []error{common.ErrPartialDelete, e.Err}
}

// DeleteCoordinator removes a user from the identity provider and every
// collection that references them.
type DeleteCoordinator struct {
	ids      identity.Source
	docs     docstore.Store
	objects  objects.Store
	settings Settings
	logger   logging.Logger
	env      runEnv
}

// NewDeleteCoordinator builds a coordinator. objs may be nil when object
// storage is not configured.
func NewDeleteCoordinator(ids identity.Source, docs docstore.Store, objs objects.Store, settings Settings, logger logging.Logger) *DeleteCoordinator {
	return &DeleteCoordinator{ids: ids, docs: docs, objects: objs, settings: settings, logger: logger, env: defaultRunEnv()}
}

// DeleteUser deletes the identity first, then the profile, ledger and
// subscription documents, every dependent record owned by uid (one batch
// per collection) and finally the user's objects.
//
// An identity that is already absent counts as deleted, so calling
// DeleteUser twice succeeds both times. If the identity cannot be deleted
// nothing else is touched. Later steps all run even when one fails; any
// failure is returned as *PartialDeleteError together with the result.
func (c *DeleteCoordinator) DeleteUser(ctx context.Context, uid string) (*DeleteResult, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, fmt.Errorf("%w: empty uid", common.ErrInvalidArgument)
	}

	res := &DeleteResult{RunID: c.env.runID(), UID: uid, Deleted: map[string]int{}}
	log := c.logger.With("run_id", res.RunID, "op", "delete-user", "uid", uid)

	if err := c.ids.Delete(ctx, uid); err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			res.Residue = []string{ResidueIdentity}
			log.Error(ctx, "identity delete failed", "error", err)
			return res, &PartialDeleteError{UID: uid, IdentityDeleted: false, Residue: res.Residue, Err: err}
		}
		res.IdentityAlreadyAbsent = true
	}

	var errs []error
	fail := func(residue string, err error) {
		res.Residue = append(res.Residue, residue)
		errs = append(errs, fmt.Errorf("%s: %w", residue, err))
		log.Warn(ctx, "cascade step failed", "residue", residue, "error", err)
	}

	for _, coll := range []string{models.CollectionUsers, models.CollectionEntitlements, models.CollectionSubscriptions} {
		n, err := c.docs.BatchDelete(ctx, coll, []string{uid})
		if err != nil {
			fail(coll, err)
			continue
		}
		res.Deleted[coll] = n
	}

	owner := c.settings.ownerField()
	for _, coll := range c.settings.DependentCollections {
		docs, err := c.docs.Query(ctx, coll, owner, uid)
		if err != nil {
			fail(coll, err)
			continue
		}
		n, err := c.docs.BatchDelete(ctx, coll, docstore.IDs(docs))
		if err != nil {
			fail(coll, err)
			continue
		}
		res.Deleted[coll] = n
	}

	if c.objects != nil {
		n, err := c.objects.DeletePrefix(ctx, objects.UserPrefix(uid))
		if err != nil {
			fail(ResidueObjects, err)
		} else {
			res.Deleted[ResidueObjects] = n
		}
	}

	if len(errs) > 0 {
		return res, &PartialDeleteError{UID: uid, IdentityDeleted: true, Residue: res.Residue, Err: errors.Join(errs...)}
	}
	log.Info(ctx, "user deleted", "identity_already_absent", res.IdentityAlreadyAbsent, "deleted", res.Deleted)
	return res, nil
}
