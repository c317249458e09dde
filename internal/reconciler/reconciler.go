// Package reconciler converges the local roster cache with one fetch of the
// remote tag.
//
// A pass runs four steps in a fixed order:
//
//  1. duplicate collapse: of the rows sharing a remote id only the most
//     recently updated one survives (ties go to the higher local id);
//  2. identity change: a surviving row whose remote id now arrives with a
//     different lookup key is deleted before any write;
//  3. upsert: every record with a lookup key is written, keyless records are
//     skipped without counting;
//  4. orphan sweep: rows without a remote id, or whose remote id was not part
//     of this fetch, are deleted.
//
// Write failures are recorded on the result and never stop the pass.
package reconciler

import (
	"context"
	"sort"

	"github.com/dmitrijs2005/rostersync/internal/logging"
	"github.com/dmitrijs2005/rostersync/internal/models"
)

// Store is the subset of store.Store a pass needs.
type Store interface {
	ReadAll(ctx context.Context) ([]models.LocalEntity, error)
	UpsertBatch(ctx context.Context, inputs []models.UpsertInput) []models.UpsertResult
	DeleteByIDs(ctx context.Context, ids []int64) (int64, error)
}

type Options struct {
	// SweepKeyless removes rows whose remote record arrived without an
	// email. By default such rows are kept until the contact has an email
	// again or leaves the tag.
	SweepKeyless bool
}

type Reconciler struct {
	store  Store
	opts   Options
	logger logging.Logger
}

func New(store Store, opts Options, logger logging.Logger) *Reconciler {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Reconciler{store: store, opts: opts, logger: logger.With("module", "reconciler")}
}

// Reconcile applies records to the store and adds the counts and per-record
// errors to res. skipped lists remote ids that are still tagged remotely but
// whose detail could not be fetched; their rows are left alone.
//
// The only error returned is the context's, when it ends mid-pass.
func (r *Reconciler) Reconcile(ctx context.Context, records []models.RemoteRecord, skipped []int64, res *models.SyncResult) error {
	canonical := r.collapseDuplicates(ctx, res)
	if err := ctx.Err(); err != nil {
		return err
	}

	r.resolveIdentityChanges(ctx, records, canonical, res)
	if err := ctx.Err(); err != nil {
		return err
	}

	r.upsert(ctx, records, res)
	if err := ctx.Err(); err != nil {
		return err
	}

	r.sweepOrphans(ctx, r.seenRemoteIDs(records, skipped), res)
	return ctx.Err()
}

// collapseDuplicates deletes all but the newest row per remote id and returns
// the survivors keyed by remote id.
func (r *Reconciler) collapseDuplicates(ctx context.Context, res *models.SyncResult) map[int64]models.LocalEntity {
	rows, err := r.store.ReadAll(ctx)
	if err != nil {
		r.logger.Warn(ctx, "read before duplicate collapse failed", "error", err)
		res.AddError("read roster: %v", err)
		return nil
	}

	canonical := make(map[int64]models.LocalEntity, len(rows))
	var dups []int64
	for _, row := range rows {
		if !row.HasRemoteID() {
			continue
		}
		if _, seen := canonical[*row.RemoteID]; seen {
			dups = append(dups, row.LocalID)
			continue
		}
		canonical[*row.RemoteID] = row
	}

	if len(dups) > 0 {
		n, err := r.store.DeleteByIDs(ctx, dups)
		if err != nil {
			r.logger.Warn(ctx, "duplicate delete failed", "rows", len(dups), "error", err)
			res.AddError("delete %d duplicate rows: %v", len(dups), err)
		} else {
			res.DuplicatesRemoved += int(n)
			r.logger.Debug(ctx, "duplicates collapsed", "deleted", n)
		}
	}
	return canonical
}

// resolveIdentityChanges deletes, in one batch, every surviving row whose
// remote id now comes with a different lookup key. Deleting them all before
// the first upsert keeps swapped emails between two contacts from colliding
// on the unique key.
func (r *Reconciler) resolveIdentityChanges(ctx context.Context, records []models.RemoteRecord, canonical map[int64]models.LocalEntity, res *models.SyncResult) {
	stale := make(map[int64]struct{})
	for _, rec := range records {
		key := rec.LookupKey()
		if key == "" {
			continue
		}
		row, ok := canonical[rec.RemoteID]
		if !ok || row.LookupKey == key {
			continue
		}
		stale[row.LocalID] = struct{}{}
		r.logger.Debug(ctx, "identity change", "remote_id", rec.RemoteID, "old_key", row.LookupKey, "new_key", key)
	}
	if len(stale) == 0 {
		return
	}

	ids := sortedIDs(stale)
	n, err := r.store.DeleteByIDs(ctx, ids)
	if err != nil {
		r.logger.Warn(ctx, "stale identity delete failed", "rows", len(ids), "error", err)
		res.AddError("delete %d stale identity rows: %v", len(ids), err)
		return
	}
	res.DuplicatesRemoved += int(n)
}

func (r *Reconciler) upsert(ctx context.Context, records []models.RemoteRecord, res *models.SyncResult) {
	inputs := make([]models.UpsertInput, 0, len(records))
	for _, rec := range records {
		key := rec.LookupKey()
		if key == "" {
			continue
		}
		inputs = append(inputs, models.UpsertInput{LookupKey: key, RemoteID: rec.RemoteID, Payload: rec.RawPayload})
	}

	for _, ur := range r.store.UpsertBatch(ctx, inputs) {
		if ur.Err != nil {
			r.logger.Warn(ctx, "upsert failed", "lookup_key", ur.Input.LookupKey, "remote_id", ur.Input.RemoteID, "error", ur.Err)
			res.AddError("upsert %s (remote_id %d): %v", ur.Input.LookupKey, ur.Input.RemoteID, ur.Err)
			continue
		}
		switch ur.Outcome {
		case models.Inserted:
			res.Inserted++
			r.logger.Debug(ctx, "inserted", "lookup_key", ur.Entity.LookupKey, "local_id", ur.Entity.LocalID)
		case models.Updated:
			res.Updated++
			r.logger.Debug(ctx, "updated", "lookup_key", ur.Entity.LookupKey, "local_id", ur.Entity.LocalID)
		}
	}
}

// seenRemoteIDs is the set of remote ids that protect a row from the orphan
// sweep.
func (r *Reconciler) seenRemoteIDs(records []models.RemoteRecord, skipped []int64) map[int64]struct{} {
	seen := make(map[int64]struct{}, len(records)+len(skipped))
	for _, rec := range records {
		if r.opts.SweepKeyless && rec.LookupKey() == "" {
			continue
		}
		seen[rec.RemoteID] = struct{}{}
	}
	for _, id := range skipped {
		seen[id] = struct{}{}
	}
	return seen
}

func (r *Reconciler) sweepOrphans(ctx context.Context, seen map[int64]struct{}, res *models.SyncResult) {
	rows, err := r.store.ReadAll(ctx)
	if err != nil {
		r.logger.Warn(ctx, "read before orphan sweep failed", "error", err)
		res.AddError("read roster: %v", err)
		return
	}

	var orphans []int64
	for _, row := range rows {
		if !row.HasRemoteID() {
			orphans = append(orphans, row.LocalID)
			continue
		}
		if _, ok := seen[*row.RemoteID]; !ok {
			orphans = append(orphans, row.LocalID)
		}
	}
	if len(orphans) == 0 {
		return
	}

	n, err := r.store.DeleteByIDs(ctx, orphans)
	if err != nil {
		r.logger.Warn(ctx, "orphan delete failed", "rows", len(orphans), "error", err)
		res.AddError("delete %d orphan rows: %v", len(orphans), err)
		return
	}
	res.OrphansRemoved += int(n)
	r.logger.Debug(ctx, "orphans swept", "deleted", n)
}

func sortedIDs(set map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
