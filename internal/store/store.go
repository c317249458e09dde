// Package store is the LocalStore used by the reconciler: the roster cache
// table plus the metadata side table, behind one facade that owns batching
// and transaction handling.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/rostersync/internal/common"
	"github.com/dmitrijs2005/rostersync/internal/dbx"
	"github.com/dmitrijs2005/rostersync/internal/logging"
	"github.com/dmitrijs2005/rostersync/internal/models"
	"github.com/dmitrijs2005/rostersync/internal/repositories/repomanager"
)

type Store struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	logger logging.Logger
}

func New(db *sql.DB, repos repomanager.RepositoryManager, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Store{db: db, repos: repos, logger: logger.With("module", "store")}
}

// ReadAll returns every cached row, most recently updated first.
func (s *Store) ReadAll(ctx context.Context) ([]models.LocalEntity, error) {
	return s.repos.Roster(s.db).ReadAll(ctx)
}

// Upsert writes a single row outside any batch.
func (s *Store) Upsert(ctx context.Context, in models.UpsertInput) (*models.LocalEntity, models.UpsertOutcome, error) {
	return s.repos.Roster(s.db).Upsert(ctx, in)
}

// UpsertBatch writes inputs in one transaction and returns one result per
// input, in input order. If the transaction fails it is rolled back and the
// inputs are replayed one by one without a transaction, so a bad row costs
// only itself and every failure is reported on its own result.
func (s *Store) UpsertBatch(ctx context.Context, inputs []models.UpsertInput) []models.UpsertResult {
	if len(inputs) == 0 {
		return nil
	}

	results := make([]models.UpsertResult, len(inputs))
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Roster(tx)
		for i, in := range inputs {
			e, outcome, err := repo.Upsert(ctx, in)
			if err != nil {
				return err
			}
			results[i] = models.UpsertResult{Input: in, Entity: e, Outcome: outcome}
		}
		return nil
	})
	if err == nil {
		return results
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		for i, in := range inputs {
			results[i] = models.UpsertResult{Input: in, Err: ctxErr}
		}
		return results
	}

	s.logger.Warn(ctx, "batch upsert rolled back, replaying per record", "rows", len(inputs), "error", err)

	for i, in := range inputs {
		e, outcome, err := s.Upsert(ctx, in)
		results[i] = models.UpsertResult{Input: in, Entity: e, Outcome: outcome, Err: err}
	}
	return results
}

// DeleteByIDs removes rows by local id in a single statement.
func (s *Store) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	return s.repos.Roster(s.db).DeleteByIDs(ctx, ids)
}

func (s *Store) GetMetadata(ctx context.Context, key string) ([]byte, error) {
	return s.repos.Metadata(s.db).Get(ctx, key)
}

func (s *Store) SetMetadata(ctx context.Context, key string, value []byte) error {
	return s.repos.Metadata(s.db).Set(ctx, key, value)
}

// RecordSync persists the completion time and tag of a successful cycle.
func (s *Store) RecordSync(ctx context.Context, completedAt time.Time, tagID int64) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Metadata(tx)
		ts := completedAt.UTC().Format(time.RFC3339Nano)
		if err := repo.Set(ctx, common.MetadataLastSync, []byte(ts)); err != nil {
			return err
		}
		return repo.Set(ctx, common.MetadataLastSyncTag, []byte(strconv.FormatInt(tagID, 10)))
	})
}

// LastSync returns the completion time and tag of the last successful
// cycle, or common.ErrNotFound when none has completed yet.
func (s *Store) LastSync(ctx context.Context) (models.SyncMark, error) {
	var mark models.SyncMark

	v, err := s.GetMetadata(ctx, common.MetadataLastSync)
	if err != nil {
		return mark, err
	}
	if v == nil {
		return mark, common.ErrNotFound
	}
	mark.CompletedAt, err = time.Parse(time.RFC3339Nano, string(v))
	if err != nil {
		return mark, fmt.Errorf("invalid %s value %q: %w", common.MetadataLastSync, v, err)
	}

	v, err = s.GetMetadata(ctx, common.MetadataLastSyncTag)
	if err != nil || v == nil {
		return mark, err
	}
	mark.TagID, err = strconv.ParseInt(string(v), 10, 64)
	if err != nil {
		return mark, fmt.Errorf("invalid %s value %q: %w", common.MetadataLastSyncTag, v, err)
	}
	return mark, nil
}
