// Package roster provides the local roster cache table: one row per synced
// contact, keyed by a unique lookup key and correlated by remote id.
package roster

import (
	"context"

	"github.com/dmitrijs2005/rostersync/internal/models"
)

// Repository describes the cache table operations used by the sync engine.
type Repository interface {
	// ReadAll returns every row ordered by updated_at descending, ties broken
	// by the higher local id first.
	ReadAll(ctx context.Context) ([]models.LocalEntity, error)

	// Upsert updates the row matching in.LookupKey in place or inserts a new
	// one, and reports which of the two happened. updated_at is always set.
	Upsert(ctx context.Context, in models.UpsertInput) (*models.LocalEntity, models.UpsertOutcome, error)

	// DeleteByIDs removes the given rows in a single statement and returns
	// the number of rows deleted. An empty set is a no-op.
	DeleteByIDs(ctx context.Context, ids []int64) (int64, error)
}
