// Package metadata stores small singleton facts about the sync process
// (last completed sync, its tag) in a key/value side table.
package metadata

import (
	"context"
)

// Repository is a key/value table with upsert semantics.
// Get returns (nil, nil) when the key is absent.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}
