package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/rostersync/internal/dbx"
	"github.com/dmitrijs2005/rostersync/internal/models"
	"github.com/dmitrijs2005/rostersync/internal/timex"
)

// SQLiteRepository stores updated_at as unix nanoseconds so ordering by the
// column is exact.
type SQLiteRepository struct {
	db  dbx.DBTX
	now timex.Clock
}

func NewSQLiteRepository(db dbx.DBTX, now timex.Clock) *SQLiteRepository {
	if now == nil {
		now = timex.UTCNow
	}
	return &SQLiteRepository{db: db, now: now}
}

const sqliteColumns = `id, lookup_key, remote_id, payload, updated_at`

func scanSQLite(s rowScanner) (models.LocalEntity, error) {
	var (
		e        models.LocalEntity
		remoteID sql.NullInt64
		updated  int64
		payload  []byte
	)
	if err := s.Scan(&e.LocalID, &e.LookupKey, &remoteID, &payload, &updated); err != nil {
		return e, err
	}
	e.RemoteID = remoteIDPtr(remoteID)
	e.Payload = payload
	e.UpdatedAt = time.Unix(0, updated).UTC()
	return e, nil
}

func (r *SQLiteRepository) ReadAll(ctx context.Context) ([]models.LocalEntity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sqliteColumns+` FROM roster_entities ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to select roster entities: %w", err)
	}
	result, err := scanRows(rows, scanSQLite)
	if err != nil {
		return nil, fmt.Errorf("failed to scan roster entities: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, in models.UpsertInput) (*models.LocalEntity, models.UpsertOutcome, error) {
	if in.LookupKey == "" {
		return nil, 0, fmt.Errorf("failed to upsert roster entity: empty lookup key")
	}

	now := r.now()
	e := &models.LocalEntity{
		LookupKey: in.LookupKey,
		RemoteID:  &in.RemoteID,
		Payload:   in.Payload,
		UpdatedAt: time.Unix(0, now.UnixNano()).UTC(),
	}

	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM roster_entities WHERE lookup_key = ?`, in.LookupKey).Scan(&id)
	switch {
	case err == nil:
		_, err = r.db.ExecContext(ctx,
			`UPDATE roster_entities SET remote_id = ?, payload = ?, updated_at = ? WHERE id = ?`,
			in.RemoteID, []byte(in.Payload), now.UnixNano(), id)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to update roster entity[%s]: %w", in.LookupKey, err)
		}
		e.LocalID = id
		return e, models.Updated, nil

	case errors.Is(err, sql.ErrNoRows):
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO roster_entities (lookup_key, remote_id, payload, updated_at) VALUES (?, ?, ?, ?)`,
			in.LookupKey, in.RemoteID, []byte(in.Payload), now.UnixNano())
		if err != nil {
			return nil, 0, fmt.Errorf("failed to insert roster entity[%s]: %w", in.LookupKey, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read inserted id[%s]: %w", in.LookupKey, err)
		}
		e.LocalID = id
		return e, models.Inserted, nil

	default:
		return nil, 0, fmt.Errorf("failed to look up roster entity[%s]: %w", in.LookupKey, err)
	}
}

func (r *SQLiteRepository) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM roster_entities WHERE id IN (SELECT value FROM json_each(?))`,
		dbx.IDList(ids))
	if err != nil {
		return 0, fmt.Errorf("failed to delete roster entities: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
