package roster

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/rostersync/internal/dbx"
	"github.com/dmitrijs2005/rostersync/internal/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx)
// opened with the pgx stdlib driver.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const postgresColumns = `id, lookup_key, remote_id, payload, updated_at`

func scanPostgres(s rowScanner) (models.LocalEntity, error) {
	var (
		e        models.LocalEntity
		remoteID sql.NullInt64
		payload  []byte
	)
	if err := s.Scan(&e.LocalID, &e.LookupKey, &remoteID, &payload, &e.UpdatedAt); err != nil {
		return e, err
	}
	e.RemoteID = remoteIDPtr(remoteID)
	e.Payload = payload
	e.UpdatedAt = e.UpdatedAt.UTC()
	return e, nil
}

func (r *PostgresRepository) ReadAll(ctx context.Context) ([]models.LocalEntity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+postgresColumns+` FROM roster_entities ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to select roster entities: %w", err)
	}
	result, err := scanRows(rows, scanPostgres)
	if err != nil {
		return nil, fmt.Errorf("failed to scan roster entities: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, in models.UpsertInput) (*models.LocalEntity, models.UpsertOutcome, error) {
	if in.LookupKey == "" {
		return nil, 0, fmt.Errorf("failed to upsert roster entity: empty lookup key")
	}

	query := `
		INSERT INTO roster_entities (lookup_key, remote_id, payload, updated_at)
		VALUES ($1, $2, $3::jsonb, clock_timestamp())
		ON CONFLICT (lookup_key)
		DO UPDATE SET
			remote_id = EXCLUDED.remote_id,
			payload = EXCLUDED.payload,
			updated_at = clock_timestamp()
		RETURNING id, updated_at, (xmax = 0) AS inserted
	`
	e := &models.LocalEntity{
		LookupKey: in.LookupKey,
		RemoteID:  &in.RemoteID,
		Payload:   in.Payload,
	}
	var inserted bool
	err := r.db.QueryRowContext(ctx, query, in.LookupKey, in.RemoteID, string(in.Payload)).
		Scan(&e.LocalID, &e.UpdatedAt, &inserted)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to upsert roster entity[%s]: %w", in.LookupKey, err)
	}
	e.UpdatedAt = e.UpdatedAt.UTC()

	if inserted {
		return e, models.Inserted, nil
	}
	return e, models.Updated, nil
}

func (r *PostgresRepository) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM roster_entities WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete roster entities: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
