package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/rostersync/internal/dbx"
	"github.com/dmitrijs2005/rostersync/internal/migrations"
	"github.com/dmitrijs2005/rostersync/internal/repositories/metadata"
	"github.com/dmitrijs2005/rostersync/internal/repositories/roster"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Dialect() string { return DriverPostgres }

// Roster returns a roster.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Roster(db dbx.DBTX) roster.Repository {
	return roster.NewPostgresRepository(db)
}

// Metadata returns a metadata.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Metadata(db dbx.DBTX) metadata.Repository {
	return metadata.NewPostgresRepository(db)
}

// RunMigrations applies the embedded PostgreSQL migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrateUp(ctx, goose.DialectPostgres, db, migrations.Postgres())
}
