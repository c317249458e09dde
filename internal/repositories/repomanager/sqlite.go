package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/rostersync/internal/dbx"
	"github.com/dmitrijs2005/rostersync/internal/migrations"
	"github.com/dmitrijs2005/rostersync/internal/repositories/metadata"
	"github.com/dmitrijs2005/rostersync/internal/repositories/roster"
	"github.com/dmitrijs2005/rostersync/internal/timex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// SQLiteRepositoryManager vends SQLite-backed repositories. The clock stamps
// updated_at on every write.
type SQLiteRepositoryManager struct {
	now timex.Clock
}

// NewSQLiteRepositoryManager uses timex.UTCNow when now is nil.
func NewSQLiteRepositoryManager(now timex.Clock) *SQLiteRepositoryManager {
	if now == nil {
		now = timex.UTCNow
	}
	return &SQLiteRepositoryManager{now: now}
}

func (m *SQLiteRepositoryManager) Dialect() string { return DriverSQLite }

func (m *SQLiteRepositoryManager) Roster(db dbx.DBTX) roster.Repository {
	return roster.NewSQLiteRepository(db, m.now)
}

func (m *SQLiteRepositoryManager) Metadata(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrateUp(ctx, goose.DialectSQLite3, db, migrations.SQLite())
}
