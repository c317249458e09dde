// Package repomanager opens the roster database for a configured driver,
// applies the embedded goose migrations and vends repositories bound to a
// dbx.DBTX (the pool or a transaction).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/dmitrijs2005/rostersync/internal/dbx"
	"github.com/dmitrijs2005/rostersync/internal/filex"
	"github.com/dmitrijs2005/rostersync/internal/repositories/metadata"
	"github.com/dmitrijs2005/rostersync/internal/repositories/roster"
	"github.com/pressly/goose/v3"
)

// Driver names as registered with database/sql.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

type RepositoryManager interface {
	Dialect() string
	RunMigrations(ctx context.Context, db *sql.DB) error
	Roster(db dbx.DBTX) roster.Repository
	Metadata(db dbx.DBTX) metadata.Repository
}

// migrateUp is a seam for testing the goose provider.
var migrateUp = func(ctx context.Context, dialect goose.Dialect, db *sql.DB, fsys fs.FS) error {
	p, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return err
	}
	_, err = p.Up(ctx)
	return err
}

// New returns the manager for driver.
func New(driver string) (RepositoryManager, error) {
	switch driver {
	case DriverSQLite:
		return NewSQLiteRepositoryManager(nil), nil
	case DriverPostgres:
		return NewPostgresRepositoryManager(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Open opens dsn with driver, runs the migrations and returns the pool along
// with its manager. The caller owns the returned *sql.DB.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, RepositoryManager, error) {
	m, err := New(driver)
	if err != nil {
		return nil, nil, err
	}

	if driver == DriverSQLite {
		if _, err := filex.EnsureDBDir(dsn); err != nil {
			return nil, nil, fmt.Errorf("db dir error: %w", err)
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("db open error: %w", err)
	}
	if driver == DriverSQLite {
		// single writer; also keeps :memory: databases on one connection
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db ping error: %w", err)
	}

	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrations error: %w", err)
	}

	return db, m, nil
}
