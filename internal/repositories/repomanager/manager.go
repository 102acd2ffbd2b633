// Package repomanager wires repository constructors and schema migrations
// for each supported database driver.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/dmitrijs2005/gophmedia/internal/dbx"
	"github.com/dmitrijs2005/gophmedia/internal/repositories/attachments"
	"github.com/pressly/goose/v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Attachments(db dbx.DBTX) attachments.Repository
}

// gooseUp is a seam for testing goose migrations.
var gooseUp = func(ctx context.Context, dialect goose.Dialect, db *sql.DB, fsys fs.FS) error {
	p, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return err
	}
	_, err = p.Up(ctx)
	return err
}

// sqlOpen is a seam for testing Open.
var sqlOpen = sql.Open

// Open connects to the database named by driver and returns the matching
// RepositoryManager. Migrations are not run.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, RepositoryManager, error) {
	var m RepositoryManager
	var sqlDriver string

	switch driver {
	case DriverSQLite:
		m, sqlDriver = NewSQLiteRepositoryManager(), "sqlite"
	case DriverPostgres:
		m, sqlDriver = NewPostgresRepositoryManager(), "pgx"
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlOpen(sqlDriver, dsn)
	if err != nil {
		return nil, nil, err
	}

	if driver == DriverSQLite {
		// sqlite allows one writer at a time
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	return db, m, nil
}
