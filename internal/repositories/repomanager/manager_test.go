package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophmedia/internal/models"
	"github.com/dmitrijs2005/gophmedia/internal/repositories/attachments"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	var m RepositoryManager = NewPostgresRepositoryManager()
	if _, ok := m.Attachments(db).(*attachments.PostgresRepository); !ok {
		t.Fatal("postgres manager must vend PostgresRepository")
	}

	m = NewSQLiteRepositoryManager()
	if _, ok := m.Attachments(db).(*attachments.SQLiteRepository); !ok {
		t.Fatal("sqlite manager must vend SQLiteRepository")
	}
}

func TestRunMigrations_UsesDialect(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	var got []goose.Dialect
	orig := gooseUp
	gooseUp = func(ctx context.Context, dialect goose.Dialect, db *sql.DB, fsys fs.FS) error {
		got = append(got, dialect)
		if _, err := fs.Stat(fsys, "00001_create_attachments.sql"); err != nil {
			return err
		}
		return nil
	}
	defer func() { gooseUp = orig }()

	require.NoError(t, NewPostgresRepositoryManager().RunMigrations(context.Background(), db))
	require.NoError(t, NewSQLiteRepositoryManager().RunMigrations(context.Background(), db))
	assert.Equal(t, []goose.Dialect{goose.DialectPostgres, goose.DialectSQLite3}, got)
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUp
	gooseUp = func(ctx context.Context, dialect goose.Dialect, db *sql.DB, fsys fs.FS) error {
		return errors.New("boom")
	}
	defer func() { gooseUp = orig }()

	m := NewPostgresRepositoryManager()
	if err := m.RunMigrations(context.Background(), db); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, _, err := Open(context.Background(), "oracle", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestOpen_OpenError(t *testing.T) {
	orig := sqlOpen
	sqlOpen = func(driverName, dsn string) (*sql.DB, error) {
		return nil, errors.New("no driver")
	}
	defer func() { sqlOpen = orig }()

	_, _, err := Open(context.Background(), DriverPostgres, "postgres://x")
	require.EqualError(t, err, "no driver")
}

func TestOpen_SQLiteEndToEnd(t *testing.T) {
	ctx := context.Background()

	db, m, err := Open(ctx, DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, m.RunMigrations(ctx, db))

	repo := m.Attachments(db)
	id, err := repo.Create(ctx, &models.Attachment{ContentType: "image/png", DataKey: "k", DataSize: 3})
	require.NoError(t, err)

	a, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "k", a.DataKey)
}
