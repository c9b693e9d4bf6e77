package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/ordersync/internal/client/identity"
	"github.com/dmitrijs2005/ordersync/internal/client/migrations"
	"github.com/dmitrijs2005/ordersync/internal/client/repositories/kvstore"
	"github.com/dmitrijs2005/ordersync/internal/dbx"
	"github.com/dmitrijs2005/ordersync/internal/filex"
)

// LocalStore is the on-disk state of one client: device identity, cached
// order lists and carts.
type LocalStore struct {
	DB    *sql.DB
	Slots *kvstore.SQLiteStore
}

func (s *LocalStore) Close() error {
	return s.DB.Close()
}

// Clear drops every slot and provisions a fresh device id in one
// transaction, so the store is never left without an identity.
func (s *LocalStore) Clear(ctx context.Context) error {
	return dbx.WithTx(ctx, s.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		slots := kvstore.NewSQLiteStore(tx)
		if err := slots.Clear(ctx); err != nil {
			return err
		}
		_, err := identity.NewProvider(slots).GetOrCreateDeviceID(ctx)
		return err
	})
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate local store: %w", err)
	}
	return nil
}

// OpenLocalStore opens (creating if needed) the SQLite file at dsn and
// brings its schema up to date.
func OpenLocalStore(ctx context.Context, dsn string) (*LocalStore, error) {
	if filex.IsFilePath(dsn) {
		if _, err := filex.EnsureParentDir(dsn); err != nil {
			return nil, fmt.Errorf("open local store: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	// one writer; the cache relies on SQLite serializing access
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &LocalStore{DB: db, Slots: kvstore.NewSQLiteStore(db)}, nil
}
