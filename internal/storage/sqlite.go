package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure Go sqlite driver

	"github.com/samvad-hq/catalog-crawler/internal/domain"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id          INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		created_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		name        TEXT NOT NULL,
		price       TEXT NOT NULL,
		url         TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS products_name_uindex ON products (name)`,
}

const (
	sqliteInsert      = `INSERT INTO products (name, price, url) VALUES (?, ?, ?) ON CONFLICT (name) DO NOTHING`
	sqliteUpdatePrice = `UPDATE products SET price = ? WHERE name = ?`
)

// sqliteParams makes every transaction take the write lock at BEGIN and lets a writer
// wait for another process's lock instead of failing with SQLITE_BUSY.
const sqliteParams = "_txlock=immediate&_pragma=busy_timeout(5000)"

// sqliteStore keeps a single connection. The insert and the follow-up price update of one
// upsert run in one immediate transaction.
type sqliteStore struct {
	db *sqlx.DB
}

func openSQLite(ctx context.Context, path string) (Store, error) {
	if path == "" {
		return nil, &ConnectionError{Vendor: VendorSQLite, Err: fmt.Errorf("sqlite storage requires a path")}
	}

	db, err := sqlx.ConnectContext(ctx, "sqlite", sqliteDSN(path))
	if err != nil {
		return nil, &ConnectionError{Vendor: VendorSQLite, Err: err}
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, &ConnectionError{Vendor: VendorSQLite, Err: fmt.Errorf("init schema: %w", err)}
		}
	}
	return &sqliteStore{db: db}, nil
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + sqliteParams
}

func (s *sqliteStore) Upsert(ctx context.Context, p domain.Product) (inserted bool, err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, &WriteError{Name: p.Name(), Err: fmt.Errorf("begin: %w", err)}
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, sqliteInsert, p.Name(), p.Price(), p.URL())
	if err != nil {
		return false, &WriteError{Name: p.Name(), Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, &WriteError{Name: p.Name(), Err: err}
	}

	if n == 0 {
		if _, err = tx.ExecContext(ctx, sqliteUpdatePrice, p.Price(), p.Name()); err != nil {
			return false, &WriteError{Name: p.Name(), Err: err}
		}
	}

	if err = tx.Commit(); err != nil {
		return false, &WriteError{Name: p.Name(), Err: fmt.Errorf("commit: %w", err)}
	}
	return n == 1, nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
