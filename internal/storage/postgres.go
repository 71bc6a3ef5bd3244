package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver

	"github.com/samvad-hq/catalog-crawler/internal/domain"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id          SERIAL NOT NULL CONSTRAINT products_pk PRIMARY KEY,
		created_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		name        TEXT NOT NULL,
		price       TEXT NOT NULL,
		url         TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS products_name_uindex ON products (name)`,
}

// xmax is zero only for a row version created by this statement's insert branch.
const postgresUpsert = `
	INSERT INTO products (name, price, url) VALUES ($1, $2, $3)
	ON CONFLICT (name) DO UPDATE SET price = EXCLUDED.price
	RETURNING (xmax = 0) AS inserted`

type postgresStore struct {
	db *sqlx.DB
}

func openPostgres(ctx context.Context, dsn string) (Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, &ConnectionError{Vendor: VendorPostgres, Err: err}
	}

	store, err := newPostgresStore(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func newPostgresStore(ctx context.Context, db *sqlx.DB) (*postgresStore, error) {
	for _, stmt := range postgresSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, &ConnectionError{Vendor: VendorPostgres, Err: fmt.Errorf("init schema: %w", err)}
		}
	}
	return &postgresStore{db: db}, nil
}

func (s *postgresStore) Upsert(ctx context.Context, p domain.Product) (bool, error) {
	var inserted bool
	err := s.db.QueryRowxContext(ctx, postgresUpsert, p.Name(), p.Price(), p.URL()).Scan(&inserted)
	if err != nil {
		return false, &WriteError{Name: p.Name(), Err: err}
	}
	return inserted, nil
}

func (s *postgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
