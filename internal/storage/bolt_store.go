package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/samvad-hq/catalog-crawler/internal/domain"
)

const productBucket = "products"

// boltRow mirrors a products table row.
type boltRow struct {
	ID        uint64    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	URL       string    `json:"url"`
}

// boltStore implements a Store backed by BoltDB. Rows are keyed by product name, which
// gives the uniqueness constraint; each upsert is one read-write transaction.
type boltStore struct {
	db  *bolt.DB
	now func() time.Time
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string) (Store, error) {
	if path == "" {
		return nil, &ConnectionError{Vendor: VendorBolt, Err: fmt.Errorf("bbolt storage requires a path")}
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &ConnectionError{Vendor: VendorBolt, Err: fmt.Errorf("create storage directory: %w", err)}
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, &ConnectionError{Vendor: VendorBolt, Err: fmt.Errorf("open bbolt db: %w", err)}
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(productBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, &ConnectionError{Vendor: VendorBolt, Err: fmt.Errorf("init bucket: %w", err)}
	}

	return &boltStore{db: db, now: time.Now}, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *boltStore) Upsert(_ context.Context, p domain.Product) (bool, error) {
	var inserted bool
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(productBucket))
		if bucket == nil {
			return fmt.Errorf("product bucket missing")
		}

		key := []byte(p.Name())
		var row boltRow
		if raw := bucket.Get(key); raw != nil {
			if err := json.Unmarshal(raw, &row); err != nil {
				return fmt.Errorf("decode row: %w", err)
			}
			row.Price = p.Price()
			inserted = false
		} else {
			id, err := bucket.NextSequence()
			if err != nil {
				return fmt.Errorf("next id: %w", err)
			}
			row = boltRow{
				ID:        id,
				CreatedAt: b.now().UTC(),
				Name:      p.Name(),
				Price:     p.Price(),
				URL:       p.URL(),
			}
			inserted = true
		}

		buf, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("encode row: %w", err)
		}
		return bucket.Put(key, buf)
	})
	if err != nil {
		return false, &WriteError{Name: p.Name(), Err: err}
	}
	return inserted, nil
}

// lookup returns the stored row for name.
func (b *boltStore) lookup(name string) (boltRow, bool, error) {
	var (
		row   boltRow
		found bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(productBucket))
		if bucket == nil {
			return fmt.Errorf("product bucket missing")
		}
		raw := bucket.Get([]byte(name))
		if raw == nil {
			return nil
		}
		found = true
		return json.Unmarshal(raw, &row)
	})
	return row, found, err
}
