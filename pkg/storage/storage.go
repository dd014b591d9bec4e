package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pricescope/pricescope/pkg/catalog"
)

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS vendors (
  id          INTEGER PRIMARY KEY,
  name        TEXT NOT NULL UNIQUE,
  website_url TEXT,
  created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS scrape_sessions (
  scrape_id         INTEGER PRIMARY KEY,
  query             TEXT NOT NULL,
  initiator         TEXT NOT NULL CHECK (initiator IN ('user','api')),
  status            TEXT NOT NULL,
  vendors_attempted INTEGER NOT NULL DEFAULT 0,
  vendors_succeeded INTEGER NOT NULL DEFAULT 0,
  scraped_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS products (
  anchor_sku  INTEGER NOT NULL,
  vendor_sku  TEXT NOT NULL,
  vendor      TEXT NOT NULL,
  name        TEXT NOT NULL,
  description TEXT,
  created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (anchor_sku, vendor_sku)
);
CREATE TABLE IF NOT EXISTS product_snapshots (
  id           INTEGER PRIMARY KEY,
  scrape_id    INTEGER NOT NULL,
  anchor_sku   INTEGER NOT NULL,
  vendor_sku   TEXT NOT NULL,
  vendor       TEXT NOT NULL,
  name         TEXT NOT NULL,
  url          TEXT,
  price        INTEGER NOT NULL DEFAULT 0,
  orig_price   INTEGER NOT NULL DEFAULT 0,
  disc_price   INTEGER NOT NULL DEFAULT 0,
  currency     TEXT,
  images       TEXT NOT NULL DEFAULT '[]',
  description  TEXT,
  availability TEXT,
  condition    TEXT,
  brand        TEXT,
  metadata     TEXT,
  created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_snapshots_anchor ON product_snapshots(anchor_sku, created_at);
CREATE INDEX IF NOT EXISTS idx_snapshots_session ON product_snapshots(scrape_id);
CREATE INDEX IF NOT EXISTS idx_products_vendor ON products(vendor);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// EnsureVendors inserts any registry vendors missing from the vendors table.
func (d *DB) EnsureVendors(ctx context.Context, names []string) error {
	for _, name := range names {
		if _, err := d.sql.ExecContext(ctx,
			`INSERT INTO vendors(name) VALUES(?) ON CONFLICT(name) DO NOTHING`, name); err != nil {
			return err
		}
	}
	return nil
}

// OpenSession creates a scrape session in the running state and returns its
// id.
func (d *DB) OpenSession(ctx context.Context, query, initiator string) (int64, error) {
	res, err := d.sql.ExecContext(ctx,
		`INSERT INTO scrape_sessions(query, initiator, status) VALUES(?, ?, 'running')`,
		query, initiator)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// CloseSession records the terminal status and vendor counts for a session.
// Called exactly once per session; the row is never touched again.
func (d *DB) CloseSession(ctx context.Context, sessionID int64, status string, attempted, succeeded int) error {
	_, err := d.sql.ExecContext(ctx,
		`UPDATE scrape_sessions SET status = ?, vendors_attempted = ?, vendors_succeeded = ? WHERE scrape_id = ?`,
		status, attempted, succeeded, sessionID)
	return err
}

// UpsertIdentity inserts or updates the product identity row keyed on
// (anchor_sku, vendor_sku). Repeated upserts with unchanged fields leave one
// row with only updated_at advancing.
func (d *DB) UpsertIdentity(ctx context.Context, anchorSKU int64, vendorSKU, vendorName, name, description string) error {
	_, err := d.sql.ExecContext(ctx, `
INSERT INTO products (anchor_sku, vendor_sku, vendor, name, description)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (anchor_sku, vendor_sku)
DO UPDATE SET
  vendor      = excluded.vendor,
  name        = excluded.name,
  description = excluded.description,
  updated_at  = CURRENT_TIMESTAMP`,
		anchorSKU, vendorSKU, vendorName, name, nullIfEmpty(description))
	return err
}

// AppendSnapshot records one immutable price snapshot for a session. Every
// canonical product field is carried as-is; images and metadata are stored
// as JSON text.
func (d *DB) AppendSnapshot(ctx context.Context, sessionID, anchorSKU int64, vendorName string, p catalog.Product) error {
	images, err := json.Marshal(p.Images)
	if err != nil {
		return err
	}
	if p.Images == nil {
		images = []byte("[]")
	}
	var metadata any
	if p.Metadata != nil {
		b, err := json.Marshal(p.Metadata)
		if err != nil {
			return err
		}
		metadata = string(b)
	}

	_, err = d.sql.ExecContext(ctx, `
INSERT INTO product_snapshots (
  scrape_id, anchor_sku, vendor_sku, vendor,
  name, url,
  price, orig_price, disc_price, currency,
  images, description, availability, condition, brand, metadata
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, anchorSKU, p.SKU, vendorName,
		p.Name, nullIfEmpty(p.URL),
		p.Price, p.OrigPrice, p.DiscPrice, nullIfEmpty(p.Currency),
		string(images), nullIfEmpty(p.Description), nullIfEmpty(p.Availability),
		nullIfEmpty(p.Condition), nullIfEmpty(p.Brand), metadata)
	return err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// parseSQLiteTime handles both the CURRENT_TIMESTAMP format and RFC3339.
func parseSQLiteTime(s string) time.Time {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
