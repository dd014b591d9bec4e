package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Vendor is one configured vendor as stored.
type Vendor struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	WebsiteURL string    `json:"website_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Session is one scrape session row.
type Session struct {
	ID               int64     `json:"scrape_id"`
	Query            string    `json:"query"`
	Initiator        string    `json:"initiator"`
	Status           string    `json:"status"`
	VendorsAttempted int       `json:"vendors_attempted"`
	VendorsSucceeded int       `json:"vendors_succeeded"`
	ScrapedAt        time.Time `json:"scraped_at"`
}

/// Identity is one product identity row: a (anchor, vendor) pairing.
type Identity struct {
	AnchorSKU   int64     `json:"anchor_sku"`
	VendorSKU   string    `json:"vendor_sku"`
	Vendor      string    `json:"vendor"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot is one immutable price snapshot row.
type Snapshot struct {
	ID           int64          `json:"id"`
	SessionID    int64          `json:"scrape_id"`
	AnchorSKU    int64          `json:"anchor_sku"`
	VendorSKU    string         `json:"vendor_sku"`
	Vendor       string         `json:"vendor"`
	Name         string         `json:"name"`
	URL          string         `json:"url,omitempty"`
	Price        int            `json:"price"`
	OrigPrice    int            `json:"orig_price"`
	DiscPrice    int            `json:"disc_price"`
	Currency     string         `json:"currency,omitempty"`
	Images       []string       `json:"images"`
	Description  string         `json:"description,omitempty"`
	Availability string         `json:"availability,omitempty"`
	Condition    string         `json:"condition,omitempty"`
	Brand        string         `json:"brand,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// VendorStats aggregates per-vendor row counts.
type VendorStats struct {
	Vendor        string `json:"vendor"`
	ProductCount  int    `json:"product_count"`
	SnapshotCount int    `json:"snapshot_count"`
}

func (d *DB) ListVendors(ctx context.Context) ([]Vendor, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT id, name, website_url, created_at FROM vendors ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Vendor
	for rows.Next() {
		var v Vendor
		var site sql.NullString
		var created string
		if err := rows.Scan(&v.ID, &v.Name, &site, &created); err != nil {
			return nil, err
		}
		v.WebsiteURL = site.String
		v.CreatedAt = parseSQLiteTime(created)
		out = append(out, v)
	}
	return out, rows.Err()
}

func (d *DB) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.sql.QueryContext(ctx, `
SELECT scrape_id, query, initiator, status, vendors_attempted, vendors_succeeded, scraped_at
FROM scrape_sessions ORDER BY scrape_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var s Session
		var scraped string
		if err := rows.Scan(&s.ID, &s.Query, &s.Initiator, &s.Status,
			&s.VendorsAttempted, &s.VendorsSucceeded, &scraped); err != nil {
			return nil, err
		}
		s.ScrapedAt = parseSQLiteTime(scraped)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (d *DB) ListProducts(ctx context.Context) ([]Identity, error) {
	rows, err := d.sql.QueryContext(ctx, `
SELECT anchor_sku, vendor_sku, vendor, name, description, updated_at
FROM products ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Identity
	for rows.Next() {
		var p Identity
		var desc sql.NullString
		var updated string
		if err := rows.Scan(&p.AnchorSKU, &p.VendorSKU, &p.Vendor, &p.Name, &desc, &updated); err != nil {
			return nil, err
		}
		p.Description = desc.String
		p.UpdatedAt = parseSQLiteTime(updated)
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListSnapshots returns price snapshots for one anchor SKU, newest first.
// anchorSKU 0 returns snapshots across all products.
func (d *DB) ListSnapshots(ctx context.Context, anchorSKU int64, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 100
	}
	where := ""
	args := []any{}
	if anchorSKU != 0 {
		where = "WHERE anchor_sku = ?"
		args = append(args, anchorSKU)
	}
	args = append(args, limit)

	rows, err := d.sql.QueryContext(ctx, `
SELECT id, scrape_id, anchor_sku, vendor_sku, vendor, name, url,
       price, orig_price, disc_price, currency,
       images, description, availability, condition, brand, metadata, created_at
FROM product_snapshots `+where+` ORDER BY id DESC LIMIT ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var s Snapshot
		var url, currency, desc, avail, cond, brand, metadata sql.NullString
		var images, created string
		if err := rows.Scan(&s.ID, &s.SessionID, &s.AnchorSKU, &s.VendorSKU, &s.Vendor,
			&s.Name, &url, &s.Price, &s.OrigPrice, &s.DiscPrice, &currency,
			&images, &desc, &avail, &cond, &brand, &metadata, &created); err != nil {
			return nil, err
		}
		s.URL = url.String
		s.Currency = currency.String
		s.Description = desc.String
		s.Availability = avail.String
		s.Condition = cond.String
		s.Brand = brand.String
		s.CreatedAt = parseSQLiteTime(created)
		if err := json.Unmarshal([]byte(images), &s.Images); err != nil {
			return nil, err
		}
		if metadata.Valid {
			if err := json.Unmarshal([]byte(metadata.String), &s.Metadata); err != nil {
				return nil, err
			}
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (d *DB) GetStats(ctx context.Context) ([]VendorStats, error) {
	rows, err := d.sql.QueryContext(ctx, `
SELECT p.vendor,
       COUNT(DISTINCT p.anchor_sku || '/' || p.vendor_sku),
       (SELECT COUNT(*) FROM product_snapshots s WHERE s.vendor = p.vendor)
FROM products p
GROUP BY p.vendor
ORDER BY p.vendor`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []VendorStats
	for rows.Next() {
		var s VendorStats
		if err := rows.Scan(&s.Vendor, &s.ProductCount, &s.SnapshotCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
