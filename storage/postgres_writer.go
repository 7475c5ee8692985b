package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"toronto-housing/models"
)

const (
	listingColumns = 10
	batchSize      = 50
)

// PostgresWriter persists clean listings to PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(ctx context.Context, dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, fmt.Errorf("postgres: ping: %w", ctx.Err())
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS listings (
			id           SERIAL PRIMARY KEY,
			address      TEXT             NOT NULL,
			price        BIGINT,
			beds         TEXT,
			baths        TEXT,
			sqft         TEXT,
			total_beds   DOUBLE PRECISION,
			total_baths  DOUBLE PRECISION,
			cleaned_sqft DOUBLE PRECISION,
			full_bed     INTEGER,
			half_bed     INTEGER,
			created_at   TIMESTAMPTZ      NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_listings_price        ON listings(price);
		CREATE INDEX IF NOT EXISTS idx_listings_total_beds   ON listings(total_beds);
		CREATE INDEX IF NOT EXISTS idx_listings_cleaned_sqft ON listings(cleaned_sqft);
	`)
	return err
}

// Write replaces the table contents with listings in a single transaction.
func (pw *PostgresWriter) Write(ctx context.Context, listings []*models.CleanListing) error {
	tx, err := pw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM listings"); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}

	for i := 0; i < len(listings); i += batchSize {
		end := min(i+batchSize, len(listings))
		query, args := buildInsert(listings[i:end])
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("postgres: insert batch at %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func buildInsert(batch []*models.CleanListing) (string, []interface{}) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*listingColumns)

	for idx, l := range batch {
		base := idx * listingColumns
		placeholders := make([]string, listingColumns)
		for c := range placeholders {
			placeholders[c] = fmt.Sprintf("$%d", base+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			l.Address, l.Price, l.Beds, l.Baths, l.Sqft,
			l.TotalBeds, l.TotalBaths, l.CleanedSqft, l.FullBed, l.HalfBed)
	}

	query := `INSERT INTO listings (address, price, beds, baths, sqft, total_beds, total_baths, cleaned_sqft, full_bed, half_bed) VALUES ` +
		strings.Join(valueStrings, ",")
	return query, valueArgs
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchAll retrieves all stored listings in insertion order.
func (pw *PostgresWriter) FetchAll(ctx context.Context) ([]*models.CleanListing, error) {
	rows, err := pw.db.QueryContext(ctx, `
		SELECT id, address, price, beds, baths, sqft,
		       total_beds, total_baths, cleaned_sqft, full_bed, half_bed
		FROM listings
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var listings []*models.CleanListing
	for rows.Next() {
		l := &models.CleanListing{}
		if err := rows.Scan(
			&l.ID, &l.Address, &l.Price, &l.Beds, &l.Baths, &l.Sqft,
			&l.TotalBeds, &l.TotalBaths, &l.CleanedSqft, &l.FullBed, &l.HalfBed,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}
