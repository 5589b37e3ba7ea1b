package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // Import for side-effects only

	"mspro-labs/scoop-scout/internal/models"
)

// ErrNoSnapshot is returned before the first successful scrape.
var ErrNoSnapshot = errors.New("no snapshot saved yet")

// Connect opens a connection to the SQLite database and ensures the schema exists.
// It automatically applies recommended settings for concurrency (WAL mode).
func Connect(dbPath string) (*sql.DB, error) {
	memory := dbPath == ":memory:" || strings.HasPrefix(dbPath, "file::memory:")
	if !memory {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Use robust connection settings to prevent "database locked" errors
	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL", dbPath)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if memory {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err = createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return db, nil
}

// createSchema is private as it's only called by Connect.
func createSchema(db *sql.DB) error {
	flavorTable := `
	CREATE TABLE IF NOT EXISTS flavor (
	  location_id TEXT NOT NULL,
	  brand TEXT NOT NULL,
	  flavor_name TEXT NOT NULL,
	  description TEXT,
	  date TEXT NOT NULL,
	  source_url TEXT,
	  scraped_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	  PRIMARY KEY (location_id, flavor_name, date)
	);
	CREATE INDEX IF NOT EXISTS idx_flavor_brand ON flavor(brand);
	`
	if _, err := db.Exec(flavorTable); err != nil {
		return err
	}

	// Single row holding the last artifact as served to the UI
	snapshotTable := `
	CREATE TABLE IF NOT EXISTS snapshot (
	  id INTEGER PRIMARY KEY CHECK (id = 1),
	  generated_at TIMESTAMP NOT NULL,
	  flavor_count INTEGER NOT NULL,
	  degraded_brands TEXT,
	  empty_brands TEXT,
	  artifact BLOB NOT NULL
	);
	`
	if _, err := db.Exec(snapshotTable); err != nil {
		return err
	}

	// databases created before empty_brands was tracked
	return ensureColumn(db, "snapshot", "empty_brands", "TEXT")
}

func ensureColumn(db *sql.DB, table, column, decl string) error {
	rows, err := db.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid              int
			name, typ        string
			notNull, primary int
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &primary); err != nil {
			return err
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	_, err = db.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, decl))
	return err
}

// Snapshot is the stored result of the latest run.
type Snapshot struct {
	GeneratedAt    time.Time
	FlavorCount    int
	DegradedBrands []string
	EmptyBrands    []string
	Artifact       []byte
}

// SaveSnapshot replaces the stored day with records and artifact in one
// transaction. Only the latest run is kept.
func SaveSnapshot(db *sql.DB, snap Snapshot, records []models.FlavorRecord) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM flavor`); err != nil {
		return 0, fmt.Errorf("failed to clear flavors: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT OR IGNORE INTO flavor (location_id, brand, flavor_name, description, date, source_url)
	VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	var totalAffected int64 = 0
	for _, rec := range records {
		res, err := stmt.ExecContext(ctx,
			rec.LocationID,
			rec.Brand,
			rec.FlavorName,
			sql.NullString{String: rec.Description, Valid: rec.Description != ""},
			rec.Date,
			sql.NullString{String: rec.SourceURL, Valid: rec.SourceURL != ""},
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert %s: %w", rec.LocationID, err)
		}
		rows, _ := res.RowsAffected()
		totalAffected += rows
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO snapshot (id, generated_at, flavor_count, degraded_brands, empty_brands, artifact)
	VALUES (1, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	  generated_at = excluded.generated_at,
	  flavor_count = excluded.flavor_count,
	  degraded_brands = excluded.degraded_brands,
	  empty_brands = excluded.empty_brands,
	  artifact = excluded.artifact`,
		snap.GeneratedAt.UTC(), snap.FlavorCount,
		strings.Join(snap.DegradedBrands, ","), strings.Join(snap.EmptyBrands, ","),
		snap.Artifact)
	if err != nil {
		return 0, fmt.Errorf("failed to save snapshot: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return totalAffected, nil
}

// GetSnapshot returns the latest saved snapshot or ErrNoSnapshot.
func GetSnapshot(db *sql.DB) (Snapshot, error) {
	var (
		snap            Snapshot
		degraded, empty sql.NullString
	)
	err := db.QueryRow(`SELECT generated_at, flavor_count, degraded_brands, empty_brands, artifact FROM snapshot WHERE id = 1`).
		Scan(&snap.GeneratedAt, &snap.FlavorCount, &degraded, &empty, &snap.Artifact)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return Snapshot{}, err
	}
	if degraded.String != "" {
		snap.DegradedBrands = strings.Split(degraded.String, ",")
	}
	if empty.String != "" {
		snap.EmptyBrands = strings.Split(empty.String, ",")
	}
	return snap, nil
}

// GetFlavors returns stored records, optionally for one brand, in location order.
func GetFlavors(db *sql.DB, brand string) ([]models.FlavorRecord, error) {
	query := `SELECT location_id, brand, flavor_name, description, date, source_url FROM flavor`
	var args []any
	if brand != "" {
		query += ` WHERE brand = ?`
		args = append(args, brand)
	}
	query += ` ORDER BY brand, location_id`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.FlavorRecord
	for rows.Next() {
		var (
			r         models.FlavorRecord
			desc, src sql.NullString
		)
		if err := rows.Scan(&r.LocationID, &r.Brand, &r.FlavorName, &desc, &r.Date, &src); err != nil {
			return nil, err
		}
		r.Description = desc.String
		r.SourceURL = src.String
		records = append(records, r)
	}
	return records, rows.Err()
}
