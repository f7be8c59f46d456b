package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Store represents the SQLite storage implementation
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the database at dbPath and applies
// migrations. ":memory:" gives a private in-memory database.
func NewStore(dbPath string) (*Store, error) {
	// Ensure target directory exists (e.g., ./data)
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open(sqliteDriver, dbPath+sqliteParams)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	if dbPath == ":memory:" || strings.Contains(dbPath, "mode=memory") {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate performs database migrations
func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS representatives (
			id TEXT PRIMARY KEY,
			slug TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			photo_url TEXT,
			position TEXT NOT NULL,
			constituency_or_ward TEXT,
			county TEXT,
			phone TEXT,
			email TEXT,
			office_address TEXT,
			twitter TEXT,
			facebook TEXT,
			party TEXT,
			votes_garnered INTEGER,
			participation_summary TEXT,
			news_summary TEXT,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS performance_metrics (
			id TEXT PRIMARY KEY,
			representative_id TEXT NOT NULL,
			name TEXT NOT NULL,
			value TEXT NOT NULL,
			unit TEXT,
			description TEXT,
			source TEXT,
			trend TEXT,
			created_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS highlights (
			id TEXT PRIMARY KEY,
			representative_id TEXT NOT NULL,
			title TEXT NOT NULL,
			date TEXT NOT NULL,
			description TEXT,
			category TEXT NOT NULL,
			source_url TEXT,
			created_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS reviews (
			id TEXT PRIMARY KEY,
			representative_id TEXT NOT NULL,
			rating INTEGER NOT NULL,
			comment TEXT NOT NULL,
			user_id TEXT,
			user_name TEXT,
			created_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS county_gdp (
			id TEXT PRIMARY KEY,
			county TEXT NOT NULL,
			gdp_millions_ksh REAL NOT NULL,
			year INTEGER NOT NULL,
			gdp_per_capita_ksh REAL,
			sector_breakdown TEXT,
			updated_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS census_data (
			id TEXT PRIMARY KEY,
			county TEXT NOT NULL,
			total_population INTEGER NOT NULL,
			male_population INTEGER NOT NULL,
			female_population INTEGER NOT NULL,
			intersex_population INTEGER,
			household_count INTEGER NOT NULL,
			average_household_size REAL NOT NULL,
			population_density REAL NOT NULL,
			year INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS integrity_reports (
			id TEXT PRIMARY KEY,
			representative_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			report TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS scorecards (
			representative_id TEXT PRIMARY KEY,
			performance_score REAL,
			integrity_score REAL,
			updated_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS audit_entries (
			id TEXT PRIMARY KEY,
			subject_id TEXT NOT NULL,
			action TEXT NOT NULL,
			actor TEXT NOT NULL,
			details TEXT NOT NULL,
			metadata TEXT,
			timestamp INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)`,

		// Indexes for performance
		`CREATE INDEX IF NOT EXISTS idx_representatives_county ON representatives(county)`,
		`CREATE INDEX IF NOT EXISTS idx_metrics_representative ON performance_metrics(representative_id)`,
		`CREATE INDEX IF NOT EXISTS idx_highlights_representative ON highlights(representative_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_representative ON reviews(representative_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_gdp_year ON county_gdp(year)`,
		`CREATE INDEX IF NOT EXISTS idx_census_year ON census_data(year)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_representative ON integrity_reports(representative_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_subject_id ON audit_entries(subject_id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_entries(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_action ON audit_entries(action)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}
	return nil
}

// inTx runs fn in a transaction, rolling back when fn fails.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	rollback := func(e error) error {
		_ = tx.Rollback()
		return e
	}

	if err := fn(tx); err != nil {
		return rollback(err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Tables lists the data tables in the order they are reported by Counts.
var Tables = []string{
	"representatives",
	"performance_metrics",
	"highlights",
	"reviews",
	"county_gdp",
	"census_data",
	"integrity_reports",
	"scorecards",
	"audit_entries",
}

// Counts returns the row count of every table.
func (s *Store) Counts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(Tables))
	for _, table := range Tables {
		var n int
		// Table names come from the fixed list above.
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func intPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
