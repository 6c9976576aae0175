package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atmx/sales-engine/internal/model"
)

// Schema is the DDL for the reports table. Entries are stored as JSONB
// since they are only ever read back whole.
const Schema = `CREATE TABLE IF NOT EXISTS sales_reports (
	id              TEXT PRIMARY KEY,
	created_at      TIMESTAMPTZ NOT NULL,
	seller_count    INTEGER NOT NULL,
	record_count    INTEGER NOT NULL,
	skipped_records INTEGER NOT NULL,
	skipped_items   INTEGER NOT NULL,
	entries         JSONB NOT NULL
)`

// PostgresStore implements Store using PostgreSQL as the source of truth.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the reports table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, Schema)
	return err
}

func (s *PostgresStore) SaveReport(ctx context.Context, r *model.Report) error {
	entries, err := json.Marshal(r.Entries)
	if err != nil {
		return fmt.Errorf("encode entries for report %s: %w", r.ID, err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO sales_reports (id, created_at, seller_count, record_count, skipped_records, skipped_items, entries)
		 VALUES ($1, $2, $3, $4, $5, $6, $7::JSONB)`,
		r.ID, r.CreatedAt, r.SellerCount, r.RecordCount,
		r.SkippedRecords, r.SkippedItems, string(entries),
	)
	return err
}

func (s *PostgresStore) GetReport(ctx context.Context, id string) (*model.Report, error) {
	var r model.Report
	var entries []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, created_at, seller_count, record_count, skipped_records, skipped_items, entries::TEXT
		 FROM sales_reports WHERE id = $1`, id).
		Scan(&r.ID, &r.CreatedAt, &r.SellerCount, &r.RecordCount,
			&r.SkippedRecords, &r.SkippedItems, &entries)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get report %s: %w", id, err)
	}

	if err := json.Unmarshal(entries, &r.Entries); err != nil {
		return nil, fmt.Errorf("decode entries for report %s: %w", id, err)
	}
	return &r, nil
}

func (s *PostgresStore) ListReports(ctx context.Context) ([]model.Report, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, created_at, seller_count, record_count, skipped_records, skipped_items
		 FROM sales_reports ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSummaries(rows)
}

// pgxRows is the subset of pgx.Rows used by scanSummaries.
type pgxRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanSummaries(rows pgxRows) ([]model.Report, error) {
	reports := []model.Report{}
	for rows.Next() {
		var r model.Report
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.SellerCount, &r.RecordCount,
			&r.SkippedRecords, &r.SkippedItems); err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}
