// Package store defines the persistence interface for finished sales reports.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing).
package store

import (
	"context"
	"errors"

	"github.com/atmx/sales-engine/internal/model"
)

// ErrNotFound is returned when a report id is unknown.
var ErrNotFound = errors.New("store: report not found")

// Store is the persistence interface. Only finished reports are stored;
// folding state never leaves the engine.
type Store interface {
	// SaveReport persists a report with its entries.
	SaveReport(ctx context.Context, report *model.Report) error

	// GetReport retrieves a full report by id.
	GetReport(ctx context.Context, id string) (*model.Report, error)

	// ListReports returns report summaries (no entries), newest first.
	ListReports(ctx context.Context) ([]model.Report, error)
}
