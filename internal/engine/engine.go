// Package engine implements the sales aggregation engine: it indexes sellers
// and products, folds purchase records into per-seller statistics, and ranks
// sellers by profit to derive bonuses and top products.
//
// The engine is synchronous and performs no I/O. Each call allocates its own
// accumulators, so independent calls may run concurrently without locking.
package engine

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/atmx/sales-engine/internal/model"
	"github.com/atmx/sales-engine/internal/strategy"
)

var (
	// ErrInvalidInput is returned when sellers, products or purchase
	// records are missing or empty.
	ErrInvalidInput = errors.New("engine: invalid input data")

	// ErrInvalidConfiguration is returned when the configuration or one of
	// its strategies is missing.
	ErrInvalidConfiguration = errors.New("engine: invalid configuration")

	// ErrInvalidStrategy is returned by Fold when no usable revenue
	// strategy is supplied.
	ErrInvalidStrategy = errors.New("engine: revenue strategy is not callable")
)

// Input holds the three collections the engine consumes.
type Input struct {
	Sellers         []model.Seller         `json:"sellers"`
	Products        []model.Product        `json:"products"`
	PurchaseRecords []model.PurchaseRecord `json:"purchase_records"`
}

// Validate checks that every collection is present and non-empty.
func (in Input) Validate() error {
	switch {
	case len(in.Sellers) == 0:
		return fmt.Errorf("%w: sellers must be a non-empty list", ErrInvalidInput)
	case len(in.Products) == 0:
		return fmt.Errorf("%w: products must be a non-empty list", ErrInvalidInput)
	case len(in.PurchaseRecords) == 0:
		return fmt.Errorf("%w: purchase_records must be a non-empty list", ErrInvalidInput)
	}
	return nil
}

// Config carries the pluggable policies.
type Config struct {
	Revenue strategy.RevenueStrategy
	Bonus   strategy.BonusStrategy
}

// DefaultConfig returns the reference revenue and bonus policies.
func DefaultConfig() *Config {
	return &Config{
		Revenue: strategy.SimpleRevenue{},
		Bonus:   strategy.ProfitBonus{},
	}
}

// Validate reports whether both strategies are usable.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config is missing", ErrInvalidConfiguration)
	}
	if isNil(c.Revenue) {
		return fmt.Errorf("%w: revenue strategy is missing", ErrInvalidConfiguration)
	}
	if isNil(c.Bonus) {
		return fmt.Errorf("%w: bonus strategy is missing", ErrInvalidConfiguration)
	}
	return nil
}

// isNil catches both untyped nil and typed nil values such as a nil
// strategy.RevenueFunc, which would panic when invoked.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func, reflect.Pointer, reflect.Map, reflect.Interface, reflect.Slice, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// Result is a finished engine run.
type Result struct {
	Entries []model.ReportEntry
	Stats   FoldStats
}

// Analyze runs the full pipeline: index, fold, rank. Either the full report
// is produced or an error is returned before any processing.
func Analyze(in Input, cfg *Config) (*Result, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	idx, err := BuildIndex(in.Sellers, in.Products)
	if err != nil {
		return nil, err
	}

	stats, err := Fold(in.PurchaseRecords, idx, cfg.Revenue)
	if err != nil {
		return nil, err
	}

	return &Result{
		Entries: Rank(idx.Stats(), cfg.Bonus),
		Stats:   stats,
	}, nil
}
