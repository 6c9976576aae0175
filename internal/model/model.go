// Package model defines the core domain types shared across the sales engine.
// All monetary math uses shopspring/decimal; only the finished report carries
// float64 values, already rounded to cents.
package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Seller is an input seller record. Immutable once loaded.
type Seller struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	StartDate string `json:"start_date,omitempty"`
	Position  string `json:"position,omitempty"`
}

// DisplayName joins first and last name.
func (s Seller) DisplayName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Product is a catalog entry keyed by SKU.
type Product struct {
	SKU           string          `json:"sku"`
	Name          string          `json:"name,omitempty"`
	Category      string          `json:"category,omitempty"`
	PurchasePrice decimal.Decimal `json:"purchase_price"` // cost basis per unit
	SalePrice     decimal.Decimal `json:"sale_price"`     // list price per unit
}

// LineItem is one product entry within a purchase record.
type LineItem struct {
	SKU       string          `json:"sku"`
	Quantity  decimal.Decimal `json:"quantity"`
	Discount  decimal.Decimal `json:"discount"`   // percent, 0-100
	SalePrice decimal.Decimal `json:"sale_price"` // unit sale price
}

// PurchaseRecord is a single receipt attributed to a seller.
type PurchaseRecord struct {
	ReceiptID     string          `json:"receipt_id,omitempty"`
	Date          string          `json:"date,omitempty"`
	SellerID      string          `json:"seller_id"`
	CustomerID    string          `json:"customer_id,omitempty"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	Items         []LineItem      `json:"items"`
}

// SellerStat accumulates one seller's figures during a fold. Owned by the
// engine; callers only ever see copies.
type SellerStat struct {
	ID         string
	Name       string
	Revenue    decimal.Decimal
	Profit     decimal.Decimal
	SalesCount int

	sold  map[string]decimal.Decimal
	order []string // SKUs in first-sold order
}

// NewSellerStat creates a zeroed accumulator for a seller.
func NewSellerStat(s Seller) *SellerStat {
	return &SellerStat{
		ID:   s.ID,
		Name: s.DisplayName(),
		sold: make(map[string]decimal.Decimal),
	}
}

// AddSold increments the quantity sold for a SKU.
func (s *SellerStat) AddSold(sku string, qty decimal.Decimal) {
	prev, ok := s.sold[sku]
	if !ok {
		s.order = append(s.order, sku)
	}
	s.sold[sku] = prev.Add(qty)
}

// Sold returns the quantity sold for a SKU (zero if never sold).
func (s *SellerStat) Sold(sku string) decimal.Decimal {
	return s.sold[sku]
}

// ProductsSold returns the per-SKU quantities in first-sold order.
func (s *SellerStat) ProductsSold() []ProductQuantity {
	out := make([]ProductQuantity, 0, len(s.order))
	for _, sku := range s.order {
		out = append(out, ProductQuantity{SKU: sku, Quantity: s.sold[sku]})
	}
	return out
}

// Snapshot returns a deep copy. Changes to the copy never reach s.
func (s *SellerStat) Snapshot() SellerStat {
	c := *s
	c.sold = make(map[string]decimal.Decimal, len(s.sold))
	for sku, qty := range s.sold {
		c.sold[sku] = qty
	}
	c.order = append([]string(nil), s.order...)
	return c
}

// ProductQuantity pairs a SKU with an exact quantity.
type ProductQuantity struct {
	SKU      string
	Quantity decimal.Decimal
}

// TopProduct is a report line for one of a seller's best-selling SKUs.
type TopProduct struct {
	SKU      string  `json:"sku"`
	Quantity float64 `json:"quantity"`
}

// ReportEntry is the immutable per-seller result. Monetary fields are
// rounded to 2 decimal places.
type ReportEntry struct {
	SellerID    string       `json:"seller_id"`
	Name        string       `json:"name"`
	Revenue     float64      `json:"revenue"`
	Profit      float64      `json:"profit"`
	SalesCount  int          `json:"sales_count"`
	TopProducts []TopProduct `json:"top_products"`
	Bonus       float64      `json:"bonus"`
}

// Report is a stored engine run.
type Report struct {
	ID             string        `json:"id"`
	CreatedAt      time.Time     `json:"created_at"`
	SellerCount    int           `json:"seller_count"`
	RecordCount    int           `json:"record_count"`
	SkippedRecords int           `json:"skipped_records"`
	SkippedItems   int           `json:"skipped_items"`
	Entries        []ReportEntry `json:"entries,omitempty"`
}

// Summary returns a copy of the report without its entries.
func (r Report) Summary() Report {
	r.Entries = nil
	return r
}

// Entry returns the entry for a seller, if present.
func (r Report) Entry(sellerID string) (ReportEntry, bool) {
	for _, e := range r.Entries {
		if e.SellerID == sellerID {
			return e, true
		}
	}
	return ReportEntry{}, false
}
