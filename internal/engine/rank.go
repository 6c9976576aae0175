package engine

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/atmx/sales-engine/internal/model"
	"github.com/atmx/sales-engine/internal/strategy"
)

// TopProductsLimit caps the top products list per seller.
const TopProductsLimit = 10

// MoneyScale is the number of decimal places for report rounding.
const MoneyScale = 2

// Rank orders sellers by profit descending and converts each one into a
// report entry. Equal profits keep their input order. The stats slice itself
// is not reordered. Each bonus strategy sees a private snapshot of the
// seller, so nothing it does leaks into the report.
func Rank(stats []*model.SellerStat, bonus strategy.BonusStrategy) []model.ReportEntry {
	sorted := make([]*model.SellerStat, len(stats))
	copy(sorted, stats)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Profit.GreaterThan(sorted[j].Profit)
	})

	total := len(sorted)
	entries := make([]model.ReportEntry, 0, total)
	for i, s := range sorted {
		b := bonus.Bonus(i, total, s.Snapshot())
		entries = append(entries, model.ReportEntry{
			SellerID:    s.ID,
			Name:        s.Name,
			Revenue:     money(s.Revenue),
			Profit:      money(s.Profit),
			SalesCount:  s.SalesCount,
			TopProducts: TopProducts(s, TopProductsLimit),
			Bonus:       money(b),
		})
	}
	return entries
}

// money rounds to MoneyScale places. Sums past the float64 range report as
// zero so entries always encode as JSON.
func money(v decimal.Decimal) float64 {
	return finite(v.Round(MoneyScale).InexactFloat64())
}

func finite(f float64) float64 {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	return f
}

// TopProducts returns up to limit SKUs sorted by quantity sold descending.
// Ties keep first-sold order.
func TopProducts(s *model.SellerStat, limit int) []model.TopProduct {
	sold := s.ProductsSold()
	sort.SliceStable(sold, func(i, j int) bool {
		return sold[i].Quantity.GreaterThan(sold[j].Quantity)
	})
	if limit >= 0 && len(sold) > limit {
		sold = sold[:limit]
	}

	top := make([]model.TopProduct, 0, len(sold))
	for _, pq := range sold {
		top = append(top, model.TopProduct{SKU: pq.SKU, Quantity: finite(pq.Quantity.InexactFloat64())})
	}
	return top
}
