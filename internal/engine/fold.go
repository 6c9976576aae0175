package engine

import (
	"github.com/atmx/sales-engine/internal/model"
	"github.com/atmx/sales-engine/internal/strategy"
)

// FoldStats counts what the leniency policy skipped during a fold.
type FoldStats struct {
	Records        int // records seen
	SkippedRecords int // unknown seller id
	SkippedItems   int // unknown SKU
}

// Fold walks every purchase record once and accumulates revenue, profit,
// sales count and quantities sold into the index.
//
// A record whose seller is unknown is skipped entirely; an item whose SKU is
// unknown is skipped alone. Neither is an error.
//
// Seller revenue comes from the record's total amount. Profit comes from the
// revenue strategy minus purchase cost, item by item.
func Fold(records []model.PurchaseRecord, idx *Index, revenue strategy.RevenueStrategy) (FoldStats, error) {
	if isNil(revenue) {
		return FoldStats{}, ErrInvalidStrategy
	}

	var st FoldStats
	for _, rec := range records {
		st.Records++

		seller, ok := idx.Seller(rec.SellerID)
		if !ok {
			st.SkippedRecords++
			continue
		}
		seller.SalesCount++
		seller.Revenue = seller.Revenue.Add(rec.TotalAmount)

		for _, item := range rec.Items {
			product, ok := idx.Product(item.SKU)
			if !ok {
				st.SkippedItems++
				continue
			}

			cost := product.PurchasePrice.Mul(item.Quantity)
			itemRevenue := revenue.Revenue(item, product)
			seller.Profit = seller.Profit.Add(itemRevenue.Sub(cost))
			seller.AddSold(item.SKU, item.Quantity)
		}
	}
	return st, nil
}
