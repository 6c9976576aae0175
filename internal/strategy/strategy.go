// Package strategy defines the pluggable revenue and bonus policies used by
// the aggregation engine, plus the reference policies the service ships with.
package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/atmx/sales-engine/internal/model"
)

// RevenueStrategy computes the discounted sale revenue of one line item.
// Implementations must be pure.
type RevenueStrategy interface {
	Revenue(item model.LineItem, product model.Product) decimal.Decimal
}

// BonusStrategy computes a seller's bonus from their 0-based rank among
// total sellers. Implementations must be pure and tolerate total == 1.
type BonusStrategy interface {
	Bonus(rank, total int, seller model.SellerStat) decimal.Decimal
}

// RevenueFunc adapts a plain function to RevenueStrategy.
type RevenueFunc func(item model.LineItem, product model.Product) decimal.Decimal

func (f RevenueFunc) Revenue(item model.LineItem, product model.Product) decimal.Decimal {
	return f(item, product)
}

// BonusFunc adapts a plain function to BonusStrategy.
type BonusFunc func(rank, total int, seller model.SellerStat) decimal.Decimal

func (f BonusFunc) Bonus(rank, total int, seller model.SellerStat) decimal.Decimal {
	return f(rank, total, seller)
}

var hundred = decimal.NewFromInt(100)

// SimpleRevenue is the reference revenue policy:
//
//	sale_price × quantity × (1 − discount/100)
//
// Missing fields are already zero on the typed LineItem.
type SimpleRevenue struct{}

func (SimpleRevenue) Revenue(item model.LineItem, _ model.Product) decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(item.Discount.Div(hundred))
	return item.SalePrice.Mul(item.Quantity).Mul(factor)
}

// Bonus rates by rank.
var (
	FirstPlaceRate = decimal.NewFromFloat(0.15)
	PodiumRate     = decimal.NewFromFloat(0.10) // ranks 1 and 2
	DefaultRate    = decimal.NewFromFloat(0.05)
)

// ProfitBonus is the reference bonus policy. Rules are checked in order:
// rank 0 earns 15%, the last rank earns nothing, ranks 1 and 2 earn 10%,
// everyone else 5%. A lone seller is rank 0 and gets the top rate.
// Negative profit is clamped to zero first.
type ProfitBonus struct{}

func (ProfitBonus) Bonus(rank, total int, seller model.SellerStat) decimal.Decimal {
	profit := decimal.Max(seller.Profit, decimal.Zero)
	switch {
	case rank == 0:
		return profit.Mul(FirstPlaceRate)
	case rank == total-1:
		return decimal.Zero
	case rank == 1, rank == 2:
		return profit.Mul(PodiumRate)
	default:
		return profit.Mul(DefaultRate)
	}
}
