package strategy

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/atmx/sales-engine/internal/model"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func seller(profit float64) model.SellerStat {
	return model.SellerStat{ID: "s", Profit: d(profit)}
}

func TestSimpleRevenue(t *testing.T) {
	tests := []struct {
		name                       string
		price, qty, discount, want float64
	}{
		{"no discount", 20, 2, 0, 40},
		{"ten percent", 100, 3, 10, 270},
		{"full discount", 50, 4, 100, 0},
		{"missing price", 0, 5, 0, 0},
		{"missing quantity", 10, 0, 5, 0},
		{"fractional", 9.99, 3, 15, 25.4745},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := model.LineItem{SKU: "A", SalePrice: d(tt.price), Quantity: d(tt.qty), Discount: d(tt.discount)}
			got := SimpleRevenue{}.Revenue(item, model.Product{SKU: "A"})
			if !got.Equal(d(tt.want)) {
				t.Errorf("expected %v, got %s", tt.want, got)
			}
		})
	}
}

func TestProfitBonus_Ranks(t *testing.T) {
	tests := []struct {
		name        string
		rank, total int
		want        float64
	}{
		{"first of many", 0, 5, 15},
		{"second", 1, 5, 10},
		{"third", 2, 5, 10},
		{"middle", 3, 5, 5},
		{"last", 4, 5, 0},
		{"lone seller is first, not last", 0, 1, 15},
		{"second of two is last", 1, 2, 0},
		{"second of three", 1, 3, 10},
		{"third of three is last", 2, 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProfitBonus{}.Bonus(tt.rank, tt.total, seller(100))
			if !got.Equal(d(tt.want)) {
				t.Errorf("rank %d/%d: expected %v, got %s", tt.rank, tt.total, tt.want, got)
			}
		})
	}
}

func TestProfitBonus_NegativeProfitClamped(t *testing.T) {
	for rank := 0; rank < 4; rank++ {
		got := ProfitBonus{}.Bonus(rank, 5, seller(-250))
		if !got.IsZero() {
			t.Errorf("rank %d: negative profit should give zero bonus, got %s", rank, got)
		}
	}
}

func TestFuncAdapters(t *testing.T) {
	var rs RevenueStrategy = RevenueFunc(func(item model.LineItem, _ model.Product) decimal.Decimal {
		return item.Quantity.Mul(d(3))
	})
	if got := rs.Revenue(model.LineItem{Quantity: d(2)}, model.Product{}); !got.Equal(d(6)) {
		t.Errorf("RevenueFunc: expected 6, got %s", got)
	}

	var bs BonusStrategy = BonusFunc(func(rank, total int, _ model.SellerStat) decimal.Decimal {
		return decimal.NewFromInt(int64(total - rank))
	})
	if got := bs.Bonus(1, 4, model.SellerStat{}); !got.Equal(d(3)) {
		t.Errorf("BonusFunc: expected 3, got %s", got)
	}
}
