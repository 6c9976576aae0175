package engine

import (
	"fmt"

	"github.com/atmx/sales-engine/internal/model"
)

// Index owns the per-seller accumulators and the lookup tables used while
// folding. Stats keep the input seller order.
type Index struct {
	stats    []*model.SellerStat
	sellers  map[string]int // seller id → position in stats
	products map[string]model.Product
}

// BuildIndex allocates a zeroed SellerStat per seller and indexes products
// by SKU. When ids repeat, the later entry wins the lookup, but every seller
// keeps its own accumulator.
func BuildIndex(sellers []model.Seller, products []model.Product) (*Index, error) {
	if len(sellers) == 0 {
		return nil, fmt.Errorf("%w: sellers must be a non-empty list", ErrInvalidInput)
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("%w: products must be a non-empty list", ErrInvalidInput)
	}

	idx := &Index{
		stats:    make([]*model.SellerStat, 0, len(sellers)),
		sellers:  make(map[string]int, len(sellers)),
		products: make(map[string]model.Product, len(products)),
	}
	for i, s := range sellers {
		idx.stats = append(idx.stats, model.NewSellerStat(s))
		idx.sellers[s.ID] = i
	}
	for _, p := range products {
		idx.products[p.SKU] = p
	}
	return idx, nil
}

// Seller returns the accumulator for a seller id.
func (x *Index) Seller(id string) (*model.SellerStat, bool) {
	i, ok := x.sellers[id]
	if !ok {
		return nil, false
	}
	return x.stats[i], true
}

// Product returns the catalog entry for a SKU.
func (x *Index) Product(sku string) (model.Product, bool) {
	p, ok := x.products[sku]
	return p, ok
}

// Stats returns the accumulators in input seller order.
func (x *Index) Stats() []*model.SellerStat {
	return x.stats
}
