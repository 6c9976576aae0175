// Package dataset decodes the sales input document into typed model values.
//
// The document is a JSON object with three lists: sellers, products and
// purchase_records. Numeric fields are coerced once here: numbers and
// numeric strings are accepted, anything else (missing, null, garbage) is
// zero. Identifiers may be strings or numbers and always become text.
package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/atmx/sales-engine/internal/engine"
	"github.com/atmx/sales-engine/internal/model"
)

// Collection keys in the input document.
const (
	KeySellers         = "sellers"
	KeyProducts        = "products"
	KeyPurchaseRecords = "purchase_records"
)

// Decode reads one input document from r.
func Decode(r io.Reader) (engine.Input, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return engine.Input{}, fmt.Errorf("dataset: read: %w", err)
	}
	return Parse(data)
}

// Parse decodes an input document. Missing, non-list or empty collections
// fail with engine.ErrInvalidInput.
func Parse(data []byte) (engine.Input, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return engine.Input{}, fmt.Errorf("dataset: decode document: %w", err)
	}

	sellers, err := collection(doc, KeySellers)
	if err != nil {
		return engine.Input{}, err
	}
	products, err := collection(doc, KeyProducts)
	if err != nil {
		return engine.Input{}, err
	}
	records, err := collection(doc, KeyPurchaseRecords)
	if err != nil {
		return engine.Input{}, err
	}

	in := engine.Input{
		Sellers:         make([]model.Seller, 0, len(sellers)),
		Products:        make([]model.Product, 0, len(products)),
		PurchaseRecords: make([]model.PurchaseRecord, 0, len(records)),
	}
	for _, f := range sellers {
		in.Sellers = append(in.Sellers, NewSeller(f))
	}
	for _, f := range products {
		in.Products = append(in.Products, NewProduct(f))
	}
	for _, f := range records {
		in.PurchaseRecords = append(in.PurchaseRecords, NewPurchaseRecord(f))
	}
	return in, nil
}

// collection extracts a required non-empty list of objects.
func collection(doc map[string]json.RawMessage, key string) ([]Fields, error) {
	raw, ok := doc[key]
	if !ok || isNull(raw) {
		return nil, fmt.Errorf("%w: %s is missing", engine.ErrInvalidInput, key)
	}
	if !isArray(raw) {
		return nil, fmt.Errorf("%w: %s is not a list", engine.ErrInvalidInput, key)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", engine.ErrInvalidInput, key, err)
	}
	if len(elems) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", engine.ErrInvalidInput, key)
	}

	out := make([]Fields, 0, len(elems))
	for i, e := range elems {
		var f Fields
		if err := json.Unmarshal(e, &f); err != nil || f == nil {
			return nil, fmt.Errorf("%w: %s[%d] is not an object", engine.ErrInvalidInput, key, i)
		}
		out = append(out, f)
	}
	return out, nil
}

// Fields is one loosely-typed JSON object.
type Fields map[string]json.RawMessage

// Text returns a field as text. Strings are taken as-is, numbers are
// normalised (1.0 and 1 both become "1"), anything else is empty.
func (f Fields) Text(key string) string {
	raw := bytes.TrimSpace(f[key])
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return s
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		if d, err := decimal.NewFromString(string(raw)); err == nil {
			return d.String()
		}
		return string(raw)
	}
	return ""
}

// Number returns a field as a decimal, defaulting to zero. Values outside
// the float64 range count as invalid, since report figures are float64.
func (f Fields) Number(key string) decimal.Decimal {
	raw := bytes.TrimSpace(f[key])
	if len(raw) == 0 {
		return decimal.Zero
	}
	var s string
	if raw[0] == '"' {
		if json.Unmarshal(raw, &s) != nil {
			return decimal.Zero
		}
		s = strings.TrimSpace(s)
	} else {
		s = string(raw)
	}
	d, err := decimal.NewFromString(s)
	if err != nil || math.IsInf(d.InexactFloat64(), 0) {
		return decimal.Zero
	}
	return d
}

// List returns a field as a list of objects. Non-list values and non-object
// elements are dropped.
func (f Fields) List(key string) []Fields {
	raw := f[key]
	if !isArray(raw) {
		return nil
	}
	var elems []json.RawMessage
	if json.Unmarshal(raw, &elems) != nil {
		return nil
	}
	out := make([]Fields, 0, len(elems))
	for _, e := range elems {
		var item Fields
		if json.Unmarshal(e, &item) == nil && item != nil {
			out = append(out, item)
		}
	}
	return out
}

// NewSeller builds a seller from loose fields.
func NewSeller(f Fields) model.Seller {
	return model.Seller{
		ID:        f.Text("id"),
		FirstName: f.Text("first_name"),
		LastName:  f.Text("last_name"),
		StartDate: f.Text("start_date"),
		Position:  f.Text("position"),
	}
}

// NewProduct builds a product from loose fields.
func NewProduct(f Fields) model.Product {
	return model.Product{
		SKU:           f.Text("sku"),
		Name:          f.Text("name"),
		Category:      f.Text("category"),
		PurchasePrice: f.Number("purchase_price"),
		SalePrice:     f.Number("sale_price"),
	}
}

// NewLineItem builds a line item from loose fields.
func NewLineItem(f Fields) model.LineItem {
	return model.LineItem{
		SKU:       f.Text("sku"),
		Quantity:  f.Number("quantity"),
		Discount:  f.Number("discount"),
		SalePrice: f.Number("sale_price"),
	}
}

// NewPurchaseRecord builds a purchase record and its items from loose fields.
func NewPurchaseRecord(f Fields) model.PurchaseRecord {
	items := f.List("items")
	rec := model.PurchaseRecord{
		ReceiptID:     f.Text("receipt_id"),
		Date:          f.Text("date"),
		SellerID:      f.Text("seller_id"),
		CustomerID:    f.Text("customer_id"),
		TotalAmount:   f.Number("total_amount"),
		TotalDiscount: f.Number("total_discount"),
		Items:         make([]model.LineItem, 0, len(items)),
	}
	for _, item := range items {
		rec.Items = append(rec.Items, NewLineItem(item))
	}
	return rec
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}
