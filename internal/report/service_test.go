package report_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/atmx/sales-engine/internal/engine"
	"github.com/atmx/sales-engine/internal/model"
	"github.com/atmx/sales-engine/internal/report"
	"github.com/atmx/sales-engine/internal/store"
)

const sampleDoc = `{
  "sellers": [
    {"id": "s1", "first_name": "Ann", "last_name": "Lee"},
    {"id": "s2", "first_name": "Bo", "last_name": "Kim"}
  ],
  "products": [{"sku": "A", "purchase_price": 5, "sale_price": 20}],
  "purchase_records": [
    {"seller_id": "s1", "total_amount": 100,
     "items": [{"sku": "A", "quantity": 2, "sale_price": 20, "discount": 0},
               {"sku": "Z", "quantity": 1, "sale_price": 99}]},
    {"seller_id": "ghost", "total_amount": 50, "items": []}
  ]
}`

// newTestEnv creates a test Service with in-memory store and chi router.
func newTestEnv(t *testing.T) (*report.Service, *store.MemoryStore, chi.Router) {
	t.Helper()
	ms := store.NewMemoryStore()
	svc := report.NewService(ms, engine.DefaultConfig(), nil)

	r := chi.NewRouter()
	r.Post("/api/v1/reports", svc.CreateReport)
	r.Get("/api/v1/reports", svc.ListReports)
	r.Get("/api/v1/reports/{reportID}", svc.GetReport)
	r.Get("/api/v1/reports/{reportID}/sellers/{sellerID}", svc.GetSellerEntry)

	return svc, ms, r
}

func do(t *testing.T, router chi.Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createReport(t *testing.T, router chi.Router) model.Report {
	t.Helper()
	w := do(t, router, "POST", "/api/v1/reports", sampleDoc)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var rep model.Report
	if err := json.Unmarshal(w.Body.Bytes(), &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	return rep
}

// --- Report creation ---

func TestCreateReport(t *testing.T) {
	_, ms, router := newTestEnv(t)

	rep := createReport(t, router)

	if rep.ID == "" {
		t.Error("expected non-empty report id")
	}
	if rep.SellerCount != 2 || rep.RecordCount != 2 {
		t.Errorf("unexpected counts: sellers=%d records=%d", rep.SellerCount, rep.RecordCount)
	}
	if rep.SkippedRecords != 1 || rep.SkippedItems != 1 {
		t.Errorf("expected 1 skipped record and item, got %d/%d", rep.SkippedRecords, rep.SkippedItems)
	}

	first := rep.Entries[0]
	if first.SellerID != "s1" || first.Revenue != 100 || first.Profit != 30 || first.Bonus != 4.5 {
		t.Errorf("unexpected first entry: %+v", first)
	}

	if _, err := ms.GetReport(context.Background(), rep.ID); err != nil {
		t.Errorf("report should be persisted: %v", err)
	}
}

func TestCreateReport_NumbersAreJSONNumbers(t *testing.T) {
	_, _, router := newTestEnv(t)
	w := do(t, router, "POST", "/api/v1/reports", sampleDoc)

	var raw struct {
		Entries []map[string]json.RawMessage `json:"entries"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"revenue", "profit", "bonus", "sales_count"} {
		v := raw.Entries[0][key]
		if len(v) == 0 || v[0] == '"' {
			t.Errorf("%s should be a JSON number, got %s", key, v)
		}
	}
	if string(raw.Entries[1]["top_products"]) != "[]" {
		t.Errorf("seller without sales should have empty top_products, got %s", raw.Entries[1]["top_products"])
	}
}

func TestCreateReport_InvalidInput(t *testing.T) {
	_, ms, router := newTestEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"sellers": [`},
		{"missing products", `{"sellers": [{"id": "s1"}], "purchase_records": [{}]}`},
		{"empty records", `{"sellers": [{"id": "s1"}], "products": [{"sku": "A"}], "purchase_records": []}`},
		{"not a list", `{"sellers": {"id": "s1"}, "products": [{"sku": "A"}], "purchase_records": [{}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, "POST", "/api/v1/reports", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}

	list, _ := ms.ListReports(context.Background())
	if len(list) != 0 {
		t.Errorf("failed requests must not store reports, got %d", len(list))
	}
}

func TestCreateReport_BodyTooLarge(t *testing.T) {
	svc, _, router := newTestEnv(t)
	svc.SetMaxBodyBytes(16)

	w := do(t, router, "POST", "/api/v1/reports", sampleDoc)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}
}

// --- Queries ---

func TestGetReport(t *testing.T) {
	_, _, router := newTestEnv(t)
	rep := createReport(t, router)

	w := do(t, router, "GET", "/api/v1/reports/"+rep.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got model.Report
	json.Unmarshal(w.Body.Bytes(), &got)
	if got.ID != rep.ID || len(got.Entries) != 2 {
		t.Errorf("unexpected report: %+v", got)
	}
}

func TestGetReport_NotFound(t *testing.T) {
	_, _, router := newTestEnv(t)
	w := do(t, router, "GET", "/api/v1/reports/nope", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestGetSellerEntry(t *testing.T) {
	_, _, router := newTestEnv(t)
	rep := createReport(t, router)

	w := do(t, router, "GET", "/api/v1/reports/"+rep.ID+"/sellers/s2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var entry model.ReportEntry
	json.Unmarshal(w.Body.Bytes(), &entry)
	if entry.SellerID != "s2" || entry.Name != "Bo Kim" || entry.SalesCount != 0 {
		t.Errorf("unexpected entry: %+v", entry)
	}

	w = do(t, router, "GET", "/api/v1/reports/"+rep.ID+"/sellers/ghost", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown seller, got %d", w.Code)
	}
}

func TestListReports(t *testing.T) {
	_, _, router := newTestEnv(t)

	w := do(t, router, "GET", "/api/v1/reports", "")
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("expected empty list, got %s", w.Body.String())
	}

	createReport(t, router)
	createReport(t, router)

	w = do(t, router, "GET", "/api/v1/reports", "")
	var list []model.Report
	json.Unmarshal(w.Body.Bytes(), &list)
	if len(list) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(list))
	}
	for _, r := range list {
		if len(r.Entries) != 0 {
			t.Errorf("list should not include entries, report %s has %d", r.ID, len(r.Entries))
		}
	}
}

// --- Generate ---

func TestGenerate_PublishesToFeed(t *testing.T) {
	feed := report.NewFeed()
	svc := report.NewService(store.NewMemoryStore(), nil, feed)

	in := engine.Input{
		Sellers:         []model.Seller{{ID: "s1"}},
		Products:        []model.Product{{SKU: "A"}},
		PurchaseRecords: []model.PurchaseRecord{{SellerID: "s1"}},
	}
	// No subscribers; Publish must not block.
	rep, err := svc.Generate(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.SellerCount != 1 {
		t.Errorf("expected 1 seller, got %d", rep.SellerCount)
	}
}

func TestCreateReport_OutOfRangeAmounts(t *testing.T) {
	_, ms, router := newTestEnv(t)
	doc := `{
	  "sellers": [{"id": "s1"}],
	  "products": [{"sku": "A", "purchase_price": 1}],
	  "purchase_records": [{"seller_id": "s1", "total_amount": 1e400, "items": []}]
	}`

	w := do(t, router, "POST", "/api/v1/reports", doc)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var rep model.Report
	if err := json.Unmarshal(w.Body.Bytes(), &rep); err != nil {
		t.Fatalf("response should be a report: %v (%q)", err, w.Body.String())
	}
	if rep.Entries[0].Revenue != 0 {
		t.Errorf("expected revenue 0, got %v", rep.Entries[0].Revenue)
	}
	if _, err := ms.GetReport(context.Background(), rep.ID); err != nil {
		t.Errorf("report should be persisted: %v", err)
	}
}

// --- Rate limiting ---

func TestRateLimit(t *testing.T) {
	limited := report.RateLimit(0.001, 2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		limited.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/reports", bytes.NewReader(nil)))
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusNoContent {
		t.Errorf("burst should pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("expected 429 after burst, got %d", codes[2])
	}
}
