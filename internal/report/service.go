// Package report provides the HTTP handlers and business logic for
// generating, storing and querying seller performance reports.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/atmx/sales-engine/internal/dataset"
	"github.com/atmx/sales-engine/internal/engine"
	"github.com/atmx/sales-engine/internal/metrics"
	"github.com/atmx/sales-engine/internal/model"
	"github.com/atmx/sales-engine/internal/store"
)

// DefaultMaxBodyBytes bounds an uploaded input document.
const DefaultMaxBodyBytes int64 = 10 << 20

// Service generates reports with the configured strategies and persists
// them. Engine runs share no state, so no locking is needed here.
type Service struct {
	store   store.Store
	engine  *engine.Config
	feed    *Feed // optional; nil disables report notifications
	maxBody int64
	now     func() time.Time
}

// NewService creates a new report service.
// Pass nil for cfg to use the reference policies, nil for feed if WebSocket
// notifications are not needed.
func NewService(st store.Store, cfg *engine.Config, feed *Feed) *Service {
	if cfg == nil {
		cfg = engine.DefaultConfig()
	}
	return &Service{
		store:   st,
		engine:  cfg,
		feed:    feed,
		maxBody: DefaultMaxBodyBytes,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetMaxBodyBytes overrides the upload size limit.
func (s *Service) SetMaxBodyBytes(n int64) {
	if n > 0 {
		s.maxBody = n
	}
}

// Generate runs the engine over in, stores the result and announces it.
func (s *Service) Generate(ctx context.Context, in engine.Input) (*model.Report, error) {
	start := time.Now()
	defer func() { metrics.ReportLatency.Observe(time.Since(start).Seconds()) }()

	res, err := engine.Analyze(in, s.engine)
	if err != nil {
		metrics.ReportsTotal.WithLabelValues(outcome(err)).Inc()
		return nil, err
	}

	rep := &model.Report{
		ID:             uuid.New().String(),
		CreatedAt:      s.now(),
		SellerCount:    len(res.Entries),
		RecordCount:    res.Stats.Records,
		SkippedRecords: res.Stats.SkippedRecords,
		SkippedItems:   res.Stats.SkippedItems,
		Entries:        res.Entries,
	}

	if err := s.store.SaveReport(ctx, rep); err != nil {
		metrics.ReportsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("save report: %w", err)
	}

	metrics.ReportsTotal.WithLabelValues("ok").Inc()
	metrics.SellersRanked.Add(float64(rep.SellerCount))
	metrics.ObserveSkips(rep.SkippedRecords, rep.SkippedItems)

	slog.Info("report generated",
		"id", rep.ID,
		"sellers", rep.SellerCount,
		"records", rep.RecordCount,
		"skipped_records", rep.SkippedRecords,
		"skipped_items", rep.SkippedItems,
	)

	if s.feed != nil {
		ev := ReportEvent{
			Type:        EventReportGenerated,
			ReportID:    rep.ID,
			SellerCount: rep.SellerCount,
		}
		if len(rep.Entries) > 0 {
			ev.TopSellerID = rep.Entries[0].SellerID
		}
		s.feed.Publish(ev)
	}
	return rep, nil
}

// --- HTTP Handlers ---

// CreateReport handles POST /api/v1/reports
// The body is the input document: {"sellers": [...], "products": [...], "purchase_records": [...]}.
func (s *Service) CreateReport(w http.ResponseWriter, r *http.Request) {
	in, err := dataset.Decode(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		metrics.ReportsTotal.WithLabelValues("invalid").Inc()
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	rep, err := s.Generate(r.Context(), in)
	if err != nil {
		if isClientError(err) {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("report generation failed", "err", err)
		writeError(w, "failed to generate report", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, rep)
}

// ListReports handles GET /api/v1/reports
func (s *Service) ListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.store.ListReports(r.Context())
	if err != nil {
		writeError(w, "failed to list reports", http.StatusInternalServerError)
		return
	}
	if reports == nil {
		reports = []model.Report{}
	}
	writeJSON(w, http.StatusOK, reports)
}

// GetReport handles GET /api/v1/reports/{reportID}
func (s *Service) GetReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// GetSellerEntry handles GET /api/v1/reports/{reportID}/sellers/{sellerID}
func (s *Service) GetSellerEntry(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	entry, found := rep.Entry(chi.URLParam(r, "sellerID"))
	if !found {
		writeError(w, "seller not found in report", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Service) loadReport(w http.ResponseWriter, r *http.Request) (*model.Report, bool) {
	id := chi.URLParam(r, "reportID")
	rep, err := s.store.GetReport(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, "report not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		slog.Error("report lookup failed", "id", id, "err", err)
		writeError(w, "failed to load report", http.StatusInternalServerError)
		return nil, false
	}
	return rep, true
}

func isClientError(err error) bool {
	return errors.Is(err, engine.ErrInvalidInput) ||
		errors.Is(err, engine.ErrInvalidConfiguration) ||
		errors.Is(err, engine.ErrInvalidStrategy)
}

func outcome(err error) string {
	if isClientError(err) {
		return "invalid"
	}
	return "error"
}

// writeJSON encodes v before committing the status, so an unencodable value
// becomes a 500 rather than an empty success.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("response encode failed", "status", status, "err", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"internal error"}` + "\n"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
