package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"docaudit/internal/audit/models"
	"docaudit/internal/audit/service"
	"docaudit/internal/dispatch"
	"docaudit/internal/reportstore"
	dErrors "docaudit/pkg/domain-errors"
)

// =============================================================================
// Audit Handler Test Suite
// =============================================================================

type fakeRunner struct {
	report models.Report
	err    error
	params service.RunParams
}

func (f *fakeRunner) Run(_ context.Context, params service.RunParams) (models.Report, error) {
	f.params = params
	return f.report, f.err
}

type fakeDispatcher struct {
	outcomes []dispatch.Outcome
	calls    int
}

func (f *fakeDispatcher) Dispatch(context.Context, models.Report) []dispatch.Outcome {
	f.calls++
	return f.outcomes
}

type HandlerSuite struct {
	suite.Suite
	runner     *fakeRunner
	dispatcher *fakeDispatcher
	store      *reportstore.MemoryStore
	router     chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.runner = &fakeRunner{
		report: models.Report{
			ID:     "rep-1",
			Region: models.RegionBY,
			Totals: models.Totals{Checked: 4, Violations: 1, ViolationRate: 0.25},
		},
	}
	s.dispatcher = &fakeDispatcher{}
	s.store = reportstore.NewMemory()

	h, err := New(s.runner, s.dispatcher, s.store, slog.New(slog.DiscardHandler))
	s.Require().NoError(err)

	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *HandlerSuite) postRun(body any) *httptest.ResponseRecorder {
	raw, err := json.Marshal(body)
	s.Require().NoError(err)
	req := httptest.NewRequest(http.MethodPost, "/audit/runs", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// =============================================================================
// Run Endpoint Tests
// =============================================================================

func (s *HandlerSuite) TestHandleRun() {
	s.Run("valid request runs the audit and returns the report", func() {
		rec := s.postRun(RunRequest{Region: "BY", From: "2024-06-01", To: "2024-06-14"})
		s.Require().Equal(http.StatusOK, rec.Code)

		var resp RunResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.Equal("rep-1", resp.Report.ID)
		s.Empty(resp.Dispatched)
		s.Zero(s.dispatcher.calls)
		s.Equal(models.RegionBY, s.runner.params.Region)
	})

	s.Run("legacy region alias is accepted", func() {
		rec := s.postRun(RunRequest{Region: "RB", From: "2024-06-01", To: "2024-06-14"})
		s.Equal(http.StatusOK, rec.Code)
		s.Equal(models.RegionBY, s.runner.params.Region)
	})

	s.Run("dispatch flag triggers delivery and reports outcomes", func() {
		s.dispatcher.outcomes = []dispatch.Outcome{
			{Sink: "telegram"},
			{Sink: "bitrix", Err: dErrors.New(dErrors.CodeUnavailable, "chat unreachable")},
		}
		rec := s.postRun(RunRequest{Region: "BY", From: "2024-06-01", To: "2024-06-14", Dispatch: true})
		s.Require().Equal(http.StatusOK, rec.Code)

		var resp RunResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.Require().Len(resp.Dispatched, 2)
		s.Empty(resp.Dispatched[0].Error)
		s.Contains(resp.Dispatched[1].Error, "unreachable")
		s.Equal(1, s.dispatcher.calls)
	})

	s.Run("invalid region is a 400", func() {
		rec := s.postRun(RunRequest{Region: "US", From: "2024-06-01", To: "2024-06-14"})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("inverted date range is a 400", func() {
		rec := s.postRun(RunRequest{Region: "BY", From: "2024-06-14", To: "2024-06-01"})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("malformed body is a 400", func() {
		req := httptest.NewRequest(http.MethodPost, "/audit/runs", bytes.NewReader([]byte("{")))
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("fetch failure maps to 503", func() {
		s.runner.err = dErrors.New(dErrors.CodeUnavailable, "fetch failed for shipment")
		defer func() { s.runner.err = nil }()

		rec := s.postRun(RunRequest{Region: "BY", From: "2024-06-01", To: "2024-06-14"})
		s.Equal(http.StatusServiceUnavailable, rec.Code)
	})
}

// =============================================================================
// Report Endpoint Tests
// =============================================================================

func (s *HandlerSuite) TestReportEndpoints() {
	ctx := context.Background()
	archived := models.Report{
		ID:        "rep-9",
		Region:    models.RegionRU,
		Totals:    models.Totals{Checked: 2},
		CreatedAt: time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
	}
	s.Require().NoError(s.store.Save(ctx, archived))

	s.Run("get returns the archived report", func() {
		req := httptest.NewRequest(http.MethodGet, "/audit/reports/rep-9", nil)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Require().Equal(http.StatusOK, rec.Code)

		var got models.Report
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&got))
		s.Equal("rep-9", got.ID)
	})

	s.Run("missing report is a 404", func() {
		req := httptest.NewRequest(http.MethodGet, "/audit/reports/ghost", nil)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("list returns summaries", func() {
		req := httptest.NewRequest(http.MethodGet, "/audit/reports", nil)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Require().Equal(http.StatusOK, rec.Code)

		var resp ListResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.Require().Len(resp.Reports, 1)
		s.Equal("rep-9", resp.Reports[0].ID)
		s.Equal("RU", resp.Reports[0].Region)
	})
}
