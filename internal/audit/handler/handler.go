// Package handler wires the audit endpoints to the run service and the
// report archive.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"docaudit/internal/audit/models"
	"docaudit/internal/audit/ports"
	"docaudit/internal/audit/service"
	"docaudit/internal/dispatch"
	"docaudit/internal/platform/middleware"
	dErrors "docaudit/pkg/domain-errors"
	"docaudit/pkg/platform/httputil"
)

// Runner executes audit runs.
type Runner interface {
	Run(ctx context.Context, params service.RunParams) (models.Report, error)
}

// Dispatcher delivers finished reports to the configured sinks.
type Dispatcher interface {
	Dispatch(ctx context.Context, r models.Report) []dispatch.Outcome
}

// Handler wires audit endpoints to their services.
type Handler struct {
	runner     Runner
	dispatcher Dispatcher
	store      ports.ReportStore
	logger     *slog.Logger
}

// New constructs an audit handler. The dispatcher and store are optional;
// without a store the report endpoints answer 404 and without a dispatcher
// run requests silently skip delivery.
func New(runner Runner, dispatcher Dispatcher, store ports.ReportStore, logger *slog.Logger) (*Handler, error) {
	if runner == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "runner is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		runner:     runner,
		dispatcher: dispatcher,
		store:      store,
		logger:     logger,
	}, nil
}

// Register mounts audit endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/audit/runs", h.HandleRun)
	r.Get("/audit/reports", h.HandleListReports)
	r.Get("/audit/reports/{id}", h.HandleGetReport)
}

// HandleRun handles POST /audit/runs requests.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeJSON[RunRequest](w, r, h.logger)
	if !ok {
		return
	}
	params, err := req.Params()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	report, err := h.runner.Run(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit run failed",
			"request_id", requestID,
			"region", req.Region,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	resp := RunResponse{Report: report}
	if req.Dispatch && h.dispatcher != nil {
		for _, outcome := range h.dispatcher.Dispatch(ctx, report) {
			do := DispatchOutcome{Sink: outcome.Sink}
			if outcome.Err != nil {
				do.Error = outcome.Err.Error()
			}
			resp.Dispatched = append(resp.Dispatched, do)
		}
	}

	h.logger.InfoContext(ctx, "audit run served",
		"request_id", requestID,
		"report_id", report.ID,
		"region", req.Region,
	)
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleGetReport handles GET /audit/reports/{id} requests.
func (h *Handler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.store == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "report archive is not configured"))
		return
	}

	report, err := h.store.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

// HandleListReports handles GET /audit/reports requests.
func (h *Handler) HandleListReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.store == nil {
		httputil.WriteJSON(w, http.StatusOK, ListResponse{Reports: []ReportSummary{}})
		return
	}

	reports, err := h.store.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "report listing failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	resp := ListResponse{Reports: make([]ReportSummary, 0, len(reports))}
	for _, rep := range reports {
		resp.Reports = append(resp.Reports, summarize(rep))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func summarize(r models.Report) ReportSummary {
	return ReportSummary{
		ID:         r.ID,
		Region:     r.Region.String(),
		From:       r.Period.From.Format("2006-01-02"),
		To:         r.Period.To.Format("2006-01-02"),
		Checked:    r.Totals.Checked,
		Violations: r.Totals.Violations,
		CreatedAt:  r.CreatedAt.Format(time.RFC3339),
	}
}
