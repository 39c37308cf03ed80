// Package service orchestrates one audit run: fetch the requested document
// partitions, validate them against the rule catalog, aggregate into a
// report, and archive it. Fetching and validation are parallel across
// document types; aggregation waits for every partition.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"docaudit/internal/audit/engine"
	"docaudit/internal/audit/models"
	"docaudit/internal/audit/ports"
	"docaudit/internal/platform/metrics"
	dErrors "docaudit/pkg/domain-errors"
)

type Service struct {
	fetcher ports.Fetcher
	engine  *engine.Engine
	store   ports.ReportStore
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithReportStore enables archiving of finished reports. Archiving is
// best-effort: a store failure is logged but does not fail the run.
func WithReportStore(store ports.ReportStore) Option {
	return func(s *Service) {
		s.store = store
	}
}

func New(fetcher ports.Fetcher, eng *engine.Engine, opts ...Option) (*Service, error) {
	if fetcher == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "fetcher is required")
	}
	if eng == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "validation engine is required")
	}
	s := &Service{
		fetcher: fetcher,
		engine:  eng,
		logger:  slog.Default(),
		tracer:  otel.Tracer("docaudit/audit"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RunParams selects one audit run: a single region, a document-type set, and
// an inclusive date range. An empty type set means every audited type.
type RunParams struct {
	Region models.Region
	Types  []models.DocumentType
	From   time.Time
	To     time.Time
}

type partition struct {
	checked    int
	violations []models.Violation
}

// Run executes one audit run and returns the finished report. A fetch
// failure on any partition aborts the whole run before aggregation: the
// caller gets either a complete report or the fetch error, never a silently
// truncated report.
func (s *Service) Run(ctx context.Context, params RunParams) (models.Report, error) {
	if !params.Region.IsValid() {
		return models.Report{}, dErrors.New(dErrors.CodeBadRequest, "invalid region: "+params.Region.String())
	}
	types := params.Types
	if len(types) == 0 {
		types = models.AllDocumentTypes()
	}

	ctx, span := s.tracer.Start(ctx, "audit.run", trace.WithAttributes(
		attribute.String("region", params.Region.String()),
		attribute.Int("types", len(types)),
	))
	defer span.End()

	started := time.Now()
	s.logger.InfoContext(ctx, "starting audit run",
		"region", params.Region,
		"types", len(types),
		"from", params.From.Format("2006-01-02"),
		"to", params.To.Format("2006-01-02"),
	)

	// Each (region, type) partition is independent and writes only to its
	// own slot, so the workers need no locking.
	parts := make([]partition, len(types))
	g, gctx := errgroup.WithContext(ctx)
	for i, docType := range types {
		g.Go(func() error {
			docs, err := s.fetcher.Fetch(gctx, params.Region, docType, params.From, params.To)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeUnavailable, "fetch failed for "+string(docType))
			}
			parts[i] = partition{
				checked:    len(docs),
				violations: s.engine.Validate(docs, params.Region),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.metrics.ObserveRun(params.Region.String(), "fetch_failed", time.Since(started))
		s.logger.ErrorContext(ctx, "audit run aborted", "region", params.Region, "error", err)
		return models.Report{}, err
	}

	// Aggregation barrier: merge partitions in requested type order so the
	// report is identical run to run.
	checked := 0
	var violations []models.Violation
	for i, part := range parts {
		checked += part.checked
		violations = append(violations, part.violations...)
		s.metrics.AddChecked(params.Region.String(), string(types[i]), part.checked)
	}
	for _, v := range violations {
		s.metrics.AddViolation(params.Region.String(), string(v.Severity))
	}

	report := engine.Aggregate(violations, checked, params.Region, models.DateRange{From: params.From, To: params.To})
	report.ID = uuid.NewString()
	report.CreatedAt = time.Now().UTC()

	if s.store != nil {
		if err := s.store.Save(ctx, report); err != nil {
			s.logger.ErrorContext(ctx, "failed to archive report", "report_id", report.ID, "error", err)
		}
	}

	s.metrics.ObserveRun(params.Region.String(), "ok", time.Since(started))
	s.logger.InfoContext(ctx, "audit run finished",
		"region", params.Region,
		"report_id", report.ID,
		"checked", report.Totals.Checked,
		"violations", report.Totals.Violations,
		"duration", time.Since(started),
	)
	return report, nil
}
