// Package dispatch hands finished reports to the configured sinks. It owns
// no business logic: it renders the report once and attempts every sink
// independently, so one unreachable sink never blocks the others and never
// invalidates the report (the caller can re-dispatch the same report).
package dispatch

import (
	"context"
	"log/slog"

	"docaudit/internal/audit/models"
	"docaudit/internal/audit/ports"
	"docaudit/internal/platform/metrics"
	"docaudit/internal/report"
)

// Outcome is the per-sink delivery result.
type Outcome struct {
	Sink string
	Err  error
}

type Orchestrator struct {
	sinks   []ports.Sink
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

func New(sinks []ports.Sink, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		sinks:  sinks,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Dispatch delivers the report to every configured sink and returns one
// outcome per sink, in sink order.
func (o *Orchestrator) Dispatch(ctx context.Context, r models.Report) []Outcome {
	rendered := report.Render(r)

	outcomes := make([]Outcome, 0, len(o.sinks))
	for _, sink := range o.sinks {
		err := sink.Send(ctx, r, rendered)
		o.metrics.ObserveDispatch(sink.Name(), err != nil)
		if err != nil {
			o.logger.ErrorContext(ctx, "report delivery failed",
				"sink", sink.Name(),
				"report_id", r.ID,
				"error", err,
			)
		}
		outcomes = append(outcomes, Outcome{Sink: sink.Name(), Err: err})
	}
	return outcomes
}
