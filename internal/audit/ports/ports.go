// Package ports defines the boundary interfaces between the audit core and
// its external collaborators. The core depends on these, never on concrete
// adapters.
package ports

import (
	"context"
	"time"

	"docaudit/internal/audit/models"
)

// Fetcher supplies raw document records for one (region, type, period)
// partition. An empty result is a valid outcome, not an error; transport and
// auth failures must come back as distinguishable errors which the core
// surfaces unmodified (the core never retries).
type Fetcher interface {
	Fetch(ctx context.Context, region models.Region, docType models.DocumentType, from, to time.Time) ([]models.Document, error)
}

// Sink is one delivery target for a finished report. Send failures are
// per-sink outcomes and never invalidate the report itself.
type Sink interface {
	Name() string
	Send(ctx context.Context, report models.Report, rendered string) error
}

// ReportStore archives finished reports for later reads. The validation core
// never touches it; only the run service and the HTTP layer do.
type ReportStore interface {
	Save(ctx context.Context, report models.Report) error
	Get(ctx context.Context, id string) (models.Report, error)
	List(ctx context.Context) ([]models.Report, error)
}
