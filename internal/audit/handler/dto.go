package handler

import (
	"time"

	"docaudit/internal/audit/models"
	"docaudit/internal/audit/service"
	dErrors "docaudit/pkg/domain-errors"
)

// RunRequest is the POST /audit/runs body. Types may be empty, which means
// every audited type. Dates are inclusive calendar days.
type RunRequest struct {
	Region   string   `json:"region"`
	Types    []string `json:"types,omitempty"`
	From     string   `json:"from"`
	To       string   `json:"to"`
	Dispatch bool     `json:"dispatch,omitempty"`
}

// Params validates the request and converts it into run parameters.
func (r RunRequest) Params() (service.RunParams, error) {
	region, err := models.ParseRegion(r.Region)
	if err != nil {
		return service.RunParams{}, dErrors.New(dErrors.CodeBadRequest, "invalid region: "+r.Region)
	}

	from, err := time.Parse("2006-01-02", r.From)
	if err != nil {
		return service.RunParams{}, dErrors.New(dErrors.CodeBadRequest, "invalid from date, want YYYY-MM-DD")
	}
	to, err := time.Parse("2006-01-02", r.To)
	if err != nil {
		return service.RunParams{}, dErrors.New(dErrors.CodeBadRequest, "invalid to date, want YYYY-MM-DD")
	}
	if to.Before(from) {
		return service.RunParams{}, dErrors.New(dErrors.CodeBadRequest, "date range is inverted")
	}

	types := make([]models.DocumentType, 0, len(r.Types))
	for _, raw := range r.Types {
		docType, err := models.ParseDocumentType(raw)
		if err != nil {
			return service.RunParams{}, dErrors.New(dErrors.CodeBadRequest, "invalid document type: "+raw)
		}
		types = append(types, docType)
	}

	return service.RunParams{
		Region: region,
		Types:  types,
		From:   from,
		To:     to,
	}, nil
}

// DispatchOutcome reports one sink delivery attempt.
type DispatchOutcome struct {
	Sink  string `json:"sink"`
	Error string `json:"error,omitempty"`
}

// RunResponse is the POST /audit/runs reply: the full report plus delivery
// outcomes when dispatch was requested.
type RunResponse struct {
	Report     models.Report     `json:"report"`
	Dispatched []DispatchOutcome `json:"dispatched,omitempty"`
}

// ReportSummary is one row of the report listing.
type ReportSummary struct {
	ID         string `json:"id"`
	Region     string `json:"region"`
	From       string `json:"from"`
	To         string `json:"to"`
	Checked    int    `json:"checked_count"`
	Violations int    `json:"violation_count"`
	CreatedAt  string `json:"created_at"`
}

// ListResponse is the GET /audit/reports reply.
type ListResponse struct {
	Reports []ReportSummary `json:"reports"`
}
