package models

import "time"

// Severity classifies a violation. SeverityDataError marks synthetic
// violations emitted when a document was too malformed for a rule to run.
type Severity string

const (
	SeverityError     Severity = "error"
	SeverityWarning   Severity = "warning"
	SeverityDataError Severity = "data_error"
)

// OwnerUnassigned is the grouping sentinel for violations whose document has
// no resolvable responsible employee.
const OwnerUnassigned = "unassigned"

// Violation is a single rule failure tied to one document. Immutable once
// created.
type Violation struct {
	DocumentID string   `json:"document_id"`
	RuleID     string   `json:"rule_id"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	Owner      string   `json:"owner"`
}

// Totals summarizes one run. Checked always equals the number of input
// documents regardless of how many violations were found.
type Totals struct {
	Checked       int     `json:"checked_count"`
	Violations    int     `json:"violation_count"`
	ViolationRate float64 `json:"violation_rate"`
}

// OwnerGroup is one report partition: an owner and their ordered violations.
type OwnerGroup struct {
	Owner      string      `json:"owner"`
	Violations []Violation `json:"violations"`
}

// Report is the aggregated outcome of one audit run. It is fully materialized
// and read-only after construction; group order and in-group violation order
// are deterministic for identical inputs.
type Report struct {
	ID        string       `json:"id"`
	Region    Region       `json:"region"`
	Period    DateRange    `json:"period"`
	Totals    Totals       `json:"totals"`
	Groups    []OwnerGroup `json:"groups"`
	CreatedAt time.Time    `json:"created_at"`
}
