// Package engine applies the rule catalog to fetched document batches and
// aggregates the resulting violations into a report. It performs pure
// computation: no I/O, no retries, no mutation of source documents.
package engine

import (
	"fmt"
	"log/slog"

	"docaudit/internal/audit/models"
	"docaudit/internal/audit/rules"
)

// MalformedPolicy decides what happens when a document is too incomplete for
// a rule to evaluate.
type MalformedPolicy int

const (
	// MalformedFlag records a synthetic data-error violation and keeps going.
	MalformedFlag MalformedPolicy = iota
	// MalformedDrop skips the document's remaining rules silently. The
	// document still counts toward the checked total.
	MalformedDrop
)

type Engine struct {
	catalog *rules.Catalog
	policy  MalformedPolicy
	logger  *slog.Logger
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithMalformedPolicy(policy MalformedPolicy) Option {
	return func(e *Engine) {
		e.policy = policy
	}
}

func New(catalog *rules.Catalog, opts ...Option) (*Engine, error) {
	if catalog == nil {
		return nil, fmt.Errorf("rule catalog is required")
	}
	e := &Engine{
		catalog: catalog,
		policy:  MalformedFlag,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Validate evaluates every document against the rules applicable to its
// (region, type) pair, in catalog order. A single document may yield zero,
// one, or several violations. No document failure aborts the batch: check
// errors and panics become data-error violations (or are dropped, per
// policy), and evaluation continues with the remaining rules and documents.
func (e *Engine) Validate(docs []models.Document, region models.Region) []models.Violation {
	var violations []models.Violation

	for _, doc := range docs {
		if e.catalog.Excluded(doc, region) {
			continue
		}
		for _, rule := range e.catalog.RulesFor(region, doc.Type) {
			issues, err := runCheck(rule, doc, region)
			if err != nil {
				if e.policy == MalformedDrop {
					e.logger.Warn("dropping malformed document",
						"document_id", doc.ID,
						"rule_id", rule.ID,
						"error", err,
					)
					break
				}
				violations = append(violations, models.Violation{
					DocumentID: doc.ID,
					RuleID:     rule.ID,
					Severity:   models.SeverityDataError,
					Message:    fmt.Sprintf("rule could not evaluate: %v", err),
					Owner:      doc.Owner,
				})
				continue
			}
			for _, issue := range issues {
				violations = append(violations, models.Violation{
					DocumentID: doc.ID,
					RuleID:     rule.ID,
					Severity:   rule.Severity,
					Message:    issue,
					Owner:      doc.Owner,
				})
			}
		}
	}
	return violations
}

// runCheck shields the batch from panicking rules; a panic is treated the
// same as a malformed-document error.
func runCheck(rule rules.Rule, doc models.Document, region models.Region) (issues []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			issues = nil
			err = fmt.Errorf("rule %s panicked: %v", rule.ID, r)
		}
	}()
	return rule.Check(doc, region)
}
