// Package rules holds the declarative rule catalog: every business check the
// audit applies, keyed by (region, document type). The catalog is resolved
// once at startup and is a pure lookup afterwards, so the engine and tests
// can exercise arbitrary combinations without a live document source.
package rules

import (
	"strings"
	"time"

	"docaudit/internal/audit/models"
	"docaudit/pkg/platform/text"
)

// CheckFunc evaluates one document against one rule. It returns zero or more
// issue messages (several when the rule inspects multiple line items). A
// non-nil error means the document record was too malformed for the rule to
// run at all; the engine turns that into a data-error violation instead of
// aborting the batch.
type CheckFunc func(doc models.Document, region models.Region) ([]string, error)

// Rule is a pure predicate over (document, region) with identity and severity
// metadata for reporting.
type Rule struct {
	ID       string
	Severity models.Severity
	Check    CheckFunc
}

type catalogKey struct {
	region  models.Region
	docType models.DocumentType
}

// Catalog maps (region, document type) to an ordered rule sequence. Unknown
// pairs resolve to an empty sequence: unmonitored combinations are legal and
// simply produce no violations.
type Catalog struct {
	entries       map[catalogKey][]Rule
	now           func() time.Time
	contactCenter string
	minPrice      int64
}

// Option configures catalog construction.
type Option func(*Catalog)

// WithClock overrides the wall clock used by date-sensitive checks (payment
// deferrals, agreement expiry). Tests pin it for reproducible output.
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) {
		c.now = now
	}
}

// WithContactCenter overrides the display name of the contact-center
// employee, used to decide when the sales-source field is mandatory.
func WithContactCenter(name string) Option {
	return func(c *Catalog) {
		c.contactCenter = name
	}
}

// WithMinPrice sets the lowest acceptable line-item price in minor currency
// units. Zero keeps the default of flagging only zero-priced positions.
func WithMinPrice(min int64) Option {
	return func(c *Catalog) {
		c.minPrice = min
	}
}

// NewCatalog builds the full static catalog for all supported regions.
func NewCatalog(opts ...Option) *Catalog {
	c := &Catalog{
		entries:       make(map[catalogKey][]Rule),
		now:           time.Now,
		contactCenter: "Контакт-Центр",
	}
	for _, opt := range opts {
		opt(c)
	}
	c.registerAll()
	return c
}

// RulesFor returns the ordered rules applicable to the pair. The returned
// slice is shared and must not be mutated.
func (c *Catalog) RulesFor(region models.Region, docType models.DocumentType) []Rule {
	return c.entries[catalogKey{region: region, docType: docType}]
}

// Excluded reports whether a document is exempt from auditing entirely.
// Kazakhstan shipments handled through Kaspi are reconciled by the
// marketplace itself and carry a marker in the comment field.
func (c *Catalog) Excluded(doc models.Document, region models.Region) bool {
	if region == models.RegionKZ && doc.Type == models.TypeShipment {
		return strings.Contains(strings.ToLower(doc.Description), "kaspi")
	}
	return false
}

func (c *Catalog) register(region models.Region, docType models.DocumentType, rules ...Rule) {
	key := catalogKey{region: region, docType: docType}
	c.entries[key] = append(c.entries[key], rules...)
}

// norm and digits are aliased here so rule code stays terse.
var (
	norm   = text.Normalize
	digits = text.Digits
)
