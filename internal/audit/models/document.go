package models

import "time"

// CounterpartyKind mirrors the bookkeeping platform's companyType field.
type CounterpartyKind string

const (
	KindLegal        CounterpartyKind = "legal"
	KindEntrepreneur CounterpartyKind = "entrepreneur"
	KindIndividual   CounterpartyKind = "individual"
)

// IsBusiness reports whether the counterparty is a legal entity or a sole
// entrepreneur. Several checks apply only to those.
func (k CounterpartyKind) IsBusiness() bool {
	return k == KindLegal || k == KindEntrepreneur
}

// Counterparty is the agent side of a document, or the subject itself for
// counterparty cards.
type Counterparty struct {
	Name          string
	Kind          CounterpartyKind
	Phone         string
	TaxID         string
	ActualAddress string
	Groups        []string
}

// Contract holds the subset of the linked contract the rules inspect.
// Unresolved marks a contract whose details could not be fetched; rules that
// inspect those details skip the document instead of flagging a transport
// failure as a business violation.
type Contract struct {
	Name       string
	Type       string
	Condition  string
	HasScan    bool
	Unresolved bool
}

// Position is a single document line item. Price is in minor currency units.
type Position struct {
	Product  string
	Price    int64
	Quantity float64
}

// Document is one normalized record fetched from the bookkeeping platform.
// The fetcher adapter owns normalization; the engine treats documents as
// read-only for the duration of a validation pass and never persists them.
type Document struct {
	ID           string
	Name         string
	Type         DocumentType
	Region       Region
	Owner        string
	OwnerID      string
	Counterparty Counterparty
	Contract     *Contract

	// Amounts are in minor currency units, as delivered by the platform.
	Amount     int64
	PaidAmount int64

	PaymentMethod string
	SalesChannel  string
	Project       string
	SalesSource   string

	Moment      time.Time
	Description string
	Positions   []Position

	// Attributes carries custom fields the platform exposes per account,
	// keyed by normalized attribute name.
	Attributes map[string]string
}

// Attribute returns the named custom field and whether it is present.
func (d Document) Attribute(name string) (string, bool) {
	v, ok := d.Attributes[name]
	return v, ok
}

// DateRange is the half-open-by-convention audit period [From, To], both
// inclusive at day granularity.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}
