package models

import (
	"strings"

	dErrors "docaudit/pkg/domain-errors"
)

// Region selects which rule subset and field-format expectations apply to a
// run. It is fixed at request time and never changes mid-run.
type Region string

const (
	RegionBY Region = "BY"
	RegionRU Region = "RU"
	RegionKZ Region = "KZ"
)

// legacy spellings carried over from the old monitoring configs.
var regionAliases = map[string]Region{
	"BY": RegionBY,
	"RB": RegionBY,
	"RU": RegionRU,
	"RF": RegionRU,
	"KZ": RegionKZ,
}

// ParseRegion accepts canonical region codes plus the legacy RB/RF aliases.
func ParseRegion(s string) (Region, error) {
	if r, ok := regionAliases[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return r, nil
	}
	return "", dErrors.New(dErrors.CodeBadRequest, "unsupported region: "+s)
}

func (r Region) IsValid() bool {
	switch r {
	case RegionBY, RegionRU, RegionKZ:
		return true
	}
	return false
}

func (r Region) String() string { return string(r) }

// DocumentType determines which rules are eligible for a document.
type DocumentType string

const (
	TypeShipment           DocumentType = "shipment"
	TypeRetailSale         DocumentType = "retail_sale"
	TypeCommissionerReport DocumentType = "commissioner_report"
	TypeCounterpartyCard   DocumentType = "counterparty_card"
	TypeSalesReturn        DocumentType = "sales_return"
	TypeRetailReturn       DocumentType = "retail_return"
	TypeCommissionReturn   DocumentType = "commission_return"
)

// AllDocumentTypes lists every audited type in canonical order. The order is
// also the deterministic merge order for multi-type runs.
func AllDocumentTypes() []DocumentType {
	return []DocumentType{
		TypeShipment,
		TypeRetailSale,
		TypeCommissionerReport,
		TypeCounterpartyCard,
		TypeSalesReturn,
		TypeRetailReturn,
		TypeCommissionReturn,
	}
}

func ParseDocumentType(s string) (DocumentType, error) {
	t := DocumentType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllDocumentTypes() {
		if t == known {
			return known, nil
		}
	}
	return "", dErrors.New(dErrors.CodeBadRequest, "unsupported document type: "+s)
}
