package rules

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"

	"docaudit/internal/audit/models"
)

// ErrMissingData marks documents whose record is too incomplete for a rule to
// evaluate. The engine reports these as data-error violations.
var ErrMissingData = errors.New("document record incomplete")

// Custom attribute names as normalized by the fetcher adapter. The source
// platform exposes these as free-form per-account fields, so lookups go
// through norm().
const (
	attrPDAgreement      = "соглашениеполитикипд"
	attrPDAgreementUntil = "датаокончаниясоглашенияпд"
	attrContractType     = "типдоговора"
	attrClientType       = "типклиента"
	attrRegionBY         = "регионрб"
)

func checkPhoneFormat(doc models.Document, region models.Region) ([]string, error) {
	phone := strings.TrimSpace(doc.Counterparty.Phone)
	if phone == "" {
		return []string{"phone number is missing"}, nil
	}

	clean := digits(phone)
	if clean == "" {
		return []string{fmt.Sprintf("phone number contains no digits: %q", phone)}, nil
	}

	switch region {
	case models.RegionBY:
		if !strings.HasPrefix(clean, "375") {
			return []string{fmt.Sprintf("phone number must start with 375: %q", phone)}, nil
		}
		if len(clean) != 12 {
			return []string{fmt.Sprintf("phone number has %d digits, expected 12: %q", len(clean), phone)}, nil
		}
	case models.RegionRU:
		if !strings.HasPrefix(clean, "7") && !strings.HasPrefix(clean, "8") {
			return []string{fmt.Sprintf("phone number must start with 7 or 8: %q", phone)}, nil
		}
		if len(clean) != 11 {
			return []string{fmt.Sprintf("phone number has %d digits, expected 11: %q", len(clean), phone)}, nil
		}
	case models.RegionKZ:
		if !strings.HasPrefix(clean, "7") {
			return []string{fmt.Sprintf("phone number must start with 7: %q", phone)}, nil
		}
		if len(clean) != 11 {
			return []string{fmt.Sprintf("phone number has %d digits, expected 11: %q", len(clean), phone)}, nil
		}
	}
	return nil, nil
}

// checkTaxID validates the UNP (BY) / INN (RU) of business counterparties.
func checkTaxID(doc models.Document, region models.Region) ([]string, error) {
	kind := doc.Counterparty.Kind
	if kind == "" {
		return nil, fmt.Errorf("%w: counterparty kind missing", ErrMissingData)
	}
	if !kind.IsBusiness() {
		return nil, nil
	}

	raw := strings.TrimSpace(doc.Counterparty.TaxID)
	if raw == "" {
		return []string{"tax id is missing"}, nil
	}
	if !govalidator.IsNumeric(raw) {
		return []string{fmt.Sprintf("tax id contains non-digit characters: %q", raw)}, nil
	}

	switch region {
	case models.RegionBY:
		if len(raw) != 9 {
			return []string{fmt.Sprintf("UNP has %d digits, expected 9: %q", len(raw), raw)}, nil
		}
	case models.RegionRU:
		if kind == models.KindLegal && len(raw) != 10 {
			return []string{fmt.Sprintf("INN of a legal entity has %d digits, expected 10: %q", len(raw), raw)}, nil
		}
		if kind == models.KindEntrepreneur && len(raw) != 12 {
			return []string{fmt.Sprintf("INN of an entrepreneur has %d digits, expected 12: %q", len(raw), raw)}, nil
		}
	}
	return nil, nil
}

func checkTypeNameConsistency(doc models.Document, _ models.Region) ([]string, error) {
	name := strings.ToLower(doc.Counterparty.Name)
	switch doc.Counterparty.Kind {
	case models.KindLegal:
		if strings.Contains(name, "индивидуальный предприниматель") || hasToken(name, "ип") {
			return []string{"counterparty is a legal entity but the name reads as an entrepreneur"}, nil
		}
	case models.KindIndividual:
		if hasToken(name, "ооо") || hasToken(name, "оао") {
			return []string{"counterparty is an individual but the name reads as a company"}, nil
		}
	}
	return nil, nil
}

func checkActualAddress(doc models.Document, _ models.Region) ([]string, error) {
	if doc.Counterparty.Kind != models.KindLegal {
		return nil, nil
	}
	if strings.TrimSpace(doc.Counterparty.ActualAddress) == "" {
		return []string{"actual address is not filled in"}, nil
	}
	return nil, nil
}

func checkGroups(doc models.Document, _ models.Region) ([]string, error) {
	if doc.Counterparty.Kind != models.KindLegal {
		return nil, nil
	}
	if len(doc.Counterparty.Groups) == 0 {
		return []string{"no group tag assigned"}, nil
	}
	return nil, nil
}

// dictionaryCheck requires a custom dictionary attribute to be present and
// filled for business counterparties.
func dictionaryCheck(attr, label string) CheckFunc {
	return func(doc models.Document, _ models.Region) ([]string, error) {
		if !doc.Counterparty.Kind.IsBusiness() {
			return nil, nil
		}
		v, ok := doc.Attribute(attr)
		if !ok {
			return []string{label + " attribute is missing"}, nil
		}
		if strings.TrimSpace(v) == "" {
			return []string{label + " is not filled in"}, nil
		}
		return nil, nil
	}
}

var pdAgreementAccepted = map[string]struct{}{
	"принялсогласие":   {},
	"принялсоглашение": {},
}

// checkPDAgreement applies to BY individuals only: the personal-data consent
// attribute must hold one of the accepted values.
func checkPDAgreement(doc models.Document, _ models.Region) ([]string, error) {
	if doc.Counterparty.Kind != models.KindIndividual {
		return nil, nil
	}
	v, ok := doc.Attribute(attrPDAgreement)
	if !ok {
		return []string{"personal data agreement attribute is missing"}, nil
	}
	if strings.TrimSpace(v) == "" {
		return []string{"personal data agreement is not filled in"}, nil
	}
	if _, accepted := pdAgreementAccepted[norm(v)]; !accepted {
		return []string{fmt.Sprintf("personal data agreement has unexpected value: %q", v)}, nil
	}
	return nil, nil
}

var pdDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.000",
}

// checkPDAgreementExpiry requires the consent of BY individuals to stay valid
// for at least another 30 days.
func (c *Catalog) checkPDAgreementExpiry(doc models.Document, _ models.Region) ([]string, error) {
	if doc.Counterparty.Kind != models.KindIndividual {
		return nil, nil
	}
	v, ok := doc.Attribute(attrPDAgreementUntil)
	if !ok {
		return []string{"personal data agreement expiry attribute is missing"}, nil
	}
	if strings.TrimSpace(v) == "" {
		return []string{"personal data agreement expiry is not filled in"}, nil
	}

	var until time.Time
	var err error
	for _, layout := range pdDateLayouts {
		until, err = time.Parse(layout, strings.TrimSpace(v))
		if err == nil {
			break
		}
	}
	if err != nil {
		return []string{fmt.Sprintf("personal data agreement expiry has invalid date format: %q", v)}, nil
	}

	if until.Before(c.now().AddDate(0, 0, 30)) {
		return []string{fmt.Sprintf("personal data agreement expires within 30 days (on %s)", until.Format("2006-01-02"))}, nil
	}
	return nil, nil
}

// hasToken reports whether the lowercased name contains tok as a standalone
// word. Substring matching would flag names like "Филипп" for "ип".
func hasToken(name, tok string) bool {
	for f := range strings.FieldsSeq(name) {
		if strings.Trim(f, `"'«»()., `) == tok {
			return true
		}
	}
	return false
}
