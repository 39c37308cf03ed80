package rules

import (
	"fmt"
	"strings"

	"docaudit/internal/audit/models"
)

type channelMapping struct {
	channel  string
	projects []string
}

// channelProjects maps a normalized sales channel to the projects allowed for
// it. An empty list means the channel requires no project. Channels absent
// from the table are not checked. Lookup is first-match on substring, so the
// sequence is part of the contract: a channel like "Сети Опт" always resolves
// to the networks entry, never the wholesale one.
var channelProjects = []channelMapping{
	{"сети", []string{"Федеральные", "Региональные", "Локальные"}},
	{"опт", []string{"Крупный Опт", "Средний Опт", "Салоны"}},
	{"фарма", []string{"Аптеки"}},
	{"экспорт", []string{"Экспорт Азия"}},
	{"транзиты", []string{"Европа", "ОАЭ", "Казахстан", "Беларусь", "Россия"}},
	{"маркетплейсы", nil},
	{"розницаим", nil},
	{"розницаофлайн", nil},
	{"розницауслуги", nil},
	{"розницасертификаты", nil},
	{"ctm", nil},
}

// Payment methods available to business counterparties in Belarus.
var allowedPaymentMethods = []string{
	"рс",
	"рспредоплаташколаобучениеаренда",
}

func (c *Catalog) isContactCenter(owner string) bool {
	n := norm(owner)
	return n == norm(c.contactCenter) || n == "контактцентр"
}

// checkSalesSource requires the sales-source field on documents led by the
// contact center for individual buyers. Retail sales require it for every
// individual buyer regardless of owner.
func (c *Catalog) checkSalesSource(doc models.Document, _ models.Region) ([]string, error) {
	required := false
	switch doc.Type {
	case models.TypeRetailSale:
		required = doc.Counterparty.Kind == models.KindIndividual
	default:
		required = c.isContactCenter(doc.Owner) && doc.Counterparty.Kind == models.KindIndividual
	}
	if !required {
		return nil, nil
	}
	if strings.TrimSpace(doc.SalesSource) == "" {
		return []string{"sales source is not filled in"}, nil
	}
	return nil, nil
}

func checkSalesChannel(doc models.Document, _ models.Region) ([]string, error) {
	if strings.TrimSpace(doc.SalesChannel) == "" {
		return []string{"sales channel is not filled in"}, nil
	}
	return nil, nil
}

// checkChannelProject enforces the channel-to-project mapping table.
func checkChannelProject(doc models.Document, _ models.Region) ([]string, error) {
	channel := strings.TrimSpace(doc.SalesChannel)
	if channel == "" {
		return nil, nil
	}
	channelNorm := norm(channel)

	var allowed []string
	found := false
	for _, m := range channelProjects {
		if strings.Contains(channelNorm, m.channel) || strings.Contains(m.channel, channelNorm) {
			allowed, found = m.projects, true
			break
		}
	}
	if !found || len(allowed) == 0 {
		return nil, nil
	}

	project := strings.TrimSpace(doc.Project)
	if project == "" {
		return []string{fmt.Sprintf("channel %q requires a project, expected one of: %s", channel, strings.Join(allowed, ", "))}, nil
	}
	projectNorm := norm(project)
	for _, p := range allowed {
		if norm(p) == projectNorm {
			return nil, nil
		}
	}
	return []string{fmt.Sprintf("project %q does not match channel %q, expected one of: %s", project, channel, strings.Join(allowed, ", "))}, nil
}

// checkZeroPrices flags every line item sold at zero price, or below the
// configured minimum when one is set. One document can yield several issues.
func (c *Catalog) checkZeroPrices(doc models.Document, _ models.Region) ([]string, error) {
	var issues []string
	for _, p := range doc.Positions {
		switch {
		case p.Price == 0:
			issues = append(issues, fmt.Sprintf("position %q has zero price (quantity %g)", p.Product, p.Quantity))
		case p.Price < c.minPrice:
			issues = append(issues, fmt.Sprintf("position %q priced %d, below the minimum %d", p.Product, p.Price, c.minPrice))
		}
	}
	return issues, nil
}

func checkContractRequired(doc models.Document, _ models.Region) ([]string, error) {
	if !doc.Counterparty.Kind.IsBusiness() {
		return nil, nil
	}
	if doc.Contract == nil || strings.TrimSpace(doc.Contract.Name) == "" {
		return []string{"no contract specified for a business counterparty"}, nil
	}
	return nil, nil
}

// checkContractFields validates the mandatory fields of a linked contract:
// contract type and an uploaded scan. Contracts whose details could not be
// fetched are skipped; empty fields there say nothing about the contract.
func checkContractFields(doc models.Document, _ models.Region) ([]string, error) {
	if doc.Contract == nil || doc.Contract.Unresolved {
		return nil, nil
	}
	var issues []string
	if strings.TrimSpace(doc.Contract.Type) == "" {
		issues = append(issues, "contract type is not specified")
	}
	if !doc.Contract.HasScan {
		issues = append(issues, "contract scan is not uploaded")
	}
	return issues, nil
}

// checkContractType is registered for RU only: business counterparties there
// must have the contract type filled on the linked contract.
func checkContractType(doc models.Document, _ models.Region) ([]string, error) {
	if !doc.Counterparty.Kind.IsBusiness() || doc.Contract == nil || doc.Contract.Unresolved {
		return nil, nil
	}
	if strings.TrimSpace(doc.Contract.Type) == "" {
		return []string{"contract type is not filled in"}, nil
	}
	return nil, nil
}

// checkPaymentMethod is registered for BY only: business counterparties may
// pay by bank transfer variants only, and the prepaid variant demands full
// payment up front.
func checkPaymentMethod(doc models.Document, _ models.Region) ([]string, error) {
	if !doc.Counterparty.Kind.IsBusiness() {
		return nil, nil
	}
	method := strings.TrimSpace(doc.PaymentMethod)
	if method == "" {
		return nil, nil
	}
	methodNorm := norm(method)

	allowed := false
	for _, a := range allowedPaymentMethods {
		if strings.Contains(methodNorm, a) || strings.Contains(a, methodNorm) {
			allowed = true
			break
		}
	}
	if !allowed {
		return []string{fmt.Sprintf("payment method %q is not allowed for business counterparties, expected bank transfer", method)}, nil
	}

	var issues []string
	if doc.Contract == nil {
		issues = append(issues, fmt.Sprintf("payment method %q requires a contract", method))
	}
	if strings.Contains(methodNorm, "предоплата") && doc.Amount > 0 && doc.PaidAmount < doc.Amount {
		issues = append(issues, fmt.Sprintf("payment method %q requires full prepayment: paid %d of %d", method, doc.PaidAmount, doc.Amount))
	}
	return issues, nil
}

// Contract conditions that exempt a document from payment checks.
var paymentExemptConditions = map[string]struct{}{
	"бездоговора": {},
	"предоставлениябезвозмезднойспонсорскойпомощи": {},
	"договоркомиссии": {},
}

// checkPaymentTerms verifies payment against the linked contract's condition:
// prepayment demands full payment, deferral conditions demand full payment
// once the grace period since the document date has elapsed.
func (c *Catalog) checkPaymentTerms(doc models.Document, _ models.Region) ([]string, error) {
	if doc.Amount <= 0 || doc.Contract == nil {
		return nil, nil
	}
	condition := strings.TrimSpace(doc.Contract.Condition)
	if condition == "" {
		return nil, nil
	}
	condNorm := norm(condition)
	if _, exempt := paymentExemptConditions[condNorm]; exempt {
		return nil, nil
	}

	if doc.Moment.IsZero() {
		return nil, fmt.Errorf("%w: document date missing for payment check", ErrMissingData)
	}
	daysPassed := int(c.now().Sub(doc.Moment).Hours() / 24)
	fullyPaid := doc.PaidAmount >= doc.Amount

	switch {
	case condNorm == "предоплата":
		if !fullyPaid {
			return []string{fmt.Sprintf("condition %q requires full payment: paid %d of %d", condition, doc.PaidAmount, doc.Amount)}, nil
		}
	case strings.Contains(condNorm, "отсрочка1630"):
		if daysPassed > 30 && !fullyPaid {
			return []string{fmt.Sprintf("16-30 day deferral expired %d days after the document date: paid %d of %d", daysPassed, doc.PaidAmount, doc.Amount)}, nil
		}
	case strings.Contains(condNorm, "отсрочка3060"):
		if daysPassed > 60 && !fullyPaid {
			return []string{fmt.Sprintf("30-60 day deferral expired %d days after the document date: paid %d of %d", daysPassed, doc.PaidAmount, doc.Amount)}, nil
		}
	case strings.Contains(condNorm, "отсрочка60"):
		if daysPassed > 61 && !fullyPaid {
			return []string{fmt.Sprintf("60+ day deferral expired %d days after the document date: paid %d of %d", daysPassed, doc.PaidAmount, doc.Amount)}, nil
		}
	}
	return nil, nil
}
