package rules

import "docaudit/internal/audit/models"

// Rule identifiers. Stable: they end up in violation records and reports.
const (
	RulePhoneFormat       = "counterparty.phone_format"
	RuleTaxID             = "counterparty.tax_id"
	RuleTypeName          = "counterparty.type_name"
	RuleActualAddress     = "counterparty.actual_address"
	RuleGroups            = "counterparty.groups"
	RuleContractTypeDict  = "counterparty.contract_type"
	RuleClientTypeDict    = "counterparty.client_type"
	RuleRegionDict        = "counterparty.region_dict"
	RulePDAgreement       = "counterparty.pd_agreement"
	RulePDAgreementExpiry = "counterparty.pd_agreement_expiry"

	RuleSalesSource      = "doc.sales_source"
	RuleSalesChannel     = "doc.sales_channel"
	RuleChannelProject   = "doc.channel_project"
	RuleZeroPrice        = "doc.zero_price"
	RuleContractRequired = "doc.contract_required"
	RuleContractFields   = "doc.contract_fields"
	RuleContractType     = "doc.contract_type"
	RulePaymentMethod    = "doc.payment_method"
	RulePaymentTerms     = "doc.payment_terms"
)

// registerAll resolves the full rule table once at construction. Regions are
// additive: each gets a baseline per document type plus region deltas, so a
// new region means new register calls, not engine changes.
func (c *Catalog) registerAll() {
	regions := []models.Region{models.RegionBY, models.RegionRU, models.RegionKZ}

	for _, region := range regions {
		c.register(region, models.TypeCounterpartyCard, c.counterpartyRules(region)...)
		c.register(region, models.TypeShipment, c.shipmentRules(region)...)
		c.register(region, models.TypeRetailSale, c.saleRules(region)...)
		c.register(region, models.TypeCommissionerReport, c.saleRules(region)...)
	}

	// Returns are audited for BY and RU only; KZ stays unregistered, which
	// legally resolves to an empty rule sequence.
	for _, region := range []models.Region{models.RegionBY, models.RegionRU} {
		c.register(region, models.TypeSalesReturn, c.returnRules()...)
		c.register(region, models.TypeRetailReturn, c.returnRules()...)
		c.register(region, models.TypeCommissionReturn, c.returnRules()...)
	}
}

func (c *Catalog) counterpartyRules(region models.Region) []Rule {
	rules := []Rule{
		{ID: RulePhoneFormat, Severity: models.SeverityError, Check: checkPhoneFormat},
		{ID: RuleTaxID, Severity: models.SeverityError, Check: checkTaxID},
		{ID: RuleTypeName, Severity: models.SeverityWarning, Check: checkTypeNameConsistency},
		{ID: RuleActualAddress, Severity: models.SeverityError, Check: checkActualAddress},
		{ID: RuleGroups, Severity: models.SeverityWarning, Check: checkGroups},
	}
	if region == models.RegionBY || region == models.RegionRU {
		rules = append(rules,
			Rule{ID: RuleContractTypeDict, Severity: models.SeverityError, Check: dictionaryCheck(attrContractType, "contract type")},
			Rule{ID: RuleClientTypeDict, Severity: models.SeverityError, Check: dictionaryCheck(attrClientType, "client type")},
		)
	}
	if region == models.RegionBY {
		rules = append(rules,
			Rule{ID: RuleRegionDict, Severity: models.SeverityError, Check: dictionaryCheck(attrRegionBY, "BY region")},
			Rule{ID: RulePDAgreement, Severity: models.SeverityError, Check: checkPDAgreement},
			Rule{ID: RulePDAgreementExpiry, Severity: models.SeverityError, Check: c.checkPDAgreementExpiry},
		)
	}
	return rules
}

func (c *Catalog) shipmentRules(region models.Region) []Rule {
	rules := []Rule{
		{ID: RuleSalesSource, Severity: models.SeverityError, Check: c.checkSalesSource},
		{ID: RuleSalesChannel, Severity: models.SeverityError, Check: checkSalesChannel},
		{ID: RuleChannelProject, Severity: models.SeverityError, Check: checkChannelProject},
		{ID: RuleZeroPrice, Severity: models.SeverityError, Check: c.checkZeroPrices},
		{ID: RuleContractRequired, Severity: models.SeverityError, Check: checkContractRequired},
		{ID: RuleContractFields, Severity: models.SeverityError, Check: checkContractFields},
	}
	return c.appendRegionPaymentRules(rules, region)
}

// saleRules covers retail sales and commissioner reports: the same checks as
// shipments but led by line-item prices, matching how operators read these
// reports.
func (c *Catalog) saleRules(region models.Region) []Rule {
	rules := []Rule{
		{ID: RuleZeroPrice, Severity: models.SeverityError, Check: c.checkZeroPrices},
		{ID: RuleSalesChannel, Severity: models.SeverityError, Check: checkSalesChannel},
		{ID: RuleChannelProject, Severity: models.SeverityError, Check: checkChannelProject},
		{ID: RuleContractRequired, Severity: models.SeverityError, Check: checkContractRequired},
		{ID: RuleContractFields, Severity: models.SeverityError, Check: checkContractFields},
		{ID: RuleSalesSource, Severity: models.SeverityError, Check: c.checkSalesSource},
	}
	return c.appendRegionPaymentRules(rules, region)
}

func (c *Catalog) appendRegionPaymentRules(rules []Rule, region models.Region) []Rule {
	if region == models.RegionRU {
		rules = append(rules, Rule{ID: RuleContractType, Severity: models.SeverityError, Check: checkContractType})
	}
	if region == models.RegionBY {
		rules = append(rules, Rule{ID: RulePaymentMethod, Severity: models.SeverityError, Check: checkPaymentMethod})
	}
	if region == models.RegionBY || region == models.RegionRU {
		rules = append(rules, Rule{ID: RulePaymentTerms, Severity: models.SeverityError, Check: c.checkPaymentTerms})
	}
	return rules
}

func (c *Catalog) returnRules() []Rule {
	return []Rule{
		{ID: RuleSalesChannel, Severity: models.SeverityError, Check: checkSalesChannel},
		{ID: RuleChannelProject, Severity: models.SeverityError, Check: checkChannelProject},
		{ID: RuleZeroPrice, Severity: models.SeverityError, Check: c.checkZeroPrices},
	}
}
