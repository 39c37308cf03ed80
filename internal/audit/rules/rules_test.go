package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"docaudit/internal/audit/models"
)

// =============================================================================
// Rule Catalog Test Suite
// =============================================================================
// Justification for unit tests: the rule predicates carry all region-specific
// business knowledge (phone formats, tax ids, contract terms). Exercising them
// here avoids dragging a live document source into every edge case.

type RulesSuite struct {
	suite.Suite
	catalog *Catalog
	now     time.Time
}

func TestRulesSuite(t *testing.T) {
	suite.Run(t, new(RulesSuite))
}

func (s *RulesSuite) SetupTest() {
	s.now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	s.catalog = NewCatalog(WithClock(func() time.Time { return s.now }))
}

// run finds the rule by id in the (region, docType) sequence and applies it.
func (s *RulesSuite) run(region models.Region, docType models.DocumentType, ruleID string, doc models.Document) ([]string, error) {
	s.T().Helper()
	for _, rule := range s.catalog.RulesFor(region, docType) {
		if rule.ID == ruleID {
			return rule.Check(doc, region)
		}
	}
	s.FailNow("rule not registered", "rule %s for %s/%s", ruleID, region, docType)
	return nil, nil
}

func card(kind models.CounterpartyKind) models.Document {
	return models.Document{
		ID:   "doc-1",
		Type: models.TypeCounterpartyCard,
		Counterparty: models.Counterparty{
			Name: "Тестовый Контрагент",
			Kind: kind,
		},
	}
}

// =============================================================================
// Phone Format Tests
// =============================================================================

func (s *RulesSuite) TestPhoneFormat() {
	s.Run("BY accepts 375 prefixed 12 digit numbers", func() {
		doc := card(models.KindIndividual)
		doc.Counterparty.Phone = "+375 (29) 123-45-67"
		issues, err := s.run(models.RegionBY, models.TypeCounterpartyCard, RulePhoneFormat, doc)
		s.NoError(err)
		s.Empty(issues)
	})

	s.Run("BY rejects foreign prefix", func() {
		doc := card(models.KindIndividual)
		doc.Counterparty.Phone = "+7 912 345 67 89"
		issues, err := s.run(models.RegionBY, models.TypeCounterpartyCard, RulePhoneFormat, doc)
		s.NoError(err)
		s.Len(issues, 1)
		s.Contains(issues[0], "375")
	})

	s.Run("RU accepts both 7 and 8 prefixes", func() {
		for _, phone := range []string{"+7 912 345-67-89", "8 (912) 345 67 89"} {
			doc := card(models.KindIndividual)
			doc.Counterparty.Phone = phone
			issues, err := s.run(models.RegionRU, models.TypeCounterpartyCard, RulePhoneFormat, doc)
			s.NoError(err)
			s.Empty(issues, "phone %q", phone)
		}
	})

	s.Run("RU rejects wrong digit count", func() {
		doc := card(models.KindIndividual)
		doc.Counterparty.Phone = "+7 912 345-67"
		issues, err := s.run(models.RegionRU, models.TypeCounterpartyCard, RulePhoneFormat, doc)
		s.NoError(err)
		s.Len(issues, 1)
	})

	s.Run("KZ accepts 7 prefixed 11 digit numbers", func() {
		doc := card(models.KindIndividual)
		doc.Counterparty.Phone = "+7 701 234 56 78"
		issues, err := s.run(models.RegionKZ, models.TypeCounterpartyCard, RulePhoneFormat, doc)
		s.NoError(err)
		s.Empty(issues)
	})

	s.Run("missing phone is an issue", func() {
		doc := card(models.KindIndividual)
		issues, err := s.run(models.RegionBY, models.TypeCounterpartyCard, RulePhoneFormat, doc)
		s.NoError(err)
		s.Len(issues, 1)
		s.Contains(issues[0], "missing")
	})
}

// =============================================================================
// Tax ID Tests
// =============================================================================

func (s *RulesSuite) TestTaxID() {
	s.Run("BY legal entity needs 9 digit UNP", func() {
		doc := card(models.KindLegal)
		doc.Counterparty.TaxID = "123456789"
		issues, err := s.run(models.RegionBY, models.TypeCounterpartyCard, RuleTaxID, doc)
		s.NoError(err)
		s.Empty(issues)

		doc.Counterparty.TaxID = "12345678"
		issues, err = s.run(models.RegionBY, models.TypeCounterpartyCard, RuleTaxID, doc)
		s.NoError(err)
		s.Len(issues, 1)
		s.Contains(issues[0], "UNP")
	})

	s.Run("RU legal entity needs 10 digits and entrepreneur 12", func() {
		legal := card(models.KindLegal)
		legal.Counterparty.TaxID = "1234567890"
		issues, err := s.run(models.RegionRU, models.TypeCounterpartyCard, RuleTaxID, legal)
		s.NoError(err)
		s.Empty(issues)

		ip := card(models.KindEntrepreneur)
		ip.Counterparty.TaxID = "1234567890"
		issues, err = s.run(models.RegionRU, models.TypeCounterpartyCard, RuleTaxID, ip)
		s.NoError(err)
		s.Len(issues, 1)
	})

	s.Run("non-digit tax id is an issue", func() {
		doc := card(models.KindLegal)
		doc.Counterparty.TaxID = "12345678a"
		issues, err := s.run(models.RegionBY, models.TypeCounterpartyCard, RuleTaxID, doc)
		s.NoError(err)
		s.Len(issues, 1)
		s.Contains(issues[0], "non-digit")
	})

	s.Run("individuals are not checked", func() {
		doc := card(models.KindIndividual)
		issues, err := s.run(models.RegionBY, models.TypeCounterpartyCard, RuleTaxID, doc)
		s.NoError(err)
		s.Empty(issues)
	})

	s.Run("missing kind means the record is unusable", func() {
		doc := card("")
		_, err := s.run(models.RegionBY, models.TypeCounterpartyCard, RuleTaxID, doc)
		s.ErrorIs(err, ErrMissingData)
	})
}

// =============================================================================
// Type / Name Consistency Tests
// =============================================================================

func (s *RulesSuite) TestTypeNameConsistency() {
	s.Run("legal entity named like an entrepreneur is flagged", func() {
		doc := card(models.KindLegal)
		doc.Counterparty.Name = `ИП Иванов И.И.`
		issues, err := s.run(models.RegionBY, models.TypeCounterpartyCard, RuleTypeName, doc)
		s.NoError(err)
		s.Len(issues, 1)
	})

	s.Run("individual named like a company is flagged", func() {
		doc := card(models.KindIndividual)
		doc.Counterparty.Name = `ООО "Ромашка"`
		issues, err := s.run(models.RegionBY, models.TypeCounterpartyCard, RuleTypeName, doc)
		s.NoError(err)
		s.Len(issues, 1)
	})

	s.Run("token matching ignores substrings inside words", func() {
		doc := card(models.KindLegal)
		doc.Counterparty.Name = "Филипп Киркоров"
		issues, err := s.run(models.RegionBY, models.TypeCounterpartyCard, RuleTypeName, doc)
		s.NoError(err)
		s.Empty(issues)
	})
}

// =============================================================================
// Personal Data Agreement Tests (BY individuals)
// =============================================================================

func (s *RulesSuite) TestPDAgreement() {
	s.Run("accepted value passes regardless of formatting", func() {
		doc := card(models.KindIndividual)
		doc.Attributes = map[string]string{attrPDAgreement: "Принял согласие"}
		issues, err := s.run(models.RegionBY, models.TypeCounterpartyCard, RulePDAgreement, doc)
		s.NoError(err)
		s.Empty(issues)
	})

	s.Run("unexpected value is flagged", func() {
		doc := card(models.KindIndividual)
		doc.Attributes = map[string]string{attrPDAgreement: "Отказался"}
		issues, err := s.run(models.RegionBY, models.TypeCounterpartyCard, RulePDAgreement, doc)
		s.NoError(err)
		s.Len(issues, 1)
	})

	s.Run("business counterparties are exempt", func() {
		doc := card(models.KindLegal)
		issues, err := s.run(models.RegionBY, models.TypeCounterpartyCard, RulePDAgreement, doc)
		s.NoError(err)
		s.Empty(issues)
	})
}

func (s *RulesSuite) TestPDAgreementExpiry() {
	s.Run("expiry beyond 30 days passes", func() {
		doc := card(models.KindIndividual)
		doc.Attributes = map[string]string{attrPDAgreementUntil: s.now.AddDate(0, 0, 45).Format("2006-01-02")}
		issues, err := s.run(models.RegionBY, models.TypeCounterpartyCard, RulePDAgreementExpiry, doc)
		s.NoError(err)
		s.Empty(issues)
	})

	s.Run("expiry within 30 days is flagged", func() {
		doc := card(models.KindIndividual)
		doc.Attributes = map[string]string{attrPDAgreementUntil: s.now.AddDate(0, 0, 10).Format("2006-01-02")}
		issues, err := s.run(models.RegionBY, models.TypeCounterpartyCard, RulePDAgreementExpiry, doc)
		s.NoError(err)
		s.Len(issues, 1)
		s.Contains(issues[0], "30 days")
	})

	s.Run("unparseable date is flagged, not an error", func() {
		doc := card(models.KindIndividual)
		doc.Attributes = map[string]string{attrPDAgreementUntil: "скоро"}
		issues, err := s.run(models.RegionBY, models.TypeCounterpartyCard, RulePDAgreementExpiry, doc)
		s.NoError(err)
		s.Len(issues, 1)
	})
}

// =============================================================================
// Channel / Project Mapping Tests
// =============================================================================

func (s *RulesSuite) TestChannelProject() {
	shipment := func(channel, project string) models.Document {
		return models.Document{
			ID:           "ship-1",
			Type:         models.TypeShipment,
			SalesChannel: channel,
			Project:      project,
		}
	}

	s.Run("matching project passes", func() {
		doc := shipment("Сети", "Федеральные")
		issues, err := s.run(models.RegionBY, models.TypeShipment, RuleChannelProject, doc)
		s.NoError(err)
		s.Empty(issues)
	})

	s.Run("wrong project for channel is flagged", func() {
		doc := shipment("Сети", "Аптеки")
		issues, err := s.run(models.RegionBY, models.TypeShipment, RuleChannelProject, doc)
		s.NoError(err)
		s.Len(issues, 1)
		s.Contains(issues[0], "Аптеки")
	})

	s.Run("channel requiring a project flags empty project", func() {
		doc := shipment("Опт", "")
		issues, err := s.run(models.RegionBY, models.TypeShipment, RuleChannelProject, doc)
		s.NoError(err)
		s.Len(issues, 1)
	})

	s.Run("marketplace channels need no project", func() {
		doc := shipment("Маркетплейсы", "")
		issues, err := s.run(models.RegionBY, models.TypeShipment, RuleChannelProject, doc)
		s.NoError(err)
		s.Empty(issues)
	})

	s.Run("unmapped channel is not checked", func() {
		doc := shipment("Спецпроекты", "")
		issues, err := s.run(models.RegionBY, models.TypeShipment, RuleChannelProject, doc)
		s.NoError(err)
		s.Empty(issues)
	})

	s.Run("channel matching several entries resolves to the first, every time", func() {
		// "Сети Опт" contains both "сети" and "опт"; the table order decides,
		// so the networks projects apply and the outcome never varies.
		doc := shipment("Сети Опт", "Федеральные")
		for i := 0; i < 200; i++ {
			issues, err := s.run(models.RegionBY, models.TypeShipment, RuleChannelProject, doc)
			s.NoError(err)
			s.Empty(issues)
		}

		doc = shipment("Сети Опт", "Крупный Опт")
		issues, err := s.run(models.RegionBY, models.TypeShipment, RuleChannelProject, doc)
		s.NoError(err)
		s.Len(issues, 1)
		s.Contains(issues[0], "Федеральные")
	})
}

// =============================================================================
// Sales Source Tests
// =============================================================================

func (s *RulesSuite) TestSalesSource() {
	s.Run("contact center shipment to an individual requires a source", func() {
		doc := models.Document{
			Type:         models.TypeShipment,
			Owner:        "Контакт-Центр",
			Counterparty: models.Counterparty{Kind: models.KindIndividual},
		}
		issues, err := s.run(models.RegionBY, models.TypeShipment, RuleSalesSource, doc)
		s.NoError(err)
		s.Len(issues, 1)
	})

	s.Run("other owners are exempt on shipments", func() {
		doc := models.Document{
			Type:         models.TypeShipment,
			Owner:        "Иванов Иван",
			Counterparty: models.Counterparty{Kind: models.KindIndividual},
		}
		issues, err := s.run(models.RegionBY, models.TypeShipment, RuleSalesSource, doc)
		s.NoError(err)
		s.Empty(issues)
	})

	s.Run("retail sale to an individual requires a source regardless of owner", func() {
		doc := models.Document{
			Type:         models.TypeRetailSale,
			Owner:        "Иванов Иван",
			Counterparty: models.Counterparty{Kind: models.KindIndividual},
		}
		issues, err := s.run(models.RegionBY, models.TypeRetailSale, RuleSalesSource, doc)
		s.NoError(err)
		s.Len(issues, 1)
	})
}

// =============================================================================
// Payment Method Tests (BY)
// =============================================================================

func (s *RulesSuite) TestPaymentMethod() {
	business := func(method string) models.Document {
		return models.Document{
			Type:          models.TypeShipment,
			Counterparty:  models.Counterparty{Kind: models.KindLegal},
			PaymentMethod: method,
			Contract:      &models.Contract{Name: "Д-1"},
		}
	}

	s.Run("bank transfer passes", func() {
		doc := business("Р/С")
		issues, err := s.run(models.RegionBY, models.TypeShipment, RulePaymentMethod, doc)
		s.NoError(err)
		s.Empty(issues)
	})

	s.Run("cash is not allowed for businesses", func() {
		doc := business("Наличные")
		issues, err := s.run(models.RegionBY, models.TypeShipment, RulePaymentMethod, doc)
		s.NoError(err)
		s.Len(issues, 1)
	})

	s.Run("prepaid variant demands full payment", func() {
		doc := business("Р/С предоплата (школа, обучение, аренда)")
		doc.Amount = 10000
		doc.PaidAmount = 5000
		issues, err := s.run(models.RegionBY, models.TypeShipment, RulePaymentMethod, doc)
		s.NoError(err)
		s.Len(issues, 1)
		s.Contains(issues[0], "prepayment")
	})

	s.Run("individuals are exempt", func() {
		doc := business("Наличные")
		doc.Counterparty.Kind = models.KindIndividual
		issues, err := s.run(models.RegionBY, models.TypeShipment, RulePaymentMethod, doc)
		s.NoError(err)
		s.Empty(issues)
	})
}

// =============================================================================
// Payment Terms Tests
// =============================================================================

func (s *RulesSuite) TestPaymentTerms() {
	deferred := func(condition string, daysAgo int, paid int64) models.Document {
		return models.Document{
			Type:       models.TypeShipment,
			Amount:     10000,
			PaidAmount: paid,
			Moment:     s.now.AddDate(0, 0, -daysAgo),
			Contract:   &models.Contract{Name: "Д-1", Condition: condition},
		}
	}

	s.Run("prepayment condition demands full payment immediately", func() {
		doc := deferred("Предоплата", 1, 5000)
		issues, err := s.run(models.RegionBY, models.TypeShipment, RulePaymentTerms, doc)
		s.NoError(err)
		s.Len(issues, 1)
	})

	s.Run("16-30 deferral tolerates debt inside the window", func() {
		doc := deferred("Отсрочка 16-30", 20, 0)
		issues, err := s.run(models.RegionBY, models.TypeShipment, RulePaymentTerms, doc)
		s.NoError(err)
		s.Empty(issues)
	})

	s.Run("16-30 deferral flags debt past 30 days", func() {
		doc := deferred("Отсрочка 16-30", 35, 0)
		issues, err := s.run(models.RegionBY, models.TypeShipment, RulePaymentTerms, doc)
		s.NoError(err)
		s.Len(issues, 1)
	})

	s.Run("30-60 deferral flags debt past 60 days", func() {
		doc := deferred("Отсрочка 30-60", 65, 0)
		issues, err := s.run(models.RegionRU, models.TypeShipment, RulePaymentTerms, doc)
		s.NoError(err)
		s.Len(issues, 1)
	})

	s.Run("fully paid document always passes", func() {
		doc := deferred("Отсрочка 60+", 90, 10000)
		issues, err := s.run(models.RegionBY, models.TypeShipment, RulePaymentTerms, doc)
		s.NoError(err)
		s.Empty(issues)
	})

	s.Run("exempt conditions skip the check", func() {
		doc := deferred("Договор комиссии", 90, 0)
		issues, err := s.run(models.RegionBY, models.TypeShipment, RulePaymentTerms, doc)
		s.NoError(err)
		s.Empty(issues)
	})

	s.Run("missing document date is unusable data", func() {
		doc := deferred("Отсрочка 16-30", 0, 0)
		doc.Moment = time.Time{}
		_, err := s.run(models.RegionBY, models.TypeShipment, RulePaymentTerms, doc)
		s.ErrorIs(err, ErrMissingData)
	})
}

// =============================================================================
// Contract Field Tests
// =============================================================================

func (s *RulesSuite) TestContractFields() {
	shipment := func(contract *models.Contract) models.Document {
		return models.Document{
			ID:       "ship-1",
			Type:     models.TypeShipment,
			Contract: contract,
			Counterparty: models.Counterparty{
				Name: "ООО Тест",
				Kind: models.KindLegal,
			},
		}
	}

	s.Run("missing type and scan are both flagged", func() {
		doc := shipment(&models.Contract{Name: "Д-1"})
		issues, err := s.run(models.RegionBY, models.TypeShipment, RuleContractFields, doc)
		s.NoError(err)
		s.Len(issues, 2)
	})

	s.Run("complete contract passes", func() {
		doc := shipment(&models.Contract{Name: "Д-1", Type: "Поставки", HasScan: true})
		issues, err := s.run(models.RegionBY, models.TypeShipment, RuleContractFields, doc)
		s.NoError(err)
		s.Empty(issues)
	})

	s.Run("unresolved contract is skipped, not flagged", func() {
		doc := shipment(&models.Contract{Name: "Д-1", Unresolved: true})
		issues, err := s.run(models.RegionBY, models.TypeShipment, RuleContractFields, doc)
		s.NoError(err)
		s.Empty(issues)

		issues, err = s.run(models.RegionRU, models.TypeShipment, RuleContractType, doc)
		s.NoError(err)
		s.Empty(issues)
	})
}

// =============================================================================
// Line-Item Price Tests
// =============================================================================

func (s *RulesSuite) TestZeroPrices() {
	doc := models.Document{
		ID:   "doc-1",
		Type: models.TypeShipment,
		Positions: []models.Position{
			{Product: "Товар А", Price: 0, Quantity: 2},
			{Product: "Товар Б", Price: 15050, Quantity: 1},
			{Product: "Товар В", Price: 0, Quantity: 1},
		},
	}

	s.Run("each zero-priced position is a separate issue", func() {
		issues, err := s.run(models.RegionBY, models.TypeShipment, RuleZeroPrice, doc)
		s.NoError(err)
		s.Len(issues, 2)
		s.Contains(issues[0], "Товар А")
		s.Contains(issues[1], "Товар В")
	})

	s.Run("configured minimum flags cheap positions too", func() {
		strict := NewCatalog(WithMinPrice(100))
		var check CheckFunc
		for _, rule := range strict.RulesFor(models.RegionBY, models.TypeShipment) {
			if rule.ID == RuleZeroPrice {
				check = rule.Check
			}
		}
		s.Require().NotNil(check)

		cheap := doc
		cheap.Positions = []models.Position{{Product: "Товар Г", Price: 40, Quantity: 1}}
		issues, err := check(cheap, models.RegionBY)
		s.NoError(err)
		s.Len(issues, 1)
		s.Contains(issues[0], "below the minimum")
	})

	s.Run("no positions means no issues", func() {
		issues, err := s.run(models.RegionBY, models.TypeShipment, RuleZeroPrice, models.Document{ID: "doc-2"})
		s.NoError(err)
		s.Empty(issues)
	})
}

// =============================================================================
// Catalog Composition Tests
// =============================================================================

func (s *RulesSuite) TestCatalogComposition() {
	s.Run("BY counterparty rules include the PD and dictionary deltas", func() {
		ids := ruleIDs(s.catalog.RulesFor(models.RegionBY, models.TypeCounterpartyCard))
		s.Contains(ids, RulePDAgreement)
		s.Contains(ids, RulePDAgreementExpiry)
		s.Contains(ids, RuleRegionDict)
	})

	s.Run("RU counterparty rules exclude BY-only deltas", func() {
		ids := ruleIDs(s.catalog.RulesFor(models.RegionRU, models.TypeCounterpartyCard))
		s.NotContains(ids, RulePDAgreement)
		s.NotContains(ids, RuleRegionDict)
		s.Contains(ids, RuleContractTypeDict)
	})

	s.Run("KZ gets neither dictionary nor payment deltas", func() {
		ids := ruleIDs(s.catalog.RulesFor(models.RegionKZ, models.TypeShipment))
		s.NotContains(ids, RulePaymentMethod)
		s.NotContains(ids, RulePaymentTerms)
		s.NotContains(ids, RuleContractType)
	})

	s.Run("KZ returns resolve to an empty sequence", func() {
		s.Empty(s.catalog.RulesFor(models.RegionKZ, models.TypeSalesReturn))
	})

	s.Run("unknown pair resolves to an empty sequence", func() {
		s.Empty(s.catalog.RulesFor("XX", models.TypeShipment))
	})
}

func (s *RulesSuite) TestExcluded() {
	s.Run("KZ shipments with a kaspi marker are excluded", func() {
		doc := models.Document{Type: models.TypeShipment, Description: "Отгрузка через Kaspi"}
		s.True(s.catalog.Excluded(doc, models.RegionKZ))
	})

	s.Run("the marker only applies to KZ shipments", func() {
		doc := models.Document{Type: models.TypeShipment, Description: "kaspi"}
		s.False(s.catalog.Excluded(doc, models.RegionBY))

		retail := models.Document{Type: models.TypeRetailSale, Description: "kaspi"}
		s.False(s.catalog.Excluded(retail, models.RegionKZ))
	})
}

func ruleIDs(rules []Rule) []string {
	ids := make([]string, 0, len(rules))
	for _, r := range rules {
		ids = append(ids, r.ID)
	}
	return ids
}
