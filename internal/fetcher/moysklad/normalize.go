package moysklad

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"docaudit/internal/audit/models"
	"docaudit/pkg/platform/text"
)

// ====================================================================
// Raw wire shapes
// ====================================================================

type meta struct {
	Href string `json:"href"`
	Type string `json:"type"`
}

type reference struct {
	Meta meta   `json:"meta"`
	Name string `json:"name"`
}

type listResponse struct {
	Rows []row `json:"rows"`
}

// row is the union of listing fields across all fetched entity types.
// Counterparty cards carry the agent fields inline; trade documents carry
// them on the expanded agent reference.
type row struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Moment      string `json:"moment"`
	Description string `json:"description"`

	Sum      int64 `json:"sum"`
	PayedSum int64 `json:"payedSum"`

	Agent        *agent        `json:"agent"`
	Owner        *reference    `json:"owner"`
	Contract     *reference    `json:"contract"`
	SalesChannel *reference    `json:"salesChannel"`
	Project      *reference    `json:"project"`
	Attributes   []attribute   `json:"attributes"`
	Positions    *positionList `json:"positions"`

	// Counterparty card fields.
	CompanyType   string   `json:"companyType"`
	Phone         string   `json:"phone"`
	INN           string   `json:"inn"`
	ActualAddress string   `json:"actualAddress"`
	Tags          []string `json:"tags"`
}

type agent struct {
	Meta          meta        `json:"meta"`
	Name          string      `json:"name"`
	CompanyType   string      `json:"companyType"`
	Phone         string      `json:"phone"`
	INN           string      `json:"inn"`
	ActualAddress string      `json:"actualAddress"`
	Tags          []string    `json:"tags"`
	Attributes    []attribute `json:"attributes"`
}

type attribute struct {
	Name  string          `json:"name"`
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

type positionList struct {
	Rows []position `json:"rows"`
}

type position struct {
	Price      float64    `json:"price"`
	Quantity   float64    `json:"quantity"`
	Assortment *reference `json:"assortment"`
}

type contractDetail struct {
	Name         string      `json:"name"`
	ContractType string      `json:"contractType"`
	Attributes   []attribute `json:"attributes"`
}

var momentLayouts = []string{
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ====================================================================
// Normalization
// ====================================================================

// normalizeRow maps one raw listing row to an audit document. Missing or
// malformed fields stay zero-valued; deciding whether that is a violation is
// rule territory, not fetcher territory.
func (c *Client) normalizeRow(ctx context.Context, region models.Region, docType models.DocumentType, r row, contracts *contractResolver) models.Document {
	doc := models.Document{
		ID:          r.ID,
		Name:        r.Name,
		Type:        docType,
		Region:      region,
		Amount:      r.Sum,
		PaidAmount:  r.PayedSum,
		Description: r.Description,
		Attributes:  attributesMap(r.Attributes),
	}

	for _, layout := range momentLayouts {
		if t, err := time.Parse(layout, r.Moment); err == nil {
			doc.Moment = t
			break
		}
	}

	doc.Owner, doc.OwnerID = c.resolveOwner(ctx, r.Owner, contracts.creds)

	if docType == models.TypeCounterpartyCard {
		doc.Counterparty = models.Counterparty{
			Name:          r.Name,
			Kind:          models.CounterpartyKind(r.CompanyType),
			Phone:         r.Phone,
			TaxID:         r.INN,
			ActualAddress: r.ActualAddress,
			Groups:        r.Tags,
		}
	} else if r.Agent != nil {
		doc.Counterparty = models.Counterparty{
			Name:          r.Agent.Name,
			Kind:          models.CounterpartyKind(r.Agent.CompanyType),
			Phone:         r.Agent.Phone,
			TaxID:         r.Agent.INN,
			ActualAddress: r.Agent.ActualAddress,
			Groups:        r.Agent.Tags,
		}
		// Agent custom fields back-fill document attributes without
		// shadowing the document's own.
		for name, value := range attributesMap(r.Agent.Attributes) {
			if _, taken := doc.Attributes[name]; !taken {
				if doc.Attributes == nil {
					doc.Attributes = make(map[string]string)
				}
				doc.Attributes[name] = value
			}
		}
	}

	if r.SalesChannel != nil {
		doc.SalesChannel = r.SalesChannel.Name
	}
	if r.Project != nil {
		doc.Project = r.Project.Name
	}
	doc.PaymentMethod = firstAttribute(doc, "методрасчета", "методоплаты")
	doc.SalesSource = salesSource(doc)

	if r.Positions != nil {
		for _, p := range r.Positions.Rows {
			product := ""
			if p.Assortment != nil {
				product = p.Assortment.Name
			}
			doc.Positions = append(doc.Positions, models.Position{
				Product:  product,
				Price:    int64(p.Price),
				Quantity: p.Quantity,
			})
		}
	}

	if r.Contract != nil {
		doc.Contract = contracts.resolve(ctx, r.Contract)
	}
	return doc
}

// attributesMap flattens custom fields into normalized-name → display-value
// pairs. File attributes keep their filename as the value so presence checks
// work uniformly.
func attributesMap(attrs []attribute) map[string]string {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]string, len(attrs))
	for _, a := range attrs {
		key := text.Normalize(a.Name)
		if key == "" {
			continue
		}
		if v, ok := attributeValue(a); ok {
			out[key] = v
		}
	}
	return out
}

// attributeValue extracts a comparable string from the platform's polymorphic
// attribute value: plain string, dictionary entry, boolean or number.
func attributeValue(a attribute) (string, bool) {
	if len(a.Value) == 0 || string(a.Value) == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(a.Value, &s); err == nil {
		return s, true
	}
	var ref struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(a.Value, &ref); err == nil && ref.Name != "" {
		return ref.Name, true
	}
	var b bool
	if err := json.Unmarshal(a.Value, &b); err == nil {
		if b {
			return "true", true
		}
		return "", false
	}
	var n float64
	if err := json.Unmarshal(a.Value, &n); err == nil {
		return fmt.Sprintf("%v", n), true
	}
	return "", false
}

func firstAttribute(doc models.Document, names ...string) string {
	for _, name := range names {
		if v, ok := doc.Attribute(name); ok && v != "" {
			return v
		}
	}
	return ""
}

// salesSource scans custom fields for the sales-source attribute, whose exact
// label varies by account.
func salesSource(doc models.Document) string {
	for name, value := range doc.Attributes {
		if strings.Contains(name, "источник") && strings.Contains(name, "продаж") {
			return value
		}
	}
	return ""
}

func idFromHref(href string) string {
	href = strings.TrimSuffix(href, "/")
	if i := strings.IndexByte(href, '?'); i >= 0 {
		href = href[:i]
	}
	if i := strings.LastIndexByte(href, '/'); i >= 0 {
		return href[i+1:]
	}
	return href
}

// ====================================================================
// Contract resolution
// ====================================================================

// contractResolver fetches contract details on demand and memoizes them for
// the duration of one Fetch call. Many shipments share a contract, and the
// listing reference carries only the name.
type contractResolver struct {
	client *Client
	creds  Credentials
	cache  map[string]*models.Contract
}

func newContractResolver(client *Client, creds Credentials) *contractResolver {
	return &contractResolver{
		client: client,
		creds:  creds,
		cache:  make(map[string]*models.Contract),
	}
}

func (cr *contractResolver) resolve(ctx context.Context, ref *reference) *models.Contract {
	id := idFromHref(ref.Meta.Href)
	if id == "" {
		return &models.Contract{Name: ref.Name}
	}
	if cached, ok := cr.cache[id]; ok {
		return cached
	}

	var detail contractDetail
	if err := cr.client.get(ctx, "/entity/contract/"+id, cr.creds, &detail); err != nil {
		cr.client.logger.WarnContext(ctx, "contract lookup failed", "contract_id", id, "error", err)
		contract := &models.Contract{Name: ref.Name, Unresolved: true}
		cr.cache[id] = contract
		return contract
	}

	contract := &models.Contract{Name: detail.Name, Type: detail.ContractType}
	if contract.Name == "" {
		contract.Name = ref.Name
	}
	for _, a := range detail.Attributes {
		key := text.Normalize(a.Name)
		switch {
		case a.Type == "file":
			contract.HasScan = true
		case strings.Contains(key, "типдоговора") || key == "тип":
			// Custom field fallback for accounts that never fill the
			// standard contractType field.
			if contract.Type == "" {
				contract.Type, _ = attributeValue(a)
			}
		case strings.Contains(key, "условие"):
			contract.Condition, _ = attributeValue(a)
		}
	}
	cr.cache[id] = contract
	return contract
}
