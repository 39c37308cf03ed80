// Package moysklad is the bookkeeping-platform adapter. It fetches raw
// document listings per (region, type, period), follows pagination, and
// normalizes the platform's loosely-typed records into audit documents.
// Retry policy belongs to the caller; the client only distinguishes
// transport/auth failures from empty result sets.
package moysklad

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"docaudit/internal/audit/models"
	"docaudit/internal/fetcher/moysklad/ownercache"
	dErrors "docaudit/pkg/domain-errors"
)

const (
	defaultBaseURL  = "https://api.moysklad.ru/api/remap/1.2"
	defaultPageSize = 100
)

// entityPaths maps audit document types to platform listing endpoints.
var entityPaths = map[models.DocumentType]string{
	models.TypeShipment:           "/entity/demand",
	models.TypeRetailSale:         "/entity/retaildemand",
	models.TypeCommissionerReport: "/entity/commissionreportin",
	models.TypeCounterpartyCard:   "/entity/counterparty",
	models.TypeSalesReturn:        "/entity/salesreturn",
	models.TypeRetailReturn:       "/entity/retailsalesreturn",
	models.TypeCommissionReturn:   "/entity/commissionreportout",
}

// Credentials is one region's basic-auth login pair.
type Credentials struct {
	Login    string
	Password string
}

type Client struct {
	baseURL    string
	creds      map[models.Region]Credentials
	httpClient *http.Client
	owners     ownercache.Store
	logger     *slog.Logger
	pageSize   int
}

type Option func(*Client)

func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = base
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithOwnerCache(store ownercache.Store) Option {
	return func(c *Client) {
		c.owners = store
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithPageSize(n int) Option {
	return func(c *Client) {
		c.pageSize = n
	}
}

func New(creds map[models.Region]Credentials, opts ...Option) (*Client, error) {
	if len(creds) == 0 {
		return nil, fmt.Errorf("at least one region's credentials are required")
	}
	c := &Client{
		baseURL:    defaultBaseURL,
		creds:      creds,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		owners:     ownercache.NewMemory(),
		logger:     slog.Default(),
		pageSize:   defaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Fetch returns every document of the given type in the inclusive date
// range. An empty range result is a valid empty slice, not an error.
func (c *Client) Fetch(ctx context.Context, region models.Region, docType models.DocumentType, from, to time.Time) ([]models.Document, error) {
	path, ok := entityPaths[docType]
	if !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown document type: "+string(docType))
	}
	creds, ok := c.creds[region]
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnavailable, "no credentials configured for region "+region.String())
	}

	// Counterparty cards filter on record update time; trade documents on
	// the document moment.
	filterField := "moment"
	if docType == models.TypeCounterpartyCard {
		filterField = "updated"
	}
	filter := fmt.Sprintf("%s>=%s 00:00:00;%s<=%s 23:59:59",
		filterField, from.Format("2006-01-02"),
		filterField, to.Format("2006-01-02"),
	)

	var docs []models.Document
	contracts := newContractResolver(c, creds)
	for offset := 0; ; offset += c.pageSize {
		q := url.Values{}
		q.Set("limit", fmt.Sprint(c.pageSize))
		q.Set("offset", fmt.Sprint(offset))
		q.Set("filter", filter)
		q.Set("expand", "agent,positions.assortment")

		var page listResponse
		if err := c.get(ctx, path+"?"+q.Encode(), creds, &page); err != nil {
			return nil, err
		}
		for _, row := range page.Rows {
			docs = append(docs, c.normalizeRow(ctx, region, docType, row, contracts))
		}
		if len(page.Rows) < c.pageSize {
			break
		}
	}

	c.logger.DebugContext(ctx, "fetched documents",
		"region", region,
		"type", docType,
		"count", len(docs),
	)
	return docs, nil
}

// get performs one authenticated platform request. Auth and transport
// failures come back as unavailable-coded errors so the run service can
// surface them unmodified.
func (c *Client) get(ctx context.Context, path string, creds Credentials, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "build platform request")
	}
	req.SetBasicAuth(creds.Login, creds.Password)
	req.Header.Set("Accept", "application/json;charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "platform request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return dErrors.New(dErrors.CodeUnavailable, fmt.Sprintf("platform auth failed: status %d", resp.StatusCode))
	case resp.StatusCode == http.StatusTooManyRequests:
		return dErrors.New(dErrors.CodeUnavailable, "platform request limit reached")
	case resp.StatusCode != http.StatusOK:
		return dErrors.New(dErrors.CodeUnavailable, fmt.Sprintf("platform returned status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "decode platform response")
	}
	return nil
}

// resolveOwner returns the owner display name, consulting the cache before
// following the employee reference.
func (c *Client) resolveOwner(ctx context.Context, ref *reference, creds Credentials) (name, id string) {
	if ref == nil {
		return "", ""
	}
	id = idFromHref(ref.Meta.Href)
	if ref.Name != "" {
		if id != "" {
			c.owners.Set(ctx, id, ref.Name)
		}
		return ref.Name, id
	}
	if id == "" {
		return "", ""
	}
	if cached, ok := c.owners.Get(ctx, id); ok {
		return cached, id
	}

	var employee struct {
		Name     string `json:"name"`
		FullName string `json:"fullName"`
	}
	if err := c.get(ctx, "/entity/employee/"+id, creds, &employee); err != nil {
		c.logger.WarnContext(ctx, "owner lookup failed", "owner_id", id, "error", err)
		return "", id
	}
	name = employee.Name
	if name == "" {
		name = employee.FullName
	}
	if name != "" {
		c.owners.Set(ctx, id, name)
	}
	return name, id
}
