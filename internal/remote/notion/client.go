package notion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ledger/internal/core"
	"ledger/internal/middleware/ratelimit"
	"ledger/internal/middleware/trace"

	"github.com/jomei/notionapi"
)

const pageSize = 100

// Config names the databases backing each collection.
type Config struct {
	Token            string
	CategoriesDB     string
	PaymentMethodsDB string
	TransactionsDB   string
	Timeout          time.Duration
}

// Service is the subset of the Notion API the client relies on.
type Service interface {
	QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
	UpdatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error)
}

// Client reads the three ledger databases and writes transactions.
type Client struct {
	cfg Config
	svc Service

	// Set by New only.
	tracer  *trace.Transport
	limiter *ratelimit.Transport
}

// TransportMetrics counts HTTP traffic to the Notion API.
type TransportMetrics struct {
	Requests  int64
	Failed    int64
	Waited    int64
	Throttled int64
}

// New returns a client talking to the Notion API. The token is not checked
// here; every call checks the configuration it needs.
func New(cfg Config) *Client {
	return newHTTPClient(cfg, http.DefaultTransport)
}

func newHTTPClient(cfg Config, base http.RoundTripper) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	limiter := ratelimit.NewTransport(base, ratelimit.DefaultConfig())
	tracer := trace.NewTransport(limiter)
	api := notionapi.NewClient(
		notionapi.Token(cfg.Token),
		notionapi.WithHTTPClient(&http.Client{Timeout: cfg.Timeout, Transport: tracer}),
	)
	c := NewWithService(cfg, &apiService{client: api})
	c.tracer, c.limiter = tracer, limiter
	return c
}

// Metrics reports traffic since the client was created. It is zero for
// clients built with NewWithService.
func (c *Client) Metrics() TransportMetrics {
	var m TransportMetrics
	if c.tracer != nil {
		tm := c.tracer.GetMetrics()
		m.Requests, m.Failed = tm.TotalRequests, tm.FailedRequests
	}
	if c.limiter != nil {
		lm := c.limiter.GetMetrics()
		m.Waited, m.Throttled = lm.Waited, lm.Throttled
	}
	return m
}

// NewWithService wires a client onto any Service implementation.
func NewWithService(cfg Config, svc Service) *Client {
	return &Client{cfg: cfg, svc: svc}
}

// Fetch lists every page of the collection's database, following cursors.
// Transactions come back most recently edited first.
func (c *Client) Fetch(ctx context.Context, coll core.Collection) ([]notionapi.Page, error) {
	dbID, err := c.database(coll)
	if err != nil {
		return nil, err
	}
	if missing := c.missing(dbID, databaseEnv(coll)); len(missing) > 0 {
		return nil, &core.ConfigurationError{Op: "fetch " + coll.String(), Missing: missing}
	}

	var (
		pages  []notionapi.Page
		cursor notionapi.Cursor
	)
	for {
		req := &notionapi.DatabaseQueryRequest{PageSize: pageSize}
		if coll == core.Transactions {
			req.Sorts = []notionapi.SortObject{{
				Timestamp: notionapi.TimestampLastEdited,
				Direction: notionapi.SortOrderDESC,
			}}
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := c.svc.QueryDatabase(ctx, dbID, req)
		if err != nil {
			return nil, &core.NetworkError{Op: "fetch", Collection: coll, Err: err}
		}
		pages = append(pages, resp.Results...)

		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}

	slog.DebugContext(ctx, "Fetched collection", "collection", coll, "count", len(pages))
	return pages, nil
}

func (c *Client) CreateTransaction(ctx context.Context, in core.TransactionInput) (string, error) {
	if missing := c.missing(c.cfg.TransactionsDB, "NOTION_TRANSACTIONS_DB_ID"); len(missing) > 0 {
		return "", &core.ConfigurationError{Op: "create transaction", Missing: missing}
	}

	page, err := c.svc.CreatePage(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(c.cfg.TransactionsDB),
		},
		Properties: TransactionProperties(in),
	})
	if err != nil {
		return "", rejection("create", "", err)
	}
	if page == nil || page.ID.String() == "" {
		return "", &core.RemoteRejection{Op: "create", Detail: "response without page id"}
	}
	return page.ID.String(), nil
}

func (c *Client) UpdateTransaction(ctx context.Context, id string, in core.TransactionInput) error {
	if missing := c.missingToken(); len(missing) > 0 {
		return &core.ConfigurationError{Op: "update transaction", Missing: missing}
	}
	if _, err := c.svc.UpdatePage(ctx, id, &notionapi.PageUpdateRequest{
		Properties: TransactionProperties(in),
	}); err != nil {
		return rejection("update", id, err)
	}
	return nil
}

func (c *Client) ArchiveTransaction(ctx context.Context, id string) error {
	if missing := c.missingToken(); len(missing) > 0 {
		return &core.ConfigurationError{Op: "archive transaction", Missing: missing}
	}
	if _, err := c.svc.UpdatePage(ctx, id, &notionapi.PageUpdateRequest{
		Archived: true,
	}); err != nil {
		return rejection("archive", id, err)
	}
	return nil
}

func (c *Client) database(coll core.Collection) (string, error) {
	switch coll {
	case core.Categories:
		return c.cfg.CategoriesDB, nil
	case core.PaymentMethods:
		return c.cfg.PaymentMethodsDB, nil
	case core.Transactions:
		return c.cfg.TransactionsDB, nil
	default:
		return "", fmt.Errorf("%w: %q", core.ErrUnknownCollection, coll)
	}
}

func (c *Client) missingToken() []string {
	if strings.TrimSpace(c.cfg.Token) == "" {
		return []string{"NOTION_TOKEN"}
	}
	return nil
}

// missing reports the unset settings among the token and the given database id.
func (c *Client) missing(dbID, dbEnv string) []string {
	out := c.missingToken()
	if strings.TrimSpace(dbID) == "" {
		out = append(out, dbEnv)
	}
	return out
}

func databaseEnv(coll core.Collection) string {
	switch coll {
	case core.Categories:
		return "NOTION_CATEGORIES_DB_ID"
	case core.PaymentMethods:
		return "NOTION_PAYMENT_METHODS_DB_ID"
	default:
		return "NOTION_TRANSACTIONS_DB_ID"
	}
}

func rejection(op, id string, err error) error {
	detail := err.Error()
	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		detail = apiErr.Message
	}
	return &core.RemoteRejection{Op: op, ID: id, Detail: detail, Err: err}
}

// apiService adapts the SDK client to Service.
type apiService struct {
	client *notionapi.Client
}

func (s *apiService) QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	resp, err := s.client.Database.Query(ctx, notionapi.DatabaseID(databaseID), req)
	if err != nil {
		return nil, fmt.Errorf("query database: %w", err)
	}
	return resp, nil
}

func (s *apiService) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	page, err := s.client.Page.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	return page, nil
}

func (s *apiService) UpdatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	page, err := s.client.Page.Update(ctx, notionapi.PageID(pageID), req)
	if err != nil {
		return nil, fmt.Errorf("update page: %w", err)
	}
	return page, nil
}
