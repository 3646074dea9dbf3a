// Package client is a small HTTP client for the warehouse API, used by the
// command line tools.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/M3PH1S69/warehouse-monitoring/internal/model"
)

// DefaultTimeout bounds every request unless overridden.
const DefaultTimeout = 15 * time.Second

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("warehouse api: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("warehouse api: status %d (%s): %s", e.Status, e.Code, e.Message)
}

type errorPayload struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Client talks to one warehouse server.
type Client struct {
	http *resty.Client
}

// Option configures a Client.
type Option func(*resty.Client)

// WithToken authenticates every request with a bearer token.
func WithToken(token string) Option {
	return func(c *resty.Client) { c.SetAuthToken(token) }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *resty.Client) { c.SetTimeout(d) }
}

// New returns a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(DefaultTimeout)
	for _, opt := range opts {
		opt(rc)
	}
	return &Client{http: rc}
}

// NewTransactionID returns a fresh client-side transaction identifier.
func NewTransactionID() string {
	return "TXN-" + uuid.NewString()
}

// Login exchanges credentials for a token and uses it for later requests.
func (c *Client) Login(ctx context.Context, email, password string) (*model.User, error) {
	var out struct {
		Token string      `json:"token"`
		User  *model.User `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/login", nil,
		map[string]string{"email": email, "password": password}, &out)
	if err != nil {
		return nil, err
	}
	c.http.SetAuthToken(out.Token)
	return out.User, nil
}

// Token returns the bearer token in use, if any.
func (c *Client) Token() string {
	return c.http.Token
}

// Dashboard fetches the inventory overview.
func (c *Client) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	var s model.DashboardStats
	if err := c.do(ctx, http.MethodGet, "/api/dashboard", nil, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListDevices returns devices matching query. An empty query lists all.
func (c *Client) ListDevices(ctx context.Context, query string) ([]model.Device, error) {
	params := url.Values{}
	if query != "" {
		params.Set("q", query)
	}
	var devices []model.Device
	if err := c.do(ctx, http.MethodGet, "/api/devices", params, nil, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// RecordTransaction records a stock movement. An empty ID is filled in.
func (c *Client) RecordTransaction(ctx context.Context, in model.TransactionInput) (*model.Transaction, error) {
	if in.ID == "" {
		in.ID = NewTransactionID()
	}
	var tx model.Transaction
	if err := c.do(ctx, http.MethodPost, "/api/transactions", nil, in, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// ListTransactions returns transactions newest first. deviceID may be empty.
func (c *Client) ListTransactions(ctx context.Context, deviceID string, limit int) ([]model.Transaction, error) {
	params := url.Values{}
	if deviceID != "" {
		params.Set("device_id", deviceID)
	}
	if limit > 0 {
		params.Set("limit", fmt.Sprint(limit))
	}
	var txs []model.Transaction
	if err := c.do(ctx, http.MethodGet, "/api/transactions", params, nil, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// CanDeleteCategory reports whether the category has no devices.
func (c *Client) CanDeleteCategory(ctx context.Context, id int64) (bool, error) {
	var out struct {
		Deletable bool `json:"deletable"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/categories/%d/deletable", id), nil, nil, &out); err != nil {
		return false, err
	}
	return out.Deletable, nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, result any) error {
	apiErr := new(errorPayload)
	req := c.http.R().
		SetContext(ctx).
		SetError(apiErr)
	if params != nil {
		req.SetQueryParamsFromValues(params)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		msg := apiErr.Error
		if msg == "" {
			msg = strings.TrimSpace(resp.String())
		}
		return &APIError{Status: resp.StatusCode(), Code: apiErr.Code, Message: msg}
	}
	return nil
}
