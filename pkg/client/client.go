// Package client provides the Agronova Go SDK for talking to the provenance
// ledger service over its JSON HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Product mirrors the catalog product representation returned by the API.
type Product struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	QuantityKg float64   `json:"quantity_kg"`
	PricePerKg float64   `json:"price_per_kg"`
	Owner      string    `json:"owner"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Block mirrors the ledger block representation returned by the API.
type Block struct {
	Index     int64           `json:"index"`
	Timestamp time.Time       `json:"timestamp"`
	Kind      string          `json:"kind"`
	ProductID string          `json:"product_id,omitempty"`
	Actor     string          `json:"actor"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	DataHash  string          `json:"data_hash"`
	PrevHash  string          `json:"prev_hash"`
	Hash      string          `json:"hash"`
}

// Actor mirrors the registered actor representation returned by the API.
type Actor struct {
	ID          string    `json:"id"`
	Role        string    `json:"role"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListingRequest is the payload for CreateListing.
type ListingRequest struct {
	ID         string  `json:"id,omitempty"`
	Name       string  `json:"name"`
	QuantityKg float64 `json:"quantity_kg"`
	PricePerKg float64 `json:"price_per_kg"`
}

// ListingResult holds the product and block committed for a listing or order.
type ListingResult struct {
	Product *Product `json:"product"`
	Block   *Block   `json:"block"`
}

// TraceResult holds the classified provenance of one product.
type TraceResult struct {
	Listing  *Block `json:"listing"`
	Transfer *Block `json:"transfer"`
}

// LedgerOverview holds the chain length and current root hash.
type LedgerOverview struct {
	Blocks int    `json:"blocks"`
	Root   string `json:"root"`
}

// VerifyResult reports the outcome of a chain verification.
type VerifyResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("agronova api: %d %s", e.StatusCode, e.Message)
}

// Client is the Agronova SDK entry point.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken attaches a pre-obtained session token to every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a Client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login authenticates the actor and stores the session token on the client.
func (c *Client) Login(ctx context.Context, actorID, password string) (*Actor, error) {
	var resp struct {
		Token string `json:"token"`
		Actor *Actor `json:"actor"`
	}
	body := map[string]string{"id": actorID, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", body, &resp); err != nil {
		return nil, err
	}
	c.token = resp.Token
	return resp.Actor, nil
}

// Token returns the current session token, empty if not logged in.
func (c *Client) Token() string { return c.token }

// RegisterActor creates a new marketplace actor.
func (c *Client) RegisterActor(ctx context.Context, id, displayName, password, role string) (*Actor, error) {
	body := map[string]string{
		"id": id, "display_name": displayName, "password": password, "role": role,
	}
	var actor Actor
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", body, &actor); err != nil {
		return nil, err
	}
	return &actor, nil
}

// CreateListing lists produce on the market. Requires a farmer token.
func (c *Client) CreateListing(ctx context.Context, req ListingRequest) (*ListingResult, error) {
	var result ListingResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/products", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// OrderProduct buys a listed product. Requires a broker token. An empty buyer
// means the broker buys for themselves.
func (c *Client) OrderProduct(ctx context.Context, productID, buyer string) (*ListingResult, error) {
	var body any
	if buyer != "" {
		body = map[string]string{"buyer": buyer}
	}
	var result ListingResult
	path := "/api/v1/products/" + url.PathEscape(productID) + "/order"
	if err := c.do(ctx, http.MethodPost, path, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListProducts returns catalogued products, optionally filtered by status.
func (c *Client) ListProducts(ctx context.Context, status string) ([]*Product, error) {
	path := "/api/v1/products"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var resp struct {
		Products []*Product `json:"products"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

// Trace returns the classified provenance of a product.
func (c *Client) Trace(ctx context.Context, productID string) (*TraceResult, error) {
	var result TraceResult
	path := "/api/v1/trace/" + url.PathEscape(productID)
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Explorer returns the raw chain. Pass from/to as -1 for the defaults.
func (c *Client) Explorer(ctx context.Context, from, to int64) ([]*Block, error) {
	path := "/api/v1/explorer"
	q := url.Values{}
	if from >= 0 {
		q.Set("from", fmt.Sprint(from))
	}
	if to >= 0 {
		q.Set("to", fmt.Sprint(to))
	}
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var resp struct {
		Blocks []*Block `json:"blocks"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Blocks, nil
}

// LedgerOverview returns the chain length and root hash.
func (c *Client) LedgerOverview(ctx context.Context) (*LedgerOverview, error) {
	var overview LedgerOverview
	if err := c.do(ctx, http.MethodGet, "/api/v1/ledger", nil, &overview); err != nil {
		return nil, err
	}
	return &overview, nil
}

// VerifyLedger walks the full chain server-side and reports integrity.
func (c *Client) VerifyLedger(ctx context.Context) (*VerifyResult, error) {
	var result VerifyResult
	if err := c.do(ctx, http.MethodGet, "/api/v1/ledger/verify", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ResetLedger truncates the chain to a fresh genesis. Requires an admin token.
func (c *Client) ResetLedger(ctx context.Context) (*Block, error) {
	var resp struct {
		Genesis *Block `json:"genesis"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/ledger/reset", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Genesis, nil
}

// do performs one JSON request/response round trip.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &apiErr)
		if apiErr.Error == "" {
			apiErr.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
