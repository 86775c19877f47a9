package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultAPIVersion = "2024-10"
	maxErrorBodyBytes = 4 << 10
	defaultOrderLimit = 250
)

var ErrMissingCredentials = errors.New("shopify shop and access token are required")

// APIError is returned for non-2xx responses from Shopify.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("shopify API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("shopify API returned status %d: %s", e.StatusCode, e.Message)
}

// Client calls the Admin REST API of a single shop.
type Client struct {
	shop        string
	accessToken string
	apiVersion  string
	httpClient  *http.Client
	logger      *slog.Logger
}

func NewClient(shop, accessToken, apiVersion string, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	shop = NormalizeShopDomain(shop)
	accessToken = strings.TrimSpace(accessToken)
	if shop == "" || accessToken == "" {
		return nil, ErrMissingCredentials
	}
	if strings.TrimSpace(apiVersion) == "" {
		apiVersion = DefaultAPIVersion
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		shop:        shop,
		accessToken: accessToken,
		apiVersion:  apiVersion,
		httpClient:  httpClient,
		logger:      logger,
	}, nil
}

// Shop returns the myshopify.com domain the client is bound to.
func (c *Client) Shop() string {
	return c.shop
}

type ListOrdersOptions struct {
	Status string
	Limit  int
}

// ListOrders returns the first page of orders matching opts.
func (c *Client) ListOrders(ctx context.Context, opts ListOrdersOptions) ([]Order, error) {
	status := strings.TrimSpace(opts.Status)
	if status == "" {
		status = "open"
	}
	limit := opts.Limit
	if limit <= 0 || limit > defaultOrderLimit {
		limit = defaultOrderLimit
	}

	query := url.Values{}
	query.Set("status", status)
	query.Set("limit", strconv.Itoa(limit))

	var payload ordersResponse
	if err := c.do(ctx, http.MethodGet, "orders.json", query, nil, &payload); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return payload.Orders, nil
}

// GetOrderTags returns the comma-separated tag string of an order.
func (c *Client) GetOrderTags(ctx context.Context, orderID int64) (string, error) {
	query := url.Values{}
	query.Set("fields", "id,tags")

	var payload orderResponse
	if err := c.do(ctx, http.MethodGet, orderPath(orderID), query, nil, &payload); err != nil {
		return "", fmt.Errorf("failed to get order %d: %w", orderID, err)
	}

	return payload.Order.Tags, nil
}

// UpdateOrderTags replaces the tag string of an order.
func (c *Client) UpdateOrderTags(ctx context.Context, orderID int64, tags string) error {
	var body orderTagsUpdate
	body.Order.ID = orderID
	body.Order.Tags = tags

	if err := c.do(ctx, http.MethodPut, orderPath(orderID), nil, body, nil); err != nil {
		return fmt.Errorf("failed to update tags for order %d: %w", orderID, err)
	}

	return nil
}

func orderPath(orderID int64) string {
	return "orders/" + strconv.FormatInt(orderID, 10) + ".json"
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := url.URL{
		Scheme: "https",
		Host:   c.shop,
		Path:   "/admin/api/" + c.apiVersion + "/" + strings.TrimLeft(path, "/"),
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close shopify response body", "error", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		apiErr.Message = fmt.Sprintf("failed to read response body: %v", err)
		return apiErr
	}

	var payload struct {
		Errors           json.RawMessage `json:"errors"`
		Error            string          `json:"error"`
		ErrorDescription string          `json:"error_description"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		switch {
		case payload.ErrorDescription != "":
			apiErr.Message = payload.ErrorDescription
			return apiErr
		case payload.Error != "":
			apiErr.Message = payload.Error
			return apiErr
		case len(payload.Errors) > 0:
			var text string
			if json.Unmarshal(payload.Errors, &text) == nil {
				apiErr.Message = text
			} else {
				apiErr.Message = string(payload.Errors)
			}
			return apiErr
		}
	}

	apiErr.Message = strings.TrimSpace(string(raw))
	return apiErr
}
