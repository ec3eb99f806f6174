package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/telemart/storefront-gateway/pkg/errors"
)

const (
	initDataHeader             = "X-Telegram-Init-Data"
	defaultPerPage             = 20
	errorBodyReadLimit   int64 = 2048
	defaultClientTimeout       = 10 * time.Second
)

var errBaseURLRequired = errors.New("upstream base url is required")

type launchDataKey struct{}

// WithLaunchData stores the raw Telegram launch string on the context; the
// client re-derives the auth header from it on every call.
func WithLaunchData(ctx context.Context, raw string) context.Context {
	return context.WithValue(ctx, launchDataKey{}, raw)
}

// LaunchDataFromContext returns the raw launch string, if any.
func LaunchDataFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	raw, _ := ctx.Value(launchDataKey{}).(string)
	return raw
}

// Client wraps the commerce REST backend consumed by the storefront.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds the storefront backend client.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: defaultClientTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// ProductQuery mirrors the catalog listing filters the backend accepts.
type ProductQuery struct {
	Page     int
	PerPage  int
	OrderBy  string
	Order    string
	Category string
	Search   string
	OnSale   bool
	Featured bool
	Tags     string
	Include  string
}

func (q ProductQuery) values() url.Values {
	values := url.Values{}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		values.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if q.OrderBy != "" {
		values.Set("orderby", q.OrderBy)
	}
	if q.Order != "" {
		values.Set("order", q.Order)
	}
	if q.Category != "" {
		values.Set("category", q.Category)
	}
	if q.Search != "" {
		values.Set("search", q.Search)
	}
	if q.OnSale {
		values.Set("on_sale", "true")
	}
	if q.Featured {
		values.Set("featured", "true")
	}
	if q.Tags != "" {
		values.Set("tags", q.Tags)
	}
	if q.Include != "" {
		values.Set("include", q.Include)
	}
	return values
}

// GetProducts lists a catalog page and derives the total page count.
func (c *Client) GetProducts(ctx context.Context, query ProductQuery) (*ProductPage, error) {
	var resp struct {
		Count    int       `json:"count"`
		Next     *string   `json:"next"`
		Previous *string   `json:"previous"`
		Results  []Product `json:"results"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/products/", query.values(), nil, &resp); err != nil {
		return nil, err
	}

	perPage := query.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	totalPages := (resp.Count + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	return &ProductPage{Products: resp.Results, TotalPages: totalPages}, nil
}

// GetProductByID fetches one product.
func (c *Client) GetProductByID(ctx context.Context, id int) (*Product, error) {
	var product Product
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", id), nil, nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// GetCategories lists categories, optionally filtered by parent.
func (c *Client) GetCategories(ctx context.Context, parent *int, perPage int) ([]Category, error) {
	values := url.Values{}
	if parent != nil {
		values.Set("parent", strconv.Itoa(*parent))
	}
	if perPage > 0 {
		values.Set("per_page", strconv.Itoa(perPage))
	}
	var categories []Category
	if err := c.do(ctx, http.MethodGet, "/api/v1/categories/", values, nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// HasSubcategories reports whether a category has at least one child. Lookup
// failures degrade to false so a broken filter never blocks browsing.
func (c *Client) HasSubcategories(ctx context.Context, parentID int) bool {
	children, err := c.GetCategories(ctx, &parentID, 1)
	if err != nil {
		return false
	}
	return len(children) > 0
}

// GetTags lists product tags.
func (c *Client) GetTags(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	if err := c.do(ctx, http.MethodGet, "/api/v1/tags/", nil, nil, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// GetMe fetches the authenticated customer profile.
func (c *Client) GetMe(ctx context.Context) (*Customer, error) {
	var customer Customer
	if err := c.do(ctx, http.MethodGet, "/api/v1/customers/me", nil, nil, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// UpdateMe applies a partial profile update.
func (c *Client) UpdateMe(ctx context.Context, update CustomerUpdate) (*Customer, error) {
	var customer Customer
	if err := c.do(ctx, http.MethodPut, "/api/v1/customers/me", nil, update, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// GetCart fetches the authoritative server-held cart.
func (c *Client) GetCart(ctx context.Context) (*ServerCart, error) {
	var cart ServerCart
	if err := c.do(ctx, http.MethodGet, "/api/v1/cart/", nil, nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// PutCart replaces the server-held cart with the provided item list. The call
// is an idempotent full replace, never a delta.
func (c *Client) PutCart(ctx context.Context, items []LineItem) error {
	if items == nil {
		items = []LineItem{}
	}
	return c.do(ctx, http.MethodPost, "/api/v1/cart/", nil, items, nil)
}

// GetMyOrders lists the customer's orders.
func (c *Client) GetMyOrders(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := c.do(ctx, http.MethodGet, "/api/v1/orders/my", nil, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrderByID fetches one of the customer's orders.
func (c *Client) GetOrderByID(ctx context.Context, id int) (*Order, error) {
	var order Order
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", id), nil, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CreateOrder submits a new order.
func (c *Client) CreateOrder(ctx context.Context, payload OrderPayload) (*Order, error) {
	var order Order
	if err := c.do(ctx, http.MethodPost, "/api/v1/orders/", nil, payload, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ValidateCoupon checks a coupon code. Backend rejections (unknown or
// malformed codes) are mapped to {valid:false} with the backend's message;
// only transport-level failures surface as errors.
func (c *Client) ValidateCoupon(ctx context.Context, code string) (*CouponValidation, error) {
	body := map[string]string{"code": code}
	var result CouponValidation
	err := c.do(ctx, http.MethodPost, "/api/v1/coupons/validate", nil, body, &result)
	if err != nil {
		typed := pkgerrors.As(err)
		if typed != nil {
			switch typed.Code() {
			case pkgerrors.CodeUpstream, pkgerrors.CodeNotFound, pkgerrors.CodeValidation:
				message := typed.Message()
				if message == "" {
					message = "coupon not found or no longer valid"
				}
				return &CouponValidation{Valid: false, Code: code, Message: message}, nil
			}
		}
		return nil, err
	}
	result.Code = code
	return &result, nil
}

// RegisterUser provisions a customer account for the Telegram user.
func (c *Client) RegisterUser(ctx context.Context) (*Customer, error) {
	var customer Customer
	if err := c.do(ctx, http.MethodPost, "/api/v1/users/register", nil, struct{}{}, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, dest any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "upstream client not configured")
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build upstream request")
	}
	req.Header.Set("Content-Type", "application/json")
	if launch := LaunchDataFromContext(ctx); launch != "" {
		req.Header.Set(initDataHeader, launch)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute upstream request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.errorFromResponse(resp)
	}

	if dest == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, errorBodyReadLimit))
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "decode upstream response")
	}
	return nil
}

// errorFromResponse prefers the backend's own message when it sends one.
func (c *Client) errorFromResponse(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))

	message := ""
	var payload struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Detail != "" {
			message = payload.Detail
		} else if payload.Message != "" {
			message = payload.Message
		}
	}
	if message == "" {
		message = fmt.Sprintf("upstream returned status %d", resp.StatusCode)
	}

	code := pkgerrors.CodeUpstream
	if resp.StatusCode == http.StatusNotFound {
		code = pkgerrors.CodeNotFound
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		code = pkgerrors.CodeUnauthorized
	}
	return pkgerrors.Wrap(code, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))), message)
}
