package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/telemart/storefront-gateway/api/middleware"
	"github.com/telemart/storefront-gateway/internal/cart"
	"github.com/telemart/storefront-gateway/internal/notify"
	"github.com/telemart/storefront-gateway/internal/upstream"
	"github.com/telemart/storefront-gateway/pkg/telegram"
)

type testCartBackend struct {
	serverCart upstream.ServerCart
}

func (b *testCartBackend) GetCart(ctx context.Context) (*upstream.ServerCart, error) {
	return &b.serverCart, nil
}

func (b *testCartBackend) PutCart(ctx context.Context, items []upstream.LineItem) error {
	return nil
}

func newCartFixtures(t *testing.T) (*cart.Manager, *notify.Registry) {
	t.Helper()
	manager := cart.NewManager(cart.ManagerOptions{
		Backend:  &testCartBackend{},
		Debounce: time.Hour,
	})
	t.Cleanup(manager.Close)
	return manager, notify.NewRegistry(time.Minute, 3)
}

func authed(req *http.Request, userID int64) *http.Request {
	ctx := middleware.WithUser(req.Context(), telegram.User{ID: userID, FirstName: "Ivan"})
	ctx = middleware.WithLaunch(ctx, "query_id=test")
	return req.WithContext(ctx)
}

func decodeCart(t *testing.T, resp *httptest.ResponseRecorder) cartView {
	t.Helper()
	var envelope struct {
		Data cartView `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return envelope.Data
}

func TestAddCartItemRendersUpdatedCart(t *testing.T) {
	manager, toasts := newCartFixtures(t)

	body := `{"product_id":42,"quantity":2,"name":"Tea","price":"10.00","stock_status":"instock"}`
	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body)), 1)
	resp := httptest.NewRecorder()
	AddCartItem(manager, toasts, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	view := decodeCart(t, resp)
	if len(view.Items) != 1 || view.Items[0].ProductID != 42 || view.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items %+v", view.Items)
	}
	if view.Summary.Total != "20.00" {
		t.Fatalf("expected total 20.00, got %s", view.Summary.Total)
	}
	if !view.Loaded {
		t.Fatal("cart should be loaded")
	}
}

func TestAddCartItemValidatesBody(t *testing.T) {
	manager, toasts := newCartFixtures(t)

	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"quantity":1}`)), 1)
	resp := httptest.NewRecorder()
	AddCartItem(manager, toasts, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	var envelope struct {
		Error struct {
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Error.Details["product_id"] == "" {
		t.Fatalf("expected field-keyed details, got %+v", envelope.Error.Details)
	}
}

func TestAddCartItemRejectsUnparsablePriceWithoutMutating(t *testing.T) {
	manager, toasts := newCartFixtures(t)

	body := `{"product_id":42,"quantity":1,"name":"Tea","price":"free"}`
	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body)), 1)
	resp := httptest.NewRecorder()
	AddCartItem(manager, toasts, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Error struct {
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Error.Details["price"] == "" {
		t.Fatalf("expected price detail, got %+v", envelope.Error.Details)
	}

	// The bad line never reached the store; the cart still renders.
	get := authed(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil), 1)
	getResp := httptest.NewRecorder()
	GetCart(manager, toasts, testLogger())(getResp, get)
	if getResp.Code != http.StatusOK {
		t.Fatalf("cart must stay readable, got %d: %s", getResp.Code, getResp.Body.String())
	}
	if view := decodeCart(t, getResp); len(view.Items) != 0 {
		t.Fatalf("expected empty cart, got %+v", view.Items)
	}
}

func TestUpdateCartItemZeroRemovesLine(t *testing.T) {
	manager, toasts := newCartFixtures(t)

	add := authed(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items",
		strings.NewReader(`{"product_id":42,"quantity":2,"price":"10.00"}`)), 1)
	AddCartItem(manager, toasts, testLogger())(httptest.NewRecorder(), add)

	body := strings.NewReader(`{"quantity":0}`)
	req := addRouteParam(authed(httptest.NewRequest(http.MethodPut, "/api/v1/cart/items/42", body), 1), "productID", "42")
	resp := httptest.NewRecorder()
	UpdateCartItem(manager, toasts, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if view := decodeCart(t, resp); len(view.Items) != 0 {
		t.Fatalf("expected empty cart, got %+v", view.Items)
	}
}

func TestGetCartRequiresUser(t *testing.T) {
	manager, toasts := newCartFixtures(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	GetCart(manager, toasts, testLogger())(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestCartsAreIsolatedPerUser(t *testing.T) {
	manager, toasts := newCartFixtures(t)

	add := authed(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items",
		strings.NewReader(`{"product_id":42,"quantity":1,"price":"10.00"}`)), 1)
	AddCartItem(manager, toasts, testLogger())(httptest.NewRecorder(), add)

	req := authed(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil), 2)
	resp := httptest.NewRecorder()
	GetCart(manager, toasts, testLogger())(resp, req)

	if view := decodeCart(t, resp); len(view.Items) != 0 {
		t.Fatalf("user 2 must not see user 1's cart, got %+v", view.Items)
	}
}
