package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/telemart/storefront-gateway/internal/upstream"
	"github.com/telemart/storefront-gateway/pkg/logger"
)

type testCatalog struct {
	productsFn   func(ctx context.Context, query upstream.ProductQuery) (*upstream.ProductPage, error)
	productFn    func(ctx context.Context, id int) (*upstream.Product, error)
	categoriesFn func(ctx context.Context, parent *int, perPage int) ([]upstream.Category, error)
	childrenFn   func(ctx context.Context, parentID int) bool
	tagsFn       func(ctx context.Context) ([]upstream.Tag, error)
}

func (c *testCatalog) GetProducts(ctx context.Context, query upstream.ProductQuery) (*upstream.ProductPage, error) {
	if c.productsFn != nil {
		return c.productsFn(ctx, query)
	}
	return &upstream.ProductPage{TotalPages: 1}, nil
}

func (c *testCatalog) GetProductByID(ctx context.Context, id int) (*upstream.Product, error) {
	if c.productFn != nil {
		return c.productFn(ctx, id)
	}
	return &upstream.Product{ID: id}, nil
}

func (c *testCatalog) GetCategories(ctx context.Context, parent *int, perPage int) ([]upstream.Category, error) {
	if c.categoriesFn != nil {
		return c.categoriesFn(ctx, parent, perPage)
	}
	return nil, nil
}

func (c *testCatalog) HasSubcategories(ctx context.Context, parentID int) bool {
	if c.childrenFn != nil {
		return c.childrenFn(ctx, parentID)
	}
	return false
}

func (c *testCatalog) GetTags(ctx context.Context) ([]upstream.Tag, error) {
	if c.tagsFn != nil {
		return c.tagsFn(ctx)
	}
	return nil, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func addRouteParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestListProductsForwardsQuery(t *testing.T) {
	var captured upstream.ProductQuery
	catalog := &testCatalog{
		productsFn: func(ctx context.Context, query upstream.ProductQuery) (*upstream.ProductPage, error) {
			captured = query
			return &upstream.ProductPage{Products: []upstream.Product{{ID: 1}}, TotalPages: 3}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?page=2&per_page=10&search=tea&category=5&on_sale=true", nil)
	resp := httptest.NewRecorder()
	ListProducts(catalog, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if captured.Page != 2 || captured.PerPage != 10 || captured.Search != "tea" || captured.Category != "5" || !captured.OnSale {
		t.Fatalf("unexpected query %+v", captured)
	}

	var envelope struct {
		Data upstream.ProductPage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.TotalPages != 3 {
		t.Fatalf("expected total_pages 3, got %d", envelope.Data.TotalPages)
	}
}

func TestListProductsRejectsBadPage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?page=zero", nil)
	resp := httptest.NewRecorder()
	ListProducts(&testCatalog{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestGetProductInvalidID(t *testing.T) {
	req := addRouteParam(httptest.NewRequest(http.MethodGet, "/api/v1/products/abc", nil), "id", "abc")
	resp := httptest.NewRecorder()
	GetProduct(&testCatalog{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestListCategoriesAnnotatesChildren(t *testing.T) {
	catalog := &testCatalog{
		categoriesFn: func(ctx context.Context, parent *int, perPage int) ([]upstream.Category, error) {
			if parent != nil {
				t.Fatalf("expected nil parent, got %d", *parent)
			}
			return []upstream.Category{{ID: 1, Name: "Tea"}, {ID: 2, Name: "Mugs"}}, nil
		},
		childrenFn: func(ctx context.Context, parentID int) bool {
			return parentID == 1
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil)
	resp := httptest.NewRecorder()
	ListCategories(catalog, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data []struct {
			ID          int  `json:"id"`
			HasChildren bool `json:"has_children"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(envelope.Data) != 2 || !envelope.Data[0].HasChildren || envelope.Data[1].HasChildren {
		t.Fatalf("unexpected annotation %+v", envelope.Data)
	}
}
