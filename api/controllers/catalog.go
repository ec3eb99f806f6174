package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/telemart/storefront-gateway/api/middleware"
	"github.com/telemart/storefront-gateway/api/responses"
	"github.com/telemart/storefront-gateway/api/validators"
	"github.com/telemart/storefront-gateway/internal/upstream"
	pkgerrors "github.com/telemart/storefront-gateway/pkg/errors"
	"github.com/telemart/storefront-gateway/pkg/logger"
)

// Catalog is the slice of the upstream client the browse views use.
type Catalog interface {
	GetProducts(ctx context.Context, query upstream.ProductQuery) (*upstream.ProductPage, error)
	GetProductByID(ctx context.Context, id int) (*upstream.Product, error)
	GetCategories(ctx context.Context, parent *int, perPage int) ([]upstream.Category, error)
	HasSubcategories(ctx context.Context, parentID int) bool
	GetTags(ctx context.Context) ([]upstream.Tag, error)
}

// ListProducts proxies catalog listing with search/filter/pagination params.
func ListProducts(catalog Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParseQueryInt(r, "page", 1, 1, 100000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		perPage, err := validators.ParseQueryInt(r, "per_page", 20, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		q := r.URL.Query()
		query := upstream.ProductQuery{
			Page:     page,
			PerPage:  perPage,
			Search:   strings.TrimSpace(q.Get("search")),
			Category: strings.TrimSpace(q.Get("category")),
			Tags:     strings.TrimSpace(q.Get("tags")),
			OrderBy:  strings.TrimSpace(q.Get("orderby")),
			Order:    strings.TrimSpace(q.Get("order")),
			OnSale:   q.Get("on_sale") == "true",
			Featured: q.Get("featured") == "true",
		}

		result, err := catalog.GetProducts(launched(r), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// GetProduct returns a single product by id.
func GetProduct(catalog Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil || id <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
			return
		}

		product, err := catalog.GetProductByID(launched(r), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

type categoryView struct {
	upstream.Category
	HasChildren bool `json:"has_children"`
}

// ListCategories lists categories, optionally under a parent, annotating
// each with whether it can be drilled into.
func ListCategories(catalog Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parent, err := validators.ParseOptionalQueryInt(r, "parent")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		perPage, err := validators.ParseQueryInt(r, "per_page", 100, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := launched(r)
		categories, err := catalog.GetCategories(ctx, parent, perPage)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]categoryView, 0, len(categories))
		for _, category := range categories {
			views = append(views, categoryView{
				Category:    category,
				HasChildren: catalog.HasSubcategories(ctx, category.ID),
			})
		}
		responses.WriteSuccess(w, views)
	}
}

// ListTags lists product tags.
func ListTags(catalog Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tags, err := catalog.GetTags(launched(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tags)
	}
}

// launched returns the request context with the raw launch string attached
// for upstream auth header derivation.
func launched(r *http.Request) context.Context {
	return upstream.WithLaunchData(r.Context(), middleware.LaunchFromContext(r.Context()))
}
