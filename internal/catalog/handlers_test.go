package catalog_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/shopfront/internal/catalog"
	"github.com/noah-isme/shopfront/internal/store"
)

type fakeCatalogQuerier struct {
	categories    []store.Category
	products      []store.Product
	listCalls     int
	categoryCalls int
}

func (f *fakeCatalogQuerier) ListCategories(context.Context) ([]store.Category, error) {
	return f.categories, nil
}

func (f *fakeCatalogQuerier) GetCategory(_ context.Context, id uuid.UUID) (store.Category, error) {
	f.categoryCalls++
	for _, c := range f.categories {
		if c.ID == id {
			return c, nil
		}
	}
	return store.Category{}, pgx.ErrNoRows
}

func (f *fakeCatalogQuerier) CreateCategory(_ context.Context, name, slug string, parentID *uuid.UUID) (store.Category, error) {
	c := store.Category{ID: uuid.New(), Name: name, Slug: slug, ParentID: parentID}
	f.categories = append(f.categories, c)
	return c, nil
}

func (f *fakeCatalogQuerier) UpdateCategory(_ context.Context, c store.Category) (store.Category, error) {
	for i, existing := range f.categories {
		if existing.ID == c.ID {
			f.categories[i] = c
			return c, nil
		}
	}
	return store.Category{}, pgx.ErrNoRows
}

func (f *fakeCatalogQuerier) DeleteCategory(_ context.Context, id uuid.UUID) (bool, error) {
	for i, c := range f.categories {
		if c.ID == id {
			f.categories = append(f.categories[:i], f.categories[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCatalogQuerier) ListProducts(context.Context) ([]store.Product, error) {
	f.listCalls++
	return f.products, nil
}

func (f *fakeCatalogQuerier) GetProduct(_ context.Context, id uuid.UUID) (store.Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return store.Product{}, pgx.ErrNoRows
}

func (f *fakeCatalogQuerier) CreateProduct(_ context.Context, p store.Product) (store.Product, error) {
	p.ID = uuid.New()
	f.products = append(f.products, p)
	return p, nil
}

func (f *fakeCatalogQuerier) UpdateProduct(_ context.Context, p store.Product) (store.Product, error) {
	for i, existing := range f.products {
		if existing.ID == p.ID {
			f.products[i] = p
			return p, nil
		}
	}
	return store.Product{}, pgx.ErrNoRows
}

func (f *fakeCatalogQuerier) DeleteProduct(_ context.Context, id uuid.UUID) (bool, error) {
	for i, p := range f.products {
		if p.ID == id {
			f.products = append(f.products[:i], f.products[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func newCatalogHandler(t *testing.T) (*catalog.Handler, *fakeCatalogQuerier) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	q := &fakeCatalogQuerier{}
	return &catalog.Handler{
		Q:     q,
		Cache: &catalog.Cache{Client: client, TTL: time.Minute},
		Log:   zerolog.Nop(),
	}, q
}

func sampleProduct() store.Product {
	length, width, height, weight := 30.0, 20.0, 15.0, 2.0
	return store.Product{
		ID:           uuid.New(),
		Name:         "Trail Pack 30L",
		SKU:          "PACK-30",
		Price:        7999,
		Images:       []string{"pack.jpg"},
		Stock:        12,
		Length:       &length,
		Width:        &width,
		Height:       &height,
		ActualWeight: &weight,
		Status:       "active",
	}
}

func get(t *testing.T, handler http.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func withID(req *http.Request, id uuid.UUID) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestListProductsServesFromCache(t *testing.T) {
	t.Parallel()

	h, q := newCatalogHandler(t)
	q.products = []store.Product{sampleProduct()}

	first := get(t, h.ListProducts, "/api/products")
	require.Equal(t, http.StatusOK, first.Code)
	second := get(t, h.ListProducts, "/api/products")
	require.Equal(t, http.StatusOK, second.Code)
	require.Equal(t, 1, q.listCalls)
	require.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestUpdateProductInvalidatesCache(t *testing.T) {
	t.Parallel()

	h, q := newCatalogHandler(t)
	p := sampleProduct()
	q.products = []store.Product{p}

	require.Equal(t, http.StatusOK, get(t, h.ListProducts, "/api/products").Code)
	require.Equal(t, 1, q.listCalls)

	raw, err := json.Marshal(map[string]any{"price": "89.99"})
	require.NoError(t, err)
	req := withID(httptest.NewRequest(http.MethodPut, "/api/admin/products/"+p.ID.String(), bytes.NewReader(raw)), p.ID)
	rec := httptest.NewRecorder()
	h.UpdateProduct(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	refreshed := get(t, h.ListProducts, "/api/products")
	require.Equal(t, http.StatusOK, refreshed.Code)
	require.Equal(t, 2, q.listCalls)
	require.Contains(t, refreshed.Body.String(), "89.99")
}

func TestGetProductNotFound(t *testing.T) {
	t.Parallel()

	h, _ := newCatalogHandler(t)
	req := withID(httptest.NewRequest(http.MethodGet, "/api/products/"+uuid.New().String(), nil), uuid.New())
	rec := httptest.NewRecorder()
	h.GetProduct(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateProductRendersMoneyAndDimensions(t *testing.T) {
	t.Parallel()

	h, _ := newCatalogHandler(t)
	raw, err := json.Marshal(map[string]any{
		"name":         "Trail Pack 30L",
		"sku":          "PACK-30",
		"price":        "79.99",
		"length":       30,
		"width":        "20",
		"height":       15,
		"actualWeight": 2,
	})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/products", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	h.CreateProduct(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data struct {
			Price  string   `json:"price"`
			Length *float64 `json:"length"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "79.99", resp.Data.Price)
	require.NotNil(t, resp.Data.Length)
	require.InDelta(t, 30, *resp.Data.Length, 1e-9)
}

func TestCreateProductRejectsMissingPrice(t *testing.T) {
	t.Parallel()

	h, _ := newCatalogHandler(t)
	raw, err := json.Marshal(map[string]any{"name": "Pack", "sku": "PACK-31"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/products", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	h.CreateProduct(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCategoryServesFromCache(t *testing.T) {
	t.Parallel()

	h, q := newCatalogHandler(t)
	c := store.Category{ID: uuid.New(), Name: "Outdoor", Slug: "outdoor"}
	q.categories = []store.Category{c}

	for range 2 {
		rec := httptest.NewRecorder()
		h.GetCategory(rec, withID(httptest.NewRequest(http.MethodGet, "/api/categories/"+c.ID.String(), nil), c.ID))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "outdoor")
	}
	require.Equal(t, 1, q.categoryCalls)
}

func TestGetCategoryNotFound(t *testing.T) {
	t.Parallel()

	h, _ := newCatalogHandler(t)
	rec := httptest.NewRecorder()
	h.GetCategory(rec, withID(httptest.NewRequest(http.MethodGet, "/api/categories/"+uuid.New().String(), nil), uuid.New()))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestUpdateCategoryInvalidatesItsCacheEntry(t *testing.T) {
	t.Parallel()

	h, q := newCatalogHandler(t)
	c := store.Category{ID: uuid.New(), Name: "Outdoor", Slug: "outdoor"}
	q.categories = []store.Category{c}

	warm := httptest.NewRecorder()
	h.GetCategory(warm, withID(httptest.NewRequest(http.MethodGet, "/api/categories/"+c.ID.String(), nil), c.ID))
	require.Equal(t, http.StatusOK, warm.Code)

	raw, err := json.Marshal(map[string]any{"name": "Outdoor Gear"})
	require.NoError(t, err)
	upd := httptest.NewRecorder()
	h.UpdateCategory(upd, withID(httptest.NewRequest(http.MethodPut, "/api/admin/categories/"+c.ID.String(), bytes.NewReader(raw)), c.ID))
	require.Equal(t, http.StatusOK, upd.Code)

	refreshed := httptest.NewRecorder()
	h.GetCategory(refreshed, withID(httptest.NewRequest(http.MethodGet, "/api/categories/"+c.ID.String(), nil), c.ID))
	require.Equal(t, http.StatusOK, refreshed.Code)
	require.Contains(t, refreshed.Body.String(), "Outdoor Gear")
}

func TestCategoryCRUD(t *testing.T) {
	t.Parallel()

	h, q := newCatalogHandler(t)
	raw, err := json.Marshal(map[string]any{"name": "Outdoor", "slug": "outdoor"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/categories", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	h.CreateCategory(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, q.categories, 1)

	list := get(t, h.ListCategories, "/api/categories")
	require.Equal(t, http.StatusOK, list.Code)
	require.Contains(t, list.Body.String(), "outdoor")

	id := q.categories[0].ID
	del := httptest.NewRecorder()
	h.DeleteCategory(del, withID(httptest.NewRequest(http.MethodDelete, "/api/admin/categories/"+id.String(), nil), id))
	require.Equal(t, http.StatusNoContent, del.Code)
	require.Empty(t, q.categories)
}
