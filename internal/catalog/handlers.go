package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/noah-isme/shopfront/internal/common"
	"github.com/noah-isme/shopfront/internal/store"
)

// Querier captures the catalog store methods.
type Querier interface {
	ListCategories(ctx context.Context) ([]store.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (store.Category, error)
	CreateCategory(ctx context.Context, name, slug string, parentID *uuid.UUID) (store.Category, error)
	UpdateCategory(ctx context.Context, c store.Category) (store.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) (bool, error)
	ListProducts(ctx context.Context) ([]store.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (store.Product, error)
	CreateProduct(ctx context.Context, p store.Product) (store.Product, error)
	UpdateProduct(ctx context.Context, p store.Product) (store.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) (bool, error)
}

// Handler serves the public catalog reads and the administrative writes.
// Reads go through the cache; writes invalidate it.
type Handler struct {
	Q     Querier
	Cache *Cache
	Log   zerolog.Logger
}

type categoryPayload struct {
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	ParentID *string `json:"parentId"`
}

type productPayload struct {
	Name          string            `json:"name"`
	Description   *string           `json:"description"`
	SKU           string            `json:"sku"`
	Price         common.FlexMoney  `json:"price"`
	OriginalPrice common.FlexMoney  `json:"originalPrice"`
	Images        []string          `json:"images"`
	CategoryID    *string           `json:"categoryId"`
	Stock         *int32            `json:"stock"`
	Length        common.FlexNumber `json:"length"`
	Width         common.FlexNumber `json:"width"`
	Height        common.FlexNumber `json:"height"`
	ActualWeight  common.FlexNumber `json:"actualWeight"`
	Status        string            `json:"status"`
}

type categoryView struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	Slug     string     `json:"slug"`
	ParentID *uuid.UUID `json:"parentId"`
}

type productView struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Description   *string    `json:"description"`
	SKU           string     `json:"sku"`
	Price         string     `json:"price"`
	OriginalPrice *string    `json:"originalPrice"`
	Images        []string   `json:"images"`
	CategoryID    *uuid.UUID `json:"categoryId"`
	Stock         int32      `json:"stock"`
	Length        *float64   `json:"length"`
	Width         *float64   `json:"width"`
	Height        *float64   `json:"height"`
	ActualWeight  *float64   `json:"actualWeight"`
	Status        string     `json:"status"`
}

func toCategoryView(c store.Category) categoryView {
	return categoryView{ID: c.ID, Name: c.Name, Slug: c.Slug, ParentID: c.ParentID}
}

func toProductView(p store.Product) productView {
	var original *string
	if p.OriginalPrice != nil {
		s := common.FormatMoney(*p.OriginalPrice)
		original = &s
	}
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return productView{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		SKU:           p.SKU,
		Price:         common.FormatMoney(p.Price),
		OriginalPrice: original,
		Images:        images,
		CategoryID:    p.CategoryID,
		Stock:         p.Stock,
		Length:        p.Length,
		Width:         p.Width,
		Height:        p.Height,
		ActualWeight:  p.ActualWeight,
		Status:        p.Status,
	}
}

// ListCategories returns all categories, served from cache when warm.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	var cached []categoryView
	if hit, err := h.Cache.GetJSON(r.Context(), categoriesKey, &cached); err == nil && hit {
		common.JSON(w, http.StatusOK, map[string]any{"data": cached})
		return
	}
	categories, err := h.Q.ListCategories(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list categories", nil)
		return
	}
	out := make([]categoryView, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryView(c))
	}
	if err := h.Cache.SetJSON(r.Context(), categoriesKey, out); err != nil {
		h.Log.Warn().Err(err).Msg("cache categories")
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// GetCategory returns one category, served from its own cache key when warm.
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	key := categoryKey(id.String())
	var cached categoryView
	if hit, err := h.Cache.GetJSON(r.Context(), key, &cached); err == nil && hit {
		common.JSON(w, http.StatusOK, map[string]any{"data": cached})
		return
	}
	c, err := h.Q.GetCategory(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "category not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load category", nil)
		return
	}
	view := toCategoryView(c)
	if err := h.Cache.SetJSON(r.Context(), key, view); err != nil {
		h.Log.Warn().Err(err).Msg("cache category")
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// ListProducts returns all products, served from cache when warm.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	var cached []productView
	if hit, err := h.Cache.GetJSON(r.Context(), productsKey, &cached); err == nil && hit {
		common.JSON(w, http.StatusOK, map[string]any{"data": cached})
		return
	}
	products, err := h.Q.ListProducts(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list products", nil)
		return
	}
	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, toProductView(p))
	}
	if err := h.Cache.SetJSON(r.Context(), productsKey, out); err != nil {
		h.Log.Warn().Err(err).Msg("cache products")
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// GetProduct returns one product, served from its own cache key when warm.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	key := productKey(id.String())
	var cached productView
	if hit, err := h.Cache.GetJSON(r.Context(), key, &cached); err == nil && hit {
		common.JSON(w, http.StatusOK, map[string]any{"data": cached})
		return
	}
	p, err := h.Q.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load product", nil)
		return
	}
	view := toProductView(p)
	if err := h.Cache.SetJSON(r.Context(), key, view); err != nil {
		h.Log.Warn().Err(err).Msg("cache product")
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// CreateCategory inserts a category and drops the category cache.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var payload categoryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	name := strings.TrimSpace(payload.Name)
	slug := strings.TrimSpace(payload.Slug)
	if name == "" || slug == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "name and slug are required", nil)
		return
	}
	parentID, ok := optionalUUID(w, payload.ParentID, "parentId")
	if !ok {
		return
	}
	c, err := h.Q.CreateCategory(r.Context(), name, slug, parentID)
	if err != nil {
		if isUniqueViolation(err) {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "slug already exists", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create category", nil)
		return
	}
	h.invalidate(r.Context(), categoriesKey)
	common.JSON(w, http.StatusCreated, map[string]any{"data": toCategoryView(c)})
}

// UpdateCategory replaces the mutable fields of a category.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	current, err := h.Q.GetCategory(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "category not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load category", nil)
		return
	}
	var payload categoryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if name := strings.TrimSpace(payload.Name); name != "" {
		current.Name = name
	}
	if slug := strings.TrimSpace(payload.Slug); slug != "" {
		current.Slug = slug
	}
	if payload.ParentID != nil {
		parentID, ok := optionalUUID(w, payload.ParentID, "parentId")
		if !ok {
			return
		}
		current.ParentID = parentID
	}
	c, err := h.Q.UpdateCategory(r.Context(), current)
	if err != nil {
		if isUniqueViolation(err) {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "slug already exists", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update category", nil)
		return
	}
	h.invalidate(r.Context(), categoriesKey, categoryKey(id.String()))
	common.JSON(w, http.StatusOK, map[string]any{"data": toCategoryView(c)})
}

// DeleteCategory removes a category.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	deleted, err := h.Q.DeleteCategory(r.Context(), id)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to delete category", nil)
		return
	}
	if !deleted {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "category not found", nil)
		return
	}
	h.invalidate(r.Context(), categoriesKey, categoryKey(id.String()))
	w.WriteHeader(http.StatusNoContent)
}

// CreateProduct inserts a product and drops the product caches.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := h.decodeProduct(w, r, store.Product{Status: "active"})
	if !ok {
		return
	}
	created, err := h.Q.CreateProduct(r.Context(), p)
	if err != nil {
		if isUniqueViolation(err) {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "sku already exists", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create product", nil)
		return
	}
	h.invalidate(r.Context(), productsKey)
	common.JSON(w, http.StatusCreated, map[string]any{"data": toProductView(created)})
}

// UpdateProduct replaces the mutable fields of a product.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	current, err := h.Q.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load product", nil)
		return
	}
	p, ok := h.decodeProduct(w, r, current)
	if !ok {
		return
	}
	p.ID = id
	updated, err := h.Q.UpdateProduct(r.Context(), p)
	if err != nil {
		if isUniqueViolation(err) {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "sku already exists", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update product", nil)
		return
	}
	h.invalidate(r.Context(), productsKey, productKey(id.String()))
	common.JSON(w, http.StatusOK, map[string]any{"data": toProductView(updated)})
}

// DeleteProduct removes a product.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	deleted, err := h.Q.DeleteProduct(r.Context(), id)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to delete product", nil)
		return
	}
	if !deleted {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
		return
	}
	h.invalidate(r.Context(), productsKey, productKey(id.String()))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeProduct(w http.ResponseWriter, r *http.Request, base store.Product) (store.Product, bool) {
	var payload productPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return store.Product{}, false
	}
	if name := strings.TrimSpace(payload.Name); name != "" {
		base.Name = name
	}
	if sku := strings.TrimSpace(payload.SKU); sku != "" {
		base.SKU = sku
	}
	if base.Name == "" || base.SKU == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "name and sku are required", nil)
		return store.Product{}, false
	}
	if payload.Description != nil {
		base.Description = payload.Description
	}
	if payload.Price.Set {
		base.Price = payload.Price.Minor
	}
	if base.Price <= 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "price must be greater than zero", nil)
		return store.Product{}, false
	}
	if payload.OriginalPrice.Set {
		v := payload.OriginalPrice.Minor
		base.OriginalPrice = &v
	}
	if payload.Images != nil {
		base.Images = payload.Images
	}
	if payload.CategoryID != nil {
		categoryID, ok := optionalUUID(w, payload.CategoryID, "categoryId")
		if !ok {
			return store.Product{}, false
		}
		base.CategoryID = categoryID
	}
	if payload.Stock != nil {
		if *payload.Stock < 0 {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "stock cannot be negative", nil)
			return store.Product{}, false
		}
		base.Stock = *payload.Stock
	}
	for _, dim := range []struct {
		field common.FlexNumber
		dst   **float64
		name  string
	}{
		{payload.Length, &base.Length, "length"},
		{payload.Width, &base.Width, "width"},
		{payload.Height, &base.Height, "height"},
		{payload.ActualWeight, &base.ActualWeight, "actualWeight"},
	} {
		if !dim.field.Set {
			continue
		}
		if dim.field.Value <= 0 {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", dim.name+" must be greater than zero", nil)
			return store.Product{}, false
		}
		v := dim.field.Value
		*dim.dst = &v
	}
	if status := strings.TrimSpace(payload.Status); status != "" {
		base.Status = status
	}
	return base, true
}

func (h *Handler) invalidate(ctx context.Context, keys ...string) {
	if err := h.Cache.Invalidate(ctx, keys...); err != nil {
		h.Log.Warn().Err(err).Strs("keys", keys).Msg("cache invalidation")
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id", nil)
		return uuid.UUID{}, false
	}
	return id, true
}

func optionalUUID(w http.ResponseWriter, raw *string, field string) (*uuid.UUID, bool) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, true
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid "+field, nil)
		return nil, false
	}
	return &id, true
}
