package order

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/shopfront/internal/common"
	"github.com/noah-isme/shopfront/internal/store"
)

// Querier captures the read and status-update store methods.
type Querier interface {
	ListOrders(ctx context.Context) ([]store.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (store.Order, error)
	OrderItems(ctx context.Context, orderID uuid.UUID) ([]store.OrderItem, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status string) (store.Order, error)
}

// Handler exposes order placement and the administrative order endpoints.
type Handler struct {
	Svc *Service
	Q   Querier
}

type createItemRequest struct {
	ProductID string           `json:"productId" validate:"required,uuid"`
	Quantity  int32            `json:"quantity" validate:"required,gt=0"`
	Price     common.FlexMoney `json:"price"`
}

type createRequest struct {
	CustomerEmail   string              `json:"customerEmail" validate:"required,email"`
	CustomerName    string              `json:"customerName" validate:"required"`
	ShippingAddress string              `json:"shippingAddress" validate:"required"`
	CarrierID       string              `json:"carrierId" validate:"omitempty,uuid"`
	CouponID        string              `json:"couponId" validate:"omitempty,uuid"`
	Subtotal        common.FlexMoney    `json:"subtotal"`
	ShippingCost    common.FlexMoney    `json:"shippingCost"`
	Tax             common.FlexMoney    `json:"tax"`
	Discount        common.FlexMoney    `json:"discount"`
	Total           common.FlexMoney    `json:"total"`
	Items           []createItemRequest `json:"items" validate:"required,min=1,dive"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type itemView struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"productId"`
	Quantity  int32     `json:"quantity"`
	Price     string    `json:"price"`
}

type orderView struct {
	ID              uuid.UUID  `json:"id"`
	CustomerEmail   string     `json:"customerEmail"`
	CustomerName    string     `json:"customerName"`
	ShippingAddress string     `json:"shippingAddress"`
	CarrierID       *uuid.UUID `json:"carrierId"`
	CouponID        *uuid.UUID `json:"couponId"`
	Subtotal        string     `json:"subtotal"`
	ShippingCost    string     `json:"shippingCost"`
	Tax             string     `json:"tax"`
	Discount        string     `json:"discount"`
	Total           string     `json:"total"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func toOrderView(o store.Order) orderView {
	return orderView{
		ID:              o.ID,
		CustomerEmail:   o.CustomerEmail,
		CustomerName:    o.CustomerName,
		ShippingAddress: o.ShippingAddress,
		CarrierID:       o.CarrierID,
		CouponID:        o.CouponID,
		Subtotal:        common.FormatMoney(o.Subtotal),
		ShippingCost:    common.FormatMoney(o.ShippingCost),
		Tax:             common.FormatMoney(o.Tax),
		Discount:        common.FormatMoney(o.Discount),
		Total:           common.FormatMoney(o.Total),
		Status:          o.Status,
		CreatedAt:       o.CreatedAt,
	}
}

func toItemViews(items []store.OrderItem) []itemView {
	out := make([]itemView, 0, len(items))
	for _, it := range items {
		out = append(out, itemView{ID: it.ID, ProductID: it.ProductID, Quantity: it.Quantity, Price: common.FormatMoney(it.Price)})
	}
	return out
}

// Create persists a priced order snapshot. The response echoes the order but
// not its items; GET /api/orders/{id} returns both.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if details := common.ValidateStruct(req); details != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid order payload", details)
		return
	}
	if !req.Subtotal.Set || !req.Total.Set {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid order payload", map[string]string{"subtotal": "required", "total": "required"})
		return
	}
	o := store.Order{
		CustomerEmail:   strings.TrimSpace(req.CustomerEmail),
		CustomerName:    strings.TrimSpace(req.CustomerName),
		ShippingAddress: strings.TrimSpace(req.ShippingAddress),
		Subtotal:        req.Subtotal.Minor,
		ShippingCost:    req.ShippingCost.Minor,
		Tax:             req.Tax.Minor,
		Discount:        req.Discount.Minor,
		Total:           req.Total.Minor,
		Status:          "pending",
	}
	if req.CarrierID != "" {
		id, err := uuid.Parse(req.CarrierID)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid carrierId", nil)
			return
		}
		o.CarrierID = &id
	}
	if req.CouponID != "" {
		id, err := uuid.Parse(req.CouponID)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid couponId", nil)
			return
		}
		o.CouponID = &id
	}
	items := make([]store.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		productID, err := uuid.Parse(it.ProductID)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid productId", nil)
			return
		}
		items = append(items, store.OrderItem{ProductID: productID, Quantity: it.Quantity, Price: it.Price.Minor})
	}
	created, err := h.Svc.Create(r.Context(), o, items)
	if err != nil {
		if errors.Is(err, ErrNoItems) {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create order", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": toOrderView(created)})
}

// List returns all orders, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Q.ListOrders(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list orders", nil)
		return
	}
	out := make([]orderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderView(o))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// Get returns an order together with its items.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id", nil)
		return
	}
	o, err := h.Q.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order", nil)
		return
	}
	items, err := h.Q.OrderItems(r.Context(), id)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order items", nil)
		return
	}
	view := toOrderView(o)
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"order": view,
		"items": toItemViews(items),
	}})
}

// UpdateStatus sets the only mutable field of a persisted order.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id", nil)
		return
	}
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "status is required", nil)
		return
	}
	o, err := h.Q.UpdateOrderStatus(r.Context(), id, status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update order", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toOrderView(o)})
}
