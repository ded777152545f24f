package coupon

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

	"github.com/noah-isme/shopfront/internal/common"
	"github.com/noah-isme/shopfront/internal/store"
)

// AdminQuerier captures the store methods behind coupon management.
type AdminQuerier interface {
	ListCoupons(ctx context.Context) ([]store.Coupon, error)
	GetCoupon(ctx context.Context, id uuid.UUID) (store.Coupon, error)
	CreateCoupon(ctx context.Context, c store.Coupon) (store.Coupon, error)
	UpdateCoupon(ctx context.Context, c store.Coupon) (store.Coupon, error)
	DeleteCoupon(ctx context.Context, id uuid.UUID) (bool, error)
}

// Handler exposes public coupon validation plus the administrative CRUD.
type Handler struct {
	Svc *Service
	Q   AdminQuerier
}

type validateRequest struct {
	Code string `json:"code"`
}

type couponPayload struct {
	Code          string           `json:"code"`
	DiscountType  string           `json:"discountType"`
	DiscountValue common.FlexMoney `json:"discountValue"`
	IsActive      *bool            `json:"isActive"`
}

type couponView struct {
	ID            uuid.UUID `json:"id"`
	Code          string    `json:"code"`
	DiscountType  string    `json:"discountType"`
	DiscountValue string    `json:"discountValue"`
	IsActive      bool      `json:"isActive"`
	UsageCount    int32     `json:"usageCount"`
}

// toCouponView renders the scaled value back to the submitted form: "15.00"
// for a fixed coupon, "10.00" for a 10% one.
func toCouponView(c store.Coupon) couponView {
	return couponView{
		ID:            c.ID,
		Code:          c.Code,
		DiscountType:  c.DiscountType,
		DiscountValue: common.FormatMoney(c.DiscountValue),
		IsActive:      c.IsActive,
		UsageCount:    c.UsageCount,
	}
}

// Validate checks a coupon code for the storefront. Unknown and inactive codes
// produce the same 404 so the endpoint cannot be used to probe the coupon
// table. Nothing is mutated here.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon service not configured", nil)
		return
	}
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	c, err := h.Svc.Validate(r.Context(), req.Code)
	if err != nil {
		switch {
		case errors.Is(err, ErrCodeRequired):
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		case errors.Is(err, ErrCouponInvalid):
			common.JSONError(w, http.StatusNotFound, "INVALID_COUPON", err.Error(), nil)
		default:
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to validate coupon", nil)
		}
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"code":          c.Code,
		"discountType":  c.DiscountType,
		"discountValue": common.FormatMoney(c.DiscountValue),
	}})
}

// List returns all coupons, usage counters included.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.Q.ListCoupons(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list coupons", nil)
		return
	}
	out := make([]couponView, 0, len(coupons))
	for _, c := range coupons {
		out = append(out, toCouponView(c))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// Create inserts a coupon. The code is stored upper-case regardless of how the
// admin typed it.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	c, ok := decodeCoupon(w, r, store.Coupon{IsActive: true})
	if !ok {
		return
	}
	created, err := h.Q.CreateCoupon(r.Context(), c)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "coupon code already exists", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create coupon", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": toCouponView(created)})
}

// Update replaces the mutable fields of a coupon. The usage counter cannot be
// edited through this endpoint.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id", nil)
		return
	}
	current, err := h.Q.GetCoupon(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "coupon not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load coupon", nil)
		return
	}
	c, ok := decodeCoupon(w, r, current)
	if !ok {
		return
	}
	c.ID = id
	updated, err := h.Q.UpdateCoupon(r.Context(), c)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "coupon code already exists", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update coupon", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toCouponView(updated)})
}

// Delete removes a coupon.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id", nil)
		return
	}
	deleted, err := h.Q.DeleteCoupon(r.Context(), id)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to delete coupon", nil)
		return
	}
	if !deleted {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "coupon not found", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeCoupon(w http.ResponseWriter, r *http.Request, base store.Coupon) (store.Coupon, bool) {
	var payload couponPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return store.Coupon{}, false
	}
	if code := NormalizeCode(payload.Code); code != "" {
		base.Code = code
	}
	if base.Code == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "code is required", nil)
		return store.Coupon{}, false
	}
	if dt := strings.TrimSpace(payload.DiscountType); dt != "" {
		base.DiscountType = dt
	}
	switch base.DiscountType {
	case "percentage", "fixed":
	default:
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "discountType must be percentage or fixed", nil)
		return store.Coupon{}, false
	}
	if payload.DiscountValue.Set {
		base.DiscountValue = payload.DiscountValue.Minor
	}
	if base.DiscountValue <= 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "discountValue must be greater than zero", nil)
		return store.Coupon{}, false
	}
	if payload.IsActive != nil {
		base.IsActive = *payload.IsActive
	}
	return base, true
}
