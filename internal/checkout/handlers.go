package checkout

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/shopfront/internal/common"
	"github.com/noah-isme/shopfront/internal/coupon"
)

// Handler exposes the checkout session endpoints.
type Handler struct {
	Svc *Service
}

type createItemRequest struct {
	ProductID string           `json:"productId" validate:"required,uuid"`
	Quantity  int32            `json:"quantity" validate:"required,gt=0"`
	Price     common.FlexMoney `json:"price"`
}

type createSessionRequest struct {
	Items []createItemRequest `json:"items" validate:"required,min=1,dive"`
}

type informationRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Name    string `json:"name"`
	Address string `json:"address" validate:"required"`
}

type shippingRequest struct {
	Method    string           `json:"method"`
	CarrierID string           `json:"carrierId" validate:"omitempty,uuid"`
	Cost      common.FlexMoney `json:"cost"`
}

type paymentRequest struct {
	Method     string `json:"method" validate:"required"`
	CouponCode string `json:"couponCode"`
}

type itemView struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int32     `json:"quantity"`
	UnitPrice string    `json:"unitPrice"`
}

type sessionView struct {
	ID          string       `json:"id"`
	Step        string       `json:"step"`
	Items       []itemView   `json:"items"`
	Information *Information `json:"information"`
	Shipping    struct {
		Method    string     `json:"method"`
		CarrierID *uuid.UUID `json:"carrierId"`
		Cost      string     `json:"cost"`
	} `json:"shipping"`
	Payment   *Payment  `json:"payment"`
	CreatedAt time.Time `json:"createdAt"`
}

type draftItemView struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int32     `json:"quantity"`
	Price     string    `json:"price"`
}

type draftView struct {
	CustomerEmail   string          `json:"customerEmail"`
	CustomerName    string          `json:"customerName"`
	ShippingAddress string          `json:"shippingAddress"`
	CarrierID       *uuid.UUID      `json:"carrierId"`
	CouponID        *uuid.UUID      `json:"couponId"`
	Subtotal        string          `json:"subtotal"`
	ShippingCost    string          `json:"shippingCost"`
	Tax             string          `json:"tax"`
	Discount        string          `json:"discount"`
	Total           string          `json:"total"`
	Items           []draftItemView `json:"items"`
}

func toSessionView(s Session) sessionView {
	view := sessionView{
		ID:          s.ID,
		Step:        s.Step,
		Information: s.Information,
		Payment:     s.Payment,
		CreatedAt:   s.CreatedAt,
	}
	view.Items = make([]itemView, 0, len(s.Items))
	for _, it := range s.Items {
		view.Items = append(view.Items, itemView{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: common.FormatMoney(it.UnitPrice)})
	}
	view.Shipping.Method = s.Shipping.Method
	view.Shipping.CarrierID = s.Shipping.CarrierID
	view.Shipping.Cost = common.FormatMoney(s.Shipping.Cost)
	return view
}

func toDraftView(d Draft) draftView {
	items := make([]draftItemView, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, draftItemView{ProductID: it.ProductID, Quantity: it.Quantity, Price: common.FormatMoney(it.UnitPrice)})
	}
	return draftView{
		CustomerEmail:   d.CustomerEmail,
		CustomerName:    d.CustomerName,
		ShippingAddress: d.ShippingAddress,
		CarrierID:       d.CarrierID,
		CouponID:        d.CouponID,
		Subtotal:        common.FormatMoney(d.Summary.Subtotal),
		ShippingCost:    common.FormatMoney(d.Summary.Shipping),
		Tax:             common.FormatMoney(d.Summary.Tax),
		Discount:        common.FormatMoney(d.Summary.Discount),
		Total:           common.FormatMoney(d.Summary.Total),
		Items:           items,
	}
}

// Create opens a session from the submitted cart lines.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if details := common.ValidateStruct(req); details != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid checkout payload", details)
		return
	}
	items := make([]Item, 0, len(req.Items))
	for _, it := range req.Items {
		productID, err := uuid.Parse(it.ProductID)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid productId", nil)
			return
		}
		items = append(items, Item{ProductID: productID, Quantity: it.Quantity, UnitPrice: it.Price.Minor})
	}
	sess, err := h.Svc.Create(r.Context(), items)
	if err != nil {
		if errors.Is(err, ErrNoItems) {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create checkout session", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": toSessionView(sess)})
}

// Get returns the session state.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.renderError(w, err, "failed to load checkout session")
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toSessionView(sess)})
}

// PutInformation submits the contact step.
func (h *Handler) PutInformation(w http.ResponseWriter, r *http.Request) {
	var req informationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if details := common.ValidateStruct(req); details != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "email and address are required", details)
		return
	}
	sess, err := h.Svc.PutInformation(r.Context(), chi.URLParam(r, "id"), Information{
		Email:   req.Email,
		Name:    req.Name,
		Address: req.Address,
	})
	if err != nil {
		h.renderError(w, err, "failed to save information")
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toSessionView(sess)})
}

// PutShipping submits the carrier choice step.
func (h *Handler) PutShipping(w http.ResponseWriter, r *http.Request) {
	var req shippingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	choice := Shipping{Method: req.Method, Cost: req.Cost.Minor}
	if raw := strings.TrimSpace(req.CarrierID); raw != "" {
		carrierID, err := uuid.Parse(raw)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid carrierId", nil)
			return
		}
		choice.CarrierID = &carrierID
	}
	sess, err := h.Svc.PutShipping(r.Context(), chi.URLParam(r, "id"), choice)
	if err != nil {
		h.renderError(w, err, "failed to save shipping")
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toSessionView(sess)})
}

// PutPayment completes the checkout and returns the order draft alongside the
// final session state.
func (h *Handler) PutPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if details := common.ValidateStruct(req); details != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "payment method is required", details)
		return
	}
	sess, draft, err := h.Svc.PutPayment(r.Context(), chi.URLParam(r, "id"), Payment{
		Method:     req.Method,
		CouponCode: req.CouponCode,
	})
	if err != nil {
		if errors.Is(err, coupon.ErrCouponInvalid) || errors.Is(err, coupon.ErrCodeRequired) {
			common.JSONError(w, http.StatusBadRequest, "INVALID_COUPON", err.Error(), nil)
			return
		}
		h.renderError(w, err, "failed to complete checkout")
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"session": toSessionView(sess),
		"order":   toDraftView(draft),
	}})
}

func (h *Handler) renderError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrStepIncomplete):
		common.JSONError(w, http.StatusConflict, "STEP_INCOMPLETE", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", fallback, nil)
	}
}
