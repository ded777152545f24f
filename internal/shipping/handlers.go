package shipping

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

// AdminQuerier captures the store methods behind the carrier and rate
// management endpoints.
type AdminQuerier interface {
	ListCarriers(ctx context.Context) ([]store.Carrier, error)
	GetCarrier(ctx context.Context, id uuid.UUID) (store.Carrier, error)
	CreateCarrier(ctx context.Context, name string, logo *string, isActive bool) (store.Carrier, error)
	UpdateCarrier(ctx context.Context, c store.Carrier) (store.Carrier, error)
	DeleteCarrier(ctx context.Context, id uuid.UUID) (bool, error)
	ListRates(ctx context.Context) ([]store.Rate, error)
	RatesByCarrier(ctx context.Context, carrierID uuid.UUID) ([]store.Rate, error)
	CreateRate(ctx context.Context, r store.Rate) (store.Rate, error)
	UpdateRate(ctx context.Context, r store.Rate) (store.Rate, error)
	DeleteRate(ctx context.Context, id uuid.UUID) (bool, error)
}

// Handler exposes the shipping calculator and the administrative carrier and
// rate endpoints.
type Handler struct {
	Svc *Service
	Q   AdminQuerier
}

type calculateRequest struct {
	CarrierID    string            `json:"carrierId"`
	Length       common.FlexNumber `json:"length"`
	Width        common.FlexNumber `json:"width"`
	Height       common.FlexNumber `json:"height"`
	ActualWeight common.FlexNumber `json:"actualWeight"`
}

type carrierPayload struct {
	Name     string  `json:"name"`
	Logo     *string `json:"logo"`
	IsActive *bool   `json:"isActive"`
}

type ratePayload struct {
	CarrierID  string            `json:"carrierId"`
	WeightType string            `json:"weightType"`
	MinWeight  common.FlexNumber `json:"minWeight"`
	MaxWeight  common.FlexNumber `json:"maxWeight"`
	Price      common.FlexMoney  `json:"price"`
}

type carrierView struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Logo     *string   `json:"logo"`
	IsActive bool      `json:"isActive"`
}

type rateView struct {
	ID         uuid.UUID `json:"id"`
	CarrierID  uuid.UUID `json:"carrierId"`
	WeightType string    `json:"weightType"`
	MinWeight  string    `json:"minWeight"`
	MaxWeight  string    `json:"maxWeight"`
	Price      string    `json:"price"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toCarrierView(c store.Carrier) carrierView {
	return carrierView{ID: c.ID, Name: c.Name, Logo: c.Logo, IsActive: c.IsActive}
}

func toRateView(r store.Rate) rateView {
	return rateView{
		ID:         r.ID,
		CarrierID:  r.CarrierID,
		WeightType: r.WeightType,
		MinWeight:  common.FormatWeight(r.MinWeight),
		MaxWeight:  common.FormatWeight(r.MaxWeight),
		Price:      common.FormatMoney(r.Price),
		CreatedAt:  r.CreatedAt,
	}
}

// Calculate resolves the shipping cost for a parcel. Both an unparsable
// payload and a weight no band covers come back as 400: from the caller's
// perspective the request could not be priced.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "shipping service not configured", nil)
		return
	}
	var req calculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	missing := make([]string, 0, 5)
	if strings.TrimSpace(req.CarrierID) == "" {
		missing = append(missing, "carrierId")
	}
	for _, f := range []struct {
		name  string
		value common.FlexNumber
	}{
		{"length", req.Length},
		{"width", req.Width},
		{"height", req.Height},
		{"actualWeight", req.ActualWeight},
	} {
		if !f.value.Set {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "missing required fields", map[string]any{"fields": missing})
		return
	}
	carrierID, err := uuid.Parse(strings.TrimSpace(req.CarrierID))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid carrierId", nil)
		return
	}
	result, err := h.Svc.Calculate(r.Context(), carrierID, req.Length.Value, req.Width.Value, req.Height.Value, req.ActualWeight.Value)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidDimensions):
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		case errors.Is(err, ErrNoApplicableRate):
			common.JSONError(w, http.StatusBadRequest, "NO_APPLICABLE_RATE", err.Error(), nil)
		default:
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to calculate shipping", nil)
		}
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"actualWeight":     common.FormatWeight(result.Quote.Actual),
		"volumetricWeight": common.FormatWeight(result.Quote.Volumetric),
		"chargeableWeight": common.FormatWeight(result.Quote.Chargeable),
		"rate":             common.FormatMoney(result.Rate.Price),
		"rateId":           result.Rate.ID,
	}})
}

// ListCarriers returns all carriers.
func (h *Handler) ListCarriers(w http.ResponseWriter, r *http.Request) {
	carriers, err := h.Q.ListCarriers(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list carriers", nil)
		return
	}
	out := make([]carrierView, 0, len(carriers))
	for _, c := range carriers {
		out = append(out, toCarrierView(c))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// CreateCarrier inserts a carrier.
func (h *Handler) CreateCarrier(w http.ResponseWriter, r *http.Request) {
	var payload carrierPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "name is required", nil)
		return
	}
	isActive := true
	if payload.IsActive != nil {
		isActive = *payload.IsActive
	}
	carrier, err := h.Q.CreateCarrier(r.Context(), name, payload.Logo, isActive)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create carrier", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": toCarrierView(carrier)})
}

// UpdateCarrier replaces the mutable fields of a carrier.
func (h *Handler) UpdateCarrier(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var payload carrierPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	current, err := h.Q.GetCarrier(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "carrier not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load carrier", nil)
		return
	}
	if name := strings.TrimSpace(payload.Name); name != "" {
		current.Name = name
	}
	if payload.Logo != nil {
		current.Logo = payload.Logo
	}
	if payload.IsActive != nil {
		current.IsActive = *payload.IsActive
	}
	carrier, err := h.Q.UpdateCarrier(r.Context(), current)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update carrier", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toCarrierView(carrier)})
}

// DeleteCarrier removes a carrier and, through the schema, its rate bands.
func (h *Handler) DeleteCarrier(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	deleted, err := h.Q.DeleteCarrier(r.Context(), id)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to delete carrier", nil)
		return
	}
	if !deleted {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "carrier not found", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListRates returns rate bands, optionally filtered by ?carrierId=.
func (h *Handler) ListRates(w http.ResponseWriter, r *http.Request) {
	var (
		rates []store.Rate
		err   error
	)
	if raw := strings.TrimSpace(r.URL.Query().Get("carrierId")); raw != "" {
		carrierID, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid carrierId", nil)
			return
		}
		rates, err = h.Q.RatesByCarrier(r.Context(), carrierID)
	} else {
		rates, err = h.Q.ListRates(r.Context())
	}
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list rates", nil)
		return
	}
	out := make([]rateView, 0, len(rates))
	for _, rate := range rates {
		out = append(out, toRateView(rate))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// CreateRate inserts a rate band. Overlapping bands are accepted, but the
// response carries warnings naming the existing bands they intersect.
func (h *Handler) CreateRate(w http.ResponseWriter, r *http.Request) {
	rate, ok := h.decodeRate(w, r, store.Rate{})
	if !ok {
		return
	}
	existing, err := h.Q.RatesByCarrier(r.Context(), rate.CarrierID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load rates", nil)
		return
	}
	warnings := OverlapWarnings(existing, rate)
	created, err := h.Q.CreateRate(r.Context(), rate)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create rate", nil)
		return
	}
	body := map[string]any{"data": toRateView(created)}
	if len(warnings) > 0 {
		body["warnings"] = warnings
	}
	common.JSON(w, http.StatusCreated, body)
}

// UpdateRate replaces a rate band, again surfacing overlap warnings.
func (h *Handler) UpdateRate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rate, ok := h.decodeRate(w, r, store.Rate{ID: id})
	if !ok {
		return
	}
	existing, err := h.Q.RatesByCarrier(r.Context(), rate.CarrierID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load rates", nil)
		return
	}
	warnings := OverlapWarnings(existing, rate)
	updated, err := h.Q.UpdateRate(r.Context(), rate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "rate not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update rate", nil)
		return
	}
	body := map[string]any{"data": toRateView(updated)}
	if len(warnings) > 0 {
		body["warnings"] = warnings
	}
	common.JSON(w, http.StatusOK, body)
}

// DeleteRate removes a rate band.
func (h *Handler) DeleteRate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	deleted, err := h.Q.DeleteRate(r.Context(), id)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to delete rate", nil)
		return
	}
	if !deleted {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "rate not found", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeRate(w http.ResponseWriter, r *http.Request, base store.Rate) (store.Rate, bool) {
	var payload ratePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return store.Rate{}, false
	}
	carrierID, err := uuid.Parse(strings.TrimSpace(payload.CarrierID))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid carrierId", nil)
		return store.Rate{}, false
	}
	if !payload.MinWeight.Set || !payload.MaxWeight.Set || !payload.Price.Set {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "minWeight, maxWeight and price are required", nil)
		return store.Rate{}, false
	}
	if payload.MinWeight.Value < 0 || payload.MaxWeight.Value < payload.MinWeight.Value {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid weight band", nil)
		return store.Rate{}, false
	}
	weightType := strings.TrimSpace(payload.WeightType)
	if weightType == "" {
		weightType = "actual"
	}
	base.CarrierID = carrierID
	base.WeightType = weightType
	base.MinWeight = payload.MinWeight.Value
	base.MaxWeight = payload.MaxWeight.Value
	base.Price = payload.Price.Minor
	return base, true
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id", nil)
		return uuid.UUID{}, false
	}
	return id, true
}
