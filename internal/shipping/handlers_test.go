package shipping_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/shopfront/internal/shipping"
	"github.com/noah-isme/shopfront/internal/store"
)

type fakeAdminQuerier struct {
	carriers []store.Carrier
	rates    []store.Rate
}

func (f *fakeAdminQuerier) ListCarriers(context.Context) ([]store.Carrier, error) {
	return f.carriers, nil
}

func (f *fakeAdminQuerier) GetCarrier(_ context.Context, id uuid.UUID) (store.Carrier, error) {
	for _, c := range f.carriers {
		if c.ID == id {
			return c, nil
		}
	}
	return store.Carrier{}, pgx.ErrNoRows
}

func (f *fakeAdminQuerier) CreateCarrier(_ context.Context, name string, logo *string, isActive bool) (store.Carrier, error) {
	c := store.Carrier{ID: uuid.New(), Name: name, Logo: logo, IsActive: isActive}
	f.carriers = append(f.carriers, c)
	return c, nil
}

func (f *fakeAdminQuerier) UpdateCarrier(_ context.Context, c store.Carrier) (store.Carrier, error) {
	return c, nil
}

func (f *fakeAdminQuerier) DeleteCarrier(_ context.Context, id uuid.UUID) (bool, error) {
	for i, c := range f.carriers {
		if c.ID == id {
			f.carriers = append(f.carriers[:i], f.carriers[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAdminQuerier) ListRates(context.Context) ([]store.Rate, error) {
	return f.rates, nil
}

func (f *fakeAdminQuerier) RatesByCarrier(_ context.Context, carrierID uuid.UUID) ([]store.Rate, error) {
	out := make([]store.Rate, 0)
	for _, r := range f.rates {
		if r.CarrierID == carrierID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeAdminQuerier) CreateRate(_ context.Context, r store.Rate) (store.Rate, error) {
	r.ID = uuid.New()
	f.rates = append(f.rates, r)
	return r, nil
}

func (f *fakeAdminQuerier) UpdateRate(_ context.Context, r store.Rate) (store.Rate, error) {
	return r, nil
}

func (f *fakeAdminQuerier) DeleteRate(_ context.Context, id uuid.UUID) (bool, error) {
	for i, r := range f.rates {
		if r.ID == id {
			f.rates = append(f.rates[:i], f.rates[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func newHandler(q *fakeAdminQuerier) *shipping.Handler {
	return &shipping.Handler{Svc: &shipping.Service{Q: q}, Q: q}
}

func TestCalculateHandlerAcceptsStringNumbers(t *testing.T) {
	t.Parallel()

	carrierID := uuid.New()
	q := &fakeAdminQuerier{rates: []store.Rate{band(carrierID, 0, 5, 1299)}}
	h := newHandler(q)

	body := map[string]any{
		"carrierId":    carrierID.String(),
		"length":       "30",
		"width":        20,
		"height":       "15",
		"actualWeight": "2",
	}
	rec := doJSON(t, h.Calculate, http.MethodPost, "/api/shipping/calculate", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			ActualWeight     string `json:"actualWeight"`
			VolumetricWeight string `json:"volumetricWeight"`
			ChargeableWeight string `json:"chargeableWeight"`
			Rate             string `json:"rate"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "2.00", resp.Data.ActualWeight)
	require.Equal(t, "4.89", resp.Data.VolumetricWeight)
	require.Equal(t, "4.89", resp.Data.ChargeableWeight)
	require.Equal(t, "12.99", resp.Data.Rate)
}

func TestCalculateHandlerMissingFields(t *testing.T) {
	t.Parallel()

	h := newHandler(&fakeAdminQuerier{})
	rec := doJSON(t, h.Calculate, http.MethodPost, "/api/shipping/calculate", map[string]any{
		"carrierId": uuid.New().String(),
		"length":    30,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "width")
	require.Contains(t, rec.Body.String(), "actualWeight")
}

func TestCalculateHandlerNoApplicableRate(t *testing.T) {
	t.Parallel()

	carrierID := uuid.New()
	q := &fakeAdminQuerier{rates: []store.Rate{band(carrierID, 0, 1, 499)}}
	h := newHandler(q)

	rec := doJSON(t, h.Calculate, http.MethodPost, "/api/shipping/calculate", map[string]any{
		"carrierId":    carrierID.String(),
		"length":       30,
		"width":        20,
		"height":       15,
		"actualWeight": 2,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "NO_APPLICABLE_RATE")
}

func TestCreateRateSurfacesOverlapWarnings(t *testing.T) {
	t.Parallel()

	carrierID := uuid.New()
	q := &fakeAdminQuerier{rates: []store.Rate{band(carrierID, 0, 5, 1299)}}
	h := newHandler(q)

	rec := doJSON(t, h.CreateRate, http.MethodPost, "/api/admin/shipping/rates", map[string]any{
		"carrierId": carrierID.String(),
		"minWeight": 4,
		"maxWeight": 8,
		"price":     "15.99",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Warnings []string `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Warnings, 1)
	require.Len(t, q.rates, 2)
}

func TestCreateRateRejectsInvertedBand(t *testing.T) {
	t.Parallel()

	h := newHandler(&fakeAdminQuerier{})
	rec := doJSON(t, h.CreateRate, http.MethodPost, "/api/admin/shipping/rates", map[string]any{
		"carrierId": uuid.New().String(),
		"minWeight": 10,
		"maxWeight": 5,
		"price":     "15.99",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func doJSON(t *testing.T, handler http.HandlerFunc, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}
