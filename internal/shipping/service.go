package shipping

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/noah-isme/shopfront/internal/store"
)

// Querier captures the store methods required by the shipping service.
type Querier interface {
	RatesByCarrier(ctx context.Context, carrierID uuid.UUID) ([]store.Rate, error)
}

// Result combines the weight quote with the resolved rate.
type Result struct {
	Quote Quote
	Rate  store.Rate
}

// Service resolves shipping cost for a parcel against a carrier's rate table.
type Service struct {
	Q Querier
}

// Calculate computes the chargeable weight and resolves the carrier rate that
// covers it. An unknown carrier behaves like an empty rate table: the caller
// sees ErrNoApplicableRate, not a lookup failure.
func (s *Service) Calculate(ctx context.Context, carrierID uuid.UUID, length, width, height, actualWeight float64) (Result, error) {
	if s == nil || s.Q == nil {
		return Result{}, errors.New("shipping service not configured")
	}
	quote, err := ComputeQuote(length, width, height, actualWeight)
	if err != nil {
		return Result{}, err
	}
	rates, err := s.Q.RatesByCarrier(ctx, carrierID)
	if err != nil {
		return Result{}, err
	}
	rate, err := Resolve(rates, quote.Chargeable)
	if err != nil {
		return Result{}, err
	}
	return Result{Quote: quote, Rate: rate}, nil
}
