package shipping

import (
	"errors"
	"fmt"

	"github.com/noah-isme/shopfront/internal/store"
)

const (
	// paddingCM is added to every dimension before the volumetric
	// conversion to account for packaging.
	paddingCM = 8
	// volumetricDivisor is the standard cm³-to-kg divisor.
	volumetricDivisor = 5000
)

var (
	// ErrInvalidDimensions is returned when any dimension or the actual weight is not positive.
	ErrInvalidDimensions = errors.New("dimensions and actual weight must be greater than zero")
	// ErrNoApplicableRate is returned when no rate band covers the chargeable weight.
	// It is a normal business outcome, not a system fault.
	ErrNoApplicableRate = errors.New("no applicable shipping rate for this weight")
)

// Quote holds the computed weights for a parcel in kilograms. Values keep full
// float precision; rounding happens only at the presentation boundary.
type Quote struct {
	Actual     float64
	Volumetric float64
	Chargeable float64
}

// ComputeQuote derives the chargeable weight from parcel dimensions (cm) and
// actual weight (kg): the greater of the actual weight and the padded
// volumetric weight.
func ComputeQuote(length, width, height, actualWeight float64) (Quote, error) {
	if length <= 0 || width <= 0 || height <= 0 || actualWeight <= 0 {
		return Quote{}, ErrInvalidDimensions
	}
	volumetric := ((length + paddingCM) * (width + paddingCM) * (height + paddingCM)) / volumetricDivisor
	chargeable := actualWeight
	if volumetric > chargeable {
		chargeable = volumetric
	}
	return Quote{Actual: actualWeight, Volumetric: volumetric, Chargeable: chargeable}, nil
}

// Resolve returns the first rate whose closed band [MinWeight, MaxWeight]
// contains the chargeable weight, scanning rates in the order given. The
// caller supplies rates in creation order, which makes the first-match
// tie-break for overlapping bands deterministic and visible. A gap yields
// ErrNoApplicableRate.
func Resolve(rates []store.Rate, chargeableWeight float64) (store.Rate, error) {
	for _, r := range rates {
		if chargeableWeight >= r.MinWeight && chargeableWeight <= r.MaxWeight {
			return r, nil
		}
	}
	return store.Rate{}, ErrNoApplicableRate
}

// OverlapWarnings reports which existing bands of the same carrier intersect
// the candidate band. Overlaps are legal (first match wins at resolution time)
// but worth surfacing to the admin.
func OverlapWarnings(existing []store.Rate, candidate store.Rate) []string {
	var warnings []string
	for _, r := range existing {
		if r.ID == candidate.ID || r.CarrierID != candidate.CarrierID {
			continue
		}
		if candidate.MinWeight <= r.MaxWeight && r.MinWeight <= candidate.MaxWeight {
			warnings = append(warnings, fmt.Sprintf(
				"band [%.2f, %.2f] overlaps existing band [%.2f, %.2f]; the earlier-created band wins for weights in both",
				candidate.MinWeight, candidate.MaxWeight, r.MinWeight, r.MaxWeight))
		}
	}
	return warnings
}
