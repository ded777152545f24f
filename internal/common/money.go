package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when a monetary string cannot be parsed.
var ErrInvalidAmount = errors.New("invalid monetary amount")

// ParseMoney converts a 2-decimal monetary string (e.g. "79.99") into minor units.
// Values with more than two decimal places are rejected rather than rounded.
func ParseMoney(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidAmount, value)
	}
	scaled := d.Shift(2)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("%w: more than two decimal places: %s", ErrInvalidAmount, value)
	}
	return scaled.IntPart(), nil
}

// FormatMoney renders minor units as a 2-decimal string.
func FormatMoney(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}

// FormatWeight renders a weight in kilograms with two decimal places for display.
func FormatWeight(kg float64) string {
	return strconv.FormatFloat(kg, 'f', 2, 64)
}

// FlexNumber unmarshals from either a JSON number or a numeric string, matching
// clients that submit form values verbatim.
type FlexNumber struct {
	Value float64
	Set   bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexNumber) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("parse number %q: %w", s, err)
		}
		f.Value = parsed
		f.Set = true
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.Value = v
	f.Set = true
	return nil
}

// FlexMoney unmarshals a monetary value from a JSON number or string into minor units.
type FlexMoney struct {
	Minor int64
	Set   bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexMoney) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		return nil
	}
	s := raw
	if strings.HasPrefix(raw, `"`) {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			return nil
		}
	}
	minor, err := ParseMoney(s)
	if err != nil {
		return err
	}
	f.Minor = minor
	f.Set = true
	return nil
}
