package common_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/shopfront/internal/common"
)

func TestParseMoney(t *testing.T) {
	t.Parallel()

	for input, want := range map[string]int64{
		"79.99":  7999,
		"0.01":   1,
		"10":     1000,
		"10.5":   1050,
		" 12.99": 1299,
	} {
		got, err := common.ParseMoney(input)
		require.NoError(t, err, input)
		require.Equal(t, want, got, input)
	}
}

func TestParseMoneyRejectsSubCentPrecision(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"1.999", "0.001", "abc", ""} {
		_, err := common.ParseMoney(input)
		require.ErrorIs(t, err, common.ErrInvalidAmount, input)
	}
}

func TestFormatMoneyRoundTrip(t *testing.T) {
	t.Parallel()

	require.Equal(t, "127.38", common.FormatMoney(12738))
	require.Equal(t, "0.00", common.FormatMoney(0))

	got, err := common.ParseMoney(common.FormatMoney(12738))
	require.NoError(t, err)
	require.Equal(t, int64(12738), got)
}

func TestFlexNumberAcceptsNumberAndString(t *testing.T) {
	t.Parallel()

	var payload struct {
		A common.FlexNumber `json:"a"`
		B common.FlexNumber `json:"b"`
		C common.FlexNumber `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 4.5, "b": "4.5"}`), &payload))
	require.True(t, payload.A.Set)
	require.True(t, payload.B.Set)
	require.False(t, payload.C.Set)
	require.InDelta(t, payload.A.Value, payload.B.Value, 1e-9)
}

func TestFlexMoneyScalesToMinorUnits(t *testing.T) {
	t.Parallel()

	var payload struct {
		Price common.FlexMoney `json:"price"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"price": "79.99"}`), &payload))
	require.True(t, payload.Price.Set)
	require.Equal(t, int64(7999), payload.Price.Minor)

	require.Error(t, json.Unmarshal([]byte(`{"price": "79.999"}`), &payload))
}
