package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantity_String(t *testing.T) {
	tests := []struct {
		q    Quantity
		want string
	}{
		{NewQuantityFromInt(0), "0.0000"},
		{NewQuantityFromInt(42), "42.0000"},
		{NewQuantityFromFloat64(3.5), "3.5000"},
		{NewQuantityFromInt64Scaled(12345), "1.2345"},
		{NewQuantityFromFloat64(-2.25), "-2.2500"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.q.String())
	}
}

func TestQuantity_Arithmetic(t *testing.T) {
	q := NewQuantityFromFloat64(1.5)
	assert.True(t, q.IsPositive())
	assert.False(t, q.IsNegative())
	assert.Equal(t, NewQuantityFromFloat64(-1.5), q.Neg())
	assert.Equal(t, q, q.Neg().Abs())
	assert.InDelta(t, 1.5, q.Float64(), 1e-9)
	assert.True(t, Quantity(0).IsZero())
}

func TestQuantity_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Quantity
	}{
		{"number", `12.5`, NewQuantityFromFloat64(12.5)},
		{"integer number", `7`, NewQuantityFromInt(7)},
		{"string", `"3.1415"`, NewQuantityFromInt64Scaled(31415)},
		{"negative string", `"-0.5"`, NewQuantityFromFloat64(-0.5)},
		{"excess precision truncated", `"1.23456"`, NewQuantityFromInt64Scaled(12345)},
		{"null", `null`, 0},
		{"exponent fallback", `1.5e2`, NewQuantityFromInt(150)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q Quantity
			require.NoError(t, json.Unmarshal([]byte(tt.in), &q))
			assert.Equal(t, tt.want, q)
		})
	}
}

func TestQuantity_UnmarshalJSON_Invalid(t *testing.T) {
	for _, in := range []string{`"abc"`, `""`, `"1.2.3"`} {
		var q Quantity
		assert.Error(t, json.Unmarshal([]byte(in), &q), "input %s", in)
	}
}

func TestQuantity_MarshalRoundTrip(t *testing.T) {
	in := NewQuantityFromFloat64(99.1234)
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, "99.1234", string(data))

	var out Quantity
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestMoney(t *testing.T) {
	m, err := NewMoneyFromString("19.99")
	require.NoError(t, err)
	assert.Equal(t, "19.99", m.String())
	assert.True(t, ZeroMoney().IsZero())
	assert.True(t, MustMoney("1.50").Equal(NewMoney(1.5)))
}
