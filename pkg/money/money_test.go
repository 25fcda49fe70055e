package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := map[string]Cents{
		"3.50":   350,
		"1":      100,
		"0.005":  1,
		"0.004":  0,
		"10.995": 1100,
		" 4.5 ":  450,
	}
	for raw, want := range cases {
		got, err := Parse(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := Parse("")
	assert.Error(t, err)
	_, err = Parse("abc")
	assert.Error(t, err)
}

func TestApplyRateRoundsHalfUp(t *testing.T) {
	rate := decimal.RequireFromString("0.10")
	assert.Equal(t, Cents(100), Cents(1000).ApplyRate(rate))
	assert.Equal(t, Cents(1), Cents(5).ApplyRate(rate))
	assert.Equal(t, Cents(0), Cents(4).ApplyRate(rate))
	assert.Equal(t, Cents(0), Cents(999).ApplyRate(decimal.Zero))

	// 0.0825 * 1234 = 101.805 -> 102
	assert.Equal(t, Cents(102), Cents(1234).ApplyRate(decimal.RequireFromString("0.0825")))
}

func TestStringAndJSON(t *testing.T) {
	assert.Equal(t, "10.00", Cents(1000).String())
	assert.Equal(t, "0.05", Cents(5).String())

	raw, err := json.Marshal(struct {
		Total Cents `json:"total"`
	}{Total: 1100})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":"11.00"}`, string(raw))

	var decoded struct {
		A Cents `json:"a"`
		B Cents `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"3.50","b":1.25}`), &decoded))
	assert.Equal(t, Cents(350), decoded.A)
	assert.Equal(t, Cents(125), decoded.B)
}

func TestParseRate(t *testing.T) {
	rate, err := ParseRate("0.10")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.1")))

	_, err = ParseRate("-0.01")
	assert.Error(t, err)
	_, err = ParseRate("ten percent")
	assert.Error(t, err)
}

func TestSumAndMul(t *testing.T) {
	assert.Equal(t, Cents(1000), Cents(500).Mul(2))
	assert.Equal(t, Cents(600), Sum(100, 200, 300))
	assert.Equal(t, Zero, Sum())
}
