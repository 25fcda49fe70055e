// Package money holds currency amounts as integer minor units (cents).
//
// Arithmetic never touches binary floating point. Decimal strings only appear at
// the boundary (JSON, config) and are parsed through shopspring/decimal.
package money

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MinorUnits is the number of decimal places in the currency's minor unit.
const MinorUnits = 2

// Cents is an amount expressed in minor currency units.
type Cents int64

// Zero is the empty amount.
const Zero Cents = 0

var half = decimal.New(5, -1)

// FromDecimal converts a major-unit decimal into cents, rounding half-up.
func FromDecimal(d decimal.Decimal) Cents {
	return Cents(roundHalfUp(d.Shift(MinorUnits)).IntPart())
}

// Parse reads a major-unit decimal string such as "3.50".
func Parse(raw string) (Cents, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("money: empty amount")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("money: parse %q: %w", raw, err)
	}
	return FromDecimal(d), nil
}

// MustParse is Parse for constants and fixtures.
func MustParse(raw string) Cents {
	c, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// Add returns c + other.
func (c Cents) Add(other Cents) Cents {
	return c + other
}

// Mul returns c multiplied by an integer quantity.
func (c Cents) Mul(qty int) Cents {
	return c * Cents(qty)
}

// ApplyRate returns c × rate rounded half-up to the minor unit.
func (c Cents) ApplyRate(rate decimal.Decimal) Cents {
	return Cents(roundHalfUp(decimal.NewFromInt(int64(c)).Mul(rate)).IntPart())
}

// IsNegative reports whether the amount is below zero.
func (c Cents) IsNegative() bool {
	return c < 0
}

// Decimal returns the amount in major units.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(c)).Shift(-MinorUnits)
}

// String renders the amount as a fixed two-place major-unit string.
func (c Cents) String() string {
	return c.Decimal().StringFixed(MinorUnits)
}

// MarshalJSON encodes the amount as a decimal string ("10.00").
func (c Cents) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts either a decimal string or a JSON number in major units.
func (c *Cents) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		var num json.Number
		if numErr := json.Unmarshal(data, &num); numErr != nil {
			return fmt.Errorf("money: unsupported json %s", string(data))
		}
		raw = num.String()
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseRate reads a non-negative rate such as "0.10".
func ParseRate(raw string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("money: parse rate %q: %w", raw, err)
	}
	if rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("money: rate %q must be non-negative", raw)
	}
	return rate, nil
}

// Sum adds all provided amounts.
func Sum(amounts ...Cents) Cents {
	var total Cents
	for _, amount := range amounts {
		total += amount
	}
	return total
}

// roundHalfUp rounds to an integer with ties going toward positive infinity.
func roundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Add(half).Floor()
}
