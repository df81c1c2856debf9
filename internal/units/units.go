package units

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const displayDigits = 6

var displayFloor = decimal.New(1, -4)

// ParseAmount parses user input into a decimal and reports whether it is a usable positive amount.
func ParseAmount(input string) (decimal.Decimal, bool) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	if !d.IsPositive() {
		return d, false
	}
	return d, true
}

// IsPositive reports whether input parses to a number strictly greater than zero.
func IsPositive(input string) bool {
	_, ok := ParseAmount(input)
	return ok
}

// ToSmallest converts a decimal string into the integer smallest-unit amount for the given decimals.
// Inputs carrying more fractional digits than the token supports are rejected rather than truncated.
func ToSmallest(input string, decimals uint8) (*big.Int, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return nil, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("negative amount %q", raw)
	}
	shifted := d.Shift(int32(decimals))
	if !shifted.Equal(shifted.Truncate(0)) {
		return nil, fmt.Errorf("amount %q exceeds %d decimals", raw, decimals)
	}
	return shifted.BigInt(), nil
}

// FromSmallest converts an integer smallest-unit amount back to a plain decimal string.
func FromSmallest(value *big.Int, decimals uint8) string {
	return ToDecimal(value, decimals).String()
}

// ToDecimal scales a smallest-unit integer into a decimal value.
func ToDecimal(value *big.Int, decimals uint8) decimal.Decimal {
	if value == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(value, -int32(decimals))
}

// Display trims a number for on-screen use: at most six fractional digits,
// exponent form for magnitudes below 0.0001.
func Display(d decimal.Decimal) string {
	if d.IsZero() {
		return "0"
	}
	if d.Abs().LessThan(displayFloor) {
		f, _ := d.Float64()
		return fmt.Sprintf("%.2e", f)
	}
	return d.Round(displayDigits).String()
}

// DisplayString applies Display to a decimal string, returning "0" for unparsable input.
func DisplayString(input string) string {
	d, err := decimal.NewFromString(strings.TrimSpace(input))
	if err != nil {
		return "0"
	}
	return Display(d)
}
