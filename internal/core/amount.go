package core

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// amountPattern matches the first integer or decimal token in free text.
// The decimal separator may be a dot or a comma; a leading minus is captured
// so negative inputs are rejected instead of silently turned positive.
var amountPattern = regexp.MustCompile(`-?\d+(?:[.,]\d+)?`)

// ParseAmount extracts a positive amount from free-form text such as
// "3.50", "2,50€" or "10". It fails with ErrNoAmount when no numeric token
// is present and with ErrInvalidAmount when the value is not positive.
func ParseAmount(text string) (Money, error) {
	token := amountPattern.FindString(text)
	if token == "" {
		return Money{}, ErrNoAmount
	}

	d, err := decimal.NewFromString(strings.ReplaceAll(token, ",", "."))
	if err != nil {
		return Money{}, ErrNoAmount
	}

	shifted := d.Shift(2).Round(0)
	if !shifted.BigInt().IsInt64() {
		// IntPart would wrap for values beyond 64 bits.
		return Money{}, ErrInvalidAmount
	}
	cents := shifted.IntPart()
	if cents <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents}, nil
}
