package utils

import (
	"alumni-portal/apperr"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts a major-unit amount (naira, dollars) to the
// smallest unit the gateway charges in. Amounts must be positive with at
// most two decimal places.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, apperr.Validation("Amount must be greater than zero")
	}
	minor := amount.Mul(hundred)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, apperr.Validation("Amount can have at most two decimal places")
	}
	if minor.GreaterThan(decimal.NewFromInt(1 << 53)) {
		return 0, apperr.Validation("Amount is too large")
	}
	return minor.IntPart(), nil
}

// FormatMinorUnits renders a smallest-unit amount in major units
func FormatMinorUnits(amount int64) string {
	return decimal.New(amount, -2).StringFixed(2)
}
