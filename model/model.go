package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// MoneyPlaces is the number of decimal places every stored amount carries.
	MoneyPlaces = 2
	// MoneyDigits is the total number of digits a stored amount can hold.
	MoneyDigits = 12
)

var moneyLimit = decimal.New(1, MoneyDigits-MoneyPlaces)

// GenerateUUIDWithSuffix generates a UUID with a given module name as a suffix.
// This is useful for creating unique identifiers with context-specific prefixes.
func GenerateUUIDWithSuffix(module string) string {
	id := uuid.New()
	return fmt.Sprintf("%s_%s", module, id.String())
}

// HasMoneyPrecision reports whether amount fits the NUMERIC(12,2) columns without rounding.
func HasMoneyPrecision(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(MoneyPlaces))
}

// HasMoneyDigits reports whether the whole part of amount fits the NUMERIC(12,2) columns.
func HasMoneyDigits(amount decimal.Decimal) bool {
	return amount.Abs().LessThan(moneyLimit)
}

// FormatMoney renders an amount the way user-facing messages show it, e.g. "1,250.00$".
func FormatMoney(amount decimal.Decimal) string {
	fixed := amount.Abs().StringFixed(MoneyPlaces)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if amount.IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	b.WriteByte('$')
	return b.String()
}

// compare compares two decimal values based on the provided condition (e.g., >, <, ==).
func compare(value decimal.Decimal, condition string, compareTo decimal.Decimal) bool {
	cmp := value.Cmp(compareTo)
	switch condition {
	case ">":
		return cmp > 0
	case "<":
		return cmp < 0
	case ">=":
		return cmp >= 0
	case "<=":
		return cmp <= 0
	case "!=":
		return cmp != 0
	case "==":
		return cmp == 0
	}
	return false
}
