package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// zero-decimal currencies per ISO 4217
var zeroDecimal = map[string]bool{"JPY": true, "KRW": true, "VND": true, "CLP": true, "ISK": true}

var symbols = map[string]string{"USD": "$", "EUR": "€", "GBP": "£", "JPY": "¥", "INR": "₹", "AUD": "A$", "CAD": "CA$"}

func exponent(currency string) int32 {
	if zeroDecimal[strings.ToUpper(currency)] {
		return 0
	}
	return 2
}

// ToMinorUnits converts a decimal amount to integer minor units, rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal, currency string) int64 {
	return amount.Shift(exponent(currency)).Round(0).IntPart()
}

// FromMinorUnits is the inverse of ToMinorUnits.
func FromMinorUnits(minor int64, currency string) decimal.Decimal {
	return decimal.New(minor, -exponent(currency))
}

// FormatPrice renders minor units as a display string like "$12.50" or "CHF 9.90".
func FormatPrice(minor int64, currency string) string {
	currency = strings.ToUpper(currency)
	amount := FromMinorUnits(minor, currency).StringFixed(exponent(currency))
	if sym, ok := symbols[currency]; ok {
		return sym + amount
	}
	return currency + " " + amount
}
