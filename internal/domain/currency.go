package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ReportingCurrency is the currency every amount is normalized to.
const ReportingCurrency = "EUR"

// CurrencyRates converts one unit of a currency into the reporting currency.
// The rates are fixed approximations without an effective date.
var CurrencyRates = map[string]decimal.Decimal{
	"EUR": decimal.NewFromInt(1),
	"CAD": decimal.RequireFromString("0.704"),
	"CHF": decimal.RequireFromString("1.155"),
	"USD": decimal.RequireFromString("0.92"),
}

// RateFor returns the conversion rate for a currency code. Unknown and empty
// codes use a rate of 1.
func RateFor(currency string) decimal.Decimal {
	if rate, ok := CurrencyRates[strings.ToUpper(strings.TrimSpace(currency))]; ok {
		return rate
	}
	return decimal.NewFromInt(1)
}

// ToReportingCurrency converts an amount into the reporting currency, rounded
// to the cent.
func ToReportingCurrency(amount float64, currency string) float64 {
	return decimal.NewFromFloat(amount).Mul(RateFor(currency)).Round(2).InexactFloat64()
}
