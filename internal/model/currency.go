package model

import (
	"fmt"
	"strings"
)

// Currency is an ISO 4217 code from the set of currencies the dashboard understands.
type Currency string

const (
	CurrencyTWD Currency = "TWD"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyJPY Currency = "JPY"
	CurrencyGBP Currency = "GBP"
	CurrencyCNY Currency = "CNY"
	CurrencyHKD Currency = "HKD"
)

// DefaultReportingCurrency is the currency balances are displayed in.
const DefaultReportingCurrency = CurrencyTWD

// Currencies lists every known currency.
var Currencies = []Currency{
	CurrencyTWD,
	CurrencyUSD,
	CurrencyEUR,
	CurrencyJPY,
	CurrencyGBP,
	CurrencyCNY,
	CurrencyHKD,
}

// Valid reports whether c is one of the known currencies.
func (c Currency) Valid() bool {
	for _, known := range Currencies {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCurrency normalizes s and checks it against the known set.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown currency %q", s)
	}
	return c, nil
}
