package currency

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/findash/internal/model"
)

// FormatAmount renders amount with the currency's symbol, grouping and fraction digits.
func FormatAmount(amount float64, cur model.Currency) string {
	// money.New never returns a nil currency, unlike GetCurrency.
	c := money.New(0, string(cur)).Currency()
	minor := decimal.NewFromFloat(amount).Shift(int32(c.Fraction)).Round(0).IntPart()
	return c.Formatter().Format(minor)
}
