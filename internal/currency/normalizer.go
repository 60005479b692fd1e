// Package currency converts account balances into the reporting currency and
// tracks the exchange rate used for the conversion.
package currency

import (
	"github.com/Veraticus/findash/internal/model"
)

// Normalize returns a copy of accounts with DisplayBalance expressed in the
// reporting currency. Balances already in the reporting currency are copied
// as-is; every other balance is multiplied by rate. The input is not modified
// and the rate is not validated.
func Normalize(accounts []model.AssetAccount, rate float64, reporting model.Currency) []model.AssetAccount {
	out := make([]model.AssetAccount, len(accounts))
	for i, account := range accounts {
		if account.Currency == reporting {
			account.DisplayBalance = account.Balance
		} else {
			account.DisplayBalance = account.Balance * rate
		}
		out[i] = account
	}
	return out
}

// TotalDisplayBalance sums the normalized balances.
func TotalDisplayBalance(accounts []model.AssetAccount) float64 {
	var total float64
	for _, account := range accounts {
		total += account.DisplayBalance
	}
	return total
}
