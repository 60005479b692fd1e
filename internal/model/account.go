package model

import (
	"fmt"
	"math"
	"time"
)

// AccountType classifies an asset account.
type AccountType string

const (
	AccountTypeCash       AccountType = "cash"
	AccountTypeBank       AccountType = "bank"
	AccountTypeInvestment AccountType = "investment"
	AccountTypeCredit     AccountType = "credit"
	AccountTypeCrypto     AccountType = "crypto"
	AccountTypeOther      AccountType = "other"
)

// ParseAccountType maps s to a known account type.
func ParseAccountType(s string) (AccountType, error) {
	switch t := AccountType(s); t {
	case AccountTypeCash, AccountTypeBank, AccountTypeInvestment,
		AccountTypeCredit, AccountTypeCrypto, AccountTypeOther:
		return t, nil
	default:
		return "", fmt.Errorf("unknown account type %q", s)
	}
}

// IsInvestment reports whether the account holds market-priced assets.
func (t AccountType) IsInvestment() bool {
	return t == AccountTypeInvestment || t == AccountTypeCrypto
}

// AssetAccount is a balance held in a single currency.
type AssetAccount struct {
	UpdatedAt time.Time   `json:"updatedAt"`
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Currency  Currency    `json:"currency"`
	Type      AccountType `json:"type"`
	Balance   float64     `json:"balance"`

	// DisplayBalance is Balance expressed in the reporting currency.
	// It is derived by the normalizer and never persisted.
	DisplayBalance float64 `json:"-"`
}

// Validate checks the account invariants.
func (a *AssetAccount) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidAccount)
	}
	if math.IsNaN(a.Balance) || math.IsInf(a.Balance, 0) {
		return fmt.Errorf("%w: balance must be finite", ErrInvalidAccount)
	}
	if !a.Currency.Valid() {
		return fmt.Errorf("%w: unknown currency %q", ErrInvalidAccount, a.Currency)
	}
	return nil
}
