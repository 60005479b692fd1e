// Package model defines the documents stored per user and their invariants.
package model

import "errors"

// Validation errors.
var (
	ErrInvalidAccount = errors.New("invalid asset account")
	ErrInvalidRecord  = errors.New("invalid cashflow record")
	ErrInvalidRule    = errors.New("invalid recurring rule")
	ErrInvalidBudget  = errors.New("invalid budget")
	ErrInvalidGoal    = errors.New("invalid goal")
)
