package model

import (
	"fmt"
	"time"
)

// Budget caps spending in a category per month.
type Budget struct {
	UpdatedAt time.Time `json:"updatedAt"`
	ID        string    `json:"id"`
	Category  string    `json:"category"`
	Limit     float64   `json:"limit"`
}

// Validate checks the budget invariants.
func (b *Budget) Validate() error {
	if b.ID == "" || b.Category == "" {
		return fmt.Errorf("%w: missing ID or category", ErrInvalidBudget)
	}
	if b.Limit <= 0 {
		return fmt.Errorf("%w: limit must be positive", ErrInvalidBudget)
	}
	return nil
}

// Goal is a savings target, optionally funded from a single category.
type Goal struct {
	Deadline     *time.Time `json:"deadline,omitempty"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Category     string     `json:"category,omitempty"`
	TargetAmount float64    `json:"targetAmount"`
}

// Validate checks the goal invariants.
func (g *Goal) Validate() error {
	if g.ID == "" || g.Name == "" {
		return fmt.Errorf("%w: missing ID or name", ErrInvalidGoal)
	}
	if g.TargetAmount <= 0 {
		return fmt.Errorf("%w: target must be positive", ErrInvalidGoal)
	}
	return nil
}
