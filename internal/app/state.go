// Package app holds the dashboard session: the signed-in user, the live
// collections and everything derived from them.
package app

import (
	"github.com/Veraticus/findash/internal/model"
)

// State is a snapshot of the session. Observers receive their own copy.
type State struct {
	User     *model.User
	Settings *model.Settings
	// StoreErr is set when the store could not be opened. The session then
	// stays in the loading state.
	StoreErr          error
	AssetAccounts     []model.AssetAccount
	ProcessedAccounts []model.AssetAccount
	CashflowRecords   []model.CashflowRecord
	Budgets           []model.Budget
	Goals             []model.Goal
	Reporting         model.Currency
	LiveRate          float64
	EffectiveRate     float64
	// Loading is true until the store is connected.
	Loading bool
	// Synced is true while the user's collections are subscribed.
	Synced bool
}

// SignedIn reports whether a user is signed in.
func (s State) SignedIn() bool {
	return s.User != nil
}

// Clone returns a copy sharing no slices or pointers with s.
func (s State) Clone() State {
	out := s
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	out.Settings = s.Settings.Clone()
	out.AssetAccounts = cloneSlice(s.AssetAccounts)
	out.ProcessedAccounts = cloneSlice(s.ProcessedAccounts)
	out.CashflowRecords = cloneSlice(s.CashflowRecords)
	out.Budgets = cloneSlice(s.Budgets)
	out.Goals = cloneSlice(s.Goals)
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
