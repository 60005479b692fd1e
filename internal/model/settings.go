package model

import "time"

// SettingsDocumentID is the ID of the singleton settings document.
const SettingsDocumentID = "default"

// Settings holds the per-user preferences and recurring rules.
type Settings struct {
	UpdatedAt time.Time `json:"updatedAt"`
	// ManualRate overrides the live exchange rate when set and non-zero.
	ManualRate     *float64        `json:"manualRate,omitempty"`
	RecurringRules []RecurringRule `json:"recurringRules"`
}

// DefaultSettings returns the settings a user starts with.
func DefaultSettings() *Settings {
	return &Settings{
		RecurringRules: []RecurringRule{},
	}
}

// Clone returns a deep copy so callers can mutate rules without aliasing a snapshot.
func (s *Settings) Clone() *Settings {
	if s == nil {
		return nil
	}
	out := *s
	if s.ManualRate != nil {
		rate := *s.ManualRate
		out.ManualRate = &rate
	}
	out.RecurringRules = make([]RecurringRule, len(s.RecurringRules))
	for i, rule := range s.RecurringRules {
		if rule.LastGenerated != nil {
			t := *rule.LastGenerated
			rule.LastGenerated = &t
		}
		if rule.EndDate != nil {
			t := *rule.EndDate
			rule.EndDate = &t
		}
		out.RecurringRules[i] = rule
	}
	return &out
}

// Rule returns the rule with the given ID.
func (s *Settings) Rule(id string) (*RecurringRule, bool) {
	for i := range s.RecurringRules {
		if s.RecurringRules[i].ID == id {
			return &s.RecurringRules[i], true
		}
	}
	return nil, false
}
