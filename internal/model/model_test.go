package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCurrency(t *testing.T) {
	got, err := ParseCurrency(" usd ")
	require.NoError(t, err)
	assert.Equal(t, CurrencyUSD, got)

	_, err = ParseCurrency("BTC")
	assert.Error(t, err)
}

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		input   string
		want    Frequency
		wantErr bool
	}{
		{input: "monthly", want: FrequencyMonthly},
		{input: "Week", want: FrequencyWeekly},
		{input: "day", want: FrequencyDaily},
		{input: "yearly", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFrequency(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAssetAccountValidate(t *testing.T) {
	valid := AssetAccount{ID: "a", Currency: CurrencyTWD, Balance: 10}
	require.NoError(t, valid.Validate())

	nan := valid
	nan.Balance = math.NaN()
	assert.ErrorIs(t, nan.Validate(), ErrInvalidAccount)

	unknown := valid
	unknown.Currency = "XXX"
	assert.ErrorIs(t, unknown.Validate(), ErrInvalidAccount)
}

func TestRecurringRuleValidate(t *testing.T) {
	anchor := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	before := anchor.AddDate(0, -1, 0)

	rule := RecurringRule{ID: "r", Frequency: FrequencyMonthly, AnchorDate: anchor}
	require.NoError(t, rule.Validate())

	rule.EndDate = &before
	assert.ErrorIs(t, rule.Validate(), ErrInvalidRule)

	rule.EndDate = nil
	rule.Frequency = "hourly"
	assert.ErrorIs(t, rule.Validate(), ErrInvalidRule)
}

func TestSettingsClone(t *testing.T) {
	rate := 31.0
	last := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	settings := &Settings{
		ManualRate: &rate,
		RecurringRules: []RecurringRule{
			{ID: "rent", LastGenerated: &last},
		},
	}

	clone := settings.Clone()
	*clone.ManualRate = 30
	*clone.RecurringRules[0].LastGenerated = last.AddDate(0, 1, 0)
	clone.RecurringRules[0].ID = "changed"

	assert.InDelta(t, 31.0, *settings.ManualRate, 1e-9)
	assert.True(t, last.Equal(*settings.RecurringRules[0].LastGenerated))
	assert.Equal(t, "rent", settings.RecurringRules[0].ID)

	rule, ok := clone.Rule("changed")
	require.True(t, ok)
	assert.Equal(t, "changed", rule.ID)

	_, ok = clone.Rule("rent")
	assert.False(t, ok)

	assert.Nil(t, (*Settings)(nil).Clone())
}

func TestCashflowRecordIsIncome(t *testing.T) {
	assert.True(t, CashflowRecord{Amount: 10}.IsIncome())
	assert.False(t, CashflowRecord{Amount: -10}.IsIncome())
	assert.False(t, CashflowRecord{}.IsIncome())
}
