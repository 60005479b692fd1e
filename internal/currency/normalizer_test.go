package currency

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/findash/internal/model"
)

func TestNormalize(t *testing.T) {
	accounts := []model.AssetAccount{
		{ID: "a", Currency: model.CurrencyUSD, Balance: 100},
		{ID: "b", Currency: model.CurrencyTWD, Balance: 5000},
		{ID: "c", Currency: model.CurrencyUSD, Balance: -20},
	}

	got := Normalize(accounts, 32.5, model.CurrencyTWD)

	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.InDelta(t, 3250.0, got[0].DisplayBalance, 1e-9)
	assert.InDelta(t, 5000.0, got[1].DisplayBalance, 1e-9)
	assert.InDelta(t, -650.0, got[2].DisplayBalance, 1e-9)

	// Input is left alone.
	assert.Zero(t, accounts[0].DisplayBalance)
	assert.InDelta(t, 100.0, got[0].Balance, 1e-9)
}

func TestNormalize_EdgeCases(t *testing.T) {
	tests := []struct {
		name     string
		accounts []model.AssetAccount
		rate     float64
		want     []float64
	}{
		{
			name:     "empty input",
			accounts: []model.AssetAccount{},
			rate:     32.5,
			want:     []float64{},
		},
		{
			name:     "zero rate is not validated",
			accounts: []model.AssetAccount{{Currency: model.CurrencyUSD, Balance: 10}},
			rate:     0,
			want:     []float64{0},
		},
		{
			name:     "negative rate is not validated",
			accounts: []model.AssetAccount{{Currency: model.CurrencyUSD, Balance: 10}},
			rate:     -2,
			want:     []float64{-20},
		},
		{
			name:     "reporting currency ignores rate",
			accounts: []model.AssetAccount{{Currency: model.CurrencyTWD, Balance: 10}},
			rate:     0,
			want:     []float64{10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.accounts, tt.rate, model.CurrencyTWD)
			require.Len(t, got, len(tt.want))
			for i, want := range tt.want {
				assert.InDelta(t, want, got[i].DisplayBalance, 1e-9)
			}
		})
	}
}

func TestTotalDisplayBalance(t *testing.T) {
	accounts := Normalize([]model.AssetAccount{
		{Currency: model.CurrencyUSD, Balance: 100},
		{Currency: model.CurrencyTWD, Balance: 750},
	}, 32.5, model.CurrencyTWD)

	assert.InDelta(t, 4000.0, TotalDisplayBalance(accounts), 1e-9)
}

func TestEffectiveRate(t *testing.T) {
	manual := 31.0
	zero := 0.0

	tests := []struct {
		settings *model.Settings
		name     string
		live     float64
		want     float64
	}{
		{name: "nil settings", settings: nil, live: 32.8, want: 32.8},
		{name: "no manual rate", settings: &model.Settings{}, live: 32.8, want: 32.8},
		{name: "manual rate wins", settings: &model.Settings{ManualRate: &manual}, live: 32.8, want: 31.0},
		{name: "zero manual rate falls back", settings: &model.Settings{ManualRate: &zero}, live: 32.8, want: 32.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, EffectiveRate(tt.settings, tt.live), 1e-9)
		})
	}
}

func TestValidateRate(t *testing.T) {
	assert.NoError(t, ValidateRate(32.5))
	assert.ErrorIs(t, ValidateRate(0), ErrInvalidRate)
	assert.ErrorIs(t, ValidateRate(-1), ErrInvalidRate)
	assert.ErrorIs(t, ValidateRate(math.NaN()), ErrInvalidRate)
	assert.ErrorIs(t, ValidateRate(math.Inf(1)), ErrInvalidRate)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "$3,250.50", FormatAmount(3250.5, model.CurrencyUSD))
	assert.Equal(t, "$0.01", FormatAmount(0.005, model.CurrencyUSD))
}
