package currency

import (
	"errors"
	"fmt"
	"math"

	"github.com/Veraticus/findash/internal/model"
)

// DefaultLiveRate is the live rate assumed until the first successful fetch.
const DefaultLiveRate = 32.5

// ErrInvalidRate is returned for rates a user may not enter.
var ErrInvalidRate = errors.New("invalid exchange rate")

// EffectiveRate returns the manual rate when one is set and non-zero,
// otherwise the live rate.
func EffectiveRate(settings *model.Settings, live float64) float64 {
	if settings != nil && settings.ManualRate != nil && *settings.ManualRate != 0 {
		return *settings.ManualRate
	}
	return live
}

// ValidateRate rejects rates that are not finite and positive.
func ValidateRate(rate float64) error {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return fmt.Errorf("%w: %v is not a finite number", ErrInvalidRate, rate)
	}
	if rate <= 0 {
		return fmt.Errorf("%w: %v must be positive", ErrInvalidRate, rate)
	}
	return nil
}
