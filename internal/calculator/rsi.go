package calculator

import (
	"errors"
	"fmt"
)

// ErrUndefinedRSI means the window holds too few closes or no price movement at all.
var ErrUndefinedRSI = errors.New("rsi undefined")

// CalculateRSI computes the RSI of the latest close using simple rolling means of gains
// and losses over period changes. Gaps are skipped.
func CalculateRSI(closes []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	valid := make([]float64, 0, len(closes))
	for _, c := range closes {
		if usable(c) {
			valid = append(valid, c)
		}
	}
	if len(valid) < period+1 {
		return 0, fmt.Errorf("%w: %d closes for period %d", ErrUndefinedRSI, len(valid), period)
	}

	var gain, loss float64
	for i := len(valid) - period; i < len(valid); i++ {
		change := valid[i] - valid[i-1]
		if change > 0 {
			gain += change
		} else {
			loss -= change
		}
	}
	gain /= float64(period)
	loss /= float64(period)

	if loss == 0 {
		if gain == 0 {
			return 0, fmt.Errorf("%w: flat window", ErrUndefinedRSI)
		}
		return 100.0, nil
	}
	rs := gain / loss
	return 100.0 - 100.0/(1.0+rs), nil
}
