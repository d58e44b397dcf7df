package calculator

import (
	"errors"
	"math"

	"InsiderSentinel/internal/model"
)

// ATRPeriod is the standard Average True Range lookback.
const ATRPeriod = 14

// ErrInsufficientHistory is returned when there are too few bars for an indicator.
var ErrInsufficientHistory = errors.New("insufficient price history")

// TrueRange returns max(H-L, |H-prevC|, |L-prevC|).
func TrueRange(bar model.PriceBar, prevClose float64) float64 {
	tr1 := bar.High - bar.Low
	tr2 := math.Abs(bar.High - prevClose)
	tr3 := math.Abs(bar.Low - prevClose)
	return math.Max(tr1, math.Max(tr2, tr3))
}

// CalculateATR computes the Wilder-smoothed ATR over period using every bar given.
// Requires at least period+1 bars.
func CalculateATR(bars []model.PriceBar, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(bars) < period+1 {
		return 0, ErrInsufficientHistory
	}

	trueRanges := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		trueRanges = append(trueRanges, TrueRange(bars[i], bars[i-1].Close))
	}

	// Seed with the SMA of the first period true ranges.
	atr, err := CalculateSMA(trueRanges[:period], period)
	if err != nil {
		return 0, err
	}
	for i := period; i < len(trueRanges); i++ {
		atr = (atr*float64(period-1) + trueRanges[i]) / float64(period)
	}
	return atr, nil
}

// CalculateATR14 is CalculateATR with the standard period.
func CalculateATR14(bars []model.PriceBar) (float64, error) {
	return CalculateATR(bars, ATRPeriod)
}
