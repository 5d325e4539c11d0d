package service

import "golang-watchlist/internal/model"

// Score returns the number of checklist flags set true (0..10).
func Score(c model.Checklist) int {
	return c.Count()
}

// Upside returns the percentage gap between the target and current price,
// or nil when no target is set.
//
// currentPrice is always a positive quote by the time it reaches here; a
// zero or negative price is a caller bug, not a case this guards against.
func Upside(targetPrice *float64, currentPrice float64) *float64 {
	if targetPrice == nil {
		return nil
	}
	upside := (*targetPrice - currentPrice) / currentPrice * 100
	return &upside
}

// MADeviationPercent returns the percentage deviation of the current price
// from the 200-period moving average, or nil when the average is unknown.
// A price above the average yields a positive deviation.
func MADeviationPercent(movingAverage200 *float64, currentPrice float64) *float64 {
	if movingAverage200 == nil {
		return nil
	}
	deviation := (currentPrice - *movingAverage200) / *movingAverage200 * 100
	return &deviation
}
