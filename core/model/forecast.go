package model

import "fmt"

// PriceForecast is an immutable ordered sequence of nonnegative prices:
// 96 quarter-hour points for the day-ahead market, 24 hourly points for the
// frequency market.
type PriceForecast struct {
	prices []float64
}

// NewPriceForecast validates and wraps a price vector of the given length.
func NewPriceForecast(prices []float64, length int) (PriceForecast, error) {
	if len(prices) != length {
		return PriceForecast{}, &DataFormatError{
			Reason: fmt.Sprintf("expected %d prices, got %d", length, len(prices)),
		}
	}
	cp := make([]float64, len(prices))
	for i, p := range prices {
		if p < 0 {
			return PriceForecast{}, &DataFormatError{
				Reason: fmt.Sprintf("negative price %.2f at index %d", p, i),
			}
		}
		cp[i] = p
	}
	return PriceForecast{prices: cp}, nil
}

// NewDayAheadForecast wraps a 96-interval day-ahead price vector.
func NewDayAheadForecast(prices []float64) (PriceForecast, error) {
	return NewPriceForecast(prices, StepsPerDay)
}

func (f PriceForecast) Len() int { return len(f.prices) }

func (f PriceForecast) At(i int) float64 { return f.prices[i] }

// Values returns a copy of the underlying price vector.
func (f PriceForecast) Values() []float64 {
	cp := make([]float64, len(f.prices))
	copy(cp, f.prices)
	return cp
}

// HourlyHeads samples the first quarter-hour price of each hour, the hourly
// LMP view the frequency stage works with.
func (f PriceForecast) HourlyHeads() []float64 {
	if len(f.prices) != StepsPerDay {
		return f.Values()
	}
	out := make([]float64, HoursPerDay)
	for h := 0; h < HoursPerDay; h++ {
		out[h] = f.prices[h*StepsPerHour]
	}
	return out
}
