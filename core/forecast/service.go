// Package forecast provides the price inputs for a bidding run: a trained
// regression model for hourly regulation mileage prices, plus generators
// and file loaders for the 96-interval day-ahead price curve.
package forecast

// Sample is one historical observation of the regulation market.
type Sample struct {
	Hour                 int
	DayOfWeek            int
	FrequencyDemand      float64
	SystemLoad           float64
	RenewablePenetration float64
	Price                float64
}

// Covariates carries optional exogenous forecasts for prediction. Missing
// or short slices fall back to the model's seasonal defaults.
type Covariates struct {
	SystemLoad           []float64
	RenewablePenetration []float64
}

// Performance summarises a trained model's in-sample accuracy.
type Performance struct {
	R2        float64
	MAE       float64
	MinPrice  float64
	MaxPrice  float64
	MeanPrice float64
}

// Service predicts regulation mileage prices. Implementations must return
// nonnegative prices clipped to the market's upper limit and rounded to
// its minimum price unit.
type Service interface {
	Train(samples []Sample) error
	Predict(startHour, horizon int, cov *Covariates) ([]float64, error)
	Performance() (Performance, error)
}
