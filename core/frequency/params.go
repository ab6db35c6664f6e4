// Package frequency plans the hourly regulation capacity bid on top of a
// solved day-ahead dispatch. Regulation revenue is optional, so planning
// never fails: when the exact solve cannot be used the package degrades to
// a greedy heuristic and tags the result accordingly.
package frequency

import (
	"math"

	"github.com/vanadyn/flowbid/core/model"
)

// MarketParams describes the regulation market for one delivery day.
type MarketParams struct {
	// LMPDA is the hourly day-ahead locational marginal price, yuan/MWh.
	LMPDA [model.HoursPerDay]float64 `json:"lmp_da" yaml:"lmp_da"`
	// MileagePrices is the forecast hourly mileage clearing price, yuan/MW.
	MileagePrices [model.HoursPerDay]float64 `json:"mileage_prices" yaml:"mileage_prices"`
	// MileageDistance is the forecast hourly regulation mileage, MW.
	MileageDistance [model.HoursPerDay]float64 `json:"mileage_distance" yaml:"mileage_distance"`
	// PerformanceIndex is the plant's composite regulation performance
	// score per hour, in (0,1].
	PerformanceIndex [model.HoursPerDay]float64 `json:"performance_index" yaml:"performance_index"`

	// MeasuredRegulationRate is the plant's tested ramp capability, MW/min.
	MeasuredRegulationRate float64 `json:"measured_regulation_rate" yaml:"measured_regulation_rate"`
	// ControlAreaDemand is the control area's regulation requirement, MW.
	ControlAreaDemand float64 `json:"control_area_demand" yaml:"control_area_demand"`
	// NumUnits is the number of units sharing that requirement.
	NumUnits int `json:"num_units" yaml:"num_units"`
}

// CostParams carries the regulated cost figures used to price capacity.
type CostParams struct {
	// VerifiedCost is the regulator-approved cost basis, yuan/MWh.
	// Capacity compensation pays only the LMP excess over it.
	VerifiedCost float64 `json:"verified_cost" yaml:"verified_cost"`
	// DegradationRate prices stack wear per MW of awarded capacity per hour.
	DegradationRate float64 `json:"degradation_rate" yaml:"degradation_rate"`
	// EfficiencyLossRate is the round-trip loss attributed to regulation
	// cycling, reported in the cost breakdown only.
	EfficiencyLossRate float64 `json:"efficiency_loss_rate" yaml:"efficiency_loss_rate"`
	// OMCostRate is the variable O&M cost per MW per hour.
	OMCostRate float64 `json:"om_cost_rate" yaml:"om_cost_rate"`
	// AlphaFreq scales capacity into expected regulation activity.
	AlphaFreq float64 `json:"alpha_freq" yaml:"alpha_freq"`
}

// DefaultMarketParams returns a synthetic but plausible regulation day:
// sinusoidal price and mileage profiles around the typical levels.
func DefaultMarketParams() MarketParams {
	p := MarketParams{
		MeasuredRegulationRate: 1.5,
		ControlAreaDemand:      500,
		NumUnits:               10,
	}
	for t := 0; t < model.HoursPerDay; t++ {
		phase := 2 * math.Pi * float64(t) / model.HoursPerDay
		p.LMPDA[t] = 300 + 100*math.Sin(phase)
		p.MileageDistance[t] = 50 + 20*math.Sin(phase)
		p.MileagePrices[t] = 25 + 10*math.Sin(phase)
		p.PerformanceIndex[t] = 0.85
	}
	return p
}

// DefaultCostParams returns the reference plant's regulated cost figures.
func DefaultCostParams() CostParams {
	return CostParams{
		VerifiedCost:       250,
		DegradationRate:    0.5,
		EfficiencyLossRate: 0.02,
		OMCostRate:         0.3,
		AlphaFreq:          0.15,
	}
}

// normalized replaces unusable zero or negative fields with the defaults so
// planning can always proceed.
func (p MarketParams) normalized() MarketParams {
	def := DefaultMarketParams()
	if p.MeasuredRegulationRate <= 0 {
		p.MeasuredRegulationRate = def.MeasuredRegulationRate
	}
	if p.ControlAreaDemand <= 0 {
		p.ControlAreaDemand = def.ControlAreaDemand
	}
	if p.NumUnits <= 0 {
		p.NumUnits = def.NumUnits
	}
	return p
}

func (c CostParams) normalized() CostParams {
	def := DefaultCostParams()
	if c.AlphaFreq <= 0 {
		c.AlphaFreq = def.AlphaFreq
	}
	if c.OMCostRate < 0 {
		c.OMCostRate = def.OMCostRate
	}
	if c.DegradationRate < 0 {
		c.DegradationRate = def.DegradationRate
	}
	return c
}
