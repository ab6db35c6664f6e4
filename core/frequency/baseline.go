package frequency

import (
	"math"

	"github.com/vanadyn/flowbid/core/model"
)

// baseline is the hourly view of the day-ahead commitment that regulation
// capacity must fit around.
type baseline struct {
	netPower [model.HoursPerDay]float64
	soc      [model.HoursPerDay]float64
}

// extractBaseline block-averages the quarter-hour dispatch into hourly net
// power and takes the hour-start state of charge. A missing plan reduces to
// an idle baseline at the initial state of charge, so regulation planning
// can still proceed.
func extractBaseline(plan *model.DispatchPlan, params model.BatteryParameters) baseline {
	var b baseline
	if plan == nil || len(plan.Energy) != model.StepsPerDay {
		for h := range b.soc {
			if params.ERated > 0 {
				b.soc[h] = params.E0 / params.ERated
			}
		}
		return b
	}

	b.netPower = plan.HourlyNetPower()
	energy := plan.HourStartEnergy()
	for h := range b.soc {
		if params.ERated > 0 {
			b.soc[h] = energy[h] / params.ERated
		}
	}
	return b
}

// safetyMarginFrac and headroomFrac derate the rated power before it is
// offered as regulation capacity.
const (
	safetyMarginFrac = 0.05
	headroomFrac     = 0.8
	absoluteCapMW    = 5.0
)

// capacityLimits derives the admissible bid range per hour. The lower bound
// is always zero (the plant may sit out any hour); the upper bound is the
// most conservative of the ramp, rated-power, demand-share and headroom
// caps, widened to at least 0.1 MW so the bid range is never degenerate.
func capacityLimits(b baseline, battery model.BatteryParameters, market MarketParams) model.CapacityLimits {
	var limits model.CapacityLimits

	rate := math.Min(market.MeasuredRegulationRate, battery.PRated*0.1)
	demandShare := market.ControlAreaDemand * 0.1 / float64(market.NumUnits)

	for h := 0; h < model.HoursPerDay; h++ {
		available := math.Max(0, battery.PRated-math.Abs(b.netPower[h])-battery.PRated*safetyMarginFrac)

		options := []float64{
			rate * 2,
			battery.PRated * 0.1,
			demandShare,
			available * headroomFrac,
			absoluteCapMW,
		}

		max := math.Inf(1)
		for _, opt := range options {
			if opt > 0 && opt < max {
				max = opt
			}
		}
		if math.IsInf(max, 1) {
			max = 0
		}

		limits.Min[h] = 0
		limits.Max[h] = math.Max(limits.Min[h]+0.1, max)
	}
	return limits
}
