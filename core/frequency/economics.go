package frequency

import (
	"math"

	"github.com/vanadyn/flowbid/core/model"
)

// mileageFactor converts mileage price times performance into an hourly
// revenue rate per MW of capacity.
const mileageFactor = 0.1

// economics prices a capacity bid. Both planning strategies share it, so
// the exact solve and the heuristic fallback always agree on what a MW of
// capacity earns and costs.
type economics struct {
	market MarketParams
	cost   CostParams
}

// capacityRate is the hourly capacity compensation per MW: the day-ahead
// price excess over the verified cost, never negative.
func (e economics) capacityRate(h int) float64 {
	return math.Max(0, e.market.LMPDA[h]-e.cost.VerifiedCost)
}

// mileageRate is the hourly mileage compensation per MW.
func (e economics) mileageRate(h int) float64 {
	return e.market.MileagePrices[h] * e.market.PerformanceIndex[h] * mileageFactor
}

// costRate is the hourly operating cost per MW. Efficiency losses are
// excluded here and surface only in the reported breakdown.
func (e economics) costRate() float64 {
	return e.cost.DegradationRate*e.cost.AlphaFreq + e.cost.OMCostRate
}

// marginalProfit is the objective coefficient of one MW of capacity in
// hour h.
func (e economics) marginalProfit(h int) float64 {
	return e.capacityRate(h) + e.mileageRate(h) - e.costRate()
}

// fill computes the full revenue and cost breakdown for the chosen
// capacities and writes it, with totals, into the plan.
func (e economics) fill(plan *model.FrequencyCapacityPlan) {
	var revenue, cost float64
	for h := 0; h < model.HoursPerDay; h++ {
		c := plan.Capacity[h]

		plan.CapacityRevenue[h] = c * e.capacityRate(h)
		plan.MileageRevenue[h] = c * e.mileageRate(h)
		plan.DegradationCost[h] = c * e.cost.AlphaFreq * e.cost.DegradationRate
		plan.EfficiencyCost[h] = c * e.cost.AlphaFreq * e.cost.EfficiencyLossRate * e.market.LMPDA[h] * 0.01
		plan.OMCost[h] = c * e.cost.OMCostRate
		plan.MileagePrices[h] = e.market.MileagePrices[h]

		revenue += plan.CapacityRevenue[h] + plan.MileageRevenue[h]
		cost += plan.DegradationCost[h] + plan.EfficiencyCost[h] + plan.OMCost[h]
	}
	plan.TotalRevenue = revenue
	plan.TotalCost = cost
	plan.NetProfit = revenue - cost
}
