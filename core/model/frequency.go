package model

// CapacityLimits bounds the per-hour regulation capacity bid, derived from
// the day-ahead baseline and the plant's regulation constraints.
type CapacityLimits struct {
	Min [HoursPerDay]float64
	Max [HoursPerDay]float64
}

// FreqStatus tags how the frequency capacity plan was produced.
type FreqStatus int

const (
	// FreqOptimal means the exact LP solved to optimality.
	FreqOptimal FreqStatus = iota
	// FreqHeuristic means the LP was infeasible or non-optimal and the
	// greedy heuristic produced the plan.
	FreqHeuristic
	// FreqErrorHeuristic means the solver failed outright; the heuristic
	// still produced a complete plan.
	FreqErrorHeuristic
)

func (s FreqStatus) String() string {
	switch s {
	case FreqOptimal:
		return "optimal"
	case FreqHeuristic:
		return "heuristic"
	default:
		return "error-with-heuristic"
	}
}

// FrequencyCapacityPlan is the hourly regulation capacity bid with its full
// revenue and cost breakdown. All cost terms are nonnegative and every bid
// lies within its hour's capacity limits.
type FrequencyCapacityPlan struct {
	Capacity [HoursPerDay]float64
	Limits   CapacityLimits

	CapacityRevenue [HoursPerDay]float64
	MileageRevenue  [HoursPerDay]float64
	DegradationCost [HoursPerDay]float64
	EfficiencyCost  [HoursPerDay]float64
	OMCost          [HoursPerDay]float64

	MileagePrices [HoursPerDay]float64

	TotalRevenue float64
	TotalCost    float64
	NetProfit    float64
	Objective    float64
	Status       FreqStatus
}

// TotalCapacity sums the hourly bids.
func (p *FrequencyCapacityPlan) TotalCapacity() float64 {
	var sum float64
	for _, c := range p.Capacity {
		sum += c
	}
	return sum
}
