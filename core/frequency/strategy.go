package frequency

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/vanadyn/flowbid/core/model"
	"github.com/vanadyn/flowbid/core/solver"
)

// errNotOptimal marks an exact solve that terminated without an optimal
// point. It is the signal to fall back, not a run failure.
var errNotOptimal = errors.New("frequency: exact solve not optimal")

// strategy produces an hourly capacity bid within limits. Implementations
// share the economics calculator so their objectives are identical.
type strategy interface {
	bid(ctx context.Context, b baseline, limits model.CapacityLimits, battery model.BatteryParameters, econ economics) ([model.HoursPerDay]float64, float64, error)
}

// exactStrategy solves the hourly capacity allocation as a linear program.
type exactStrategy struct {
	solver solver.Solver
}

func (s exactStrategy) bid(ctx context.Context, b baseline, limits model.CapacityLimits, battery model.BatteryParameters, econ economics) ([model.HoursPerDay]float64, float64, error) {
	var capacities [model.HoursPerDay]float64

	m := solver.NewModel()
	vars := make([]solver.Var, model.HoursPerDay)
	for h := 0; h < model.HoursPerDay; h++ {
		vars[h] = m.NewVar(fmt.Sprintf("c_freq[%d]", h), limits.Min[h], limits.Max[h])
		m.SetObjCoef(vars[h], econ.marginalProfit(h))

		// Headroom cap against the day-ahead commitment and a state of
		// charge cap on expected regulation throughput. Both are widened
		// floors of the original market rules and usually redundant with
		// the bid bounds.
		powerCap := math.Max(0.1, battery.PRated*headroomFrac-math.Abs(b.netPower[h]))
		m.AddLessEq([]solver.Term{{Var: vars[h], Coef: 1}}, powerCap)

		socCap := math.Max(1.0, 0.1*battery.ERated/econ.cost.AlphaFreq)
		m.AddLessEq([]solver.Term{{Var: vars[h], Coef: 1}}, socCap)
	}

	res, err := s.solver.Solve(ctx, m)
	if res == nil {
		return capacities, 0, fmt.Errorf("frequency: solver failed: %w", err)
	}
	switch res.Status {
	case solver.StatusOptimal:
	case solver.StatusInfeasible, solver.StatusUnbounded:
		return capacities, 0, fmt.Errorf("%w: %s", errNotOptimal, res.Status)
	default:
		if err == nil {
			err = errors.New(res.Status.String())
		}
		return capacities, 0, fmt.Errorf("frequency: solver failed: %w", err)
	}

	for h, v := range vars {
		c := res.Values[v]
		capacities[h] = math.Min(limits.Max[h], math.Max(limits.Min[h], c))
	}
	return capacities, res.Objective, nil
}

// greedyStrategy bids a fraction of each hour's capacity ceiling scaled by
// how profitable the hour looks. It cannot fail.
type greedyStrategy struct{}

const (
	minBidFraction = 0.3
	maxBidFraction = 0.8
)

func (greedyStrategy) bid(_ context.Context, _ baseline, limits model.CapacityLimits, _ model.BatteryParameters, econ economics) ([model.HoursPerDay]float64, float64, error) {
	var capacities [model.HoursPerDay]float64
	var objective float64

	costRate := econ.costRate()
	for h := 0; h < model.HoursPerDay; h++ {
		profitRate := econ.capacityRate(h) + econ.mileageRate(h)
		if profitRate <= costRate || costRate <= 0 {
			continue
		}
		fraction := (profitRate - costRate) / costRate
		fraction = math.Min(maxBidFraction, math.Max(minBidFraction, fraction))
		capacities[h] = limits.Max[h] * fraction
		objective += capacities[h] * (profitRate - costRate)
	}
	return capacities, objective, nil
}
