package frequency

import (
	"context"
	"errors"

	"github.com/vanadyn/flowbid/core/logger"
	"github.com/vanadyn/flowbid/core/model"
	"github.com/vanadyn/flowbid/core/solver"
)

// Scheduler plans the hourly regulation capacity bid around a day-ahead
// commitment. Unlike the day-ahead stage it never returns an error:
// regulation is optional revenue, so any exact-solve failure degrades to
// the greedy heuristic and is reported through the plan's status.
type Scheduler struct {
	exact    strategy
	fallback strategy
	log      logger.Logger
}

// New creates a Scheduler backed by s for the exact solve.
func New(s solver.Solver, log logger.Logger) *Scheduler {
	return &Scheduler{
		exact:    exactStrategy{solver: s},
		fallback: greedyStrategy{},
		log:      log,
	}
}

// Optimize produces the capacity plan for one delivery day. A nil dispatch
// plan is treated as an idle baseline. Zero-valued market or cost fields
// fall back to the reference defaults.
func (s *Scheduler) Optimize(ctx context.Context, plan *model.DispatchPlan, battery model.BatteryParameters, market MarketParams, costs CostParams) *model.FrequencyCapacityPlan {
	market = market.normalized()
	costs = costs.normalized()

	b := extractBaseline(plan, battery)
	limits := capacityLimits(b, battery, market)
	econ := economics{market: market, cost: costs}

	out := &model.FrequencyCapacityPlan{Limits: limits, Status: model.FreqOptimal}

	capacities, objective, err := s.exact.bid(ctx, b, limits, battery, econ)
	if err != nil {
		if errors.Is(err, errNotOptimal) {
			out.Status = model.FreqHeuristic
			if s.log != nil {
				s.log.Warnf("frequency: exact solve unusable, using heuristic bid: %v", err)
			}
		} else {
			out.Status = model.FreqErrorHeuristic
			if s.log != nil {
				s.log.Errorf("frequency: exact solve failed, using heuristic bid: %v", err)
			}
		}
		capacities, objective, _ = s.fallback.bid(ctx, b, limits, battery, econ)
	}

	out.Capacity = capacities
	out.Objective = objective
	econ.fill(out)

	if out.Status != model.FreqOptimal {
		// The heuristic objective is indicative only; report the priced
		// outcome instead.
		out.Objective = out.NetProfit
	}

	if s.log != nil {
		s.log.Infof("frequency: status=%s total_capacity=%.2fMW net_profit=%.2f", out.Status, out.TotalCapacity(), out.NetProfit)
	}
	return out
}
