// Package dayahead builds and solves the 96-interval day-ahead dispatch
// model: a time-coupled charge/discharge trajectory maximising arbitrage
// revenue net of degradation and fixed O&M costs. Failures at this stage are
// fatal; there is no fallback for the day-ahead market.
package dayahead

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vanadyn/flowbid/core/logger"
	"github.com/vanadyn/flowbid/core/model"
	"github.com/vanadyn/flowbid/core/solver"
)

// Sentinel errors for the two structural failure modes. A structural
// failure is never retried: the model, not the solver, is at fault.
var (
	ErrInfeasibleModel = errors.New("dayahead: model has no feasible point")
	ErrUnboundedModel  = errors.New("dayahead: objective is unbounded")
)

// SolveError wraps a solver process failure or budget exhaustion.
type SolveError struct {
	Err error
}

func (e *SolveError) Error() string { return fmt.Sprintf("dayahead: solver failed: %v", e.Err) }
func (e *SolveError) Unwrap() error { return e.Err }

// powerTol separates genuine dispatch activity from solver noise.
const powerTol = 1e-6

// Scheduler produces optimal day-ahead dispatch plans. The solver handle is
// used exclusively for the duration of one Solve call; concurrent solves
// need independent Schedulers.
type Scheduler struct {
	solver  solver.Solver
	timeout time.Duration
	log     logger.Logger
}

// New creates a Scheduler. A zero timeout leaves the solve bounded only by
// the solver's own node budget and the caller's context.
func New(s solver.Solver, timeout time.Duration, log logger.Logger) *Scheduler {
	return &Scheduler{solver: s, timeout: timeout, log: log}
}

// Solve validates the inputs, builds the dispatch model and returns the
// optimal plan. It fails with ErrInfeasibleModel, ErrUnboundedModel or a
// *SolveError; any failure aborts the run with no partial results.
func (s *Scheduler) Solve(ctx context.Context, forecast model.PriceForecast, params model.BatteryParameters) (*model.DispatchPlan, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if forecast.Len() != model.StepsPerDay {
		return nil, &model.DataFormatError{
			Reason: fmt.Sprintf("day-ahead forecast must have %d intervals, got %d", model.StepsPerDay, forecast.Len()),
		}
	}

	m, vars := buildModel(forecast, params)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := s.solver.Solve(ctx, m)
	if res == nil {
		return nil, &SolveError{Err: err}
	}
	switch res.Status {
	case solver.StatusOptimal:
		// proceed
	case solver.StatusInfeasible:
		return nil, ErrInfeasibleModel
	case solver.StatusUnbounded:
		return nil, ErrUnboundedModel
	default:
		return nil, &SolveError{Err: err}
	}
	if s.log != nil {
		s.log.Infof("day-ahead solve optimal: objective=%.2f duration=%s", res.Objective, time.Since(start))
	}

	return extractPlan(res, vars), nil
}

// modelVars maps interval indices to solver variables.
type modelVars struct {
	charge    [model.StepsPerDay]solver.Var
	discharge [model.StepsPerDay]solver.Var
	energy    [model.StepsPerDay]solver.Var
}

// buildModel translates the battery parameters and forecast into the linear
// model. Hour-level mutual exclusion is expressed as one exclusive group per
// hour over the four quarter-hour powers of each side; the solver branches
// on the categorical Idle/Charging/Discharging state.
func buildModel(forecast model.PriceForecast, p model.BatteryParameters) (*solver.Model, *modelVars) {
	m := solver.NewModel()
	vars := &modelVars{}

	maxP := p.MaxPower()
	eMin := p.SOCMin * p.ERated
	eMax := p.SOCMax * p.ERated

	for t := 0; t < model.StepsPerDay; t++ {
		vars.charge[t] = m.NewVar(fmt.Sprintf("charge_%d", t), 0, maxP)
		vars.discharge[t] = m.NewVar(fmt.Sprintf("discharge_%d", t), 0, maxP)
		if t == 0 {
			vars.energy[t] = m.NewVar("energy_0", p.E0, p.E0)
		} else {
			vars.energy[t] = m.NewVar(fmt.Sprintf("energy_%d", t), eMin, eMax)
		}
	}

	// Arbitrage revenue minus throughput degradation, fixed O&M as a
	// constant offset.
	for t := 0; t < model.StepsPerDay; t++ {
		price := forecast.At(t)
		m.SetObjCoef(vars.charge[t], -price*model.StepHours-p.DegradationK*model.StepHours/p.EtaCharge)
		m.SetObjCoef(vars.discharge[t], price*model.StepHours-p.DegradationK*p.EtaDischarge*model.StepHours)
	}
	m.SetObjConst(-p.FixedOMCost)

	// Energy recurrence E[t] = E[t-1] + eta_c*dt*c[t-1] - dt/eta_d*d[t-1].
	for t := 1; t < model.StepsPerDay; t++ {
		m.AddEqual([]solver.Term{
			{Var: vars.energy[t], Coef: 1},
			{Var: vars.energy[t-1], Coef: -1},
			{Var: vars.charge[t-1], Coef: -p.EtaCharge * model.StepHours},
			{Var: vars.discharge[t-1], Coef: model.StepHours / p.EtaDischarge},
		}, 0)
	}

	// End-of-day balance. The last interval's powers settle against the
	// target the same way every other interval settles into its successor,
	// so no interval trades outside the energy ledger.
	last := model.StepsPerDay - 1
	m.AddEqual([]solver.Term{
		{Var: vars.energy[last], Coef: 1},
		{Var: vars.charge[last], Coef: p.EtaCharge * model.StepHours},
		{Var: vars.discharge[last], Coef: -model.StepHours / p.EtaDischarge},
	}, p.ETarget)

	// Ramp limits between consecutive intervals, both directions.
	for t := 1; t < model.StepsPerDay; t++ {
		for _, side := range [2][model.StepsPerDay]solver.Var{vars.charge, vars.discharge} {
			m.AddLessEq([]solver.Term{{Var: side[t], Coef: 1}, {Var: side[t-1], Coef: -1}}, p.RampRate)
			m.AddLessEq([]solver.Term{{Var: side[t-1], Coef: 1}, {Var: side[t], Coef: -1}}, p.RampRate)
		}
	}

	// One categorical state per hour governs its four sub-intervals.
	for h := 0; h < model.HoursPerDay; h++ {
		chargeHour := make([]solver.Var, model.StepsPerHour)
		dischargeHour := make([]solver.Var, model.StepsPerHour)
		for i := 0; i < model.StepsPerHour; i++ {
			chargeHour[i] = vars.charge[h*model.StepsPerHour+i]
			dischargeHour[i] = vars.discharge[h*model.StepsPerHour+i]
		}
		m.AddExclusive(chargeHour, dischargeHour)
	}

	return m, vars
}

// extractPlan reads the assignment back into a DispatchPlan, deriving the
// hour states and zeroing the inactive side's numerical noise.
func extractPlan(res *solver.Result, vars *modelVars) *model.DispatchPlan {
	plan := &model.DispatchPlan{
		Charge:    make([]float64, model.StepsPerDay),
		Discharge: make([]float64, model.StepsPerDay),
		Energy:    make([]float64, model.StepsPerDay),
		Objective: res.Objective,
	}
	for t := 0; t < model.StepsPerDay; t++ {
		plan.Charge[t] = res.Values[vars.charge[t]]
		plan.Discharge[t] = res.Values[vars.discharge[t]]
		plan.Energy[t] = res.Values[vars.energy[t]]
	}
	for h := 0; h < model.HoursPerDay; h++ {
		var chargeSum, dischargeSum float64
		for i := 0; i < model.StepsPerHour; i++ {
			t := h*model.StepsPerHour + i
			chargeSum += plan.Charge[t]
			dischargeSum += plan.Discharge[t]
		}
		switch {
		case chargeSum > powerTol && chargeSum >= dischargeSum:
			plan.States[h] = model.HourCharging
			zeroHour(plan.Discharge, h)
		case dischargeSum > powerTol:
			plan.States[h] = model.HourDischarging
			zeroHour(plan.Charge, h)
		default:
			plan.States[h] = model.HourIdle
			zeroHour(plan.Charge, h)
			zeroHour(plan.Discharge, h)
		}
	}
	return plan
}

func zeroHour(steps []float64, h int) {
	for i := 0; i < model.StepsPerHour; i++ {
		t := h*model.StepsPerHour + i
		if steps[t] < powerTol {
			steps[t] = 0
		}
	}
}
