// Package coordinator composes the day-ahead and frequency branches of a
// bidding run into one joint declaration strategy. It does no solving of its
// own: the dispatch plan arrives solved, the frequency stage is delegated,
// and everything else is aggregation over inert views.
package coordinator

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vanadyn/flowbid/core/dayahead"
	"github.com/vanadyn/flowbid/core/forecast"
	"github.com/vanadyn/flowbid/core/frequency"
	"github.com/vanadyn/flowbid/core/logger"
	"github.com/vanadyn/flowbid/core/metrics"
	"github.com/vanadyn/flowbid/core/model"
	"github.com/vanadyn/flowbid/core/store"
)

// Inputs carries the upstream results and parameters of one delivery day.
type Inputs struct {
	// Plan is the solved day-ahead dispatch. It must not be nil: a failed
	// day-ahead solve aborts the run before coordination.
	Plan *model.DispatchPlan
	// Forecast is the 96-interval day-ahead price vector the plan was
	// solved against.
	Forecast model.PriceForecast
	Battery  model.BatteryParameters
	// Mode is the declaration mode selected for the day-ahead bid table.
	Mode model.BiddingMode

	// Market and Costs parameterise the frequency stage. The hourly LMP
	// and mileage price vectors are overwritten from the day-ahead
	// forecast and the price predictor before optimizing.
	Market frequency.MarketParams
	Costs  frequency.CostParams

	// Covariates optionally refine the mileage price prediction.
	Covariates *forecast.Covariates

	StationName string
}

// Coordinator merges both market branches into a model.JointStrategy and
// reports the run to the persistence and metrics collaborators.
type Coordinator struct {
	freq       *frequency.Scheduler
	forecaster forecast.Service
	recorder   store.Recorder
	sink       metrics.MetricsSink
	log        logger.Logger
}

// New creates a Coordinator. The recorder and sink may be the Nop
// implementations; the forecaster must not be nil.
func New(freq *frequency.Scheduler, forecaster forecast.Service, recorder store.Recorder, sink metrics.MetricsSink, log logger.Logger) *Coordinator {
	if recorder == nil {
		recorder = store.NopRecorder{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Coordinator{freq: freq, forecaster: forecaster, recorder: recorder, sink: sink, log: log}
}

// Run executes the frequency branch against the given day-ahead results and
// assembles the joint strategy. The frequency stage itself never fails;
// Run only errors on malformed inputs.
func (c *Coordinator) Run(ctx context.Context, in Inputs) (*model.JointStrategy, *model.FrequencyCapacityPlan, error) {
	if in.Plan == nil {
		return nil, nil, &model.ValidationError{Field: "plan", Reason: "dispatch plan is required"}
	}
	if err := in.Battery.Validate(); err != nil {
		return nil, nil, err
	}

	start := time.Now()
	market := c.marketParams(in)

	freqStart := time.Now()
	freqPlan := c.freq.Optimize(ctx, in.Plan, in.Battery, market, in.Costs)
	c.recordFrequencyStage(freqPlan, time.Since(freqStart))

	daKPIs := dayahead.ComputeKPIs(in.Plan, in.Forecast, in.Battery)
	strategy := c.assemble(in, freqPlan, daKPIs)
	c.report(strategy, in, time.Since(start))

	return strategy, freqPlan, nil
}

// marketParams fills the hourly price vectors of the frequency market: the
// LMP view comes from the day-ahead forecast and the mileage prices from the
// predictor. A prediction failure keeps the caller's (or default) mileage
// profile rather than aborting the run.
func (c *Coordinator) marketParams(in Inputs) frequency.MarketParams {
	market := in.Market

	if heads := in.Forecast.HourlyHeads(); len(heads) == model.HoursPerDay {
		copy(market.LMPDA[:], heads)
	}

	prices, err := c.forecaster.Predict(0, model.HoursPerDay, in.Covariates)
	if err != nil {
		if c.log != nil {
			c.log.Warnf("coordinator: mileage price prediction failed, keeping configured prices: %v", err)
		}
		return market
	}
	copy(market.MileagePrices[:], prices)

	if perf, err := c.forecaster.Performance(); err == nil {
		if rec, ok := c.sink.(metrics.ForecastRecorder); ok {
			_ = rec.RecordForecast(metrics.ForecastEvent{
				Model: "mileage-linreg",
				R2:    perf.R2,
				MAE:   perf.MAE,
				Time:  time.Now(),
			})
		}
	}
	return market
}

// assemble merges the hourly day-ahead and frequency views and computes the
// aggregated KPI blocks.
func (c *Coordinator) assemble(in Inputs, fp *model.FrequencyCapacityPlan, daKPIs model.DayAheadKPIs) *model.JointStrategy {
	s := &model.JointStrategy{
		RunID:    uuid.NewString(),
		Mode:     in.Mode,
		DayAhead: daKPIs,
		Status: model.StageStatus{
			DayAhead:  "optimal",
			Mode:      in.Mode.String(),
			Frequency: fp.Status.String(),
		},
	}

	charge := in.Plan.HourlyCharge()
	discharge := in.Plan.HourlyDischarge()
	energy := in.Plan.HourStartEnergy()

	for h := 0; h < model.HoursPerDay; h++ {
		cost := fp.DegradationCost[h] + fp.EfficiencyCost[h] + fp.OMCost[h]
		s.Hours[h] = model.JointHour{
			Hour:         h,
			TimeLabel:    model.HourLabel(h),
			Charge:       charge[h],
			Discharge:    discharge[h],
			NetPower:     discharge[h] - charge[h],
			SOC:          energy[h] / in.Battery.ERated,
			FreqCapacity: fp.Capacity[h],
			MileagePrice: fp.MileagePrices[h],

			CapacityRevenue: fp.CapacityRevenue[h],
			MileageRevenue:  fp.MileageRevenue[h],
			OperatingCost:   cost,
			FreqNetProfit:   fp.CapacityRevenue[h] + fp.MileageRevenue[h] - cost,
		}
	}

	s.Freq = model.FrequencyKPIs{
		TotalCapacity: fp.TotalCapacity(),
		TotalRevenue:  fp.TotalRevenue,
		TotalCost:     fp.TotalCost,
		NetProfit:     fp.NetProfit,
	}
	if fp.TotalRevenue > 0 {
		s.Freq.ProfitMargin = fp.NetProfit / fp.TotalRevenue
	}

	jointRevenue := daKPIs.DischargeRevenue + fp.TotalRevenue
	jointProfit := daKPIs.NetProfit + fp.NetProfit
	s.Joint = model.JointKPIs{
		JointRevenue: jointRevenue,
		JointProfit:  jointProfit,
	}
	if jointRevenue > 0 {
		s.Joint.ProfitMargin = jointProfit / jointRevenue
		s.Joint.FreqRevenueShare = fp.TotalRevenue / jointRevenue
	}
	return s
}

// report persists the decision record and emits the run event. Collaborator
// failures are logged and never propagate into the run result.
func (c *Coordinator) report(s *model.JointStrategy, in Inputs, elapsed time.Duration) {
	now := time.Now()
	rec := store.DecisionRecord{
		RunID:            s.RunID,
		RunTimestamp:     now,
		StationName:      in.StationName,
		MarketMode:       "joint",
		DecisionMode:     s.Status.Mode,
		NetProfit:        s.Joint.JointProfit,
		DAProfit:         s.DayAhead.NetProfit,
		FMProfit:         s.Freq.NetProfit,
		Throughput:       s.DayAhead.Throughput,
		EquivalentCycles: s.DayAhead.EquivalentCycles,
	}
	if err := c.recorder.SaveDecision(rec); err != nil && c.log != nil {
		c.log.Errorf("coordinator: persisting decision record: %v", err)
	}

	ev := metrics.RunEvent{
		RunID:           s.RunID,
		StationName:     in.StationName,
		BiddingMode:     s.Status.Mode,
		DayAheadStatus:  s.Status.DayAhead,
		FrequencyStatus: s.Status.Frequency,
		NetProfit:       s.Joint.JointProfit,
		DAProfit:        s.DayAhead.NetProfit,
		FMProfit:        s.Freq.NetProfit,
		Throughput:      s.DayAhead.Throughput,
		Duration:        elapsed,
		Time:            now,
	}
	if err := c.sink.RecordRun(ev); err != nil && c.log != nil {
		c.log.Warnf("coordinator: recording run metrics: %v", err)
	}

	if c.log != nil {
		c.log.Infof("coordinator: run=%s mode=%s joint_profit=%.2f da=%.2f fm=%.2f freq_share=%.3f",
			s.RunID, s.Status.Mode, s.Joint.JointProfit, s.DayAhead.NetProfit, s.Freq.NetProfit, s.Joint.FreqRevenueShare)
	}
}

func (c *Coordinator) recordFrequencyStage(fp *model.FrequencyCapacityPlan, elapsed time.Duration) {
	if rec, ok := c.sink.(metrics.SolveRecorder); ok {
		_ = rec.RecordSolve(metrics.SolveEvent{
			Stage:     "frequency",
			Status:    fp.Status.String(),
			Objective: fp.Objective,
			Duration:  elapsed,
			Time:      time.Now(),
		})
	}
	if fp.Status == model.FreqOptimal {
		return
	}
	if rec, ok := c.sink.(metrics.FallbackRecorder); ok {
		_ = rec.RecordFallback(metrics.FallbackEvent{
			Stage:  "frequency",
			Reason: fp.Status.String(),
			Time:   time.Now(),
		})
	}
}
