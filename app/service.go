// Package app wires the configuration into a runnable decision service: the
// day-ahead solve, the mode selection, the bid table, the frequency stage
// and the joint aggregation, with persistence and metrics attached.
package app

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vanadyn/flowbid/config"
	"github.com/vanadyn/flowbid/core/bidding"
	"github.com/vanadyn/flowbid/core/coordinator"
	"github.com/vanadyn/flowbid/core/dayahead"
	"github.com/vanadyn/flowbid/core/forecast"
	"github.com/vanadyn/flowbid/core/frequency"
	coremetrics "github.com/vanadyn/flowbid/core/metrics"
	"github.com/vanadyn/flowbid/core/model"
	"github.com/vanadyn/flowbid/core/solver"
	"github.com/vanadyn/flowbid/core/store"
	"github.com/vanadyn/flowbid/infra/logger"
	"github.com/vanadyn/flowbid/infra/metrics"
	infrastore "github.com/vanadyn/flowbid/infra/store"
)

// Outcome bundles everything one decision run produces.
type Outcome struct {
	Forecast model.PriceForecast
	Plan     *model.DispatchPlan
	Decision bidding.ModeDecision
	Table    model.BidTable
	Freq     *model.FrequencyCapacityPlan
	Strategy *model.JointStrategy
}

// Service runs complete bidding decisions for one plant.
type Service struct {
	cfg *config.Config
	log logger.Logger

	scheduler *dayahead.Scheduler
	selector  *bidding.ModeSelector
	tables    *bidding.TableGenerator
	coord     *coordinator.Coordinator

	sink     coremetrics.MetricsSink
	recorder store.Recorder
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	cfg.Logging.Apply()
	logg := logger.New("service")

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	var recorder store.Recorder = store.NopRecorder{}
	if cfg.Store.Backend == "sqlite" {
		rec, err := infrastore.NewSQLiteRecorder(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("decision store: %w", err)
		}
		profile := store.StationProfile{
			Name:           cfg.Station.Name,
			Location:       cfg.Station.Location,
			CommissionDate: cfg.Station.CommissionDate,
			ERated:         cfg.Battery.ERated,
			PRated:         cfg.Battery.PRated,
		}
		if err := rec.SaveProfile(profile); err != nil {
			logg.Warnf("saving station profile: %v", err)
		}
		recorder = rec
	}

	forecaster := forecast.NewMileagePredictor(cfg.Forecast.PriceUpperLimit, cfg.Forecast.PriceMinUnit, logger.New("forecast"))
	history := forecast.SyntheticMileageHistory(cfg.Forecast.TrainingDays,
		rand.New(rand.NewSource(cfg.Forecast.Seed)), cfg.Forecast.PriceUpperLimit, cfg.Forecast.PriceMinUnit)
	if err := forecaster.Train(history); err != nil {
		return nil, fmt.Errorf("training mileage predictor: %w", err)
	}

	daSolver := solver.NewBranchBound()
	if cfg.DayAhead.MaxNodes > 0 {
		daSolver.MaxNodes = cfg.DayAhead.MaxNodes
	}
	timeout := time.Duration(cfg.DayAhead.TimeoutSeconds) * time.Second

	freqSched := frequency.New(solver.NewBranchBound(), logger.New("frequency"))

	return &Service{
		cfg:       cfg,
		log:       logg,
		scheduler: dayahead.New(daSolver, timeout, logger.New("dayahead")),
		selector:  bidding.NewModeSelector(cfg.ModeSelect, logger.New("mode-select")),
		tables:    bidding.NewTableGenerator(logger.New("bid-table")),
		coord:     coordinator.New(freqSched, forecaster, recorder, sink, logger.New("coordinator")),
		sink:      sink,
		recorder:  recorder,
	}, nil
}

// RunOnce executes one complete decision: load or synthesise the day-ahead
// forecast, solve the dispatch, pick the declaration mode, render the bid
// table and run the joint coordination.
func (s *Service) RunOnce(ctx context.Context, pricesCSV string) (*Outcome, error) {
	prices, err := s.dayAheadForecast(pricesCSV)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	plan, err := s.scheduler.Solve(ctx, prices, s.cfg.Battery)
	s.recordSolve("dayahead", plan, err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("day-ahead stage: %w", err)
	}

	decision, err := s.selector.Select(ctx, plan, prices)
	if err != nil {
		return nil, fmt.Errorf("mode selection: %w", err)
	}
	table := s.tables.Generate(decision.Mode, plan, prices, s.cfg.Battery)

	strategy, freqPlan, err := s.coord.Run(ctx, coordinator.Inputs{
		Plan:        plan,
		Forecast:    prices,
		Battery:     s.cfg.Battery,
		Mode:        decision.Mode,
		Market:      s.cfg.Frequency.Market,
		Costs:       s.cfg.Frequency.Costs,
		StationName: s.cfg.Station.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("joint coordination: %w", err)
	}

	return &Outcome{
		Forecast: prices,
		Plan:     plan,
		Decision: decision,
		Table:    table,
		Freq:     freqPlan,
		Strategy: strategy,
	}, nil
}

// Run executes a single decision with the metrics endpoint exposed for its
// duration and logs the outcome summary.
func (s *Service) Run(ctx context.Context, pricesCSV string) (*Outcome, error) {
	s.startPromServer(ctx)
	out, err := s.RunOnce(ctx, pricesCSV)
	if err != nil {
		return nil, err
	}
	s.logOutcome(out)
	return out, nil
}

// Schedule runs the decision pipeline on the configured cron expression
// until the context is cancelled.
func (s *Service) Schedule(ctx context.Context, pricesCSV string) error {
	s.startPromServer(ctx)

	c := cron.New()
	_, err := c.AddFunc(s.cfg.Schedule.Cron, func() {
		out, err := s.RunOnce(ctx, pricesCSV)
		if err != nil {
			s.log.Errorf("scheduled run failed: %v", err)
			return
		}
		s.logOutcome(out)
	})
	if err != nil {
		return fmt.Errorf("schedule: %w", err)
	}

	s.log.Infof("scheduler started: cron=%q", s.cfg.Schedule.Cron)
	c.Start()
	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	return nil
}

// Close releases the persistence handle.
func (s *Service) Close() error { return s.recorder.Close() }

func (s *Service) dayAheadForecast(pricesCSV string) (model.PriceForecast, error) {
	if pricesCSV != "" {
		f, err := os.Open(pricesCSV)
		if err != nil {
			return model.PriceForecast{}, fmt.Errorf("opening price file: %w", err)
		}
		defer f.Close()
		prices, err := forecast.ReadDayAheadCSV(f)
		if err != nil {
			return model.PriceForecast{}, fmt.Errorf("reading price file: %w", err)
		}
		return prices, nil
	}
	rng := rand.New(rand.NewSource(s.cfg.Forecast.Seed))
	return forecast.SyntheticDayAheadPrices(s.cfg.Forecast.DayAheadBasePrice, rng)
}

func (s *Service) recordSolve(stage string, plan *model.DispatchPlan, err error, elapsed time.Duration) {
	rec, ok := s.sink.(coremetrics.SolveRecorder)
	if !ok {
		return
	}
	ev := coremetrics.SolveEvent{Stage: stage, Status: "optimal", Duration: elapsed, Time: time.Now()}
	if err != nil {
		ev.Status = "failed"
	} else if plan != nil {
		ev.Objective = plan.Objective
	}
	if err := rec.RecordSolve(ev); err != nil {
		s.log.Warnf("recording solve metrics: %v", err)
	}
}

func (s *Service) startPromServer(ctx context.Context) {
	addr := s.cfg.Metrics.PrometheusAddr
	if addr == "" {
		return
	}
	go func() {
		if err := metrics.StartPromServer(ctx, addr); err != nil {
			s.log.Errorf("prom server: %v", err)
		}
	}()
}

func (s *Service) logOutcome(out *Outcome) {
	st := out.Strategy
	s.log.Infof("run %s complete: mode=%s da_profit=%.2f fm_profit=%.2f joint_profit=%.2f bid_rows=%d freq_status=%s",
		st.RunID, st.Status.Mode, st.DayAhead.NetProfit, st.Freq.NetProfit, st.Joint.JointProfit,
		len(out.Table.Rows), st.Status.Frequency)
}
