// Package bidding turns a solved dispatch plan into a market submission.
// The ModeSelector chooses between the two declaration modes with a
// risk-adjusted Monte Carlo comparison, and the TableGenerator renders the
// plan as the mode's bid table.
package bidding

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/vanadyn/flowbid/core/logger"
	"github.com/vanadyn/flowbid/core/model"
)

// rarrEpsilon keeps the risk-adjusted return ratio finite when every
// scenario yields the same revenue.
const rarrEpsilon = 1e-9

// SelectorConfig tunes the Monte Carlo mode comparison.
type SelectorConfig struct {
	// NumScenarios is the number of perturbed price trajectories.
	NumScenarios int `json:"num_scenarios" yaml:"num_scenarios"`
	// PriceStdDev is the relative standard deviation of the forecast
	// error applied to every interval price.
	PriceStdDev float64 `json:"price_std_dev" yaml:"price_std_dev"`
	// ClearingMin and ClearingMax bound the per-scenario clearing
	// success rate drawn for the quantity-price mode.
	ClearingMin float64 `json:"clearing_min" yaml:"clearing_min"`
	ClearingMax float64 `json:"clearing_max" yaml:"clearing_max"`
	// Workers caps the evaluation goroutines. Zero means GOMAXPROCS.
	Workers int `json:"workers" yaml:"workers"`
	// Seed initialises the scenario random source. Runs with the same
	// seed and inputs produce the same decision.
	Seed int64 `json:"seed" yaml:"seed"`
}

// DefaultSelectorConfig returns the standard comparison settings: one
// thousand scenarios, 15% price noise, clearing rates between 70% and 95%.
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		NumScenarios: 1000,
		PriceStdDev:  0.15,
		ClearingMin:  0.70,
		ClearingMax:  0.95,
	}
}

func (c SelectorConfig) validate() error {
	if c.NumScenarios < 1 {
		return &model.ValidationError{Field: "num_scenarios", Reason: "must be at least 1"}
	}
	if c.PriceStdDev < 0 {
		return &model.ValidationError{Field: "price_std_dev", Reason: "must be non-negative"}
	}
	if c.ClearingMin < 0 || c.ClearingMax > 1 || c.ClearingMin > c.ClearingMax {
		return &model.ValidationError{Field: "clearing_min", Reason: "need 0 <= clearing_min <= clearing_max <= 1"}
	}
	return nil
}

// ModeDecision reports the selected mode together with the statistics that
// produced it.
type ModeDecision struct {
	Mode model.BiddingMode

	QuantityOnlyMean  float64
	QuantityOnlyStd   float64
	QuantityOnlyRARR  float64
	QuantityPriceMean float64
	QuantityPriceStd  float64
	QuantityPriceRARR float64
}

// ModeSelector ranks the two declaration modes by their risk-adjusted
// return ratio (mean scenario revenue over its standard deviation) under
// simulated price uncertainty.
type ModeSelector struct {
	cfg SelectorConfig
	log logger.Logger
}

// NewModeSelector creates a selector from cfg.
func NewModeSelector(cfg SelectorConfig, log logger.Logger) *ModeSelector {
	return &ModeSelector{cfg: cfg, log: log}
}

// scenario carries the pre-drawn randomness for one trajectory. Drawing
// everything up front from a single source keeps the result independent of
// worker scheduling.
type scenario struct {
	noise    []float64
	clearing float64
}

// Select runs the Monte Carlo comparison against the solved plan. The
// quantity-price mode wins only when its ratio is strictly greater; a tie
// keeps the simpler quantity-only mode.
func (s *ModeSelector) Select(ctx context.Context, plan *model.DispatchPlan, forecast model.PriceForecast) (ModeDecision, error) {
	if err := s.cfg.validate(); err != nil {
		return ModeDecision{}, err
	}
	if plan == nil {
		return ModeDecision{}, &model.ValidationError{Field: "plan", Reason: "mode selection needs a solved dispatch plan"}
	}
	n := forecast.Len()
	if len(plan.Charge) != n || len(plan.Discharge) != n {
		return ModeDecision{}, &model.DataFormatError{
			Reason: fmt.Sprintf("plan has %d intervals, forecast has %d", len(plan.Charge), n),
		}
	}

	scenarios := s.drawScenarios(n)

	qoRevenues := make([]float64, s.cfg.NumScenarios)
	qpRevenues := make([]float64, s.cfg.NumScenarios)
	if err := s.evaluate(ctx, plan, forecast, scenarios, qoRevenues, qpRevenues); err != nil {
		return ModeDecision{}, err
	}

	d := ModeDecision{
		QuantityOnlyMean:  stat.Mean(qoRevenues, nil),
		QuantityOnlyStd:   stat.PopStdDev(qoRevenues, nil),
		QuantityPriceMean: stat.Mean(qpRevenues, nil),
		QuantityPriceStd:  stat.PopStdDev(qpRevenues, nil),
	}
	d.QuantityOnlyRARR = d.QuantityOnlyMean / (d.QuantityOnlyStd + rarrEpsilon)
	d.QuantityPriceRARR = d.QuantityPriceMean / (d.QuantityPriceStd + rarrEpsilon)

	d.Mode = model.QuantityOnly
	if d.QuantityPriceRARR > d.QuantityOnlyRARR {
		d.Mode = model.QuantityPrice
	}

	if s.log != nil {
		s.log.Infof("mode selection: quantity-only rarr=%.3f (mean=%.2f std=%.2f), quantity-price rarr=%.3f (mean=%.2f std=%.2f) -> %s",
			d.QuantityOnlyRARR, d.QuantityOnlyMean, d.QuantityOnlyStd,
			d.QuantityPriceRARR, d.QuantityPriceMean, d.QuantityPriceStd, d.Mode)
	}
	return d, nil
}

// drawScenarios pre-generates every random draw serially from one source.
func (s *ModeSelector) drawScenarios(n int) []scenario {
	rng := rand.New(rand.NewSource(uint64(s.cfg.Seed)))
	normal := distuv.Normal{Mu: 0, Sigma: s.cfg.PriceStdDev, Src: rng}
	uniform := distuv.Uniform{Min: s.cfg.ClearingMin, Max: s.cfg.ClearingMax, Src: rng}

	scenarios := make([]scenario, s.cfg.NumScenarios)
	for i := range scenarios {
		noise := make([]float64, n)
		if s.cfg.PriceStdDev > 0 {
			for t := range noise {
				noise[t] = normal.Rand()
			}
		}
		clearing := s.cfg.ClearingMin
		if s.cfg.ClearingMax > s.cfg.ClearingMin {
			clearing = uniform.Rand()
		}
		scenarios[i] = scenario{noise: noise, clearing: clearing}
	}
	return scenarios
}

// evaluate computes both modes' revenue for every scenario with a bounded
// worker pool.
func (s *ModeSelector) evaluate(ctx context.Context, plan *model.DispatchPlan, forecast model.PriceForecast, scenarios []scenario, qo, qp []float64) error {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(scenarios) {
		workers = len(scenarios)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				base := scenarioRevenue(plan, forecast, scenarios[i].noise)
				qo[i] = base
				qp[i] = base * scenarios[i].clearing
			}
		}()
	}

	var ctxErr error
feed:
	for i := range scenarios {
		select {
		case <-ctx.Done():
			ctxErr = ctx.Err()
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if ctxErr != nil {
		return fmt.Errorf("bidding: mode selection cancelled: %w", ctxErr)
	}
	return nil
}

// scenarioRevenue prices the fixed plan against one perturbed trajectory.
// Perturbed prices are floored at zero.
func scenarioRevenue(plan *model.DispatchPlan, forecast model.PriceForecast, noise []float64) float64 {
	var revenue float64
	for t := 0; t < forecast.Len(); t++ {
		price := forecast.At(t) * (1 + noise[t])
		price = math.Max(0, price)
		revenue += (plan.Discharge[t] - plan.Charge[t]) * price * model.StepHours
	}
	return revenue
}
