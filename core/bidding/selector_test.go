package bidding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanadyn/flowbid/core/model"
	"github.com/vanadyn/flowbid/infra/logger"
)

// arbitragePlan charges 8 MW over the first four hours and discharges
// 8 MW over the evening peak, leaving everything else idle.
func arbitragePlan() *model.DispatchPlan {
	plan := &model.DispatchPlan{
		Charge:    make([]float64, model.StepsPerDay),
		Discharge: make([]float64, model.StepsPerDay),
		Energy:    make([]float64, model.StepsPerDay),
	}
	for t := 0; t < 16; t++ {
		plan.Charge[t] = 8
	}
	for t := 72; t < 88; t++ {
		plan.Discharge[t] = 8
	}
	return plan
}

func troughPeakPrices(t *testing.T) model.PriceForecast {
	t.Helper()
	prices := make([]float64, model.StepsPerDay)
	for i := range prices {
		switch {
		case i < 16:
			prices[i] = 100
		case i >= 72 && i < 88:
			prices[i] = 600
		default:
			prices[i] = 300
		}
	}
	f, err := model.NewDayAheadForecast(prices)
	require.NoError(t, err)
	return f
}

func TestSelect_ProfitablePlanKeepsQuantityOnly(t *testing.T) {
	// With the noise switched off both modes are deterministic, so the
	// ratios reduce to revenue/epsilon and the larger revenue wins.
	// Scaling a positive revenue by a clearing rate below one can only
	// lose money, so quantity-only must be kept.
	cfg := SelectorConfig{
		NumScenarios: 50,
		PriceStdDev:  0,
		ClearingMin:  0.8,
		ClearingMax:  0.8,
	}
	sel := NewModeSelector(cfg, logger.NopLogger{})

	d, err := sel.Select(context.Background(), arbitragePlan(), troughPeakPrices(t))
	require.NoError(t, err)

	assert.Equal(t, model.QuantityOnly, d.Mode)
	// 16 quarter-hours of 8 MW at 600 minus 16 quarter-hours at 100.
	assert.InDelta(t, 16000.0, d.QuantityOnlyMean, 1e-6)
	assert.InDelta(t, 12800.0, d.QuantityPriceMean, 1e-6)
	assert.InDelta(t, 0.0, d.QuantityOnlyStd, 1e-9)
	assert.Greater(t, d.QuantityOnlyRARR, d.QuantityPriceRARR)
}

func TestSelect_LossMakingPlanPrefersQuantityPrice(t *testing.T) {
	// A plan that only charges loses money in every scenario. Clearing
	// risk shrinks the loss, so the priced mode has the better ratio.
	plan := &model.DispatchPlan{
		Charge:    make([]float64, model.StepsPerDay),
		Discharge: make([]float64, model.StepsPerDay),
		Energy:    make([]float64, model.StepsPerDay),
	}
	for t2 := 0; t2 < 16; t2++ {
		plan.Charge[t2] = 8
	}

	cfg := SelectorConfig{
		NumScenarios: 50,
		PriceStdDev:  0,
		ClearingMin:  0.8,
		ClearingMax:  0.8,
	}
	sel := NewModeSelector(cfg, logger.NopLogger{})

	d, err := sel.Select(context.Background(), plan, troughPeakPrices(t))
	require.NoError(t, err)

	assert.Equal(t, model.QuantityPrice, d.Mode)
	assert.Less(t, d.QuantityOnlyMean, 0.0)
	assert.Greater(t, d.QuantityPriceRARR, d.QuantityOnlyRARR)
}

func TestSelect_Deterministic(t *testing.T) {
	cfg := DefaultSelectorConfig()
	cfg.Seed = 42
	cfg.Workers = 4

	var first ModeDecision
	for i := 0; i < 3; i++ {
		sel := NewModeSelector(cfg, logger.NopLogger{})
		d, err := sel.Select(context.Background(), arbitragePlan(), troughPeakPrices(t))
		require.NoError(t, err)
		if i == 0 {
			first = d
			continue
		}
		assert.Equal(t, first, d, "run %d diverged", i)
	}
}

func TestSelect_SeedChangesStatistics(t *testing.T) {
	cfgA := DefaultSelectorConfig()
	cfgA.Seed = 1
	cfgB := DefaultSelectorConfig()
	cfgB.Seed = 2

	dA, err := NewModeSelector(cfgA, logger.NopLogger{}).Select(context.Background(), arbitragePlan(), troughPeakPrices(t))
	require.NoError(t, err)
	dB, err := NewModeSelector(cfgB, logger.NopLogger{}).Select(context.Background(), arbitragePlan(), troughPeakPrices(t))
	require.NoError(t, err)

	assert.NotEqual(t, dA.QuantityOnlyMean, dB.QuantityOnlyMean)
}

func TestSelect_InputValidation(t *testing.T) {
	sel := NewModeSelector(DefaultSelectorConfig(), logger.NopLogger{})
	forecast := troughPeakPrices(t)

	_, err := sel.Select(context.Background(), nil, forecast)
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)

	short := &model.DispatchPlan{Charge: make([]float64, 4), Discharge: make([]float64, 4)}
	_, err = sel.Select(context.Background(), short, forecast)
	var derr *model.DataFormatError
	require.ErrorAs(t, err, &derr)

	bad := DefaultSelectorConfig()
	bad.NumScenarios = 0
	_, err = NewModeSelector(bad, logger.NopLogger{}).Select(context.Background(), arbitragePlan(), forecast)
	require.ErrorAs(t, err, &verr)

	bad = DefaultSelectorConfig()
	bad.ClearingMin = 0.9
	bad.ClearingMax = 0.7
	_, err = NewModeSelector(bad, logger.NopLogger{}).Select(context.Background(), arbitragePlan(), forecast)
	require.ErrorAs(t, err, &verr)
}
