package forecast

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanadyn/flowbid/core/model"
)

func trainedPredictor(t *testing.T) *MileagePredictor {
	t.Helper()
	p := NewMileagePredictor(50, 0.1, nil)
	history := SyntheticMileageHistory(90, rand.New(rand.NewSource(42)), 50, 0.1)
	require.NoError(t, p.Train(history))
	return p
}

func TestPredict_RespectsMarketConstraints(t *testing.T) {
	p := trainedPredictor(t)

	prices, err := p.Predict(0, 24, nil)
	require.NoError(t, err)
	require.Len(t, prices, 24)

	for h, price := range prices {
		assert.GreaterOrEqual(t, price, 0.0, "hour %d", h)
		assert.LessOrEqual(t, price, 50.0, "hour %d", h)
		// Rounded to the 0.1 tick.
		scaled := price * 10
		assert.InDelta(t, float64(int64(scaled+0.5)), scaled, 1e-6, "hour %d", h)
	}
}

func TestPredict_MonotonicInSystemLoad(t *testing.T) {
	// On a dataset where the price is a clean linear function of the
	// system load, the fitted model must preserve the load ordering.
	rng := rand.New(rand.NewSource(7))
	samples := SyntheticMileageHistory(30, rng, 50, 0)
	for i := range samples {
		samples[i].Price = samples[i].SystemLoad / 1000
	}

	p := NewMileagePredictor(50, 0, nil)
	require.NoError(t, p.Train(samples))

	low := &Covariates{SystemLoad: repeat(15000, 24)}
	high := &Covariates{SystemLoad: repeat(25000, 24)}

	lowPrices, err := p.Predict(0, 24, low)
	require.NoError(t, err)
	highPrices, err := p.Predict(0, 24, high)
	require.NoError(t, err)

	for h := 0; h < 24; h++ {
		assert.Greater(t, highPrices[h], lowPrices[h], "hour %d", h)
	}
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestPredict_UsesCovariates(t *testing.T) {
	p := trainedPredictor(t)

	base, err := p.Predict(0, 24, nil)
	require.NoError(t, err)

	high := &Covariates{RenewablePenetration: make([]float64, 24)}
	for h := range high.RenewablePenetration {
		high.RenewablePenetration[h] = 0.9
	}
	boosted, err := p.Predict(0, 24, high)
	require.NoError(t, err)

	var baseSum, boostedSum float64
	for h := range base {
		baseSum += base[h]
		boostedSum += boosted[h]
	}
	assert.NotEqual(t, baseSum, boostedSum)
}

func TestPredict_ColdStartTrainsItself(t *testing.T) {
	p := NewMileagePredictor(50, 0.1, nil)

	_, err := p.Performance()
	require.ErrorIs(t, err, ErrNotTrained)

	prices, err := p.Predict(0, 0, nil)
	require.NoError(t, err)
	assert.Len(t, prices, model.HoursPerDay)

	perf, err := p.Performance()
	require.NoError(t, err)
	assert.Greater(t, perf.R2, 0.5)
	assert.Greater(t, perf.MeanPrice, 0.0)
}

func TestTrain_RejectsTinyDatasets(t *testing.T) {
	p := NewMileagePredictor(50, 0.1, nil)
	err := p.Train(SyntheticMileageHistory(90, rand.New(rand.NewSource(1)), 50, 0.1)[:5])
	require.Error(t, err)
}

func TestPredict_RejectsBadStartHour(t *testing.T) {
	p := trainedPredictor(t)
	_, err := p.Predict(24, 24, nil)
	require.Error(t, err)
	_, err = p.Predict(-1, 24, nil)
	require.Error(t, err)
}

func TestSyntheticMileageHistory_Deterministic(t *testing.T) {
	a := SyntheticMileageHistory(7, rand.New(rand.NewSource(9)), 50, 0.1)
	b := SyntheticMileageHistory(7, rand.New(rand.NewSource(9)), 50, 0.1)
	assert.Equal(t, a, b)
	assert.Len(t, a, 7*model.HoursPerDay)
	for _, s := range a {
		assert.GreaterOrEqual(t, s.Price, 5.0)
		assert.LessOrEqual(t, s.Price, 50.0)
	}
}
