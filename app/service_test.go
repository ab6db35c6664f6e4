package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanadyn/flowbid/app"
	"github.com/vanadyn/flowbid/config"
	"github.com/vanadyn/flowbid/core/forecast"
	"github.com/vanadyn/flowbid/core/model"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Store.Backend = "none"
	cfg.ModeSelect.NumScenarios = 200
	cfg.ModeSelect.Seed = 42
	return &cfg
}

func TestService_RunOnce(t *testing.T) {
	svc, err := app.New(testConfig())
	require.NoError(t, err)
	defer func() { assert.NoError(t, svc.Close()) }()

	out, err := svc.RunOnce(context.Background(), "")
	require.NoError(t, err)

	require.NotNil(t, out.Plan)
	assert.Len(t, out.Plan.Charge, model.StepsPerDay)
	assert.False(t, out.Table.Degraded)

	covered := make(map[int]bool)
	for _, row := range out.Table.Rows {
		covered[row.Interval] = true
	}
	assert.Len(t, covered, model.StepsPerDay)

	st := out.Strategy
	require.NotNil(t, st)
	assert.NotEmpty(t, st.RunID)
	assert.InDelta(t, st.DayAhead.NetProfit+st.Freq.NetProfit, st.Joint.JointProfit, 1e-6)
	require.NotNil(t, out.Freq)
	assert.Equal(t, out.Freq.Status.String(), st.Status.Frequency)
}

func TestService_RunOnceDeterministic(t *testing.T) {
	svc, err := app.New(testConfig())
	require.NoError(t, err)
	defer func() { assert.NoError(t, svc.Close()) }()

	first, err := svc.RunOnce(context.Background(), "")
	require.NoError(t, err)
	second, err := svc.RunOnce(context.Background(), "")
	require.NoError(t, err)

	assert.InDelta(t, first.Plan.Objective, second.Plan.Objective, 1e-9)
	assert.Equal(t, first.Decision.Mode, second.Decision.Mode)
	assert.InDelta(t, first.Strategy.Joint.JointProfit, second.Strategy.Joint.JointProfit, 1e-6)
}

func TestService_RunOnceFromCSV(t *testing.T) {
	prices := make([]float64, model.StepsPerDay)
	for i := range prices {
		switch {
		case i < 24:
			prices[i] = 100
		case i >= 68 && i < 92:
			prices[i] = 600
		default:
			prices[i] = 300
		}
	}
	f, err := model.NewDayAheadForecast(prices)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "prices.csv")
	out, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, forecast.WriteDayAheadCSV(out, f))
	require.NoError(t, out.Close())

	svc, err := app.New(testConfig())
	require.NoError(t, err)
	defer func() { assert.NoError(t, svc.Close()) }()

	res, err := svc.RunOnce(context.Background(), path)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, res.Forecast.At(0), 1e-9)

	// The spread between 100 and 600 is wide enough that the plan must
	// both charge and discharge.
	var charged, discharged float64
	for t2 := 0; t2 < model.StepsPerDay; t2++ {
		charged += res.Plan.Charge[t2]
		discharged += res.Plan.Discharge[t2]
	}
	assert.Greater(t, charged, 0.0)
	assert.Greater(t, discharged, 0.0)
}

func TestService_RunReturnsOutcome(t *testing.T) {
	svc, err := app.New(testConfig())
	require.NoError(t, err)
	defer func() { assert.NoError(t, svc.Close()) }()

	out, err := svc.Run(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, out.Strategy)
	assert.NotEmpty(t, out.Strategy.RunID)
}

func TestService_MissingPriceFile(t *testing.T) {
	svc, err := app.New(testConfig())
	require.NoError(t, err)
	defer func() { assert.NoError(t, svc.Close()) }()

	_, err = svc.RunOnce(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
}

func TestService_SQLiteStorePersistsRuns(t *testing.T) {
	cfg := testConfig()
	cfg.Store.Backend = "sqlite"
	cfg.Store.Path = filepath.Join(t.TempDir(), "flowbid.db")

	svc, err := app.New(cfg)
	require.NoError(t, err)
	defer func() { assert.NoError(t, svc.Close()) }()

	_, err = svc.RunOnce(context.Background(), "")
	require.NoError(t, err)

	info, err := os.Stat(cfg.Store.Path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
