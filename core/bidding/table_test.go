package bidding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanadyn/flowbid/core/model"
	"github.com/vanadyn/flowbid/infra/logger"
)

func rowsByInterval(table model.BidTable) map[int][]model.BidRow {
	byInterval := make(map[int][]model.BidRow)
	for _, row := range table.Rows {
		byInterval[row.Interval] = append(byInterval[row.Interval], row)
	}
	return byInterval
}

func TestGenerate_QuantityOnlyOneRowPerInterval(t *testing.T) {
	gen := NewTableGenerator(logger.NopLogger{})
	forecast := troughPeakPrices(t)
	params := model.DefaultBatteryParameters()

	table := gen.Generate(model.QuantityOnly, arbitragePlan(), forecast, params)

	require.Len(t, table.Rows, model.StepsPerDay)
	assert.False(t, table.Degraded)
	for i, row := range table.Rows {
		assert.Equal(t, i, row.Interval)
		assert.Equal(t, model.IntervalLabel(i), row.TimeLabel)
	}

	// Charging intervals declare negative power at the forecast price.
	row := table.Rows[0]
	assert.Equal(t, model.BidCharge, row.Kind)
	assert.InDelta(t, -8.0, row.PowerMin, 1e-9)
	assert.InDelta(t, -8.0, row.PowerMax, 1e-9)
	assert.InDelta(t, 100.0, row.Price, 1e-9)
	assert.InDelta(t, -8*100*0.25, row.Expected, 1e-9)

	row = table.Rows[72]
	assert.Equal(t, model.BidDischarge, row.Kind)
	assert.InDelta(t, 8.0, row.PowerMin, 1e-9)
	assert.InDelta(t, 600.0, row.Price, 1e-9)
	assert.InDelta(t, 8*600*0.25, row.Expected, 1e-9)

	row = table.Rows[40]
	assert.Equal(t, model.BidIdle, row.Kind)
	assert.Zero(t, row.PowerMin)
	assert.Zero(t, row.PowerMax)
}

func TestGenerate_QuantityPriceChargeLadder(t *testing.T) {
	gen := NewTableGenerator(logger.NopLogger{})
	forecast := troughPeakPrices(t)
	params := model.DefaultBatteryParameters()

	table := gen.Generate(model.QuantityPrice, arbitragePlan(), forecast, params)
	byInterval := rowsByInterval(table)

	rows := byInterval[0]
	require.Len(t, rows, 3)

	base := 100.0/params.EtaCharge + params.DegradationK
	wantPrices := []float64{base + 5, base + 15, base + 30}
	var bandTotal float64
	for i, row := range rows {
		assert.Equal(t, model.BidCharge, row.Kind)
		assert.InDelta(t, wantPrices[i], row.Price, 1e-9)
		assert.LessOrEqual(t, row.PowerMin, row.PowerMax)
		assert.LessOrEqual(t, row.PowerMax, 0.0)
		bandTotal += row.PowerMax - row.PowerMin
	}
	// The three bands tile the dispatched 8 MW without overlap.
	assert.InDelta(t, 8.0, bandTotal, 1e-9)
	assert.InDelta(t, -8.0, rows[2].PowerMin, 1e-9)
	assert.InDelta(t, 0.0, rows[0].PowerMax, 1e-9)
}

func TestGenerate_QuantityPriceDischargeLadder(t *testing.T) {
	gen := NewTableGenerator(logger.NopLogger{})
	forecast := troughPeakPrices(t)
	params := model.DefaultBatteryParameters()

	table := gen.Generate(model.QuantityPrice, arbitragePlan(), forecast, params)
	byInterval := rowsByInterval(table)

	rows := byInterval[72]
	require.Len(t, rows, 3)

	base := (600.0 - params.DegradationK) * params.EtaDischarge
	wantPrices := []float64{base - 20, base - 10, base + 50}
	var bandTotal float64
	for i, row := range rows {
		assert.Equal(t, model.BidDischarge, row.Kind)
		assert.InDelta(t, wantPrices[i], row.Price, 1e-9)
		assert.GreaterOrEqual(t, row.PowerMin, 0.0)
		bandTotal += row.PowerMax - row.PowerMin
	}
	assert.InDelta(t, 8.0, bandTotal, 1e-9)
}

func TestGenerate_DischargePriceFloored(t *testing.T) {
	// At a near-zero forecast price the discounted rungs would price
	// below the market minimum and must be clamped to it.
	prices := make([]float64, model.StepsPerDay)
	for i := range prices {
		prices[i] = 5
	}
	forecast, err := model.NewDayAheadForecast(prices)
	require.NoError(t, err)

	plan := &model.DispatchPlan{
		Charge:    make([]float64, model.StepsPerDay),
		Discharge: make([]float64, model.StepsPerDay),
		Energy:    make([]float64, model.StepsPerDay),
	}
	plan.Discharge[10] = 4

	gen := NewTableGenerator(logger.NopLogger{})
	table := gen.Generate(model.QuantityPrice, plan, forecast, model.DefaultBatteryParameters())

	for _, row := range rowsByInterval(table)[10] {
		assert.GreaterOrEqual(t, row.Price, 10.0)
	}
}

func TestGenerate_BelowThresholdStaysIdle(t *testing.T) {
	// Solver noise below the activity threshold must not produce a
	// charge declaration.
	plan := &model.DispatchPlan{
		Charge:    make([]float64, model.StepsPerDay),
		Discharge: make([]float64, model.StepsPerDay),
		Energy:    make([]float64, model.StepsPerDay),
	}
	plan.Charge[3] = 0.005 // below threshold, stays idle

	forecast := troughPeakPrices(t)
	gen := NewTableGenerator(logger.NopLogger{})
	table := gen.Generate(model.QuantityPrice, plan, forecast, model.DefaultBatteryParameters())

	rows := rowsByInterval(table)[3]
	require.Len(t, rows, 1)
	assert.Equal(t, model.BidIdle, rows[0].Kind)
}

func TestGenerate_NilPlanDegradesToIdle(t *testing.T) {
	gen := NewTableGenerator(logger.NopLogger{})
	forecast := troughPeakPrices(t)

	for _, mode := range []model.BiddingMode{model.QuantityOnly, model.QuantityPrice} {
		table := gen.Generate(mode, nil, forecast, model.DefaultBatteryParameters())
		assert.True(t, table.Degraded)
		require.Len(t, table.Rows, model.StepsPerDay)
		for i, row := range table.Rows {
			assert.Equal(t, model.BidIdle, row.Kind)
			assert.Equal(t, i, row.Interval)
			assert.InDelta(t, forecast.At(i), row.Price, 1e-9)
		}
	}
}

func TestGenerate_EveryIntervalCoveredOnce(t *testing.T) {
	gen := NewTableGenerator(logger.NopLogger{})
	forecast := troughPeakPrices(t)

	table := gen.Generate(model.QuantityPrice, arbitragePlan(), forecast, model.DefaultBatteryParameters())
	byInterval := rowsByInterval(table)

	require.Len(t, byInterval, model.StepsPerDay)
	for i := 0; i < model.StepsPerDay; i++ {
		rows := byInterval[i]
		require.NotEmpty(t, rows, "interval %d missing", i)
		assert.LessOrEqual(t, len(rows), 3)
		kind := rows[0].Kind
		for _, row := range rows {
			assert.Equal(t, kind, row.Kind, "interval %d mixes kinds", i)
		}
	}
}

func TestIntervalLabel(t *testing.T) {
	assert.Equal(t, "00:00-00:15", model.IntervalLabel(0))
	assert.Equal(t, "00:45-01:00", model.IntervalLabel(3))
	assert.Equal(t, "13:30-13:45", model.IntervalLabel(54))
	assert.Equal(t, "23:45-24:00", model.IntervalLabel(95))
}
