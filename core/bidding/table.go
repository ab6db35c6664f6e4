package bidding

import (
	"fmt"
	"math"

	"github.com/vanadyn/flowbid/core/logger"
	"github.com/vanadyn/flowbid/core/model"
)

// activityTol is the dispatch power below which an interval is declared
// idle rather than as a charge or discharge bid.
const activityTol = 0.01

// priceFloor is the lowest admissible discharge ladder price in yuan/MWh.
const priceFloor = 10.0

// ladderTier is one rung of the three-segment price ladder, expressed as
// fractions of the interval's dispatched power plus a price adjustment on
// the marginal base price.
type ladderTier struct {
	lowFrac  float64
	highFrac float64
	priceAdj float64
	note     string
}

var chargeTiers = []ladderTier{
	{0, 0.5, 5, "conservative band, secures base volume"},
	{0.5, 0.9, 15, "core band around the forecast marginal price"},
	{0.9, 1.0, 30, "aggressive band, clears only at very low prices"},
}

var dischargeTiers = []ladderTier{
	{0, 0.5, -20, "conservative band, secures base volume"},
	{0.5, 0.9, -10, "core band around the forecast marginal price"},
	{0.9, 1.0, 50, "aggressive band, captures price spikes"},
}

// TableGenerator renders a dispatch plan as the bid table of the selected
// declaration mode. It never fails: a missing plan degrades to an all-idle
// submission so the market deadline is always met.
type TableGenerator struct {
	log logger.Logger
}

// NewTableGenerator creates a generator.
func NewTableGenerator(log logger.Logger) *TableGenerator {
	return &TableGenerator{log: log}
}

// Generate builds the submission for mode. Every one of the 96 intervals
// appears exactly once: as a single row in quantity-only mode, or as a
// single idle row or up to three ladder rows in quantity-price mode. A nil
// plan yields an all-idle table with Degraded set.
func (g *TableGenerator) Generate(mode model.BiddingMode, plan *model.DispatchPlan, forecast model.PriceForecast, params model.BatteryParameters) model.BidTable {
	if plan == nil {
		if g.log != nil {
			g.log.Warnf("bid table: no dispatch plan, submitting all-idle %s table", mode)
		}
		return idleTable(mode, forecast, "no dispatch plan, no charge or discharge declared")
	}

	table := model.BidTable{Mode: mode}
	for t := 0; t < forecast.Len(); t++ {
		charge, discharge := plan.Charge[t], plan.Discharge[t]
		switch {
		case charge > activityTol && discharge <= activityTol:
			table.Rows = append(table.Rows, g.chargeRows(mode, t, charge, forecast.At(t), params)...)
		case discharge > activityTol && charge <= activityTol:
			table.Rows = append(table.Rows, g.dischargeRows(mode, t, discharge, forecast.At(t), params)...)
		default:
			table.Rows = append(table.Rows, idleRow(t, forecast.At(t), "no charge or discharge activity"))
		}
	}
	return table
}

// chargeRows prices charging demand. The marginal base price is the
// forecast price grossed up by the charge efficiency plus the degradation
// coefficient; ladder tiers add a premium so deeper volume clears only at
// lower market prices. Charging bands are reported as negative power.
func (g *TableGenerator) chargeRows(mode model.BiddingMode, t int, power, price float64, params model.BatteryParameters) []model.BidRow {
	if mode == model.QuantityOnly {
		return []model.BidRow{{
			Interval:  t,
			TimeLabel: model.IntervalLabel(t),
			Kind:      model.BidCharge,
			PowerMin:  -power,
			PowerMax:  -power,
			Price:     price,
			Expected:  -power * price * model.StepHours,
			Note:      fmt.Sprintf("charge efficiency %.1f%%", params.EtaCharge*100),
		}}
	}

	base := price/params.EtaCharge + params.DegradationK
	rows := make([]model.BidRow, 0, len(chargeTiers))
	for _, tier := range chargeTiers {
		low, high := power*tier.lowFrac, power*tier.highFrac
		if high <= low {
			continue
		}
		rows = append(rows, model.BidRow{
			Interval:  t,
			TimeLabel: model.IntervalLabel(t),
			Kind:      model.BidCharge,
			PowerMin:  -high,
			PowerMax:  -low,
			Price:     base + tier.priceAdj,
			Expected:  -(high - low) * price * model.StepHours,
			Note:      tier.note,
		})
	}
	return rows
}

// dischargeRows prices discharge supply. The marginal base price is the
// forecast price net of degradation, scaled down by the discharge
// efficiency; ladder tiers discount the core volume and mark up the final
// slice. Every rung is floored at the market minimum.
func (g *TableGenerator) dischargeRows(mode model.BiddingMode, t int, power, price float64, params model.BatteryParameters) []model.BidRow {
	if mode == model.QuantityOnly {
		return []model.BidRow{{
			Interval:  t,
			TimeLabel: model.IntervalLabel(t),
			Kind:      model.BidDischarge,
			PowerMin:  power,
			PowerMax:  power,
			Price:     price,
			Expected:  power * price * model.StepHours,
			Note:      fmt.Sprintf("discharge efficiency %.1f%%", params.EtaDischarge*100),
		}}
	}

	base := (price - params.DegradationK) * params.EtaDischarge
	rows := make([]model.BidRow, 0, len(dischargeTiers))
	for _, tier := range dischargeTiers {
		low, high := power*tier.lowFrac, power*tier.highFrac
		if high <= low {
			continue
		}
		rows = append(rows, model.BidRow{
			Interval:  t,
			TimeLabel: model.IntervalLabel(t),
			Kind:      model.BidDischarge,
			PowerMin:  low,
			PowerMax:  high,
			Price:     math.Max(base+tier.priceAdj, priceFloor),
			Expected:  (high - low) * price * model.StepHours,
			Note:      tier.note,
		})
	}
	return rows
}

func idleRow(t int, price float64, note string) model.BidRow {
	return model.BidRow{
		Interval:  t,
		TimeLabel: model.IntervalLabel(t),
		Kind:      model.BidIdle,
		Price:     price,
		Note:      note,
	}
}

// idleTable declares every interval idle. Used when no plan is available.
func idleTable(mode model.BiddingMode, forecast model.PriceForecast, note string) model.BidTable {
	table := model.BidTable{Mode: mode, Degraded: true}
	for t := 0; t < forecast.Len(); t++ {
		table.Rows = append(table.Rows, idleRow(t, forecast.At(t), note))
	}
	return table
}
