package dayahead

import "github.com/vanadyn/flowbid/core/model"

// ComputeKPIs evaluates the economics of a dispatch plan against the
// forecast it was solved for.
func ComputeKPIs(plan *model.DispatchPlan, forecast model.PriceForecast, p model.BatteryParameters) model.DayAheadKPIs {
	var chargeCost, dischargeRevenue, degradationCost float64
	for t := 0; t < model.StepsPerDay; t++ {
		price := forecast.At(t)
		chargeCost += plan.Charge[t] * price * model.StepHours
		dischargeRevenue += plan.Discharge[t] * price * model.StepHours
		degradationCost += p.DegradationK * (plan.Charge[t]/p.EtaCharge + plan.Discharge[t]*p.EtaDischarge) * model.StepHours
	}

	throughput := plan.Throughput()
	kpis := model.DayAheadKPIs{
		NetProfit:        dischargeRevenue - chargeCost - degradationCost - p.FixedOMCost,
		DischargeRevenue: dischargeRevenue,
		ChargeCost:       chargeCost,
		DegradationCost:  degradationCost,
		Throughput:       throughput,
	}
	if p.ERated > 0 {
		kpis.EquivalentCycles = throughput / (2 * p.ERated)
	}
	if throughput > 0 {
		kpis.AvgProfitPerMWh = kpis.NetProfit / throughput
	}
	return kpis
}
