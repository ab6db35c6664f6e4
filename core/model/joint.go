package model

// DayAheadKPIs summarises the economics of the day-ahead dispatch plan.
type DayAheadKPIs struct {
	NetProfit        float64
	DischargeRevenue float64
	ChargeCost       float64
	DegradationCost  float64
	Throughput       float64
	EquivalentCycles float64
	AvgProfitPerMWh  float64
}

// Map renders the KPIs as an inert key/value view for reporting.
func (k DayAheadKPIs) Map() map[string]float64 {
	return map[string]float64{
		"net_profit":         k.NetProfit,
		"discharge_revenue":  k.DischargeRevenue,
		"charge_cost":        k.ChargeCost,
		"degradation_cost":   k.DegradationCost,
		"throughput_mwh":     k.Throughput,
		"equivalent_cycles":  k.EquivalentCycles,
		"avg_profit_per_mwh": k.AvgProfitPerMWh,
	}
}

// FrequencyKPIs summarises the regulation-market participation.
type FrequencyKPIs struct {
	TotalCapacity float64
	TotalRevenue  float64
	TotalCost     float64
	NetProfit     float64
	ProfitMargin  float64
}

func (k FrequencyKPIs) Map() map[string]float64 {
	return map[string]float64{
		"total_capacity_mw": k.TotalCapacity,
		"total_revenue":     k.TotalRevenue,
		"total_cost":        k.TotalCost,
		"net_profit":        k.NetProfit,
		"profit_margin":     k.ProfitMargin,
	}
}

// JointKPIs aggregates both markets.
type JointKPIs struct {
	JointRevenue     float64
	JointProfit      float64
	ProfitMargin     float64
	FreqRevenueShare float64
}

func (k JointKPIs) Map() map[string]float64 {
	return map[string]float64{
		"joint_revenue":      k.JointRevenue,
		"joint_profit":       k.JointProfit,
		"profit_margin":      k.ProfitMargin,
		"freq_revenue_share": k.FreqRevenueShare,
	}
}

// JointHour merges one hour of the day-ahead dispatch and the frequency
// capacity bid.
type JointHour struct {
	Hour         int
	TimeLabel    string
	Charge       float64
	Discharge    float64
	NetPower     float64
	SOC          float64
	FreqCapacity float64
	MileagePrice float64

	CapacityRevenue float64
	MileageRevenue  float64
	OperatingCost   float64
	FreqNetProfit   float64
}

// StageStatus carries the per-stage status tags of a completed run.
type StageStatus struct {
	DayAhead  string
	Mode      string
	Frequency string
}

// JointStrategy is the merged hourly view of both market plans plus the
// aggregated KPIs. It is created per run and never persisted by the core.
type JointStrategy struct {
	RunID    string
	Hours    [HoursPerDay]JointHour
	Mode     BiddingMode
	DayAhead DayAheadKPIs
	Freq     FrequencyKPIs
	Joint    JointKPIs
	Status   StageStatus
}
