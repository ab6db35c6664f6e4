package model

// HourState is the categorical operating state of one market hour. Mutual
// exclusion of charging and discharging is structural: an hour has exactly
// one state governing its four quarter-hour intervals.
type HourState int

const (
	HourIdle HourState = iota
	HourCharging
	HourDischarging
)

func (s HourState) String() string {
	switch s {
	case HourCharging:
		return "charging"
	case HourDischarging:
		return "discharging"
	default:
		return "idle"
	}
}

// DispatchPlan is the optimal day-ahead trajectory: per-interval charge and
// discharge power (MW), stored energy (MWh) at the start of each interval,
// and the per-hour operating state. Consumers read it without mutation.
type DispatchPlan struct {
	Charge    []float64
	Discharge []float64
	Energy    []float64
	States    [HoursPerDay]HourState

	// Objective is the solver objective: arbitrage revenue minus
	// degradation and fixed O&M costs.
	Objective float64
}

// HourlyCharge block-averages the quarter-hour charge powers into 24 values.
func (p *DispatchPlan) HourlyCharge() [HoursPerDay]float64 {
	return hourlyMean(p.Charge)
}

// HourlyDischarge block-averages the quarter-hour discharge powers.
func (p *DispatchPlan) HourlyDischarge() [HoursPerDay]float64 {
	return hourlyMean(p.Discharge)
}

// HourlyNetPower returns discharge minus charge per hour, positive when the
// plant injects into the grid.
func (p *DispatchPlan) HourlyNetPower() [HoursPerDay]float64 {
	ch := p.HourlyCharge()
	dis := p.HourlyDischarge()
	var net [HoursPerDay]float64
	for h := range net {
		net[h] = dis[h] - ch[h]
	}
	return net
}

// HourStartEnergy returns the stored energy at the start of each hour.
func (p *DispatchPlan) HourStartEnergy() [HoursPerDay]float64 {
	var out [HoursPerDay]float64
	for h := 0; h < HoursPerDay; h++ {
		out[h] = p.Energy[h*StepsPerHour]
	}
	return out
}

// Throughput is the total charged plus discharged energy over the day, MWh.
func (p *DispatchPlan) Throughput() float64 {
	var total float64
	for t := range p.Charge {
		total += (p.Charge[t] + p.Discharge[t]) * StepHours
	}
	return total
}

func hourlyMean(steps []float64) [HoursPerDay]float64 {
	var out [HoursPerDay]float64
	for h := 0; h < HoursPerDay; h++ {
		var sum float64
		for i := 0; i < StepsPerHour; i++ {
			sum += steps[h*StepsPerHour+i]
		}
		out[h] = sum / StepsPerHour
	}
	return out
}
