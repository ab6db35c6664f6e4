package model

// Time discretisation of the day-ahead market.
const (
	HoursPerDay  = 24
	StepsPerHour = 4
	StepsPerDay  = HoursPerDay * StepsPerHour
	StepHours    = 0.25
)

// BatteryParameters describes the technical and economic parameters of a
// flow-battery storage plant. Powers are MW, energies MWh, prices per MWh.
type BatteryParameters struct {
	ERated  float64 `json:"e_rated" yaml:"e_rated"`
	PRated  float64 `json:"p_rated" yaml:"p_rated"`
	E0      float64 `json:"e_0" yaml:"e_0"`
	ETarget float64 `json:"e_target" yaml:"e_target"`

	EtaCharge    float64 `json:"eta_charge" yaml:"eta_charge"`
	EtaDischarge float64 `json:"eta_discharge" yaml:"eta_discharge"`

	SOCMin float64 `json:"soc_min" yaml:"soc_min"`
	SOCMax float64 `json:"soc_max" yaml:"soc_max"`

	// DegradationK is the per-MWh degradation cost coefficient applied to
	// throughput, FixedOMCost the daily operations and maintenance cost.
	DegradationK float64 `json:"degradation_k" yaml:"degradation_k"`
	FixedOMCost  float64 `json:"fixed_om_cost" yaml:"fixed_om_cost"`
	MaxCycles    float64 `json:"max_cycles" yaml:"max_cycles"`

	// RampRate bounds the power change between consecutive 15-minute
	// intervals, in MW.
	RampRate float64 `json:"ramp_rate" yaml:"ramp_rate"`

	// Electrolyte flow bounds in m3/h. FlowPowerRatio links flow demand to
	// power; when zero the flow bounds are carried but unconstrained.
	QFlowMin       float64 `json:"q_flow_min" yaml:"q_flow_min"`
	QFlowMax       float64 `json:"q_flow_max" yaml:"q_flow_max"`
	FlowPowerRatio float64 `json:"flow_power_ratio" yaml:"flow_power_ratio"`

	InitialSOC float64 `json:"initial_soc" yaml:"initial_soc"`
}

// DefaultBatteryParameters returns the reference 50 MWh / 10 MW plant.
func DefaultBatteryParameters() BatteryParameters {
	return BatteryParameters{
		ERated:         50,
		PRated:         10,
		E0:             25,
		ETarget:        25,
		EtaCharge:      0.9,
		EtaDischarge:   0.9,
		SOCMin:         0.2,
		SOCMax:         0.8,
		DegradationK:   0.05,
		FixedOMCost:    1000,
		MaxCycles:      1,
		RampRate:       2,
		QFlowMin:       0,
		QFlowMax:       100,
		FlowPowerRatio: 0,
		InitialSOC:     0.5,
	}
}

// Validate checks the structural invariants of the parameter set. Rejected
// parameters are fatal before any solve is attempted.
func (p BatteryParameters) Validate() error {
	switch {
	case p.ERated <= 0:
		return &ValidationError{Field: "e_rated", Reason: "rated energy must be positive"}
	case p.PRated <= 0:
		return &ValidationError{Field: "p_rated", Reason: "rated power must be positive"}
	case p.EtaCharge <= 0 || p.EtaCharge > 1:
		return &ValidationError{Field: "eta_charge", Reason: "charge efficiency must be in (0,1]"}
	case p.EtaDischarge <= 0 || p.EtaDischarge > 1:
		return &ValidationError{Field: "eta_discharge", Reason: "discharge efficiency must be in (0,1]"}
	case p.SOCMin < 0 || p.SOCMin >= p.SOCMax || p.SOCMax > 1:
		return &ValidationError{Field: "soc_min/soc_max", Reason: "SOC bounds must satisfy 0 <= min < max <= 1"}
	case p.E0 < 0 || p.E0 > p.ERated:
		return &ValidationError{Field: "e_0", Reason: "initial energy outside rated capacity"}
	case p.ETarget < 0 || p.ETarget > p.ERated:
		return &ValidationError{Field: "e_target", Reason: "target energy outside rated capacity"}
	case p.DegradationK < 0:
		return &ValidationError{Field: "degradation_k", Reason: "degradation coefficient must be nonnegative"}
	case p.RampRate <= 0:
		return &ValidationError{Field: "ramp_rate", Reason: "ramp rate must be positive"}
	case p.QFlowMin < 0 || p.QFlowMax < p.QFlowMin:
		return &ValidationError{Field: "q_flow_min/q_flow_max", Reason: "flow bounds must satisfy 0 <= min <= max"}
	}
	return nil
}

// MaxPower returns the effective power bound after linking electrolyte flow
// to power through FlowPowerRatio. A zero ratio leaves the rated power
// untouched.
func (p BatteryParameters) MaxPower() float64 {
	if p.FlowPowerRatio <= 0 {
		return p.PRated
	}
	flowCap := p.QFlowMax / p.FlowPowerRatio
	if flowCap < p.PRated {
		return flowCap
	}
	return p.PRated
}
