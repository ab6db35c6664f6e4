// Package metrics defines the observability events a bidding run emits and
// the sink interfaces that record them. Concrete sinks live in
// infra/metrics.
package metrics

import "time"

// RunEvent summarises one completed bidding run.
type RunEvent struct {
	RunID           string
	StationName     string
	BiddingMode     string
	DayAheadStatus  string
	FrequencyStatus string
	NetProfit       float64
	DAProfit        float64
	FMProfit        float64
	Throughput      float64
	Duration        time.Duration
	Time            time.Time
}

// MetricsSink records run outcomes for observability purposes.
type MetricsSink interface {
	RecordRun(ev RunEvent) error
}

// SolveEvent captures one solver invocation.
type SolveEvent struct {
	Stage     string
	Status    string
	Objective float64
	Duration  time.Duration
	Time      time.Time
}

// SolveRecorder records solver invocations.
type SolveRecorder interface {
	RecordSolve(ev SolveEvent) error
}

// FallbackEvent records a stage degrading to its heuristic plan.
type FallbackEvent struct {
	Stage  string
	Reason string
	Time   time.Time
}

// FallbackRecorder records fallback applications.
type FallbackRecorder interface {
	RecordFallback(ev FallbackEvent) error
}

// ForecastEvent captures the accuracy of the mileage price model backing a
// run.
type ForecastEvent struct {
	Model string
	R2    float64
	MAE   float64
	Time  time.Time
}

// ForecastRecorder records forecast model performance.
type ForecastRecorder interface {
	RecordForecast(ev ForecastEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordRun(RunEvent) error           { return nil }
func (NopSink) RecordSolve(SolveEvent) error       { return nil }
func (NopSink) RecordFallback(FallbackEvent) error { return nil }
func (NopSink) RecordForecast(ForecastEvent) error { return nil }
