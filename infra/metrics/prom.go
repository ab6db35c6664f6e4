// Package metrics provides the concrete metrics sinks: Prometheus,
// InfluxDB and a fanout, all registered with the core sink factory.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/vanadyn/flowbid/core/metrics"
)

// PromSink records run outcomes in Prometheus metrics.
type PromSink struct {
	runs      *prometheus.CounterVec
	solves    *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
	profit    *prometheus.GaugeVec
	duration  prometheus.Histogram
}

// NewPromSink registers run metrics on the default Prometheus registerer.
// The HTTP server exposing them is started separately.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flowbid_runs_total",
		Help: "Total number of completed bidding runs",
	}, []string{"bidding_mode", "dayahead_status", "frequency_status"})
	solves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flowbid_solves_total",
		Help: "Total number of solver invocations",
	}, []string{"stage", "status"})
	fallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flowbid_fallbacks_total",
		Help: "Total number of heuristic fallbacks",
	}, []string{"stage"})
	profit := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "flowbid_run_profit_yuan",
		Help: "Profit of the most recent run, by market",
	}, []string{"market"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "flowbid_run_duration_seconds",
		Help:    "Wall-clock duration of a bidding run",
		Buckets: prometheus.DefBuckets,
	})

	if err := reg.Register(runs); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			runs = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(solves); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			solves = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(fallbacks); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			fallbacks = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(profit); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			profit = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}

	return &PromSink{runs: runs, solves: solves, fallbacks: fallbacks, profit: profit, duration: duration}, nil
}

// RecordRun increments the run counter and updates the profit gauges.
func (s *PromSink) RecordRun(ev coremetrics.RunEvent) error {
	s.runs.WithLabelValues(ev.BiddingMode, ev.DayAheadStatus, ev.FrequencyStatus).Inc()
	s.profit.WithLabelValues("joint").Set(ev.NetProfit)
	s.profit.WithLabelValues("dayahead").Set(ev.DAProfit)
	s.profit.WithLabelValues("frequency").Set(ev.FMProfit)
	s.duration.Observe(ev.Duration.Seconds())
	return nil
}

// RecordSolve increments the per-stage solve counter.
func (s *PromSink) RecordSolve(ev coremetrics.SolveEvent) error {
	s.solves.WithLabelValues(ev.Stage, ev.Status).Inc()
	return nil
}

// RecordFallback increments the per-stage fallback counter.
func (s *PromSink) RecordFallback(ev coremetrics.FallbackEvent) error {
	s.fallbacks.WithLabelValues(ev.Stage).Inc()
	return nil
}
