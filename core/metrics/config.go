package metrics

import "github.com/vanadyn/flowbid/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks" yaml:"sinks"`
	// PrometheusAddr, when set, exposes /metrics on this address.
	PrometheusAddr string `json:"prometheus_addr" yaml:"prometheus_addr"`
}
