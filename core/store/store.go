// Package store defines the persistence boundary of a bidding run. The
// engine only produces records; reading them back is a dashboard concern.
package store

import "time"

// StationProfile identifies the plant a record belongs to.
type StationProfile struct {
	Name           string
	Location       string
	CommissionDate string
	ERated         float64
	PRated         float64
}

// DecisionRecord is the durable summary of one completed bidding run.
type DecisionRecord struct {
	RunID            string
	RunTimestamp     time.Time
	StationName      string
	MarketMode       string
	DecisionMode     string
	NetProfit        float64
	DAProfit         float64
	FMProfit         float64
	Throughput       float64
	EquivalentCycles float64
}

// Recorder persists bidding run outcomes.
type Recorder interface {
	SaveDecision(rec DecisionRecord) error
	SaveProfile(profile StationProfile) error
	Close() error
}

// NopRecorder discards everything. Used when persistence is disabled.
type NopRecorder struct{}

func (NopRecorder) SaveDecision(DecisionRecord) error { return nil }
func (NopRecorder) SaveProfile(StationProfile) error  { return nil }
func (NopRecorder) Close() error                      { return nil }
