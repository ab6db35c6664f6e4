package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/vanadyn/flowbid/core/metrics"
)

func TestInfluxSink_RecordRun(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	now := time.Now()
	ev := coremetrics.RunEvent{
		RunID:           "run-1",
		StationName:     "demo",
		BiddingMode:     "quantity-price",
		DayAheadStatus:  "optimal",
		FrequencyStatus: "heuristic",
		NetProfit:       1234.5678,
		DAProfit:        1000,
		FMProfit:        234.5678,
		Throughput:      64,
		Duration:        2 * time.Second,
		Time:            now,
	}

	if err := sink.RecordRun(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}

	p := write.NewPointWithMeasurement("bidding_run").
		AddTag("run_id", "run-1").
		AddTag("station", "demo").
		AddTag("bidding_mode", "quantity-price").
		AddTag("dayahead_status", "optimal").
		AddTag("frequency_status", "heuristic").
		AddField("net_profit", 1234.568).
		AddField("da_profit", 1000.0).
		AddField("fm_profit", 234.568).
		AddField("throughput_mwh", 64.0).
		AddField("duration_seconds", 2.0).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if strings.TrimSpace(body) != expected {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestNewInfluxSinkWithFallback_Unhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL, "token", "org", "bucket")
	if _, ok := sink.(coremetrics.NopSink); !ok {
		t.Fatalf("expected NopSink fallback, got %T", sink)
	}
}
