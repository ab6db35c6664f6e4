package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	core "github.com/vanadyn/flowbid/core/store"
)

func openTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "flowbid.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestSaveDecisionRoundTrip(t *testing.T) {
	r := openTestRecorder(t)

	rec := core.DecisionRecord{
		RunID:            "run-1",
		RunTimestamp:     time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC),
		StationName:      "demo flow battery station",
		MarketMode:       "joint",
		DecisionMode:     "quantity-price",
		NetProfit:        12345.6,
		DAProfit:         11000.1,
		FMProfit:         1345.5,
		Throughput:       64,
		EquivalentCycles: 0.64,
	}
	require.NoError(t, r.SaveDecision(rec))

	got, err := r.Decisions()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec, got[0])
}

func TestDecisionsNewestFirst(t *testing.T) {
	r := openTestRecorder(t)

	base := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, r.SaveDecision(core.DecisionRecord{
			RunID:        "run",
			RunTimestamp: base.AddDate(0, 0, i),
			NetProfit:    float64(i),
		}))
	}

	got, err := r.Decisions()
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 2.0, got[0].NetProfit)
	assert.Equal(t, 0.0, got[2].NetProfit)
}

func TestSaveProfileUpserts(t *testing.T) {
	r := openTestRecorder(t)

	require.NoError(t, r.SaveProfile(core.StationProfile{Name: "first", ERated: 50, PRated: 10}))
	require.NoError(t, r.SaveProfile(core.StationProfile{Name: "second", ERated: 100, PRated: 25}))

	var name string
	var eRated float64
	row := r.db.QueryRow(`SELECT station_name, e_rated FROM station_profile WHERE id = 1`)
	require.NoError(t, row.Scan(&name, &eRated))
	assert.Equal(t, "second", name)
	assert.Equal(t, 100.0, eRated)
}

func TestZeroTimestampDefaultsToNow(t *testing.T) {
	r := openTestRecorder(t)
	require.NoError(t, r.SaveDecision(core.DecisionRecord{RunID: "run-2"}))

	got, err := r.Decisions()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.WithinDuration(t, time.Now(), got[0].RunTimestamp, time.Minute)
}
