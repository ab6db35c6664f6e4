// Package export renders run results as CSV or JSON submission files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/vanadyn/flowbid/core/model"
)

// WriteBidTableJSON writes the day-ahead bid table to w in JSON format.
func WriteBidTableJSON(w io.Writer, table model.BidTable) error {
	enc := json.NewEncoder(w)
	return enc.Encode(table)
}

// WriteBidTableCSV writes the day-ahead bid table to w as a submission CSV.
func WriteBidTableCSV(w io.Writer, table model.BidTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"interval", "time", "kind", "power_min_mw", "power_max_mw", "price", "expected", "note"}); err != nil {
		return err
	}
	for _, r := range table.Rows {
		rec := []string{
			strconv.Itoa(r.Interval),
			r.TimeLabel,
			r.Kind.String(),
			formatFloat(r.PowerMin),
			formatFloat(r.PowerMax),
			formatFloat(r.Price),
			formatFloat(r.Expected),
			r.Note,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJointStrategyCSV writes the merged hourly declaration to w.
func WriteJointStrategyCSV(w io.Writer, s *model.JointStrategy) error {
	cw := csv.NewWriter(w)
	header := []string{"time", "charge_mw", "discharge_mw", "net_mw", "soc",
		"freq_capacity_mw", "mileage_price", "capacity_revenue", "mileage_revenue", "operating_cost", "freq_net_profit"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, h := range s.Hours {
		rec := []string{
			h.TimeLabel,
			formatFloat(h.Charge),
			formatFloat(h.Discharge),
			formatFloat(h.NetPower),
			formatFloat(h.SOC),
			formatFloat(h.FreqCapacity),
			formatFloat(h.MileagePrice),
			formatFloat(h.CapacityRevenue),
			formatFloat(h.MileageRevenue),
			formatFloat(h.OperatingCost),
			formatFloat(h.FreqNetProfit),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
