package model

import "fmt"

// BiddingMode is the day-ahead declaration mode, chosen once per run.
type BiddingMode int

const (
	// QuantityOnly declares volumes and accepts the clearing price.
	QuantityOnly BiddingMode = iota
	// QuantityPrice declares volume-plus-price ladders and carries
	// clearing risk.
	QuantityPrice
)

func (m BiddingMode) String() string {
	if m == QuantityPrice {
		return "quantity-price"
	}
	return "quantity-only"
}

// BidRowKind classifies a bid table row.
type BidRowKind int

const (
	BidIdle BidRowKind = iota
	BidCharge
	BidDischarge
)

func (k BidRowKind) String() string {
	switch k {
	case BidCharge:
		return "charge"
	case BidDischarge:
		return "discharge"
	default:
		return "idle"
	}
}

// BidRow is one market submission row. Charging rows carry negative power
// band bounds, idle rows a zero band. Expected is the revenue (positive) or
// cost (negative) of the row at the forecast price.
type BidRow struct {
	Interval  int
	TimeLabel string
	Kind      BidRowKind
	PowerMin  float64
	PowerMax  float64
	Price     float64
	Expected  float64
	Note      string
}

// BidTable is the full day-ahead submission: every one of the 96 intervals
// appears exactly once, as a single row or as up to three ladder rows.
type BidTable struct {
	Mode     BiddingMode
	Degraded bool
	Rows     []BidRow
}

// IntervalLabel formats a quarter-hour interval index as "HH:MM-HH:MM".
func IntervalLabel(t int) string {
	hour := t / StepsPerHour
	minute := (t % StepsPerHour) * 15
	endHour, endMinute := hour, minute+15
	if endMinute >= 60 {
		endMinute = 0
		endHour++
	}
	return fmt.Sprintf("%02d:%02d-%02d:%02d", hour, minute, endHour, endMinute)
}

// HourLabel formats an hour index as "HH:00-HH:00".
func HourLabel(h int) string {
	return fmt.Sprintf("%02d:00-%02d:00", h, (h+1)%HoursPerDay)
}
