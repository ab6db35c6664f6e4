package forecast

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"

	"github.com/vanadyn/flowbid/core/model"
)

// hourlyWeights shapes the synthetic day-ahead curve: an overnight valley,
// a morning ramp, and midday plus evening peaks.
var hourlyWeights = [model.HoursPerDay]float64{
	0.6, 0.5, 0.4, 0.3,
	0.4, 0.5, 0.7, 0.9,
	0.8, 0.9, 1.0, 1.1,
	1.2, 1.1, 1.0, 0.9,
	0.8, 0.9, 1.1, 1.2,
	1.0, 0.8, 0.6, 0.5,
}

// SyntheticDayAheadPrices generates a 96-interval price curve around
// basePrice (yuan/MWh) with 10% multiplicative noise, floored at zero.
func SyntheticDayAheadPrices(basePrice float64, rng *rand.Rand) (model.PriceForecast, error) {
	prices := make([]float64, 0, model.StepsPerDay)
	for _, weight := range hourlyWeights {
		for i := 0; i < model.StepsPerHour; i++ {
			price := basePrice * weight * (1 + rng.NormFloat64()*0.1)
			prices = append(prices, math.Max(0, price))
		}
	}
	return model.NewDayAheadForecast(prices)
}

// WriteDayAheadCSV writes a forecast as time_step,price rows.
func WriteDayAheadCSV(w io.Writer, forecast model.PriceForecast) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time_step", "price"}); err != nil {
		return err
	}
	for t := 0; t < forecast.Len(); t++ {
		rec := []string{
			strconv.Itoa(t),
			strconv.FormatFloat(forecast.At(t), 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadDayAheadCSV parses a forecast from CSV. The file must carry a header
// with a "price" column and exactly 96 data rows; extra columns are
// ignored.
func ReadDayAheadCSV(r io.Reader) (model.PriceForecast, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return model.PriceForecast{}, &model.DataFormatError{Reason: fmt.Sprintf("reading csv header: %v", err)}
	}
	priceCol := -1
	for i, name := range header {
		if name == "price" {
			priceCol = i
			break
		}
	}
	if priceCol < 0 {
		return model.PriceForecast{}, &model.DataFormatError{Reason: "csv has no price column"}
	}

	var prices []float64
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.PriceForecast{}, &model.DataFormatError{Reason: fmt.Sprintf("reading csv row: %v", err)}
		}
		if priceCol >= len(rec) {
			return model.PriceForecast{}, &model.DataFormatError{Reason: fmt.Sprintf("row %d has no price field", len(prices))}
		}
		price, err := strconv.ParseFloat(rec[priceCol], 64)
		if err != nil {
			return model.PriceForecast{}, &model.DataFormatError{Reason: fmt.Sprintf("row %d: bad price %q", len(prices), rec[priceCol])}
		}
		prices = append(prices, price)
	}

	return model.NewDayAheadForecast(prices)
}
