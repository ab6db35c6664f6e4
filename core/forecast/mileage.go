package forecast

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/vanadyn/flowbid/core/logger"
	"github.com/vanadyn/flowbid/core/model"
)

const numFeatures = 7

// ErrNotTrained is returned by Performance before the first training run.
var ErrNotTrained = errors.New("forecast: model not trained")

// MileagePredictor is a least-squares regression over standardised
// calendar and grid features. It implements Service.
type MileagePredictor struct {
	// PriceUpperLimit caps predicted prices, yuan/MW.
	PriceUpperLimit float64
	// PriceMinUnit is the market's price tick; predictions are rounded
	// to it.
	PriceMinUnit float64

	log logger.Logger

	beta      []float64 // intercept followed by one weight per feature
	featMean  []float64
	featStd   []float64
	trainPerf Performance
	trained   bool
}

// NewMileagePredictor creates a predictor with the market's price limits.
func NewMileagePredictor(upperLimit, minUnit float64, log logger.Logger) *MileagePredictor {
	return &MileagePredictor{PriceUpperLimit: upperLimit, PriceMinUnit: minUnit, log: log}
}

// features expands a sample into the model's regressor vector.
func features(hour, dayOfWeek int, freqDemand, systemLoad, renewablePen float64) []float64 {
	isWeekend := 0.0
	if dayOfWeek >= 5 {
		isWeekend = 1
	}
	isPeak := 0.0
	if hour >= 8 && hour <= 22 {
		isPeak = 1
	}
	return []float64{float64(hour), float64(dayOfWeek), isWeekend, isPeak, freqDemand, systemLoad, renewablePen}
}

// Train fits the regression on samples by ordinary least squares and
// records the in-sample performance.
func (p *MileagePredictor) Train(samples []Sample) error {
	if len(samples) <= numFeatures {
		return fmt.Errorf("forecast: need more than %d samples, got %d", numFeatures, len(samples))
	}

	rows := make([][]float64, len(samples))
	targets := make([]float64, len(samples))
	for i, s := range samples {
		rows[i] = features(s.Hour, s.DayOfWeek, s.FrequencyDemand, s.SystemLoad, s.RenewablePenetration)
		targets[i] = s.Price
	}

	p.fitScaler(rows)

	x := mat.NewDense(len(rows), numFeatures+1, nil)
	for i, row := range rows {
		x.Set(i, 0, 1)
		scaled := p.scale(row)
		for j, v := range scaled {
			x.Set(i, j+1, v)
		}
	}
	y := mat.NewVecDense(len(targets), targets)

	var qr mat.QR
	qr.Factorize(x)
	var sol mat.VecDense
	if err := qr.SolveVecTo(&sol, false, y); err != nil {
		return fmt.Errorf("forecast: least squares failed: %w", err)
	}

	p.beta = make([]float64, numFeatures+1)
	for j := range p.beta {
		p.beta[j] = sol.AtVec(j)
	}
	p.trained = true

	p.trainPerf = p.evaluate(rows, targets)
	if p.log != nil {
		p.log.Infof("mileage model trained: samples=%d r2=%.3f mae=%.3f", len(samples), p.trainPerf.R2, p.trainPerf.MAE)
	}
	return nil
}

// Predict returns horizon hourly mileage prices starting at startHour. An
// untrained predictor first trains itself on ninety days of synthetic
// history, mirroring a cold start without recorded market data.
func (p *MileagePredictor) Predict(startHour, horizon int, cov *Covariates) ([]float64, error) {
	if horizon <= 0 {
		horizon = model.HoursPerDay
	}
	if startHour < 0 || startHour >= model.HoursPerDay {
		return nil, fmt.Errorf("forecast: start hour %d out of range", startHour)
	}
	if !p.trained {
		if p.log != nil {
			p.log.Warnf("mileage model untrained, fitting on synthetic history")
		}
		if err := p.Train(SyntheticMileageHistory(90, rand.New(rand.NewSource(42)), p.PriceUpperLimit, p.PriceMinUnit)); err != nil {
			return nil, err
		}
	}

	prices := make([]float64, horizon)
	for h := 0; h < horizon; h++ {
		hour := (startHour + h) % model.HoursPerDay
		phase := 2 * math.Pi * float64(hour) / model.HoursPerDay

		freqDemand := 100 + 50*math.Sin(phase)
		sysLoad := 20000 + 5000*math.Sin(phase)
		renewablePen := 0.2 + 0.1*math.Sin(phase)
		if cov != nil {
			if h < len(cov.SystemLoad) {
				sysLoad = cov.SystemLoad[h]
			}
			if h < len(cov.RenewablePenetration) {
				renewablePen = cov.RenewablePenetration[h]
			}
		}

		// Prediction assumes a weekday.
		row := features(hour, 1, freqDemand, sysLoad, renewablePen)
		prices[h] = p.constrain(p.predictOne(row))
	}
	return prices, nil
}

// Performance reports the in-sample accuracy recorded at training time.
func (p *MileagePredictor) Performance() (Performance, error) {
	if !p.trained {
		return Performance{}, ErrNotTrained
	}
	return p.trainPerf, nil
}

func (p *MileagePredictor) fitScaler(rows [][]float64) {
	p.featMean = make([]float64, numFeatures)
	p.featStd = make([]float64, numFeatures)
	col := make([]float64, len(rows))
	for j := 0; j < numFeatures; j++ {
		for i := range rows {
			col[i] = rows[i][j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		p.featMean[j] = mean
		p.featStd[j] = std
	}
}

func (p *MileagePredictor) scale(row []float64) []float64 {
	out := make([]float64, numFeatures)
	for j := range out {
		out[j] = (row[j] - p.featMean[j]) / p.featStd[j]
	}
	return out
}

func (p *MileagePredictor) predictOne(row []float64) float64 {
	pred := p.beta[0]
	for j, v := range p.scale(row) {
		pred += p.beta[j+1] * v
	}
	return pred
}

// constrain applies the market price limits: nonnegative, capped at the
// upper limit, rounded to the minimum price unit.
func (p *MileagePredictor) constrain(price float64) float64 {
	price = math.Max(0, math.Min(p.PriceUpperLimit, price))
	if p.PriceMinUnit > 0 {
		price = math.Round(price/p.PriceMinUnit) * p.PriceMinUnit
	}
	return price
}

func (p *MileagePredictor) evaluate(rows [][]float64, targets []float64) Performance {
	preds := make([]float64, len(rows))
	for i, row := range rows {
		preds[i] = p.constrain(p.predictOne(row))
	}

	meanY := stat.Mean(targets, nil)
	var ssRes, ssTot, absErr float64
	minP, maxP := math.Inf(1), math.Inf(-1)
	for i := range preds {
		ssRes += (targets[i] - preds[i]) * (targets[i] - preds[i])
		ssTot += (targets[i] - meanY) * (targets[i] - meanY)
		absErr += math.Abs(targets[i] - preds[i])
		minP = math.Min(minP, preds[i])
		maxP = math.Max(maxP, preds[i])
	}

	perf := Performance{
		MAE:       absErr / float64(len(preds)),
		MinPrice:  minP,
		MaxPrice:  maxP,
		MeanPrice: stat.Mean(preds, nil),
	}
	if ssTot > 0 {
		perf.R2 = 1 - ssRes/ssTot
	}
	return perf
}

// SyntheticMileageHistory generates days of plausible hourly regulation
// market history: sinusoidal demand and load profiles with weekend and
// peak factors, and a mileage price driven by demand and renewable share.
func SyntheticMileageHistory(days int, rng *rand.Rand, upperLimit, minUnit float64) []Sample {
	samples := make([]Sample, 0, days*model.HoursPerDay)

	for day := 0; day < days; day++ {
		dow := day % 7
		weekendFactor := 1.0
		if dow >= 5 {
			weekendFactor = 0.8
		}
		for hour := 0; hour < model.HoursPerDay; hour++ {
			phase := 2 * math.Pi * float64(hour) / model.HoursPerDay
			peakFactor := 0.9
			if hour >= 8 && hour <= 22 {
				peakFactor = 1.3
			}

			demand := (100+50*math.Sin(phase))*weekendFactor*peakFactor + rng.NormFloat64()*10
			load := 20000 + 5000*math.Sin(phase) + rng.NormFloat64()*500
			renewable := 0.2 + 0.1*math.Sin(phase) + rng.NormFloat64()*0.05

			samples = append(samples, Sample{
				Hour:                 hour,
				DayOfWeek:            dow,
				FrequencyDemand:      demand,
				SystemLoad:           load,
				RenewablePenetration: renewable,
			})
		}
	}

	// Price the samples off the demand range, with volatility from the
	// renewable share and peak hours.
	minD, maxD := math.Inf(1), math.Inf(-1)
	for _, s := range samples {
		minD = math.Min(minD, s.FrequencyDemand)
		maxD = math.Max(maxD, s.FrequencyDemand)
	}
	span := maxD - minD
	if span == 0 {
		span = 1
	}
	for i := range samples {
		s := &samples[i]
		base := 15 + 10*(s.FrequencyDemand-minD)/span
		volatility := 3 * s.RenewablePenetration
		if s.Hour >= 8 && s.Hour <= 22 {
			volatility += 2
		}
		price := base + volatility + rng.NormFloat64()*2
		price = math.Max(5, math.Min(upperLimit, price))
		if minUnit > 0 {
			price = math.Round(price/minUnit) * minUnit
		}
		s.Price = price
	}
	return samples
}
