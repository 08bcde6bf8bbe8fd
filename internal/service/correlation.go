package service

import (
	"fmt"
	"math"
	"sort"

	"nordgrid/internal/models"
)

// minCorrelationPairs is the smallest join for which Pearson's r is reported.
const minCorrelationPairs = 3

const interpretationInsufficient = "insufficient data"

// CorrelationResult is a Pearson correlation over timestamp-joined pairs.
// R is nil when the join is too small or a series is constant.
type CorrelationResult struct {
	R              *float64 `json:"r"`
	Interpretation string   `json:"interpretation"`
	N              int      `json:"n"`
}

// CorrelationPair is one timestamp where both series had a sample.
type CorrelationPair struct {
	Timestamp string  `json:"timestamp"`
	Energy    float64 `json:"energy"`
	Price     float64 `json:"price"`
}

// Correlate joins two series by exact timestamp match and computes Pearson's r
// over the matched pairs. Timestamps present in only one series are dropped;
// nothing is interpolated.
func Correlate(energy, prices []models.Point) (CorrelationResult, []CorrelationPair) {
	priceByTime := make(map[int64]float64, len(prices))
	for _, p := range prices {
		priceByTime[p.Timestamp.Unix()] = p.Value
	}

	var pairs []CorrelationPair
	var xs, ys []float64
	for _, e := range energy {
		price, ok := priceByTime[e.Timestamp.Unix()]
		if !ok {
			continue
		}
		xs = append(xs, e.Value)
		ys = append(ys, price)
		pairs = append(pairs, CorrelationPair{
			Timestamp: e.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
			Energy:    e.Value,
			Price:     price,
		})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Timestamp < pairs[j].Timestamp })

	result := CorrelationResult{N: len(xs), Interpretation: interpretationInsufficient}
	if len(xs) < minCorrelationPairs {
		return result, pairs
	}

	r, ok := pearson(xs, ys)
	if !ok {
		return result, pairs
	}
	result.R = &r
	result.Interpretation = interpret(r)
	return result, pairs
}

// pearson computes r = (nΣxy − ΣxΣy) / sqrt((nΣx² − (Σx)²)(nΣy² − (Σy)²)).
// A zero denominator factor means a constant series; that reports not-ok
// rather than ±Inf.
func pearson(xs, ys []float64) (float64, bool) {
	n := float64(len(xs))
	var sumX, sumY, sumXY, sumXX, sumYY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumXX += xs[i] * xs[i]
		sumYY += ys[i] * ys[i]
	}

	varX := n*sumXX - sumX*sumX
	varY := n*sumYY - sumY*sumY
	if varX <= 0 || varY <= 0 {
		return 0, false
	}

	r := (n*sumXY - sumX*sumY) / math.Sqrt(varX*varY)
	// Floating error can nudge a perfect correlation just past ±1.
	if r > 1 {
		r = 1
	}
	if r < -1 {
		r = -1
	}
	return r, true
}

func interpret(r float64) string {
	abs := math.Abs(r)
	if abs < 0.1 {
		return "negligible"
	}

	band := "weak"
	switch {
	case abs >= 0.7:
		band = "strong"
	case abs >= 0.4:
		band = "moderate"
	}

	sign := "positive"
	if r < 0 {
		sign = "negative"
	}
	return fmt.Sprintf("%s %s", band, sign)
}
