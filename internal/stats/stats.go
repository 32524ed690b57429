// Package stats holds the pure analytics run over the session's recorded
// history. Nothing here touches matching state.
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// AutoCorrelation returns the lag-1..lags autocorrelation coefficients
// of the series: |cov(x[k:], x[:n-k])| normalized by the two population
// standard deviations.
func AutoCorrelation(x []float64, lags int) []float64 {
	n := len(x)
	out := make([]float64, 0, lags)
	for k := 1; k <= lags && k < n; k++ {
		head := x[k:]
		tail := x[:n-k]
		headMean := stat.Mean(head, nil)
		tailMean := stat.Mean(tail, nil)
		var cov float64
		for i := range head {
			cov += (head[i] - headMean) * (tail[i] - tailMean)
		}
		d := popStdDev(head) * popStdDev(tail) * float64(n-k)
		out = append(out, math.Abs(cov)/d)
	}
	return out
}

func popStdDev(x []float64) float64 {
	m := stat.Mean(x, nil)
	var s float64
	for _, v := range x {
		s += (v - m) * (v - m)
	}
	return math.Sqrt(s / float64(len(x)))
}

// Hurst estimates the Hurst exponent of the series by rescaled-range
// analysis of its percentage returns over six dyadic chunk counts: the
// slope of log10(R/S) against log10(chunk size).
func Hurst(data []float64) float64 {
	returns := pctChange(data)
	var logSize, logRS []float64
	for i := 0; i < 6; i++ {
		chunks := 1 << i
		size := len(returns) / chunks
		if size < 2 {
			break
		}
		var sum float64
		var count int
		for j := 0; j < chunks; j++ {
			rs, ok := rescaledRange(returns[j*size : (j+1)*size])
			if ok {
				sum += rs
				count++
			}
		}
		if count == 0 {
			continue
		}
		logSize = append(logSize, math.Log10(float64(size)))
		logRS = append(logRS, math.Log10(sum/float64(count)))
	}
	if len(logSize) < 2 {
		return math.NaN()
	}
	_, slope := stat.LinearRegression(logSize, logRS, nil, false)
	return slope
}

// rescaledRange is the range of cumulative mean deviations over the
// sample standard deviation.
func rescaledRange(chunk []float64) (float64, bool) {
	mean := stat.Mean(chunk, nil)
	var cum float64
	maxDev := math.Inf(-1)
	minDev := math.Inf(1)
	for _, v := range chunk {
		cum += v - mean
		maxDev = math.Max(maxDev, cum)
		minDev = math.Min(minDev, cum)
	}
	sigma := stat.StdDev(chunk, nil)
	if sigma == 0 || math.IsNaN(sigma) {
		return 0, false
	}
	return (maxDev - minDev) / sigma, true
}

func pctChange(data []float64) []float64 {
	out := make([]float64, 0, len(data))
	for i := 1; i < len(data); i++ {
		if data[i-1] == 0 {
			continue
		}
		out = append(out, data[i]/data[i-1]-1)
	}
	return out
}

// Kurtosis is the excess (Fisher) kurtosis of the series; a normal
// distribution scores zero.
func Kurtosis(x []float64) float64 {
	return stat.ExKurtosis(x, nil)
}

// TickSpan marks the tick range of one detected price spike.
type TickSpan struct {
	FirstTick int
	LastTick  int
}

// FindPriceSpikes scans the deal-price series for a run of at least
// upOrDownTimes consecutive moves in one direction (each larger than
// initPrice*rate) followed by a reversal, and reports each run's span.
func FindPriceSpikes(prices []float64, upOrDownTimes int, rate, initPrice float64) []TickSpan {
	var results []TickSpan
	last := initPrice
	upTimes, downTimes := 0, 0
	for i, cur := range prices {
		switch {
		case cur-last >= initPrice*rate:
			if downTimes == 0 {
				upTimes++
			} else {
				if downTimes >= upOrDownTimes {
					results = append(results, TickSpan{FirstTick: i - downTimes - 1, LastTick: i - 1})
				}
				downTimes = 0
				upTimes = 1
			}
		case last-cur > initPrice*rate:
			if upTimes == 0 {
				downTimes++
			} else {
				if upTimes >= upOrDownTimes {
					results = append(results, TickSpan{FirstTick: i - upTimes - 1, LastTick: i - 1})
				}
				upTimes = 0
				downTimes = 1
			}
		default:
			upTimes = 0
			downTimes = 0
		}
		last = cur
	}
	return results
}

// SampleData reduces the series to block means of len(data)/number
// points each, dropping the first block.
func SampleData(data []float64, number int) []float64 {
	if number <= 0 || len(data) == 0 {
		return nil
	}
	span := len(data) / number
	if span == 0 {
		span = 1
	}
	var result []float64
	var block []float64
	next := span
	for i, v := range data {
		if i < next {
			block = append(block, v)
			continue
		}
		next += span
		result = append(result, stat.Mean(block, nil))
		block = []float64{v}
	}
	if len(block) > 0 {
		result = append(result, stat.Mean(block, nil))
	}
	if len(result) == 0 {
		return nil
	}
	return result[1:]
}

// LogReturns computes log(x[i+scale]/x[i]) across the series. Ratios
// without a positive argument contribute zero rather than an error.
func LogReturns(x []float64, scale int) []float64 {
	if scale <= 0 || len(x) <= scale {
		return nil
	}
	out := make([]float64, 0, len(x)-scale)
	for i := 0; i < len(x)-scale; i++ {
		r := 0.0
		if x[i] > 0 && x[i+scale] > 0 {
			r = math.Log(x[i+scale] / x[i])
		}
		out = append(out, r)
	}
	return out
}
