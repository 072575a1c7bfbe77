package utils

import (
	"math"
	"sort"
)

// TimeSeriesPoint is one day of a chart series. Cumulative is only filled
// for running-total series such as cash flow.
type TimeSeriesPoint struct {
	Date       string  `json:"date"`
	Value      float64 `json:"value"`
	Cumulative float64 `json:"cumulative,omitempty"`
}

// StatisticalSummary describes a set of amounts.
type StatisticalSummary struct {
	Count  int     `json:"count"`
	Sum    float64 `json:"sum"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Productivity ratings shown next to the average on the dashboard.
const (
	RatingGood    = "good"
	RatingAverage = "average"
	RatingLow     = "low"
)

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// CalculateStatistics returns nil for an empty input.
func CalculateStatistics(values []float64) *StatisticalSummary {
	if len(values) == 0 {
		return nil
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	summary := &StatisticalSummary{Count: len(values)}
	for _, v := range values {
		summary.Sum += v
	}
	summary.Mean = summary.Sum / float64(summary.Count)
	summary.Min = sorted[0]
	summary.Max = sorted[len(sorted)-1]
	summary.Median = calculateMedian(sorted)
	return summary
}

// Mean is zero for an empty input.
func Mean(values []float64) float64 {
	if s := CalculateStatistics(values); s != nil {
		return s.Mean
	}
	return 0
}

// ProductivityRating grades an average productivity percentage.
func ProductivityRating(avg float64) string {
	switch {
	case avg >= 80:
		return RatingGood
	case avg >= 60:
		return RatingAverage
	default:
		return RatingLow
	}
}

// Percentage returns part/whole*100 rounded to one decimal, or 0 when
// whole is not positive.
func Percentage(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return Round(part/whole*100, 1)
}

// CumulativeSeries orders daily totals by date and adds a running total.
func CumulativeSeries(daily map[string]float64) []TimeSeriesPoint {
	dates := make([]string, 0, len(daily))
	for d := range daily {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	series := make([]TimeSeriesPoint, 0, len(dates))
	var running float64
	for _, d := range dates {
		running += daily[d]
		series = append(series, TimeSeriesPoint{Date: d, Value: daily[d], Cumulative: running})
	}
	return series
}

// MovingAverage smooths a series over window points. Series shorter than
// the window are returned unchanged.
func MovingAverage(series []TimeSeriesPoint, window int) []TimeSeriesPoint {
	if window <= 0 || len(series) < window {
		return series
	}

	result := make([]TimeSeriesPoint, 0, len(series)-window+1)
	for i := window - 1; i < len(series); i++ {
		var sum float64
		for j := i - window + 1; j <= i; j++ {
			sum += series[j].Value
		}
		result = append(result, TimeSeriesPoint{
			Date:  series[i].Date,
			Value: Round(sum/float64(window), 1),
		})
	}
	return result
}

// Forecast projects the average daily spend of the observed period over
// the days still remaining.
func Forecast(spent float64, observedDays, remainingDays int) float64 {
	if observedDays <= 0 || remainingDays <= 0 {
		return 0
	}
	return Round(spent/float64(observedDays)*float64(remainingDays), 2)
}

func calculateMedian(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}
