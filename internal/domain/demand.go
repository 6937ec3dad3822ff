package domain

import (
	"math"
	"sort"
	"time"
)

// DateOnly truncates t to midnight UTC so dates from different sources compare equal.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(math.Round(DateOnly(b).Sub(DateOnly(a)).Hours() / 24))
}

// DemandSeries maps calendar dates to forecast quantities. Missing dates
// resolve to the fallback, usually the historical average daily sales.
type DemandSeries struct {
	points   map[time.Time]float64
	fallback float64
}

func NewDemandSeries(fallback float64) *DemandSeries {
	return &DemandSeries{points: make(map[time.Time]float64), fallback: fallback}
}

// Add accumulates qty on date; repeated rows for the same day are summed.
func (s *DemandSeries) Add(date time.Time, qty float64) {
	if s.points == nil {
		s.points = make(map[time.Time]float64)
	}
	s.points[DateOnly(date)] += qty
}

// WithFallback returns a view sharing the points with a different fallback.
func (s DemandSeries) WithFallback(fallback float64) DemandSeries {
	s.fallback = fallback
	return s
}

func (s DemandSeries) Fallback() float64 { return s.fallback }

func (s DemandSeries) Len() int { return len(s.points) }

// At returns the forecast for date, or the fallback when none exists.
func (s DemandSeries) At(date time.Time) (float64, bool) {
	if v, ok := s.points[DateOnly(date)]; ok {
		return v, true
	}
	return s.fallback, false
}

// WindowAverage is the mean of forecast entries within [from, from+days).
// When the window holds no entry the fallback is returned with ok=false.
func (s DemandSeries) WindowAverage(from time.Time, days int) (float64, bool) {
	if days <= 0 {
		days = 1
	}
	start := DateOnly(from)
	var sum float64
	var n int
	for i := 0; i < days; i++ {
		if v, ok := s.points[start.AddDate(0, 0, i)]; ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return s.fallback, false
	}
	return sum / float64(n), true
}

// Stats returns the mean and population standard deviation of the forecast points.
func (s DemandSeries) Stats() (mean, stdDev float64) {
	if len(s.points) == 0 {
		return s.fallback, 0
	}
	values := make([]float64, 0, len(s.points))
	for _, v := range s.points {
		values = append(values, v)
	}
	sort.Float64s(values)
	return MeanStdDev(values)
}

// MeanStdDev computes the mean and population standard deviation of values.
func MeanStdDev(values []float64) (mean, stdDev float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}

// DemandBook holds a DemandSeries per product × location.
type DemandBook struct {
	series map[PositionKey]*DemandSeries
}

func NewDemandBook() *DemandBook {
	return &DemandBook{series: make(map[PositionKey]*DemandSeries)}
}

func (b *DemandBook) Add(key PositionKey, date time.Time, qty float64) {
	s, ok := b.series[key]
	if !ok {
		s = NewDemandSeries(0)
		b.series[key] = s
	}
	s.Add(date, qty)
}

// Lookup never fails: unknown keys yield an empty series carrying the fallback.
func (b *DemandBook) Lookup(key PositionKey, fallback float64) DemandSeries {
	if b != nil {
		if s, ok := b.series[key]; ok {
			return s.WithFallback(fallback)
		}
	}
	return DemandSeries{fallback: fallback}
}

func (b *DemandBook) Len() int {
	if b == nil {
		return 0
	}
	return len(b.series)
}
