package telemetry

import (
	"math"
	"math/rand"
	"time"
)

// Source is the randomness behind a Generator. It is not safe for
// concurrent use; Generator serialises access to it.
type Source struct {
	r *rand.Rand
}

// NewSource returns a deterministic source for the given seed.
func NewSource(seed int64) *Source {
	return &Source{r: rand.New(rand.NewSource(seed))}
}

// Float returns a uniform value in [min, max).
func (s *Source) Float(min, max float64) float64 {
	return s.r.Float64()*(max-min) + min
}

// Float2 is Float rounded to two decimals.
func (s *Source) Float2(min, max float64) float64 {
	return Round(s.Float(min, max), 2)
}

// Int returns a uniform integer in [min, max].
func (s *Source) Int(min, max int) int {
	if max <= min {
		return min
	}
	return min + s.r.Intn(max-min+1)
}

// Chance reports true with probability p.
func (s *Source) Chance(p float64) bool {
	return s.r.Float64() < p
}

// Step returns a symmetric perturbation in [-variance, variance).
func (s *Source) Step(variance float64) float64 {
	return s.Float(-variance, variance)
}

// Series produces a bounded random walk of n points starting at base.
// Every step is clamped before it is rounded and recorded, so no sample
// can leave b regardless of how the draws fall.
func (s *Source) Series(base, variance float64, n int, b Bounds) []float64 {
	out := make([]float64, n)
	x := base
	for i := 0; i < n; i++ {
		x = b.Clamp(x + s.Step(variance))
		out[i] = Round(x, 2)
	}
	return out
}

// Pick returns a uniformly chosen element. Repeating a value in items is
// how callers weight the common case.
func Pick[T any](s *Source, items []T) T {
	return items[s.r.Intn(len(items))]
}

// Round rounds x to the given number of decimal places.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// BucketTime returns the start of hourly bucket i out of n, where bucket
// n-1 is the hour containing now.
func BucketTime(now time.Time, n, i int) time.Time {
	return now.Truncate(time.Hour).Add(-time.Duration(n-1-i) * time.Hour)
}

// HourLabel formats a bucket instant the way series labels are written.
func HourLabel(t time.Time) string {
	return t.Format("15:04")
}

// HourLabels returns n hourly labels, oldest first, ending at now's hour.
func HourLabels(now time.Time, n int) []string {
	labels := make([]string, n)
	for i := 0; i < n; i++ {
		labels[i] = HourLabel(BucketTime(now, n, i))
	}
	return labels
}

func minutesAgo(now time.Time, m int) time.Time {
	return now.Add(-time.Duration(m) * time.Minute)
}

func hoursAgo(now time.Time, h int) time.Time {
	return now.Add(-time.Duration(h) * time.Hour)
}

func seriesMax(xs []float64) (float64, int) {
	best, idx := math.Inf(-1), -1
	for i, x := range xs {
		if x > best {
			best, idx = x, i
		}
	}
	return best, idx
}

func seriesMin(xs []float64) (float64, int) {
	best, idx := math.Inf(1), -1
	for i, x := range xs {
		if x < best {
			best, idx = x, i
		}
	}
	return best, idx
}

// firstIndex returns the index of the first sample satisfying pred, or -1.
func firstIndex(xs []float64, pred func(float64) bool) int {
	for i, x := range xs {
		if pred(x) {
			return i
		}
	}
	return -1
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var acc float64
	for _, x := range xs {
		acc += (x - m) * (x - m)
	}
	return math.Sqrt(acc / float64(len(xs)))
}

// pearson returns the correlation coefficient of two equally long series,
// or 0 when either is flat.
func pearson(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n < 2 {
		return 0
	}
	ma, mb := mean(a[:n]), mean(b[:n])
	var cov, va, vb float64
	for i := 0; i < n; i++ {
		da, db := a[i]-ma, b[i]-mb
		cov += da * db
		va += da * da
		vb += db * db
	}
	if va == 0 || vb == 0 {
		return 0
	}
	return cov / math.Sqrt(va*vb)
}
