package metrics

import (
	"fmt"
	"math"
	"sort"
)

// Summary describes the payout points earned across a batch of sessions.
type Summary struct {
	Sessions int
	Mean     float64
	StdDev   float64
	Min      float64
	Max      float64
	P50      float64
	P90      float64
	P99      float64
}

// Summarize computes mean/spread/percentiles over one value per session.
func Summarize(xs []float64) Summary {
	n := len(xs)
	if n == 0 {
		return Summary{}
	}

	// mean
	var sum float64
	for _, v := range xs {
		sum += v
	}
	mean := sum / float64(n)

	// variance (population)
	var acc float64
	for _, v := range xs {
		d := v - mean
		acc += d * d
	}
	stddev := math.Sqrt(acc / float64(n))

	// percentiles
	cp := append([]float64(nil), xs...)
	sort.Float64s(cp)
	percentile := func(p float64) float64 {
		if n == 1 {
			return cp[0]
		}
		if p <= 0 {
			return cp[0]
		}
		if p >= 1 {
			return cp[n-1]
		}
		pos := p * float64(n-1)
		i := int(math.Floor(pos))
		f := pos - float64(i)
		if i+1 >= n {
			return cp[i]
		}
		return cp[i]*(1-f) + cp[i+1]*f
	}

	return Summary{
		Sessions: n,
		Mean:     mean,
		StdDev:   stddev,
		Min:      cp[0],
		Max:      cp[n-1],
		P50:      percentile(0.50),
		P90:      percentile(0.90),
		P99:      percentile(0.99),
	}
}

func (s Summary) String() string {
	return fmt.Sprintf("sessions=%d mean=%.2f sd=%.2f min=%.2f max=%.2f p50=%.2f p90=%.2f p99=%.2f",
		s.Sessions, s.Mean, s.StdDev, s.Min, s.Max, s.P50, s.P90, s.P99)
}
