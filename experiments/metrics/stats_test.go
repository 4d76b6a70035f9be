package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	t.Run("computes mean, spread and percentiles", func(t *testing.T) {
		s := Summarize([]float64{1, 2, 3, 4, 5})

		require.Equal(t, 5, s.Sessions)
		require.InDelta(t, 3.0, s.Mean, 1e-9)
		require.InDelta(t, math.Sqrt(2.0), s.StdDev, 1e-9)
		require.InDelta(t, 1.0, s.Min, 1e-9)
		require.InDelta(t, 5.0, s.Max, 1e-9)
		require.InDelta(t, 3.0, s.P50, 1e-9)
		require.InDelta(t, 4.6, s.P90, 1e-9)
		require.InDelta(t, 4.96, s.P99, 1e-9)
	})

	t.Run("order does not matter", func(t *testing.T) {
		require.Equal(t, Summarize([]float64{1, 2, 3, 4, 5}), Summarize([]float64{5, 3, 1, 4, 2}))
	})

	t.Run("single sample", func(t *testing.T) {
		s := Summarize([]float64{7.5})

		require.Equal(t, 1, s.Sessions)
		require.Equal(t, 7.5, s.Mean)
		require.Equal(t, 0.0, s.StdDev)
		require.Equal(t, 7.5, s.P50)
		require.Equal(t, 7.5, s.P99)
	})

	t.Run("no samples", func(t *testing.T) {
		require.Equal(t, Summary{}, Summarize(nil))
	})
}

func TestSummaryString(t *testing.T) {
	s := Summarize([]float64{2, 2})
	require.Equal(t, "sessions=2 mean=2.00 sd=0.00 min=2.00 max=2.00 p50=2.00 p90=2.00 p99=2.00", s.String())
}
