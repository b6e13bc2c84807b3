package analysis

import (
	"math"
	"slices"
)

// Stats summarizes a score distribution.
type Stats struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
	Median float64
	Q1     float64
	Q3     float64
	P90    float64
	P99    float64
}

// ComputeStats returns population statistics for xs. Percentiles are
// linearly interpolated between the closest ranks.
func ComputeStats(xs []float64) Stats {
	n := len(xs)
	if n == 0 {
		return Stats{}
	}
	var sum float64
	for _, v := range xs {
		sum += v
	}
	mean := sum / float64(n)

	var acc float64
	for _, v := range xs {
		d := v - mean
		acc += d * d
	}

	cp := slices.Clone(xs)
	slices.Sort(cp)
	percentile := func(p float64) float64 {
		if n == 1 || p <= 0 {
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

	return Stats{
		Count:  n,
		Min:    cp[0],
		Max:    cp[n-1],
		Mean:   mean,
		StdDev: math.Sqrt(acc / float64(n)),
		Median: percentile(0.50),
		Q1:     percentile(0.25),
		Q3:     percentile(0.75),
		P90:    percentile(0.90),
		P99:    percentile(0.99),
	}
}
