package benchmark

import (
	"math"
	"sort"
	"time"
)

// Summary is the descriptive statistics of one run's latencies in
// milliseconds.
type Summary struct {
	Mean   float64
	Min    float64
	Max    float64
	StdDev float64
	P50    float64
	P95    float64
}

// Summarize computes population statistics over samples. It does not
// reorder samples. An empty input yields the zero Summary.
func Summarize(samples []float64) Summary {
	if len(samples) == 0 {
		return Summary{}
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))

	var sumSquared float64
	for _, v := range sorted {
		diff := v - mean
		sumSquared += diff * diff
	}
	return Summary{
		Mean:   mean,
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		StdDev: math.Sqrt(sumSquared / float64(len(sorted))),
		P50:    percentile(sorted, 50),
		P95:    percentile(sorted, 95),
	}
}

// Throughput is searches per second for a mean latency in milliseconds, or
// 0 when the mean is not positive.
func Throughput(meanMs float64) float64 {
	if meanMs <= 0 {
		return 0
	}
	return 1000 / meanMs
}

// percentile uses nearest-rank on an ascending slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
