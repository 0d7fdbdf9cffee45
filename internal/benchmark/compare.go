package benchmark

// Comparison is the change from a baseline result to a current one, in
// percent of the baseline.
type Comparison struct {
	LatencyChange    float64 `json:"latency_change" yaml:"latency_change"`
	ThroughputChange float64 `json:"throughput_change" yaml:"throughput_change"`
	MemoryChange     float64 `json:"memory_change" yaml:"memory_change"`
	Verdict          string  `json:"verdict" yaml:"verdict"`
}

const significantChangePct = 10

const (
	VerdictImproved = "Significant performance improvement detected."
	VerdictDegraded = "Performance degradation detected, investigate recent changes."
	VerdictStable   = "Performance is stable within acceptable variance."
)

// Compare reports how current differs from baseline. A latency change
// beyond ±10% decides the verdict. Changes against a zero baseline are 0.
func Compare(current, baseline Result) Comparison {
	c := Comparison{
		LatencyChange:    pctChange(current.MeanMs, baseline.MeanMs),
		ThroughputChange: pctChange(current.Throughput, baseline.Throughput),
		MemoryChange:     pctChange(float64(current.MemoryDelta), float64(baseline.MemoryDelta)),
	}
	switch {
	case c.LatencyChange < -significantChangePct:
		c.Verdict = VerdictImproved
	case c.LatencyChange > significantChangePct:
		c.Verdict = VerdictDegraded
	default:
		c.Verdict = VerdictStable
	}
	return c
}

func pctChange(current, baseline float64) float64 {
	if baseline == 0 {
		return 0
	}
	return (current - baseline) / baseline * 100
}
