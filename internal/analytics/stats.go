package analytics

// GlobalStats holds min/max/mean of each KPI over the unfiltered dataset.
// Computed once at load and never mutated, so filtered views scale against a
// stable range and radar shapes stay comparable across states.
type GlobalStats struct {
	Min  [numKPIs]float64
	Max  [numKPIs]float64
	Mean [numKPIs]float64
}

// NewGlobalStats derives the statistic set from the full-dataset composite
// table.
func NewGlobalStats(t CompositeTable) GlobalStats {
	var stats GlobalStats
	if len(t.Rows) == 0 {
		return stats
	}

	for _, k := range AllKPIs() {
		var sum float64
		for i, row := range t.Rows {
			v := row.Metric(k)
			if i == 0 || v < stats.Min[k] {
				stats.Min[k] = v
			}
			if i == 0 || v > stats.Max[k] {
				stats.Max[k] = v
			}
			sum += v
		}
		stats.Mean[k] = sum / float64(len(t.Rows))
	}
	return stats
}

// Scale normalizes a metric value into [0,1] against the global range.
// A degenerate range (max == min, e.g. single-state data) scales to 0.
func (s GlobalStats) Scale(k KPI, v float64) float64 {
	if s.Max[k] <= s.Min[k] {
		return 0
	}
	return (v - s.Min[k]) / (s.Max[k] - s.Min[k])
}
