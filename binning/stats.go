package binning

import (
	"github.com/montanaflynn/stats"
)

// BinStats carries the per-bin quantities a reliability-diagram renderer
// needs: the bin's representative confidence (empirical mean, not the bin
// center, matching the reliability-diagram convention), the empirical
// outcome frequency and the membership count.
type BinStats struct {
	Bin                int     `json:"bin"`
	Count              int     `json:"count"`
	MeanConfidence     float64 `json:"mean_confidence"`
	EmpiricalFrequency float64 `json:"empirical_frequency"`
}

// Summarize computes BinStats for every non-empty bin of a partition.
// correct[i] reports whether sample i's outcome matched its top class.
func Summarize(bins []Bin, confidences []float64, correct []bool) []BinStats {
	out := make([]BinStats, 0, len(bins))
	for _, b := range bins {
		if b.IsEmpty() {
			continue
		}
		confs := make([]float64, len(b.Members))
		hits := 0
		for i, m := range b.Members {
			confs[i] = confidences[m]
			if correct[m] {
				hits++
			}
		}
		meanConf, _ := stats.Mean(confs)
		out = append(out, BinStats{
			Bin:                b.Index,
			Count:              len(b.Members),
			MeanConfidence:     meanConf,
			EmpiricalFrequency: float64(hits) / float64(len(b.Members)),
		})
	}
	return out
}
