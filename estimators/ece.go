package estimators

import (
	"gocalib/binning"
	"gocalib/domain/core"
	"gocalib/domain/sample"
	"gocalib/kernels"
)

// ECE is the binned expected calibration error estimator. Samples are
// bucketed by top-class confidence under the configured scheme; each
// non-empty bin contributes its sample share times the distance between
// the bin's mean prediction and its empirical outcome distribution.
//
// This estimator is biased and binning-dependent; that is inherent to
// binned calibration errors, not something to correct here.
type ECE struct {
	scheme binning.Scheme
	dist   kernels.Distance
}

func NewECE(scheme binning.Scheme, dist kernels.Distance) (*ECE, error) {
	if scheme == nil {
		return nil, core.NewInvalidParameterError("ece", "binning scheme", nil)
	}
	if dist == nil {
		return nil, core.NewInvalidParameterError("ece", "distance", nil)
	}
	return &ECE{scheme: scheme, dist: dist}, nil
}

// Estimate computes the full multi-class ECE: per bin, the mean predicted
// probability vector is compared against the empirical class frequencies.
func (e *ECE) Estimate(s *sample.ClassSample) (float64, error) {
	bins, err := e.scheme.Assign(s.Confidences())
	if err != nil {
		return 0, err
	}
	n := float64(s.Len())
	k := s.NumClasses()

	var acc kahanSum
	for _, b := range bins {
		if b.IsEmpty() {
			continue
		}
		meanPred := make([]float64, k)
		freq := make([]float64, k)
		for _, m := range b.Members {
			for c, p := range s.Predictions[m].Probs {
				meanPred[c] += p
			}
			freq[s.Outcomes[m]]++
		}
		size := float64(len(b.Members))
		for c := range meanPred {
			meanPred[c] /= size
			freq[c] /= size
		}
		d, err := e.dist.Distance(meanPred, freq)
		if err != nil {
			return 0, err
		}
		acc.add(size / n * d)
	}
	return acc.value(), nil
}

// EstimateConfidence computes the confidence ECE: per bin, the mean
// top-class confidence is compared against the fraction of correct
// top-class predictions. The scalar comparison goes through the configured
// distance on length-1 vectors, so Cityblock yields the familiar
// |confidence - accuracy| form.
func (e *ECE) EstimateConfidence(s *sample.ClassSample) (float64, error) {
	confidences := s.Confidences()
	bins, err := e.scheme.Assign(confidences)
	if err != nil {
		return 0, err
	}
	n := float64(s.Len())

	var acc kahanSum
	for _, b := range bins {
		if b.IsEmpty() {
			continue
		}
		meanConf := 0.0
		hits := 0.0
		for _, m := range b.Members {
			meanConf += confidences[m]
			if s.Outcomes[m] == s.Predictions[m].TopClass() {
				hits++
			}
		}
		size := float64(len(b.Members))
		d, err := e.dist.Distance([]float64{meanConf / size}, []float64{hits / size})
		if err != nil {
			return 0, err
		}
		acc.add(size / n * d)
	}
	return acc.value(), nil
}

// BinStatistics exposes the per-bin reliability data (representative
// confidence, empirical accuracy, count) for external reliability-diagram
// renderers. No plotting happens here.
func (e *ECE) BinStatistics(s *sample.ClassSample) ([]binning.BinStats, error) {
	confidences := s.Confidences()
	bins, err := e.scheme.Assign(confidences)
	if err != nil {
		return nil, err
	}
	correct := make([]bool, s.Len())
	for i := range correct {
		correct[i] = s.Outcomes[i] == s.Predictions[i].TopClass()
	}
	return binning.Summarize(bins, confidences, correct), nil
}
