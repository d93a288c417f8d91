package sample

import (
	"gocalib/domain/core"
)

// ClassSample is an aligned sequence of categorical predictions and observed
// class labels. Order carries no meaning for the estimators (they are
// symmetric statistics) but paired indices must stay aligned.
type ClassSample struct {
	Predictions []Categorical
	Outcomes    []int
}

// NewClassSample validates alignment, simplex membership, consistent class
// dimension and outcome range.
func NewClassSample(predictions []Categorical, outcomes []int) (*ClassSample, error) {
	if len(predictions) == 0 {
		return nil, core.NewInsufficientSamplesError("class sample", 1, 0)
	}
	if len(predictions) != len(outcomes) {
		return nil, core.NewDimensionMismatchError("class sample outcomes", len(predictions), len(outcomes))
	}
	k := predictions[0].NumClasses()
	for i, p := range predictions {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if p.NumClasses() != k {
			return nil, core.NewDimensionMismatchError("class sample predictions", k, p.NumClasses())
		}
		if outcomes[i] < 0 || outcomes[i] >= k {
			return nil, core.NewInvalidParameterError("class sample", "outcome", outcomes[i])
		}
	}
	return &ClassSample{Predictions: predictions, Outcomes: outcomes}, nil
}

// Len returns the number of prediction/outcome pairs.
func (s *ClassSample) Len() int {
	return len(s.Predictions)
}

// NumClasses returns the shared class dimension.
func (s *ClassSample) NumClasses() int {
	return s.Predictions[0].NumClasses()
}

// Confidences returns the top-class confidence of every prediction.
func (s *ClassSample) Confidences() []float64 {
	out := make([]float64, s.Len())
	for i, p := range s.Predictions {
		out[i] = p.Confidence()
	}
	return out
}

// WithOutcomes returns a sample sharing this sample's predictions but with
// replaced outcomes. Used by consistency resampling, which redraws outcomes
// under the calibrated null.
func (s *ClassSample) WithOutcomes(outcomes []int) (*ClassSample, error) {
	if len(outcomes) != s.Len() {
		return nil, core.NewDimensionMismatchError("class sample outcomes", s.Len(), len(outcomes))
	}
	return &ClassSample{Predictions: s.Predictions, Outcomes: outcomes}, nil
}

// GaussianSample is an aligned sequence of Gaussian predictions and observed
// real-vector outcomes.
type GaussianSample struct {
	Predictions []Gaussian
	Outcomes    [][]float64
}

// NewGaussianSample validates alignment and consistent outcome dimension.
func NewGaussianSample(predictions []Gaussian, outcomes [][]float64) (*GaussianSample, error) {
	if len(predictions) == 0 {
		return nil, core.NewInsufficientSamplesError("gaussian sample", 1, 0)
	}
	if len(predictions) != len(outcomes) {
		return nil, core.NewDimensionMismatchError("gaussian sample outcomes", len(predictions), len(outcomes))
	}
	d := predictions[0].Dim()
	for i, p := range predictions {
		if p.Dim() != d {
			return nil, core.NewDimensionMismatchError("gaussian sample predictions", d, p.Dim())
		}
		if len(outcomes[i]) != d {
			return nil, core.NewDimensionMismatchError("gaussian sample outcomes", d, len(outcomes[i]))
		}
	}
	return &GaussianSample{Predictions: predictions, Outcomes: outcomes}, nil
}

// Len returns the number of prediction/outcome pairs.
func (s *GaussianSample) Len() int {
	return len(s.Predictions)
}

// Dim returns the shared outcome dimension.
func (s *GaussianSample) Dim() int {
	return s.Predictions[0].Dim()
}
