package kernels

import (
	"gocalib/domain/core"
	"gocalib/domain/sample"
)

// TensorProduct combines a prediction kernel and a discrete outcome kernel:
// k((p,y),(p',y')) = Prediction(p,p') · Outcome(y,y'). Evaluation order is
// fixed as (prediction, outcome).
type TensorProduct struct {
	Prediction Kernel
	Outcome    ClassKernel
}

// NewTensorProduct wires a prediction kernel with an outcome kernel.
func NewTensorProduct(prediction Kernel, outcome ClassKernel) (*TensorProduct, error) {
	if prediction == nil {
		return nil, core.NewInvalidParameterError("tensor product kernel", "prediction kernel", nil)
	}
	if outcome == nil {
		return nil, core.NewInvalidParameterError("tensor product kernel", "outcome kernel", nil)
	}
	return &TensorProduct{Prediction: prediction, Outcome: outcome}, nil
}

func (t *TensorProduct) Name() string {
	return t.Prediction.Name() + "⊗" + t.Outcome.Name()
}

// Bound returns the product of the factor bounds.
func (t *TensorProduct) Bound() float64 {
	return t.Prediction.Bound() * t.Outcome.Bound()
}

// Evaluate computes the tensor-product kernel on two (prediction, outcome) pairs.
func (t *TensorProduct) Evaluate(p sample.Categorical, y int, q sample.Categorical, z int) (float64, error) {
	kp, err := t.Prediction.Evaluate(p.Probs, q.Probs)
	if err != nil {
		return 0, err
	}
	return kp * t.Outcome.Evaluate(y, z), nil
}

// GaussianTensorProduct combines a kernel over Gaussian predictions with an
// RBF kernel over continuous outcomes. The outcome factor is the concrete
// RBF type because closed-form integration against Gaussian predictions
// needs its length scale.
type GaussianTensorProduct struct {
	Prediction GaussianKernel
	Outcome    *RBF
}

func NewGaussianTensorProduct(prediction GaussianKernel, outcome *RBF) (*GaussianTensorProduct, error) {
	if prediction == nil {
		return nil, core.NewInvalidParameterError("gaussian tensor product kernel", "prediction kernel", nil)
	}
	if outcome == nil {
		return nil, core.NewInvalidParameterError("gaussian tensor product kernel", "outcome kernel", nil)
	}
	return &GaussianTensorProduct{Prediction: prediction, Outcome: outcome}, nil
}

func (t *GaussianTensorProduct) Name() string {
	return t.Prediction.Name() + "⊗" + t.Outcome.Name()
}

func (t *GaussianTensorProduct) Bound() float64 {
	return t.Prediction.Bound() * t.Outcome.Bound()
}

// Evaluate computes the tensor-product kernel on two (prediction, outcome) pairs.
func (t *GaussianTensorProduct) Evaluate(p sample.Gaussian, y []float64, q sample.Gaussian, z []float64) (float64, error) {
	kp, err := t.Prediction.Evaluate(p, q)
	if err != nil {
		return 0, err
	}
	ko, err := t.Outcome.Evaluate(y, z)
	if err != nil {
		return 0, err
	}
	return kp * ko, nil
}
