package kernels

import (
	"math"

	"gocalib/domain/core"
)

// Kernel is a symmetric positive semi-definite function over real vectors.
// Implementations evaluate lazily and report non-finite results as
// core.ErrNumericalError rather than silently absorbing them.
type Kernel interface {
	Name() string
	Evaluate(a, b []float64) (float64, error)
	// Bound returns an upper bound on |k(a,b)| over the kernel's domain,
	// used by distribution-free concentration bounds.
	Bound() float64
}

func checkLengthScale(name string, ell float64) error {
	if ell <= 0 || math.IsNaN(ell) || math.IsInf(ell, 0) {
		return core.NewInvalidParameterError(name, "length scale", ell)
	}
	return nil
}

func checkFinite(name string, v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, core.NewNumericalError(name, "kernel evaluation", v)
	}
	return v, nil
}

// Exponential is exp(-d(a,b)/ℓ) over a base distance.
type Exponential struct {
	Dist        Distance
	LengthScale float64
}

// NewExponential validates the length scale at construction time.
func NewExponential(dist Distance, lengthScale float64) (*Exponential, error) {
	if err := checkLengthScale("exponential kernel", lengthScale); err != nil {
		return nil, err
	}
	return &Exponential{Dist: dist, LengthScale: lengthScale}, nil
}

func (k *Exponential) Name() string { return "exponential_" + k.Dist.Name() }

func (k *Exponential) Bound() float64 { return 1 }

func (k *Exponential) Evaluate(a, b []float64) (float64, error) {
	d, err := k.Dist.Distance(a, b)
	if err != nil {
		return 0, err
	}
	return checkFinite(k.Name(), math.Exp(-d/k.LengthScale))
}

// SqExponential is exp(-d(a,b)²/(2ℓ²)) over a base distance.
type SqExponential struct {
	Dist        Distance
	LengthScale float64
}

func NewSqExponential(dist Distance, lengthScale float64) (*SqExponential, error) {
	if err := checkLengthScale("squared exponential kernel", lengthScale); err != nil {
		return nil, err
	}
	return &SqExponential{Dist: dist, LengthScale: lengthScale}, nil
}

func (k *SqExponential) Name() string { return "sqexponential_" + k.Dist.Name() }

func (k *SqExponential) Bound() float64 { return 1 }

func (k *SqExponential) Evaluate(a, b []float64) (float64, error) {
	d, err := k.Dist.Distance(a, b)
	if err != nil {
		return 0, err
	}
	return checkFinite(k.Name(), math.Exp(-d*d/(2*k.LengthScale*k.LengthScale)))
}

// Matern32 is the Matérn kernel with smoothness 3/2:
// (1 + √3 d/ℓ)·exp(-√3 d/ℓ).
type Matern32 struct {
	Dist        Distance
	LengthScale float64
}

func NewMatern32(dist Distance, lengthScale float64) (*Matern32, error) {
	if err := checkLengthScale("matern 3/2 kernel", lengthScale); err != nil {
		return nil, err
	}
	return &Matern32{Dist: dist, LengthScale: lengthScale}, nil
}

func (k *Matern32) Name() string { return "matern32_" + k.Dist.Name() }

func (k *Matern32) Bound() float64 { return 1 }

func (k *Matern32) Evaluate(a, b []float64) (float64, error) {
	d, err := k.Dist.Distance(a, b)
	if err != nil {
		return 0, err
	}
	r := math.Sqrt(3) * d / k.LengthScale
	return checkFinite(k.Name(), (1+r)*math.Exp(-r))
}

// Matern52 is the Matérn kernel with smoothness 5/2:
// (1 + √5 d/ℓ + 5d²/(3ℓ²))·exp(-√5 d/ℓ).
type Matern52 struct {
	Dist        Distance
	LengthScale float64
}

func NewMatern52(dist Distance, lengthScale float64) (*Matern52, error) {
	if err := checkLengthScale("matern 5/2 kernel", lengthScale); err != nil {
		return nil, err
	}
	return &Matern52{Dist: dist, LengthScale: lengthScale}, nil
}

func (k *Matern52) Name() string { return "matern52_" + k.Dist.Name() }

func (k *Matern52) Bound() float64 { return 1 }

func (k *Matern52) Evaluate(a, b []float64) (float64, error) {
	d, err := k.Dist.Distance(a, b)
	if err != nil {
		return 0, err
	}
	r := math.Sqrt(5) * d / k.LengthScale
	return checkFinite(k.Name(), (1+r+r*r/3)*math.Exp(-r))
}

// RBF is a scalar squared-exponential kernel over outcome vectors, kept as a
// concrete type because the Gaussian-prediction h-statistic needs direct
// access to the length scale for its closed-form conditional expectations.
type RBF struct {
	LengthScale float64
}

func NewRBF(lengthScale float64) (*RBF, error) {
	if err := checkLengthScale("rbf outcome kernel", lengthScale); err != nil {
		return nil, err
	}
	return &RBF{LengthScale: lengthScale}, nil
}

func (k *RBF) Name() string { return "rbf" }

func (k *RBF) Bound() float64 { return 1 }

func (k *RBF) Evaluate(a, b []float64) (float64, error) {
	if err := checkDims("rbf outcome kernel", a, b); err != nil {
		return 0, err
	}
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return checkFinite(k.Name(), math.Exp(-sum/(2*k.LengthScale*k.LengthScale)))
}

// ClassKernel is a kernel over discrete class outcomes.
type ClassKernel interface {
	Name() string
	Evaluate(y, z int) float64
	Bound() float64
}

// KroneckerDelta is the white outcome kernel 1[y = z], the standard choice
// for discrete outcomes in kernel calibration errors.
type KroneckerDelta struct{}

func (KroneckerDelta) Name() string { return "kronecker_delta" }

func (KroneckerDelta) Bound() float64 { return 1 }

func (KroneckerDelta) Evaluate(y, z int) float64 {
	if y == z {
		return 1
	}
	return 0
}
