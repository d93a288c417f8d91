package kernels

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"gocalib/domain/core"
	"gocalib/domain/sample"
)

// GaussianKernel is a kernel over Gaussian predictive distributions.
// Operating on the distributions directly avoids sampling from them when
// evaluating kernel calibration errors.
type GaussianKernel interface {
	Name() string
	Evaluate(a, b sample.Gaussian) (float64, error)
	Bound() float64
}

// WassersteinExponential is exp(-W₂(a,b)/ℓ) where W₂ is the closed-form
// 2-Wasserstein distance between Gaussians.
type WassersteinExponential struct {
	LengthScale float64
}

func NewWassersteinExponential(lengthScale float64) (*WassersteinExponential, error) {
	if err := checkLengthScale("wasserstein exponential kernel", lengthScale); err != nil {
		return nil, err
	}
	return &WassersteinExponential{LengthScale: lengthScale}, nil
}

func (k *WassersteinExponential) Name() string { return "wasserstein_exponential" }

func (k *WassersteinExponential) Bound() float64 { return 1 }

func (k *WassersteinExponential) Evaluate(a, b sample.Gaussian) (float64, error) {
	w2, err := Wasserstein2(a, b)
	if err != nil {
		return 0, err
	}
	return checkFinite(k.Name(), math.Exp(-w2/k.LengthScale))
}

// Wasserstein2 computes the 2-Wasserstein distance between two Gaussians:
//
//	W₂² = ‖μ₁-μ₂‖² + tr(Σ₁ + Σ₂ - 2(Σ₂^½ Σ₁ Σ₂^½)^½)
//
// The univariate case collapses to √((μ₁-μ₂)² + (σ₁-σ₂)²).
func Wasserstein2(a, b sample.Gaussian) (float64, error) {
	d := a.Dim()
	if b.Dim() != d {
		return 0, core.NewDimensionMismatchError("wasserstein distance", d, b.Dim())
	}

	meanSq := 0.0
	for i := range a.Mu {
		diff := a.Mu[i] - b.Mu[i]
		meanSq += diff * diff
	}

	if d == 1 {
		sd := math.Sqrt(a.Sigma.At(0, 0)) - math.Sqrt(b.Sigma.At(0, 0))
		return math.Sqrt(meanSq + sd*sd), nil
	}

	sqrtB, err := sqrtPSD(b.Sigma)
	if err != nil {
		return 0, err
	}
	// inner = Σ₂^½ Σ₁ Σ₂^½, symmetric PSD by construction
	var tmp, inner mat.Dense
	tmp.Mul(sqrtB, a.Sigma)
	inner.Mul(&tmp, sqrtB)
	innerSym := symmetrize(&inner)
	cross, err := sqrtPSD(innerSym)
	if err != nil {
		return 0, err
	}

	tr := mat.Trace(a.Sigma) + mat.Trace(b.Sigma) - 2*mat.Trace(cross)
	// Round-off can push the covariance term slightly negative.
	if tr < 0 {
		tr = 0
	}
	w2sq := meanSq + tr
	if math.IsNaN(w2sq) || math.IsInf(w2sq, 0) {
		return 0, core.NewNumericalError("wasserstein distance", "trace term", w2sq)
	}
	return math.Sqrt(w2sq), nil
}

// sqrtPSD computes the principal square root of a symmetric PSD matrix via
// eigendecomposition, clamping tiny negative eigenvalues caused by round-off.
func sqrtPSD(a *mat.SymDense) (*mat.SymDense, error) {
	n := a.SymmetricDim()
	var eig mat.EigenSym
	if ok := eig.Factorize(a, true); !ok {
		return nil, core.NewNumericalError("matrix square root", "eigendecomposition", math.NaN())
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	for i, v := range vals {
		if v < 0 {
			v = 0
		}
		vals[i] = math.Sqrt(v)
	}
	// V diag(√λ) Vᵀ
	scaled := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			scaled.Set(i, j, vecs.At(i, j)*vals[j])
		}
	}
	var out mat.Dense
	out.Mul(scaled, vecs.T())
	return symmetrize(&out), nil
}

func symmetrize(a *mat.Dense) *mat.SymDense {
	n, _ := a.Dims()
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, 0.5*(a.At(i, j)+a.At(j, i)))
		}
	}
	return s
}
