package estimators

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"gocalib/domain/core"
	"gocalib/domain/sample"
	"gocalib/kernels"
)

// hFunc evaluates the degenerate h-statistic for a pair of sample indices:
//
//	h((p,y),(p',y')) = k(p,p')k(y,y') - E_{z~p'}[k(p,p')k(y,z)]
//	                 - E_{z~p}[k(p,p')k(z,y')] + E_{z~p,z'~p'}[k(p,p')k(z,z')]
//
// The population SKCE is the expectation of h over two independent draws.
type hFunc func(i, j int) (float64, error)

// classHFunc returns the h-statistic for categorical predictions. The
// conditional expectations over z ~ p reduce to finite sums over classes;
// for the Kronecker delta outcome kernel the whole bracket collapses to
// δ(y,y') - p'(y) - p(y') + ⟨p,p'⟩.
func classHFunc(k *kernels.TensorProduct, s *sample.ClassSample) hFunc {
	_, isDelta := k.Outcome.(kernels.KroneckerDelta)
	return func(i, j int) (float64, error) {
		p, q := s.Predictions[i], s.Predictions[j]
		y, z := s.Outcomes[i], s.Outcomes[j]

		kp, err := k.Prediction.Evaluate(p.Probs, q.Probs)
		if err != nil {
			return 0, err
		}

		var bracket float64
		if isDelta {
			dot := 0.0
			for c := range p.Probs {
				dot += p.Probs[c] * q.Probs[c]
			}
			bracket = -q.Probs[y] - p.Probs[z] + dot
			if y == z {
				bracket++
			}
		} else {
			l := k.Outcome
			var e1, e2, e3 float64
			for c := range q.Probs {
				e1 += q.Probs[c] * l.Evaluate(y, c)
			}
			for c := range p.Probs {
				e2 += p.Probs[c] * l.Evaluate(c, z)
				for cp := range q.Probs {
					e3 += p.Probs[c] * q.Probs[cp] * l.Evaluate(c, cp)
				}
			}
			bracket = l.Evaluate(y, z) - e1 - e2 + e3
		}

		h := kp * bracket
		if math.IsNaN(h) || math.IsInf(h, 0) {
			return 0, core.NewNumericalError("skce h-statistic", fmt.Sprintf("pair (%d,%d)", i, j), h)
		}
		return h, nil
	}
}

// gaussianHFunc returns the h-statistic for Gaussian predictions under an
// RBF outcome kernel. The conditional expectations have closed forms:
//
//	E_{z~N(μ,Σ)} exp(-‖z-y‖²/(2ℓ²)) = ℓ^d det(Σ+ℓ²I)^{-½} exp(-½(y-μ)ᵀ(Σ+ℓ²I)⁻¹(y-μ))
//
// so no sampling from the predictions is needed.
func gaussianHFunc(k *kernels.GaussianTensorProduct, s *sample.GaussianSample) hFunc {
	ell := k.Outcome.LengthScale
	return func(i, j int) (float64, error) {
		p, q := s.Predictions[i], s.Predictions[j]
		y, z := s.Outcomes[i], s.Outcomes[j]

		kp, err := k.Prediction.Evaluate(p, q)
		if err != nil {
			return 0, err
		}
		term, err := k.Outcome.Evaluate(y, z)
		if err != nil {
			return 0, err
		}
		e1, err := gaussExpect(q, y, ell)
		if err != nil {
			return 0, err
		}
		e2, err := gaussExpect(p, z, ell)
		if err != nil {
			return 0, err
		}
		e3, err := gaussCrossExpect(p, q, ell)
		if err != nil {
			return 0, err
		}

		h := kp * (term - e1 - e2 + e3)
		if math.IsNaN(h) || math.IsInf(h, 0) {
			return 0, core.NewNumericalError("skce h-statistic", fmt.Sprintf("pair (%d,%d)", i, j), h)
		}
		return h, nil
	}
}

// gaussExpect is E_{z~g}[exp(-‖z-y‖²/(2ℓ²))].
func gaussExpect(g sample.Gaussian, y []float64, ell float64) (float64, error) {
	d := g.Dim()
	if d == 1 {
		v := g.Sigma.At(0, 0) + ell*ell
		diff := y[0] - g.Mu[0]
		return ell / math.Sqrt(v) * math.Exp(-diff*diff/(2*v)), nil
	}
	a := mat.NewSymDense(d, nil)
	a.CopySym(g.Sigma)
	for i := 0; i < d; i++ {
		a.SetSym(i, i, a.At(i, i)+ell*ell)
	}
	diff := make([]float64, d)
	for i := range diff {
		diff[i] = y[i] - g.Mu[i]
	}
	return gaussFormula(a, diff, ell, d)
}

// gaussCrossExpect is E_{z~p, z'~q}[exp(-‖z-z'‖²/(2ℓ²))]; the difference of
// two independent Gaussians is Gaussian with summed covariances.
func gaussCrossExpect(p, q sample.Gaussian, ell float64) (float64, error) {
	d := p.Dim()
	if d == 1 {
		v := p.Sigma.At(0, 0) + q.Sigma.At(0, 0) + ell*ell
		diff := p.Mu[0] - q.Mu[0]
		return ell / math.Sqrt(v) * math.Exp(-diff*diff/(2*v)), nil
	}
	a := mat.NewSymDense(d, nil)
	a.CopySym(p.Sigma)
	a.AddSym(a, q.Sigma)
	for i := 0; i < d; i++ {
		a.SetSym(i, i, a.At(i, i)+ell*ell)
	}
	diff := make([]float64, d)
	for i := range diff {
		diff[i] = p.Mu[i] - q.Mu[i]
	}
	return gaussFormula(a, diff, ell, d)
}

func gaussFormula(a *mat.SymDense, diff []float64, ell float64, d int) (float64, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		return 0, core.NewNumericalError("gaussian expectation", "cholesky factorization", math.NaN())
	}
	b := mat.NewVecDense(d, diff)
	sol := mat.NewVecDense(d, nil)
	if err := chol.SolveVecTo(sol, b); err != nil {
		return 0, core.NewNumericalError("gaussian expectation", "linear solve", math.NaN())
	}
	quad := mat.Dot(b, sol)
	logPref := float64(d)*math.Log(ell) - 0.5*chol.LogDet()
	v := math.Exp(logPref - 0.5*quad)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, core.NewNumericalError("gaussian expectation", "closed form", v)
	}
	return v, nil
}
