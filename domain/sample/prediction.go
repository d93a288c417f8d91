package sample

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"gocalib/domain/core"
)

// simplexTolerance bounds the allowed deviation of a probability vector's
// entries from summing to exactly 1.
const simplexTolerance = 1e-8

// Categorical is a discrete predictive distribution over K classes,
// represented as a probability vector on the simplex.
type Categorical struct {
	Probs []float64 `json:"probs"`
}

// NewCategorical validates and wraps a probability vector.
func NewCategorical(probs []float64) (Categorical, error) {
	c := Categorical{Probs: probs}
	if err := c.Validate(); err != nil {
		return Categorical{}, err
	}
	return c, nil
}

// Validate checks that the vector is a probability distribution.
func (c Categorical) Validate() error {
	if len(c.Probs) == 0 {
		return core.NewInvalidParameterError("categorical prediction", "probs", "empty vector")
	}
	sum := 0.0
	for _, p := range c.Probs {
		if math.IsNaN(p) || p < 0 {
			return core.NewInvalidParameterError("categorical prediction", "probs", p)
		}
		sum += p
	}
	if math.Abs(sum-1) > simplexTolerance {
		return core.NewInvalidParameterError("categorical prediction", "sum(probs)", sum)
	}
	return nil
}

// NumClasses returns the dimension of the prediction.
func (c Categorical) NumClasses() int {
	return len(c.Probs)
}

// TopClass returns the most likely class; ties resolve to the lowest index.
func (c Categorical) TopClass() int {
	best := 0
	for k, p := range c.Probs {
		if p > c.Probs[best] {
			best = k
		}
	}
	return best
}

// Confidence returns the probability assigned to the most likely class.
func (c Categorical) Confidence() float64 {
	return c.Probs[c.TopClass()]
}

// Draw samples a class from the prediction using the supplied RNG.
// This is the primitive behind consistency resampling: under the null
// hypothesis of calibration the outcome is distributed exactly like this.
func (c Categorical) Draw(rng *rand.Rand) int {
	u := rng.Float64()
	acc := 0.0
	for k, p := range c.Probs {
		acc += p
		if u < acc {
			return k
		}
	}
	// Float round-off can leave u just above the accumulated mass.
	return len(c.Probs) - 1
}

// Gaussian is a continuous predictive distribution with mean vector Mu and
// symmetric positive semi-definite covariance Sigma.
type Gaussian struct {
	Mu    []float64
	Sigma *mat.SymDense
}

// NewGaussian validates dimensions and wraps the parameters.
func NewGaussian(mu []float64, sigma *mat.SymDense) (Gaussian, error) {
	if len(mu) == 0 {
		return Gaussian{}, core.NewInvalidParameterError("gaussian prediction", "mu", "empty vector")
	}
	if sigma == nil || sigma.SymmetricDim() != len(mu) {
		got := 0
		if sigma != nil {
			got = sigma.SymmetricDim()
		}
		return Gaussian{}, core.NewDimensionMismatchError("gaussian prediction covariance", len(mu), got)
	}
	return Gaussian{Mu: mu, Sigma: sigma}, nil
}

// NewUnivariateGaussian builds a 1-D Gaussian prediction from mean and variance.
func NewUnivariateGaussian(mu, variance float64) (Gaussian, error) {
	if variance < 0 || math.IsNaN(variance) {
		return Gaussian{}, core.NewInvalidParameterError("gaussian prediction", "variance", variance)
	}
	return Gaussian{Mu: []float64{mu}, Sigma: mat.NewSymDense(1, []float64{variance})}, nil
}

// Dim returns the dimension of the outcome space.
func (g Gaussian) Dim() int {
	return len(g.Mu)
}

// Draw samples an outcome from the prediction using the supplied RNG.
// The covariance is factored per call; callers drawing many times from the
// same prediction should hoist the factorization if it ever shows up in
// profiles.
func (g Gaussian) Draw(rng *rand.Rand) ([]float64, error) {
	d := g.Dim()
	if d == 1 {
		sd := math.Sqrt(g.Sigma.At(0, 0))
		return []float64{g.Mu[0] + sd*rng.NormFloat64()}, nil
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(g.Sigma); !ok {
		return nil, core.NewNumericalError("gaussian prediction", "cholesky factorization", math.NaN())
	}
	z := mat.NewVecDense(d, nil)
	for i := 0; i < d; i++ {
		z.SetVec(i, rng.NormFloat64())
	}
	var l mat.TriDense
	chol.LTo(&l)
	out := mat.NewVecDense(d, nil)
	out.MulVec(&l, z)
	res := make([]float64, d)
	for i := 0; i < d; i++ {
		res[i] = g.Mu[i] + out.AtVec(i)
	}
	return res, nil
}
