// Package testkit provides synthetic prediction/outcome generators and
// summary helpers for the calibration test suites.
package testkit

import (
	"math"
	"math/rand"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"

	"gocalib/domain/sample"
)

// CalibratedClassSample generates n categorical predictions over k classes
// with outcomes drawn exactly from each prediction, so the sample is
// calibrated by construction. Predictions are random simplex points.
func CalibratedClassSample(rng *rand.Rand, n, k int) *sample.ClassSample {
	predictions := make([]sample.Categorical, n)
	outcomes := make([]int, n)
	for i := 0; i < n; i++ {
		predictions[i] = randomSimplex(rng, k)
		outcomes[i] = predictions[i].Draw(rng)
	}
	s, err := sample.NewClassSample(predictions, outcomes)
	if err != nil {
		panic(err)
	}
	return s
}

// OverconfidentClassSample generates predictions sharpened towards their
// top class while outcomes are drawn from the original (flatter)
// distribution, producing a genuinely miscalibrated sample. sharpen > 0
// controls the degree of overconfidence.
func OverconfidentClassSample(rng *rand.Rand, n, k int, sharpen float64) *sample.ClassSample {
	predictions := make([]sample.Categorical, n)
	outcomes := make([]int, n)
	for i := 0; i < n; i++ {
		base := randomSimplex(rng, k)
		outcomes[i] = base.Draw(rng)
		predictions[i] = sharpenSimplex(base, sharpen)
	}
	s, err := sample.NewClassSample(predictions, outcomes)
	if err != nil {
		panic(err)
	}
	return s
}

// CalibratedGaussianSample generates n univariate Gaussian predictions with
// random means and variances, outcomes drawn exactly from each prediction.
func CalibratedGaussianSample(rng *rand.Rand, n int) *sample.GaussianSample {
	predictions := make([]sample.Gaussian, n)
	outcomes := make([][]float64, n)
	for i := 0; i < n; i++ {
		mu := rng.NormFloat64()
		variance := 0.1 + rng.Float64()
		g, err := sample.NewUnivariateGaussian(mu, variance)
		if err != nil {
			panic(err)
		}
		predictions[i] = g
		outcomes[i] = []float64{mu + math.Sqrt(variance)*rng.NormFloat64()}
	}
	s, err := sample.NewGaussianSample(predictions, outcomes)
	if err != nil {
		panic(err)
	}
	return s
}

// BiasedGaussianSample shifts every outcome away from its prediction mean,
// producing a miscalibrated continuous sample.
func BiasedGaussianSample(rng *rand.Rand, n int, shift float64) *sample.GaussianSample {
	s := CalibratedGaussianSample(rng, n)
	for i := range s.Outcomes {
		s.Outcomes[i][0] += shift
	}
	return s
}

// RandomSPD builds a random symmetric positive definite d×d matrix.
func RandomSPD(rng *rand.Rand, d int) *mat.SymDense {
	a := mat.NewDense(d, d, nil)
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			a.Set(i, j, rng.NormFloat64())
		}
	}
	var aat mat.Dense
	aat.Mul(a, a.T())
	s := mat.NewSymDense(d, nil)
	for i := 0; i < d; i++ {
		for j := i; j < d; j++ {
			v := aat.At(i, j)
			if i == j {
				v += 0.5 // keep eigenvalues away from zero
			}
			s.SetSym(i, j, v)
		}
	}
	return s
}

// MeanAndStdErr summarizes repeated estimator draws for convergence checks.
func MeanAndStdErr(xs []float64) (float64, float64) {
	mean, _ := stats.Mean(xs)
	sd, _ := stats.StandardDeviationSample(xs)
	return mean, sd / math.Sqrt(float64(len(xs)))
}

func randomSimplex(rng *rand.Rand, k int) sample.Categorical {
	probs := make([]float64, k)
	sum := 0.0
	for c := range probs {
		probs[c] = rng.ExpFloat64()
		sum += probs[c]
	}
	for c := range probs {
		probs[c] /= sum
	}
	return sample.Categorical{Probs: probs}
}

func sharpenSimplex(c sample.Categorical, sharpen float64) sample.Categorical {
	probs := make([]float64, len(c.Probs))
	sum := 0.0
	for i, p := range c.Probs {
		probs[i] = math.Pow(p, 1+sharpen)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return sample.Categorical{Probs: probs}
}
