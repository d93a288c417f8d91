package estimators

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"gocalib/domain/core"
	"gocalib/domain/sample"
	"gocalib/internal/testkit"
	"gocalib/kernels"
)

func TestGaussExpect_Univariate(t *testing.T) {
	g, err := sample.NewUnivariateGaussian(0, 1)
	require.NoError(t, err)

	// E_{z~N(0,1)} exp(-z²/2) = 1/√2 for ℓ = 1.
	v, err := gaussExpect(g, []float64{0}, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1/math.Sqrt2, v, 1e-12)
}

func TestGaussExpect_MultivariateMatchesUnivariateProduct(t *testing.T) {
	// With identity covariance and y = μ the closed form is ℓ²/det(2I)^½ = ½.
	g, err := sample.NewGaussian([]float64{1, -1}, mat.NewSymDense(2, []float64{1, 0, 0, 1}))
	require.NoError(t, err)

	v, err := gaussExpect(g, []float64{1, -1}, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, v, 1e-12)
}

func TestGaussCrossExpect_Univariate(t *testing.T) {
	p, _ := sample.NewUnivariateGaussian(0, 1)
	q, _ := sample.NewUnivariateGaussian(0, 1)

	// Variance of z - z' is 2, so the closed form is 1/√3 for ℓ = 1.
	v, err := gaussCrossExpect(p, q, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1/math.Sqrt(3), v, 1e-12)
}

func gaussianTensor(t *testing.T) *kernels.GaussianTensorProduct {
	t.Helper()
	pred, err := kernels.NewWassersteinExponential(1)
	require.NoError(t, err)
	rbf, err := kernels.NewRBF(1)
	require.NoError(t, err)
	tensor, err := kernels.NewGaussianTensorProduct(pred, rbf)
	require.NoError(t, err)
	return tensor
}

func TestGaussianSKCE_NearZeroOnCalibratedData(t *testing.T) {
	rng := rand.New(rand.NewSource(67))
	tensor := gaussianTensor(t)
	est, err := NewUnbiasedGaussianSKCE(tensor)
	require.NoError(t, err)

	const reps = 30
	estimates := make([]float64, reps)
	for r := range estimates {
		s := testkit.CalibratedGaussianSample(rng, 60)
		v, err := est.Estimate(s)
		require.NoError(t, err)
		estimates[r] = v
	}
	mean, _ := testkit.MeanAndStdErr(estimates)
	assert.InDelta(t, 0.0, mean, 0.01)
}

func TestGaussianSKCE_PositiveOnBiasedPredictions(t *testing.T) {
	rng := rand.New(rand.NewSource(71))
	s := testkit.BiasedGaussianSample(rng, 100, 2)

	est, err := NewUnbiasedGaussianSKCE(gaussianTensor(t))
	require.NoError(t, err)
	got, err := est.Estimate(s)
	require.NoError(t, err)
	assert.Greater(t, got, 0.005)
}

func TestGaussianSKCE_InsufficientSamples(t *testing.T) {
	g, _ := sample.NewUnivariateGaussian(0, 1)
	s, err := sample.NewGaussianSample([]sample.Gaussian{g}, [][]float64{{0.3}})
	require.NoError(t, err)

	unbiased, _ := NewUnbiasedGaussianSKCE(gaussianTensor(t))
	_, err = unbiased.Estimate(s)
	assert.ErrorIs(t, err, core.ErrInsufficientSamples)

	biased, _ := NewBiasedGaussianSKCE(gaussianTensor(t))
	_, err = biased.Estimate(s)
	assert.NoError(t, err)
}
