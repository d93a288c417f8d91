package estimators

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocalib/domain/core"
	"gocalib/domain/sample"
	"gocalib/internal/testkit"
	"gocalib/kernels"
)

func testTensor(t *testing.T) *kernels.TensorProduct {
	t.Helper()
	pred, err := kernels.NewExponential(kernels.TotalVariation{}, 1)
	require.NoError(t, err)
	tensor, err := kernels.NewTensorProduct(pred, kernels.KroneckerDelta{})
	require.NoError(t, err)
	return tensor
}

// refH marginalizes the h-statistic directly through the tensor kernel's
// Evaluate contract, as a reference for the closed-form implementation.
func refH(t *testing.T, k *kernels.TensorProduct, s *sample.ClassSample, i, j int) float64 {
	t.Helper()
	p, q := s.Predictions[i], s.Predictions[j]
	y, z := s.Outcomes[i], s.Outcomes[j]

	eval := func(yi, zj int) float64 {
		v, err := k.Evaluate(p, yi, q, zj)
		require.NoError(t, err)
		return v
	}

	term := eval(y, z)
	e1, e2, e3 := 0.0, 0.0, 0.0
	for c := range q.Probs {
		e1 += q.Probs[c] * eval(y, c)
	}
	for c := range p.Probs {
		e2 += p.Probs[c] * eval(c, z)
		for cp := range q.Probs {
			e3 += p.Probs[c] * q.Probs[cp] * eval(c, cp)
		}
	}
	return term - e1 - e2 + e3
}

func TestUnbiasedSKCE_MatchesDirectMarginalization(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	s := testkit.CalibratedClassSample(rng, 20, 3)
	tensor := testTensor(t)

	est, err := NewUnbiasedSKCE(tensor)
	require.NoError(t, err)
	got, err := est.Estimate(s)
	require.NoError(t, err)

	n := s.Len()
	want := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j {
				want += refH(t, tensor, s, i, j)
			}
		}
	}
	want /= float64(n * (n - 1))
	assert.InDelta(t, want, got, 1e-12)
}

func TestBiasedSKCE_MatchesDirectMarginalization(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	s := testkit.CalibratedClassSample(rng, 15, 4)
	tensor := testTensor(t)

	est, err := NewBiasedSKCE(tensor)
	require.NoError(t, err)
	got, err := est.Estimate(s)
	require.NoError(t, err)

	n := s.Len()
	want := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			want += refH(t, tensor, s, i, j)
		}
	}
	want /= float64(n * n)
	assert.InDelta(t, want, got, 1e-12)
}

func TestSKCE_BiasIdentity(t *testing.T) {
	// biased = ((n-1)·unbiased + mean diagonal)/n: the estimators differ by
	// an O(1/N) term carried entirely by the diagonal.
	rng := rand.New(rand.NewSource(29))
	s := testkit.OverconfidentClassSample(rng, 25, 3, 1.5)
	tensor := testTensor(t)

	biasedEst, _ := NewBiasedSKCE(tensor)
	unbiasedEst, _ := NewUnbiasedSKCE(tensor)

	biased, err := biasedEst.Estimate(s)
	require.NoError(t, err)
	unbiased, err := unbiasedEst.Estimate(s)
	require.NoError(t, err)

	n := s.Len()
	diag := 0.0
	for i := 0; i < n; i++ {
		diag += refH(t, tensor, s, i, i)
	}
	diag /= float64(n)

	want := (float64(n-1)*unbiased + diag) / float64(n)
	assert.InDelta(t, want, biased, 1e-12)
}

func TestUnbiasedSKCE_NearZeroOnCalibratedData(t *testing.T) {
	rng := rand.New(rand.NewSource(31))
	tensor := testTensor(t)
	est, _ := NewUnbiasedSKCE(tensor)

	const reps = 50
	estimates := make([]float64, reps)
	for r := range estimates {
		s := testkit.CalibratedClassSample(rng, 60, 3)
		v, err := est.Estimate(s)
		require.NoError(t, err)
		estimates[r] = v
	}
	mean, _ := testkit.MeanAndStdErr(estimates)
	assert.InDelta(t, 0.0, mean, 0.01, "unbiased SKCE should average to ~0 on calibrated data")
}

func TestUnbiasedSKCE_PositiveOnMiscalibratedData(t *testing.T) {
	rng := rand.New(rand.NewSource(37))
	s := testkit.OverconfidentClassSample(rng, 300, 3, 2)
	est, _ := NewUnbiasedSKCE(testTensor(t))

	got, err := est.Estimate(s)
	require.NoError(t, err)
	assert.Greater(t, got, 0.001)
}

func TestUnbiasedSKCE_InsufficientSamples(t *testing.T) {
	p, _ := sample.NewCategorical([]float64{0.8, 0.2})
	s, err := sample.NewClassSample([]sample.Categorical{p}, []int{0})
	require.NoError(t, err)

	est, _ := NewUnbiasedSKCE(testTensor(t))
	_, err = est.Estimate(s)
	assert.ErrorIs(t, err, core.ErrInsufficientSamples)

	// The biased V-statistic is defined down to a single sample.
	biased, _ := NewBiasedSKCE(testTensor(t))
	_, err = biased.Estimate(s)
	assert.NoError(t, err)
}

func TestUnbiasedSKCE_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(41))
	s := testkit.CalibratedClassSample(rng, 80, 3)
	est, _ := NewUnbiasedSKCE(testTensor(t))

	first, err := est.Estimate(s)
	require.NoError(t, err)
	second, err := est.Estimate(s)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBlockSKCE_Validation(t *testing.T) {
	tensor := testTensor(t)

	_, err := NewBlockSKCE(tensor, 1)
	assert.ErrorIs(t, err, core.ErrInvalidParameter)

	est, err := NewBlockSKCE(tensor, 50)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(43))
	s := testkit.CalibratedClassSample(rng, 10, 3)
	_, err = est.Estimate(s)
	assert.ErrorIs(t, err, core.ErrInvalidParameter, "block size exceeding the sample must fail")
}

func TestBlockSKCE_FullBlockEqualsUnbiased(t *testing.T) {
	rng := rand.New(rand.NewSource(47))
	s := testkit.CalibratedClassSample(rng, 30, 3)
	tensor := testTensor(t)

	unbiasedEst, _ := NewUnbiasedSKCE(tensor)
	blockEst, err := NewBlockSKCE(tensor, s.Len())
	require.NoError(t, err)

	want, err := unbiasedEst.Estimate(s)
	require.NoError(t, err)
	got, err := blockEst.Estimate(s)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-15, "a single full-size block is the plain U-statistic")
}

func TestBlockSKCE_BlockLayout(t *testing.T) {
	rng := rand.New(rand.NewSource(53))
	tensor := testTensor(t)

	cases := []struct {
		n, blockSize int
		wantSizes    []int
	}{
		{8, 3, []int{3, 3, 2}},
		{7, 3, []int{3, 3}}, // remainder of 1 cannot form a pair and is dropped
		{6, 2, []int{2, 2, 2}},
	}
	for _, tc := range cases {
		s := testkit.CalibratedClassSample(rng, tc.n, 3)
		est, err := NewBlockSKCE(tensor, tc.blockSize)
		require.NoError(t, err)
		_, sizes, err := est.BlockEstimates(s)
		require.NoError(t, err)
		assert.Equal(t, tc.wantSizes, sizes, "N=%d B=%d", tc.n, tc.blockSize)
	}
}

func TestBlockSKCE_ParallelMatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(59))
	s := testkit.CalibratedClassSample(rng, 100, 3)
	est, err := NewBlockSKCE(testTensor(t), 10)
	require.NoError(t, err)

	want, err := est.Estimate(s)
	require.NoError(t, err)
	for _, workers := range []int{1, 3, 8} {
		got, err := est.EstimateParallel(context.Background(), s, workers)
		require.NoError(t, err)
		assert.Equal(t, want, got, "workers=%d", workers)
	}
}

// nanKernel returns NaN without reporting an error itself; the estimator
// must surface this as a numerical error instead of absorbing it.
type nanKernel struct{}

func (nanKernel) Name() string   { return "nan" }
func (nanKernel) Bound() float64 { return 1 }
func (nanKernel) Evaluate(a, b []float64) (float64, error) {
	return math.NaN(), nil
}

func TestSKCE_PropagatesNumericalError(t *testing.T) {
	tensor, err := kernels.NewTensorProduct(nanKernel{}, kernels.KroneckerDelta{})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(61))
	s := testkit.CalibratedClassSample(rng, 10, 2)
	est, _ := NewUnbiasedSKCE(tensor)
	_, err = est.Estimate(s)
	assert.ErrorIs(t, err, core.ErrNumericalError)
}
