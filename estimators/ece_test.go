package estimators

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocalib/binning"
	"gocalib/domain/sample"
	"gocalib/internal/testkit"
	"gocalib/kernels"
)

// binarySample builds the four-prediction reliability example: confidences
// [0.9 0.9 0.6 0.6] with the first three predictions correct.
func binarySample(t *testing.T) *sample.ClassSample {
	t.Helper()
	probs := [][]float64{{0.9, 0.1}, {0.9, 0.1}, {0.6, 0.4}, {0.6, 0.4}}
	predictions := make([]sample.Categorical, len(probs))
	for i, p := range probs {
		c, err := sample.NewCategorical(p)
		require.NoError(t, err)
		predictions[i] = c
	}
	s, err := sample.NewClassSample(predictions, []int{0, 0, 0, 1})
	require.NoError(t, err)
	return s
}

func TestECE_ConfidenceScenario(t *testing.T) {
	s := binarySample(t)

	// Two equal-width bins over the observed [0.6, 0.9] range separate the
	// confidence levels: {0.9, 0.9} with accuracy 1.0 and {0.6, 0.6} with
	// accuracy 0.5, giving 0.5·|0.9-1.0| + 0.5·|0.6-0.5| = 0.10.
	span, err := binning.NewEqualSizeSpan(2)
	require.NoError(t, err)
	ece, err := NewECE(span, kernels.Cityblock{})
	require.NoError(t, err)

	got, err := ece.EstimateConfidence(s)
	require.NoError(t, err)
	assert.InDelta(t, 0.10, got, 1e-12)

	// Equal-mass binning produces the same partition here.
	mass, err := binning.NewEqualMass(2)
	require.NoError(t, err)
	ece2, err := NewECE(mass, kernels.Cityblock{})
	require.NoError(t, err)
	got2, err := ece2.EstimateConfidence(s)
	require.NoError(t, err)
	assert.InDelta(t, 0.10, got2, 1e-12)
}

func TestECE_MulticlassScenario(t *testing.T) {
	s := binarySample(t)

	span, _ := binning.NewEqualSizeSpan(2)
	ece, err := NewECE(span, kernels.TotalVariation{})
	require.NoError(t, err)

	// Per bin: mean prediction [0.9 0.1] vs frequencies [1 0] (TV 0.1) and
	// [0.6 0.4] vs [0.5 0.5] (TV 0.1), weighted equally.
	got, err := ece.Estimate(s)
	require.NoError(t, err)
	assert.InDelta(t, 0.10, got, 1e-12)
}

func TestECE_TotalVariationBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	s := testkit.OverconfidentClassSample(rng, 200, 4, 2)

	scheme, _ := binning.NewEqualSize(10)
	ece, err := NewECE(scheme, kernels.TotalVariation{})
	require.NoError(t, err)

	got, err := ece.Estimate(s)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, got, 0.0)
	assert.LessOrEqual(t, got, 1.0)
}

func TestECE_EmptyBinsContributeNothing(t *testing.T) {
	// All confidences land in the top bin; the other nine are empty and
	// must be skipped, not produce NaN.
	probs := [][]float64{{0.95, 0.05}, {0.92, 0.08}, {0.97, 0.03}}
	predictions := make([]sample.Categorical, len(probs))
	for i, p := range probs {
		c, err := sample.NewCategorical(p)
		require.NoError(t, err)
		predictions[i] = c
	}
	s, err := sample.NewClassSample(predictions, []int{0, 0, 1})
	require.NoError(t, err)

	scheme, _ := binning.NewEqualSize(10)
	ece, err := NewECE(scheme, kernels.Cityblock{})
	require.NoError(t, err)

	got, err := ece.EstimateConfidence(s)
	require.NoError(t, err)
	meanConf := (0.95 + 0.92 + 0.97) / 3
	assert.InDelta(t, meanConf-2.0/3.0, got, 1e-12)
}

func TestECE_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	s := testkit.CalibratedClassSample(rng, 150, 3)

	scheme, _ := binning.NewEqualMass(10)
	ece, err := NewECE(scheme, kernels.TotalVariation{})
	require.NoError(t, err)

	first, err := ece.Estimate(s)
	require.NoError(t, err)
	second, err := ece.Estimate(s)
	require.NoError(t, err)
	assert.Equal(t, first, second, "same sample must give bit-identical estimates")
}

func TestECE_BinStatistics(t *testing.T) {
	s := binarySample(t)

	span, _ := binning.NewEqualSizeSpan(2)
	ece, err := NewECE(span, kernels.Cityblock{})
	require.NoError(t, err)

	stats, err := ece.BinStatistics(s)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, 2, stats[0].Count)
	assert.InDelta(t, 0.6, stats[0].MeanConfidence, 1e-12)
	assert.InDelta(t, 0.5, stats[0].EmpiricalFrequency, 1e-12)

	assert.Equal(t, 2, stats[1].Count)
	assert.InDelta(t, 0.9, stats[1].MeanConfidence, 1e-12)
	assert.InDelta(t, 1.0, stats[1].EmpiricalFrequency, 1e-12)
}
