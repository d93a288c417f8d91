package battery

import (
	"context"
	"math"

	"gocalib/domain/core"
	"gocalib/domain/sample"
	"gocalib/kernels"
)

// DistributionFreeTest bounds the p-value with a Hoeffding-type
// concentration inequality for bounded U-statistics:
//
//	p ≤ exp(-⌊N/2⌋·max(t,0)² / (2·B²))
//
// where B bounds |h| via the tensor kernel's factor bounds. The bound
// holds for every finite N without asymptotic approximation, at the cost
// of being much more conservative (less power) than the asymptotic tests.
type DistributionFreeTest struct {
	fitState
	estimator SKCEEstimator
	hBound    float64
}

// NewDistributionFreeTest wraps a biased or unbiased SKCE estimator. The
// kernel is needed for the bound on the h-statistic: with factor bounds
// k₁ ≤ B₁ and k₂ ≤ B₂, every term of h is bounded by B₁·B₂, so |h| ≤ 2·B₁·B₂.
func NewDistributionFreeTest(estimator SKCEEstimator, kernel *kernels.TensorProduct) (*DistributionFreeTest, error) {
	if estimator == nil {
		return nil, core.NewInvalidParameterError("distribution-free test", "estimator", nil)
	}
	if kernel == nil {
		return nil, core.NewInvalidParameterError("distribution-free test", "kernel", nil)
	}
	return &DistributionFreeTest{estimator: estimator, hBound: 2 * kernel.Bound()}, nil
}

func (t *DistributionFreeTest) Name() string { return "distribution_free_skce" }

func (t *DistributionFreeTest) Description() string {
	return "Finite-sample Hoeffding bound on the SKCE estimate; conservative but valid for every N"
}

func (t *DistributionFreeTest) Fit(ctx context.Context, s *sample.ClassSample) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	observed, err := t.estimator.Estimate(s)
	if err != nil {
		return err
	}
	pairs := float64(s.Len() / 2)
	excess := math.Max(observed, 0)
	pvalue := math.Exp(-pairs * excess * excess / (2 * t.hBound * t.hBound))

	res := newResult(t.Name(), observed, pvalue, s.Len())
	res.Metadata = map[string]interface{}{
		"h_bound": t.hBound,
	}
	t.result = res
	return nil
}
