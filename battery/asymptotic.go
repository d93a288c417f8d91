package battery

import (
	"context"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"gocalib/domain/core"
	"gocalib/domain/sample"
	"gocalib/estimators"
	"gocalib/ports"
)

// AsymptoticBlockTest tests calibration with the block (sub-quadratic or
// linear) SKCE estimator. The per-block U-statistics are i.i.d., so their
// mean is asymptotically normal and a one-sided Gaussian z-test applies
// without resampling.
type AsymptoticBlockTest struct {
	fitState
	estimator *estimators.BlockSKCE
}

func NewAsymptoticBlockTest(estimator *estimators.BlockSKCE) (*AsymptoticBlockTest, error) {
	if estimator == nil {
		return nil, core.NewInvalidParameterError("asymptotic block test", "estimator", nil)
	}
	return &AsymptoticBlockTest{estimator: estimator}, nil
}

func (t *AsymptoticBlockTest) Name() string { return "asymptotic_block_skce" }

func (t *AsymptoticBlockTest) Description() string {
	return "Gaussian z-test on the mean of per-block unbiased SKCE estimates"
}

func (t *AsymptoticBlockTest) Fit(ctx context.Context, s *sample.ClassSample) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ests, sizes, err := t.estimator.BlockEstimates(s)
	if err != nil {
		return err
	}
	if len(ests) < 2 {
		return core.NewInsufficientSamplesError("asymptotic block test", 2*t.estimator.BlockSize(), s.Len())
	}

	mean, err := stats.Mean(ests)
	if err != nil {
		return err
	}
	sd, err := stats.StandardDeviationSample(ests)
	if err != nil {
		return err
	}

	var z, pvalue float64
	if sd == 0 {
		// All block estimates identical: degenerate but well-defined.
		if mean > 0 {
			pvalue = 0
		} else {
			pvalue = 1
		}
		z = math.Inf(sign(mean))
	} else {
		z = mean / (sd / math.Sqrt(float64(len(ests))))
		pvalue = distuv.Normal{Mu: 0, Sigma: 1}.Survival(z)
	}

	statistic := weighted(ests, sizes)
	res := newResult(t.Name(), statistic, pvalue, s.Len())
	res.Metadata = map[string]interface{}{
		"z_statistic": z,
		"blocks":      len(ests),
		"block_size":  t.estimator.BlockSize(),
	}
	t.result = res
	return nil
}

func sign(x float64) int {
	if x > 0 {
		return 1
	}
	return -1
}

func weighted(ests []float64, sizes []int) float64 {
	num, den := 0.0, 0.0
	for i, e := range ests {
		num += e * float64(sizes[i])
		den += float64(sizes[i])
	}
	return num / den
}

// AsymptoticTest tests calibration with the quadratic unbiased SKCE
// estimator. The limiting null law of the degenerate U-statistic has no
// closed-form quantiles, so the null distribution of the statistic is
// estimated by redrawing outcomes from the predictions (parametric
// bootstrap under the calibrated null) with an injectable random source.
type AsymptoticTest struct {
	fitState
	estimator *estimators.UnbiasedSKCE
	iters     int
	rng       ports.RNGPort
	seed      int64
}

func NewAsymptoticTest(estimator *estimators.UnbiasedSKCE, iters int, rng ports.RNGPort, seed int64) (*AsymptoticTest, error) {
	if estimator == nil {
		return nil, core.NewInvalidParameterError("asymptotic test", "estimator", nil)
	}
	if iters <= 0 {
		return nil, core.NewInvalidParameterError("asymptotic test", "bootstrap iterations", iters)
	}
	if rng == nil {
		return nil, core.NewInvalidParameterError("asymptotic test", "rng", nil)
	}
	return &AsymptoticTest{estimator: estimator, iters: iters, rng: rng, seed: seed}, nil
}

func (t *AsymptoticTest) Name() string { return "asymptotic_skce" }

func (t *AsymptoticTest) Description() string {
	return "Unbiased quadratic SKCE with a resampled null distribution of the degenerate U-statistic"
}

func (t *AsymptoticTest) Fit(ctx context.Context, s *sample.ClassSample) error {
	observed, err := t.estimator.Estimate(s)
	if err != nil {
		return err
	}
	stream := t.rng.SeededStream(t.Name(), t.seed)
	count, err := nullExceedances(ctx, s, stream, t.iters, observed, t.estimator.Estimate)
	if err != nil {
		return err
	}
	res := newResult(t.Name(), observed, float64(count)/float64(t.iters), s.Len())
	res.Resamples = t.iters
	t.result = res
	return nil
}
