package battery

import (
	"context"

	"gocalib/domain/core"
	"gocalib/domain/sample"
	"gocalib/estimators"
	"gocalib/ports"
)

// ConsistencyResamplingTest is the ECE-based alternative: it repeatedly
// redraws outcomes from the predictions themselves (the calibrated null),
// builds the empirical null distribution of the ECE statistic, and reports
// the fraction of resampled statistics reaching the observed one.
type ConsistencyResamplingTest struct {
	fitState
	estimator *estimators.ECE
	iters     int
	rng       ports.RNGPort
	seed      int64
}

func NewConsistencyResamplingTest(estimator *estimators.ECE, iters int, rng ports.RNGPort, seed int64) (*ConsistencyResamplingTest, error) {
	if estimator == nil {
		return nil, core.NewInvalidParameterError("consistency resampling test", "estimator", nil)
	}
	if iters <= 0 {
		return nil, core.NewInvalidParameterError("consistency resampling test", "bootstrap iterations", iters)
	}
	if rng == nil {
		return nil, core.NewInvalidParameterError("consistency resampling test", "rng", nil)
	}
	return &ConsistencyResamplingTest{estimator: estimator, iters: iters, rng: rng, seed: seed}, nil
}

func (t *ConsistencyResamplingTest) Name() string { return "consistency_resampling_ece" }

func (t *ConsistencyResamplingTest) Description() string {
	return "Parametric bootstrap of the ECE statistic under the calibrated null"
}

func (t *ConsistencyResamplingTest) Fit(ctx context.Context, s *sample.ClassSample) error {
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
