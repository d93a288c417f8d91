// Package battery provides hypothesis tests for the null hypothesis
// "the model is calibrated", built on the ECE and SKCE estimators.
package battery

import (
	"context"

	"golang.org/x/sync/errgroup"

	"gocalib/domain/core"
	"gocalib/domain/sample"
)

// TestResult is the outcome of a single calibration test evaluation.
type TestResult struct {
	ID         core.ID                `json:"id"`
	TestName   string                 `json:"test_name"`
	Statistic  float64                `json:"statistic"`
	NullValue  float64                `json:"null_value"` // always 0: the calibrated null
	PValue     float64                `json:"p_value"`
	SampleSize int                    `json:"sample_size"`
	Resamples  int                    `json:"resamples,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  core.Timestamp         `json:"created_at"`
}

// CalibrationTest is the shared contract of all calibration tests.
// Lifecycle: configured at construction, evaluated by Fit, then queried.
// Querying before Fit fails with core.ErrNotFitted.
type CalibrationTest interface {
	Name() string
	Description() string
	Fit(ctx context.Context, s *sample.ClassSample) error
	Result() (*TestResult, error)
	Statistic() (float64, error)
	PValue() (float64, error)
}

// SKCEEstimator is any estimator producing a scalar SKCE estimate from a
// class sample.
type SKCEEstimator interface {
	Estimate(s *sample.ClassSample) (float64, error)
}

// fitState holds the evaluated result shared by all test implementations.
type fitState struct {
	result *TestResult
}

func (f *fitState) Result() (*TestResult, error) {
	if f.result == nil {
		return nil, core.ErrNotFitted
	}
	return f.result, nil
}

func (f *fitState) Statistic() (float64, error) {
	if f.result == nil {
		return 0, core.ErrNotFitted
	}
	return f.result.Statistic, nil
}

func (f *fitState) PValue() (float64, error) {
	if f.result == nil {
		return 0, core.ErrNotFitted
	}
	return f.result.PValue, nil
}

func newResult(name string, statistic, pvalue float64, sampleSize int) *TestResult {
	return &TestResult{
		ID:         core.NewID(),
		TestName:   name,
		Statistic:  statistic,
		NullValue:  0,
		PValue:     pvalue,
		SampleSize: sampleSize,
		CreatedAt:  core.Now(),
	}
}

// Engine runs a battery of configured calibration tests concurrently over
// the same read-only sample and collects their results in registration
// order.
type Engine struct {
	tests []CalibrationTest
}

func NewEngine(tests ...CalibrationTest) *Engine {
	return &Engine{tests: tests}
}

// ListTests returns the names of all registered tests.
func (e *Engine) ListTests() []string {
	names := make([]string, len(e.tests))
	for i, t := range e.tests {
		names[i] = t.Name()
	}
	return names
}

// RunAll fits every test on the sample concurrently and returns their
// results. The sample is read-only and the tests are independent, so no
// locking is needed.
func (e *Engine) RunAll(ctx context.Context, s *sample.ClassSample) ([]*TestResult, error) {
	results := make([]*TestResult, len(e.tests))

	g, ctx := errgroup.WithContext(ctx)
	for i, t := range e.tests {
		i, t := i, t
		g.Go(func() error {
			if err := t.Fit(ctx, s); err != nil {
				return err
			}
			res, err := t.Result()
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
