package battery

import (
	"context"
	"fmt"
	"math/rand"

	"gocalib/domain/sample"
)

// drawNullOutcomes redraws every outcome from its own prediction, which is
// exactly the distribution of outcomes under the calibrated null.
func drawNullOutcomes(s *sample.ClassSample, rng *rand.Rand, buf []int) []int {
	if buf == nil {
		buf = make([]int, s.Len())
	}
	for i, p := range s.Predictions {
		buf[i] = p.Draw(rng)
	}
	return buf
}

// nullExceedances runs the resampling loop: redraw outcomes under the null,
// evaluate the statistic and count draws reaching the observed value. A
// numerical failure aborts the loop and names the iteration — silently
// dropping a draw would change the effective resample count and bias the
// p-value. Cancellation is honored between iterations.
func nullExceedances(
	ctx context.Context,
	s *sample.ClassSample,
	rng *rand.Rand,
	iters int,
	observed float64,
	stat func(*sample.ClassSample) (float64, error),
) (int, error) {
	buf := make([]int, s.Len())
	count := 0
	for b := 0; b < iters; b++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		resampled, err := s.WithOutcomes(drawNullOutcomes(s, rng, buf))
		if err != nil {
			return 0, err
		}
		v, err := stat(resampled)
		if err != nil {
			return 0, fmt.Errorf("resampling iteration %d: %w", b, err)
		}
		if v >= observed {
			count++
		}
	}
	return count, nil
}
