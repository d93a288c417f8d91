package estimators

import (
	"context"

	"golang.org/x/sync/errgroup"

	"gocalib/domain/core"
	"gocalib/domain/sample"
)

// EstimateParallel evaluates the per-block U-statistics on up to workers
// goroutines. Blocks are independent, so the fan-out needs no locking; the
// final reduction runs in fixed block order with compensated summation, so
// the result is bit-identical to the sequential Estimate for any worker
// count.
func (e *BlockSKCE) EstimateParallel(ctx context.Context, s *sample.ClassSample, workers int) (float64, error) {
	if workers < 1 {
		return 0, core.NewInvalidParameterError("block skce", "workers", workers)
	}
	n := s.Len()
	if n < 2 {
		return 0, core.NewInsufficientSamplesError("block skce", 2, n)
	}
	if e.blockSize > n {
		return 0, core.NewInvalidParameterError("block skce", "block size", e.blockSize)
	}

	starts := blockStarts(n, e.blockSize)
	ests := make([]float64, len(starts))
	sizes := make([]int, len(starts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	h := classHFunc(e.kernel, s)
	for b, start := range starts {
		b, start := b, start
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			end := start + e.blockSize
			if end > n {
				end = n
			}
			var acc kahanSum
			for i := start; i < end; i++ {
				for j := i + 1; j < end; j++ {
					v, err := h(i, j)
					if err != nil {
						return err
					}
					acc.add(2 * v)
				}
			}
			size := end - start
			ests[b] = acc.value() / float64(size*(size-1))
			sizes[b] = size
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return weightedMean(ests, sizes), nil
}

func blockStarts(n, blockSize int) []int {
	var starts []int
	for start := 0; start+2 <= n; start += blockSize {
		if n-start < 2 {
			break
		}
		starts = append(starts, start)
	}
	return starts
}
