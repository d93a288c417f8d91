package estimators

import (
	"gocalib/domain/core"
	"gocalib/domain/sample"
	"gocalib/kernels"
)

// Estimators of the squared kernel calibration error (SKCE). All are pure
// functions of an immutable sample; they hold only their kernel
// configuration and are safe to share across goroutines.
//
// Unbiased estimates can come out slightly negative even though the
// population SKCE is non-negative. That is an accepted unbiasedness
// artifact; nothing here clamps to zero, since clamping reintroduces bias.

// BiasedSKCE is the V-statistic: the average of h over all N² ordered
// pairs, including the diagonal. Defined for N ≥ 1.
type BiasedSKCE struct {
	kernel *kernels.TensorProduct
}

func NewBiasedSKCE(kernel *kernels.TensorProduct) (*BiasedSKCE, error) {
	if kernel == nil {
		return nil, core.NewInvalidParameterError("biased skce", "kernel", nil)
	}
	return &BiasedSKCE{kernel: kernel}, nil
}

func (e *BiasedSKCE) Estimate(s *sample.ClassSample) (float64, error) {
	if s.Len() < 1 {
		return 0, core.NewInsufficientSamplesError("biased skce", 1, s.Len())
	}
	return biasedMean(s.Len(), classHFunc(e.kernel, s))
}

// UnbiasedSKCE is the degree-2 U-statistic: the average of h over all
// ordered pairs i ≠ j. O(N²) time, O(1) extra space. Requires N ≥ 2.
type UnbiasedSKCE struct {
	kernel *kernels.TensorProduct
}

func NewUnbiasedSKCE(kernel *kernels.TensorProduct) (*UnbiasedSKCE, error) {
	if kernel == nil {
		return nil, core.NewInvalidParameterError("unbiased skce", "kernel", nil)
	}
	return &UnbiasedSKCE{kernel: kernel}, nil
}

func (e *UnbiasedSKCE) Estimate(s *sample.ClassSample) (float64, error) {
	if s.Len() < 2 {
		return 0, core.NewInsufficientSamplesError("unbiased skce", 2, s.Len())
	}
	return unbiasedMean(s.Len(), classHFunc(e.kernel, s))
}

// BlockSKCE partitions the sample into consecutive blocks of the configured
// size, computes the unbiased U-statistic within each block and averages
// the per-block estimates weighted by block size. BlockSize 2 gives a
// linear-time estimator; √N an intermediate trade-off. Smaller blocks mean
// higher variance at unchanged unbiasedness.
type BlockSKCE struct {
	kernel    *kernels.TensorProduct
	blockSize int
}

func NewBlockSKCE(kernel *kernels.TensorProduct, blockSize int) (*BlockSKCE, error) {
	if kernel == nil {
		return nil, core.NewInvalidParameterError("block skce", "kernel", nil)
	}
	if blockSize < 2 {
		return nil, core.NewInvalidParameterError("block skce", "block size", blockSize)
	}
	return &BlockSKCE{kernel: kernel, blockSize: blockSize}, nil
}

// BlockSize returns the configured block size.
func (e *BlockSKCE) BlockSize() int { return e.blockSize }

func (e *BlockSKCE) Estimate(s *sample.ClassSample) (float64, error) {
	ests, sizes, err := e.BlockEstimates(s)
	if err != nil {
		return 0, err
	}
	return weightedMean(ests, sizes), nil
}

// BlockEstimates exposes the per-block U-statistics and block sizes; the
// asymptotic block test builds its z-statistic from these.
func (e *BlockSKCE) BlockEstimates(s *sample.ClassSample) ([]float64, []int, error) {
	n := s.Len()
	if n < 2 {
		return nil, nil, core.NewInsufficientSamplesError("block skce", 2, n)
	}
	if e.blockSize > n {
		return nil, nil, core.NewInvalidParameterError("block skce", "block size", e.blockSize)
	}
	return blockEstimates(n, e.blockSize, classHFunc(e.kernel, s))
}

// GaussianSKCE estimates the SKCE for Gaussian predictive distributions
// under a Wasserstein-style prediction kernel and an RBF outcome kernel.
// The conditional expectations inside h are evaluated in closed form.
type GaussianSKCE struct {
	kernel *kernels.GaussianTensorProduct
	biased bool
}

func NewBiasedGaussianSKCE(kernel *kernels.GaussianTensorProduct) (*GaussianSKCE, error) {
	if kernel == nil {
		return nil, core.NewInvalidParameterError("gaussian skce", "kernel", nil)
	}
	return &GaussianSKCE{kernel: kernel, biased: true}, nil
}

func NewUnbiasedGaussianSKCE(kernel *kernels.GaussianTensorProduct) (*GaussianSKCE, error) {
	if kernel == nil {
		return nil, core.NewInvalidParameterError("gaussian skce", "kernel", nil)
	}
	return &GaussianSKCE{kernel: kernel, biased: false}, nil
}

func (e *GaussianSKCE) Estimate(s *sample.GaussianSample) (float64, error) {
	h := gaussianHFunc(e.kernel, s)
	if e.biased {
		if s.Len() < 1 {
			return 0, core.NewInsufficientSamplesError("gaussian skce", 1, s.Len())
		}
		return biasedMean(s.Len(), h)
	}
	if s.Len() < 2 {
		return 0, core.NewInsufficientSamplesError("gaussian skce", 2, s.Len())
	}
	return unbiasedMean(s.Len(), h)
}

// biasedMean averages h over all ordered pairs including the diagonal,
// exploiting the symmetry h(i,j) = h(j,i).
func biasedMean(n int, h hFunc) (float64, error) {
	var acc kahanSum
	for i := 0; i < n; i++ {
		v, err := h(i, i)
		if err != nil {
			return 0, err
		}
		acc.add(v)
		for j := i + 1; j < n; j++ {
			v, err := h(i, j)
			if err != nil {
				return 0, err
			}
			acc.add(2 * v)
		}
	}
	return acc.value() / float64(n*n), nil
}

// unbiasedMean averages h over all ordered pairs i ≠ j.
func unbiasedMean(n int, h hFunc) (float64, error) {
	var acc kahanSum
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v, err := h(i, j)
			if err != nil {
				return 0, err
			}
			acc.add(2 * v)
		}
	}
	return acc.value() / float64(n*(n-1)), nil
}

// blockEstimates computes the unbiased U-statistic within consecutive
// blocks. A trailing remainder of at least 2 samples forms a final smaller
// block; a remainder of 1 cannot support an off-diagonal pair and is
// dropped.
func blockEstimates(n, blockSize int, h hFunc) ([]float64, []int, error) {
	var ests []float64
	var sizes []int
	for start := 0; start+2 <= n; start += blockSize {
		end := start + blockSize
		if end > n {
			end = n
		}
		size := end - start
		if size < 2 {
			break
		}
		var acc kahanSum
		for i := start; i < end; i++ {
			for j := i + 1; j < end; j++ {
				v, err := h(i, j)
				if err != nil {
					return nil, nil, err
				}
				acc.add(2 * v)
			}
		}
		ests = append(ests, acc.value()/float64(size*(size-1)))
		sizes = append(sizes, size)
	}
	return ests, sizes, nil
}

func weightedMean(ests []float64, sizes []int) float64 {
	var acc kahanSum
	total := 0
	for i, e := range ests {
		acc.add(e * float64(sizes[i]))
		total += sizes[i]
	}
	return acc.value() / float64(total)
}
