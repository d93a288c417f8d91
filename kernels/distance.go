package kernels

import (
	"math"

	"gocalib/domain/core"
)

// Distance is a semi-metric between prediction vectors.
type Distance interface {
	Name() string
	Distance(a, b []float64) (float64, error)
}

func checkDims(name string, a, b []float64) error {
	if len(a) != len(b) {
		return core.NewDimensionMismatchError(name, len(a), len(b))
	}
	return nil
}

// Euclidean is the L2 distance.
type Euclidean struct{}

func (Euclidean) Name() string { return "euclidean" }

func (Euclidean) Distance(a, b []float64) (float64, error) {
	if err := checkDims("euclidean distance", a, b); err != nil {
		return 0, err
	}
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// SqEuclidean is the squared L2 distance. Not a metric (no triangle
// inequality) but a valid base for the squared-exponential kernel.
type SqEuclidean struct{}

func (SqEuclidean) Name() string { return "sqeuclidean" }

func (SqEuclidean) Distance(a, b []float64) (float64, error) {
	if err := checkDims("sqeuclidean distance", a, b); err != nil {
		return 0, err
	}
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum, nil
}

// Cityblock is the L1 distance.
type Cityblock struct{}

func (Cityblock) Name() string { return "cityblock" }

func (Cityblock) Distance(a, b []float64) (float64, error) {
	if err := checkDims("cityblock distance", a, b); err != nil {
		return 0, err
	}
	sum := 0.0
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum, nil
}

// TotalVariation is half the L1 distance between probability vectors.
// Bounded by 1 on the simplex, which keeps ECE estimates in [0, 1].
type TotalVariation struct{}

func (TotalVariation) Name() string { return "total_variation" }

func (TotalVariation) Distance(a, b []float64) (float64, error) {
	if err := checkDims("total variation distance", a, b); err != nil {
		return 0, err
	}
	sum := 0.0
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return 0.5 * sum, nil
}
