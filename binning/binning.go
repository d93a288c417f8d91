package binning

import (
	"math"
	"sort"

	"gocalib/domain/core"
)

// Bin is one cell of a partition of the confidence range. Members are
// indices into the original sample; every sample index belongs to exactly
// one bin across a scheme's output.
type Bin struct {
	Index   int   `json:"index"`
	Members []int `json:"members"`
}

// IsEmpty reports whether the bin has no members. Empty bins contribute
// zero weight to ECE sums, never NaN.
func (b Bin) IsEmpty() bool {
	return len(b.Members) == 0
}

// Scheme partitions samples into bins by their 1-D confidence value.
type Scheme interface {
	Name() string
	NumBins() int
	Assign(confidences []float64) ([]Bin, error)
}

// EqualSize partitions [0,1] into n bins of equal width with edges at i/n.
// Assignment is closed on the right: a confidence exactly at an edge
// belongs to the lower bin. With span enabled the edges are derived from
// the observed min/max instead, for confidences confined to a sub-unit
// range.
type EqualSize struct {
	n    int
	span bool
}

func NewEqualSize(n int) (*EqualSize, error) {
	if n <= 0 {
		return nil, core.NewInvalidParameterError("equal-size binning", "bins", n)
	}
	return &EqualSize{n: n}, nil
}

// NewEqualSizeSpan builds an equal-width scheme whose edges span the
// observed confidence range rather than [0,1].
func NewEqualSizeSpan(n int) (*EqualSize, error) {
	if n <= 0 {
		return nil, core.NewInvalidParameterError("equal-size binning", "bins", n)
	}
	return &EqualSize{n: n, span: true}, nil
}

func (s *EqualSize) Name() string { return "equal_size" }

func (s *EqualSize) NumBins() int { return s.n }

func (s *EqualSize) Assign(confidences []float64) ([]Bin, error) {
	if len(confidences) == 0 {
		return nil, core.NewInsufficientSamplesError("equal-size binning", 1, 0)
	}
	lo, hi := 0.0, 1.0
	if s.span {
		lo, hi = confidences[0], confidences[0]
		for _, c := range confidences[1:] {
			lo = math.Min(lo, c)
			hi = math.Max(hi, c)
		}
	}
	bins := make([]Bin, s.n)
	for i := range bins {
		bins[i].Index = i
	}
	for i, c := range confidences {
		if math.IsNaN(c) || c < lo || c > hi {
			return nil, core.NewInvalidParameterError("equal-size binning", "confidence", c)
		}
		// Closed on the right: ⌈(c-lo)/(hi-lo)·n⌉ shifted to a zero-based index.
		idx := 0
		if hi > lo {
			idx = int(math.Ceil((c-lo)/(hi-lo)*float64(s.n))) - 1
		}
		if idx < 0 {
			idx = 0
		}
		if idx >= s.n {
			idx = s.n - 1
		}
		bins[idx].Members = append(bins[idx].Members, i)
	}
	return bins, nil
}

// EqualMass partitions samples into n bins of (as close as possible to)
// equal membership by sorting on confidence. Ties at a cut point are broken
// by original sample order (stable sort), keeping results deterministic.
// n > N degrades to single-sample and empty bins rather than failing.
type EqualMass struct {
	n int
}

func NewEqualMass(n int) (*EqualMass, error) {
	if n <= 0 {
		return nil, core.NewInvalidParameterError("equal-mass binning", "bins", n)
	}
	return &EqualMass{n: n}, nil
}

func (s *EqualMass) Name() string { return "equal_mass" }

func (s *EqualMass) NumBins() int { return s.n }

func (s *EqualMass) Assign(confidences []float64) ([]Bin, error) {
	n := len(confidences)
	if n == 0 {
		return nil, core.NewInsufficientSamplesError("equal-mass binning", 1, 0)
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return confidences[order[a]] < confidences[order[b]]
	})

	bins := make([]Bin, s.n)
	big := n / s.n
	rem := n % s.n
	pos := 0
	for i := range bins {
		size := big
		if i < rem {
			size++
		}
		bins[i] = Bin{Index: i}
		if size > 0 {
			bins[i].Members = append(bins[i].Members, order[pos:pos+size]...)
		}
		pos += size
	}
	return bins, nil
}
