package estimators

// kahanSum is a compensated running sum. The SKCE h-statistic is a
// difference of similar-magnitude terms, so a naive accumulator loses
// precision over the O(N²) pair loop; Kahan compensation keeps the
// reduction stable and reproducible regardless of how the loop is tiled.
type kahanSum struct {
	sum float64
	c   float64
}

func (k *kahanSum) add(x float64) {
	y := x - k.c
	t := k.sum + y
	k.c = (t - k.sum) - y
	k.sum = t
}

func (k *kahanSum) value() float64 {
	return k.sum
}
