package ports

import (
	"hash/fnv"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic
// resampling. Tests and estimators never touch process-global randomness;
// every resampling loop receives its stream through this port so parallel
// and repeated executions stay reproducible for a fixed seed.
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a
	// named operation. The same (name, seed) pair always yields the same
	// stream; distinct names yield independent streams.
	SeededStream(name string, seed int64) *rand.Rand
}

// SeededSource is the default RNGPort. Stream seeds are derived by mixing
// an FNV-1a hash of the operation name into the base seed.
type SeededSource struct{}

func NewSeededSource() *SeededSource {
	return &SeededSource{}
}

func (s *SeededSource) SeededStream(name string, seed int64) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(name))
	return rand.New(rand.NewSource(int64(h.Sum64()) ^ seed))
}
