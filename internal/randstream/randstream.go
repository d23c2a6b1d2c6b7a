package randstream

// Stream is a small, fast, non-cryptographic source of uniform values in
// [0, 1). It is fully deterministic: the same seed string and the same call
// sequence always produce the same values, which is what makes universe
// warm-up reproducible across process runs.
type Stream struct {
	s0, s1, s2, s3 uint32
}

const (
	fnvOffset = 2166136261
	fnvPrime  = 16777619
)

// fnv1a hashes s with FNV-1a, salted so each lane of the state starts from
// a different point even for short seeds.
func fnv1a(s string, salt uint32) uint32 {
	h := uint32(fnvOffset) ^ salt
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	// xorshift state must never be all zero
	if h == 0 {
		h = salt | 1
	}
	return h
}

// New creates a Stream seeded from the given string.
func New(seed string) *Stream {
	s := &Stream{
		s0: fnv1a(seed, 0x9e3779b9),
		s1: fnv1a(seed, 0x3c6ef372),
		s2: fnv1a(seed, 0xdaa66d2b),
		s3: fnv1a(seed, 0x78dde6e4),
	}
	// burn a few rounds so correlated lane seeds diverge
	for i := 0; i < 16; i++ {
		s.next()
	}
	return s
}

// next advances the xorshift128 state and returns 32 fresh bits.
func (s *Stream) next() uint32 {
	t := s.s3
	x := s.s0
	s.s3 = s.s2
	s.s2 = s.s1
	s.s1 = x
	t ^= t << 11
	t ^= t >> 8
	s.s0 = t ^ x ^ (x >> 19)
	return s.s0
}

// Float64 returns a uniform value in [0, 1).
func (s *Stream) Float64() float64 {
	return float64(s.next()) / (1 << 32)
}

// Range returns a uniform value in [lo, hi).
func (s *Stream) Range(lo, hi float64) float64 {
	return lo + (hi-lo)*s.Float64()
}

// IntN returns a uniform integer in [0, n). It panics if n <= 0.
func (s *Stream) IntN(n int) int {
	if n <= 0 {
		panic("randstream: IntN with non-positive n")
	}
	return int(s.Float64() * float64(n))
}
