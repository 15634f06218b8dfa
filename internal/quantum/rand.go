package quantum

// Rand is a small xorshift* generator. Oracles take an explicit seed so a
// game can be replayed measurement for measurement.
type Rand struct {
	s uint64
}

// NewRand returns a generator for seed. A zero seed is replaced, since the
// all-zero state never leaves zero.
func NewRand(seed uint64) *Rand {
	r := &Rand{}
	r.Seed(seed)
	return r
}

func (r *Rand) Seed(seed uint64) {
	if seed == 0 {
		seed = 0x9E3779B97F4A7C15
	}
	r.s = seed
}

func (r *Rand) Uint64() uint64 {
	r.s ^= r.s >> 12
	r.s ^= r.s << 25
	r.s ^= r.s >> 27
	return r.s * 2685821657736338717
}

// Float64 returns a value in [0, 1).
func (r *Rand) Float64() float64 {
	return float64(r.Uint64()>>11) / (1 << 53)
}

// Outcome returns a fair BranchA/BranchB coin.
func (r *Rand) Outcome() Outcome {
	if r.Uint64()>>63 == 0 {
		return BranchA
	}
	return BranchB
}
