package quantum

import "math"

// Node is one qubit of a measurement request.
type Node struct {
	ID           QubitID
	Parent       QubitID
	ParentBranch Outcome
}

// Spec is the conditional structure of one subsystem. Nodes are in creation
// order, so every parent precedes its children.
type Spec struct {
	Subsystem SubsystemID
	Nodes     []Node
}

// Oracle draws one joint sample for a subsystem. The result must name an
// outcome for every node; unconditioned nodes are fair coins, and a node whose
// parent did not realize its conditioning branch reads BranchA.
type Oracle interface {
	SampleJoint(spec Spec) map[QubitID]Outcome
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(spec Spec) map[QubitID]Outcome

func (f OracleFunc) SampleJoint(spec Spec) map[QubitID]Outcome {
	return f(spec)
}

// Sampler draws outcomes by walking the forest from the roots: each root is a
// fair coin, and each child is a fair coin if its parent landed on the
// conditioning branch, BranchA otherwise.
type Sampler struct {
	rng *Rand
}

// NewSampler returns a Sampler seeded with seed.
func NewSampler(seed uint64) *Sampler {
	return &Sampler{rng: NewRand(seed)}
}

func (s *Sampler) SampleJoint(spec Spec) map[QubitID]Outcome {
	out := make(map[QubitID]Outcome, len(spec.Nodes))
	for _, n := range spec.Nodes {
		if n.Parent == NoQubit || out[n.Parent] == n.ParentBranch {
			out[n.ID] = s.rng.Outcome()
		} else {
			out[n.ID] = BranchA
		}
	}
	return out
}

// MaxStateVectorQubits bounds the simulated register; larger subsystems are
// sampled by a Sampler sharing the same generator.
const MaxStateVectorQubits = 16

// StateVector simulates the measurement circuit directly: a Hadamard on each
// root, a controlled Hadamard on each child with its parent as control, then
// one shot measured from the squared amplitudes. A child conditioned on
// BranchA is controlled on |0>, which is the X-sandwiched form of the gate.
// Basis state |0> reads BranchA and |1> reads BranchB.
type StateVector struct {
	rng      *Rand
	fallback *Sampler
}

// NewStateVector returns a StateVector oracle seeded with seed.
func NewStateVector(seed uint64) *StateVector {
	rng := NewRand(seed)
	return &StateVector{rng: rng, fallback: &Sampler{rng: rng}}
}

func (sv *StateVector) SampleJoint(spec Spec) map[QubitID]Outcome {
	n := len(spec.Nodes)
	if n > MaxStateVectorQubits {
		return sv.fallback.SampleJoint(spec)
	}

	wire := make(map[QubitID]int, n)
	for i, node := range spec.Nodes {
		wire[node.ID] = i
	}

	amps := make([]float64, 1<<n)
	amps[0] = 1
	for i, node := range spec.Nodes {
		if node.Parent == NoQubit {
			hadamard(amps, i, -1, 0)
			continue
		}
		want := 0
		if node.ParentBranch == BranchB {
			want = 1
		}
		hadamard(amps, i, wire[node.Parent], want)
	}

	basis := measure(amps, sv.rng.Float64())
	out := make(map[QubitID]Outcome, n)
	for i, node := range spec.Nodes {
		if basis&(1<<i) != 0 {
			out[node.ID] = BranchB
		} else {
			out[node.ID] = BranchA
		}
	}
	return out
}

// hadamard applies H to the target wire, restricted to basis states whose
// control wire equals want. A negative control makes the gate unconditional.
func hadamard(amps []float64, target, control, want int) {
	t := 1 << target
	for i := range amps {
		if i&t != 0 {
			continue
		}
		if control >= 0 && (i>>control)&1 != want {
			continue
		}
		a0, a1 := amps[i], amps[i|t]
		amps[i] = (a0 + a1) * math.Sqrt2 / 2
		amps[i|t] = (a0 - a1) * math.Sqrt2 / 2
	}
}

// measure picks a basis state with probability |amp|^2 using r in [0,1).
func measure(amps []float64, r float64) int {
	last := 0
	acc := 0.0
	for i, a := range amps {
		p := a * a
		if p == 0 {
			continue
		}
		last = i
		acc += p
		if r < acc {
			return i
		}
	}
	return last
}
