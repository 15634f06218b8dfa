package quantum

import (
	"slices"

	"github.com/hailam/qchess/internal/board"
)

// BoardWriter is the part of a board a fold needs.
type BoardWriter interface {
	SetPiece(sq board.Square, p board.Piece)
	RemovePiece(sq board.Square) board.Piece
}

type slot struct {
	qubit  QubitID
	branch Outcome
}

// Subsystem is a forest of qubits measured together. Qubit ids are arena
// indexes assigned in creation order, so a parent always precedes its
// children.
type Subsystem struct {
	id       SubsystemID
	oracle   Oracle
	qubits   []Qubit
	squares  map[board.Square]slot
	measured bool
}

func newSubsystem(id SubsystemID, oracle Oracle) *Subsystem {
	return &Subsystem{
		id:      id,
		oracle:  oracle,
		squares: make(map[board.Square]slot),
	}
}

// ID returns the subsystem's arena index.
func (s *Subsystem) ID() SubsystemID {
	return s.id
}

// Len returns the number of qubits.
func (s *Subsystem) Len() int {
	return len(s.qubits)
}

// Measured reports whether the joint sample has been taken.
func (s *Subsystem) Measured() bool {
	return s.measured
}

// Qubit returns a copy of the qubit with the given id.
func (s *Subsystem) Qubit(id QubitID) Qubit {
	s.mustHave("Qubit", id)
	q := s.qubits[id]
	q.Children = slices.Clone(q.Children)
	return q
}

// AddBranch appends a qubit splitting piece from `from` to `to`. With parent
// NoQubit the qubit is a root; otherwise it is conditioned on the parent
// having realized parentBranch.
func (s *Subsystem) AddBranch(parent QubitID, parentBranch Outcome, from, to board.Square, piece board.Piece) QubitID {
	if s.measured {
		violate("AddBranch", "subsystem %d is already measured", s.id)
	}
	if from == to || !from.IsValid() || !to.IsValid() {
		violate("AddBranch", "branches must be two distinct squares, got %s and %s", from, to)
	}
	if parent != NoQubit {
		s.mustHave("AddBranch", parent)
		if parentBranch != BranchA && parentBranch != BranchB {
			violate("AddBranch", "child of q%d needs a parent branch", parent)
		}
	}

	id := QubitID(len(s.qubits))
	s.qubits = append(s.qubits, Qubit{
		ID:           id,
		A:            Branch{Square: from, Piece: piece},
		B:            Branch{Square: to, Piece: piece},
		Parent:       parent,
		ParentBranch: parentBranch,
	})
	if parent != NoQubit {
		s.qubits[parent].Children = append(s.qubits[parent].Children, id)
	}
	s.squares[from] = slot{qubit: id, branch: BranchA}
	s.squares[to] = slot{qubit: id, branch: BranchB}
	return id
}

// Spec describes the conditional structure handed to the oracle.
func (s *Subsystem) Spec() Spec {
	nodes := make([]Node, len(s.qubits))
	for i, q := range s.qubits {
		nodes[i] = Node{ID: q.ID, Parent: q.Parent, ParentBranch: q.ParentBranch}
	}
	return Spec{Subsystem: s.id, Nodes: nodes}
}

// Collapse measures the subsystem. The first call asks the oracle for one
// joint sample; later calls return the cached outcomes unchanged.
func (s *Subsystem) Collapse() map[QubitID]Outcome {
	if !s.measured {
		sample := s.oracle.SampleJoint(s.Spec())
		for i := range s.qubits {
			o, ok := sample[QubitID(i)]
			if !ok || (o != BranchA && o != BranchB) {
				violate("Collapse", "oracle returned no outcome for q%d of subsystem %d", i, s.id)
			}
			s.qubits[i].Result = o
		}
		s.measured = true
	}
	return s.Outcomes()
}

// Outcomes returns the measured result of every qubit, Unmeasured before
// Collapse.
func (s *Subsystem) Outcomes() map[QubitID]Outcome {
	out := make(map[QubitID]Outcome, len(s.qubits))
	for _, q := range s.qubits {
		out[q.ID] = q.Result
	}
	return out
}

// Realized reports whether a measured qubit lies on the realized path: it is
// a root, or its parent is realized and chose the branch it is conditioned on.
func (s *Subsystem) Realized(id QubitID) bool {
	s.mustHave("Realized", id)
	if !s.measured {
		return false
	}
	for {
		q := &s.qubits[id]
		if q.IsRoot() {
			return true
		}
		p := &s.qubits[q.Parent]
		if p.Result != q.ParentBranch {
			return false
		}
		id = q.Parent
	}
}

// ApplyToBoard folds the measured result onto b, collapsing first if needed.
// Every branch square of the targeted qubits (all qubits when none are given)
// is cleared, then each realized qubit, in creation order, writes its piece
// on the chosen branch. A child overwrites the square it shares with its
// parent, and a qubit off the realized path writes nothing.
func (s *Subsystem) ApplyToBoard(b BoardWriter, targets ...QubitID) {
	s.Collapse()

	ids := slices.Clone(targets)
	if len(ids) == 0 {
		for i := range s.qubits {
			ids = append(ids, QubitID(i))
		}
	}
	for _, id := range ids {
		s.mustHave("ApplyToBoard", id)
	}
	slices.Sort(ids)
	ids = slices.Compact(ids)

	for _, id := range ids {
		q := &s.qubits[id]
		b.RemovePiece(q.A.Square)
		b.RemovePiece(q.B.Square)
	}
	for _, id := range ids {
		if !s.Realized(id) {
			continue
		}
		q := &s.qubits[id]
		b.RemovePiece(q.A.Square)
		b.RemovePiece(q.B.Square)
		chosen := q.Branch(q.Result)
		b.SetPiece(chosen.Square, chosen.Piece)
	}
}

// SetBranchPiece changes the identity of the live branch on sq, used when a
// split pawn promotes. It reports whether sq belongs to the subsystem.
func (s *Subsystem) SetBranchPiece(sq board.Square, p board.Piece) bool {
	sl, ok := s.squares[sq]
	if !ok {
		return false
	}
	q := &s.qubits[sl.qubit]
	if sl.branch == BranchA {
		q.A.Piece = p
	} else {
		q.B.Piece = p
	}
	return true
}

// Squares returns the squares registered to the subsystem's outermost
// branches, in ascending order. After a fold they name where the branches
// were, not where the piece is.
func (s *Subsystem) Squares() []board.Square {
	out := make([]board.Square, 0, len(s.squares))
	for sq := range s.squares {
		out = append(out, sq)
	}
	slices.Sort(out)
	return out
}

func (s *Subsystem) mustHave(op string, id QubitID) {
	if id < 0 || int(id) >= len(s.qubits) {
		violate(op, "subsystem %d has no qubit %d", s.id, id)
	}
}
