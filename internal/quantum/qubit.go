// Package quantum tracks split pieces. A split creates a qubit whose two
// branches are the squares the piece may really be on; splitting a branch
// again chains a child qubit conditioned on that branch. Qubits that share
// ancestry form a subsystem, and a subsystem is measured as a whole: one
// joint sample from an Oracle decides every qubit at once.
package quantum

import (
	"fmt"

	"github.com/hailam/qchess/internal/board"
)

// Outcome is the measured branch of a qubit.
type Outcome uint8

const (
	Unmeasured Outcome = iota
	BranchA
	BranchB
)

func (o Outcome) String() string {
	switch o {
	case BranchA:
		return "A"
	case BranchB:
		return "B"
	default:
		return "?"
	}
}

// Other returns the opposite branch.
func (o Outcome) Other() Outcome {
	switch o {
	case BranchA:
		return BranchB
	case BranchB:
		return BranchA
	default:
		return Unmeasured
	}
}

// QubitID indexes a qubit inside its subsystem's arena.
type QubitID int

// NoQubit marks the absence of a parent.
const NoQubit QubitID = -1

// SubsystemID indexes a subsystem inside the manager's arena.
type SubsystemID int

// Branch is one of the two places a split piece might be.
type Branch struct {
	Square board.Square
	Piece  board.Piece
}

func (b Branch) String() string {
	return b.Piece.String() + "@" + b.Square.String()
}

// Qubit is a binary choice between two branches. A is where the piece came
// from, B is where the split sent it. A child qubit is only meaningful when
// its parent realized ParentBranch.
type Qubit struct {
	ID           QubitID
	A, B         Branch
	Parent       QubitID
	ParentBranch Outcome
	Children     []QubitID
	Result       Outcome
}

// Branch returns the branch selected by o.
func (q *Qubit) Branch(o Outcome) Branch {
	if o == BranchB {
		return q.B
	}
	return q.A
}

// IsRoot reports whether the qubit has no parent.
func (q *Qubit) IsRoot() bool {
	return q.Parent == NoQubit
}

func (q *Qubit) String() string {
	s := fmt.Sprintf("q%d{A:%s B:%s", q.ID, q.A, q.B)
	if !q.IsRoot() {
		s += fmt.Sprintf(" | q%d=%s", q.Parent, q.ParentBranch)
	}
	return s + " -> " + q.Result.String() + "}"
}

// Ref locates one live branch: the subsystem, the qubit and which branch.
type Ref struct {
	Subsystem SubsystemID
	Qubit     QubitID
	Branch    Outcome
}

// InvariantError is the panic value raised when the split structure would be
// corrupted, such as registering a square that already holds a live branch.
// It signals a programming error, not a rule violation.
type InvariantError struct {
	Op     string
	Detail string
}

func (e *InvariantError) Error() string {
	return "structural invariant violation: " + e.Op + ": " + e.Detail
}

func violate(op, format string, args ...any) {
	panic(&InvariantError{Op: op, Detail: fmt.Sprintf(format, args...)})
}
