package rules

import "github.com/hailam/qchess/internal/board"

// Status is the state of the game for the side to move.
type Status uint8

const (
	Ongoing Status = iota
	Checkmate
	Stalemate
)

func (s Status) String() string {
	switch s {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	default:
		return "ongoing"
	}
}

// Verdict combines the terminal status with the check query that produced
// it, including any subsystems the query collapsed.
type Verdict struct {
	Status Status
	Check  CheckResult
}

// Evaluate decides whether c, to move, is mated, stalemated or still
// playing. The check query runs first, so a check that forces a collapse is
// settled before legal moves are counted.
func (e *Engine) Evaluate(c board.Color) Verdict {
	v := Verdict{Check: e.CheckStatus(c)}
	switch {
	case e.HasLegalMove(c):
		v.Status = Ongoing
	case v.Check.InCheck:
		v.Status = Checkmate
	default:
		v.Status = Stalemate
	}
	return v
}

// IsCheckmate reports whether c is in check with no legal move.
func (e *Engine) IsCheckmate(c board.Color) bool {
	return e.Evaluate(c).Status == Checkmate
}

// IsStalemate reports whether c is not in check and has no legal move.
func (e *Engine) IsStalemate(c board.Color) bool {
	return e.Evaluate(c).Status == Stalemate
}
