package game

import (
	"fmt"
	"strings"

	"github.com/hailam/qchess/internal/board"
	"github.com/hailam/qchess/internal/quantum"
)

// Read-only views for presentation layers. None of them measure anything.

func (g *Game) PieceAt(sq board.Square) board.Piece { return g.board.PieceAt(sq) }
func (g *Game) Turn() board.Color { return g.board.SideToMove }
func (g *Game) IsSplit(sq board.Square) bool { return g.splits.IsSplit(sq) }
func (g *Game) SplitSquares() []board.Square { return g.splits.Squares() }
func (g *Game) Captured(by board.Color) []board.Piece { return g.board.Captured(by) }
func (g *Game) State() State { return g.state }
func (g *Game) Selected() board.Square { return g.selected }
func (g *Game) History() []board.Record { return g.board.History() }
func (g *Game) FEN() string { return g.board.FEN() }
func (g *Game) Stats() quantum.Stats { return g.splits.Stats() }
func (g *Game) Over() bool { return g.outcome.Ending != NotOver }
func (g *Game) Outcome() Outcome { return g.outcome }
func (g *Game) Winner() board.Color { return g.outcome.Winner }
func (g *Game) PendingSquare() board.Square { return g.pending }

// InCheck reports whether the side to move might be in check, counting
// every live enemy branch. It is meant for display and never collapses.
func (g *Game) InCheck() bool {
	return g.rules.InCheckSimple(g.board.SideToMove)
}

// KingSquare returns where the king of c stands.
func (g *Game) KingSquare(c board.Color) board.Square {
	return g.board.KingSquare(c)
}

// Targets returns the destinations of the selected piece.
func (g *Game) Targets() []board.Square {
	if g.targets == nil {
		return nil
	}
	out := make([]board.Square, 0, g.targets.Len())
	for _, m := range g.targets.Slice() {
		out = append(out, m.To())
	}
	return out
}

// LegalMoves lists what the side to move may play from sq, or from every
// square when sq is NoSquare. In split mode the splits are listed.
func (g *Game) LegalMoves(sq board.Square) []board.Move {
	if sq != board.NoSquare {
		return g.candidates(sq).Slice()
	}
	var out []board.Move
	pieces := g.board.ColorOccupied(g.board.SideToMove)
	for pieces != 0 {
		out = append(out, g.candidates(pieces.PopLSB()).Slice()...)
	}
	return out
}

// Summary is a one-line description of the game state.
func (g *Game) Summary() string {
	var sb strings.Builder
	if g.Over() {
		sb.WriteString(g.outcome.String())
	} else {
		fmt.Fprintf(&sb, "%s to move", g.board.SideToMove)
		if g.InCheck() {
			sb.WriteString(", check")
		}
	}
	if n := g.splits.Stats().Live; n > 0 {
		fmt.Fprintf(&sb, ", %d live squares", n)
	}
	switch {
	case g.editMode:
		sb.WriteString(" [edit]")
	case g.state == PromotionPending:
		fmt.Fprintf(&sb, " [promote on %s]", g.pending)
	case g.splitMode:
		sb.WriteString(" [split]")
	}
	return sb.String()
}
