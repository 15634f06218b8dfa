package rules

import (
	"github.com/hailam/qchess/internal/board"
	"github.com/hailam/qchess/internal/movegen"
)

// IsSquareAttacked reports whether the enemies of defender might attack sq.
//
// Classical enemy pieces are tested on the board as it stands, where every
// live square shows its branch piece and blocks. Then each live branch of an
// enemy subsystem is tested as if it were the real piece: the other squares
// of its own subsystem are taken off, everything else stays. The square is
// attacked if any of these tests says so. Nothing is collapsed.
func (e *Engine) IsSquareAttacked(sq board.Square, defender board.Color) bool {
	enemy := defender.Other()
	occ := e.board.Occupied()
	if movegen.AttackersThrough(e.board, sq, enemy, occ) != 0 {
		return true
	}
	for _, live := range e.liveSquares(enemy) {
		// The tested branch's own square does not matter to its attacks,
		// so one query covers every branch of the subsystem.
		if movegen.AttackersThrough(e.board, sq, enemy, occ&^live)&live != 0 {
			return true
		}
	}
	return false
}

// liveSquares returns, per unmeasured subsystem of color c, the squares that
// still show its branch piece. A branch square taken over by another piece
// during a speculative move is not live: the capturing piece is really
// there.
func (e *Engine) liveSquares(c board.Color) []board.Bitboard {
	var out []board.Bitboard
	for _, g := range e.splits.LiveGroups() {
		if g.Color() != c {
			continue
		}
		var bb board.Bitboard
		for _, en := range g.Entries {
			if e.board.PieceAt(en.Square) == en.Piece {
				bb |= board.SquareBB(en.Square)
			}
		}
		if bb != 0 {
			out = append(out, bb)
		}
	}
	return out
}
