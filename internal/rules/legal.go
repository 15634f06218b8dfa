package rules

import (
	"github.com/hailam/qchess/internal/board"
	"github.com/hailam/qchess/internal/movegen"
)

// IsLegalMove reports whether the candidate m keeps the mover's king safe.
// The move is made on the board, the king is tested with the side-effect
// free attack query, and the move is taken back. A move that leaves the
// king attacked is illegal whether it created the check or failed to
// resolve one. Castling additionally needs CanCastle.
func (e *Engine) IsLegalMove(m board.Move) bool {
	p := e.board.PieceAt(m.From())
	if p == board.NoPiece {
		return false
	}
	us := p.Color()
	if m.IsCastling() && !e.CanCastle(m.From(), board.CastleSideOf(m.From(), m.To())) {
		return false
	}

	u := e.board.Apply(m)
	king := e.board.KingSquare(us)
	safe := king == board.NoSquare || !e.IsSquareAttacked(king, us)
	e.board.Unapply(u)
	return safe
}

// IsLegalSplit reports whether the piece on m.From() may split along m.
// Only quiet moves of pieces other than the king split, so castling, en
// passant and captures are excluded. The piece may turn out to be on either
// square, so the king must be safe both where it stands now and after the
// piece has moved.
func (e *Engine) IsLegalSplit(m board.Move) bool {
	from, to := m.From(), m.To()
	p := e.board.PieceAt(from)
	if p == board.NoPiece || p.Type() == board.King {
		return false
	}
	if m.IsCastling() || m.IsEnPassant() || !e.board.IsEmpty(to) {
		return false
	}

	us := p.Color()
	king := e.board.KingSquare(us)
	if king == board.NoSquare {
		return true
	}
	if e.IsSquareAttacked(king, us) {
		return false
	}
	u := e.board.Apply(m)
	safe := !e.IsSquareAttacked(king, us)
	e.board.Unapply(u)
	return safe
}

// LegalSplitsFrom returns the moves the piece on sq may split along.
func (e *Engine) LegalSplitsFrom(sq board.Square) *board.MoveList {
	candidates := board.NewMoveList()
	movegen.Generate(e.board, sq, candidates)
	legal := board.NewMoveList()
	for _, m := range candidates.Slice() {
		if e.IsLegalSplit(m) {
			legal.Add(m)
		}
	}
	return legal
}

// LegalMovesFrom returns the legal moves of the piece on sq.
func (e *Engine) LegalMovesFrom(sq board.Square) *board.MoveList {
	candidates := board.NewMoveList()
	movegen.Generate(e.board, sq, candidates)
	return e.filter(candidates)
}

// LegalMoves returns every legal move of color c.
func (e *Engine) LegalMoves(c board.Color) *board.MoveList {
	candidates := board.NewMoveList()
	movegen.GenerateAll(e.board, c, candidates)
	return e.filter(candidates)
}

// HasLegalMove reports whether c can move at all.
func (e *Engine) HasLegalMove(c board.Color) bool {
	pieces := e.board.ColorOccupied(c)
	candidates := board.NewMoveList()
	for pieces != 0 {
		candidates.Clear()
		movegen.Generate(e.board, pieces.PopLSB(), candidates)
		for _, m := range candidates.Slice() {
			if e.IsLegalMove(m) {
				return true
			}
		}
	}
	return false
}

func (e *Engine) filter(candidates *board.MoveList) *board.MoveList {
	legal := board.NewMoveList()
	for _, m := range candidates.Slice() {
		if e.IsLegalMove(m) {
			legal.Add(m)
		}
	}
	return legal
}

// CanCastle decides whether the king on kingSq may castle on side now. The
// right must be held, the rook must stand on its corner as a classical
// piece, the squares between must be empty, and neither the king's square
// nor any square it crosses or lands on may be attacked. Attacks are judged
// pessimistically: any live enemy branch counts. Nothing is stored.
func (e *Engine) CanCastle(kingSq board.Square, side board.CastleSide) bool {
	king := e.board.PieceAt(kingSq)
	if king.Type() != board.King {
		return false
	}
	us := king.Color()
	if kingSq != board.KingHome(us) || !e.board.CastlingRights.Has(us, side) {
		return false
	}

	rook := board.RookHome(us, side)
	if e.board.PieceAt(rook) != board.NewPiece(board.Rook, us) || e.splits.IsSplit(rook) {
		return false
	}
	if board.Between(kingSq, rook)&e.board.Occupied() != 0 {
		return false
	}

	if e.IsSquareAttacked(kingSq, us) {
		return false
	}
	target := board.CastleKingTarget(us, side)
	step := 1
	if side == board.QueenSide {
		step = -1
	}
	for sq := int(kingSq) + step; ; sq += step {
		if e.IsSquareAttacked(board.Square(sq), us) {
			return false
		}
		if board.Square(sq) == target {
			break
		}
	}
	return true
}

// CastleOptions reports which wings the king on kingSq may castle to.
func (e *Engine) CastleOptions(kingSq board.Square) (kingSide, queenSide bool) {
	return e.CanCastle(kingSq, board.KingSide), e.CanCastle(kingSq, board.QueenSide)
}
