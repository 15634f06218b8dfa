// Package movegen produces candidate moves for single pieces. Candidates
// follow each piece's movement rules but ignore whether the mover's king is
// left attacked; that filter lives in the rules package. Castling candidates
// are structural only: rights, rook and empty squares.
package movegen

import "github.com/hailam/qchess/internal/board"

// Generate appends the candidate moves of the piece on from, including
// castling candidates for a king.
func Generate(b *board.Board, from board.Square, ml *board.MoveList) {
	p := b.PieceAt(from)
	switch p.Type() {
	case board.Pawn:
		PawnMoves(b, from, ml)
	case board.Knight:
		KnightMoves(b, from, ml)
	case board.Bishop:
		BishopMoves(b, from, ml)
	case board.Rook:
		RookMoves(b, from, ml)
	case board.Queen:
		QueenMoves(b, from, ml)
	case board.King:
		KingMoves(b, from, ml)
		CastlingCandidates(b, from, ml)
	}
}

// GenerateAll appends the candidate moves of every piece of color c.
func GenerateAll(b *board.Board, c board.Color, ml *board.MoveList) {
	pieces := b.ColorOccupied(c)
	for pieces != 0 {
		Generate(b, pieces.PopLSB(), ml)
	}
}

// PawnMoves appends single and double pushes onto empty squares, diagonal
// captures of enemy pieces and the en passant capture. Moves reaching the
// back rank carry the promotion flag.
func PawnMoves(b *board.Board, from board.Square, ml *board.MoveList) {
	p := b.PieceAt(from)
	us := p.Color()
	dr := 1
	if us == board.Black {
		dr = -1
	}

	if one, ok := from.Offset(0, dr); ok && b.IsEmpty(one) {
		addPawnMove(ml, us, from, one)
		if from.RelativeRank(us) == 1 {
			if two, ok := one.Offset(0, dr); ok && b.IsEmpty(two) {
				ml.Add(board.NewMove(from, two))
			}
		}
	}

	enemies := b.ColorOccupied(us.Other())
	attacks := board.PawnAttacks(from, us)
	for attacks != 0 {
		to := attacks.PopLSB()
		switch {
		case enemies.IsSet(to):
			addPawnMove(ml, us, from, to)
		case to == b.EnPassant && b.IsEmpty(to):
			victim := board.Square(int(to) - us.PawnDirection())
			if b.PieceAt(victim) == board.NewPiece(board.Pawn, us.Other()) {
				ml.Add(board.NewEnPassant(from, to))
			}
		}
	}
}

func addPawnMove(ml *board.MoveList, us board.Color, from, to board.Square) {
	if to.RelativeRank(us) == 7 {
		ml.Add(board.NewPromotion(from, to))
		return
	}
	ml.Add(board.NewMove(from, to))
}

// KnightMoves appends the knight's jumps onto empty or enemy squares.
func KnightMoves(b *board.Board, from board.Square, ml *board.MoveList) {
	addTargets(b, from, board.KnightAttacks(from), ml)
}

// BishopMoves appends diagonal slides up to and including the first blocker
// if it is an enemy.
func BishopMoves(b *board.Board, from board.Square, ml *board.MoveList) {
	addTargets(b, from, board.BishopAttacks(from, b.Occupied()), ml)
}

// RookMoves appends file and rank slides, stopping like BishopMoves.
func RookMoves(b *board.Board, from board.Square, ml *board.MoveList) {
	addTargets(b, from, board.RookAttacks(from, b.Occupied()), ml)
}

// QueenMoves appends the union of the rook and bishop slides.
func QueenMoves(b *board.Board, from board.Square, ml *board.MoveList) {
	addTargets(b, from, board.QueenAttacks(from, b.Occupied()), ml)
}

// KingMoves appends the eight adjacent squares not held by own pieces.
func KingMoves(b *board.Board, from board.Square, ml *board.MoveList) {
	addTargets(b, from, board.KingAttacks(from), ml)
}

// CastlingCandidates appends castling moves for a king on its home square
// whose right is intact, whose rook stands on its corner and whose squares
// in between are empty. Attacked squares are not considered here.
func CastlingCandidates(b *board.Board, from board.Square, ml *board.MoveList) {
	king := b.PieceAt(from)
	if king.Type() != board.King {
		return
	}
	us := king.Color()
	if from != board.KingHome(us) {
		return
	}
	for _, side := range []board.CastleSide{board.KingSide, board.QueenSide} {
		if !b.CastlingRights.Has(us, side) {
			continue
		}
		rook := board.RookHome(us, side)
		if b.PieceAt(rook) != board.NewPiece(board.Rook, us) {
			continue
		}
		if board.Between(from, rook)&b.Occupied() != 0 {
			continue
		}
		ml.Add(board.NewCastling(from, board.CastleKingTarget(us, side)))
	}
}

func addTargets(b *board.Board, from board.Square, targets board.Bitboard, ml *board.MoveList) {
	us := b.PieceAt(from).Color()
	targets &^= b.ColorOccupied(us)
	for targets != 0 {
		ml.Add(board.NewMove(from, targets.PopLSB()))
	}
}
