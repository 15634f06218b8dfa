package movegen

import "github.com/hailam/qchess/internal/board"

// Attacks returns the squares the piece on sq attacks on b. This is the
// simple generation used for attack detection: pawns attack both diagonals
// whatever stands there, pushes never attack, and castling is not a move
// that attacks anything. Sliding rays stop at the first occupied square,
// which is included whatever its color.
func Attacks(b *board.Board, sq board.Square) board.Bitboard {
	p := b.PieceAt(sq)
	switch p.Type() {
	case board.Pawn:
		return board.PawnAttacks(sq, p.Color())
	case board.Knight:
		return board.KnightAttacks(sq)
	case board.Bishop:
		return board.BishopAttacks(sq, b.Occupied())
	case board.Rook:
		return board.RookAttacks(sq, b.Occupied())
	case board.Queen:
		return board.QueenAttacks(sq, b.Occupied())
	case board.King:
		return board.KingAttacks(sq)
	}
	return board.Empty
}

// Attackers returns the pieces of color by that attack target on b.
func Attackers(b *board.Board, target board.Square, by board.Color) board.Bitboard {
	return AttackersThrough(b, target, by, b.Occupied())
}

// AttackersThrough is Attackers with sliding rays blocked only by occ, so
// squares left out of occ are seen through.
func AttackersThrough(b *board.Board, target board.Square, by board.Color, occ board.Bitboard) board.Bitboard {
	return (board.PawnAttacks(target, by.Other()) & b.PiecesOf(by, board.Pawn)) |
		(board.KnightAttacks(target) & b.PiecesOf(by, board.Knight)) |
		(board.KingAttacks(target) & b.PiecesOf(by, board.King)) |
		(board.BishopAttacks(target, occ) & (b.PiecesOf(by, board.Bishop) | b.PiecesOf(by, board.Queen))) |
		(board.RookAttacks(target, occ) & (b.PiecesOf(by, board.Rook) | b.PiecesOf(by, board.Queen)))
}
