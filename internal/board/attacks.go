package board

// Pre-computed attack tables for non-sliding pieces
var (
	knightAttacks [64]Bitboard
	kingAttacks   [64]Bitboard
	pawnAttacks   [2][64]Bitboard // [Color][Square]
)

var (
	bishopDirections = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	rookDirections   = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
)

func init() {
	for sq := A1; sq <= H8; sq++ {
		bb := SquareBB(sq)

		var n Bitboard
		n |= (bb << 17) & NotFileA
		n |= (bb << 15) & NotFileH
		n |= (bb >> 17) & NotFileH
		n |= (bb >> 15) & NotFileA
		n |= (bb << 10) & NotFileAB
		n |= (bb << 6) & NotFileGH
		n |= (bb >> 10) & NotFileGH
		n |= (bb >> 6) & NotFileAB
		knightAttacks[sq] = n

		kingAttacks[sq] = bb.North() | bb.South() | bb.East() | bb.West() |
			bb.NorthEast() | bb.NorthWest() | bb.SouthEast() | bb.SouthWest()

		pawnAttacks[White][sq] = bb.NorthEast() | bb.NorthWest()
		pawnAttacks[Black][sq] = bb.SouthEast() | bb.SouthWest()
	}
}

// KnightAttacks returns the squares a knight on sq attacks.
func KnightAttacks(sq Square) Bitboard {
	return knightAttacks[sq]
}

// KingAttacks returns the squares a king on sq attacks.
func KingAttacks(sq Square) Bitboard {
	return kingAttacks[sq]
}

// PawnAttacks returns the diagonal squares a pawn of color c on sq attacks.
// Occupancy plays no part: a pawn attacks both diagonals whether or not
// anything stands there.
func PawnAttacks(sq Square, c Color) Bitboard {
	return pawnAttacks[c][sq]
}

// BishopAttacks casts the four diagonal rays from sq. Each ray stops at the
// first occupied square, which is included.
func BishopAttacks(sq Square, occupied Bitboard) Bitboard {
	return slide(sq, occupied, bishopDirections)
}

// RookAttacks casts the four orthogonal rays from sq.
func RookAttacks(sq Square, occupied Bitboard) Bitboard {
	return slide(sq, occupied, rookDirections)
}

// QueenAttacks is the union of bishop and rook attacks.
func QueenAttacks(sq Square, occupied Bitboard) Bitboard {
	return BishopAttacks(sq, occupied) | RookAttacks(sq, occupied)
}

func slide(sq Square, occupied Bitboard, dirs [4][2]int) Bitboard {
	var attacks Bitboard
	for _, d := range dirs {
		cur := sq
		for {
			next, ok := cur.Offset(d[0], d[1])
			if !ok {
				break
			}
			attacks |= SquareBB(next)
			if occupied.IsSet(next) {
				break
			}
			cur = next
		}
	}
	return attacks
}

// Between returns the squares strictly between two squares on the same rank,
// file or diagonal, and Empty for unaligned squares.
func Between(a, b Square) Bitboard {
	df, dr := sign(b.File()-a.File()), sign(b.Rank()-a.Rank())
	if a == b {
		return Empty
	}
	if df != 0 && dr != 0 && abs(b.File()-a.File()) != abs(b.Rank()-a.Rank()) {
		return Empty
	}
	var between Bitboard
	cur, _ := a.Offset(df, dr)
	for cur != b {
		between |= SquareBB(cur)
		cur, _ = cur.Offset(df, dr)
	}
	return between
}

func sign(x int) int {
	if x > 0 {
		return 1
	}
	if x < 0 {
		return -1
	}
	return 0
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
