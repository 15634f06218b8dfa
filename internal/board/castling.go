package board

// CastlingRights records, per color and side, that neither the king nor the
// corresponding rook has moved yet. Whether castling is possible right now
// also depends on occupancy and attacks and is decided by the rules package.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                            // Q
	BlackKingSideCastle                             // k
	BlackQueenSideCastle                            // q
	NoCastling           CastlingRights = 0
	AllCastling          CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// CastleSide names one of the two castling wings.
type CastleSide uint8

const (
	KingSide CastleSide = iota
	QueenSide
)

func (s CastleSide) String() string {
	if s == KingSide {
		return "O-O"
	}
	return "O-O-O"
}

// CastleRight returns the right bit for a color and wing.
func CastleRight(c Color, side CastleSide) CastlingRights {
	switch {
	case c == White && side == KingSide:
		return WhiteKingSideCastle
	case c == White:
		return WhiteQueenSideCastle
	case side == KingSide:
		return BlackKingSideCastle
	default:
		return BlackQueenSideCastle
	}
}

// Has reports whether the right for c on side is still held.
func (cr CastlingRights) Has(c Color, side CastleSide) bool {
	return cr&CastleRight(c, side) != 0
}

// String returns the FEN castling field.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	s := ""
	if cr&WhiteKingSideCastle != 0 {
		s += "K"
	}
	if cr&WhiteQueenSideCastle != 0 {
		s += "Q"
	}
	if cr&BlackKingSideCastle != 0 {
		s += "k"
	}
	if cr&BlackQueenSideCastle != 0 {
		s += "q"
	}
	return s
}

// KingHome is the square the king of color c starts on.
func KingHome(c Color) Square {
	if c == White {
		return E1
	}
	return E8
}

// RookHome is the corner the castling rook of c starts on for side.
func RookHome(c Color, side CastleSide) Square {
	rank := 0
	if c == Black {
		rank = 7
	}
	if side == KingSide {
		return NewSquare(7, rank)
	}
	return NewSquare(0, rank)
}

// CastleKingTarget is where the king lands when castling on side.
func CastleKingTarget(c Color, side CastleSide) Square {
	if side == KingSide {
		return KingHome(c) + 2
	}
	return KingHome(c) - 2
}

// CastleRookTarget is where the rook lands when castling on side.
func CastleRookTarget(c Color, side CastleSide) Square {
	if side == KingSide {
		return KingHome(c) + 1
	}
	return KingHome(c) - 1
}

// CastleSideOf returns the wing of a castling move from the king's step.
func CastleSideOf(from, to Square) CastleSide {
	if to > from {
		return KingSide
	}
	return QueenSide
}

// rightsLostAt lists the rights that vanish when a piece leaves or lands on sq.
func rightsLostAt(sq Square) CastlingRights {
	switch sq {
	case E1:
		return WhiteKingSideCastle | WhiteQueenSideCastle
	case E8:
		return BlackKingSideCastle | BlackQueenSideCastle
	case A1:
		return WhiteQueenSideCastle
	case H1:
		return WhiteKingSideCastle
	case A8:
		return BlackQueenSideCastle
	case H8:
		return BlackKingSideCastle
	}
	return NoCastling
}
