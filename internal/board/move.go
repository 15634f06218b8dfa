package board

import (
	"errors"
	"fmt"
)

// ErrInvalidMove is returned when a move string cannot be parsed.
var ErrInvalidMove = errors.New("invalid move")

// Move encodes a chess move in 16 bits:
// bits 0-5:   from square (0-63)
// bits 6-11:  to square (0-63)
// bits 14-15: flags (0=normal, 1=promotion, 2=en passant, 3=castling)
//
// The promotion kind is not part of the move; it is chosen once the pawn has
// arrived on the back rank.
type Move uint16

// Move flags
const (
	FlagNormal    uint16 = 0 << 14
	FlagPromotion uint16 = 1 << 14
	FlagEnPassant uint16 = 2 << 14
	FlagCastling  uint16 = 3 << 14
)

// NoMove represents an invalid or null move.
const NoMove Move = 0

// NewMove creates a normal move.
func NewMove(from, to Square) Move {
	return Move(from) | Move(to)<<6
}

// NewPromotion creates a pawn move onto the back rank.
func NewPromotion(from, to Square) Move {
	return Move(from) | Move(to)<<6 | Move(FlagPromotion)
}

// NewEnPassant creates an en passant capture move.
func NewEnPassant(from, to Square) Move {
	return Move(from) | Move(to)<<6 | Move(FlagEnPassant)
}

// NewCastling creates a castling move (king's movement).
func NewCastling(from, to Square) Move {
	return Move(from) | Move(to)<<6 | Move(FlagCastling)
}

// From returns the origin square.
func (m Move) From() Square {
	return Square(m & 0x3F)
}

// To returns the destination square.
func (m Move) To() Square {
	return Square((m >> 6) & 0x3F)
}

// Flag returns the move flag.
func (m Move) Flag() uint16 {
	return uint16(m) & 0xC000
}

func (m Move) IsPromotion() bool {
	return m.Flag() == FlagPromotion
}

func (m Move) IsCastling() bool {
	return m.Flag() == FlagCastling
}

func (m Move) IsEnPassant() bool {
	return m.Flag() == FlagEnPassant
}

// String returns the coordinate form of the move (e.g., "e2e4").
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	return m.From().String() + m.To().String()
}

// ParseMove parses coordinate notation ("e2e4", "e7e8q") against b, which is
// consulted to recover the castling, en passant and promotion flags. The
// optional fifth character is returned as the requested promotion kind.
func ParseMove(s string, b *Board) (Move, PieceType, error) {
	if len(s) != 4 && len(s) != 5 {
		return NoMove, NoPieceType, fmt.Errorf("%w: %q", ErrInvalidMove, s)
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, NoPieceType, err
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, NoPieceType, err
	}

	promo := NoPieceType
	if len(s) == 5 {
		promo = PieceTypeFromChar(s[4])
		if !promo.IsPromotion() {
			return NoMove, NoPieceType, fmt.Errorf("%w: bad promotion piece %q", ErrInvalidMove, s[4])
		}
	}

	piece := b.PieceAt(from)
	if piece == NoPiece {
		return NoMove, NoPieceType, fmt.Errorf("%w: no piece at %s", ErrInvalidMove, from)
	}

	switch {
	case piece.Type() == King && abs(int(to)-int(from)) == 2:
		return NewCastling(from, to), promo, nil
	case piece.Type() == Pawn && to == b.EnPassant && from.File() != to.File():
		return NewEnPassant(from, to), promo, nil
	case piece.Type() == Pawn && to.RelativeRank(piece.Color()) == 7:
		return NewPromotion(from, to), promo, nil
	}
	return NewMove(from, to), promo, nil
}

// MoveList is a fixed-size list of moves to avoid allocations.
type MoveList struct {
	moves [256]Move
	count int
}

// NewMoveList creates an empty move list.
func NewMoveList() *MoveList {
	return &MoveList{}
}

// Add adds a move to the list.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Clear empties the list.
func (ml *MoveList) Clear() {
	ml.count = 0
}

// Find returns the first move going from one square to another.
func (ml *MoveList) Find(from, to Square) (Move, bool) {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i].From() == from && ml.moves[i].To() == to {
			return ml.moves[i], true
		}
	}
	return NoMove, false
}

// Slice returns the moves as a slice.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}

// Undo stores what Apply changed so Unapply can restore it.
type Undo struct {
	Move       Move
	Piece      Piece
	Captured   Piece
	CapturedSq Square
	Split      bool

	castling  CastlingRights
	enPassant Square
	halfMove  int
	fullMove  int
	side      Color
}

// Apply performs m on the board without handing over the turn: the piece
// moves, a piece on the destination (or the en passant victim) is removed,
// the rook follows a castling king, and rights, en passant target and
// half-move clock are updated. A promotion leaves the pawn on the back rank.
func (b *Board) Apply(m Move) Undo {
	from, to := m.From(), m.To()
	piece := b.squares[from]
	u := b.undoFor(m, piece)

	if m.IsEnPassant() {
		capSq := Square(int(to) - piece.Color().PawnDirection())
		u.CapturedSq = capSq
		u.Captured = b.RemovePiece(capSq)
	} else if b.squares[to] != NoPiece {
		u.CapturedSq = to
		u.Captured = b.RemovePiece(to)
	}

	b.movePiece(from, to)

	if m.IsCastling() {
		c := piece.Color()
		side := CastleSideOf(from, to)
		b.movePiece(RookHome(c, side), CastleRookTarget(c, side))
	}

	b.CastlingRights &^= rightsLostAt(from) | rightsLostAt(to)
	b.setEnPassant(piece, from, to)

	if piece.Type() == Pawn || u.Captured != NoPiece {
		b.HalfMoveClock = 0
	} else {
		b.HalfMoveClock++
	}
	return u
}

// ApplySplit copies the piece on m.From() to m.To(), leaving the origin in
// place. Both squares now show the piece; which one is real is decided later.
func (b *Board) ApplySplit(m Move) Undo {
	from, to := m.From(), m.To()
	piece := b.squares[from]
	u := b.undoFor(m, piece)
	u.Split = true

	b.SetPiece(to, piece)
	b.CastlingRights &^= rightsLostAt(from)
	b.setEnPassant(piece, from, to)
	if piece.Type() == Pawn {
		b.HalfMoveClock = 0
	} else {
		b.HalfMoveClock++
	}
	return u
}

// Unapply reverts an Apply or ApplySplit, including the turn state.
func (b *Board) Unapply(u Undo) {
	from, to := u.Move.From(), u.Move.To()
	if u.Split {
		b.RemovePiece(to)
	} else {
		if u.Move.IsCastling() {
			c := u.Piece.Color()
			side := CastleSideOf(from, to)
			b.movePiece(CastleRookTarget(c, side), RookHome(c, side))
		}
		b.RemovePiece(to)
		b.SetPiece(from, u.Piece)
		if u.Captured != NoPiece {
			b.SetPiece(u.CapturedSq, u.Captured)
		}
	}
	b.CastlingRights = u.castling
	b.EnPassant = u.enPassant
	b.HalfMoveClock = u.halfMove
	b.FullMoveNumber = u.fullMove
	b.SideToMove = u.side
}

// MakeMove applies m and passes the turn.
func (b *Board) MakeMove(m Move) Undo {
	u := b.Apply(m)
	b.PassTurn()
	return u
}

// UnmakeMove undoes MakeMove.
func (b *Board) UnmakeMove(u Undo) {
	b.Unapply(u)
}

func (b *Board) undoFor(m Move, piece Piece) Undo {
	return Undo{
		Move:       m,
		Piece:      piece,
		Captured:   NoPiece,
		CapturedSq: NoSquare,
		castling:   b.CastlingRights,
		enPassant:  b.EnPassant,
		halfMove:   b.HalfMoveClock,
		fullMove:   b.FullMoveNumber,
		side:       b.SideToMove,
	}
}

func (b *Board) setEnPassant(piece Piece, from, to Square) {
	b.EnPassant = NoSquare
	if piece.Type() == Pawn && abs(int(to)-int(from)) == 16 {
		b.EnPassant = Square((int(from) + int(to)) / 2)
	}
}
