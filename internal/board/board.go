package board

import (
	"fmt"
	"slices"
	"strings"
)

// Record is one entry of the move history.
type Record struct {
	Ply       int
	Color     Color
	Move      Move
	Piece     Piece
	Captured  Piece
	Promotion PieceType
	Split     bool
	// Vanished is set when the moving piece turned out not to be on the
	// origin square once its superposition was measured.
	Vanished bool
	// Collapsed counts the subsystems measured while executing the move.
	Collapsed int
}

func (r Record) String() string {
	var sb strings.Builder
	sb.WriteString(r.Move.String())
	if r.Promotion != NoPieceType && r.Promotion != Pawn {
		sb.WriteByte(r.Promotion.Char())
	}
	if r.Split {
		sb.WriteString("~")
	}
	if r.Captured != NoPiece {
		sb.WriteString("x" + r.Captured.String())
	}
	if r.Vanished {
		sb.WriteString("?")
	}
	return sb.String()
}

// Board is a square-indexed piece map kept in sync with per-color and
// per-kind bitboards, plus the game state that travels with a position.
type Board struct {
	squares  [64]Piece
	pieces   [2][6]Bitboard
	occupied [2]Bitboard
	all      Bitboard

	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square // Target square for en passant, NoSquare if none
	HalfMoveClock  int
	FullMoveNumber int

	captured [2][]Piece // pieces captured by each color
	history  []Record
}

// NewBoard returns the standard starting position.
func NewBoard() *Board {
	b, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return b
}

// NewEmptyBoard returns a board without pieces, White to move and no rights.
func NewEmptyBoard() *Board {
	b := &Board{
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
	}
	for i := range b.squares {
		b.squares[i] = NoPiece
	}
	return b
}

// Copy returns a deep copy of the board.
func (b *Board) Copy() *Board {
	nb := *b
	nb.captured[White] = slices.Clone(b.captured[White])
	nb.captured[Black] = slices.Clone(b.captured[Black])
	nb.history = slices.Clone(b.history)
	return &nb
}

// PieceAt returns the piece on sq, or NoPiece.
func (b *Board) PieceAt(sq Square) Piece {
	if sq >= NoSquare {
		return NoPiece
	}
	return b.squares[sq]
}

// IsEmpty reports whether sq holds no piece.
func (b *Board) IsEmpty(sq Square) bool {
	return b.PieceAt(sq) == NoPiece
}

// SetPiece puts p on sq, replacing whatever was there. NoPiece clears sq.
func (b *Board) SetPiece(sq Square, p Piece) {
	b.RemovePiece(sq)
	if p == NoPiece {
		return
	}
	bb := SquareBB(sq)
	b.squares[sq] = p
	b.pieces[p.Color()][p.Type()] |= bb
	b.occupied[p.Color()] |= bb
	b.all |= bb
}

// RemovePiece empties sq and returns what stood there.
func (b *Board) RemovePiece(sq Square) Piece {
	p := b.squares[sq]
	if p == NoPiece {
		return NoPiece
	}
	bb := SquareBB(sq)
	b.squares[sq] = NoPiece
	b.pieces[p.Color()][p.Type()] &^= bb
	b.occupied[p.Color()] &^= bb
	b.all &^= bb
	return p
}

func (b *Board) movePiece(from, to Square) {
	p := b.RemovePiece(from)
	b.SetPiece(to, p)
}

// Occupied returns every occupied square.
func (b *Board) Occupied() Bitboard {
	return b.all
}

// ColorOccupied returns the squares holding pieces of c.
func (b *Board) ColorOccupied(c Color) Bitboard {
	return b.occupied[c]
}

// PiecesOf returns the squares holding pieces of color c and kind pt.
func (b *Board) PiecesOf(c Color, pt PieceType) Bitboard {
	return b.pieces[c][pt]
}

// KingSquare returns the square of c's king, or NoSquare if there is none.
func (b *Board) KingSquare(c Color) Square {
	return b.pieces[c][King].LSB()
}

// Clear removes every piece and resets the game state.
func (b *Board) Clear() {
	*b = *NewEmptyBoard()
}

// AddCapture appends p to the list of pieces captured by c.
func (b *Board) AddCapture(by Color, p Piece) {
	b.captured[by] = append(b.captured[by], p)
}

// Captured returns the pieces captured by c in capture order.
func (b *Board) Captured(by Color) []Piece {
	return b.captured[by]
}

// AppendHistory adds a record to the move history.
func (b *Board) AppendHistory(r Record) {
	b.history = append(b.history, r)
}

// History returns the move history, oldest first.
func (b *Board) History() []Record {
	return b.history
}

// PassTurn hands the move to the other side and advances the move counter.
func (b *Board) PassTurn() {
	if b.SideToMove == Black {
		b.FullMoveNumber++
	}
	b.SideToMove = b.SideToMove.Other()
}

// String returns a visual representation of the board.
func (b *Board) String() string {
	var sb strings.Builder
	sb.WriteByte('\n')
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < 8; file++ {
			p := b.PieceAt(NewSquare(file, rank))
			if p == NoPiece {
				sb.WriteString(". ")
			} else {
				sb.WriteString(p.String() + " ")
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Side to move: %s\n", b.SideToMove)
	fmt.Fprintf(&sb, "Castling: %s\n", b.CastlingRights)
	fmt.Fprintf(&sb, "En passant: %s\n", b.EnPassant)
	return sb.String()
}
