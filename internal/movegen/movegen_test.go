package movegen

import (
	"slices"
	"testing"

	"github.com/hailam/qchess/internal/board"
)

func mustFEN(t *testing.T, fen string) *board.Board {
	t.Helper()
	b, err := board.ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return b
}

func targets(b *board.Board, from board.Square) []string {
	ml := board.NewMoveList()
	Generate(b, from, ml)
	var out []string
	for _, m := range ml.Slice() {
		out = append(out, m.To().String())
	}
	slices.Sort(out)
	return out
}

func TestStartingPositionCandidates(t *testing.T) {
	b := board.NewBoard()
	ml := board.NewMoveList()
	GenerateAll(b, board.White, ml)
	if ml.Len() != 20 {
		t.Errorf("white has %d candidates at the start, want 20", ml.Len())
	}
	ml.Clear()
	GenerateAll(b, board.Black, ml)
	if ml.Len() != 20 {
		t.Errorf("black has %d candidates at the start, want 20", ml.Len())
	}
}

func TestPerPieceTargets(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		from board.Square
		want []string
	}{
		{"knight corner", "4k3/8/8/8/8/8/8/N3K3 w - - 0 1", board.A1, []string{"b3", "c2"}},
		{"knight blocked by own", "4k3/8/8/8/8/1P6/8/N3K3 w - - 0 1", board.A1, []string{"c2"}},
		{"bishop ray capture", "4k3/8/8/8/3p4/8/1B6/4K3 w - - 0 1", board.B2, []string{"a1", "a3", "c1", "c3", "d4"}},
		{"rook stops at own", "4k3/8/8/8/8/8/8/R2PK3 w - - 0 1", board.A1, []string{"a2", "a3", "a4", "a5", "a6", "a7", "a8", "b1", "c1"}},
		{"king edge", "4k3/8/8/8/8/8/8/7K w - - 0 1", board.H1, []string{"g1", "g2", "h2"}},
		{"pawn start", "4k3/8/8/8/8/8/4P3/4K3 w - - 0 1", board.E2, []string{"e3", "e4"}},
		{"pawn blocked double", "4k3/8/8/8/4n3/8/4P3/4K3 w - - 0 1", board.E2, []string{"e3"}},
		{"pawn blocked", "4k3/8/8/8/8/4n3/4P3/4K3 w - - 0 1", board.E2, nil},
		{"pawn captures", "4k3/8/8/8/8/3n1N2/4P3/4K3 w - - 0 1", board.E2, []string{"d3", "e3", "e4"}},
		{"black pawn", "4k3/3p4/2N5/8/8/8/8/4K3 b - - 0 1", board.D7, []string{"c6", "d5", "d6"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := targets(mustFEN(t, tc.fen), tc.from)
			if !slices.Equal(got, tc.want) {
				t.Errorf("targets from %s = %v, want %v", tc.from, got, tc.want)
			}
		})
	}
}

func TestPawnSpecialFlags(t *testing.T) {
	b := mustFEN(t, "1n2k3/P7/8/3pP3/8/8/8/4K3 w - d6 0 1")

	ml := board.NewMoveList()
	Generate(b, board.A7, ml)
	if ml.Len() != 2 {
		t.Fatalf("a7 pawn should push and capture, got %v", ml.Slice())
	}
	for _, m := range ml.Slice() {
		if !m.IsPromotion() {
			t.Errorf("%s reaches the back rank and should be a promotion", m)
		}
	}

	ml.Clear()
	Generate(b, board.E5, ml)
	ep, ok := ml.Find(board.E5, board.D6)
	if !ok || !ep.IsEnPassant() {
		t.Errorf("e5xd6 en passant missing from %v", ml.Slice())
	}

	// The target alone is not enough: the victim must be there.
	b.RemovePiece(board.D5)
	ml.Clear()
	Generate(b, board.E5, ml)
	if _, ok := ml.Find(board.E5, board.D6); ok {
		t.Errorf("en passant without a victim on d5")
	}
}

func TestCastlingCandidatesAreStructural(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		from board.Square
		want []board.Square
	}{
		{"both sides", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", board.E1, []board.Square{board.G1, board.C1}},
		{"black both", "r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 0 1", board.E8, []board.Square{board.G8, board.C8}},
		{"no rights", "r3k2r/8/8/8/8/8/8/R3K2R w - - 0 1", board.E1, nil},
		{"blocked b1", "r3k2r/8/8/8/8/8/8/RN2K2R w KQkq - 0 1", board.E1, []board.Square{board.G1}},
		{"missing rook", "r3k2r/8/8/8/8/8/8/R3K3 w KQkq - 0 1", board.E1, []board.Square{board.C1}},
		// Attacked transit squares are the rules package's business.
		{"attacked f1", "r3k2r/8/8/8/8/8/5r2/R3K2R w KQkq - 0 1", board.E1, []board.Square{board.G1, board.C1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := mustFEN(t, tc.fen)
			ml := board.NewMoveList()
			CastlingCandidates(b, tc.from, ml)
			var got []board.Square
			for _, m := range ml.Slice() {
				if !m.IsCastling() {
					t.Errorf("%s is not flagged as castling", m)
				}
				got = append(got, m.To())
			}
			if !slices.Equal(got, tc.want) {
				t.Errorf("castling targets = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAttackSets(t *testing.T) {
	b := mustFEN(t, "4k3/8/8/8/8/8/4P3/4K3 w - - 0 1")
	if got := Attacks(b, board.E2); got != board.SquareBB(board.D3)|board.SquareBB(board.F3) {
		t.Errorf("pawn attacks both diagonals regardless of occupancy:\n%s", got)
	}
	if Attacks(b, board.E2).IsSet(board.E3) {
		t.Errorf("pushes are not attacks")
	}

	// Castling never shows up as an attack of the king.
	b = mustFEN(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	if Attacks(b, board.E1).IsSet(board.G1) || Attacks(b, board.E1).IsSet(board.C1) {
		t.Errorf("king attack set includes a castling square")
	}

	// A ray includes the first blocker of either color and stops there.
	b = mustFEN(t, "4k3/8/8/8/8/8/4P3/R3K3 w - - 0 1")
	att := Attacks(b, board.A1)
	if !att.IsSet(board.E1) || att.IsSet(board.F1) {
		t.Errorf("rook ray should end on the king:\n%s", att)
	}
}

// TestAttackersAgreesWithAttacks checks the reverse lookup against the forward
// attack sets on a busy position.
func TestAttackersAgreesWithAttacks(t *testing.T) {
	b := mustFEN(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	for target := board.A1; target <= board.H8; target++ {
		for _, by := range []board.Color{board.White, board.Black} {
			var forward board.Bitboard
			pieces := b.ColorOccupied(by)
			for pieces != 0 {
				sq := pieces.PopLSB()
				if Attacks(b, sq).IsSet(target) {
					forward |= board.SquareBB(sq)
				}
			}
			if got := Attackers(b, target, by); got != forward {
				t.Fatalf("attackers of %s by %s: reverse %v, forward %v", target, by, got.Squares(), forward.Squares())
			}
		}
	}
}
