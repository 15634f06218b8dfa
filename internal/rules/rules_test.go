package rules

import (
	"slices"
	"testing"

	"github.com/dylhunn/dragontoothmg"

	"github.com/hailam/qchess/internal/board"
	"github.com/hailam/qchess/internal/movegen"
	"github.com/hailam/qchess/internal/quantum"
)

const kiwipete = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"

type fixture struct {
	b *board.Board
	m *quantum.Manager
	e *Engine
}

func setup(t *testing.T, fen string, oracle quantum.Oracle) *fixture {
	t.Helper()
	b, err := board.ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	if oracle == nil {
		oracle = quantum.NewSampler(1)
	}
	m := quantum.NewManager(oracle)
	return &fixture{b: b, m: m, e: NewEngine(b, m)}
}

// split registers a split without any rule checks.
func (f *fixture) split(from, to board.Square) {
	p := f.b.PieceAt(from)
	f.b.ApplySplit(board.NewMove(from, to))
	f.m.CreateSplit(from, to, p)
	f.e.Invalidate()
}

func script(outcomes ...quantum.Outcome) quantum.Oracle {
	return quantum.OracleFunc(func(spec quantum.Spec) map[quantum.QubitID]quantum.Outcome {
		out := make(map[quantum.QubitID]quantum.Outcome)
		for i, n := range spec.Nodes {
			out[n.ID] = outcomes[i]
		}
		return out
	})
}

func moveStrings(ml *board.MoveList) []string {
	var out []string
	for _, m := range ml.Slice() {
		s := m.String()
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return out
}

func perft(e *Engine, b *board.Board, depth int) int64 {
	moves := e.LegalMoves(b.SideToMove)
	if depth == 1 {
		return int64(moves.Len())
	}
	var nodes int64
	for _, m := range moves.Slice() {
		u := b.MakeMove(m)
		nodes += perft(e, b, depth-1)
		b.UnmakeMove(u)
	}
	return nodes
}

func TestPerft(t *testing.T) {
	tests := []struct {
		name  string
		fen   string
		depth int
		want  int64
	}{
		{"start d1", board.StartFEN, 1, 20},
		{"start d2", board.StartFEN, 2, 400},
		{"start d3", board.StartFEN, 3, 8902},
		{"kiwipete d1", kiwipete, 1, 48},
		{"kiwipete d2", kiwipete, 2, 2039},
		{"endgame d3", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1", 3, 2812},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := setup(t, tc.fen, nil)
			before := f.b.FEN()
			if got := perft(f.e, f.b, tc.depth); got != tc.want {
				t.Errorf("perft(%d) = %d, want %d", tc.depth, got, tc.want)
			}
			if f.b.FEN() != before {
				t.Errorf("perft left the board changed: %s", f.b.FEN())
			}
		})
	}
}

func dragontoothMoves(fen string) []string {
	db := dragontoothmg.ParseFen(fen)
	var out []string
	for _, mv := range db.GenerateLegalMoves() {
		s := mv.String()[:4]
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return out
}

// TestLegalMovesMatchDragontooth compares classical legal moves, one and two
// plies deep, with an independent generator.
func TestLegalMovesMatchDragontooth(t *testing.T) {
	fens := []string{
		board.StartFEN,
		kiwipete,
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	}
	for _, fen := range fens {
		t.Run(fen, func(t *testing.T) {
			f := setup(t, fen, nil)
			compare := func() {
				t.Helper()
				got := moveStrings(f.e.LegalMoves(f.b.SideToMove))
				want := dragontoothMoves(f.b.FEN())
				if !slices.Equal(got, want) {
					t.Fatalf("%s\n got %v\nwant %v", f.b.FEN(), got, want)
				}
			}
			compare()
			for _, m := range f.e.LegalMoves(f.b.SideToMove).Slice() {
				if m.IsPromotion() {
					continue
				}
				u := f.b.MakeMove(m)
				compare()
				f.b.UnmakeMove(u)
			}
		})
	}
}

func TestClassicalTerminalStates(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want Status
	}{
		{"back rank mate", "R6k/6pp/8/8/8/8/8/K7 b - - 0 1", Checkmate},
		{"stalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", Stalemate},
		{"check with escape", "R6k/7p/8/8/8/8/8/K7 b - - 0 1", Ongoing},
		{"start", board.StartFEN, Ongoing},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := setup(t, tc.fen, nil)
			v := f.e.Evaluate(f.b.SideToMove)
			if v.Status != tc.want {
				t.Errorf("Evaluate = %s, want %s\n%s", v.Status, tc.want, f.b)
			}
			if len(v.Check.Collapsed) != 0 {
				t.Errorf("classical position should collapse nothing")
			}
		})
	}
}

func TestCheckForcesCollapse(t *testing.T) {
	tests := []struct {
		outcome quantum.Outcome
		inCheck bool
		rookOn  board.Square
	}{
		{quantum.BranchB, true, board.H1},
		{quantum.BranchA, false, board.H8},
	}
	for _, tc := range tests {
		t.Run(tc.outcome.String(), func(t *testing.T) {
			f := setup(t, "k6r/8/8/8/8/8/8/4K3 w - - 0 1", script(tc.outcome))
			f.split(board.H8, board.H1)

			if !f.e.InCheckSimple(board.White) {
				t.Fatalf("the h1 branch should give a pessimistic check")
			}
			if !f.m.HasLive() {
				t.Fatalf("simple query must not collapse")
			}

			res := f.e.CheckStatus(board.White)
			if res.InCheck != tc.inCheck {
				t.Errorf("InCheck = %v, want %v", res.InCheck, tc.inCheck)
			}
			if len(res.Collapsed) != 1 || res.Collapsed[0] != 0 {
				t.Errorf("Collapsed = %v, want [0]", res.Collapsed)
			}
			if f.m.HasLive() {
				t.Errorf("collapse should have been folded")
			}
			if f.b.PieceAt(tc.rookOn) != board.BlackRook {
				t.Errorf("rook should be on %s:\n%s", tc.rookOn, f.b)
			}

			again := f.e.CheckStatus(board.White)
			if again.InCheck != tc.inCheck || len(again.Collapsed) != 0 {
				t.Errorf("cached answer = %+v", again)
			}
		})
	}
}

func TestNoCollapseWithoutCheck(t *testing.T) {
	f := setup(t, "k6r/8/8/8/8/8/8/4K3 w - - 0 1", nil)
	f.split(board.H8, board.H5)
	res := f.e.CheckStatus(board.White)
	if res.InCheck || len(res.Collapsed) != 0 || !f.m.HasLive() {
		t.Errorf("no branch attacks e1, nothing should collapse: %+v", res)
	}
}

func TestLegalMovesAgainstLiveBranches(t *testing.T) {
	f := setup(t, "k6r/8/8/8/8/7R/8/4K3 w - - 0 1", nil)
	f.split(board.H8, board.H1)
	before := f.b.FEN()

	got := moveStrings(f.e.LegalMoves(board.White))
	want := []string{"e1d2", "e1e2", "e1f2", "h3h1"}
	if !slices.Equal(got, want) {
		t.Errorf("legal moves = %v, want %v", got, want)
	}
	if f.b.FEN() != before || !f.m.IsSplit(board.H1) || !f.m.IsSplit(board.H8) {
		t.Errorf("legality queries must leave board and splits untouched")
	}
}

func TestSplitLegality(t *testing.T) {
	f := setup(t, "4r1k1/8/8/8/8/2N5/8/4K3 w - - 0 1", nil)

	block := board.NewMove(board.C3, board.E2)
	if !f.e.IsLegalMove(block) {
		t.Errorf("Nc3-e2 blocks the check and is legal")
	}
	if f.e.IsLegalSplit(block) {
		t.Errorf("a split to e2 might leave the knight on c3 and the king in check")
	}
	if n := f.e.LegalSplitsFrom(board.C3).Len(); n != 0 {
		t.Errorf("no split resolves the check, got %d", n)
	}

	f = setup(t, "4k3/8/8/8/8/8/8/R3K3 w Q - 0 1", nil)
	if !f.e.IsLegalSplit(board.NewMove(board.A1, board.A5)) {
		t.Errorf("a free rook may split")
	}
	if f.e.IsLegalSplit(board.NewMove(board.E1, board.E2)) {
		t.Errorf("kings never split")
	}
	if f.e.IsLegalSplit(board.NewCastling(board.E1, board.C1)) {
		t.Errorf("castling never splits")
	}

	f = setup(t, "4k3/8/8/8/8/8/8/r3K2R w K - 0 1", nil)
	if f.e.IsLegalSplit(board.NewMove(board.H1, board.A1)) {
		t.Errorf("captures never split")
	}

	// A pinned piece cannot split off the pin line.
	f = setup(t, "4k3/4r3/8/8/8/8/4B3/4K3 w - - 0 1", nil)
	if f.e.IsLegalSplit(board.NewMove(board.E2, board.D3)) {
		t.Errorf("pinned bishop split exposes the king")
	}
}

func TestCastlingWithLiveBranches(t *testing.T) {
	f := setup(t, "4k2r/8/8/8/8/8/8/R3K2R w KQ - 0 1", script(quantum.BranchA))
	f.split(board.H8, board.F8)

	ks, qs := f.e.CastleOptions(board.E1)
	if ks || !qs {
		t.Errorf("f8 branch attacks f1: options = %v %v, want false true", ks, qs)
	}
	if f.e.IsLegalMove(board.NewCastling(board.E1, board.G1)) {
		t.Errorf("O-O should be illegal")
	}
	if !f.e.IsLegalMove(board.NewCastling(board.E1, board.C1)) {
		t.Errorf("O-O-O should be legal")
	}

	ref, _ := f.m.Get(board.F8)
	f.m.ApplyCollapseFor(f.b, ref)
	f.e.Invalidate()
	if ks, qs := f.e.CastleOptions(board.E1); !ks || !qs {
		t.Errorf("after the rook settles on h8 both sides are open, got %v %v", ks, qs)
	}

	f.split(board.H1, board.H3)
	if f.e.CanCastle(board.E1, board.KingSide) {
		t.Errorf("a split rook cannot castle")
	}
}

func TestCheckmateSettledByCollapse(t *testing.T) {
	tests := []struct {
		outcome quantum.Outcome
		want    Status
	}{
		{quantum.BranchB, Checkmate},
		{quantum.BranchA, Ongoing},
	}
	for _, tc := range tests {
		t.Run(tc.want.String(), func(t *testing.T) {
			f := setup(t, "7k/6pp/8/8/8/8/8/R5K1 b - - 0 1", script(tc.outcome))
			f.split(board.A1, board.A8)

			v := f.e.Evaluate(board.Black)
			if v.Status != tc.want {
				t.Errorf("Evaluate = %s, want %s\n%s", v.Status, tc.want, f.b)
			}
			if len(v.Check.Collapsed) != 1 {
				t.Errorf("the pessimistic check should collapse the rook, got %v", v.Check.Collapsed)
			}
		})
	}
}

// attackedByHand answers the attack question the long way: every classical
// enemy piece on the board as it stands, then every live enemy branch on a
// copy where the other squares of its subsystem are emptied.
func attackedByHand(b *board.Board, groups []quantum.Group, sq board.Square, defender board.Color) bool {
	enemy := defender.Other()
	live := board.Empty
	for _, g := range groups {
		for _, en := range g.Entries {
			live |= board.SquareBB(en.Square)
		}
	}
	pieces := b.ColorOccupied(enemy) &^ live
	for pieces != 0 {
		if movegen.Attacks(b, pieces.PopLSB()).IsSet(sq) {
			return true
		}
	}
	for _, g := range groups {
		if g.Color() != enemy {
			continue
		}
		for _, en := range g.Entries {
			hb := b.Copy()
			for _, other := range g.Entries {
				hb.RemovePiece(other.Square)
			}
			hb.SetPiece(en.Square, en.Piece)
			if movegen.Attacks(hb, en.Square).IsSet(sq) {
				return true
			}
		}
	}
	return false
}

func TestAttackMatchesBranchHypotheticals(t *testing.T) {
	f := setup(t, "r1b1k2r/pp3ppp/2n5/3q4/8/2N2B2/PP3PPP/R3K1NR w KQkq - 0 1", nil)
	f.split(board.D5, board.D2)
	f.split(board.D2, board.D4)
	f.split(board.C6, board.E5)
	f.split(board.C3, board.E4)
	f.split(board.F3, board.G4)
	f.split(board.H8, board.H4)

	groups := f.m.LiveGroups()
	if len(groups) != 5 {
		t.Fatalf("expected 5 groups, got %d", len(groups))
	}

	for sq := board.A1; sq <= board.H8; sq++ {
		for _, defender := range []board.Color{board.White, board.Black} {
			want := attackedByHand(f.b, groups, sq, defender)
			if got := f.e.IsSquareAttacked(sq, defender); got != want {
				t.Errorf("IsSquareAttacked(%s, %s) = %v, want %v\n%s", sq, defender, got, want, f.b)
			}
		}
	}
	if !f.m.HasLive() || len(f.m.LiveGroups()) != 5 {
		t.Errorf("attack queries must not collapse anything")
	}
}

func TestLiveSquaresBlock(t *testing.T) {
	t.Run("own branches", func(t *testing.T) {
		f := setup(t, "k3r3/8/8/8/4R3/8/8/4K3 w - - 0 1", nil)
		if !f.e.IsLegalSplit(board.NewMove(board.E4, board.E3)) {
			t.Errorf("a pinned rook may split along the pin")
		}
		if f.e.IsLegalSplit(board.NewMove(board.E4, board.D4)) {
			t.Errorf("a pinned rook may not split off the pin")
		}

		f.split(board.E4, board.E3)
		if f.e.IsSquareAttacked(board.E1, board.White) {
			t.Errorf("both rook squares shield e1")
		}
		res := f.e.CheckStatus(board.White)
		if res.InCheck || len(res.Collapsed) != 0 || !f.m.HasLive() {
			t.Errorf("CheckStatus = %+v, nothing should be measured", res)
		}
	})

	t.Run("enemy branches", func(t *testing.T) {
		f := setup(t, "k3r3/8/8/4n3/8/8/8/4K3 b - - 0 1", nil)
		f.split(board.E5, board.C6)
		if f.e.IsSquareAttacked(board.E1, board.White) {
			t.Errorf("the e5 branch blocks the classical e8 rook")
		}
		if !f.e.IsSquareAttacked(board.D4, board.White) {
			t.Errorf("the c6 branch attacks d4")
		}
		if !f.e.IsSquareAttacked(board.D3, board.White) {
			t.Errorf("the e5 branch attacks d3")
		}
	})
}
