package game

import (
	"errors"
	"slices"
	"testing"

	"github.com/hailam/qchess/internal/board"
	"github.com/hailam/qchess/internal/quantum"
)

func script(outcomes ...quantum.Outcome) quantum.Oracle {
	return quantum.OracleFunc(func(spec quantum.Spec) map[quantum.QubitID]quantum.Outcome {
		out := make(map[quantum.QubitID]quantum.Outcome)
		for i, n := range spec.Nodes {
			out[n.ID] = outcomes[i]
		}
		return out
	})
}

func newGame(t *testing.T, fen string, oracle quantum.Oracle) *Game {
	t.Helper()
	g, err := New(Config{FEN: fen, Oracle: oracle, Seed: 7})
	if err != nil {
		t.Fatalf("New(%q): %v", fen, err)
	}
	return g
}

func mustMove(t *testing.T, g *Game, from, to board.Square) MoveResult {
	t.Helper()
	res, err := g.Move(from, to)
	if err != nil {
		t.Fatalf("Move %s%s: %v\n%s", from, to, err, g.board)
	}
	return res
}

func mustSplit(t *testing.T, g *Game, from, to board.Square) MoveResult {
	t.Helper()
	g.SetSplitMode(true)
	res, err := g.Move(from, to)
	if err != nil {
		t.Fatalf("split %s%s: %v\n%s", from, to, err, g.board)
	}
	return res
}

func TestDoublePush(t *testing.T) {
	g := newGame(t, "", nil)
	res := mustMove(t, g, board.E2, board.E4)

	if g.PieceAt(board.E4) != board.WhitePawn || g.PieceAt(board.E2) != board.NoPiece {
		t.Errorf("pawn did not move:\n%s", g.board)
	}
	if g.board.EnPassant != board.E3 {
		t.Errorf("en passant = %s, want e3", g.board.EnPassant)
	}
	if g.Turn() != board.Black {
		t.Errorf("turn = %s, want Black", g.Turn())
	}
	if res.Split || res.Vanished || res.Captured != board.NoPiece || len(res.Collapsed) != 0 {
		t.Errorf("unexpected result %+v", res)
	}
	if h := g.History(); len(h) != 1 || h[0].Move.String() != "e2e4" {
		t.Errorf("history = %v", h)
	}
}

func TestSplitKnight(t *testing.T) {
	g := newGame(t, "", nil)
	res := mustSplit(t, g, board.G1, board.F3)

	if !res.Split {
		t.Errorf("result should report a split")
	}
	for _, sq := range []board.Square{board.G1, board.F3} {
		if g.PieceAt(sq) != board.WhiteKnight || !g.IsSplit(sq) {
			t.Errorf("%s should show a live knight", sq)
		}
	}
	a, _ := g.splits.Get(board.G1)
	b, _ := g.splits.Get(board.F3)
	if a.Subsystem != b.Subsystem || a.Qubit != b.Qubit || a.Branch == b.Branch {
		t.Errorf("refs %+v and %+v should be the two branches of one qubit", a, b)
	}
	if g.SplitMode() {
		t.Errorf("split mode should reset after one use")
	}
	if g.Turn() != board.Black {
		t.Errorf("a split passes the turn")
	}
	if s := g.Stats(); s.Splits != 1 || s.Subsystems != 1 || s.Live != 2 {
		t.Errorf("stats = %+v", s)
	}
}

func TestCaptureOnBranch(t *testing.T) {
	tests := []struct {
		name     string
		outcome  quantum.Outcome
		captured bool
	}{
		{"knight stayed home", quantum.BranchA, false},
		{"knight was on f3", quantum.BranchB, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := newGame(t, "4k3/8/8/8/6p1/8/8/4K1N1 w - - 0 1", script(tc.outcome))
			mustSplit(t, g, board.G1, board.F3)
			res := mustMove(t, g, board.G4, board.F3)

			if len(res.Collapsed) != 1 {
				t.Errorf("Collapsed = %v, want one subsystem", res.Collapsed)
			}
			if g.PieceAt(board.F3) != board.BlackPawn {
				t.Errorf("pawn should stand on f3:\n%s", g.board)
			}
			if g.IsSplit(board.F3) || g.IsSplit(board.G1) {
				t.Errorf("subsystem should be folded")
			}
			captured := g.Captured(board.Black)
			if tc.captured {
				if res.Captured != board.WhiteKnight || len(captured) != 1 {
					t.Errorf("capture not recorded: %+v %v", res, captured)
				}
				if g.PieceAt(board.G1) != board.NoPiece {
					t.Errorf("g1 should be empty")
				}
			} else {
				if res.Captured != board.NoPiece || len(captured) != 0 {
					t.Errorf("nothing should be captured: %+v %v", res, captured)
				}
				if g.PieceAt(board.G1) != board.WhiteKnight {
					t.Errorf("knight should be on g1")
				}
			}
		})
	}
}

func TestKingCannotEnterBranchAttack(t *testing.T) {
	calls := 0
	oracle := quantum.OracleFunc(func(spec quantum.Spec) map[quantum.QubitID]quantum.Outcome {
		calls++
		return map[quantum.QubitID]quantum.Outcome{0: quantum.BranchB}
	})
	g := newGame(t, "4k3/8/8/2b5/8/8/8/4K3 b - - 0 1", oracle)
	mustSplit(t, g, board.C5, board.A3)
	before := g.FEN()

	if _, err := g.Move(board.E1, board.F2); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("Ke1-f2 into the c5 branch: err = %v, want ErrIllegalMove", err)
	}
	if calls != 0 || g.FEN() != before || !g.IsSplit(board.C5) {
		t.Errorf("rejection must not measure or change anything")
	}
	mustMove(t, g, board.E1, board.E2)
}

func TestBackRankMate(t *testing.T) {
	g := newGame(t, "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", nil)
	res := mustMove(t, g, board.A1, board.A8)

	if !res.Over || !res.Check || !g.Over() {
		t.Fatalf("expected mate, got %+v", res)
	}
	if o := g.Outcome(); o.Ending != Checkmate || o.Winner != board.White {
		t.Errorf("outcome = %s", o)
	}
	before := g.FEN()
	if _, err := g.Move(board.G8, board.H8); !errors.Is(err, ErrGameOver) {
		t.Errorf("move after mate: err = %v", err)
	}
	if err := g.Select(board.F7); !errors.Is(err, ErrGameOver) {
		t.Errorf("select after mate: err = %v", err)
	}
	if g.FEN() != before {
		t.Errorf("board changed after the game ended")
	}
}

func TestSplitPawnPromotes(t *testing.T) {
	tests := []struct {
		outcome quantum.Outcome
		e7, e8  board.Piece
	}{
		{quantum.BranchA, board.WhitePawn, board.NoPiece},
		{quantum.BranchB, board.NoPiece, board.WhiteQueen},
	}
	for _, tc := range tests {
		t.Run(tc.outcome.String(), func(t *testing.T) {
			g := newGame(t, "8/4P3/7k/8/8/8/8/4K3 w - - 0 1", script(tc.outcome))
			res := mustSplit(t, g, board.E7, board.E8)
			if !res.PromotionPending || g.State() != PromotionPending {
				t.Fatalf("split onto the back rank should wait for a promotion choice")
			}
			if g.Turn() != board.White {
				t.Errorf("turn passes only after the choice")
			}

			if _, err := g.ChoosePromotion(board.King); !errors.Is(err, ErrInvalidPromotion) {
				t.Errorf("king promotion: err = %v", err)
			}
			if err := g.Select(board.E1); !errors.Is(err, ErrPromotionPending) {
				t.Errorf("select while pending: err = %v", err)
			}

			if _, err := g.ChoosePromotion(board.Queen); err != nil {
				t.Fatalf("ChoosePromotion: %v", err)
			}
			ref, ok := g.splits.Get(board.E8)
			if !ok {
				t.Fatalf("e8 should still be live")
			}
			q := g.splits.Subsystem(ref.Subsystem).Qubit(ref.Qubit)
			if q.B.Piece != board.WhiteQueen || q.A.Piece != board.WhitePawn {
				t.Errorf("branches = %s / %s, want P / Q", q.A.Piece, q.B.Piece)
			}
			if g.PieceAt(board.E8) != board.WhiteQueen || g.Turn() != board.Black {
				t.Errorf("e8 should show a queen with Black to move")
			}

			g.splits.Resolve(g.board, board.E8)
			if g.PieceAt(board.E7) != tc.e7 || g.PieceAt(board.E8) != tc.e8 {
				t.Errorf("after collapse e7=%s e8=%s\n%s", g.PieceAt(board.E7), g.PieceAt(board.E8), g.board)
			}
		})
	}
}

func TestPromotion(t *testing.T) {
	g := newGame(t, "8/4P3/7k/8/8/8/8/4K3 w - - 0 1", nil)
	mustMove(t, g, board.E7, board.E8)
	if g.PendingSquare() != board.E8 {
		t.Fatalf("pending square = %s", g.PendingSquare())
	}
	res, err := g.ChoosePromotion(board.Knight)
	if err != nil {
		t.Fatalf("ChoosePromotion: %v", err)
	}
	if g.PieceAt(board.E8) != board.WhiteKnight || res.PromotionPending {
		t.Errorf("e8 = %s, result %+v", g.PieceAt(board.E8), res)
	}
	h := g.History()
	if len(h) != 1 || h[0].Promotion != board.Knight || h[0].String() != "e7e8n" {
		t.Errorf("history = %v", h)
	}
	if _, err := g.ChoosePromotion(board.Queen); !errors.Is(err, ErrInvalidPromotion) {
		t.Errorf("second choice: err = %v", err)
	}
}

func TestPromotionDeliversMate(t *testing.T) {
	g := newGame(t, "7k/4P1pp/8/8/8/8/8/4K3 w - - 0 1", nil)
	if res := mustMove(t, g, board.E7, board.E8); !res.PromotionPending || res.Over {
		t.Fatalf("push should wait for the choice, got %+v", res)
	}
	res, err := g.ChoosePromotion(board.Queen)
	if err != nil {
		t.Fatalf("ChoosePromotion: %v", err)
	}
	if res.PromotionPending || !res.Check || !res.Over {
		t.Errorf("result = %+v, want a settled mating move", res)
	}
	if o := g.Outcome(); o.Ending != Checkmate || o.Winner != board.White {
		t.Errorf("outcome = %s", o)
	}
	if g.State() == PromotionPending || g.PendingSquare() != board.NoSquare {
		t.Errorf("state = %s pending = %s", g.State(), g.PendingSquare())
	}
}

func TestOriginNotThere(t *testing.T) {
	g := newGame(t, "4k3/8/8/8/8/8/8/4K1N1 w - - 0 1", script(quantum.BranchA))
	mustSplit(t, g, board.G1, board.F3)
	mustMove(t, g, board.E8, board.D8)

	res := mustMove(t, g, board.F3, board.E5)
	if !res.Vanished || len(res.Collapsed) != 1 {
		t.Errorf("result = %+v, want a vanished piece and one collapse", res)
	}
	if g.PieceAt(board.G1) != board.WhiteKnight || g.PieceAt(board.F3) != board.NoPiece || g.PieceAt(board.E5) != board.NoPiece {
		t.Errorf("only the fold should change the board:\n%s", g.board)
	}
	if g.Turn() != board.Black {
		t.Errorf("the turn passes even when the piece was absent")
	}
	if h := g.History(); !h[len(h)-1].Vanished {
		t.Errorf("history should mark the vanished move")
	}
}

func TestEnPassantAgainstSplitPawn(t *testing.T) {
	tests := []struct {
		outcome  quantum.Outcome
		captured bool
	}{
		{quantum.BranchA, false},
		{quantum.BranchB, true},
	}
	for _, tc := range tests {
		t.Run(tc.outcome.String(), func(t *testing.T) {
			g := newGame(t, "4k3/8/8/8/3p4/8/4P3/4K3 w - - 0 1", script(tc.outcome))
			mustSplit(t, g, board.E2, board.E4)
			if g.board.EnPassant != board.E3 {
				t.Fatalf("split double push should set e3, got %s", g.board.EnPassant)
			}

			res := mustMove(t, g, board.D4, board.E3)
			if len(res.Collapsed) != 1 {
				t.Errorf("victim's subsystem should collapse, got %v", res.Collapsed)
			}
			if g.PieceAt(board.E3) != board.BlackPawn || g.PieceAt(board.E4) != board.NoPiece {
				t.Errorf("unexpected board:\n%s", g.board)
			}
			if got := res.Captured == board.WhitePawn; got != tc.captured {
				t.Errorf("captured = %s, want capture %v", res.Captured, tc.captured)
			}
			wantE2 := board.WhitePawn
			if tc.captured {
				wantE2 = board.NoPiece
			}
			if g.PieceAt(board.E2) != wantE2 {
				t.Errorf("e2 = %s, want %s", g.PieceAt(board.E2), wantE2)
			}
		})
	}
}

func TestCheckCollapsesAfterMove(t *testing.T) {
	tests := []struct {
		outcome quantum.Outcome
		check   bool
	}{
		{quantum.BranchA, false},
		{quantum.BranchB, true},
	}
	for _, tc := range tests {
		t.Run(tc.outcome.String(), func(t *testing.T) {
			g := newGame(t, "k6r/8/8/8/8/8/8/4K3 b - - 0 1", script(tc.outcome))
			res := mustSplit(t, g, board.H8, board.H1)
			if res.Check != tc.check {
				t.Errorf("check = %v, want %v", res.Check, tc.check)
			}
			if !slices.Equal(res.Collapsed, []quantum.SubsystemID{0}) {
				t.Errorf("Collapsed = %v, want [0]", res.Collapsed)
			}
			if len(g.SplitSquares()) != 0 {
				t.Errorf("every subsystem should be folded")
			}
			if h := g.History(); h[0].Collapsed != 1 {
				t.Errorf("record collapsed = %d", h[0].Collapsed)
			}
		})
	}
}

func TestRookCaptureClearsRight(t *testing.T) {
	g := newGame(t, "r3k3/8/8/8/8/8/8/R3K3 w Qq - 0 1", nil)
	mustMove(t, g, board.A1, board.A8)
	if g.board.CastlingRights != 0 {
		t.Errorf("castling = %s, want -", g.board.CastlingRights)
	}
}

func TestKingCapture(t *testing.T) {
	g := newGame(t, "k7/8/8/8/8/8/8/R3K3 w - - 0 1", nil)
	res := mustMove(t, g, board.A1, board.A8)
	if !res.Over || res.Captured != board.BlackKing {
		t.Fatalf("result = %+v", res)
	}
	if o := g.Outcome(); o.Ending != KingCaptured || o.Winner != board.White {
		t.Errorf("outcome = %s", o)
	}
}

func TestSelection(t *testing.T) {
	g := newGame(t, "", nil)

	if err := g.Select(board.E4); !errors.Is(err, ErrInvalidSelection) {
		t.Errorf("empty square: err = %v", err)
	}
	if err := g.Select(board.E7); !errors.Is(err, ErrInvalidSelection) {
		t.Errorf("enemy piece: err = %v", err)
	}
	if g.State() != Idle {
		t.Errorf("state = %s, want idle", g.State())
	}

	if err := g.Select(board.G1); err != nil {
		t.Fatalf("Select(g1): %v", err)
	}
	targets := g.Targets()
	slices.Sort(targets)
	if !slices.Equal(targets, []board.Square{board.F3, board.H3}) {
		t.Errorf("targets = %v", targets)
	}
	if g.State() != SelectionMade || g.Selected() != board.G1 {
		t.Errorf("state = %s selected = %s", g.State(), g.Selected())
	}

	before := g.FEN()
	if _, err := g.Move(board.G1, board.G3); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("Ng1-g3: err = %v", err)
	}
	if g.FEN() != before || g.State() != Idle {
		t.Errorf("illegal move must only clear the selection")
	}
}

func TestIllegalSplit(t *testing.T) {
	g := newGame(t, "4k3/8/8/8/8/8/3p4/4K3 w - - 0 1", nil)
	g.SetSplitMode(true)
	if _, err := g.Move(board.E1, board.D2); !errors.Is(err, ErrIllegalSplit) {
		t.Errorf("king capture split: err = %v", err)
	}
	if !g.SplitMode() {
		t.Errorf("a rejected split keeps split mode armed")
	}
}

func TestEditMode(t *testing.T) {
	g := newGame(t, "k7/8/8/8/8/8/8/7K w - - 0 1", nil)

	if err := g.Place(board.F2, board.BlackQueen); !errors.Is(err, ErrNotEditMode) {
		t.Errorf("place outside edit mode: err = %v", err)
	}
	if err := g.SetEditMode(true); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Move(board.H1, board.H2); !errors.Is(err, ErrEditMode) {
		t.Errorf("move in edit mode: err = %v", err)
	}
	if err := g.Place(board.F2, board.BlackQueen); err != nil {
		t.Fatal(err)
	}
	if err := g.SetEditMode(false); err != nil {
		t.Fatal(err)
	}
	if o := g.Outcome(); o.Ending != Stalemate || o.Winner != board.NoColor {
		t.Errorf("outcome = %s, want stalemate", o)
	}
}

func TestEditCollapsesLiveSquare(t *testing.T) {
	g := newGame(t, "4k3/8/8/8/8/8/8/4K1N1 w - - 0 1", script(quantum.BranchB))
	mustSplit(t, g, board.G1, board.F3)

	if err := g.SetEditMode(true); err != nil {
		t.Fatal(err)
	}
	if err := g.Place(board.F3, board.BlackBishop); err != nil {
		t.Fatal(err)
	}
	if g.IsSplit(board.F3) || g.IsSplit(board.G1) {
		t.Errorf("placing on a live square should fold its subsystem")
	}
	if g.PieceAt(board.F3) != board.BlackBishop || g.PieceAt(board.G1) != board.NoPiece {
		t.Errorf("unexpected board:\n%s", g.board)
	}
	if s := g.Stats(); s.Collapses != 1 {
		t.Errorf("collapses = %d", s.Collapses)
	}
}

func TestSummary(t *testing.T) {
	g := newGame(t, "", nil)
	if got := g.Summary(); got != "White to move" {
		t.Errorf("Summary() = %q", got)
	}
	g.SetSplitMode(true)
	if got := g.Summary(); got != "White to move [split]" {
		t.Errorf("Summary() = %q", got)
	}
	mustMove(t, g, board.B1, board.C3)
	if got := g.Summary(); got != "Black to move, 2 live squares" {
		t.Errorf("Summary() = %q", got)
	}
}

func TestDeselect(t *testing.T) {
	g := newGame(t, "", nil)
	if err := g.Select(board.B1); err != nil {
		t.Fatal(err)
	}
	g.Deselect()
	if g.State() != Idle || g.Selected() != board.NoSquare || g.Targets() != nil {
		t.Errorf("state = %s selected = %s targets = %v", g.State(), g.Selected(), g.Targets())
	}
}
