// Package game runs a split-piece chess game: it owns the board and the
// split manager, validates requests against the rules engine and carries
// out moves, splits, promotions and edits.
package game

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hailam/qchess/internal/board"
	"github.com/hailam/qchess/internal/quantum"
	"github.com/hailam/qchess/internal/rules"
)

// State is the position of the game in its turn cycle.
type State int

const (
	Idle State = iota
	SelectionMade
	PromotionPending
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case SelectionMade:
		return "selection"
	case PromotionPending:
		return "promotion"
	}
	return "unknown"
}

// Ending says why a game is over.
type Ending int

const (
	NotOver Ending = iota
	Checkmate
	Stalemate
	KingCaptured
)

func (e Ending) String() string {
	switch e {
	case NotOver:
		return "in progress"
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case KingCaptured:
		return "king captured"
	}
	return "unknown"
}

// Outcome is the result of a finished game. Winner is NoColor for a draw
// or a game still in progress.
type Outcome struct {
	Ending Ending
	Winner board.Color
}

func (o Outcome) String() string {
	switch {
	case o.Ending == NotOver:
		return o.Ending.String()
	case o.Winner == board.NoColor:
		return "draw by " + o.Ending.String()
	}
	return fmt.Sprintf("%s wins by %s", o.Winner, o.Ending)
}

// MoveResult reports what a completed Move call did.
type MoveResult struct {
	Move     board.Move
	Piece    board.Piece
	Captured board.Piece
	Split    bool
	// Vanished is set when the piece was not really on the origin square.
	Vanished bool
	// Collapsed lists every subsystem measured during the call, including
	// those measured by the check test for the side to move next.
	Collapsed        []quantum.SubsystemID
	PromotionPending bool
	Check            bool
	Over             bool
}

// Config configures a new Game.
type Config struct {
	// FEN is the starting position. Empty means the standard start.
	FEN string
	// Oracle measures subsystems. When nil a Sampler is used, or a
	// StateVector if StateVector is set.
	Oracle      quantum.Oracle
	StateVector bool
	// Seed seeds the default oracle. Zero picks one from the clock.
	Seed   uint64
	Logger *zerolog.Logger
}

func (c Config) withDefaults() Config {
	if c.FEN == "" {
		c.FEN = board.StartFEN
	}
	if c.Seed == 0 {
		c.Seed = uint64(time.Now().UnixNano())
	}
	if c.Oracle == nil {
		if c.StateVector {
			c.Oracle = quantum.NewStateVector(c.Seed)
		} else {
			c.Oracle = quantum.NewSampler(c.Seed)
		}
	}
	if c.Logger == nil {
		nop := zerolog.Nop()
		c.Logger = &nop
	}
	return c
}

// Game is a single game. It is not safe for concurrent use.
type Game struct {
	ID uuid.UUID

	board  *board.Board
	splits *quantum.Manager
	rules  *rules.Engine
	log    zerolog.Logger

	state     State
	selected  board.Square
	targets   *board.MoveList
	splitMode bool
	editMode  bool

	pending    board.Square
	pendingRec board.Record
	pendingRes MoveResult

	outcome Outcome
}

// New starts a game from cfg.
func New(cfg Config) (*Game, error) {
	cfg = cfg.withDefaults()
	b, err := board.ParseFEN(cfg.FEN)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	log := cfg.Logger.With().Str("game", id.String()).Logger()
	m := quantum.NewManager(cfg.Oracle, quantum.WithLogger(log))
	g := &Game{
		ID:       id,
		board:    b,
		splits:   m,
		rules:    rules.NewEngine(b, m, rules.WithLogger(log)),
		log:      log,
		selected: board.NoSquare,
		pending:  board.NoSquare,
	}
	g.evaluate()
	log.Debug().Str("fen", b.FEN()).Msg("new game")
	return g, nil
}

// Select picks the piece on sq for the side to move and computes where it
// may go, as a split when split mode is on. Selecting anything else clears
// the selection.
func (g *Game) Select(sq board.Square) error {
	if err := g.ready(); err != nil {
		return err
	}
	p := g.board.PieceAt(sq)
	if p == board.NoPiece || p.Color() != g.board.SideToMove {
		g.clearSelection()
		return fmt.Errorf("%w: %s", ErrInvalidSelection, sq)
	}
	g.selected = sq
	g.targets = g.candidates(sq)
	g.state = SelectionMade
	return nil
}

// Deselect drops the current selection, if any.
func (g *Game) Deselect() {
	g.clearSelection()
}

// Move plays from→to for the side to move, as a split when split mode is
// on. Measurements forced by the move are folded before it takes effect;
// if the moving piece turns out to be absent the turn passes with nothing
// else changed.
func (g *Game) Move(from, to board.Square) (MoveResult, error) {
	if err := g.ready(); err != nil {
		return MoveResult{}, err
	}
	p := g.board.PieceAt(from)
	if p == board.NoPiece || p.Color() != g.board.SideToMove {
		g.clearSelection()
		return MoveResult{}, fmt.Errorf("%w: %s", ErrInvalidSelection, from)
	}

	m, ok := g.candidates(from).Find(from, to)
	if !ok {
		g.clearSelection()
		if g.splitMode {
			return MoveResult{}, fmt.Errorf("%w: %s%s", ErrIllegalSplit, from, to)
		}
		return MoveResult{}, fmt.Errorf("%w: %s%s", ErrIllegalMove, from, to)
	}
	g.clearSelection()

	if g.splitMode {
		return g.split(m, p), nil
	}
	return g.play(m, p)
}

func (g *Game) play(m board.Move, p board.Piece) (MoveResult, error) {
	us := p.Color()
	from, to := m.From(), m.To()
	res := MoveResult{Move: m, Piece: p, Captured: board.NoPiece}
	rec := board.Record{
		Ply:       len(g.board.History()) + 1,
		Color:     us,
		Move:      m,
		Piece:     p,
		Captured:  board.NoPiece,
		Promotion: board.NoPieceType,
	}

	resolve := func(sq board.Square) {
		if id, ok := g.splits.Resolve(g.board, sq); ok {
			res.Collapsed = append(res.Collapsed, id)
			g.rules.Invalidate()
		}
	}

	resolve(from)
	if g.board.PieceAt(from) != p {
		res.Vanished = true
		rec.Vanished = true
		g.log.Debug().Str("from", from.String()).Msg("piece was not there")
		return g.finish(res, rec), nil
	}

	resolve(to)
	if occ := g.board.PieceAt(to); occ != board.NoPiece && occ.Color() == us {
		return res, fmt.Errorf("%w: %s holds own %s", ErrIllegalMove, to, occ)
	}
	if m.IsEnPassant() {
		resolve(board.Square(int(to) - us.PawnDirection()))
	}

	u := g.board.Apply(m)
	if u.Captured != board.NoPiece {
		res.Captured = u.Captured
		rec.Captured = u.Captured
		g.board.AddCapture(us, u.Captured)
		g.log.Debug().
			Str("by", p.String()).
			Str("captured", u.Captured.String()).
			Str("on", u.CapturedSq.String()).
			Msg("capture")
	}
	g.rules.Invalidate()

	if u.Captured.Type() == board.King {
		rec.Collapsed = len(res.Collapsed)
		g.board.AppendHistory(rec)
		g.board.PassTurn()
		g.end(Outcome{Ending: KingCaptured, Winner: us})
		res.Over = true
		return res, nil
	}

	if m.IsPromotion() {
		return g.suspend(res, rec), nil
	}
	return g.finish(res, rec), nil
}

func (g *Game) split(m board.Move, p board.Piece) MoveResult {
	g.board.ApplySplit(m)
	ref := g.splits.CreateSplit(m.From(), m.To(), p)
	g.rules.Invalidate()
	g.splitMode = false

	g.log.Debug().
		Str("piece", p.String()).
		Str("move", m.String()).
		Int("subsystem", int(ref.Subsystem)).
		Msg("split move")

	res := MoveResult{Move: m, Piece: p, Captured: board.NoPiece, Split: true}
	rec := board.Record{
		Ply:       len(g.board.History()) + 1,
		Color:     p.Color(),
		Move:      m,
		Piece:     p,
		Captured:  board.NoPiece,
		Promotion: board.NoPieceType,
		Split:     true,
	}
	if m.IsPromotion() {
		return g.suspend(res, rec)
	}
	return g.finish(res, rec)
}

func (g *Game) suspend(res MoveResult, rec board.Record) MoveResult {
	g.state = PromotionPending
	g.pending = res.Move.To()
	res.PromotionPending = true
	g.pendingRes, g.pendingRec = res, rec
	return res
}

// ChoosePromotion completes a pending promotion with pt. A pawn standing
// on a live branch has the branch renamed, so whichever square turns out
// real later holds the promoted piece.
func (g *Game) ChoosePromotion(pt board.PieceType) (MoveResult, error) {
	if g.state != PromotionPending {
		return MoveResult{}, fmt.Errorf("%w: nothing to promote", ErrInvalidPromotion)
	}
	if !pt.IsPromotion() {
		return MoveResult{}, fmt.Errorf("%w: %s", ErrInvalidPromotion, pt)
	}

	res, rec := g.pendingRes, g.pendingRec
	res.PromotionPending = false
	piece := board.NewPiece(pt, rec.Color)
	g.board.SetPiece(g.pending, piece)
	g.splits.SetBranchPiece(g.pending, piece)
	g.rules.Invalidate()
	rec.Promotion = pt

	g.pending = board.NoSquare
	g.pendingRes, g.pendingRec = MoveResult{}, board.Record{}
	g.state = Idle
	return g.finish(res, rec), nil
}

// finish completes a half-move: the turn passes and the side to move is
// tested for check, mate and stalemate.
func (g *Game) finish(res MoveResult, rec board.Record) MoveResult {
	g.board.PassTurn()
	g.rules.Invalidate()

	v := g.evaluate()
	res.Collapsed = append(res.Collapsed, v.Check.Collapsed...)
	res.Check = v.Check.InCheck
	res.Over = g.Over()

	rec.Collapsed = len(res.Collapsed)
	g.board.AppendHistory(rec)
	g.state = Idle
	return res
}

// evaluate settles the side to move's check status and ends the game on
// mate or stalemate.
func (g *Game) evaluate() rules.Verdict {
	side := g.board.SideToMove
	v := g.rules.Evaluate(side)
	switch v.Status {
	case rules.Checkmate:
		g.end(Outcome{Ending: Checkmate, Winner: side.Other()})
	case rules.Stalemate:
		g.end(Outcome{Ending: Stalemate, Winner: board.NoColor})
	default:
		g.outcome = Outcome{Ending: NotOver, Winner: board.NoColor}
	}
	return v
}

func (g *Game) end(o Outcome) {
	g.outcome = o
	g.clearSelection()
	g.log.Info().
		Str("ending", o.Ending.String()).
		Str("winner", o.Winner.String()).
		Msg("game over")
}

// SetSplitMode arms or disarms split mode. The next completed move is then
// played as a split, after which the mode switches off.
func (g *Game) SetSplitMode(on bool) {
	g.splitMode = on
	if g.state == SelectionMade {
		g.targets = g.candidates(g.selected)
	}
}

// ToggleSplitMode flips split mode and returns the new setting.
func (g *Game) ToggleSplitMode() bool {
	g.SetSplitMode(!g.splitMode)
	return g.splitMode
}

// SplitMode reports whether the next move will be a split.
func (g *Game) SplitMode() bool {
	return g.splitMode
}

// SetEditMode switches direct board editing on or off. Leaving edit mode
// rechecks whether the position is finished.
func (g *Game) SetEditMode(on bool) error {
	if g.state == PromotionPending {
		return ErrPromotionPending
	}
	if on == g.editMode {
		return nil
	}
	g.editMode = on
	g.clearSelection()
	if !on {
		g.rules.Invalidate()
		g.evaluate()
	}
	return nil
}

// EditMode reports whether the board is being edited.
func (g *Game) EditMode() bool {
	return g.editMode
}

// Place writes p on sq, or clears sq when p is NoPiece. A live branch on
// sq is measured and folded first, so the square is classical afterwards.
func (g *Game) Place(sq board.Square, p board.Piece) error {
	if !g.editMode {
		return ErrNotEditMode
	}
	if !sq.IsValid() {
		return fmt.Errorf("%w: %d", board.ErrInvalidSquare, sq)
	}
	if _, ok := g.splits.Resolve(g.board, sq); ok {
		g.log.Debug().Str("square", sq.String()).Msg("edit collapsed a branch")
	}
	g.board.SetPiece(sq, p)
	g.board.EnPassant = board.NoSquare
	g.rules.Invalidate()
	return nil
}

func (g *Game) ready() error {
	switch {
	case g.editMode:
		return ErrEditMode
	case g.state == PromotionPending:
		return ErrPromotionPending
	case g.Over():
		return ErrGameOver
	}
	return nil
}

func (g *Game) candidates(sq board.Square) *board.MoveList {
	if g.splitMode {
		return g.rules.LegalSplitsFrom(sq)
	}
	return g.rules.LegalMovesFrom(sq)
}

func (g *Game) clearSelection() {
	g.selected = board.NoSquare
	g.targets = nil
	if g.state == SelectionMade {
		g.state = Idle
	}
}
