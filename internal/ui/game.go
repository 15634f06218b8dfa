package ui

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog"

	"github.com/hailam/qchess/internal/board"
	"github.com/hailam/qchess/internal/game"
	"github.com/hailam/qchess/internal/storage"
)

// UI Constants
const (
	ScreenWidth  = 960
	ScreenHeight = 640
	BoardSize    = 640
	SquareSize   = BoardSize / 8
	PanelWidth   = ScreenWidth - BoardSize
)

// UIScale is the global HiDPI scale factor for all UI drawing.
// Set by Game.Layout() and used by the panel and text helpers.
var UIScale = 1.0

// Game implements ebiten.Game for a two-player game on one screen.
type Game struct {
	core     *game.Game
	seed     uint64
	started  time.Time
	recorded bool
	log      zerolog.Logger

	// UI state
	lastMove   board.Move
	dragging   bool
	dragPiece  board.Piece
	dragSquare board.Square
	brush      board.Piece // what a click places in edit mode

	// Storage
	storage *storage.Storage
	prefs   *storage.UserPreferences
	stats   *storage.GameStats

	// Components
	renderer *Renderer
	input    *InputHandler
	panel    *Panel
	feedback *FeedbackManager

	// HiDPI scaling
	scale float64
}

// NewGame opens storage, loads preferences and starts a game. A seed of
// zero measures from the clock.
func NewGame(seed uint64, log zerolog.Logger) *Game {
	g := &Game{
		seed:       seed,
		log:        log,
		dragSquare: board.NoSquare,
		brush:      board.WhitePawn,
		renderer:   NewRenderer(BoardSize, SquareSize),
		input:      NewInputHandler(),
		feedback:   NewFeedbackManager(),
		scale:      1.0,
	}

	var err error
	g.storage, err = storage.NewStorage()
	if err != nil {
		log.Warn().Err(err).Msg("storage unavailable, nothing will be saved")
	}
	g.loadPreferences()
	g.startGame()
	g.panel = NewPanel(g)
	g.checkFirstLaunch()
	return g
}

func (g *Game) loadPreferences() {
	g.prefs = storage.DefaultPreferences()
	g.stats = storage.NewGameStats()
	if g.storage == nil {
		return
	}

	prefs, err := g.storage.LoadPreferences()
	if err != nil {
		g.log.Warn().Err(err).Msg("load preferences")
	} else {
		g.prefs = prefs
	}
	if stats, err := g.storage.LoadStats(); err != nil {
		g.log.Warn().Err(err).Msg("load stats")
	} else {
		g.stats = stats
	}
	g.feedback.Audio().SetEnabled(g.prefs.SoundEnabled)
}

func (g *Game) savePreferences() {
	if g.storage == nil {
		return
	}
	if err := g.storage.SavePreferences(g.prefs); err != nil {
		g.log.Warn().Err(err).Msg("save preferences")
	}
}

// checkFirstLaunch greets a new player with the controls once.
func (g *Game) checkFirstLaunch() {
	if g.storage == nil {
		return
	}
	first, err := g.storage.IsFirstLaunch()
	if err != nil {
		g.log.Warn().Err(err).Msg("check first launch")
		return
	}
	if !first {
		return
	}
	g.feedback.Notify("S splits a piece, E edits the board, F flips")
	if err := g.storage.MarkFirstLaunchComplete(); err != nil {
		g.log.Warn().Err(err).Msg("mark first launch")
	}
}

func (g *Game) startGame() {
	core, err := game.New(game.Config{
		Seed:        g.seed,
		StateVector: g.prefs.Oracle == storage.OracleStateVector,
		Logger:      &g.log,
	})
	if err != nil {
		// The start position always parses.
		panic(err)
	}
	g.core = core
	g.started = time.Now()
	g.recorded = false
	g.lastMove = board.NoMove
	g.stopDrag()
	g.orient()
}

// orient turns the board toward the side to move when flipping is on.
func (g *Game) orient() {
	g.renderer.SetFlipped(g.prefs.FlipBoard && g.core.Turn() == board.Black)
}

// Update handles game logic updates.
func (g *Game) Update() error {
	g.input.Update()
	g.feedback.Update()

	g.handleKeys()
	if !g.panel.HandleInput(g.input) {
		g.handleBoardInput()
	}
	g.updateCursor()
	return nil
}

func (g *Game) handleKeys() {
	switch {
	case IsKeyJustPressed(ebiten.KeyN):
		g.NewGameAction()
	case IsKeyJustPressed(ebiten.KeyS):
		g.ToggleSplitAction()
	case IsKeyJustPressed(ebiten.KeyE):
		g.ToggleEditAction()
	case IsKeyJustPressed(ebiten.KeyF):
		g.ToggleFlipAction()
	case IsKeyJustPressed(ebiten.KeyEscape):
		g.core.Deselect()
		g.stopDrag()
	}
	if g.core.State() != game.PromotionPending {
		return
	}
	for key, pt := range map[ebiten.Key]board.PieceType{
		ebiten.KeyQ: board.Queen,
		ebiten.KeyR: board.Rook,
		ebiten.KeyB: board.Bishop,
		ebiten.KeyK: board.Knight,
	} {
		if IsKeyJustPressed(key) {
			g.PromoteAction(pt)
			return
		}
	}
}

func (g *Game) updateCursor() {
	if g.panel.AnyButtonHovered() {
		ebiten.SetCursorShape(ebiten.CursorShapePointer)
	} else {
		ebiten.SetCursorShape(ebiten.CursorShapeDefault)
	}
}

// Draw renders the game.
func (g *Game) Draw(screen *ebiten.Image) {
	g.renderer.SetScale(g.scale)
	screen.Fill(g.renderer.Theme().Background)

	g.renderer.DrawBoard(screen)
	if g.prefs.ShowSplitHighlight {
		g.renderer.DrawLiveSquares(screen, g.core.SplitSquares())
	}
	if !g.core.Over() && g.core.InCheck() {
		g.renderer.DrawCheck(screen, g.core.KingSquare(g.core.Turn()))
	}
	g.renderer.DrawHighlights(screen, g.core.Selected(), g.core.Targets(), g.lastMove, g.core.SplitMode())

	hidden := board.NoSquare
	if g.dragging {
		hidden = g.dragSquare
	}
	g.renderer.DrawPieces(screen, g.core, hidden, g.feedback.Animations())
	if g.dragging {
		mx, my := g.input.MousePosition()
		alpha := float32(1)
		if g.core.IsSplit(g.dragSquare) {
			alpha = liveAlpha
		}
		g.renderer.DrawDraggedPiece(screen, g.dragPiece, mx, my, alpha)
	}

	g.feedback.Draw(screen, g.renderer)
	g.panel.Draw(screen, g.renderer)
}

// Layout returns the game's screen dimensions in device pixels. Width
// follows the panel's collapsed state.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.scale = ebiten.Monitor().DeviceScaleFactor()
	if g.scale < 1.0 {
		g.scale = 1.0
	}
	UIScale = g.scale

	w := ScreenWidth
	if g.panel != nil && g.panel.Collapsed() {
		w = BoardSize + CollapsedWidth
	}
	return int(float64(w) * g.scale), int(float64(ScreenHeight) * g.scale)
}

func (g *Game) handleBoardInput() {
	mx, my := g.input.MousePosition()
	sq := g.renderer.ScreenToSquare(mx, my)

	if g.core.EditMode() {
		switch {
		case sq == board.NoSquare:
		case g.input.IsLeftJustPressed():
			g.place(sq, g.brush)
		case g.input.IsRightJustPressed():
			g.place(sq, board.NoPiece)
		}
		return
	}
	if g.core.Over() || g.core.State() == game.PromotionPending {
		return
	}

	if g.input.IsLeftJustPressed() && sq != board.NoSquare {
		p := g.core.PieceAt(sq)
		switch {
		case p != board.NoPiece && p.Color() == g.core.Turn():
			if err := g.core.Select(sq); err == nil {
				g.dragging = true
				g.dragPiece = p
				g.dragSquare = sq
			}
		case g.core.Selected() != board.NoSquare:
			g.tryMove(g.core.Selected(), sq)
		}
		return
	}

	if g.dragging && g.input.IsLeftJustReleased() {
		from := g.dragSquare
		g.stopDrag()
		// Releasing on the origin leaves the piece selected for a
		// click-click move.
		if sq != board.NoSquare && sq != from {
			g.tryMove(from, sq)
		}
	}
}

func (g *Game) stopDrag() {
	g.dragging = false
	g.dragPiece = board.NoPiece
	g.dragSquare = board.NoSquare
}

func (g *Game) tryMove(from, to board.Square) {
	res, err := g.core.Move(from, to)
	if err != nil {
		g.feedback.OnInvalidMove(from, to, err, len(res.Collapsed))
		return
	}
	g.afterMove(res)
}

func (g *Game) afterMove(res game.MoveResult) {
	g.lastMove = res.Move
	g.feedback.OnMove(res)
	if res.PromotionPending {
		return
	}
	if res.Over {
		g.feedback.OnGameOver(g.core.Outcome())
		g.record()
		return
	}
	g.orient()
}

func (g *Game) place(sq board.Square, p board.Piece) {
	if err := g.core.Place(sq, p); err != nil {
		g.feedback.Notify(err.Error())
	}
}

// record stores a finished game once and refreshes the totals.
func (g *Game) record() {
	if g.recorded || g.storage == nil {
		return
	}
	g.recorded = true
	if err := g.storage.RecordGame(storage.NewGameResult(g.core, time.Since(g.started))); err != nil {
		g.log.Warn().Err(err).Msg("record game")
		return
	}
	if stats, err := g.storage.LoadStats(); err == nil {
		g.stats = stats
	}
}

// NewGameAction abandons the current game and starts over.
func (g *Game) NewGameAction() {
	g.startGame()
}

// ToggleSplitAction arms or disarms split mode.
func (g *Game) ToggleSplitAction() {
	if g.core.EditMode() || g.core.Over() {
		return
	}
	g.core.ToggleSplitMode()
}

// ToggleEditAction enters or leaves board editing.
func (g *Game) ToggleEditAction() {
	leaving := g.core.EditMode()
	if err := g.core.SetEditMode(!leaving); err != nil {
		g.feedback.Notify(rejection(err))
		return
	}
	g.stopDrag()
	if leaving {
		g.lastMove = board.NoMove
		g.orient()
		if g.core.Over() {
			g.feedback.OnGameOver(g.core.Outcome())
		}
	}
}

// ToggleFlipAction switches automatic board flipping.
func (g *Game) ToggleFlipAction() {
	g.prefs.FlipBoard = !g.prefs.FlipBoard
	g.orient()
	g.savePreferences()
}

// ToggleSoundAction mutes or unmutes sound effects.
func (g *Game) ToggleSoundAction() {
	g.prefs.SoundEnabled = !g.prefs.SoundEnabled
	g.feedback.Audio().SetEnabled(g.prefs.SoundEnabled)
	g.savePreferences()
}

// SetOracleAction picks how the next game measures split pieces.
func (g *Game) SetOracleAction(mode storage.OracleMode) {
	if g.prefs.Oracle == mode {
		return
	}
	g.prefs.Oracle = mode
	g.savePreferences()
	g.feedback.Notify("Applies from the next game")
}

// PromoteAction completes a pending promotion.
func (g *Game) PromoteAction(pt board.PieceType) {
	res, err := g.core.ChoosePromotion(pt)
	if err != nil {
		g.feedback.Notify(err.Error())
		return
	}
	g.afterMove(res)
}

// SetBrush picks the piece edit mode places; NoPiece erases.
func (g *Game) SetBrush(p board.Piece) {
	g.brush = p
}

// Close cleans up game resources.
func (g *Game) Close() {
	if g.storage != nil {
		g.storage.Close()
	}
}
