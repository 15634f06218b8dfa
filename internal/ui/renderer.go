package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/hailam/qchess/internal/board"
)

// Theme defines the color scheme for the board.
type Theme struct {
	LightSquare    color.RGBA
	DarkSquare     color.RGBA
	SelectedSquare color.RGBA
	LegalMoveColor color.RGBA
	SplitMoveColor color.RGBA
	LastMoveColor  color.RGBA
	CheckColor     color.RGBA
	LiveSquare     color.RGBA
	Background     color.RGBA
	TextColor      color.RGBA
}

// DefaultTheme returns the default color theme.
func DefaultTheme() *Theme {
	return &Theme{
		LightSquare:    color.RGBA{240, 217, 181, 255}, // Tan
		DarkSquare:     color.RGBA{181, 136, 99, 255},  // Brown
		SelectedSquare: color.RGBA{247, 247, 105, 180},
		LegalMoveColor: color.RGBA{130, 151, 105, 200},
		SplitMoveColor: color.RGBA{150, 110, 210, 210},
		LastMoveColor:  color.RGBA{180, 190, 100, 90},
		CheckColor:     color.RGBA{255, 100, 100, 180},
		LiveSquare:     color.RGBA{140, 90, 220, 70},
		Background:     color.RGBA{40, 44, 52, 255},
		TextColor:      color.RGBA{220, 220, 220, 255},
	}
}

// Live pieces are drawn translucent.
const liveAlpha = 0.55

// Renderer draws the board. Coordinates it takes and returns are logical;
// drawing multiplies them by the display scale.
type Renderer struct {
	sprites    *SpriteManager
	theme      *Theme
	boardSize  int
	squareSize int
	scale      float64
	flipped    bool
}

// NewRenderer creates a new renderer.
func NewRenderer(boardSize, squareSize int) *Renderer {
	return &Renderer{
		sprites:    NewSpriteManager(squareSize),
		theme:      DefaultTheme(),
		boardSize:  boardSize,
		squareSize: squareSize,
		scale:      1.0,
	}
}

// SetScale sets the HiDPI scale factor for rendering.
func (r *Renderer) SetScale(scale float64) {
	r.scale = scale
}

// SetFlipped puts Black at the bottom when flipped is true.
func (r *Renderer) SetFlipped(flipped bool) {
	r.flipped = flipped
}

// Flipped reports whether Black is at the bottom.
func (r *Renderer) Flipped() bool {
	return r.flipped
}

func (r *Renderer) s(v int) float32 {
	return float32(float64(v) * r.scale)
}

// DrawBoard draws the squares and their coordinates.
func (r *Renderer) DrawBoard(screen *ebiten.Image) {
	for sq := board.A1; sq <= board.H8; sq++ {
		c := r.theme.LightSquare
		if (sq.File()+sq.Rank())%2 == 0 {
			c = r.theme.DarkSquare
		}
		r.fillSquare(screen, sq, c)
	}
	r.drawCoordinates(screen)
}

// drawCoordinates labels the bottom rank with files and the left file with
// ranks, in the opposite square color.
func (r *Renderer) drawCoordinates(screen *ebiten.Image) {
	face := regularFace(11)
	for i := 0; i < 8; i++ {
		fileSq := r.ScreenToSquare(i*r.squareSize, r.boardSize-1)
		x, y := r.SquareToScreen(fileSq)
		drawText(screen, string(rune('a'+fileSq.File())), face,
			x+r.squareSize-10, y+r.squareSize-16, r.labelColor(fileSq))

		rankSq := r.ScreenToSquare(0, i*r.squareSize)
		x, y = r.SquareToScreen(rankSq)
		drawText(screen, string(rune('1'+rankSq.Rank())), face, x+3, y+2, r.labelColor(rankSq))
	}
}

func (r *Renderer) labelColor(sq board.Square) color.RGBA {
	if (sq.File()+sq.Rank())%2 == 0 {
		return r.theme.LightSquare
	}
	return r.theme.DarkSquare
}

// DrawLiveSquares tints every square holding an unmeasured branch.
func (r *Renderer) DrawLiveSquares(screen *ebiten.Image, squares []board.Square) {
	for _, sq := range squares {
		r.fillSquare(screen, sq, r.theme.LiveSquare)
	}
}

// DrawHighlights marks the last move, the selection and where the selected
// piece may go. Split targets get their own color.
func (r *Renderer) DrawHighlights(screen *ebiten.Image, selected board.Square, targets []board.Square, lastMove board.Move, split bool) {
	if lastMove != board.NoMove {
		r.fillSquare(screen, lastMove.From(), r.theme.LastMoveColor)
		r.fillSquare(screen, lastMove.To(), r.theme.LastMoveColor)
	}
	if selected != board.NoSquare {
		r.fillSquare(screen, selected, r.theme.SelectedSquare)
	}
	c := r.theme.LegalMoveColor
	if split {
		c = r.theme.SplitMoveColor
	}
	for _, sq := range targets {
		x, y := r.SquareToScreen(sq)
		cx := r.s(x) + r.s(r.squareSize)/2
		cy := r.s(y) + r.s(r.squareSize)/2
		vector.DrawFilledCircle(screen, cx, cy, r.s(r.squareSize)*0.15, c, false)
	}
}

// DrawCheck highlights the king's square.
func (r *Renderer) DrawCheck(screen *ebiten.Image, kingSq board.Square) {
	r.fillSquare(screen, kingSq, r.theme.CheckColor)
}

func (r *Renderer) fillSquare(screen *ebiten.Image, sq board.Square, c color.RGBA) {
	if sq == board.NoSquare {
		return
	}
	x, y := r.SquareToScreen(sq)
	vector.DrawFilledRect(screen, r.s(x), r.s(y), r.s(r.squareSize), r.s(r.squareSize), c, false)
}

// PieceSource is what the renderer needs to know about the position.
type PieceSource interface {
	PieceAt(sq board.Square) board.Piece
	IsSplit(sq board.Square) bool
}

// DrawPieces draws every piece except the one being dragged. Pieces on
// live squares are drawn translucent.
func (r *Renderer) DrawPieces(screen *ebiten.Image, pos PieceSource, dragSquare board.Square, anims *AnimationManager) {
	for sq := board.A1; sq <= board.H8; sq++ {
		if sq == dragSquare {
			continue
		}
		p := pos.PieceAt(sq)
		if p == board.NoPiece {
			continue
		}

		x, y := r.SquareToScreen(sq)
		dx, dy := 0.0, 0.0
		if anims != nil {
			dx, dy = anims.ShakeOffset(sq)
		}
		alpha := float32(1)
		if pos.IsSplit(sq) {
			alpha = liveAlpha
		}
		r.sprites.DrawPiece(screen, p,
			(float64(x)+dx)*r.scale, (float64(y)+dy)*r.scale,
			float64(r.squareSize)*r.scale, alpha)
	}
}

// DrawDraggedPiece draws p centered on the logical mouse position.
func (r *Renderer) DrawDraggedPiece(screen *ebiten.Image, p board.Piece, mouseX, mouseY int, alpha float32) {
	if p == board.NoPiece {
		return
	}
	half := r.squareSize / 2
	r.sprites.DrawPiece(screen, p,
		float64(mouseX-half)*r.scale, float64(mouseY-half)*r.scale,
		float64(r.squareSize)*r.scale, alpha)
}

// SquareToScreen converts a board square to the logical position of its
// top-left corner.
func (r *Renderer) SquareToScreen(sq board.Square) (int, int) {
	file, rank := sq.File(), sq.Rank()
	if r.flipped {
		return (7 - file) * r.squareSize, rank * r.squareSize
	}
	return file * r.squareSize, (7 - rank) * r.squareSize
}

// ScreenToSquare converts logical coordinates to a board square.
func (r *Renderer) ScreenToSquare(x, y int) board.Square {
	if x < 0 || x >= r.boardSize || y < 0 || y >= r.boardSize {
		return board.NoSquare
	}
	col, row := x/r.squareSize, y/r.squareSize
	if r.flipped {
		return board.NewSquare(7-col, row)
	}
	return board.NewSquare(col, 7-row)
}

// SquareSize returns the size of one square in logical pixels.
func (r *Renderer) SquareSize() int {
	return r.squareSize
}

// Theme returns the current theme.
func (r *Renderer) Theme() *Theme {
	return r.theme
}

// Sprites returns the sprite manager.
func (r *Renderer) Sprites() *SpriteManager {
	return r.sprites
}
