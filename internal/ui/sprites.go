// Package ui is the desktop front end: an Ebitengine window with the board
// on the left and a control panel on the right.
package ui

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/hailam/qchess/internal/board"
)

//go:embed assets/pieces/*.svg
var pieceAssets embed.FS

// SpriteManager rasterizes the piece set once and draws it at any size.
type SpriteManager struct {
	pieces map[board.Piece]*ebiten.Image
	// Pieces are rendered above display size so scaling down stays sharp.
	renderSize int
}

// NewSpriteManager rasterizes every piece for a display size of size
// pixels.
func NewSpriteManager(size int) *SpriteManager {
	sm := &SpriteManager{
		pieces:     make(map[board.Piece]*ebiten.Image),
		renderSize: size * 3,
	}
	for _, c := range []board.Color{board.White, board.Black} {
		for pt := board.Pawn; pt <= board.King; pt++ {
			p := board.NewPiece(pt, c)
			img, err := sm.rasterize(piecePath(p))
			if err != nil {
				log.Printf("Failed to load piece %s: %v", p, err)
				continue
			}
			sm.pieces[p] = img
		}
	}
	return sm
}

// piecePath maps a piece to its asset, e.g. assets/pieces/wN.svg.
func piecePath(p board.Piece) string {
	side := "w"
	if p.Color() == board.Black {
		side = "b"
	}
	return fmt.Sprintf("assets/pieces/%s%c.svg", side, p.Type().Char()-'a'+'A')
}

func (sm *SpriteManager) rasterize(path string) (*ebiten.Image, error) {
	data, err := pieceAssets.ReadFile(path)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	n := sm.renderSize
	icon.SetTarget(0, 0, float64(n), float64(n))
	rgba := image.NewRGBA(image.Rect(0, 0, n, n))
	scanner := rasterx.NewScannerGV(n, n, rgba, rgba.Bounds())
	icon.Draw(rasterx.NewDasher(n, n, scanner), 1.0)
	return ebiten.NewImageFromImage(rgba), nil
}

// DrawPiece draws p into the size×size box at (x, y) in screen pixels.
// alpha below 1 draws a translucent piece.
func (sm *SpriteManager) DrawPiece(screen *ebiten.Image, p board.Piece, x, y, size float64, alpha float32) {
	sprite := sm.pieces[p]
	if sprite == nil {
		return
	}
	op := &ebiten.DrawImageOptions{}
	scale := size / float64(sm.renderSize)
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleAlpha(alpha)
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(sprite, op)
}
