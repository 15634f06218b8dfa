package ui

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/hailam/qchess/internal/board"
	"github.com/hailam/qchess/internal/game"
	"github.com/hailam/qchess/internal/storage"
)

// Panel dimensions
const (
	PanelPadding    = 20
	SectionSpacing  = 16
	ButtonHeight    = 40
	TabHeight       = 34
	CollapsedWidth  = 20
	CollapseButtonW = 16
	CollapseButtonH = 48
	SectionLabelH   = 20
	PieceButtonSize = 36
	StatusBarHeight = 80
)

// Panel colors
var (
	panelBg         = color.RGBA{38, 40, 45, 255}
	sectionBg       = color.RGBA{48, 52, 58, 255}
	tabActiveBg     = color.RGBA{76, 132, 96, 255}
	tabInactiveBg   = color.RGBA{50, 54, 60, 255}
	tabHoverBg      = color.RGBA{65, 70, 78, 255}
	buttonPressedBg = color.RGBA{40, 44, 50, 255}
	buttonBorder    = color.RGBA{70, 75, 82, 255}
	accentColor     = color.RGBA{76, 175, 120, 255}
	accentHover     = color.RGBA{96, 195, 140, 255}
	accentPressed   = color.RGBA{56, 155, 100, 255}
	quantumColor    = color.RGBA{150, 110, 210, 255}
	textPrimary     = color.RGBA{240, 240, 245, 255}
	textSecondary   = color.RGBA{160, 165, 175, 255}
	textMuted       = color.RGBA{120, 125, 135, 255}
	dividerColor    = color.RGBA{60, 65, 72, 255}
	moveRowAlt      = color.RGBA{44, 48, 54, 255}
	statusGameOver  = color.RGBA{255, 200, 80, 255}
)

// Button represents a clickable UI element. Icon, when set, draws a piece
// instead of the label.
type Button struct {
	X, Y, W, H int
	Label      string
	Icon       func() board.Piece
	OnClick    func()
	Active     func() bool
	hovered    bool
	pressed    bool
}

func (b *Button) isActive() bool {
	return b.Active != nil && b.Active()
}

func (b *Button) contains(mx, my int) bool {
	return mx >= b.X && mx < b.X+b.W && my >= b.Y && my < b.Y+b.H
}

// Panel is the side panel: game controls, the promotion and edit
// palettes, captured pieces, move history and status.
type Panel struct {
	game      *Game
	collapsed bool
	printer   *message.Printer

	collapseBtn *Button
	newGameBtn  *Button
	toggles     []*Button // split, edit, flip, sound
	oracleTabs  []*Button
	promoBtns   []*Button
	paletteBtns []*Button

	// Move history scroll
	scrollY    int
	maxScrollY int
}

// NewPanel creates a new panel for the given game.
func NewPanel(g *Game) *Panel {
	p := &Panel{
		game:    g,
		printer: message.NewPrinter(language.English),
	}
	p.createButtons()
	return p
}

// Section origins, top to bottom.
const (
	newGameY   = PanelPadding + 8
	togglesY   = newGameY + ButtonHeight + 12
	oracleY    = togglesY + TabHeight + SectionSpacing + SectionLabelH
	contextY   = oracleY + TabHeight + SectionSpacing + SectionLabelH
	historyTop = contextY + 2*(PieceButtonSize+4) + SectionSpacing
)

func (p *Panel) createButtons() {
	tabY := (ScreenHeight - CollapseButtonH) / 2
	collapseX := BoardSize
	if p.collapsed {
		collapseX = BoardSize + 2
	}
	p.collapseBtn = &Button{
		X: collapseX, Y: tabY,
		W: CollapseButtonW, H: CollapseButtonH,
		OnClick: p.toggleCollapse,
	}

	contentX := BoardSize + PanelPadding
	contentW := PanelWidth - PanelPadding*2
	g := p.game

	p.newGameBtn = &Button{
		X: contentX, Y: newGameY,
		W: contentW, H: ButtonHeight,
		Label:   "New Game",
		OnClick: g.NewGameAction,
	}

	toggleW := contentW / 4
	p.toggles = []*Button{
		{Label: "Split", OnClick: g.ToggleSplitAction, Active: func() bool { return g.core.SplitMode() }},
		{Label: "Edit", OnClick: g.ToggleEditAction, Active: func() bool { return g.core.EditMode() }},
		{Label: "Flip", OnClick: g.ToggleFlipAction, Active: func() bool { return g.prefs.FlipBoard }},
		{Label: "Sound", OnClick: g.ToggleSoundAction, Active: func() bool { return g.prefs.SoundEnabled }},
	}
	for i, b := range p.toggles {
		b.X, b.Y, b.W, b.H = contentX+i*toggleW, togglesY, toggleW, TabHeight
	}

	tabW := contentW / 2
	p.oracleTabs = []*Button{
		{Label: "Sampler", OnClick: func() { g.SetOracleAction(storage.OracleSampler) },
			Active: func() bool { return g.prefs.Oracle == storage.OracleSampler }},
		{Label: "State vector", OnClick: func() { g.SetOracleAction(storage.OracleStateVector) },
			Active: func() bool { return g.prefs.Oracle == storage.OracleStateVector }},
	}
	for i, b := range p.oracleTabs {
		b.X, b.Y, b.W, b.H = contentX+i*tabW, oracleY, tabW, TabHeight
	}

	// Promotion choices take the mover's color, which only the game knows
	// when the choice is drawn.
	p.promoBtns = nil
	for i, pt := range board.PromotionTypes {
		pt := pt
		p.promoBtns = append(p.promoBtns, &Button{
			X: contentX + i*(PieceButtonSize*3/2+8), Y: contextY,
			W: PieceButtonSize * 3 / 2, H: PieceButtonSize * 3 / 2,
			Icon:    func() board.Piece { return board.NewPiece(pt, g.core.Turn()) },
			OnClick: func() { g.PromoteAction(pt) },
		})
	}

	p.paletteBtns = nil
	step := PieceButtonSize + 4
	for row, c := range []board.Color{board.White, board.Black} {
		for pt := board.Pawn; pt <= board.King; pt++ {
			piece := board.NewPiece(pt, c)
			p.paletteBtns = append(p.paletteBtns, &Button{
				X: contentX + int(pt)*step, Y: contextY + row*step,
				W: PieceButtonSize, H: PieceButtonSize,
				Icon:    func() board.Piece { return piece },
				OnClick: func() { g.SetBrush(piece) },
				Active:  func() bool { return g.brush == piece },
			})
		}
	}
	p.paletteBtns = append(p.paletteBtns, &Button{
		X: contentX + 6*step, Y: contextY,
		W: PieceButtonSize, H: PieceButtonSize,
		Label:   "x",
		OnClick: func() { g.SetBrush(board.NoPiece) },
		Active:  func() bool { return g.brush == board.NoPiece },
	})
}

// buttons lists the buttons currently on screen.
func (p *Panel) buttons() []*Button {
	if p.collapsed {
		return []*Button{p.collapseBtn}
	}
	bs := []*Button{p.collapseBtn, p.newGameBtn}
	bs = append(bs, p.toggles...)
	bs = append(bs, p.oracleTabs...)
	switch {
	case p.game.core.State() == game.PromotionPending:
		bs = append(bs, p.promoBtns...)
	case p.game.core.EditMode():
		bs = append(bs, p.paletteBtns...)
	}
	return bs
}

// HandleInput processes input for the panel. Returns true if input was handled.
func (p *Panel) HandleInput(input *InputHandler) bool {
	mx, my := input.MousePosition()

	if wheel := input.Wheel(); wheel != 0 && !p.collapsed && mx >= BoardSize && my >= historyTop {
		p.scrollY -= int(wheel * 30)
		p.scrollY = max(0, min(p.scrollY, p.maxScrollY))
	}

	for _, b := range p.buttons() {
		b.hovered = b.contains(mx, my)
		b.pressed = b.hovered && input.IsLeftPressed()
	}
	if !input.IsLeftJustPressed() {
		return false
	}
	for _, b := range p.buttons() {
		if b.hovered {
			b.OnClick()
			return true
		}
	}
	return false
}

// AnyButtonHovered returns true if any button in the panel is hovered.
func (p *Panel) AnyButtonHovered() bool {
	for _, b := range p.buttons() {
		if b.hovered {
			return true
		}
	}
	return false
}

// Draw renders the panel.
func (p *Panel) Draw(screen *ebiten.Image, r *Renderer) {
	if p.collapsed {
		fillRect(screen, BoardSize, 0, CollapsedWidth, ScreenHeight, panelBg)
		p.drawCollapseButton(screen, true)
		return
	}

	fillRect(screen, BoardSize, 0, PanelWidth, ScreenHeight, panelBg)
	p.drawCollapseButton(screen, false)
	p.drawPrimaryButton(screen, p.newGameBtn)

	for _, b := range p.toggles {
		p.drawTab(screen, b, b.Label == "Split")
	}

	x := BoardSize + PanelPadding
	p.drawSectionLabel(screen, "Measurement", x, oracleY-SectionLabelH)
	for _, b := range p.oracleTabs {
		p.drawTab(screen, b, false)
	}

	core := p.game.core
	switch {
	case core.State() == game.PromotionPending:
		p.drawSectionLabel(screen, "Promote to", x, contextY-SectionLabelH)
		for _, b := range p.promoBtns {
			p.drawPieceButton(screen, r, b)
		}
	case core.EditMode():
		p.drawSectionLabel(screen, "Place", x, contextY-SectionLabelH)
		for _, b := range p.paletteBtns {
			p.drawPieceButton(screen, r, b)
		}
	default:
		p.drawSectionLabel(screen, "Captured", x, contextY-SectionLabelH)
		p.drawCaptured(screen, r, board.White, contextY)
		p.drawCaptured(screen, r, board.Black, contextY+PieceButtonSize/2+8)
	}

	p.drawSectionLabel(screen, "Moves", x, historyTop)
	p.drawMoveHistory(screen, historyTop+SectionLabelH+4)
	p.drawStatusBar(screen)
}

func (p *Panel) drawCollapseButton(screen *ebiten.Image, expand bool) {
	btn := p.collapseBtn
	bg := panelBg
	if btn.hovered {
		bg = sectionBg
	}
	fillRect(screen, btn.X, btn.Y, btn.W, btn.H, bg)

	arrow := "‹"
	if expand {
		arrow = "›"
	}
	c := textMuted
	if btn.hovered {
		c = textPrimary
	}
	drawTextCentered(screen, arrow, regularFace(defaultFontSize), btn.X+btn.W/2, btn.Y+btn.H/2, c)
}

func (p *Panel) drawPrimaryButton(screen *ebiten.Image, btn *Button) {
	bg := accentColor
	if btn.pressed {
		bg = accentPressed
	} else if btn.hovered {
		bg = accentHover
	}
	fillRect(screen, btn.X, btn.Y, btn.W, btn.H, bg)

	border := color.RGBA{56, 155, 100, 255}
	if btn.hovered {
		border = color.RGBA{116, 215, 160, 255}
	}
	strokeRect(screen, btn.X, btn.Y, btn.W, btn.H, border)
	drawTextCentered(screen, btn.Label, boldFace(titleFontSize), btn.X+btn.W/2, btn.Y+btn.H/2, textPrimary)
}

// drawTab draws a toggle or tab button. quantum selects the split accent
// for the active state.
func (p *Panel) drawTab(screen *ebiten.Image, btn *Button, quantum bool) {
	active := btn.isActive()
	activeBg := tabActiveBg
	if quantum {
		activeBg = quantumColor
	}

	bg := tabInactiveBg
	switch {
	case active:
		bg = activeBg
	case btn.pressed:
		bg = buttonPressedBg
	case btn.hovered:
		bg = tabHoverBg
	}
	fillRect(screen, btn.X, btn.Y, btn.W, btn.H, bg)

	border := buttonBorder
	if active {
		border = activeBg
	} else if btn.hovered {
		border = accentColor
	}
	strokeRect(screen, btn.X, btn.Y, btn.W, btn.H, border)

	c := textSecondary
	if active {
		c = textPrimary
	}
	drawTextCentered(screen, btn.Label, regularFace(defaultFontSize), btn.X+btn.W/2, btn.Y+btn.H/2, c)
}

func (p *Panel) drawPieceButton(screen *ebiten.Image, r *Renderer, btn *Button) {
	bg := sectionBg
	switch {
	case btn.isActive():
		bg = tabActiveBg
	case btn.pressed:
		bg = buttonPressedBg
	case btn.hovered:
		bg = tabHoverBg
	}
	fillRect(screen, btn.X, btn.Y, btn.W, btn.H, bg)
	if btn.hovered {
		strokeRect(screen, btn.X, btn.Y, btn.W, btn.H, accentColor)
	}

	if btn.Icon == nil {
		drawTextCentered(screen, btn.Label, boldFace(titleFontSize), btn.X+btn.W/2, btn.Y+btn.H/2, textPrimary)
		return
	}
	r.Sprites().DrawPiece(screen, btn.Icon(),
		float64(btn.X)*UIScale, float64(btn.Y)*UIScale, float64(btn.W)*UIScale, 1)
}

func (p *Panel) drawSectionLabel(screen *ebiten.Image, label string, x, y int) {
	drawText(screen, label, regularFace(defaultFontSize), x, y, textMuted)
}

// drawCaptured draws the pieces taken by side in a row at y.
func (p *Panel) drawCaptured(screen *ebiten.Image, r *Renderer, by board.Color, y int) {
	x := BoardSize + PanelPadding
	taken := p.game.core.Captured(by)
	if len(taken) == 0 {
		drawText(screen, fmt.Sprintf("%s: none", by), regularFace(12), x, y+4, textMuted)
		return
	}
	size := PieceButtonSize / 2
	for i, piece := range taken {
		r.Sprites().DrawPiece(screen, piece,
			float64(x+i*(size-4))*UIScale, float64(y)*UIScale, float64(size)*UIScale, 1)
	}
}

func (p *Panel) drawMoveHistory(screen *ebiten.Image, startY int) {
	history := p.game.core.History()
	face := regularFace(defaultFontSize)
	x := BoardSize + PanelPadding
	if len(history) == 0 {
		drawText(screen, "No moves yet", face, x, startY+5, textMuted)
		return
	}

	const rowHeight = 22
	maxY := ScreenHeight - StatusBarHeight - 10
	visibleHeight := maxY - startY

	// A game set up with Black to move opens with a lone black move.
	offset := 0
	if history[0].Color == board.Black {
		offset = 1
	}
	totalRows := (len(history) + offset + 1) / 2
	contentHeight := totalRows * rowHeight
	p.maxScrollY = max(0, contentHeight-visibleHeight)
	p.scrollY = min(p.scrollY, p.maxScrollY)

	firstRow := p.scrollY / rowHeight
	y := startY - p.scrollY%rowHeight
	for row := firstRow; row < totalRows && y <= maxY; row++ {
		if row%2 == 1 && y >= startY {
			fillRect(screen, x-4, y-2, PanelWidth-PanelPadding*2+8, rowHeight, moveRowAlt)
		}
		if y >= startY {
			drawText(screen, fmt.Sprintf("%d.", row+1), face, x, y, textMuted)
			for col := 0; col < 2; col++ {
				i := row*2 + col - offset
				if i < 0 || i >= len(history) {
					continue
				}
				c := textPrimary
				if history[i].Split || history[i].Vanished || history[i].Collapsed > 0 {
					c = quantumColor
				}
				drawText(screen, history[i].String(), face, x+34+col*90, y, c)
			}
		}
		y += rowHeight
	}

	if p.maxScrollY > 0 {
		pct := float64(p.scrollY) / float64(p.maxScrollY)
		h := max(20, visibleHeight*visibleHeight/contentHeight)
		iy := startY + int(pct*float64(visibleHeight-h))
		fillRect(screen, BoardSize+PanelWidth-8, iy, 4, h, textMuted)
	}
}

func (p *Panel) drawStatusBar(screen *ebiten.Image) {
	statusY := ScreenHeight - StatusBarHeight
	x := BoardSize + PanelPadding
	face := regularFace(defaultFontSize)

	fillRect(screen, x, statusY-10, PanelWidth-PanelPadding*2, 1, dividerColor)

	username := p.game.prefs.Username
	if len(username) > 12 {
		username = username[:12] + "..."
	}
	drawText(screen, username, face, x, statusY, textPrimary)
	drawText(screen, p.game.prefs.Oracle.String(), face, x+150, statusY, quantumColor)

	summaryColor := textPrimary
	if p.game.core.Over() {
		summaryColor = statusGameOver
	}
	drawText(screen, p.game.core.Summary(), face, x, statusY+22, summaryColor)

	if st := p.game.stats; st != nil && st.GamesPlayed > 0 {
		line := p.printer.Sprintf("%d games, %d-%d-%d, %d splits",
			st.GamesPlayed, st.WhiteWins, st.BlackWins, st.Draws, st.Splits)
		drawText(screen, line, regularFace(12), x, statusY+44, textMuted)
	}
}

// Collapsed returns whether the panel is collapsed.
func (p *Panel) Collapsed() bool {
	return p.collapsed
}

// toggleCollapse toggles the panel collapsed state and resizes the window.
func (p *Panel) toggleCollapse() {
	p.collapsed = !p.collapsed
	p.createButtons()

	if p.collapsed {
		ebiten.SetWindowSize(BoardSize+CollapsedWidth, ScreenHeight)
	} else {
		ebiten.SetWindowSize(ScreenWidth, ScreenHeight)
	}
}

// fillRect and strokeRect take logical coordinates.
func fillRect(screen *ebiten.Image, x, y, w, h int, c color.Color) {
	s := float32(UIScale)
	vector.DrawFilledRect(screen, float32(x)*s, float32(y)*s, float32(w)*s, float32(h)*s, c, false)
}

func strokeRect(screen *ebiten.Image, x, y, w, h int, c color.Color) {
	s := float32(UIScale)
	vector.StrokeRect(screen, float32(x)*s, float32(y)*s, float32(w)*s, float32(h)*s, s, c, false)
}
