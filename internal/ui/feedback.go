package ui

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/hailam/qchess/internal/board"
	"github.com/hailam/qchess/internal/game"
)

// ToastType represents the type of toast notification.
type ToastType int

const (
	ToastInfo ToastType = iota
	ToastWarning
	ToastError
	ToastSuccess
	ToastQuantum
)

// Toast represents a notification message.
type Toast struct {
	Message   string
	Type      ToastType
	StartTime time.Time
	Duration  time.Duration
}

// ToastManager manages toast notifications.
type ToastManager struct {
	toasts   []*Toast
	maxStack int
}

// NewToastManager creates a new toast manager.
func NewToastManager() *ToastManager {
	return &ToastManager{maxStack: 3}
}

// Show displays a new toast notification.
func (tm *ToastManager) Show(message string, toastType ToastType, duration time.Duration) {
	tm.toasts = append(tm.toasts, &Toast{
		Message:   message,
		Type:      toastType,
		StartTime: time.Now(),
		Duration:  duration,
	})
	if len(tm.toasts) > tm.maxStack {
		tm.toasts = tm.toasts[1:]
	}
}

// Update removes expired toasts.
func (tm *ToastManager) Update() {
	now := time.Now()
	active := tm.toasts[:0]
	for _, t := range tm.toasts {
		if now.Sub(t.StartTime) < t.Duration {
			active = append(active, t)
		}
	}
	tm.toasts = active
}

func toastColors(tt ToastType, alpha float64) (bg, fg color.RGBA) {
	fg = color.RGBA{255, 255, 255, uint8(255 * alpha)}
	switch tt {
	case ToastWarning:
		return color.RGBA{180, 140, 20, uint8(220 * alpha)}, color.RGBA{40, 30, 0, uint8(255 * alpha)}
	case ToastError:
		return color.RGBA{180, 50, 50, uint8(220 * alpha)}, fg
	case ToastSuccess:
		return color.RGBA{50, 150, 50, uint8(220 * alpha)}, fg
	case ToastQuantum:
		return color.RGBA{110, 70, 180, uint8(220 * alpha)}, fg
	}
	return color.RGBA{50, 100, 150, uint8(220 * alpha)}, fg
}

// Draw renders the active toasts stacked over the top of the board.
func (tm *ToastManager) Draw(screen *ebiten.Image) {
	face := regularFace(defaultFontSize)
	y := 50.0
	for _, t := range tm.toasts {
		elapsed := time.Since(t.StartTime).Seconds()
		duration := t.Duration.Seconds()

		alpha := 1.0
		const fade = 0.2
		if elapsed < fade {
			alpha = elapsed / fade
		} else if elapsed > duration-fade {
			alpha = math.Max(0, (duration-elapsed)/fade)
		}
		bg, fg := toastColors(t.Type, alpha)

		w, h := MeasureText(t.Message, face)
		const padding = 12.0
		boxW, boxH := w+padding*2, h+padding*2
		x := float64(BoardSize)/2 - boxW/2

		s := float32(UIScale)
		vector.DrawFilledRect(screen, float32(x)*s, float32(y)*s, float32(boxW)*s, float32(boxH)*s, bg, false)
		drawText(screen, t.Message, face, int(x+padding), int(y+padding), fg)

		y += boxH + 8
	}
}

// ShakeAnimation represents a piece shake effect.
type ShakeAnimation struct {
	Square    board.Square
	StartTime time.Time
	Duration  time.Duration
	Intensity float64
}

// FlashAnimation represents a square flash effect.
type FlashAnimation struct {
	Square    board.Square
	StartTime time.Time
	Duration  time.Duration
	Color     color.RGBA
}

// AnimationManager manages visual animations.
type AnimationManager struct {
	shakes  []*ShakeAnimation
	flashes []*FlashAnimation
}

// NewAnimationManager creates a new animation manager.
func NewAnimationManager() *AnimationManager {
	return &AnimationManager{}
}

// StartShake begins a shake animation on a square.
func (am *AnimationManager) StartShake(sq board.Square) {
	am.shakes = append(am.shakes, &ShakeAnimation{
		Square:    sq,
		StartTime: time.Now(),
		Duration:  300 * time.Millisecond,
		Intensity: 8.0,
	})
}

// StartFlash begins a flash animation on a square.
func (am *AnimationManager) StartFlash(sq board.Square, c color.RGBA, d time.Duration) {
	am.flashes = append(am.flashes, &FlashAnimation{
		Square:    sq,
		StartTime: time.Now(),
		Duration:  d,
		Color:     c,
	})
}

// Update removes expired animations.
func (am *AnimationManager) Update() {
	now := time.Now()

	shakes := am.shakes[:0]
	for _, s := range am.shakes {
		if now.Sub(s.StartTime) < s.Duration {
			shakes = append(shakes, s)
		}
	}
	am.shakes = shakes

	flashes := am.flashes[:0]
	for _, f := range am.flashes {
		if now.Sub(f.StartTime) < f.Duration {
			flashes = append(flashes, f)
		}
	}
	am.flashes = flashes
}

// ShakeOffset returns the current logical shake offset for a square.
func (am *AnimationManager) ShakeOffset(sq board.Square) (float64, float64) {
	for _, s := range am.shakes {
		if s.Square != sq {
			continue
		}
		progress := time.Since(s.StartTime).Seconds() / s.Duration.Seconds()
		if progress >= 1.0 {
			return 0, 0
		}
		// Damped sine.
		amplitude := s.Intensity * math.Exp(-5*progress)
		return amplitude * math.Sin(40*progress), 0
	}
	return 0, 0
}

// DrawFlashes renders all active flash overlays.
func (am *AnimationManager) DrawFlashes(screen *ebiten.Image, r *Renderer) {
	for _, f := range am.flashes {
		progress := time.Since(f.StartTime).Seconds() / f.Duration.Seconds()
		if progress >= 1.0 {
			continue
		}
		alpha := 1.0 - progress
		c := color.RGBA{f.Color.R, f.Color.G, f.Color.B, uint8(float64(f.Color.A) * alpha)}
		r.fillSquare(screen, f.Square, c)
	}
}

var (
	flashInvalid  = color.RGBA{255, 80, 80, 150}
	flashCollapse = color.RGBA{190, 140, 255, 170}
)

// FeedbackManager turns game events into toasts, animations and sounds.
type FeedbackManager struct {
	toasts     *ToastManager
	animations *AnimationManager
	audio      *AudioManager
}

// NewFeedbackManager creates a new feedback manager.
func NewFeedbackManager() *FeedbackManager {
	return &FeedbackManager{
		toasts:     NewToastManager(),
		animations: NewAnimationManager(),
		audio:      NewAudioManager(),
	}
}

// Update updates all feedback systems.
func (fm *FeedbackManager) Update() {
	fm.toasts.Update()
	fm.animations.Update()
}

// Draw renders all feedback overlays.
func (fm *FeedbackManager) Draw(screen *ebiten.Image, r *Renderer) {
	fm.animations.DrawFlashes(screen, r)
	fm.toasts.Draw(screen)
}

// Animations returns the animation manager for renderer integration.
func (fm *FeedbackManager) Animations() *AnimationManager {
	return fm.animations
}

// Audio returns the audio manager.
func (fm *FeedbackManager) Audio() *AudioManager {
	return fm.audio
}

// Notify shows a plain message.
func (fm *FeedbackManager) Notify(msg string) {
	fm.toasts.Show(msg, ToastInfo, 3*time.Second)
}

// rejection describes why the game refused a move.
func rejection(err error) string {
	switch {
	case errors.Is(err, game.ErrIllegalSplit):
		return "That piece can't split there"
	case errors.Is(err, game.ErrIllegalMove):
		return "Illegal move"
	case errors.Is(err, game.ErrInvalidSelection):
		return "Not your piece"
	case errors.Is(err, game.ErrPromotionPending):
		return "Choose a promotion first"
	case errors.Is(err, game.ErrGameOver):
		return "The game is over"
	}
	return err.Error()
}

// OnInvalidMove reports a rejected move. Measurements made before the
// rejection still stand, so they are reported too.
func (fm *FeedbackManager) OnInvalidMove(from, to board.Square, err error, collapsed int) {
	fm.toasts.Show(rejection(err), ToastWarning, 2*time.Second)
	fm.animations.StartShake(from)
	fm.animations.StartFlash(to, flashInvalid, 400*time.Millisecond)
	if collapsed > 0 {
		fm.onCollapse(to, collapsed)
		return
	}
	fm.audio.Play(SoundInvalid)
}

// OnMove reports a completed or suspended move.
func (fm *FeedbackManager) OnMove(res game.MoveResult) {
	switch {
	case res.Vanished:
		fm.toasts.Show(fmt.Sprintf("The %s was not on %s", res.Piece.Type(), res.Move.From()), ToastQuantum, 3*time.Second)
		fm.animations.StartFlash(res.Move.From(), flashCollapse, 700*time.Millisecond)
		fm.audio.Play(SoundCollapse)
	case len(res.Collapsed) > 0:
		fm.onCollapse(res.Move.To(), len(res.Collapsed))
	case res.Split:
		fm.audio.Play(SoundSplit)
	case res.Captured != board.NoPiece:
		fm.audio.Play(SoundCapture)
	case res.Move.IsCastling():
		fm.audio.Play(SoundCastle)
	default:
		fm.audio.Play(SoundMove)
	}

	if res.PromotionPending {
		fm.toasts.Show("Choose a piece to promote to", ToastInfo, 3*time.Second)
	}
	if res.Check && !res.Over {
		fm.toasts.Show("Check!", ToastWarning, 2*time.Second)
		fm.audio.Play(SoundCheck)
	}
}

func (fm *FeedbackManager) onCollapse(sq board.Square, n int) {
	msg := "A split piece was measured"
	if n > 1 {
		msg = fmt.Sprintf("%d split pieces were measured", n)
	}
	fm.toasts.Show(msg, ToastQuantum, 2500*time.Millisecond)
	fm.animations.StartFlash(sq, flashCollapse, 700*time.Millisecond)
	fm.audio.Play(SoundCollapse)
}

// OnGameOver announces the result.
func (fm *FeedbackManager) OnGameOver(o game.Outcome) {
	tt := ToastSuccess
	if o.Winner == board.NoColor {
		tt = ToastInfo
	}
	fm.toasts.Show(o.String(), tt, 5*time.Second)
	fm.audio.Play(SoundGameEnd)
}
