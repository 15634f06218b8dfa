package game

import "errors"

// Rejections returned by Game. Apart from collapses that were already
// folded, a rejected call leaves the game as it was.
var (
	ErrInvalidSelection = errors.New("invalid selection")
	ErrIllegalMove      = errors.New("illegal move")
	ErrIllegalSplit     = errors.New("illegal split")
	ErrInvalidPromotion = errors.New("invalid promotion")
	ErrPromotionPending = errors.New("promotion pending")
	ErrGameOver         = errors.New("game over")
	ErrEditMode         = errors.New("board is in edit mode")
	ErrNotEditMode      = errors.New("board is not in edit mode")
)
