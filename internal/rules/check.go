// Package rules decides legality, check and game end for a board that may
// hold split pieces. Queries treat every live enemy branch as a possible
// attacker; only a check query that comes back positive forces the board
// to be measured.
package rules

import (
	"github.com/rs/zerolog"

	"github.com/hailam/qchess/internal/board"
	"github.com/hailam/qchess/internal/quantum"
)

// CheckResult is the answer of a check query. Collapsed lists the
// subsystems the query measured and folded to settle the answer; it is
// empty when the board was left alone.
type CheckResult struct {
	InCheck   bool
	Collapsed []quantum.SubsystemID
}

type cacheEntry struct {
	valid   bool
	inCheck bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for check-triggered collapses.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// Engine answers rule queries about one board and its split manager.
// Callers must Invalidate after every change to either.
type Engine struct {
	board  *board.Board
	splits *quantum.Manager
	cache  [2]cacheEntry
	log    zerolog.Logger
}

// NewEngine binds an engine to b and m.
func NewEngine(b *board.Board, m *quantum.Manager, opts ...Option) *Engine {
	e := &Engine{
		board:  b,
		splits: m,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Invalidate drops the cached check answers.
func (e *Engine) Invalidate() {
	e.cache = [2]cacheEntry{}
}

// CheckStatus reports whether c is in check. When the pessimistic answer is
// yes while split pieces are live, every subsystem is measured and folded
// and the question is asked again of the now classical board; the measured
// subsystems are reported in the result. Answers are cached per color until
// Invalidate.
func (e *Engine) CheckStatus(c board.Color) CheckResult {
	if e.cache[c].valid {
		return CheckResult{InCheck: e.cache[c].inCheck}
	}

	king := e.board.KingSquare(c)
	res := CheckResult{InCheck: king != board.NoSquare && e.IsSquareAttacked(king, c)}

	if res.InCheck && e.splits.HasLive() {
		res.Collapsed = e.splits.CollapseAll()
		e.splits.ApplyCollapse(e.board)
		e.Invalidate()
		king = e.board.KingSquare(c)
		res.InCheck = king != board.NoSquare && e.IsSquareAttacked(king, c)

		e.log.Debug().
			Str("color", c.String()).
			Int("collapsed", len(res.Collapsed)).
			Bool("in_check", res.InCheck).
			Msg("check forced collapse")
	}

	e.cache[c] = cacheEntry{valid: true, inCheck: res.InCheck}
	return res
}

// InCheck is CheckStatus without the details.
func (e *Engine) InCheck(c board.Color) bool {
	return e.CheckStatus(c).InCheck
}

// InCheckSimple gives the pessimistic answer without measuring anything and
// without touching the cache.
func (e *Engine) InCheckSimple(c board.Color) bool {
	king := e.board.KingSquare(c)
	return king != board.NoSquare && e.IsSquareAttacked(king, c)
}
