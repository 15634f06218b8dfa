// Package protocol drives a game over a line-oriented text protocol, one
// command per line. Every reply is one or more lines; a rejected command
// answers with a single line starting with "error".
package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/hailam/qchess/internal/board"
	"github.com/hailam/qchess/internal/game"
	"github.com/hailam/qchess/internal/storage"
)

// Config configures a Session.
type Config struct {
	In  io.Reader
	Out io.Writer
	// Game is the template for every game the session starts. Its FEN is
	// replaced by the argument of "new".
	Game game.Config
	// Storage receives finished games. It may be nil.
	Storage *storage.Storage
	Logger  *zerolog.Logger
}

// Session is one protocol conversation.
type Session struct {
	cfg     Config
	out     *bufio.Writer
	log     zerolog.Logger
	printer *message.Printer

	game     *game.Game
	started  time.Time
	recorded bool
}

// New creates a session with a game in the standard start position.
func New(cfg Config) (*Session, error) {
	if cfg.Logger == nil {
		nop := zerolog.Nop()
		cfg.Logger = &nop
	}
	s := &Session{
		cfg:     cfg,
		out:     bufio.NewWriter(cfg.Out),
		log:     *cfg.Logger,
		printer: message.NewPrinter(language.English),
	}
	if err := s.newGame(cfg.Game.FEN); err != nil {
		return nil, err
	}
	return s, nil
}

// Game returns the game in progress.
func (s *Session) Game() *game.Game {
	return s.game
}

// Run reads commands until "quit" or end of input.
func (s *Session) Run() error {
	scanner := bufio.NewScanner(s.cfg.In)
	defer s.out.Flush()

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Fields(line)
		cmd, args := parts[0], parts[1:]
		s.log.Debug().Str("cmd", cmd).Strs("args", args).Msg("command")

		if cmd == "quit" {
			return nil
		}
		if err := s.dispatch(cmd, args); err != nil {
			s.println("error", err.Error())
		}
		s.record()
		if err := s.out.Flush(); err != nil {
			return err
		}
	}
	return scanner.Err()
}

var errUsage = errors.New("usage")

func (s *Session) dispatch(cmd string, args []string) error {
	switch cmd {
	case "new":
		if err := s.newGame(strings.Join(args, " ")); err != nil {
			return err
		}
		s.println("ok", s.game.ID.String())
	case "move":
		return s.handleMove(args, false)
	case "split":
		return s.handleMove(args, true)
	case "promote":
		return s.handlePromote(args)
	case "select":
		return s.handleSelect(args)
	case "moves":
		return s.handleMoves(args)
	case "edit":
		return s.handleEdit(args)
	case "place":
		return s.handlePlace(args)
	case "d":
		s.drawBoard()
	case "fen":
		s.println(s.game.FEN())
	case "status":
		s.println(s.game.Summary())
	case "splits":
		s.println("splits", joinSquares(s.game.SplitSquares()))
	case "stats":
		s.printStats()
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func (s *Session) newGame(fen string) error {
	cfg := s.cfg.Game
	cfg.FEN = fen
	if cfg.Logger == nil {
		cfg.Logger = s.cfg.Logger
	}
	g, err := game.New(cfg)
	if err != nil {
		return err
	}
	s.game = g
	s.started = time.Now()
	s.recorded = false
	return nil
}

func (s *Session) handleMove(args []string, split bool) error {
	if len(args) != 1 || len(args[0]) < 4 || len(args[0]) > 5 {
		verb := "move"
		if split {
			verb = "split"
		}
		return fmt.Errorf("%w: %s <from><to>[q|r|b|n]", errUsage, verb)
	}
	from, err := board.ParseSquare(args[0][0:2])
	if err != nil {
		return err
	}
	to, err := board.ParseSquare(args[0][2:4])
	if err != nil {
		return err
	}

	s.game.SetSplitMode(split)
	res, err := s.game.Move(from, to)
	if split {
		s.game.SetSplitMode(false)
	}
	if err != nil {
		s.reportCollapses(res)
		return err
	}

	if res.PromotionPending && len(args[0]) == 5 {
		pt := board.PieceTypeFromChar(args[0][4])
		res2, err := s.game.ChoosePromotion(pt)
		if err != nil {
			s.println("promote?", res.Move.To().String())
			return err
		}
		res = res2
	}
	s.reportMove(res)
	return nil
}

func (s *Session) handlePromote(args []string) error {
	if len(args) != 1 || len(args[0]) != 1 {
		return fmt.Errorf("%w: promote q|r|b|n", errUsage)
	}
	res, err := s.game.ChoosePromotion(board.PieceTypeFromChar(args[0][0]))
	if err != nil {
		return err
	}
	s.reportMove(res)
	return nil
}

func (s *Session) handleSelect(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: select <square>", errUsage)
	}
	sq, err := board.ParseSquare(args[0])
	if err != nil {
		return err
	}
	if err := s.game.Select(sq); err != nil {
		return err
	}
	s.println("targets", joinSquares(s.game.Targets()))
	return nil
}

func (s *Session) handleMoves(args []string) error {
	sq := board.NoSquare
	if len(args) == 1 {
		var err error
		if sq, err = board.ParseSquare(args[0]); err != nil {
			return err
		}
	}
	moves := s.game.LegalMoves(sq)
	strs := make([]string, len(moves))
	for i, m := range moves {
		strs[i] = m.String()
	}
	s.println("moves", strings.Join(strs, " "))
	return nil
}

func (s *Session) handleEdit(args []string) error {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		return fmt.Errorf("%w: edit on|off", errUsage)
	}
	if err := s.game.SetEditMode(args[0] == "on"); err != nil {
		return err
	}
	s.println("ok", s.game.Summary())
	return nil
}

func (s *Session) handlePlace(args []string) error {
	if len(args) != 2 || len(args[1]) != 1 {
		return fmt.Errorf("%w: place <square> <piece|->", errUsage)
	}
	sq, err := board.ParseSquare(args[0])
	if err != nil {
		return err
	}
	p := board.NoPiece
	if args[1] != "-" {
		if p = board.PieceFromChar(args[1][0]); p == board.NoPiece {
			return fmt.Errorf("%w: unknown piece %q", errUsage, args[1])
		}
	}
	if err := s.game.Place(sq, p); err != nil {
		return err
	}
	s.println("ok")
	return nil
}

// reportMove prints the outcome of a completed or suspended move.
func (s *Session) reportMove(res game.MoveResult) {
	fields := []string{"ok", res.Move.String()}
	if res.Split {
		fields = append(fields, "split")
	}
	if res.Vanished {
		fields = append(fields, "vanished")
	}
	if res.Captured != board.NoPiece {
		fields = append(fields, "capture", res.Captured.String())
	}
	if len(res.Collapsed) > 0 {
		fields = append(fields, "collapsed", fmt.Sprint(len(res.Collapsed)))
	}
	if res.Check {
		fields = append(fields, "check")
	}
	s.println(fields...)

	if res.PromotionPending {
		s.println("promote?", res.Move.To().String())
	}
	if res.Over {
		s.println("result", s.game.Outcome().String())
	}
}

// reportCollapses mentions measurements that stuck even though the move
// was rejected.
func (s *Session) reportCollapses(res game.MoveResult) {
	if len(res.Collapsed) > 0 {
		s.println("info", "collapsed", fmt.Sprint(len(res.Collapsed)))
	}
}

func (s *Session) printStats() {
	st := s.game.Stats()
	s.println(s.printer.Sprintf("game %s plies %d splits %d collapses %d live %d",
		s.game.ID, len(s.game.History()), st.Splits, st.Collapses, st.Live))

	if s.cfg.Storage == nil {
		return
	}
	total, err := s.cfg.Storage.LoadStats()
	if err != nil {
		s.log.Warn().Err(err).Msg("load stats")
		return
	}
	s.println(s.printer.Sprintf("total games %d white %d black %d draws %d splits %d collapses %d",
		total.GamesPlayed, total.WhiteWins, total.BlackWins, total.Draws, total.Splits, total.Collapses))
}

// record stores a finished game once.
func (s *Session) record() {
	if s.recorded || !s.game.Over() || s.cfg.Storage == nil {
		return
	}
	s.recorded = true
	if err := s.cfg.Storage.RecordGame(storage.NewGameResult(s.game, time.Since(s.started))); err != nil {
		s.log.Warn().Err(err).Msg("record game")
	}
}

// drawBoard prints the board from White's side. Live squares are shown in
// magenta.
func (s *Session) drawBoard() {
	live := color.New(color.FgMagenta, color.Bold)
	white := color.New(color.FgHiWhite, color.Bold)
	black := color.New(color.FgYellow)

	for rank := 7; rank >= 0; rank-- {
		var sb strings.Builder
		fmt.Fprintf(&sb, "%d ", rank+1)
		for file := 0; file < 8; file++ {
			sq := board.NewSquare(file, rank)
			p := s.game.PieceAt(sq)
			cell := "."
			if p != board.NoPiece {
				cell = p.String()
			}
			switch {
			case s.game.IsSplit(sq):
				cell = live.Sprint(cell)
			case p == board.NoPiece:
			case p.Color() == board.White:
				cell = white.Sprint(cell)
			default:
				cell = black.Sprint(cell)
			}
			sb.WriteString(" " + cell)
		}
		s.println(sb.String())
	}
	s.println("   a b c d e f g h")
	s.println(s.game.Summary())
}

func (s *Session) println(fields ...string) {
	fmt.Fprintln(s.out, strings.Join(fields, " "))
}

func joinSquares(sqs []board.Square) string {
	strs := make([]string, len(sqs))
	for i, sq := range sqs {
		strs[i] = sq.String()
	}
	return strings.Join(strs, " ")
}
