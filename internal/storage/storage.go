package storage

import (
	"encoding/json"
	"errors"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/hailam/qchess/internal/board"
	"github.com/hailam/qchess/internal/game"
)

// Storage keys
const (
	keyPreferences = "preferences"
	keyStats       = "stats"
	keyFirstLaunch = "first_launch"
	prefixGame     = "game/"
)

// ErrGameNotFound is returned by LoadGame for an unknown id.
var ErrGameNotFound = errors.New("game not found")

// OracleMode selects how split pieces are measured.
type OracleMode int

const (
	OracleSampler OracleMode = iota
	OracleStateVector
)

func (m OracleMode) String() string {
	if m == OracleStateVector {
		return "statevector"
	}
	return "sampler"
}

// UserPreferences stores user settings
type UserPreferences struct {
	Username           string     `json:"username"`
	FlipBoard          bool       `json:"flip_board"`
	ShowSplitHighlight bool       `json:"show_split_highlight"`
	SoundEnabled       bool       `json:"sound_enabled"`
	Oracle             OracleMode `json:"oracle"`
	LastPlayed         time.Time  `json:"last_played"`
}

// DefaultPreferences returns default user preferences
func DefaultPreferences() *UserPreferences {
	return &UserPreferences{
		Username:           "Player",
		FlipBoard:          true,
		ShowSplitHighlight: true,
		SoundEnabled:       true,
		Oracle:             OracleSampler,
		LastPlayed:         time.Now(),
	}
}

// GameStats accumulates over every recorded game.
type GameStats struct {
	GamesPlayed   int            `json:"games_played"`
	WhiteWins     int            `json:"white_wins"`
	BlackWins     int            `json:"black_wins"`
	Draws         int            `json:"draws"`
	WinsByEnding  map[string]int `json:"wins_by_ending"`
	Splits        int            `json:"splits"`
	Collapses     int            `json:"collapses"`
	LongestGame   int            `json:"longest_game"` // in plies
	TotalPlayTime time.Duration  `json:"total_play_time"`
}

// NewGameStats returns empty game statistics
func NewGameStats() *GameStats {
	return &GameStats{
		WinsByEnding: make(map[string]int),
	}
}

// GameResult is the record kept for one finished game. Winner is "white",
// "black" or empty for a draw.
type GameResult struct {
	ID         uuid.UUID     `json:"id"`
	Winner     string        `json:"winner"`
	Ending     string        `json:"ending"`
	Plies      int           `json:"plies"`
	Splits     int           `json:"splits"`
	Collapses  int           `json:"collapses"`
	FinalFEN   string        `json:"final_fen"`
	Duration   time.Duration `json:"duration"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB
}

// NewStorage opens the database in the user's data directory.
func NewStorage() (*Storage, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return OpenAt(dbDir)
}

// OpenAt opens or creates a database in dir.
func OpenAt(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// IsFirstLaunch returns true if this is the first launch
func (s *Storage) IsFirstLaunch() (bool, error) {
	firstLaunch := true

	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(keyFirstLaunch))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		firstLaunch = false
		return nil
	})

	return firstLaunch, err
}

// MarkFirstLaunchComplete marks that first launch setup is complete
func (s *Storage) MarkFirstLaunchComplete() error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyFirstLaunch), []byte("done"))
	})
}

// SavePreferences saves user preferences
func (s *Storage) SavePreferences(prefs *UserPreferences) error {
	prefs.LastPlayed = time.Now()

	data, err := json.Marshal(prefs)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPreferences), data)
	})
}

// LoadPreferences loads user preferences, returns defaults if not found
func (s *Storage) LoadPreferences() (*UserPreferences, error) {
	prefs := DefaultPreferences()
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, keyPreferences, prefs)
	})
	return prefs, err
}

// LoadStats loads game statistics, returns empty stats if not found
func (s *Storage) LoadStats() (*GameStats, error) {
	stats := NewGameStats()
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, keyStats, stats)
	})
	return stats, err
}

// RecordGame stores result under its id and folds it into the statistics
// in the same transaction.
func (s *Storage) RecordGame(result GameResult) error {
	if result.FinishedAt.IsZero() {
		result.FinishedAt = time.Now()
	}
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		stats := NewGameStats()
		if err := getJSON(txn, keyStats, stats); err != nil {
			return err
		}

		stats.GamesPlayed++
		stats.Splits += result.Splits
		stats.Collapses += result.Collapses
		stats.TotalPlayTime += result.Duration
		if result.Plies > stats.LongestGame {
			stats.LongestGame = result.Plies
		}
		switch result.Winner {
		case "white":
			stats.WhiteWins++
			stats.WinsByEnding[result.Ending]++
		case "black":
			stats.BlackWins++
			stats.WinsByEnding[result.Ending]++
		default:
			stats.Draws++
		}

		statsData, err := json.Marshal(stats)
		if err != nil {
			return err
		}
		if err := txn.Set([]byte(keyStats), statsData); err != nil {
			return err
		}
		return txn.Set(gameKey(result.ID), data)
	})
}

// LoadGame returns the stored result for id.
func (s *Storage) LoadGame(id uuid.UUID) (*GameResult, error) {
	var result GameResult
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(gameKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrGameNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &result)
		})
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// RecentGames returns up to limit stored results, most recent first. A
// limit of zero returns them all.
func (s *Storage) RecentGames(limit int) ([]GameResult, error) {
	var results []GameResult
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(prefixGame)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var r GameResult
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				return err
			}
			results = append(results, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b GameResult) int {
		return b.FinishedAt.Compare(a.FinishedAt)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// WinRate returns the share of decisive games won by white, 0-100.
func (s *GameStats) WinRate() float64 {
	decisive := s.WhiteWins + s.BlackWins
	if decisive == 0 {
		return 0
	}
	return float64(s.WhiteWins) / float64(decisive) * 100
}

func gameKey(id uuid.UUID) []byte {
	return []byte(prefixGame + id.String())
}

// getJSON decodes key into v, leaving v untouched when the key is absent.
func getJSON(txn *badger.Txn, key string, v any) error {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

// NewGameResult summarizes a finished game for RecordGame.
func NewGameResult(g *game.Game, played time.Duration) GameResult {
	o := g.Outcome()
	var winner string
	switch o.Winner {
	case board.White:
		winner = "white"
	case board.Black:
		winner = "black"
	}
	st := g.Stats()
	return GameResult{
		ID:        g.ID,
		Winner:    winner,
		Ending:    o.Ending.String(),
		Plies:     len(g.History()),
		Splits:    st.Splits,
		Collapses: st.Collapses,
		FinalFEN:  g.FEN(),
		Duration:  played,
	}
}
