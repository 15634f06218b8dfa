package storage

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hailam/qchess/internal/board"
	"github.com/hailam/qchess/internal/game"
)

func openTemp(t *testing.T) *Storage {
	t.Helper()
	s, err := OpenAt(t.TempDir())
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStorage(t *testing.T) {
	t.Run("DefaultPreferences", func(t *testing.T) {
		prefs := DefaultPreferences()
		if prefs.Username != "Player" {
			t.Errorf("Expected username 'Player', got '%s'", prefs.Username)
		}
		if prefs.Oracle != OracleSampler {
			t.Errorf("Expected sampler oracle")
		}
		if !prefs.SoundEnabled || !prefs.ShowSplitHighlight {
			t.Errorf("Expected sound and split highlight enabled by default")
		}
	})

	t.Run("NewGameStats", func(t *testing.T) {
		stats := NewGameStats()
		if stats.GamesPlayed != 0 {
			t.Errorf("Expected 0 games played")
		}
		if stats.WinRate() != 0 {
			t.Errorf("Expected 0 win rate")
		}
	})

	t.Run("WinRate", func(t *testing.T) {
		stats := &GameStats{GamesPlayed: 10, WhiteWins: 3, BlackWins: 1, Draws: 6}
		if rate := stats.WinRate(); rate != 75 {
			t.Errorf("Expected 75%% white win rate, got %.2f%%", rate)
		}
	})
}

func TestPreferencesRoundTrip(t *testing.T) {
	s := openTemp(t)

	prefs, err := s.LoadPreferences()
	if err != nil {
		t.Fatalf("LoadPreferences: %v", err)
	}
	if prefs.Username != "Player" {
		t.Errorf("empty database should give defaults, got %+v", prefs)
	}

	prefs.Username = "ada"
	prefs.FlipBoard = false
	prefs.Oracle = OracleStateVector
	if err := s.SavePreferences(prefs); err != nil {
		t.Fatalf("SavePreferences: %v", err)
	}

	got, err := s.LoadPreferences()
	if err != nil {
		t.Fatalf("LoadPreferences: %v", err)
	}
	if got.Username != "ada" || got.FlipBoard || got.Oracle != OracleStateVector {
		t.Errorf("loaded %+v", got)
	}
}

func TestFirstLaunch(t *testing.T) {
	s := openTemp(t)

	first, err := s.IsFirstLaunch()
	if err != nil || !first {
		t.Fatalf("IsFirstLaunch = %v, %v", first, err)
	}
	if err := s.MarkFirstLaunchComplete(); err != nil {
		t.Fatal(err)
	}
	if first, _ := s.IsFirstLaunch(); first {
		t.Errorf("first launch should be recorded")
	}
}

func TestRecordGame(t *testing.T) {
	s := openTemp(t)
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	results := []GameResult{
		{ID: uuid.New(), Winner: "white", Ending: "checkmate", Plies: 31, Splits: 4, Collapses: 3, Duration: time.Minute, FinishedAt: start},
		{ID: uuid.New(), Winner: "", Ending: "stalemate", Plies: 80, Splits: 2, Collapses: 2, Duration: time.Minute, FinishedAt: start.Add(time.Hour)},
		{ID: uuid.New(), Winner: "black", Ending: "checkmate", Plies: 12, Collapses: 1, Duration: time.Minute, FinishedAt: start.Add(2 * time.Hour)},
	}
	for _, r := range results {
		if err := s.RecordGame(r); err != nil {
			t.Fatalf("RecordGame: %v", err)
		}
	}

	stats, err := s.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	if stats.GamesPlayed != 3 || stats.WhiteWins != 1 || stats.BlackWins != 1 || stats.Draws != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.Splits != 6 || stats.Collapses != 6 || stats.LongestGame != 80 || stats.TotalPlayTime != 3*time.Minute {
		t.Errorf("stats = %+v", stats)
	}
	if stats.WinsByEnding["checkmate"] != 2 {
		t.Errorf("wins by ending = %v", stats.WinsByEnding)
	}

	got, err := s.LoadGame(results[1].ID)
	if err != nil {
		t.Fatalf("LoadGame: %v", err)
	}
	if got.Ending != "stalemate" || got.Plies != 80 {
		t.Errorf("LoadGame = %+v", got)
	}
	if _, err := s.LoadGame(uuid.New()); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("unknown id: err = %v", err)
	}

	recent, err := s.RecentGames(2)
	if err != nil {
		t.Fatalf("RecentGames: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != results[2].ID || recent[1].ID != results[1].ID {
		t.Errorf("recent = %+v", recent)
	}
}

func TestNewGameResult(t *testing.T) {
	g, err := game.New(game.Config{FEN: "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", Seed: 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Move(board.A1, board.A8); err != nil {
		t.Fatal(err)
	}
	r := NewGameResult(g, 5*time.Second)
	if r.ID != g.ID || r.Winner != "white" || r.Ending != "checkmate" || r.Plies != 1 {
		t.Errorf("result = %+v", r)
	}
}

func TestDataPaths(t *testing.T) {
	t.Run("XDG", func(t *testing.T) {
		if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
			t.Skip("XDG_DATA_HOME is only consulted on unix")
		}
		base := t.TempDir()
		t.Setenv(homeEnv, "")
		t.Setenv("XDG_DATA_HOME", base)

		dataDir, err := GetDataDir()
		if err != nil {
			t.Fatalf("GetDataDir failed: %v", err)
		}
		if want := filepath.Join(base, appName); dataDir != want {
			t.Errorf("GetDataDir = %s, want %s", dataDir, want)
		}
		if _, err := os.Stat(dataDir); os.IsNotExist(err) {
			t.Errorf("Data directory was not created: %s", dataDir)
		}
	})

	t.Run("Override", func(t *testing.T) {
		home := filepath.Join(t.TempDir(), "portable")
		t.Setenv(homeEnv, home)

		dbDir, err := GetDatabaseDir()
		if err != nil {
			t.Fatalf("GetDatabaseDir failed: %v", err)
		}
		if want := filepath.Join(home, "db"); dbDir != want {
			t.Errorf("GetDatabaseDir = %s, want %s", dbDir, want)
		}
		if _, err := os.Stat(dbDir); err != nil {
			t.Errorf("Database directory was not created: %v", err)
		}
	})
}
