// Package storage keeps user preferences, aggregate statistics and finished
// game records in a BadgerDB database.
package storage

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "qchess"

// homeEnv overrides the data directory outright, for portable installs and
// scripted runs.
const homeEnv = "QCHESS_HOME"

// GetDataDir returns the application's data directory, creating it if
// needed:
//   - $QCHESS_HOME when set
//   - macOS: ~/Library/Application Support/qchess
//   - Windows: %APPDATA%\qchess
//   - elsewhere: $XDG_DATA_HOME/qchess or ~/.local/share/qchess
func GetDataDir() (string, error) {
	dir := os.Getenv(homeEnv)
	if dir == "" {
		base, err := baseDataDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(base, appName)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func baseDataDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		return fromHome("Library", "Application Support")
	case "windows":
		if d := os.Getenv("APPDATA"); d != "" {
			return d, nil
		}
		return fromHome("AppData", "Roaming")
	}
	if d := os.Getenv("XDG_DATA_HOME"); d != "" {
		return d, nil
	}
	return fromHome(".local", "share")
}

func fromHome(elem ...string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{home}, elem...)...), nil
}

// GetDatabaseDir returns the directory holding the BadgerDB files.
func GetDatabaseDir() (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	dbDir := filepath.Join(dataDir, "db")
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return "", err
	}
	return dbDir, nil
}
