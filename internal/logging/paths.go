package logging

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultLogDir returns the log directory, $XDG_STATE_HOME/spor/logs or
// ~/.local/state/spor/logs. A ~/.spor directory would be mistaken for a
// repository by every project under the home directory.
func DefaultLogDir() string {
	if state := os.Getenv("XDG_STATE_HOME"); state != "" {
		return filepath.Join(state, "spor", "logs")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "spor", "logs")
	}
	return filepath.Join(home, ".local", "state", "spor", "logs")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "spor.log")
}

// FindLogFile resolves the log file to view. An explicit path wins over the
// default location.
func FindLogFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("log file not found: %s", explicit)
		}
		return explicit, nil
	}

	path := DefaultLogPath()
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("no log file found, expected at: %s", path)
	}
	return path, nil
}
