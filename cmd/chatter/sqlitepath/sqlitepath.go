// Package sqlitepath resolves where "chatter serve" keeps its SQLite database.
package sqlitepath

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// EnvVar overrides the database path when no flag or config value is given.
const EnvVar = "CHATTER_SQLITE"

// DefaultFile is the database file name inside the .chatter/ directory.
const DefaultFile = "chatter.db"

// ResolveSQLitePath returns the database path to use. Order of precedence:
//  1. override (the --sqlite flag or storage.sqlite_path)
//  2. the CHATTER_SQLITE environment variable
//  3. chatter.db inside dir
func ResolveSQLitePath(override, dir string) (string, error) {
	if override = strings.TrimSpace(override); override != "" {
		return override, nil
	}

	if envPath := strings.TrimSpace(os.Getenv(EnvVar)); envPath != "" {
		return envPath, nil
	}

	if dir == "" {
		return "", errors.New("could not resolve chatter SQLite database; pass --sqlite")
	}

	return filepath.Join(dir, DefaultFile), nil
}
