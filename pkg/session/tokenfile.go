package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// tokenFile persists the bearer token under the state directory:
//
//	~/.equitylens/
//	  └── token
//
// The token is opaque to the client and stored as-is.
type tokenFile struct {
	path string
}

// newTokenFile prepares the state directory. If stateDir is empty,
// ~/.equitylens is used.
func newTokenFile(stateDir string) (*tokenFile, error) {
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		stateDir = filepath.Join(home, ".equitylens")
	}

	if err := os.MkdirAll(stateDir, 0700); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	return &tokenFile{path: filepath.Join(stateDir, "token")}, nil
}

// Read returns the persisted token, or "" when none exists.
func (t *tokenFile) Read() (string, error) {
	data, err := os.ReadFile(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Write persists the token.
func (t *tokenFile) Write(token string) error {
	if err := os.WriteFile(t.path, []byte(token+"\n"), 0600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// Remove deletes the persisted token. A missing file is not an error.
func (t *tokenFile) Remove() error {
	if err := os.Remove(t.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}
