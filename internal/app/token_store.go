package app

import (
	"os"
	"path/filepath"
	"strings"
)

// TokenStore persists the access token across restarts.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// FileTokenStore keeps the token in a plain file, created with 0600.
type FileTokenStore struct {
	Path string
}

// DefaultTokenStore places the token under the user config directory,
// e.g. ~/.config/safezone/token.
func DefaultTokenStore() (*FileTokenStore, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return &FileTokenStore{Path: filepath.Join(dir, "safezone", "token")}, nil
}

func (s *FileTokenStore) Load() (string, error) {
	raw, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

func (s *FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.Path, []byte(token+"\n"), 0o600)
}

func (s *FileTokenStore) Clear() error {
	err := os.Remove(s.Path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// MemoryTokenStore holds the token in memory only. Used by tests and by
// runs where persistence is not wanted.
type MemoryTokenStore struct {
	token string
}

func (s *MemoryTokenStore) Load() (string, error) { return s.token, nil }
func (s *MemoryTokenStore) Save(tok string) error { s.token = tok; return nil }
func (s *MemoryTokenStore) Clear() error          { s.token = ""; return nil }
