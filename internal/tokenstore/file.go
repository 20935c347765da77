package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/softseven/studio-admin/internal/errs"
)

// tokenFile is the on-disk layout. Either the plain fields or Sealed are set.
type tokenFile struct {
	AccessToken string     `json:"access_token,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	Sealed      []byte     `json:"sealed,omitempty"`
}

// FileStore keeps the token in a JSON file readable only by the owner.
type FileStore struct {
	path       string
	key        string
	passphrase []byte
	now        func() time.Time
}

// FileOption customizes a FileStore.
type FileOption func(*FileStore)

// WithPassphrase seals the token at rest with a key derived from passphrase.
func WithPassphrase(p string) FileOption {
	return func(s *FileStore) {
		if p != "" {
			s.passphrase = []byte(p)
		}
	}
}

// NewFileStore stores the token at path.
func NewFileStore(path string, opts ...FileOption) *FileStore {
	s := &FileStore{path: path, key: DefaultKey, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ConfigDir is $XDG_CONFIG_HOME/studioctl, falling back to ~/.config/studioctl.
func ConfigDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "studioctl")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "studioctl")
}

// DefaultPath is the token file location used by the CLI.
func DefaultPath() string { return filepath.Join(ConfigDir(), DefaultKey+".json") }

// Path returns the file location.
func (s *FileStore) Path() string { return s.path }

// Save writes the token, replacing any previous one.
func (s *FileStore) Save(_ context.Context, tok Token) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	tf := tokenFile{AccessToken: tok.Value, ExpiresAt: tok.ExpiresAt}
	if s.passphrase != nil {
		plain, err := json.Marshal(tok)
		if err != nil {
			return err
		}
		sealed, err := seal(s.passphrase, []byte(s.key), plain)
		if err != nil {
			return fmt.Errorf("tokenstore: seal: %w", err)
		}
		tf = tokenFile{Sealed: sealed}
	}
	b, err := json.MarshalIndent(tf, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Load reads the token; a missing file or an expired token yields errs.ErrNoToken.
func (s *FileStore) Load(context.Context) (Token, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Token{}, errs.ErrNoToken
	}
	if err != nil {
		return Token{}, err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return Token{}, fmt.Errorf("tokenstore: corrupt token file: %w", err)
	}

	tok := Token{Value: tf.AccessToken, ExpiresAt: tf.ExpiresAt}
	if len(tf.Sealed) > 0 {
		if s.passphrase == nil {
			return Token{}, errors.New("tokenstore: token is sealed, passphrase required")
		}
		plain, err := open(s.passphrase, []byte(s.key), tf.Sealed)
		if err != nil {
			return Token{}, fmt.Errorf("tokenstore: open: %w", err)
		}
		if err := json.Unmarshal(plain, &tok); err != nil {
			return Token{}, fmt.Errorf("tokenstore: corrupt sealed token: %w", err)
		}
	}
	if tok.Value == "" || tok.Expired(s.now()) {
		return Token{}, errs.ErrNoToken
	}
	return tok, nil
}

// Clear removes the token file; a missing file is not an error.
func (s *FileStore) Clear(context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
