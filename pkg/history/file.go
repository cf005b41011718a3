package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/matzehuels/memeforge/pkg/meme"
)

// FileName is the history file created inside the store directory.
const FileName = "history.json"

// FileStore keeps history in a single JSON file for CLI use.
type FileStore struct {
	mu    sync.RWMutex
	path  string
	limit int
}

// NewFileStore creates a file-backed store in dir.
// If dir is empty, defaults to ~/.config/memeforge/.
func NewFileStore(dir string, limit int) (*FileStore, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	return &FileStore{path: filepath.Join(dir, FileName), limit: normalizeLimit(limit)}, nil
}

// DefaultDir returns the directory used when NewFileStore gets an empty dir.
func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "memeforge"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "memeforge"), nil
}

func (s *FileStore) read() ([]meme.Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read history file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var recs []meme.Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}
	return recs, nil
}

func (s *FileStore) write(recs []meme.Record) error {
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write history file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write history file: %w", err)
	}
	return nil
}

func (s *FileStore) Add(ctx context.Context, rec meme.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.read()
	if err != nil {
		return err
	}
	return s.write(prepend(recs, rec, s.limit))
}

func (s *FileStore) List(ctx context.Context) ([]meme.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs, err := s.read()
	if err != nil {
		return nil, err
	}
	if len(recs) > s.limit {
		recs = recs[:s.limit]
	}
	return recs, nil
}

func (s *FileStore) Get(ctx context.Context, id string) (meme.Record, error) {
	recs, err := s.List(ctx)
	if err != nil {
		return meme.Record{}, err
	}
	return find(recs, id)
}

func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove history file: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the history file path.
func (s *FileStore) Path() string {
	return s.path
}

var _ Store = (*FileStore)(nil)
