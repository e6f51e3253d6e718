package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the state file the plugin keeps under MUNIN_PLUGSTATE.
const FileName = "pgp_expiration"

// Store persists snapshots to a single state file. Writes truncate and
// rewrite in place; the collector is assumed to invoke the plugin serially,
// so there is no locking and no rename dance.
type Store struct {
	path string
}

// NewStore creates a store rooted at the given state directory.
func NewStore(stateDir string) *Store {
	return &Store{path: filepath.Join(stateDir, FileName)}
}

// Path returns the state file location.
func (s *Store) Path() string { return s.path }

// Load reads the cached snapshot. A missing file is a cold start and
// returns (nil, nil); a present but undecodable file is corruption and
// returns an error.
func (s *Store) Load() (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state file %s: %w", s.path, err)
	}

	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding state file %s: %w", s.path, err)
	}
	return &snap, nil
}

// Save replaces the state file with snap.
func (s *Store) Save(snap *Snapshot) error {
	data, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing state file %s: %w", s.path, err)
	}
	return nil
}
