// Package snapshot persists the dispatcher's state and history stacks
// as a JSON file between CLI runs. The core container packages stay
// persistence-free; only this store and the app wiring touch disk.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/taskdeck/taskdeck/internal/core/state"
	"github.com/taskdeck/taskdeck/internal/core/task"
)

// File is the root JSON structure stored on disk.
type File struct {
	Current state.State   `json:"current"`
	Past    []state.State `json:"past"`
	Future  []state.State `json:"future"`
	SavedAt time.Time     `json:"saved_at"`
}

// Store reads and writes snapshot files.
type Store struct {
	path string
	mu   sync.RWMutex
}

// NewStore creates a snapshot store at the given path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the snapshot from disk. A missing file is not an error; it
// yields an empty state with empty history.
func (s *Store) Load() (File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return File{Current: state.New()}, nil
	}
	if err != nil {
		return File{}, fmt.Errorf("read snapshot: %w", err)
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return File{}, fmt.Errorf("parse snapshot: %w", err)
	}

	normalize(&file.Current)
	for i := range file.Past {
		normalize(&file.Past[i])
	}
	for i := range file.Future {
		normalize(&file.Future[i])
	}

	return file, nil
}

// normalize fills nil collections in hand-edited or pre-v1 files.
func normalize(s *state.State) {
	if s.Tasks.ByID == nil {
		s.Tasks.ByID = map[task.ID]task.Task{}
	}
	if s.Tasks.AllIDs == nil {
		s.Tasks.AllIDs = []task.ID{}
	}
	if s.View.Theme == "" {
		s.View.Theme = state.DefaultTheme
	}
}

// Save writes the snapshot atomically (temp file + rename).
func (s *Store) Save(file File) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file.SavedAt = time.Now()

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}

	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(tmp.Name())
		if werr != nil {
			return fmt.Errorf("write snapshot: %w", werr)
		}
		return fmt.Errorf("close snapshot: %w", cerr)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace snapshot: %w", err)
	}

	return nil
}
