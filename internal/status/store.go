// Package status persists loop and breaker snapshots to the state
// directory for external observers, and owns the stop sentinel.
package status

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/craig-ford/ralph-kiro/internal/breaker"
)

// Snapshot is the externally visible projection of loop state. It is
// overwritten wholesale each iteration, never appended.
type Snapshot struct {
	Status                     string    `json:"status"`
	Message                    string    `json:"message"`
	LoopCount                  int       `json:"loop_count"`
	ConsecutiveTestOnlyLoops   int       `json:"consecutive_test_only_loops"`
	ConsecutiveDoneSignalLoops int       `json:"consecutive_done_signal_loops"`
	Timestamp                  time.Time `json:"timestamp"`
}

// Store manages the state directory. One store (and one controller)
// per working directory.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir. The directory is created on
// first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

// StatusPath returns the path of the loop snapshot file.
func (s *Store) StatusPath() string {
	return filepath.Join(s.dir, "status.json")
}

// BreakerPath returns the path of the breaker snapshot file.
func (s *Store) BreakerPath() string {
	return filepath.Join(s.dir, "breaker.json")
}

// StopPath returns the path of the stop sentinel.
func (s *Store) StopPath() string {
	return filepath.Join(s.dir, "stop")
}

// WriteStatus overwrites the loop snapshot.
func (s *Store) WriteStatus(snap Snapshot) error {
	return s.writeJSON(s.StatusPath(), snap)
}

// ReadStatus loads the loop snapshot. The second return is false when
// none has been written yet.
func (s *Store) ReadStatus() (Snapshot, bool, error) {
	var snap Snapshot
	ok, err := s.readJSON(s.StatusPath(), &snap)
	return snap, ok, err
}

// WriteBreaker overwrites the breaker snapshot.
func (s *Store) WriteBreaker(snap breaker.Snapshot) error {
	return s.writeJSON(s.BreakerPath(), snap)
}

// ReadBreaker loads the breaker snapshot. The second return is false
// when none has been written yet.
func (s *Store) ReadBreaker() (breaker.Snapshot, bool, error) {
	var snap breaker.Snapshot
	ok, err := s.readJSON(s.BreakerPath(), &snap)
	return snap, ok, err
}

// RequestStop drops the stop sentinel for a running controller to
// observe at its next iteration boundary.
func (s *Store) RequestStop() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", s.dir, err)
	}
	if err := os.WriteFile(s.StopPath(), nil, 0o644); err != nil {
		return fmt.Errorf("write stop sentinel: %w", err)
	}
	return nil
}

// StopRequested reports whether the stop sentinel exists.
func (s *Store) StopRequested() bool {
	_, err := os.Stat(s.StopPath())
	return err == nil
}

// ClearStop removes the stop sentinel. Clearing an absent sentinel is
// not an error.
func (s *Store) ClearStop() error {
	if err := os.Remove(s.StopPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear stop sentinel: %w", err)
	}
	return nil
}

// writeJSON serializes v and writes it atomically: temp file in the
// same directory, then rename, so observers never see partial writes.
func (s *Store) writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", s.dir, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		if tmpName != "" {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s -> %s: %w", tmpName, path, err)
	}
	tmpName = ""
	return nil
}

// readJSON loads path into v, reporting whether the file existed.
func (s *Store) readJSON(path string, v interface{}) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", path, err)
	}
	return true, nil
}
