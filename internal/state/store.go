package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrNotFound is returned when a run file is missing or unreadable. Corrupt
// files are deliberately indistinguishable from absent ones: a crash during
// save must not wedge the caller.
var ErrNotFound = errors.New("import run not found")

// Store keeps one JSON file per run under a fixed directory. It assumes a
// single writer per run ID; exclusivity of running imports is the
// orchestrator's job, not the store's.
type Store struct {
	dir string

	now func() time.Time
}

func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Create builds a fresh running ledger and persists it immediately.
func (s *Store) Create(collectionID int64, collectionName string) (*Run, error) {
	now := s.now()

	// IDs derive from creation time so they sort chronologically. Bump by a
	// millisecond if a file from the same instant already exists.
	id := fmt.Sprintf("run-%d", now.UnixMilli())
	for i := int64(1); ; i++ {
		if _, err := os.Stat(s.path(id)); os.IsNotExist(err) {
			break
		}
		id = fmt.Sprintf("run-%d", now.UnixMilli()+i)
	}

	run := &Run{
		SchemaVersion:  SchemaVersion,
		ID:             id,
		Status:         StatusRunning,
		StartedAt:      now,
		LastUpdateAt:   now,
		CollectionID:   collectionID,
		CollectionName: collectionName,
		ProcessedIDs:   make(map[string]bool),
	}
	if err := s.Save(run); err != nil {
		return nil, err
	}
	return run, nil
}

// Save overwrites the run's file, refreshing its last-update timestamp. The
// write goes to a temp file in the same directory followed by an atomic
// rename, so readers never observe a half-written ledger.
func (s *Store) Save(run *Run) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	run.LastUpdateAt = s.now()

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return err
	}

	target := s.path(run.ID)
	tmp, err := os.CreateTemp(s.dir, run.ID+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// Load reads one run by ID. Missing and corrupt files both yield ErrNotFound.
func (s *Store) Load(id string) (*Run, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return nil, ErrNotFound
	}

	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, ErrNotFound
	}
	if run.ID == "" {
		return nil, ErrNotFound
	}
	migrate(&run)
	return &run, nil
}

// ListAll returns every readable run, most recent first by start time.
// Unreadable files are skipped.
func (s *Store) ListAll() ([]*Run, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var runs []*Run
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		run, err := s.Load(id)
		if err != nil {
			continue
		}
		runs = append(runs, run)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	return runs, nil
}

// FindActive returns the first run in running status. The orchestrator
// guarantees at most one exists; the store just scans.
func (s *Store) FindActive() (*Run, error) {
	runs, err := s.ListAll()
	if err != nil {
		return nil, err
	}
	for _, run := range runs {
		if run.Status == StatusRunning {
			return run, nil
		}
	}
	return nil, ErrNotFound
}

// Delete removes one run file, reporting whether it existed.
func (s *Store) Delete(id string) (bool, error) {
	err := os.Remove(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// migrate upgrades older ledgers to the current schema on load.
func migrate(run *Run) {
	if run.ProcessedIDs == nil {
		run.ProcessedIDs = make(map[string]bool)
	}
	if run.SchemaVersion < SchemaVersion {
		run.SchemaVersion = SchemaVersion
	}
}
