package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "imports"))
}

func TestCreateAndLoadRoundtrip(t *testing.T) {
	s := newTestStore(t)

	run, err := s.Create(42, "X Bookmarks")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if run.Status != StatusRunning {
		t.Errorf("expected running status, got %s", run.Status)
	}
	if run.SchemaVersion != SchemaVersion {
		t.Errorf("expected schema version %d, got %d", SchemaVersion, run.SchemaVersion)
	}

	run.TotalFetched = 10
	run.TotalSaved = 7
	run.TotalSkipped = 2
	run.TotalFailed = 1
	run.NextCursor = "abc123"
	run.MarkProcessed("111")
	run.AddError("222", "boom", time.Now())
	if err := s.Save(run); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := s.Load(run.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.CollectionID != 42 || got.CollectionName != "X Bookmarks" {
		t.Errorf("collection fields not preserved: %+v", got)
	}
	if got.TotalSaved != 7 || got.TotalSkipped != 2 || got.TotalFailed != 1 || got.TotalFetched != 10 {
		t.Errorf("counters not preserved: %+v", got)
	}
	if got.NextCursor != "abc123" {
		t.Errorf("cursor not preserved: %q", got.NextCursor)
	}
	if !got.IsProcessed("111") {
		t.Error("processed set not preserved")
	}
	if len(got.Errors) != 1 || got.Errors[0].ExternalID != "222" {
		t.Errorf("error log not preserved: %+v", got.Errors)
	}
}

func TestSaveRefreshesLastUpdate(t *testing.T) {
	s := newTestStore(t)

	run, err := s.Create(1, "test")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	old := run.LastUpdateAt
	s.now = func() time.Time { return old.Add(5 * time.Minute) }
	if err := s.Save(run); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !run.LastUpdateAt.After(old) {
		t.Error("expected LastUpdateAt refreshed on save")
	}
}

func TestLoadMissingReturnsNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Load("run-0"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCorruptFileTreatedAsAbsent(t *testing.T) {
	s := newTestStore(t)

	run, err := s.Create(1, "test")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Simulate a crash mid-write from a store without atomic rename.
	if err := os.WriteFile(s.path(run.ID), []byte(`{"id":"run-`), 0644); err != nil {
		t.Fatalf("could not corrupt file: %v", err)
	}

	if _, err := s.Load(run.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for corrupt file, got %v", err)
	}

	// Corrupt files are skipped, not fatal, during scans.
	runs, err := s.ListAll()
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected corrupt run skipped in listing, got %d entries", len(runs))
	}
	if _, err := s.FindActive(); err != ErrNotFound {
		t.Errorf("expected no active run, got %v", err)
	}
}

func TestListAllSortsMostRecentFirst(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		offset := time.Duration(i) * time.Minute
		s.now = func() time.Time { return base.Add(offset) }
		run, err := s.Create(1, "test")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		run.Status = StatusCompleted
		if err := s.Save(run); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	runs, err := s.ListAll()
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	for i := 1; i < len(runs); i++ {
		if runs[i].StartedAt.After(runs[i-1].StartedAt) {
			t.Errorf("runs not sorted most-recent-first: %v before %v",
				runs[i-1].StartedAt, runs[i].StartedAt)
		}
	}
}

func TestListAllEmptyDirectory(t *testing.T) {
	s := newTestStore(t)

	runs, err := s.ListAll()
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestFindActive(t *testing.T) {
	s := newTestStore(t)

	done, err := s.Create(1, "test")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	done.Status = StatusCompleted
	if err := s.Save(done); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	active, err := s.Create(1, "test")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := s.FindActive()
	if err != nil {
		t.Fatalf("FindActive failed: %v", err)
	}
	if got.ID != active.ID {
		t.Errorf("expected active run %s, got %s", active.ID, got.ID)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)

	run, err := s.Create(1, "test")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	removed, err := s.Delete(run.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !removed {
		t.Error("expected Delete to report removal")
	}

	removed, err = s.Delete(run.ID)
	if err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
	if removed {
		t.Error("expected Delete of missing run to report false")
	}
}

func TestMigrateFillsMissingFields(t *testing.T) {
	s := newTestStore(t)

	// A ledger written before the processed set and version field existed.
	legacy := `{"id":"run-1000","status":"failed","started_at":"2025-01-01T00:00:00Z","last_update_at":"2025-01-01T00:05:00Z"}`
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.path("run-1000"), []byte(legacy), 0644); err != nil {
		t.Fatal(err)
	}

	run, err := s.Load("run-1000")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if run.ProcessedIDs == nil {
		t.Error("expected processed set initialized on load")
	}
	if run.SchemaVersion != SchemaVersion {
		t.Errorf("expected schema version migrated to %d, got %d", SchemaVersion, run.SchemaVersion)
	}
}

func TestProgressFormatting(t *testing.T) {
	run := &Run{TotalFetched: 200, TotalSaved: 120, TotalSkipped: 20, TotalFailed: 10}
	if got, want := run.Progress(), "75% (150/200)"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	empty := &Run{}
	if got, want := empty.Progress(), "0% (0/0)"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
