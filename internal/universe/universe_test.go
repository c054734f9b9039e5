package universe

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	dir := t.TempDir()
	return NewTracker(
		filepath.Join(dir, "symbols_snapshot.json"),
		filepath.Join(dir, "symbols_log.md"),
	)
}

func TestDiffAndRecord(t *testing.T) {
	tr := newTestTracker(t)
	runDate := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	// First run: everything is new.
	entry, err := tr.DiffAndRecord([]string{"A", "B", "C"}, runDate)
	if err != nil {
		t.Fatalf("DiffAndRecord (first): %v", err)
	}
	if len(entry.Added) != 3 || len(entry.Removed) != 0 {
		t.Errorf("first run entry = %+v, want 3 added, 0 removed", entry)
	}

	// Second run: B,C stay, A leaves, D arrives.
	entry, err = tr.DiffAndRecord([]string{"B", "C", "D"}, runDate.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("DiffAndRecord (second): %v", err)
	}
	if len(entry.Added) != 1 || entry.Added[0] != "D" {
		t.Errorf("Added = %v, want [D]", entry.Added)
	}
	if len(entry.Removed) != 1 || entry.Removed[0] != "A" {
		t.Errorf("Removed = %v, want [A]", entry.Removed)
	}

	// Persisted snapshot is exactly the current set, sorted.
	data, err := os.ReadFile(tr.SnapshotPath)
	if err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}
	var snap struct {
		Symbols []string `json:"symbols"`
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("parsing snapshot: %v", err)
	}
	want := []string{"B", "C", "D"}
	if len(snap.Symbols) != len(want) {
		t.Fatalf("snapshot = %v, want %v", snap.Symbols, want)
	}
	for i := range want {
		if snap.Symbols[i] != want[i] {
			t.Errorf("snapshot[%d] = %q, want %q", i, snap.Symbols[i], want[i])
		}
	}
}

func TestChangelogAppendOnly(t *testing.T) {
	tr := newTestTracker(t)

	if _, err := tr.DiffAndRecord([]string{"A"}, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.DiffAndRecord([]string{"A"}, time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(tr.ChangelogPath)
	if err != nil {
		t.Fatalf("reading changelog: %v", err)
	}
	log := string(data)

	if !strings.Contains(log, "## 2025-07-01") || !strings.Contains(log, "## 2025-07-02") {
		t.Errorf("changelog missing a run section:\n%s", log)
	}
	if strings.Index(log, "## 2025-07-01") > strings.Index(log, "## 2025-07-02") {
		t.Error("changelog sections out of append order")
	}
	// Unchanged universe: both sets use the explicit none marker.
	if !strings.Contains(log, "- Added: none") {
		t.Errorf("second entry missing none marker for added:\n%s", log)
	}
	if !strings.Contains(log, "- Removed: none") {
		t.Errorf("entries missing none marker for removed:\n%s", log)
	}
}

func TestSnapshotDeduplicated(t *testing.T) {
	tr := newTestTracker(t)

	entry, err := tr.DiffAndRecord([]string{"B", "A", "B", "A"}, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if len(entry.Added) != 2 {
		t.Errorf("Added = %v, want 2 unique symbols", entry.Added)
	}

	data, err := os.ReadFile(tr.SnapshotPath)
	if err != nil {
		t.Fatal(err)
	}
	var snap struct {
		Symbols []string `json:"symbols"`
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatal(err)
	}
	if len(snap.Symbols) != 2 || snap.Symbols[0] != "A" || snap.Symbols[1] != "B" {
		t.Errorf("snapshot = %v, want [A B]", snap.Symbols)
	}
}
