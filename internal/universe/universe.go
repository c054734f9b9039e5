// Package universe tracks the tradable-symbol set across runs: it diffs the
// current universe against the previously persisted snapshot, appends one
// changelog entry per run, and stores the new snapshot.
package universe

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"tidemark/internal/domain"
)

// Tracker persists the universe snapshot and its append-only changelog at
// explicit paths.
type Tracker struct {
	SnapshotPath  string
	ChangelogPath string
}

// NewTracker creates a Tracker using the given snapshot and changelog paths.
func NewTracker(snapshotPath, changelogPath string) *Tracker {
	return &Tracker{
		SnapshotPath:  snapshotPath,
		ChangelogPath: changelogPath,
	}
}

// snapshot is the on-disk form of the universe: one field holding the sorted,
// deduplicated symbol list.
type snapshot struct {
	Symbols []string `json:"symbols"`
}

// DiffAndRecord computes the added/removed sets against the previous
// snapshot, appends a changelog entry for the run, then persists the current
// universe as the new snapshot. The changelog is written first so it always
// references the pre-run snapshot.
func (t *Tracker) DiffAndRecord(current []string, runDate time.Time) (domain.ChangelogEntry, error) {
	previous, err := t.loadSnapshot()
	if err != nil {
		return domain.ChangelogEntry{}, fmt.Errorf("loading snapshot: %w", err)
	}

	currentSet := make(map[string]struct{}, len(current))
	for _, sym := range current {
		currentSet[sym] = struct{}{}
	}

	entry := domain.ChangelogEntry{RunDate: runDate}
	for sym := range currentSet {
		if _, ok := previous[sym]; !ok {
			entry.Added = append(entry.Added, sym)
		}
	}
	for sym := range previous {
		if _, ok := currentSet[sym]; !ok {
			entry.Removed = append(entry.Removed, sym)
		}
	}
	sort.Strings(entry.Added)
	sort.Strings(entry.Removed)

	if err := t.appendChangelog(entry); err != nil {
		return domain.ChangelogEntry{}, fmt.Errorf("appending changelog: %w", err)
	}
	if err := t.saveSnapshot(currentSet); err != nil {
		return domain.ChangelogEntry{}, fmt.Errorf("saving snapshot: %w", err)
	}
	return entry, nil
}

// loadSnapshot returns the previously persisted universe as a set. A missing
// snapshot file yields an empty set.
func (t *Tracker) loadSnapshot() (map[string]struct{}, error) {
	data, err := os.ReadFile(t.SnapshotPath)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]struct{}{}, nil
		}
		return nil, err
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", t.SnapshotPath, err)
	}

	set := make(map[string]struct{}, len(snap.Symbols))
	for _, sym := range snap.Symbols {
		set[sym] = struct{}{}
	}
	return set, nil
}

// saveSnapshot writes the universe as a sorted, deduplicated list. The sort
// keeps diffs reproducible across runs.
func (t *Tracker) saveSnapshot(symbols map[string]struct{}) error {
	sorted := make([]string, 0, len(symbols))
	for sym := range symbols {
		sorted = append(sorted, sym)
	}
	sort.Strings(sorted)

	data, err := json.MarshalIndent(snapshot{Symbols: sorted}, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(t.SnapshotPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(t.SnapshotPath, append(data, '\n'), 0o644)
}

// appendChangelog adds one dated section to the changelog. Prior entries are
// never rewritten.
func (t *Tracker) appendChangelog(entry domain.ChangelogEntry) error {
	if err := os.MkdirAll(filepath.Dir(t.ChangelogPath), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(t.ChangelogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	lines := []string{
		"## " + entry.RunDate.Format(domain.DateLayout),
		"",
		"- Added: " + formatSet(entry.Added),
		"- Removed: " + formatSet(entry.Removed),
		"",
	}
	_, err = f.WriteString(strings.Join(lines, "\n") + "\n")
	return err
}

// formatSet renders a symbol set for the changelog, with an explicit marker
// for the empty set.
func formatSet(symbols []string) string {
	if len(symbols) == 0 {
		return "none"
	}
	return strings.Join(symbols, ", ")
}
