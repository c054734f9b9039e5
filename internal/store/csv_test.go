package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"tidemark/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testBar(symbol string, date time.Time, close float64) domain.Bar {
	return domain.Bar{
		Symbol: symbol,
		Date:   date,
		Open:   close - 1,
		High:   close + 1,
		Low:    close - 2,
		Close:  close,
		Volume: 10000,
		Amount: close * 10000,
	}
}

func TestCSVStoreWriteReadRoundTrip(t *testing.T) {
	s := NewCSVStore(t.TempDir())

	bars := []domain.Bar{
		testBar("600000", day(2025, 1, 2), 10.5),
		testBar("600000", day(2025, 1, 3), 10.8),
	}
	if err := s.WriteBars("600000", bars); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}

	got, err := s.ReadBars("600000")
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadBars returned %d bars, want 2", len(got))
	}
	if got[0].Close != 10.5 || got[1].Close != 10.8 {
		t.Errorf("closes = %v, %v, want 10.5, 10.8", got[0].Close, got[1].Close)
	}
	if !got[1].Date.Equal(day(2025, 1, 3)) {
		t.Errorf("second date = %v, want 2025-01-03", got[1].Date)
	}
}

func TestCSVStoreLastDate(t *testing.T) {
	s := NewCSVStore(t.TempDir())

	bars := []domain.Bar{
		testBar("000001", day(2025, 3, 10), 8.1),
		testBar("000001", day(2025, 3, 11), 8.2),
		testBar("000001", day(2025, 3, 12), 8.3),
	}
	if err := s.WriteBars("000001", bars); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}

	last, ok := s.LastDate("000001")
	if !ok {
		t.Fatal("LastDate returned false for populated dataset")
	}
	if !last.Equal(day(2025, 3, 12)) {
		t.Errorf("LastDate = %v, want 2025-03-12", last)
	}
}

func TestCSVStoreLastDate_Absent(t *testing.T) {
	s := NewCSVStore(t.TempDir())
	if _, ok := s.LastDate("missing"); ok {
		t.Error("LastDate returned true for missing dataset")
	}
}

func TestCSVStoreLastDate_HeaderOnly(t *testing.T) {
	dir := t.TempDir()
	s := NewCSVStore(dir)
	if err := os.WriteFile(filepath.Join(dir, "X.csv"), []byte("date,open,high,low,close,volume,amount\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.LastDate("X"); ok {
		t.Error("LastDate returned true for header-only dataset")
	}
}

func TestCSVStoreLastDate_MalformedTail(t *testing.T) {
	dir := t.TempDir()
	s := NewCSVStore(dir)
	content := "date,close\n2025-01-02,10\nnot-a-date,11\n"
	if err := os.WriteFile(filepath.Join(dir, "Y.csv"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.LastDate("Y"); ok {
		t.Error("LastDate returned true for unparseable trailing date")
	}
}

func TestCSVStoreLastDate_NoDateColumn(t *testing.T) {
	dir := t.TempDir()
	s := NewCSVStore(dir)
	content := "symbol,close\nAAA,10\n"
	if err := os.WriteFile(filepath.Join(dir, "Z.csv"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.LastDate("Z"); ok {
		t.Error("LastDate returned true without a date column")
	}
}

func TestCSVStoreLocalizedHeaders(t *testing.T) {
	dir := t.TempDir()
	s := NewCSVStore(dir)

	// Dataset layout produced by the predecessor pipeline.
	content := "日期,开盘,收盘,最高,最低,成交量,成交额\n" +
		"2025-06-02,9.8,10.1,10.3,9.7,120000,1212000\n" +
		"2025-06-03,10.1,10.4,10.5,10.0,130000,1352000\n"
	if err := os.WriteFile(filepath.Join(dir, "600519.csv"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	last, ok := s.LastDate("600519")
	if !ok || !last.Equal(day(2025, 6, 3)) {
		t.Errorf("LastDate = %v, %v, want 2025-06-03, true", last, ok)
	}

	bars, err := s.ReadBars("600519")
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("ReadBars returned %d bars, want 2", len(bars))
	}
	if bars[1].Close != 10.4 || bars[1].Open != 10.1 {
		t.Errorf("localized columns misread: %+v", bars[1])
	}
}

func TestCSVStoreMergeDedupKeepsIncoming(t *testing.T) {
	s := NewCSVStore(t.TempDir())

	if err := s.WriteBars("300750", []domain.Bar{
		testBar("300750", day(2025, 2, 3), 100),
		testBar("300750", day(2025, 2, 4), 101),
	}); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}

	// Overlapping date with corrected close; the fresh bar must win.
	corrected := testBar("300750", day(2025, 2, 4), 99.5)
	res, err := s.Merge("300750", []domain.Bar{
		corrected,
		testBar("300750", day(2025, 2, 5), 102),
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if res.Status != StatusAppended {
		t.Errorf("Status = %q, want %q", res.Status, StatusAppended)
	}
	if res.RowsAdded != 1 {
		t.Errorf("RowsAdded = %d, want 1", res.RowsAdded)
	}

	bars, err := s.ReadBars("300750")
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(bars) != 3 {
		t.Fatalf("got %d bars after merge, want 3", len(bars))
	}
	if bars[1].Close != 99.5 {
		t.Errorf("overlapping date kept stale close %v, want 99.5", bars[1].Close)
	}
}

func TestCSVStoreMergeOrderingInvariant(t *testing.T) {
	s := NewCSVStore(t.TempDir())

	// Incoming bars out of order, with a duplicate.
	res, err := s.Merge("601318", []domain.Bar{
		testBar("601318", day(2025, 4, 3), 52),
		testBar("601318", day(2025, 4, 1), 50),
		testBar("601318", day(2025, 4, 2), 51),
		testBar("601318", day(2025, 4, 1), 50.5),
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if res.Status != StatusReplaced {
		t.Errorf("Status = %q, want %q for fresh dataset", res.Status, StatusReplaced)
	}
	if res.RowsAdded != 3 {
		t.Errorf("RowsAdded = %d, want 3", res.RowsAdded)
	}

	bars, err := s.ReadBars("601318")
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i-1].Date.Before(bars[i].Date) {
			t.Fatalf("dates not strictly increasing at %d: %v then %v", i, bars[i-1].Date, bars[i].Date)
		}
	}
	if bars[0].Close != 50.5 {
		t.Errorf("duplicate date kept earlier bar, close = %v, want 50.5", bars[0].Close)
	}
}

func TestCSVStoreMergeMalformedExistingReplaced(t *testing.T) {
	dir := t.TempDir()
	s := NewCSVStore(dir)

	// No recognizable date column: treated as absent.
	if err := os.WriteFile(filepath.Join(dir, "688111.csv"), []byte("garbage\nstuff\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := s.Merge("688111", []domain.Bar{testBar("688111", day(2025, 5, 6), 77)})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if res.Status != StatusReplaced || res.RowsAdded != 1 {
		t.Errorf("got %+v, want replaced with 1 row", res)
	}
}

func TestCSVStoreListSymbols(t *testing.T) {
	s := NewCSVStore(t.TempDir())
	for _, sym := range []string{"000002", "600000", "000001"} {
		if err := s.WriteBars(sym, []domain.Bar{testBar(sym, day(2025, 1, 2), 10)}); err != nil {
			t.Fatalf("WriteBars(%s): %v", sym, err)
		}
	}

	symbols, err := s.ListSymbols()
	if err != nil {
		t.Fatalf("ListSymbols: %v", err)
	}
	want := []string{"000001", "000002", "600000"}
	if len(symbols) != len(want) {
		t.Fatalf("ListSymbols = %v, want %v", symbols, want)
	}
	for i := range want {
		if symbols[i] != want[i] {
			t.Errorf("symbols[%d] = %q, want %q", i, symbols[i], want[i])
		}
	}
}
