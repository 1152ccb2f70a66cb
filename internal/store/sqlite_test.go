package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTimeFormatOrdersLexicographically(t *testing.T) {
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	earlier := base.Add(120 * time.Millisecond)
	later := base.Add(123 * time.Millisecond)

	// ".12Z" would sort after ".123Z" without zero padding.
	if fmtTime(earlier) >= fmtTime(later) {
		t.Errorf("expected %q < %q", fmtTime(earlier), fmtTime(later))
	}
	if !parseTime(fmtTime(later)).Equal(later) {
		t.Errorf("round trip mismatch: %v != %v", parseTime(fmtTime(later)), later)
	}
}

func TestDBPathCreation(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "sub", "dir", "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("expected db file to be created")
	}
}
