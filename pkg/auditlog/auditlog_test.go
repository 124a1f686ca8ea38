package auditlog

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func readRecords(t *testing.T, path string) [][]string {
	t.Helper()

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open audit file: %v", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read audit file: %v", err)
	}
	return records
}

func TestOpenWritesHeaderOnce(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "call_log.csv")

	w, err := Open(Config{Path: path})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Reopen: the header must not be duplicated.
	w, err = Open(Config{Path: path})
	if err != nil {
		t.Fatalf("Open() second time error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	records := readRecords(t, path)
	if len(records) != 1 {
		t.Fatalf("records = %d, want header only", len(records))
	}
	if records[0][0] != "timestamp" || records[0][3] != "text" {
		t.Fatalf("header = %v", records[0])
	}
}

func TestEventAppendsFlushedRecords(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "call_log.csv")
	w, err := Open(Config{Path: path})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	now := time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	if err := w.Event("user_speech", "user", "my address is wrong"); err != nil {
		t.Fatalf("Event() error = %v", err)
	}
	if err := w.Event("sheet_update", "agent", "Updated address to 4 Hill Street in row 1"); err != nil {
		t.Fatalf("Event() error = %v", err)
	}

	// Each record is flushed as it is written; read before Close.
	records := readRecords(t, path)
	if len(records) != 3 {
		t.Fatalf("records = %d, want header plus 2 events", len(records))
	}
	if records[1][0] != now.Format(time.RFC3339Nano) {
		t.Fatalf("timestamp = %s", records[1][0])
	}
	if records[1][1] != "user_speech" || records[1][2] != "user" || records[1][3] != "my address is wrong" {
		t.Fatalf("first event = %v", records[1])
	}
	if records[2][1] != "sheet_update" || records[2][2] != "agent" {
		t.Fatalf("second event = %v", records[2])
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestReopenAppendsAfterExistingRecords(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "call_log.csv")

	w, err := Open(Config{Path: path})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := w.Event("event", "system", "Starting agent session"); err != nil {
		t.Fatalf("Event() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	w, err = Open(Config{Path: path})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := w.Event("event", "system", "Starting agent session"); err != nil {
		t.Fatalf("Event() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	records := readRecords(t, path)
	if len(records) != 3 {
		t.Fatalf("records = %d, want header plus 2 sessions", len(records))
	}
}

func TestNopDiscardsEverything(t *testing.T) {
	t.Parallel()

	var n Nop
	if err := n.Event("event", "system", "ignored"); err != nil {
		t.Fatalf("Event() error = %v", err)
	}
	if err := n.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}
