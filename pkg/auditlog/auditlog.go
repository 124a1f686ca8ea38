package auditlog

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"
	"time"

	contractx "github.com/voxline/voxline/agent/contract"
)

type Config struct {
	Path string `envconfig:"PATH" split_words:"true" default:"call_log.csv"`
}

var header = []string{"timestamp", "event_type", "speaker", "text"}

// Writer appends audit records to a CSV file and flushes each one
// immediately. Records are never rewritten.
type Writer struct {
	mu   sync.Mutex
	file *os.File
	csv  *csv.Writer
	now  func() time.Time
}

var _ contractx.AuditTrail = (*Writer)(nil)

// Open opens the audit file for appending, writing the header when the file
// is empty. The caller owns the writer and must Close it on every exit path.
func Open(cfg Config) (*Writer, error) {
	file, err := os.OpenFile(cfg.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}

	w := &Writer{
		file: file,
		csv:  csv.NewWriter(file),
		now:  time.Now,
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("stat audit log: %w", err)
	}
	if info.Size() == 0 {
		if err := w.csv.Write(header); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("write audit header: %w", err)
		}
		w.csv.Flush()
		if err := w.csv.Error(); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("flush audit header: %w", err)
		}
	}

	return w, nil
}

func (w *Writer) Event(eventType, speaker, text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	record := []string{w.now().Format(time.RFC3339Nano), eventType, speaker, text}
	if err := w.csv.Write(record); err != nil {
		return fmt.Errorf("write audit record: %w", err)
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("flush audit record: %w", err)
	}
	return nil
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}

// Nop discards all events. Useful where auditing is not configured.
type Nop struct{}

var _ contractx.AuditTrail = Nop{}

func (Nop) Event(string, string, string) error { return nil }
func (Nop) Close() error                       { return nil }
