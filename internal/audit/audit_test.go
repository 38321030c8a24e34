package audit

import (
	"os"
	"testing"
	"time"

	"starshipevents/internal/events"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNewWriterCreatesSegmentFile(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, "bridge", fixedClock(time.Unix(0, 0)))
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer w.Close()

	if _, err := os.Stat(w.Path()); err != nil {
		t.Fatalf("expected segment file to exist: %v", err)
	}
}

func TestAppendAndFlushWritesRecords(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, "bridge", fixedClock(time.Unix(1000, 0)))
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	e, err := events.New("task.repair", []string{"shipwide"}, 40)
	if err != nil {
		t.Fatalf("events.New: %v", err)
	}
	e.AppendAudit("officer-1", "claim", nil)

	if err := w.Append(e); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	info, err := os.Stat(w.Path())
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("expected a non-empty compressed segment after flush")
	}
}

func TestAppendOnNilWriterErrors(t *testing.T) {
	var w *Writer
	e, err := events.New("task.repair", []string{"shipwide"}, 40)
	if err != nil {
		t.Fatalf("events.New: %v", err)
	}
	if err := w.Append(e); err == nil {
		t.Fatalf("expected an error appending to a nil writer")
	}
}

func TestSegmentIDIsSanitizedForFilesystem(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, "bridge/unsafe name!", fixedClock(time.Unix(0, 0)))
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer w.Close()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one segment file, got %v", entries)
	}
}
