// Package audit exports an Event's append-only audit trail to a rotated,
// zstd-compressed segment file, adapted from the teacher's replay writer:
// same buffering/flush discipline, trimmed to the single concern of
// persisting audit records instead of binary telemetry frames.
package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	gojson "github.com/goccy/go-json"

	"starshipevents/internal/events"
)

var dirNameCleaner = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// flushInterval is the minimum time between the automatic flushes Append
// performs; records buffered after the last automatic flush stay in memory
// until the next Append past the interval, Flush, or Close. Segment files
// are rotated per Writer instance, not mid-stream, so this only governs
// write cadence.
const flushInterval = 200 * time.Millisecond

// record is the on-disk shape of one exported audit entry.
type record struct {
	EventID string             `json:"event_id"`
	TsMs    int64              `json:"ts"`
	ActorID string             `json:"actor_id"`
	Action  string             `json:"action"`
	Details map[string]any     `json:"details,omitempty"`
}

// Writer streams audit records for one segment to a zstd-compressed file.
type Writer struct {
	mu        sync.Mutex
	dir       string
	now       func() time.Time
	file      *os.File
	stream    *zstd.Encoder
	pending   []record
	lastFlush time.Time
}

// NewWriter opens a new audit segment under root, named by segmentID and the
// creation timestamp at one-second resolution. A second writer for the same
// segmentID created within the same second gets the same name and truncates
// the earlier file.
func NewWriter(root, segmentID string, clock func() time.Time) (*Writer, error) {
	if root == "" {
		return nil, fmt.Errorf("audit: writer root must be provided")
	}
	if clock == nil {
		clock = time.Now
	}

	cleaned := dirNameCleaner.ReplaceAllString(segmentID, "")
	if cleaned == "" {
		cleaned = "segment"
	}
	created := clock().UTC()
	name := fmt.Sprintf("%s-%s.audit.jsonl.zst", cleaned, created.Format("20060102T150405Z"))
	path := filepath.Join(root, name)

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("audit: creating %s: %w", root, err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("audit: creating segment %s: %w", path, err)
	}
	stream, err := zstd.NewWriter(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("audit: opening zstd stream for %s: %w", path, err)
	}

	return &Writer{dir: root, now: clock, file: file, stream: stream}, nil
}

// Path returns the full path of the segment file this writer targets.
func (w *Writer) Path() string {
	if w == nil || w.file == nil {
		return ""
	}
	return w.file.Name()
}

// Append buffers every audit record attached to e (its whole audit log, so
// appending the same event twice buffers its records twice), flushing
// immediately if flushInterval has elapsed since the last flush.
func (w *Writer) Append(e *events.Event) error {
	if w == nil {
		return fmt.Errorf("audit: writer not initialized")
	}
	now := w.now().UTC()

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, a := range e.Audit {
		w.pending = append(w.pending, record{
			EventID: e.ID,
			TsMs:    a.TsMs,
			ActorID: a.ActorID,
			Action:  a.Action,
			Details: a.Details,
		})
	}
	if w.lastFlush.IsZero() {
		w.lastFlush = now
		return nil
	}
	if now.Sub(w.lastFlush) >= flushInterval {
		if err := w.flushLocked(); err != nil {
			return err
		}
		w.lastFlush = now
	}
	return nil
}

// Flush forces every buffered record to disk regardless of cadence.
func (w *Writer) Flush() error {
	if w == nil {
		return fmt.Errorf("audit: writer not initialized")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.flushLocked(); err != nil {
		return err
	}
	w.lastFlush = w.now().UTC()
	return nil
}

// Close flushes any remaining records and releases the underlying file.
func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	var firstErr error
	if err := w.flushLocked(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := w.stream.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := w.file.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (w *Writer) flushLocked() error {
	if len(w.pending) == 0 {
		return nil
	}
	for _, rec := range w.pending {
		line, err := gojson.Marshal(rec)
		if err != nil {
			return fmt.Errorf("audit: marshal record for %s: %w", rec.EventID, err)
		}
		if _, err := w.stream.Write(line); err != nil {
			return err
		}
		if _, err := w.stream.Write([]byte("\n")); err != nil {
			return err
		}
	}
	w.pending = w.pending[:0]
	return w.stream.Flush()
}
