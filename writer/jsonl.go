package writer

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"bybitflow/models"
)

// JSONL appends one JSON object per line to a capture file. The file is
// created (truncating any earlier run) when the writer is opened and only
// ever appended to afterwards.
type JSONL struct {
	path string
	file *os.File
	buf  *bufio.Writer
	mu   sync.Mutex
}

// NewJSONL opens the capture file for the data type under dir.
func NewJSONL(dir string, dataType models.DataType) (*JSONL, error) {
	path := filepath.Join(dir, string(dataType)+".txt")
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create capture file: %w", err)
	}
	return &JSONL{
		path: path,
		file: file,
		buf:  bufio.NewWriter(file),
	}, nil
}

// Write appends one record as a single JSON line.
func (w *JSONL) Write(rec models.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.buf.Write(data); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if err := w.buf.WriteByte('\n'); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// Close flushes buffered records and closes the file.
func (w *JSONL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return fmt.Errorf("flush capture file: %w", err)
	}
	return w.file.Close()
}

// Path returns the capture file's location.
func (w *JSONL) Path() string {
	return w.path
}
