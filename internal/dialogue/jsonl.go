package dialogue

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// maxLineBytes bounds a single serialized item. Conversations run a few
// kilobytes; 16 MiB leaves generous headroom.
const maxLineBytes = 16 << 20

// Writer streams items to a JSON Lines file as they arrive, so a crashed
// run keeps everything written before the crash. Close flushes and syncs.
type Writer struct {
	f   *os.File
	buf *bufio.Writer
	enc *json.Encoder
	n   int
}

// NewWriter creates (or truncates) the file at path, creating parent
// directories as needed.
func NewWriter(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	buf := bufio.NewWriter(f)
	return &Writer{f: f, buf: buf, enc: json.NewEncoder(buf)}, nil
}

// Write appends one item as a single line.
func (w *Writer) Write(item Item) error {
	if err := w.enc.Encode(item); err != nil {
		return fmt.Errorf("encode item: %w", err)
	}
	w.n++
	return nil
}

// Count returns how many items have been written.
func (w *Writer) Count() int { return w.n }

// Close flushes buffered lines and syncs the file to disk.
func (w *Writer) Close() error {
	if err := w.buf.Flush(); err != nil {
		w.f.Close()
		return fmt.Errorf("flush: %w", err)
	}
	if err := w.f.Sync(); err != nil {
		w.f.Close()
		return fmt.Errorf("sync: %w", err)
	}
	return w.f.Close()
}

// WriteFile writes all items to path as JSON Lines, replacing any
// existing file.
func WriteFile(path string, items []Item) error {
	w, err := NewWriter(path)
	if err != nil {
		return err
	}
	for _, it := range items {
		if err := w.Write(it); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}

// ReadFile loads every item from a JSON Lines file. Blank lines are
// skipped; a malformed line fails the whole read with its line number.
func ReadFile(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var items []Item
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var it Item
		if err := json.Unmarshal([]byte(line), &it); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		items = append(items, it)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return items, nil
}
