// Package store persists mind-map records to disk or memory.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"treemind/internal/mindmap"
)

// Store loads records and accepts every save from a tree.
type Store interface {
	mindmap.Saver
	Load() ([]mindmap.Record, error)
}

type Format int

const (
	FormatLines Format = iota
	FormatYAML
)

func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "lines"
}

// FormatFor picks the encoding from a file extension.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatLines
}

func Encode(w io.Writer, f Format, records []mindmap.Record) error {
	if f == FormatYAML {
		return encodeYAML(w, records)
	}
	return encodeLines(w, records)
}

func Decode(r io.Reader, f Format) ([]mindmap.Record, error) {
	if f == FormatYAML {
		return decodeYAML(r)
	}
	return decodeLines(r)
}

// File keeps a tree in one file. Saves replace the file atomically.
type File struct {
	Path   string
	Format Format
}

func NewFile(path string) *File {
	return &File{Path: path, Format: FormatFor(path)}
}

// Load reads the file. A missing file yields no records.
func (f *File) Load() ([]mindmap.Record, error) {
	file, err := os.Open(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := Decode(file, f.Format)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", f.Path, err)
	}
	return records, nil
}

func (f *File) Save(records []mindmap.Record) error {
	var buf bytes.Buffer
	if err := Encode(&buf, f.Format, records); err != nil {
		return fmt.Errorf("encode %s: %w", f.Path, err)
	}
	return writeAtomic(f.Path, buf.Bytes())
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}

// Memory keeps the last saved records. Safe for concurrent use.
type Memory struct {
	mu      sync.Mutex
	records []mindmap.Record
	saves   int
	fail    error
}

func NewMemory(records []mindmap.Record) *Memory {
	return &Memory{records: append([]mindmap.Record(nil), records...)}
}

func (m *Memory) Load() ([]mindmap.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mindmap.Record(nil), m.records...), nil
}

func (m *Memory) Save(records []mindmap.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.records = append(m.records[:0:0], records...)
	m.saves++
	return nil
}

// Saves counts successful saves.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// FailWith makes every later Save return err; nil heals the store.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	m.fail = err
	m.mu.Unlock()
}
