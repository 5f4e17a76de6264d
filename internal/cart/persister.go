package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Persister is the durable slot behind a Store. Load reports ok=false when the
// slot has never been written. Implementations must treat unreadable data as
// an error, not a panic; the store degrades to memory-only on failure.
type Persister interface {
	Load(ctx context.Context, key string) (lines []Line, ok bool, err error)
	Save(ctx context.Context, key string, lines []Line) error
}

// MemoryPersister keeps slots in process memory. Used in tests and as the
// fallback when no durable medium is configured.
type MemoryPersister struct {
	mu    sync.Mutex
	slots map[string][]Line
}

// NewMemoryPersister constructs an empty MemoryPersister.
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{slots: make(map[string][]Line)}
}

// Load returns the stored slot, if any.
func (m *MemoryPersister) Load(_ context.Context, key string) ([]Line, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines, ok := m.slots[key]
	if !ok {
		return nil, false, nil
	}
	return copyLines(lines), true, nil
}

// Save overwrites the slot.
func (m *MemoryPersister) Save(_ context.Context, key string, lines []Line) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[key] = copyLines(lines)
	return nil
}

// FilePersister writes each slot as a JSON file under a directory, one file
// per key. Writes go through a temp file and rename so a crash mid-write
// cannot corrupt the previous snapshot.
type FilePersister struct {
	dir string
}

// NewFilePersister constructs a FilePersister rooted at dir, creating it when
// missing.
func NewFilePersister(dir string) (*FilePersister, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, errors.New("cart file persister: directory is required")
	}
	if err := os.MkdirAll(trimmed, 0o755); err != nil {
		return nil, fmt.Errorf("cart file persister: create %s: %w", trimmed, err)
	}
	return &FilePersister{dir: trimmed}, nil
}

// Load reads and decodes the slot file. A missing file reports ok=false.
func (f *FilePersister) Load(_ context.Context, key string) ([]Line, bool, error) {
	raw, err := os.ReadFile(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var lines []Line
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, false, fmt.Errorf("cart file persister: decode slot %q: %w", key, err)
	}
	return lines, true, nil
}

// Save serialises the slot and replaces the file atomically.
func (f *FilePersister) Save(_ context.Context, key string, lines []Line) error {
	if lines == nil {
		lines = []Line{}
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("cart file persister: encode slot %q: %w", key, err)
	}

	target := f.path(key)
	tmp, err := os.CreateTemp(f.dir, filepath.Base(target)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), target)
}

func (f *FilePersister) path(key string) string {
	return filepath.Join(f.dir, slotFileName(key))
}

// slotFileName flattens a slot key into a safe file name.
func slotFileName(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String() + ".json"
}
