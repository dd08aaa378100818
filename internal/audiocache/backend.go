package audiocache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry is the stored record for one synthesized clip.
type Entry struct {
	Path      string    `json:"path"`
	Duration  float64   `json:"duration"`
	Text      string    `json:"text"`
	Voice     string    `json:"voice"`
	CreatedAt time.Time `json:"created_at"`
}

type Backend interface {
	Get(key string) (Entry, bool, error)
	Put(key string, e Entry) error
}

type MemoryBackend struct {
	mu      sync.Mutex
	entries map[string]Entry
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: map[string]Entry{}}
}

func (m *MemoryBackend) Get(key string) (Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	return e, ok, nil
}

func (m *MemoryBackend) Put(key string, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = e
	return nil
}

func (m *MemoryBackend) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// DirBackend keeps one JSON sidecar per key. An entry whose audio file is
// gone reads as a miss.
type DirBackend struct {
	dir string
}

func NewDirBackend(dir string) *DirBackend {
	return &DirBackend{dir: dir}
}

func (d *DirBackend) sidecar(key string) string {
	return filepath.Join(d.dir, key+".json")
}

func (d *DirBackend) Get(key string) (Entry, bool, error) {
	b, err := os.ReadFile(d.sidecar(key))
	if errors.Is(err, os.ErrNotExist) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("read cache entry: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		// corrupt sidecar, resynthesize
		return Entry{}, false, nil
	}
	if _, err := os.Stat(e.Path); err != nil {
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (d *DirBackend) Put(key string, e Entry) error {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	tmp := d.sidecar(key) + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, d.sidecar(key))
}
