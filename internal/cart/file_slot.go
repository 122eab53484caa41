package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type fileEntry struct {
	Value   string    `json:"value"`
	Expires time.Time `json:"expires"`
}

// FileSlot stores named slots in a small JSON jar on disk, so separate
// processes on one machine share a cart the way tabs share a cookie.
// Writes replace the whole file atomically.
type FileSlot struct {
	path string
	name string
	now  func() time.Time

	mu sync.Mutex
}

func NewFileSlot(path, name string) *FileSlot {
	if name == "" {
		name = SlotName
	}
	return &FileSlot{path: path, name: name, now: time.Now}
}

func (s *FileSlot) Read() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jar, err := s.readJar()
	if err != nil {
		return "", false
	}
	e, ok := jar[s.name]
	if !ok || !s.now().Before(e.Expires) {
		return "", false
	}
	return e.Value, true
}

func (s *FileSlot) Write(value string, expires time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jar, err := s.readJar()
	if err != nil {
		// an unreadable jar is replaced
		jar = map[string]fileEntry{}
	}
	jar[s.name] = fileEntry{Value: value, Expires: expires.UTC()}

	data, err := json.MarshalIndent(jar, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create slot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".cart-*")
	if err != nil {
		return fmt.Errorf("create slot temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write slot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write slot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace slot file: %w", err)
	}
	return nil
}

func (s *FileSlot) readJar() (map[string]fileEntry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]fileEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	jar := map[string]fileEntry{}
	if err := json.Unmarshal(data, &jar); err != nil {
		return nil, err
	}
	return jar, nil
}
