package cart

import (
	"sync"
	"time"
)

// Slot is a named, expiring string cell holding the encoded cart, the way a
// browser cookie does. Read reports false when the slot is absent or expired.
type Slot interface {
	Read() (string, bool)
	Write(value string, expires time.Time) error
}

// MemorySlot keeps the value in process. It is what tests and single-process
// callers without a cookie jar use.
type MemorySlot struct {
	mu      sync.Mutex
	value   string
	expires time.Time
	set     bool
	now     func() time.Time
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{now: time.Now}
}

func (s *MemorySlot) Read() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set || !s.now().Before(s.expires) {
		return "", false
	}
	return s.value, true
}

func (s *MemorySlot) Write(value string, expires time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value, s.expires, s.set = value, expires, true
	return nil
}
