package cart

import (
	"context"
	"time"
)

// DefaultPollInterval is how often Watch rereads the slot.
const DefaultPollInterval = 500 * time.Millisecond

// Watch polls the slot and sends the cart whenever it differs from the last
// one sent, starting with the current cart. It picks up writes made by other
// stores sharing the same slot. The channel closes when ctx is done.
func (s *Store) Watch(ctx context.Context, interval time.Duration) <-chan Mapping {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	out := make(chan Mapping, 1)

	go func() {
		defer close(out)

		t := time.NewTicker(interval)
		defer t.Stop()

		var last Mapping
		for {
			if m := s.Load(); last == nil || !m.Equal(last) {
				select {
				case out <- m.Clone():
					last = m
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
		}
	}()

	return out
}
