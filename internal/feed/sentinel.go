package feed

import (
	"context"
	"errors"
	"sync"
)

// Signal notifies when the item at index comes into view. Observe fires fn
// each time the item enters, including right away when it is already
// visible. stop ends the observation.
type Signal interface {
	Observe(index int, fn func()) (stop func())
}

type sentinel struct {
	bindMu sync.Mutex
	signal Signal
	ctx    context.Context
	stop   func()
	gen    int

	// live is the generation triggers may start work for, 0 when unbound.
	// trigMu orders wg.Add against Unbind so Wait never races an Add.
	trigMu sync.Mutex
	live   int
	wg     sync.WaitGroup
}

// Bind observes the last loaded item on sig and advances the feed whenever it
// comes into view. Advances run in the background with ctx.
func (f *Feed) Bind(ctx context.Context, sig Signal) {
	f.bindMu.Lock()
	f.signal = sig
	f.ctx = ctx
	f.bindMu.Unlock()

	f.rebind()
}

// Unbind stops observing. Triggers that were already running finish, but
// nothing is observed afterwards.
func (f *Feed) Unbind() {
	f.bindMu.Lock()
	defer f.bindMu.Unlock()

	if f.stop != nil {
		f.stop()
		f.stop = nil
	}
	f.signal = nil
	f.gen++
	f.setLive(0)
}

// Wait blocks until background advances finish. Call it after Unbind.
func (f *Feed) Wait() {
	f.wg.Wait()
}

// rebind moves the observation to the current last item.
func (f *Feed) rebind() {
	f.bindMu.Lock()
	defer f.bindMu.Unlock()

	if f.signal == nil {
		return
	}
	if f.stop != nil {
		f.stop()
		f.stop = nil
	}

	n := f.Len()
	if n == 0 {
		f.setLive(0)
		return
	}

	f.gen++
	gen := f.gen
	f.setLive(gen)
	f.stop = f.signal.Observe(n-1, func() { f.trigger(gen) })
}

func (f *Feed) setLive(gen int) {
	f.trigMu.Lock()
	f.live = gen
	f.trigMu.Unlock()
}

// trigger starts a background advance for an observation of generation gen.
// It reports false without starting anything when gen is stale or the feed
// was unbound. It may run while rebind holds bindMu, so it only takes trigMu.
func (f *Feed) trigger(gen int) bool {
	f.trigMu.Lock()
	if f.live != gen {
		f.trigMu.Unlock()
		return false
	}
	f.wg.Add(1)
	f.trigMu.Unlock()

	go func() {
		defer f.wg.Done()

		f.bindMu.Lock()
		current := f.signal != nil && f.gen == gen
		ctx := f.ctx
		f.bindMu.Unlock()
		if !current {
			return
		}

		issued, err := f.Advance(ctx)
		switch {
		case errors.Is(err, ErrExhausted):
		case err != nil:
			f.log.Warn().Err(err).Msg("advance from sentinel failed")
		case !issued:
			f.log.Debug().Msg("sentinel fired while loading")
		}
	}()
	return true
}
