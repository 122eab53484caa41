package feed

import "sync"

type observation struct {
	index   int
	fn      func()
	visible bool
}

// Viewport is a window of rows over a list. It implements Signal: an observed
// index counts as in view when it lies within margin rows of the window.
type Viewport struct {
	mu     sync.Mutex
	rows   int
	margin int
	top    int
	total  int

	obs  map[int]*observation
	next int
}

func NewViewport(rows, margin int) *Viewport {
	if rows < 1 {
		rows = 1
	}
	if margin < 0 {
		margin = 0
	}
	return &Viewport{rows: rows, margin: margin, obs: map[int]*observation{}}
}

func (v *Viewport) Observe(index int, fn func()) (stop func()) {
	v.mu.Lock()
	id := v.next
	v.next++
	o := &observation{index: index, fn: fn}
	v.obs[id] = o
	fire := v.entered()
	v.mu.Unlock()

	run(fire)

	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.obs, id)
	}
}

// Scroll moves the window by delta rows, clamped to the list.
func (v *Viewport) Scroll(delta int) {
	v.mu.Lock()
	v.top = v.clamp(v.top + delta)
	fire := v.entered()
	v.mu.Unlock()

	run(fire)
}

// SetTotal records the list length, which bounds scrolling.
func (v *Viewport) SetTotal(n int) {
	v.mu.Lock()
	v.total = n
	v.top = v.clamp(v.top)
	fire := v.entered()
	v.mu.Unlock()

	run(fire)
}

// Window returns the half-open range of rows on screen.
func (v *Viewport) Window() (from, to int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	to = v.top + v.rows
	if to > v.total {
		to = v.total
	}
	return v.top, to
}

func (v *Viewport) clamp(top int) int {
	maxTop := v.total - v.rows
	if top > maxTop {
		top = maxTop
	}
	if top < 0 {
		top = 0
	}
	return top
}

func (v *Viewport) inView(index int) bool {
	return index >= v.top-v.margin && index < v.top+v.rows+v.margin
}

// entered updates visibility and returns the callbacks of observations that
// just came into view. Callers run them after unlocking.
func (v *Viewport) entered() []func() {
	var fire []func()
	for _, o := range v.obs {
		in := v.inView(o.index)
		if in && !o.visible {
			fire = append(fire, o.fn)
		}
		o.visible = in
	}
	return fire
}

func run(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}
