// Package cartsync coalesces rapid cart changes into one delayed write per user.
package cartsync

import (
	"hash/fnv"
	"sync"
	"time"
)

const stripes = 64

type pending struct {
	timer *time.Timer
	gen   uint64
	fn    func()
}

// Debouncer runs the last scheduled func for a key once no new Schedule
// call arrived for delay. Writes for the same key never run concurrently.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	gen     uint64
	pending map[string]*pending
	stopped bool

	running [stripes]sync.Mutex
}

func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay, pending: make(map[string]*pending)}
}

// Schedule replaces any pending func for key and restarts the delay.
// It reports false once the debouncer has been flushed for shutdown.
func (d *Debouncer) Schedule(key string, fn func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return false
	}

	if p, ok := d.pending[key]; ok {
		p.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending[key] = &pending{
		gen:   gen,
		fn:    fn,
		timer: time.AfterFunc(d.delay, func() { d.fire(key, gen) }),
	}
	return true
}

// Cancel drops the pending func for key, if any. A run already in progress
// is not waited for; use CancelAndDo when that matters.
func (d *Debouncer) Cancel(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.pending[key]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(d.pending, key)
	return true
}

// CancelAndDo drops the pending func for key, waits for a run of key that
// is already in progress, and calls fn under the same per-key lock. A timer
// that fires while fn runs finds nothing pending.
func (d *Debouncer) CancelAndDo(key string, fn func()) bool {
	l := &d.running[stripe(key)]
	l.Lock()
	defer l.Unlock()

	cancelled := d.Cancel(key)
	fn()
	return cancelled
}

func (d *Debouncer) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[key]
	return ok
}

// Flush runs every pending func now and rejects later Schedule calls.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	d.stopped = true
	var keys []string
	var fns []func()
	for k, p := range d.pending {
		p.timer.Stop()
		keys = append(keys, k)
		fns = append(fns, p.fn)
	}
	d.pending = make(map[string]*pending)
	d.mu.Unlock()

	for i, fn := range fns {
		d.run(keys[i], fn)
	}
}

func (d *Debouncer) fire(key string, gen uint64) {
	// 実行ロックを先に取る（CancelAndDoと順序をそろえる）
	l := &d.running[stripe(key)]
	l.Lock()
	defer l.Unlock()

	d.mu.Lock()
	p, ok := d.pending[key]
	// superseded or cancelled after the timer already fired
	if !ok || p.gen != gen {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.mu.Unlock()

	p.fn()
}

func (d *Debouncer) run(key string, fn func()) {
	l := &d.running[stripe(key)]
	l.Lock()
	defer l.Unlock()
	fn()
}

func stripe(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % stripes
}
