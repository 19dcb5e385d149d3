package session

import (
	"sync"
	"time"

	"github.com/PFEPLTechHub/document-bot/internal/clock"
)

// Debouncer runs fire(key) once a key has been quiet for the window. Each Touch
// cancels and replaces the key's pending run.
type Debouncer struct {
	mu      sync.Mutex
	clock   clock.Clock
	window  time.Duration
	maxWait time.Duration
	fire    func(key string)
	seq     uint64
	entries map[string]*debounceEntry
}

type debounceEntry struct {
	timer clock.Timer
	gen   uint64
	first time.Time
}

// NewDebouncer returns a debouncer. maxWait > 0 caps how long a continuous burst can
// postpone the run, measured from the first touch.
func NewDebouncer(c clock.Clock, window, maxWait time.Duration, fire func(key string)) *Debouncer {
	if c == nil {
		c = clock.Real{}
	}
	return &Debouncer{
		clock:   c,
		window:  window,
		maxWait: maxWait,
		fire:    fire,
		entries: make(map[string]*debounceEntry),
	}
}

func (d *Debouncer) Touch(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Now()
	entry, ok := d.entries[key]
	if ok {
		entry.timer.Stop()
	} else {
		entry = &debounceEntry{first: now}
		d.entries[key] = entry
	}

	delay := d.window
	if d.maxWait > 0 {
		if left := entry.first.Add(d.maxWait).Sub(now); left < delay {
			delay = max(left, 0)
		}
	}

	d.seq++
	gen := d.seq
	entry.gen = gen
	entry.timer = d.clock.AfterFunc(delay, func() { d.run(key, gen) })
}

func (d *Debouncer) run(key string, gen uint64) {
	d.mu.Lock()
	entry, ok := d.entries[key]
	if !ok || entry.gen != gen {
		// superseded or cancelled after the timer had already fired
		d.mu.Unlock()
		return
	}
	delete(d.entries, key)
	d.mu.Unlock()

	d.fire(key)
}

// Cancel drops the pending run for key. It reports whether one was scheduled.
func (d *Debouncer) Cancel(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry, ok := d.entries[key]
	if !ok {
		return false
	}
	entry.timer.Stop()
	delete(d.entries, key)
	return true
}

func (d *Debouncer) Scheduled(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.entries[key]
	return ok
}
