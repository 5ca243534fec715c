package runloop

import "time"

// Ticker calls a callback at a fixed interval while active.
//
// A ticker fires at most once per Pump. If the loop falls behind, missed
// intervals are skipped rather than replayed.
type Ticker struct {
	loop     *Loop
	interval time.Duration
	callback func()

	// guarded by loop.mu
	active bool
	next   time.Time
}

// NewTicker creates an inactive ticker on l.
func (l *Loop) NewTicker(interval time.Duration, callback func()) *Ticker {
	if interval <= 0 {
		interval = l.resolution
	}
	return &Ticker{
		loop:     l,
		interval: interval,
		callback: callback,
	}
}

// Interval returns the ticker interval.
func (t *Ticker) Interval() time.Duration {
	return t.interval
}

// Start activates the ticker. The first firing is one interval from now.
func (t *Ticker) Start() {
	l := t.loop
	l.mu.Lock()
	defer l.mu.Unlock()
	if t.active {
		return
	}
	t.active = true
	t.next = l.clock.Now().Add(t.interval)
	l.tickers = append(l.tickers, t)
}

// Stop deactivates the ticker. Safe to call more than once.
func (t *Ticker) Stop() {
	l := t.loop
	l.mu.Lock()
	defer l.mu.Unlock()
	if !t.active {
		return
	}
	t.active = false
	for i, other := range l.tickers {
		if other == t {
			l.tickers = append(l.tickers[:i], l.tickers[i+1:]...)
			break
		}
	}
}

// IsActive reports whether the ticker is running.
func (t *Ticker) IsActive() bool {
	t.loop.mu.Lock()
	defer t.loop.mu.Unlock()
	return t.active
}
