package testutil

import (
	"sync"

	"github.com/windrose-labs/infiniscroll/pkg/trigger"
)

type viewportSub struct {
	region trigger.Region
	opts   trigger.ObserveOptions
	fn     func()
}

// FakeViewport is a scripted trigger.Viewport. Crossings are driven by the
// test, either unconditionally via Cross or geometrically via ScrollWindow.
type FakeViewport struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]viewportSub

	// Tracking
	ObserveCount int
	CancelCount  int
}

// NewFakeViewport creates an empty viewport.
func NewFakeViewport() *FakeViewport {
	return &FakeViewport{subs: make(map[int]viewportSub)}
}

// Observe implements trigger.Viewport.
func (v *FakeViewport) Observe(region trigger.Region, opts trigger.ObserveOptions, fn func()) (cancel func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.ObserveCount++
	id := v.nextID
	v.nextID++
	v.subs[id] = viewportSub{region: region, opts: opts, fn: fn}

	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		if _, ok := v.subs[id]; ok {
			delete(v.subs, id)
			v.CancelCount++
		}
	}
}

// Cross fires every active subscription regardless of geometry.
func (v *FakeViewport) Cross() {
	for _, fn := range v.callbacks(trigger.Region{}, false) {
		fn()
	}
}

// ScrollWindow fires the subscriptions whose region intersects the given
// visible window at or above their threshold, margin included.
func (v *FakeViewport) ScrollWindow(visible trigger.Region) {
	for _, fn := range v.callbacks(visible, true) {
		fn()
	}
}

// ActiveCount returns the number of live subscriptions.
func (v *FakeViewport) ActiveCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.subs)
}

// LastRegion returns the region of the most recent subscription.
func (v *FakeViewport) LastRegion() (trigger.Region, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(v.subs) == 0 {
		return trigger.Region{}, false
	}

	lastID := -1
	for id := range v.subs {
		if id > lastID {
			lastID = id
		}
	}
	return v.subs[lastID].region, true
}

// callbacks snapshots the matching callbacks so firing happens outside the
// lock; a callback may re-enter Observe.
func (v *FakeViewport) callbacks(visible trigger.Region, geometric bool) []func() {
	v.mu.Lock()
	defer v.mu.Unlock()

	var fns []func()
	for _, sub := range v.subs {
		if geometric {
			ratio := trigger.Ratio(sub.region, visible, sub.opts.Margin)
			if ratio <= 0 || ratio < sub.opts.Threshold {
				continue
			}
		}
		fns = append(fns, sub.fn)
	}
	return fns
}
