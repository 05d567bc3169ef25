// Package trigger implements the visibility trigger: a sentinel region
// watched against a viewport, firing a callback when its visible intersection
// ratio crosses a threshold. An early-trigger margin expands the viewport so
// the callback fires before the region is actually on-screen.
package trigger

import (
	"sync"

	"github.com/rs/zerolog"
)

// Region is a span along the scroll axis, in pixels.
type Region struct {
	Start float64
	End   float64
}

// Size returns the region length.
func (r Region) Size() float64 {
	return r.End - r.Start
}

// Ratio returns the fraction of region visible within viewport after the
// viewport has been expanded by margin on both ends. A zero-size region is
// treated as a point: fully visible or not at all.
func Ratio(region, viewport Region, margin float64) float64 {
	lo := viewport.Start - margin
	hi := viewport.End + margin

	if region.Size() <= 0 {
		if region.Start >= lo && region.Start <= hi {
			return 1
		}
		return 0
	}

	start := max(region.Start, lo)
	end := min(region.End, hi)
	if end <= start {
		return 0
	}

	return (end - start) / region.Size()
}

// ObserveOptions configures a viewport subscription.
type ObserveOptions struct {
	// Threshold is the intersection ratio at which the subscription fires.
	Threshold float64

	// Margin is the early-trigger distance in pixels.
	Margin float64
}

// Viewport delivers intersection callbacks for watched regions. A concrete
// viewport invokes fn every time the region's ratio crosses the threshold
// from below. The returned cancel stops delivery; implementations must not
// invoke fn after cancel returns.
type Viewport interface {
	Observe(region Region, opts ObserveOptions, fn func()) (cancel func())
}

// Options configures a Trigger.
type Options struct {
	// Enabled gates firing entirely. A disabled trigger holds no
	// subscription.
	Enabled bool

	// Threshold is the intersection ratio that fires the trigger.
	Threshold float64

	// Margin is the early-trigger margin in pixels.
	Margin float64

	// OnIntersect is invoked on each qualifying crossing.
	OnIntersect func()
}

// Trigger owns at most one viewport subscription and guards it against stale
// fires: once the trigger is rebound, disabled, or closed, callbacks from a
// superseded subscription are dropped before they reach OnIntersect. This is
// what keeps a torn-down collection from issuing zombie fetches.
type Trigger struct {
	mu        sync.Mutex
	viewport  Viewport
	logger    zerolog.Logger
	region    Region
	hasRegion bool
	opts      Options
	seq       uint64
	cancel    func()
	closed    bool
}

// New creates a trigger bound to viewport. A nil viewport yields an inert
// trigger: Bind and Update succeed but nothing ever fires. The region never
// attaching is not an error.
func New(viewport Viewport, logger zerolog.Logger) *Trigger {
	return &Trigger{
		viewport: viewport,
		logger:   logger,
	}
}

// Bind points the trigger at a region and applies opts, re-subscribing if the
// region, margin, threshold, or enabled flag changed. The callback is always
// read at fire time, so replacing it never requires a new subscription and a
// replaced callback can never fire.
func (t *Trigger) Bind(region Region, opts Options) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}

	same := t.hasRegion &&
		t.region == region &&
		t.opts.Enabled == opts.Enabled &&
		t.opts.Threshold == opts.Threshold &&
		t.opts.Margin == opts.Margin

	t.region = region
	t.hasRegion = true
	t.opts = opts

	if same {
		return
	}

	t.resubscribeLocked()
}

// Update re-applies options against the current region.
func (t *Trigger) Update(opts Options) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || !t.hasRegion {
		t.opts = opts
		return
	}

	same := t.opts.Enabled == opts.Enabled &&
		t.opts.Threshold == opts.Threshold &&
		t.opts.Margin == opts.Margin

	t.opts = opts
	if same {
		return
	}

	t.resubscribeLocked()
}

// Close tears the trigger down. No invocation of OnIntersect can happen after
// Close returns, even if the viewport still holds a callback reference.
func (t *Trigger) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	t.seq++
	t.cancelLocked()
}

// resubscribeLocked replaces the active subscription with one matching the
// current region and options.
func (t *Trigger) resubscribeLocked() {
	t.seq++
	t.cancelLocked()

	if t.viewport == nil || !t.opts.Enabled {
		return
	}

	seq := t.seq
	region := t.region
	observeOpts := ObserveOptions{
		Threshold: t.opts.Threshold,
		Margin:    t.opts.Margin,
	}

	t.cancel = t.viewport.Observe(region, observeOpts, func() {
		t.fire(seq)
	})

	t.logger.Debug().
		Float64("region_start", region.Start).
		Float64("region_end", region.End).
		Float64("margin", observeOpts.Margin).
		Msg("Trigger subscribed")
}

func (t *Trigger) cancelLocked() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

// fire delivers a viewport callback to OnIntersect unless the subscription
// that produced it has been superseded.
func (t *Trigger) fire(seq uint64) {
	t.mu.Lock()
	if t.closed || seq != t.seq || !t.opts.Enabled {
		t.mu.Unlock()
		return
	}
	fn := t.opts.OnIntersect
	t.mu.Unlock()

	if fn != nil {
		fn()
	}
}
