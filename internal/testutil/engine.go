package testutil

import "sync"

// ScrollToCall records one ScrollTo invocation on the fake engine.
type ScrollToCall struct {
	Index   int
	Animate bool
}

// FakeEngine is a scripted scroll.Engine. Geometry fields are set by the
// test; every mutating call is recorded.
type FakeEngine struct {
	mu sync.Mutex

	selected int
	progress float64
	extent   float64
	offset   float64

	// Tracking
	ScrollToCalls  []ScrollToCall
	SetOffsetCalls []float64
	ReinitCount    int
}

// NewFakeEngine returns a fake engine with the given scrollable extent.
func NewFakeEngine(extent float64) *FakeEngine {
	return &FakeEngine{extent: extent}
}

// SetPosition scripts the current snap index and progress.
func (e *FakeEngine) SetPosition(index int, progress float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selected = index
	e.progress = progress
	e.offset = progress * e.extent
}

// SetExtent scripts the scrollable extent, as after an append grew it.
func (e *FakeEngine) SetExtent(extent float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.extent = extent
}

// ScrollTo implements scroll.Engine.
func (e *FakeEngine) ScrollTo(index int, animate bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selected = index
	e.ScrollToCalls = append(e.ScrollToCalls, ScrollToCall{Index: index, Animate: animate})
}

// SelectedIndex implements scroll.Engine.
func (e *FakeEngine) SelectedIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected
}

// Progress implements scroll.Engine.
func (e *FakeEngine) Progress() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progress
}

// ScrollExtent implements scroll.Engine.
func (e *FakeEngine) ScrollExtent() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.extent
}

// Offset implements scroll.Engine.
func (e *FakeEngine) Offset() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.offset
}

// SetOffset implements scroll.Engine.
func (e *FakeEngine) SetOffset(px float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.offset = px
	if e.extent > 0 {
		e.progress = px / e.extent
	}
	e.SetOffsetCalls = append(e.SetOffsetCalls, px)
}

// Reinit implements scroll.Engine.
func (e *FakeEngine) Reinit() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ReinitCount++
}

// Reinits returns how many times Reinit was called.
func (e *FakeEngine) Reinits() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ReinitCount
}

// LastScrollTo returns the most recent ScrollTo call, or false if none.
func (e *FakeEngine) LastScrollTo() (ScrollToCall, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.ScrollToCalls) == 0 {
		return ScrollToCall{}, false
	}
	return e.ScrollToCalls[len(e.ScrollToCalls)-1], true
}
