// Package scroll defines the boundary to the underlying scroll/snap physics
// engine. The collection controller drives an Engine but never implements
// one; fakes stand in for it in tests.
package scroll

// Engine is the scroll engine surface the controller depends on. All
// positions are along a single scrollable axis.
type Engine interface {
	// ScrollTo scrolls to the item at index, optionally animated.
	ScrollTo(index int, animate bool)

	// SelectedIndex returns the current snap index.
	SelectedIndex() int

	// Progress returns the scroll progress in [0, 1].
	Progress() float64

	// ScrollExtent returns the total scrollable extent in pixels.
	ScrollExtent() float64

	// Offset returns the current absolute scroll offset in pixels.
	Offset() float64

	// SetOffset moves to an absolute scroll offset without animation.
	SetOffset(px float64)

	// Reinit forces the engine to re-measure its geometry. Must be called
	// after the rendered sequence changes length.
	Reinit()
}
