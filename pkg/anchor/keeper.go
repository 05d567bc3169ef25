// Package anchor implements scroll position preservation across appends.
// When trailing data is spliced into a collection mid-scroll, the engine's
// geometry changes and the viewport would visually jump; the Keeper captures
// a single-slot snapshot when a fetch cycle starts and restores the visual
// anchor once the new length is reflected.
package anchor

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/windrose-labs/infiniscroll/pkg/scroll"
)

// Prometheus metrics for anchor restores.
var (
	restoresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collection_scroll_restores_total",
		Help: "Scroll anchor restores by mode",
	}, []string{"mode"})
)

// Mode selects the restoration strategy.
type Mode string

const (
	// ModeSnap restores by reissuing a non-animated scroll to the
	// captured snap index.
	ModeSnap Mode = "snap"

	// ModeFree restores by recomputing the absolute offset from the
	// captured progress and the new scrollable extent.
	ModeFree Mode = "free"
)

// Snapshot is the captured visual anchor.
type Snapshot struct {
	// Progress is the scroll progress in [0, 1] at capture time.
	Progress float64

	// Index is the snap index at capture time.
	Index int
}

// Keeper owns the single snapshot slot for one collection. It is driven by
// three lifecycle calls per fetch cycle: CycleStarted, LengthChanged,
// CycleEnded.
type Keeper struct {
	mu     sync.Mutex
	mode   Mode
	handle *scroll.Handle
	logger zerolog.Logger
	snap   *Snapshot
}

// New creates a keeper. The engine is delivered later through the handle;
// until then capture and restore are skipped.
func New(mode Mode, handle *scroll.Handle, logger zerolog.Logger) *Keeper {
	return &Keeper{
		mode:   mode,
		handle: handle,
		logger: logger,
	}
}

// Mode returns the restoration mode.
func (k *Keeper) Mode() Mode {
	return k.mode
}

// CycleStarted captures the anchor for the fetch cycle that just began.
// Repeated calls within one cycle (renders re-observing the same transition)
// never re-capture: the slot holds the position from the cycle's first call.
func (k *Keeper) CycleStarted() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.snap != nil {
		return
	}

	engine := k.handle.Engine()
	if engine == nil {
		k.logger.Warn().Msg("Fetch cycle started before engine was provided, anchor skipped")
		return
	}

	k.snap = &Snapshot{
		Progress: engine.Progress(),
		Index:    engine.SelectedIndex(),
	}

	k.logger.Debug().
		Float64("progress", k.snap.Progress).
		Int("index", k.snap.Index).
		Msg("Anchor captured")
}

// LengthChanged restores the anchor after the sequence grew. It does nothing
// without a live snapshot or when the length did not increase. The engine is
// told to re-measure its geometry after either restoration path.
func (k *Keeper) LengthChanged(oldLen, newLen int) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.snap == nil || newLen <= oldLen {
		return
	}

	engine := k.handle.Engine()
	if engine == nil {
		return
	}

	switch k.mode {
	case ModeFree:
		engine.SetOffset(k.snap.Progress * engine.ScrollExtent())
	default:
		engine.ScrollTo(k.snap.Index, false)
	}
	engine.Reinit()

	restoresTotal.WithLabelValues(string(k.mode)).Inc()
	k.logger.Debug().
		Str("mode", string(k.mode)).
		Int("old_len", oldLen).
		Int("new_len", newLen).
		Msg("Anchor restored")
}

// CycleEnded clears the snapshot slot unconditionally, success or failure, so
// no snapshot ever applies across unrelated fetch cycles.
func (k *Keeper) CycleEnded() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.snap = nil
}

// Current returns the live snapshot, if any.
func (k *Keeper) Current() (Snapshot, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.snap == nil {
		return Snapshot{}, false
	}
	return *k.snap, true
}
