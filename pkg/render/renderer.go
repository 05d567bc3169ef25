// Package render implements the collection renderer. Given a pagination
// status and the loaded sequence, it produces exactly one of three mutually
// exclusive layouts and computes where the interior sentinel and the trailing
// loading slots go.
//
// The sentinel and the trailing placeholders are deliberately two independent
// branches: the sentinel is the invisible fetch trigger placed back from the
// end of the sequence, the trailing placeholders are the visible "more is
// coming" affordance shown while a follow-up page is in flight.
package render

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/windrose-labs/infiniscroll/pkg/paginate"
)

// Configuration errors. All of them abort construction; none are clamped.
var (
	// ErrTriggerOffsetRange is returned when TriggerOffset is outside
	// [0, PageSize].
	ErrTriggerOffsetRange = errors.New("trigger offset must be within [0, page size]")

	// ErrLoadingCount is returned for a negative loading slot count.
	ErrLoadingCount = errors.New("loading count must be >= 0")

	// ErrPageSize is returned when the page size is not positive.
	ErrPageSize = errors.New("page size must be >= 1")

	// ErrMissingPrimitive is returned when a render primitive is nil.
	ErrMissingPrimitive = errors.New("render primitive is required")
)

// Layout identifies which of the three mutually exclusive layouts applies.
type Layout string

const (
	// LayoutLoading shows placeholder slots during the initial load.
	LayoutLoading Layout = "loading"

	// LayoutEmpty shows the empty-state output.
	LayoutEmpty Layout = "empty"

	// LayoutItems shows the loaded sequence.
	LayoutItems Layout = "items"
)

// SlotKind identifies what occupies a slot in the rendered sequence.
type SlotKind string

const (
	SlotItem        SlotKind = "item"
	SlotSentinel    SlotKind = "sentinel"
	SlotPlaceholder SlotKind = "placeholder"
	SlotEmpty       SlotKind = "empty"
)

// Slot is one entry of the rendered sequence.
type Slot[R any] struct {
	Kind SlotKind

	// Value is the caller-rendered output. Zero for sentinel slots.
	Value R

	// ItemIndex is the index into the loaded sequence for item slots,
	// -1 otherwise.
	ItemIndex int
}

// Output is one render pass.
type Output[R any] struct {
	Layout Layout

	// Slots is the full rendered sequence, in order.
	Slots []Slot[R]

	// Sentinel is the slot index of the sentinel, or -1 when absent.
	Sentinel int
}

// Primitives are the caller-supplied pure render functions.
type Primitives[T, R any] struct {
	// Item renders one loaded item.
	Item func(item T, index int) R

	// LoadingSlot renders one placeholder slot.
	LoadingSlot func() R

	// Empty renders the empty-state output.
	Empty func() R
}

// Config holds renderer configuration.
type Config struct {
	// TriggerOffset is the distance, in items, back from the end of the
	// sequence where the sentinel is placed. Must be within [0, PageSize].
	TriggerOffset int

	// LoadingCount is the number of placeholder slots rendered during the
	// initial load and while fetching more.
	LoadingCount int

	// PageSize bounds TriggerOffset and matches the controller's page size.
	PageSize int
}

// DefaultConfig returns a sensible renderer configuration.
func DefaultConfig() Config {
	return Config{
		TriggerOffset: 3,
		LoadingCount:  4,
		PageSize:      10,
	}
}

// Renderer computes layouts for one collection.
type Renderer[T, R any] struct {
	cfg  Config
	prim Primitives[T, R]
}

// New validates the configuration once, at setup. An out-of-range
// TriggerOffset is a configuration error, never silently clamped.
func New[T, R any](cfg Config, prim Primitives[T, R]) (*Renderer[T, R], error) {
	if cfg.PageSize < 1 {
		return nil, fmt.Errorf("%w (got %d)", ErrPageSize, cfg.PageSize)
	}
	if cfg.TriggerOffset < 0 || cfg.TriggerOffset > cfg.PageSize {
		return nil, fmt.Errorf("%w (offset %d, page size %d)", ErrTriggerOffsetRange, cfg.TriggerOffset, cfg.PageSize)
	}
	if cfg.LoadingCount < 0 {
		return nil, fmt.Errorf("%w (got %d)", ErrLoadingCount, cfg.LoadingCount)
	}
	if prim.Item == nil || prim.LoadingSlot == nil || prim.Empty == nil {
		return nil, ErrMissingPrimitive
	}

	return &Renderer[T, R]{cfg: cfg, prim: prim}, nil
}

// Config returns the validated configuration.
func (r *Renderer[T, R]) Config() Config {
	return r.cfg
}

// Render produces the layout for the given status and sequence. items must be
// the controller's sequence matching st; the renderer tolerates it shrinking
// back to zero after a parameter reset.
func (r *Renderer[T, R]) Render(st paginate.Status, items []T) Output[R] {
	if st.InitialLoading {
		return Output[R]{
			Layout:   LayoutLoading,
			Slots:    r.placeholders(),
			Sentinel: -1,
		}
	}

	if len(items) == 0 {
		return Output[R]{
			Layout: LayoutEmpty,
			Slots: []Slot[R]{{
				Kind:      SlotEmpty,
				Value:     r.prim.Empty(),
				ItemIndex: -1,
			}},
			Sentinel: -1,
		}
	}

	// The sentinel appears only while forward pagination is possible;
	// fetching or errored collections must not invite another fetch.
	sentinelAt := -1
	if st.HasNext && !st.Fetching && st.Err == nil {
		sentinelAt = len(items) - r.cfg.TriggerOffset
	}

	capacity := len(items) + 1 + r.cfg.LoadingCount
	out := Output[R]{
		Layout:   LayoutItems,
		Slots:    make([]Slot[R], 0, capacity),
		Sentinel: -1,
	}

	for i, item := range items {
		if i == sentinelAt {
			out.Sentinel = len(out.Slots)
			out.Slots = append(out.Slots, Slot[R]{Kind: SlotSentinel, ItemIndex: -1})
		}
		out.Slots = append(out.Slots, Slot[R]{
			Kind:      SlotItem,
			Value:     r.prim.Item(item, i),
			ItemIndex: i,
		})
	}
	if sentinelAt == len(items) {
		out.Sentinel = len(out.Slots)
		out.Slots = append(out.Slots, Slot[R]{Kind: SlotSentinel, ItemIndex: -1})
	}

	if st.Fetching {
		out.Slots = append(out.Slots, r.placeholders()...)
	}

	return out
}

func (r *Renderer[T, R]) placeholders() []Slot[R] {
	return lo.Times(r.cfg.LoadingCount, func(int) Slot[R] {
		return Slot[R]{
			Kind:      SlotPlaceholder,
			Value:     r.prim.LoadingSlot(),
			ItemIndex: -1,
		}
	})
}
