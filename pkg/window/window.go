// Package window assembles the windowed infinite-loading collection: the
// pagination controller feeds the renderer, the renderer's sentinel slot is
// bound to a visibility trigger whose crossing fetches the next page, and the
// anchor keeper rides the fetch cycle to preserve the visual scroll position
// across appends. Motion behaviors are resolved separately and handed to the
// engine assembly by the caller.
package window

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/windrose-labs/infiniscroll/pkg/anchor"
	"github.com/windrose-labs/infiniscroll/pkg/behavior"
	"github.com/windrose-labs/infiniscroll/pkg/paginate"
	"github.com/windrose-labs/infiniscroll/pkg/render"
	"github.com/windrose-labs/infiniscroll/pkg/scroll"
	"github.com/windrose-labs/infiniscroll/pkg/source"
	"github.com/windrose-labs/infiniscroll/pkg/trigger"
)

// Config holds the full configuration surface of one collection window.
type Config[T, R any] struct {
	// Source is the paginated data source. Required.
	Source source.PageSource[T]

	// Render configures layout: trigger offset, loading count, page size.
	Render render.Config

	// Primitives are the caller's render functions.
	Primitives render.Primitives[T, R]

	// Viewport delivers sentinel visibility callbacks. Nil disables
	// trigger-driven prefetch (manual FetchNext still works).
	Viewport trigger.Viewport

	// RootMargin is the early-trigger distance, in the same units as the
	// viewport's regions.
	RootMargin float64

	// ItemExtent is the extent of one rendered slot along the scroll
	// axis, used to place the sentinel region. Defaults to 1.
	ItemExtent float64

	// AnchorMode selects the scroll restoration strategy. Defaults to
	// snap mode.
	AnchorMode anchor.Mode

	// Behaviors is the declarative motion surface. Validated at
	// construction.
	Behaviors behavior.Config

	// OnChange, when set, is invoked after every controller transition.
	// Hosts typically re-render from it.
	OnChange func(paginate.Status)

	// Logger logs window lifecycle. Defaults to a disabled logger.
	Logger zerolog.Logger
}

// Window is one mounted collection.
type Window[T, R any] struct {
	ctrl     *paginate.Controller[T]
	renderer *render.Renderer[T, R]
	trig     *trigger.Trigger
	keeper   *anchor.Keeper
	resolver *behavior.Resolver
	handle   *scroll.Handle

	behaviors  behavior.Config
	rootMargin float64
	itemExtent float64
	onChange   func(paginate.Status)
	logger     zerolog.Logger

	mu      sync.Mutex
	baseCtx context.Context
	last    paginate.Status
	closed  bool
}

// New validates the whole configuration and assembles the window. The
// collection stays idle-empty until SetParams issues the first load.
func New[T, R any](cfg Config[T, R]) (*Window[T, R], error) {
	resolver := behavior.NewResolver()
	if _, err := resolver.Resolve(cfg.Behaviors); err != nil {
		return nil, err
	}

	renderer, err := render.New(cfg.Render, cfg.Primitives)
	if err != nil {
		return nil, err
	}

	if cfg.ItemExtent <= 0 {
		cfg.ItemExtent = 1
	}
	if cfg.AnchorMode == "" {
		cfg.AnchorMode = anchor.ModeSnap
	}

	handle := scroll.NewHandle()
	w := &Window[T, R]{
		renderer:   renderer,
		trig:       trigger.New(cfg.Viewport, cfg.Logger),
		keeper:     anchor.New(cfg.AnchorMode, handle, cfg.Logger),
		resolver:   resolver,
		handle:     handle,
		behaviors:  cfg.Behaviors,
		rootMargin: cfg.RootMargin,
		itemExtent: cfg.ItemExtent,
		onChange:   cfg.OnChange,
		logger:     cfg.Logger,
		baseCtx:    context.Background(),
	}

	w.ctrl, err = paginate.New(paginate.Config[T]{
		Source:   cfg.Source,
		PageSize: cfg.Render.PageSize,
		OnChange: w.onStatus,
		Logger:   cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	return w, nil
}

// SetParams applies a filter/sort/search configuration. A material change
// fully resets the collection and loads its first page; the trigger is
// rebound so a subscription from the old parameter set can never fetch into
// the new one. ctx is retained for trigger-driven fetches until the next
// SetParams call.
func (w *Window[T, R]) SetParams(ctx context.Context, params source.Params) bool {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return false
	}
	w.baseCtx = ctx
	w.mu.Unlock()

	return w.ctrl.Initialize(ctx, params)
}

// Retry resumes pagination after a fetch failure.
func (w *Window[T, R]) Retry(ctx context.Context) bool {
	return w.ctrl.Retry(ctx)
}

// FetchNext requests the next page, bypassing the trigger.
func (w *Window[T, R]) FetchNext(ctx context.Context) bool {
	return w.ctrl.FetchNext(ctx)
}

// Render produces the current layout.
func (w *Window[T, R]) Render() render.Output[R] {
	return w.renderer.Render(w.ctrl.Status(), w.ctrl.Items())
}

// Behaviors returns the resolved motion descriptor list.
func (w *Window[T, R]) Behaviors() []behavior.Descriptor {
	descriptors, _ := w.resolver.Resolve(w.behaviors)
	return descriptors
}

// ProvideEngine delivers the scroll engine once it is ready. Forwarded to
// the one-shot capability handle shared by the anchor keeper.
func (w *Window[T, R]) ProvideEngine(e scroll.Engine) {
	w.handle.Provide(e)
}

// Status returns the controller status.
func (w *Window[T, R]) Status() paginate.Status {
	return w.ctrl.Status()
}

// Items returns the loaded sequence.
func (w *Window[T, R]) Items() []T {
	return w.ctrl.Items()
}

// Close tears the window down. The trigger can never fire again afterward.
func (w *Window[T, R]) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	w.trig.Close()
}

// onStatus bridges controller transitions to the anchor cycle and the
// trigger binding, then forwards the status to the host.
func (w *Window[T, R]) onStatus(st paginate.Status) {
	w.mu.Lock()
	prev := w.last
	w.last = st
	closed := w.closed
	w.mu.Unlock()

	if closed {
		return
	}

	// Anchor rides the fetching-more cycle: capture on entry, restore on
	// growth, clear on exit. Initial loads have nothing to anchor.
	if st.State == paginate.StateFetchingMore && prev.State != paginate.StateFetchingMore {
		w.keeper.CycleStarted()
	}
	if st.Len > prev.Len && prev.Len > 0 {
		w.keeper.LengthChanged(prev.Len, st.Len)
	}
	if !st.Fetching && prev.State == paginate.StateFetchingMore {
		w.keeper.CycleEnded()
	}

	w.bindTrigger(st)

	if w.onChange != nil {
		w.onChange(st)
	}
}

// bindTrigger points the visibility trigger at the sentinel slot for the
// given status, or disables it when the renderer would not emit a sentinel.
func (w *Window[T, R]) bindTrigger(st paginate.Status) {
	cfg := w.renderer.Config()

	active := !st.InitialLoading && st.Len > 0 &&
		st.HasNext && !st.Fetching && st.Err == nil

	slot := st.Len - cfg.TriggerOffset
	region := trigger.Region{
		Start: float64(slot) * w.itemExtent,
		End:   float64(slot+1) * w.itemExtent,
	}

	w.trig.Bind(region, trigger.Options{
		Enabled:     active,
		Threshold:   0,
		Margin:      w.rootMargin,
		OnIntersect: w.intersected,
	})

	if active {
		w.logger.Debug().
			Int("sentinel", slot).
			Int("items", st.Len).
			Msg("Sentinel bound")
	}
}

// intersected is the trigger callback: a sentinel crossing requests the next
// page. The controller's fetching flag makes repeat crossings no-ops.
func (w *Window[T, R]) intersected() {
	w.mu.Lock()
	ctx := w.baseCtx
	closed := w.closed
	w.mu.Unlock()

	if closed {
		return
	}

	w.ctrl.FetchNext(ctx)
}
