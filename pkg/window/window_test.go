package window_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windrose-labs/infiniscroll/internal/testutil"
	"github.com/windrose-labs/infiniscroll/pkg/anchor"
	"github.com/windrose-labs/infiniscroll/pkg/behavior"
	"github.com/windrose-labs/infiniscroll/pkg/paginate"
	"github.com/windrose-labs/infiniscroll/pkg/render"
	"github.com/windrose-labs/infiniscroll/pkg/source"
	"github.com/windrose-labs/infiniscroll/pkg/trigger"
	"github.com/windrose-labs/infiniscroll/pkg/window"
)

type harness struct {
	win      *window.Window[testutil.FeedItem, string]
	src      *testutil.FeedSource
	viewport *testutil.FakeViewport
	changes  chan paginate.Status
}

func newHarness(t *testing.T, total int, mutate func(*window.Config[testutil.FeedItem, string])) *harness {
	t.Helper()

	h := &harness{
		src:      testutil.NewFeedSource(total),
		viewport: testutil.NewFakeViewport(),
		changes:  make(chan paginate.Status, 64),
	}

	cfg := window.Config[testutil.FeedItem, string]{
		Source:     h.src,
		Render:     render.DefaultConfig(),
		Primitives: feedPrimitives(),
		Viewport:   h.viewport,
		ItemExtent: 100,
		OnChange:   func(st paginate.Status) { h.changes <- st },
	}
	if mutate != nil {
		mutate(&cfg)
	}

	win, err := window.New(cfg)
	require.NoError(t, err)
	t.Cleanup(win.Close)
	h.win = win
	return h
}

func feedPrimitives() render.Primitives[testutil.FeedItem, string] {
	return render.Primitives[testutil.FeedItem, string]{
		Item:        func(item testutil.FeedItem, _ int) string { return item.Label },
		LoadingSlot: func() string { return "loading" },
		Empty:       func() string { return "empty" },
	}
}

func (h *harness) waitFor(t *testing.T, pred func(paginate.Status) bool) paginate.Status {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case st := <-h.changes:
			if pred(st) {
				return st
			}
		case <-deadline:
			t.Fatalf("status condition not reached, last status: %+v", h.win.Status())
		}
	}
}

func settled(st paginate.Status) bool {
	return !st.Fetching && !st.InitialLoading
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	base := window.Config[testutil.FeedItem, string]{
		Source:     testutil.NewFeedSource(10),
		Render:     render.DefaultConfig(),
		Primitives: feedPrimitives(),
	}

	t.Run("conflicting behaviors", func(t *testing.T) {
		cfg := base
		cfg.Behaviors = behavior.Config{
			AutoAdvance: behavior.AutoAdvance{Enabled: true},
			Ticker:      behavior.Ticker{Enabled: true, SpeedPxPerFrame: 1},
		}
		_, err := window.New(cfg)
		assert.ErrorIs(t, err, behavior.ErrConflictingMotion)
	})

	t.Run("trigger offset out of range", func(t *testing.T) {
		cfg := base
		cfg.Render.TriggerOffset = cfg.Render.PageSize + 1
		_, err := window.New(cfg)
		assert.ErrorIs(t, err, render.ErrTriggerOffsetRange)
	})

	t.Run("nil source", func(t *testing.T) {
		cfg := base
		cfg.Source = nil
		_, err := window.New(cfg)
		assert.ErrorIs(t, err, paginate.ErrNilSource)
	})
}

func TestFirstLoadBindsSentinel(t *testing.T) {
	h := newHarness(t, 30, nil)

	require.True(t, h.win.SetParams(context.Background(), source.Params{}))
	st := h.waitFor(t, func(st paginate.Status) bool { return settled(st) && st.Len == 10 })
	assert.True(t, st.HasNext)

	out := h.win.Render()
	assert.Equal(t, render.LayoutItems, out.Layout)
	assert.Equal(t, 7, out.Sentinel)

	// Sentinel slot 7 with extent 100 spans [700, 800).
	region, ok := h.viewport.LastRegion()
	require.True(t, ok)
	assert.InDelta(t, 700, region.Start, 0.001)
	assert.InDelta(t, 800, region.End, 0.001)
	assert.Equal(t, 1, h.viewport.ActiveCount())
}

func TestCrossingFetchesNextPage(t *testing.T) {
	h := newHarness(t, 30, nil)

	h.win.SetParams(context.Background(), source.Params{})
	h.waitFor(t, func(st paginate.Status) bool { return settled(st) && st.Len == 10 })

	h.viewport.Cross()
	h.waitFor(t, func(st paginate.Status) bool { return settled(st) && st.Len == 20 })

	// The sentinel advanced with the collection: slot 17.
	region, ok := h.viewport.LastRegion()
	require.True(t, ok)
	assert.InDelta(t, 1700, region.Start, 0.001)
}

func TestGeometricScrollReachesSentinel(t *testing.T) {
	h := newHarness(t, 30, func(cfg *window.Config[testutil.FeedItem, string]) {
		cfg.RootMargin = 50
	})

	h.win.SetParams(context.Background(), source.Params{})
	h.waitFor(t, func(st paginate.Status) bool { return settled(st) && st.Len == 10 })

	// Window [0, 400] is far from slot 7: no fetch.
	h.viewport.ScrollWindow(trigger.Region{Start: 0, End: 400})
	assert.Equal(t, 1, h.src.Calls())

	// [300, 660] with a 50px margin reaches [700, 800).
	h.viewport.ScrollWindow(trigger.Region{Start: 300, End: 660})
	h.waitFor(t, func(st paginate.Status) bool { return settled(st) && st.Len == 20 })
}

func TestExhaustionDisablesTrigger(t *testing.T) {
	h := newHarness(t, 15, nil)

	h.win.SetParams(context.Background(), source.Params{})
	h.waitFor(t, func(st paginate.Status) bool { return settled(st) && st.Len == 10 })
	h.viewport.Cross()
	st := h.waitFor(t, func(st paginate.Status) bool { return settled(st) && st.Len == 15 })

	assert.False(t, st.HasNext)
	assert.Equal(t, 0, h.viewport.ActiveCount())
	assert.Equal(t, -1, h.win.Render().Sentinel)

	// Nothing left to observe: a stray crossing fetches nothing.
	calls := h.src.Calls()
	h.viewport.Cross()
	assert.Equal(t, calls, h.src.Calls())
}

func TestParamChangeResetsAndRebinds(t *testing.T) {
	h := newHarness(t, 30, nil)

	h.win.SetParams(context.Background(), source.Params{})
	h.waitFor(t, func(st paginate.Status) bool { return settled(st) && st.Len == 10 })
	h.viewport.Cross()
	h.waitFor(t, func(st paginate.Status) bool { return settled(st) && st.Len == 20 })

	h.win.SetParams(context.Background(), source.Params{Search: "ships"})
	h.waitFor(t, func(st paginate.Status) bool { return settled(st) && st.Len == 10 })

	items := h.win.Items()
	require.Len(t, items, 10)
	assert.Contains(t, items[0].Label, "ships")

	// Back to one subscription at slot 7.
	assert.Equal(t, 1, h.viewport.ActiveCount())
	region, _ := h.viewport.LastRegion()
	assert.InDelta(t, 700, region.Start, 0.001)
}

func TestAnchorRestoresAcrossAppend(t *testing.T) {
	h := newHarness(t, 30, nil)
	engine := testutil.NewFakeEngine(1000)
	engine.SetPosition(7, 0.7)
	h.win.ProvideEngine(engine)

	h.win.SetParams(context.Background(), source.Params{})
	h.waitFor(t, func(st paginate.Status) bool { return settled(st) && st.Len == 10 })

	h.viewport.Cross()
	h.waitFor(t, func(st paginate.Status) bool { return settled(st) && st.Len == 20 })

	call, ok := engine.LastScrollTo()
	require.True(t, ok)
	assert.Equal(t, 7, call.Index)
	assert.False(t, call.Animate)
	assert.Equal(t, 1, engine.Reinits())
}

func TestFreeAnchorUsesProgress(t *testing.T) {
	h := newHarness(t, 30, func(cfg *window.Config[testutil.FeedItem, string]) {
		cfg.AnchorMode = anchor.ModeFree
	})
	engine := testutil.NewFakeEngine(2000)
	engine.SetPosition(5, 0.25)
	h.win.ProvideEngine(engine)

	h.win.SetParams(context.Background(), source.Params{})
	h.waitFor(t, func(st paginate.Status) bool { return settled(st) && st.Len == 10 })
	h.viewport.Cross()
	h.waitFor(t, func(st paginate.Status) bool { return settled(st) && st.Len == 20 })

	require.Len(t, engine.SetOffsetCalls, 1)
	assert.InDelta(t, 500, engine.SetOffsetCalls[0], 1)
}

func TestRetryAfterFetchError(t *testing.T) {
	h := newHarness(t, 30, nil)

	h.win.SetParams(context.Background(), source.Params{})
	h.waitFor(t, func(st paginate.Status) bool { return settled(st) && st.Len == 10 })

	h.src.FailNext(assert.AnError)
	h.viewport.Cross()
	st := h.waitFor(t, func(st paginate.Status) bool { return st.Err != nil })
	assert.Equal(t, paginate.StateError, st.State)

	// No sentinel while errored.
	assert.Equal(t, 0, h.viewport.ActiveCount())
	assert.Equal(t, -1, h.win.Render().Sentinel)

	require.True(t, h.win.Retry(context.Background()))
	h.waitFor(t, func(st paginate.Status) bool { return settled(st) && st.Len == 20 && st.Err == nil })
}

func TestCloseStopsTriggerFetches(t *testing.T) {
	h := newHarness(t, 30, nil)

	h.win.SetParams(context.Background(), source.Params{})
	h.waitFor(t, func(st paginate.Status) bool { return settled(st) && st.Len == 10 })

	h.win.Close()
	calls := h.src.Calls()
	h.viewport.Cross()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, h.src.Calls())
	assert.Equal(t, 0, h.viewport.ActiveCount())
}

func TestBehaviorsResolvedOnce(t *testing.T) {
	h := newHarness(t, 10, func(cfg *window.Config[testutil.FeedItem, string]) {
		cfg.Behaviors = behavior.Config{
			AutoAdvance: behavior.AutoAdvance{Enabled: true, Speed: 0.5},
			Wheel:       behavior.Wheel{Enabled: true},
		}
	})

	first := h.win.Behaviors()
	second := h.win.Behaviors()
	require.Len(t, first, 2)
	assert.Equal(t, behavior.KindAutoAdvance, first[0].Kind)
	assert.Equal(t, behavior.KindWheel, first[1].Kind)
	assert.Same(t, &first[0], &second[0])
}
