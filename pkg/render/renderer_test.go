package render

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windrose-labs/infiniscroll/pkg/paginate"
)

func newTestRenderer(t *testing.T, cfg Config) *Renderer[string, string] {
	t.Helper()

	r, err := New[string, string](cfg, testPrimitives())
	require.NoError(t, err)
	return r
}

func testPrimitives() Primitives[string, string] {
	return Primitives[string, string]{
		Item:        func(item string, i int) string { return fmt.Sprintf("%s@%d", item, i) },
		LoadingSlot: func() string { return "loading" },
		Empty:       func() string { return "empty" },
	}
}

func items(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("item-%d", i)
	}
	return out
}

func TestNew_ConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"valid default", DefaultConfig(), nil},
		{"offset at zero", Config{TriggerOffset: 0, LoadingCount: 2, PageSize: 10}, nil},
		{"offset at page size", Config{TriggerOffset: 10, LoadingCount: 2, PageSize: 10}, nil},
		{"offset negative", Config{TriggerOffset: -1, LoadingCount: 2, PageSize: 10}, ErrTriggerOffsetRange},
		{"offset above page size", Config{TriggerOffset: 11, LoadingCount: 2, PageSize: 10}, ErrTriggerOffsetRange},
		{"negative loading count", Config{TriggerOffset: 0, LoadingCount: -1, PageSize: 10}, ErrLoadingCount},
		{"zero page size", Config{TriggerOffset: 0, LoadingCount: 0, PageSize: 0}, ErrPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New[string, string](tt.cfg, testPrimitives())
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestNew_MissingPrimitives(t *testing.T) {
	prim := testPrimitives()
	prim.Empty = nil
	_, err := New[string, string](DefaultConfig(), prim)
	assert.ErrorIs(t, err, ErrMissingPrimitive)
}

func TestRender_InitialLoadingLayout(t *testing.T) {
	r := newTestRenderer(t, Config{TriggerOffset: 3, LoadingCount: 4, PageSize: 10})

	out := r.Render(paginate.Status{InitialLoading: true, Fetching: true, HasNext: true}, nil)

	assert.Equal(t, LayoutLoading, out.Layout)
	assert.Equal(t, -1, out.Sentinel, "no sentinel during initial load")
	require.Len(t, out.Slots, 4)
	for _, slot := range out.Slots {
		assert.Equal(t, SlotPlaceholder, slot.Kind)
		assert.Equal(t, "loading", slot.Value)
	}
}

func TestRender_EmptyLayout(t *testing.T) {
	r := newTestRenderer(t, Config{TriggerOffset: 3, LoadingCount: 4, PageSize: 10})

	out := r.Render(paginate.Status{InitialLoading: false, HasNext: false}, nil)

	assert.Equal(t, LayoutEmpty, out.Layout)
	assert.Equal(t, -1, out.Sentinel)
	require.Len(t, out.Slots, 1)
	assert.Equal(t, SlotEmpty, out.Slots[0].Kind)
	assert.Equal(t, "empty", out.Slots[0].Value)
}

// Scenario: pageSize=10, first page of 10 items, triggerOffset=3 -> the
// sentinel occupies slot index 7.
func TestRender_SentinelPlacement(t *testing.T) {
	r := newTestRenderer(t, Config{TriggerOffset: 3, LoadingCount: 4, PageSize: 10})

	out := r.Render(paginate.Status{HasNext: true, Len: 10}, items(10))

	assert.Equal(t, LayoutItems, out.Layout)
	assert.Equal(t, 7, out.Sentinel)
	require.Len(t, out.Slots, 11)
	assert.Equal(t, SlotSentinel, out.Slots[7].Kind)

	// Items keep their order around the sentinel.
	assert.Equal(t, "item-6@6", out.Slots[6].Value)
	assert.Equal(t, "item-7@7", out.Slots[8].Value)
	assert.Equal(t, 9, out.Slots[10].ItemIndex)
}

func TestRender_SentinelBoundaries(t *testing.T) {
	tests := []struct {
		name      string
		offset    int
		wantSlot  int
		slotCount int
	}{
		{"offset zero places sentinel after last item", 0, 10, 11},
		{"offset equal to page size places sentinel before newest page", 10, 0, 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRenderer(t, Config{TriggerOffset: tt.offset, LoadingCount: 2, PageSize: 10})

			out := r.Render(paginate.Status{HasNext: true, Len: 10}, items(10))

			assert.Equal(t, tt.wantSlot, out.Sentinel)
			assert.Len(t, out.Slots, tt.slotCount)
			assert.Equal(t, SlotSentinel, out.Slots[tt.wantSlot].Kind)
		})
	}
}

// The sentinel requires hasNext AND not fetching AND no error; removing any
// one condition removes it.
func TestRender_SentinelConjunction(t *testing.T) {
	r := newTestRenderer(t, Config{TriggerOffset: 3, LoadingCount: 2, PageSize: 10})

	tests := []struct {
		name     string
		status   paginate.Status
		sentinel bool
	}{
		{"all conditions met", paginate.Status{HasNext: true}, true},
		{"no next page", paginate.Status{HasNext: false}, false},
		{"fetch in flight", paginate.Status{HasNext: true, Fetching: true}, false},
		{"errored", paginate.Status{HasNext: true, Err: errors.New("boom")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := r.Render(tt.status, items(10))
			if tt.sentinel {
				assert.GreaterOrEqual(t, out.Sentinel, 0)
			} else {
				assert.Equal(t, -1, out.Sentinel)
				for _, slot := range out.Slots {
					assert.NotEqual(t, SlotSentinel, slot.Kind)
				}
			}
		})
	}
}

// While fetching more, trailing placeholders appear after all real items and
// the interior sentinel is absent; the two affordances never co-occur.
func TestRender_TrailingPlaceholdersWhileFetchingMore(t *testing.T) {
	r := newTestRenderer(t, Config{TriggerOffset: 3, LoadingCount: 4, PageSize: 10})

	out := r.Render(paginate.Status{HasNext: true, Fetching: true, Len: 10}, items(10))

	assert.Equal(t, LayoutItems, out.Layout)
	assert.Equal(t, -1, out.Sentinel)
	require.Len(t, out.Slots, 14)
	for i := 0; i < 10; i++ {
		assert.Equal(t, SlotItem, out.Slots[i].Kind)
	}
	for i := 10; i < 14; i++ {
		assert.Equal(t, SlotPlaceholder, out.Slots[i].Kind)
	}
}

func TestRender_ExhaustedSequenceHasNoAffordances(t *testing.T) {
	r := newTestRenderer(t, Config{TriggerOffset: 3, LoadingCount: 4, PageSize: 10})

	out := r.Render(paginate.Status{HasNext: false, Len: 20}, items(20))

	assert.Equal(t, LayoutItems, out.Layout)
	assert.Equal(t, -1, out.Sentinel)
	assert.Len(t, out.Slots, 20)
}

// After a parameter reset the sequence shrinks to zero; the renderer must
// revert cleanly to the empty layout with no residual sentinel.
func TestRender_ShrinkToZeroAfterReset(t *testing.T) {
	r := newTestRenderer(t, Config{TriggerOffset: 3, LoadingCount: 2, PageSize: 10})

	loaded := r.Render(paginate.Status{HasNext: true, Len: 10}, items(10))
	require.Equal(t, LayoutItems, loaded.Layout)

	// Reset passes through initial loading, then settles empty.
	resetting := r.Render(paginate.Status{InitialLoading: true, Fetching: true, HasNext: true}, nil)
	assert.Equal(t, LayoutLoading, resetting.Layout)
	assert.Equal(t, -1, resetting.Sentinel)

	settled := r.Render(paginate.Status{HasNext: false}, nil)
	assert.Equal(t, LayoutEmpty, settled.Layout)
	assert.Equal(t, -1, settled.Sentinel)
}

func TestRender_ErrorKeepsLoadedItemsVisible(t *testing.T) {
	r := newTestRenderer(t, Config{TriggerOffset: 3, LoadingCount: 2, PageSize: 10})

	out := r.Render(paginate.Status{HasNext: true, Err: errors.New("backend down"), Len: 10}, items(10))

	assert.Equal(t, LayoutItems, out.Layout)
	assert.Len(t, out.Slots, 10)
	assert.Equal(t, -1, out.Sentinel, "error disables the sentinel")
}
