// Package paginate implements the pagination state machine that turns a
// cursor-paginated source into a continuously growing item sequence.
//
// A Controller owns exactly one collection. The fetching flag serializes
// FetchNext calls, so at most one fetch is in flight per controller, and a
// generation counter tags every fetch so that completions issued under a
// superseded parameter set are silently discarded.
package paginate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/windrose-labs/infiniscroll/pkg/source"
)

// Errors returned at construction time.
var (
	// ErrNilSource is returned when no page source is configured.
	ErrNilSource = errors.New("page source is required")

	// ErrPageSize is returned when the configured page size is not positive.
	ErrPageSize = errors.New("page size must be >= 1")
)

// State identifies the controller's position in its lifecycle.
type State string

const (
	// StateIdleEmpty is the state before the first Initialize call.
	StateIdleEmpty State = "idle-empty"

	// StateLoadingInitial is the state while the first page of a
	// parameter set is in flight.
	StateLoadingInitial State = "loading-initial"

	// StateLoaded is the resting state with at least one completed fetch.
	StateLoaded State = "loaded"

	// StateFetchingMore is the state while a follow-up page is in flight.
	StateFetchingMore State = "fetching-more"

	// StateError is terminal until Retry or a material parameter change.
	StateError State = "error"
)

// Status is an immutable snapshot of the controller state.
type Status struct {
	State          State
	InitialLoading bool
	Fetching       bool
	HasNext        bool
	Err            error
	Len            int
	Generation     uint64
}

// Empty reports whether the collection has settled with no items.
func (s Status) Empty() bool {
	return !s.InitialLoading && s.Len == 0
}

// Config holds controller configuration.
type Config[T any] struct {
	// Source is the paginated data source. Required.
	Source source.PageSource[T]

	// PageSize is the number of items requested per fetch.
	PageSize int

	// OnChange, when set, is invoked after every state transition with a
	// fresh Status. It is called outside the controller lock, so it may
	// call back into the controller.
	OnChange func(Status)

	// Logger logs state transitions. Defaults to a disabled logger.
	Logger zerolog.Logger
}

// Controller is the pagination state machine for one collection.
type Controller[T any] struct {
	mu sync.Mutex

	src      source.PageSource[T]
	pageSize int
	onChange func(Status)
	logger   zerolog.Logger

	params      source.Params
	initialized bool

	items          []T
	cursor         string
	hasNext        bool
	fetching       bool
	initialLoading bool
	err            error

	generation uint64
}

// New creates a controller in the idle-empty state. Call Initialize to load
// the first page.
func New[T any](cfg Config[T]) (*Controller[T], error) {
	if cfg.Source == nil {
		return nil, ErrNilSource
	}
	if cfg.PageSize < 1 {
		return nil, fmt.Errorf("%w (got %d)", ErrPageSize, cfg.PageSize)
	}

	return &Controller[T]{
		src:      cfg.Source,
		pageSize: cfg.PageSize,
		onChange: cfg.OnChange,
		logger:   cfg.Logger,
	}, nil
}

// Initialize resets the controller for a new filter/sort/search configuration
// and issues the implicit first fetch. Calling it again with materially equal
// params on a healthy controller is a no-op, so repeated mounts never cause
// duplicate fetches. Returns true if a reset happened.
func (c *Controller[T]) Initialize(ctx context.Context, params source.Params) bool {
	c.mu.Lock()
	if c.initialized && c.err == nil && c.params.Equal(params) {
		c.mu.Unlock()
		return false
	}

	c.generation++
	c.params = params
	c.initialized = true
	c.items = nil
	c.cursor = ""
	c.hasNext = true
	c.fetching = false
	c.initialLoading = true
	c.err = nil
	gen := c.generation
	c.mu.Unlock()

	resetsTotal.Inc()
	c.logger.Info().
		Uint64("generation", gen).
		Str("params", params.Key()).
		Msg("Collection reset")

	c.notify()
	c.FetchNext(ctx)

	return true
}

// Retry clears the error state and re-issues the failed fetch with the
// current cursor. It is a no-op when the controller is not in error.
func (c *Controller[T]) Retry(ctx context.Context) bool {
	c.mu.Lock()
	if c.err == nil {
		c.mu.Unlock()
		return false
	}

	c.err = nil
	c.initialLoading = len(c.items) == 0
	c.mu.Unlock()

	c.notify()
	return c.FetchNext(ctx)
}

// FetchNext requests the next page. It is a no-op when the dataset is
// exhausted, a fetch is already in flight, or the controller is in error.
// Returns true if a fetch was started.
func (c *Controller[T]) FetchNext(ctx context.Context) bool {
	c.mu.Lock()
	if !c.initialized || !c.hasNext || c.fetching || c.err != nil {
		c.mu.Unlock()
		return false
	}

	c.fetching = true
	gen := c.generation
	cursor := c.cursor
	params := c.params
	c.mu.Unlock()

	c.notify()

	go func() {
		started := time.Now()
		page, err := c.src.FetchPage(ctx, cursor, c.pageSize, params)
		fetchDuration.Observe(time.Since(started).Seconds())
		c.complete(gen, cursor, page, err)
	}()

	return true
}

// complete is the resumption point of a fetch. A completion whose generation
// no longer matches the controller's is stale and must not touch any state:
// the reset that bumped the generation already rebuilt it.
func (c *Controller[T]) complete(gen uint64, cursor string, page source.Page[T], err error) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		staleResultsTotal.Inc()
		c.logger.Debug().
			Uint64("generation", gen).
			Str("cursor", cursor).
			Msg("Discarded stale fetch completion")
		return
	}

	c.fetching = false
	c.initialLoading = false

	if err != nil {
		c.err = err
		c.mu.Unlock()

		fetchesTotal.WithLabelValues("error").Inc()
		c.logger.Error().
			Err(err).
			Str("cursor", cursor).
			Msg("Page fetch failed, pagination halted")

		c.notify()
		return
	}

	c.items = append(c.items, page.Items...)
	c.cursor = page.NextCursor
	c.hasNext = page.HasMore()
	total := len(c.items)
	c.mu.Unlock()

	fetchesTotal.WithLabelValues("success").Inc()
	itemsAppendedTotal.Add(float64(len(page.Items)))
	c.logger.Debug().
		Str("cursor", cursor).
		Str("next_cursor", page.NextCursor).
		Int("items", total).
		Msg("Page appended")

	c.notify()
}

// Status returns a snapshot of the controller state.
func (c *Controller[T]) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

// Items returns a copy of the loaded sequence in fetch order.
func (c *Controller[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]T, len(c.items))
	copy(items, c.items)
	return items
}

// Params returns the parameter set the controller is currently serving.
func (c *Controller[T]) Params() source.Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

func (c *Controller[T]) statusLocked() Status {
	return Status{
		State:          c.stateLocked(),
		InitialLoading: c.initialLoading,
		Fetching:       c.fetching,
		HasNext:        c.hasNext,
		Err:            c.err,
		Len:            len(c.items),
		Generation:     c.generation,
	}
}

func (c *Controller[T]) stateLocked() State {
	switch {
	case !c.initialized:
		return StateIdleEmpty
	case c.err != nil:
		return StateError
	case c.initialLoading:
		return StateLoadingInitial
	case c.fetching:
		return StateFetchingMore
	default:
		return StateLoaded
	}
}

func (c *Controller[T]) notify() {
	if c.onChange == nil {
		return
	}
	c.onChange(c.Status())
}
