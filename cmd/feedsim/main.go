// feedsim runs a windowed collection against a synthetic feed and scrolls
// through it on a timer, exposing the library's Prometheus metrics. It is an
// operational smoke harness: point Prometheus at it and watch fetches, cache
// hits, and scroll restores accumulate.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/windrose-labs/infiniscroll/pkg/logging"
	"github.com/windrose-labs/infiniscroll/pkg/paginate"
	"github.com/windrose-labs/infiniscroll/pkg/render"
	"github.com/windrose-labs/infiniscroll/pkg/source"
	"github.com/windrose-labs/infiniscroll/pkg/source/rediscache"
	"github.com/windrose-labs/infiniscroll/pkg/trigger"
	"github.com/windrose-labs/infiniscroll/pkg/window"
)

const itemExtent = 100.0

func main() {
	logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Pretty: getEnv("LOG_PRETTY", "") != "",
	})
	logger := logging.NewLogger("feedsim")

	port := getEnv("PORT", "8080")
	totalItems := getEnvInt("TOTAL_ITEMS", 500)
	pageSize := getEnvInt("PAGE_SIZE", 10)
	interval := time.Duration(getEnvInt("SCROLL_INTERVAL_MS", 500)) * time.Millisecond
	latency := time.Duration(getEnvInt("SOURCE_LATENCY_MS", 50)) * time.Millisecond

	var feed source.PageSource[feedItem] = newFeed(totalItems, latency)

	// Redis page cache is optional: without REDIS_URL the simulator runs
	// straight against the synthetic source.
	if redisURL := getEnv("REDIS_URL", ""); redisURL != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: redisURL})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warn().Err(err).Str("addr", redisURL).Msg("Redis unreachable, running uncached")
		} else {
			cached, err := rediscache.New(feed, redisClient, rediscache.Config{
				Prefix: "feedsim",
				Logger: logging.NewLogger("page-cache"),
			})
			if err != nil {
				logger.Fatal().Err(err).Msg("Failed to create page cache")
			}
			feed = cached
			logger.Info().Str("addr", redisURL).Msg("Page cache enabled")
		}
	}

	viewport := newSimViewport()
	cfg := render.DefaultConfig()
	cfg.PageSize = pageSize

	win, err := window.New(window.Config[feedItem, string]{
		Source:     feed,
		Render:     cfg,
		Primitives: simPrimitives(),
		Viewport:   viewport,
		ItemExtent: itemExtent,
		RootMargin: itemExtent,
		Logger:     logging.NewLogger("window"),
		OnChange: func(st paginate.Status) {
			logger.Debug().
				Str("state", string(st.State)).
				Int("items", st.Len).
				Msg("Collection changed")
		},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create window")
	}
	defer win.Close()

	win.SetParams(context.Background(), source.Params{})

	go scrollLoop(win, viewport, interval)

	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})

	addr := ":" + port
	logger.Info().
		Str("addr", addr).
		Int("total_items", totalItems).
		Int("page_size", pageSize).
		Msg("Starting feed simulator")

	if err := http.ListenAndServe(addr, nil); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

// scrollLoop advances a simulated viewport one item per tick. Crossing the
// sentinel pulls pages until the feed is exhausted, then the loop restarts
// from the top with a search to exercise the reset path.
func scrollLoop(win *window.Window[feedItem, string], viewport *simViewport, interval time.Duration) {
	l := logging.NewLogger("scroller")
	offset := 0.0

	for range time.Tick(interval) {
		offset += itemExtent
		viewport.Scroll(trigger.Region{Start: offset, End: offset + 5*itemExtent})

		st := win.Status()
		if !st.HasNext && !st.Fetching && st.Err == nil && st.Len > 0 {
			l.Info().Int("items", st.Len).Msg("Feed exhausted, restarting from top")
			offset = 0
			win.SetParams(context.Background(), source.Params{Search: time.Now().Format(time.RFC3339)})
		}
		if st.Err != nil {
			l.Warn().Err(st.Err).Msg("Fetch failed, retrying")
			win.Retry(context.Background())
		}
	}
}

type feedItem struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// newFeed builds a deterministic synthetic source with simulated latency.
// Cursors are stringified start offsets.
func newFeed(total int, latency time.Duration) source.PageSource[feedItem] {
	return source.PageSourceFunc[feedItem](func(ctx context.Context, cursor string, limit int, params source.Params) (source.Page[feedItem], error) {
		start := 0
		if cursor != "" {
			var err error
			if start, err = strconv.Atoi(cursor); err != nil {
				return source.Page[feedItem]{}, fmt.Errorf("bad cursor %q: %w", cursor, err)
			}
		}

		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return source.Page[feedItem]{}, ctx.Err()
		}

		end := start + limit
		if end > total {
			end = total
		}

		page := source.Page[feedItem]{}
		for i := start; i < end; i++ {
			page.Items = append(page.Items, feedItem{
				ID:    i,
				Title: fmt.Sprintf("item %d (%s)", i, params.Key()),
			})
		}
		if end < total {
			page.NextCursor = strconv.Itoa(end)
		}
		return page, nil
	})
}

func simPrimitives() render.Primitives[feedItem, string] {
	return render.Primitives[feedItem, string]{
		Item:        func(item feedItem, _ int) string { return item.Title },
		LoadingSlot: func() string { return "…" },
		Empty:       func() string { return "nothing here" },
	}
}

// simViewport is a minimal trigger.Viewport over a one-dimensional scroll
// axis: Scroll fires every subscription whose region intersects the visible
// window, margin included.
type simViewport struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]simSub
}

type simSub struct {
	region trigger.Region
	opts   trigger.ObserveOptions
	fn     func()
}

func newSimViewport() *simViewport {
	return &simViewport{subs: make(map[int]simSub)}
}

func (v *simViewport) Observe(region trigger.Region, opts trigger.ObserveOptions, fn func()) (cancel func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.nextID
	v.nextID++
	v.subs[id] = simSub{region: region, opts: opts, fn: fn}

	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.subs, id)
	}
}

func (v *simViewport) Scroll(visible trigger.Region) {
	v.mu.Lock()
	var fns []func()
	for _, sub := range v.subs {
		ratio := trigger.Ratio(sub.region, visible, sub.opts.Margin)
		if ratio > 0 && ratio >= sub.opts.Threshold {
			fns = append(fns, sub.fn)
		}
	}
	v.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
