package scroll

import "sync"

// Handle is a one-shot capability for the "engine ready" moment. The engine
// becomes available some time after the collection mounts; units that need it
// register interest through OnReady and are called back exactly once, in
// registration order, when Provide delivers the engine.
//
// A Handle is owned by one controller instance. It is not a process-wide
// registry.
type Handle struct {
	mu       sync.Mutex
	engine   Engine
	provided bool
	waiters  []func(Engine)
}

// NewHandle returns an empty handle.
func NewHandle() *Handle {
	return &Handle{}
}

// Provide delivers the engine. The first call wins; later calls and nil
// engines are ignored.
func (h *Handle) Provide(e Engine) {
	if e == nil {
		return
	}

	h.mu.Lock()
	if h.provided {
		h.mu.Unlock()
		return
	}
	h.engine = e
	h.provided = true
	waiters := h.waiters
	h.waiters = nil
	h.mu.Unlock()

	for _, fn := range waiters {
		fn(e)
	}
}

// OnReady registers fn to run once the engine is available. If the engine has
// already been provided, fn runs immediately on the calling goroutine.
func (h *Handle) OnReady(fn func(Engine)) {
	h.mu.Lock()
	if h.provided {
		e := h.engine
		h.mu.Unlock()
		fn(e)
		return
	}
	h.waiters = append(h.waiters, fn)
	h.mu.Unlock()
}

// Engine returns the provided engine, or nil if none has been delivered yet.
func (h *Handle) Engine() Engine {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.engine
}
