package behavior

import "sync"

// Resolver memoizes Resolve on input equality. Render passes call it with
// whatever config they currently hold; only a materially different config
// recomputes the list. The returned slice is shared between calls and must
// be treated as read-only.
type Resolver struct {
	mu     sync.Mutex
	valid  bool
	last   Config
	cached []Descriptor
	err    error
}

// NewResolver returns an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve returns the descriptor list for cfg, recomputing only when cfg
// differs from the previous call.
func (r *Resolver) Resolve(cfg Config) ([]Descriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.valid && cfg == r.last {
		return r.cached, r.err
	}

	r.cached, r.err = Resolve(cfg)
	r.last = cfg
	r.valid = true

	return r.cached, r.err
}
