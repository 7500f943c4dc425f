package strand

import "sync"

// completion carries one settled deferred from its watcher goroutine into
// the encode loop.
type completion struct {
	id int64
	d  *Deferred
}

// encodeRegistry tracks the encoder side of the deferred state machine: the
// ids assigned to deferreds across all frames of a stream, and the set still
// awaiting a resolution frame. Ids share frame 0's index space; later
// registrations continue past frame 0's last slot, so allocations never
// overlap.
type encodeRegistry struct {
	mu          sync.Mutex
	globalNext  int64
	ids         map[*Deferred]int64
	pending     map[int64]*Deferred
	closed      bool
	completions chan completion
	quit        chan struct{}
}

func newEncodeRegistry() *encodeRegistry {
	return &encodeRegistry{
		ids:         map[*Deferred]int64{},
		pending:     map[int64]*Deferred{},
		completions: make(chan completion, 1),
		quit:        make(chan struct{}),
	}
}

// bumpGlobal advances the global index counter for a frame-0 slot
// allocation, keeping deferred ids aligned with frame 0's table indices.
func (r *encodeRegistry) bumpGlobal() {
	r.mu.Lock()
	r.globalNext++
	r.mu.Unlock()
}

// idFor returns the stream-wide id for d, registering it on first sight. In
// frame 0 the id is the deferred's own slot index; in later frames it is
// drawn from the global counter. A deferred seen again, settled or not,
// reuses its id and produces no second registration.
func (r *encodeRegistry) idFor(d *Deferred, slot int64, frame0 bool) int64 {
	r.mu.Lock()
	if id, ok := r.ids[d]; ok {
		r.mu.Unlock()
		return id
	}
	var id int64
	if frame0 {
		id = slot
	} else {
		id = r.globalNext
		r.globalNext++
	}
	r.ids[d] = id
	if !r.closed {
		r.pending[id] = d
		go r.watch(id, d)
	}
	r.mu.Unlock()
	return id
}

func (r *encodeRegistry) watch(id int64, d *Deferred) {
	select {
	case <-r.quit:
	case <-d.done:
		select {
		case r.completions <- completion{id: id, d: d}:
		case <-r.quit:
		}
	}
}

func (r *encodeRegistry) outstanding() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// complete drops a settled id from the pending set.
func (r *encodeRegistry) complete(id int64) {
	r.mu.Lock()
	delete(r.pending, id)
	r.mu.Unlock()
}

// close stops new registrations and returns the still-pending entries.
func (r *encodeRegistry) close() []completion {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	remaining := make([]completion, 0, len(r.pending))
	for id, d := range r.pending {
		remaining = append(remaining, completion{id: id, d: d})
	}
	r.pending = map[int64]*Deferred{}
	return remaining
}

func (r *encodeRegistry) stopWatchers() {
	close(r.quit)
}

// decodeRegistry tracks decoder-side placeholders by stream-wide id. A
// placeholder is created the first time a pending entry cites its id and
// settled by exactly one later frame.
type decodeRegistry struct {
	mu      sync.Mutex
	known   map[int64]*Deferred
	pending map[int64]*Deferred
}

func newDecodeRegistry() *decodeRegistry {
	return &decodeRegistry{
		known:   map[int64]*Deferred{},
		pending: map[int64]*Deferred{},
	}
}

// placeholder returns the deferred for id, creating a pending one on first
// reference. Re-references from later frames share the same placeholder.
func (r *decodeRegistry) placeholder(id int64) *Deferred {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.known[id]; ok {
		return d
	}
	d := NewDeferred()
	r.known[id] = d
	r.pending[id] = d
	return d
}

// take claims the pending placeholder for id, or reports that the id is not
// awaiting resolution.
func (r *decodeRegistry) take(id int64) (*Deferred, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.pending[id]
	if ok {
		delete(r.pending, id)
	}
	return d, ok
}

func (r *decodeRegistry) outstanding() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// failAll fails every pending placeholder with err and clears the set.
func (r *decodeRegistry) failAll(err error) {
	r.mu.Lock()
	pending := r.pending
	r.pending = map[int64]*Deferred{}
	r.mu.Unlock()
	for _, d := range pending {
		d.fail(err)
	}
}
