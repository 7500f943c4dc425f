package strand

import (
	"context"
	"sync"
)

// DeferredState reports whether a deferred is still pending or how it
// settled.
type DeferredState int

const (
	DeferredPending DeferredState = iota
	DeferredFulfilled
	DeferredRejected
)

// Deferred is a value whose payload arrives later. On the encoder side the
// caller constructs one with NewDeferred and settles it with Resolve or
// Reject; the codec emits a resolution frame when it settles. On the decoder
// side the codec installs a pending Deferred wherever the stream references
// one, and settles it when the matching frame arrives.
//
// A deferred settles at most once; later Resolve/Reject calls are ignored.
type Deferred struct {
	mu       sync.Mutex
	done     chan struct{}
	state    DeferredState
	value    Value // fulfilled value or rejection reason
	streamEr error // terminal stream failure, in place of a rejection reason
}

// NewDeferred creates a pending deferred.
func NewDeferred() *Deferred {
	return &Deferred{done: make(chan struct{})}
}

// ResolvedDeferred creates a deferred already fulfilled with v.
func ResolvedDeferred(v Value) *Deferred {
	d := NewDeferred()
	d.Resolve(v)
	return d
}

// RejectedDeferred creates a deferred already rejected with reason.
func RejectedDeferred(reason Value) *Deferred {
	d := NewDeferred()
	d.Reject(reason)
	return d
}

// Resolve settles the deferred as fulfilled with v.
func (d *Deferred) Resolve(v Value) {
	d.settle(DeferredFulfilled, v, nil)
}

// Reject settles the deferred as rejected with reason.
func (d *Deferred) Reject(reason Value) {
	d.settle(DeferredRejected, reason, nil)
}

// fail settles the deferred with a stream-level error: end of stream before
// resolution, a malformed frame, or cancellation. Await returns err directly.
func (d *Deferred) fail(err error) {
	d.settle(DeferredRejected, nil, err)
}

func (d *Deferred) settle(state DeferredState, v Value, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != DeferredPending {
		return
	}
	d.state = state
	d.value = v
	d.streamEr = err
	close(d.done)
}

// Done returns a channel closed when the deferred settles.
func (d *Deferred) Done() <-chan struct{} { return d.done }

// State reports the current settlement state.
func (d *Deferred) State() DeferredState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Await blocks until the deferred settles or ctx is done. A fulfilled
// deferred yields its value. A rejected deferred yields a *RejectionError
// carrying the rejection reason, or the underlying stream error if the
// deferred was failed by stream termination or cancellation.
func (d *Deferred) Await(ctx context.Context) (Value, error) {
	select {
	case <-ctx.Done():
		return nil, context.Cause(ctx)
	case <-d.done:
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == DeferredFulfilled {
		return d.value, nil
	}
	if d.streamEr != nil {
		return nil, d.streamEr
	}
	return nil, &RejectionError{Reason: d.value}
}

func (*Deferred) Kind() Kind { return KindDeferred }
