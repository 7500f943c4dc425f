package strand

import (
	"context"
	"io"
)

// EncodeOptions configures an Encode call.
type EncodeOptions struct {
	// Plugins are consulted in order before the built-in kind table. The
	// slice is read-only once Encode has begun.
	Plugins []EncodePlugin
}

// Encode writes root and every deferred it transitively registers to w as a
// frame stream. It blocks until all registered deferreds have been settled
// and framed, then returns. Frames are emitted in completion order, not
// registration order.
//
// On cancellation Encode rejects each outstanding deferred with the
// cancellation cause, emits rejection frames for them while w remains
// writable, and returns the cause.
func Encode(ctx context.Context, w io.Writer, root Value, opts *EncodeOptions) error {
	var plugins []EncodePlugin
	if opts != nil {
		plugins = opts.Plugins
	}

	reg := newEncodeRegistry()
	defer reg.stopWatchers()
	fr := newFramer(w)

	table, err := walkFrame(root, plugins, reg, true)
	if err != nil {
		return err
	}
	if err := fr.writeRoot(table); err != nil {
		return err
	}

	for reg.outstanding() > 0 {
		select {
		case <-ctx.Done():
			return cancelEncode(ctx, fr, reg, plugins)

		case c := <-reg.completions:
			fulfilled, v := c.d.settled()
			table, err := walkFrame(v, plugins, reg, false)
			if err != nil {
				return err
			}
			if err := fr.writeResolution(fulfilled, c.id, table); err != nil {
				return err
			}
			reg.complete(c.id)
		}
	}
	return nil
}

// cancelEncode rejects every outstanding deferred with the cancellation
// cause and emits their rejection frames on a best-effort basis; the stream
// may already be unwritable.
func cancelEncode(ctx context.Context, fr *framer, reg *encodeRegistry, plugins []EncodePlugin) error {
	cause := context.Cause(ctx)
	reason := &ErrorValue{Name: "Cancelled", Message: cause.Error()}
	for _, c := range reg.close() {
		c.d.fail(cause)
		table, err := walkFrame(reason, plugins, reg, false)
		if err != nil {
			continue
		}
		if err := fr.writeResolution(false, c.id, table); err != nil {
			break
		}
	}
	return cause
}

// settled reports how a settled deferred completed and the value it carries:
// the fulfillment value or the rejection reason.
func (d *Deferred) settled() (fulfilled bool, v Value) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state == DeferredFulfilled, d.value
}
