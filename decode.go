package strand

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// DecodeOptions configures a Decode call.
type DecodeOptions struct {
	// Plugins are consulted in order for custom-tagged entries. The slice is
	// read-only once Decode has begun.
	Plugins []DecodePlugin
}

// Decoded is the handle returned by Decode. Value is the hydrated root,
// available immediately; deferreds inside it are placeholders that settle as
// their resolution frames arrive. Done closes when the stream terminates.
type Decoded struct {
	Value Value

	mu   sync.Mutex
	err  error
	done chan struct{}
}

// Done returns a channel closed when the stream has terminated, cleanly or
// not.
func (d *Decoded) Done() <-chan struct{} { return d.done }

// Err reports the fatal stream error, if any, once Done is closed. A clean
// end of stream leaves it nil even if placeholders were still pending; those
// placeholders reject with ErrClosedWithoutResolution individually.
func (d *Decoded) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

func (d *Decoded) finish(err error) {
	d.mu.Lock()
	d.err = err
	d.mu.Unlock()
	close(d.done)
}

// Decode reads a frame stream from r. It consumes frame 0, hydrates the
// root, and returns without waiting for any deferred to settle; a background
// loop consumes the remaining frames and settles placeholders as they
// arrive.
//
// Errors in frame 0 fail Decode itself. Errors after the root has been
// delivered surface through placeholder rejections and Decoded.Err. On
// cancellation every pending placeholder rejects with the cancellation cause
// and no further frames are read.
func Decode(ctx context.Context, r io.Reader, opts *DecodeOptions) (*Decoded, error) {
	var plugins []DecodePlugin
	if opts != nil {
		plugins = opts.Plugins
	}

	fr := newFrameReader(r)
	reg := newDecodeRegistry()

	line, err := fr.next()
	if err != nil {
		if err == io.EOF {
			return nil, malformed("stream ended before the root frame")
		}
		return nil, err
	}
	head, payload, err := splitFrame(line)
	if err != nil {
		return nil, err
	}
	if head != nil {
		return nil, malformed("resolution frame before the root frame")
	}
	table, err := parseTable(payload)
	if err != nil {
		return nil, err
	}
	root, err := newHydrator(table, plugins, reg).root()
	if err != nil {
		return nil, err
	}

	d := &Decoded{Value: root, done: make(chan struct{})}
	go consume(ctx, fr, reg, plugins, d)
	return d, nil
}

type frameResult struct {
	line []byte
	err  error
}

// consume settles placeholders from the remaining frames until the stream
// ends, a frame is fatal, or ctx is cancelled.
func consume(ctx context.Context, fr *frameReader, reg *decodeRegistry, plugins []DecodePlugin, d *Decoded) {
	quit := make(chan struct{})
	defer close(quit)

	frames := make(chan frameResult, 1)
	go func() {
		for {
			line, err := fr.next()
			select {
			case frames <- frameResult{line: line, err: err}:
			case <-quit:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			cause := context.Cause(ctx)
			reg.failAll(cause)
			d.finish(cause)
			return

		case f := <-frames:
			if f.err == io.EOF {
				if reg.outstanding() > 0 {
					reg.failAll(ErrClosedWithoutResolution)
				}
				d.finish(nil)
				return
			}
			if f.err != nil {
				reg.failAll(f.err)
				d.finish(f.err)
				return
			}
			if err := settleFrame(f.line, reg, plugins); err != nil {
				reg.failAll(err)
				d.finish(err)
				return
			}
		}
	}
}

// settleFrame parses and hydrates one resolution frame in isolation, then
// settles its target placeholder.
func settleFrame(line []byte, reg *decodeRegistry, plugins []DecodePlugin) error {
	head, payload, err := splitFrame(line)
	if err != nil {
		return err
	}
	if head == nil {
		return malformed("second root frame")
	}
	table, err := parseTable(payload)
	if err != nil {
		return err
	}
	v, err := newHydrator(table, plugins, reg).root()
	if err != nil {
		return err
	}
	target, ok := reg.take(head.id)
	if !ok {
		return fmt.Errorf("%w: id %d", ErrUnexpectedResolution, head.id)
	}
	if head.fulfilled {
		target.Resolve(v)
	} else {
		target.Reject(v)
	}
	return nil
}
