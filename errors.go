package strand

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedValue reports a value with no matching plugin or built-in
	// kind. Fatal to the encode call.
	ErrUnsupportedValue = errors.New("strand: unsupported value")

	// ErrMalformedFrame reports invalid grammar in an incoming frame. Fatal
	// to the decode call; every pending placeholder is failed with it.
	ErrMalformedFrame = errors.New("strand: malformed frame")

	// ErrUnknownReference reports a frame citing an index that was never
	// assigned. Fatal to the decode call.
	ErrUnknownReference = errors.New("strand: unknown reference")

	// ErrUnexpectedResolution reports a resolution frame targeting an id
	// that is not pending. Fatal to the decode call.
	ErrUnexpectedResolution = errors.New("strand: unexpected resolution")

	// ErrClosedWithoutResolution reports that the inbound stream ended while
	// placeholders remained pending. Each such placeholder is failed with it;
	// the top-level decode completes normally.
	ErrClosedWithoutResolution = errors.New("strand: stream closed without resolution")

	// ErrPlugin reports a plugin that failed or returned an invalid shape.
	// Fatal to the call that invoked it.
	ErrPlugin = errors.New("strand: plugin error")
)

// RejectionError is returned from Deferred.Await when the deferred settled
// rejected. Reason is the value the sender rejected with.
type RejectionError struct {
	Reason Value
}

func (e *RejectionError) Error() string {
	if ev, ok := e.Reason.(*ErrorValue); ok {
		return fmt.Sprintf("strand: deferred rejected: %s: %s", ev.Name, ev.Message)
	}
	return "strand: deferred rejected"
}
