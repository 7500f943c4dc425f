// Package binaryplugin round-trips raw byte slices through the strand codec
// under the "bytes" tag, using standard base64.
package binaryplugin

import (
	"encoding/base64"
	"fmt"

	"github.com/RobertWHurst/strand"
)

// Binary is a byte slice carried as a custom strand value. Use pointers so
// the same buffer referenced twice encodes as a shared reference.
type Binary struct {
	Data []byte
}

func (*Binary) Kind() strand.Kind { return strand.KindCustom }

// Plugin encodes and decodes Binary values. Register it on both sides.
type Plugin struct{}

var _ strand.EncodePlugin = &Plugin{}
var _ strand.DecodePlugin = &Plugin{}

// New creates a new binary plugin.
func New() *Plugin {
	return &Plugin{}
}

func (p *Plugin) Encode(v strand.Value) (string, []strand.Value, bool, error) {
	b, ok := v.(*Binary)
	if !ok {
		return "", nil, false, nil
	}
	encoded := base64.StdEncoding.EncodeToString(b.Data)
	return "bytes", []strand.Value{strand.String(encoded)}, true, nil
}

func (p *Plugin) Decode(tag string, children []strand.Value) (strand.Value, bool, error) {
	if tag != "bytes" {
		return nil, false, nil
	}
	if len(children) != 1 {
		return nil, false, fmt.Errorf("bytes wants 1 child, got %d", len(children))
	}
	s, ok := children[0].(strand.String)
	if !ok {
		return nil, false, fmt.Errorf("bytes child is not a string")
	}
	data, err := base64.StdEncoding.DecodeString(string(s))
	if err != nil {
		return nil, false, err
	}
	return &Binary{Data: data}, true, nil
}
