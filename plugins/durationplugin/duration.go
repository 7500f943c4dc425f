// Package durationplugin round-trips time.Duration values through the
// strand codec under the "duration" tag.
package durationplugin

import (
	"fmt"
	"time"

	"github.com/RobertWHurst/strand"
)

// Duration is a time.Duration carried as a custom strand value.
type Duration time.Duration

func (Duration) Kind() strand.Kind { return strand.KindCustom }

// Plugin encodes and decodes Duration values. Register it on both sides.
type Plugin struct{}

var _ strand.EncodePlugin = &Plugin{}
var _ strand.DecodePlugin = &Plugin{}

// New creates a new duration plugin.
func New() *Plugin {
	return &Plugin{}
}

func (p *Plugin) Encode(v strand.Value) (string, []strand.Value, bool, error) {
	d, ok := v.(Duration)
	if !ok {
		return "", nil, false, nil
	}
	return "duration", []strand.Value{strand.NewBigInt(int64(d))}, true, nil
}

func (p *Plugin) Decode(tag string, children []strand.Value) (strand.Value, bool, error) {
	if tag != "duration" {
		return nil, false, nil
	}
	if len(children) != 1 {
		return nil, false, fmt.Errorf("duration wants 1 child, got %d", len(children))
	}
	n, ok := children[0].(*strand.BigInt)
	if !ok {
		return nil, false, fmt.Errorf("duration child is not a big integer")
	}
	if !n.Int.IsInt64() {
		return nil, false, fmt.Errorf("duration %s overflows int64", n.Int.Text(10))
	}
	return Duration(n.Int.Int64()), true, nil
}
