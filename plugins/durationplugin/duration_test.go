package durationplugin

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/RobertWHurst/strand"
)

func TestRoundTrip(t *testing.T) {
	plugin := New()

	var buf bytes.Buffer
	err := strand.Encode(context.Background(), &buf, Duration(90*time.Second), &strand.EncodeOptions{
		Plugins: []strand.EncodePlugin{plugin},
	})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	dec, err := strand.Decode(context.Background(), &buf, &strand.DecodeOptions{
		Plugins: []strand.DecodePlugin{plugin},
	})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	<-dec.Done()

	d, ok := dec.Value.(Duration)
	if !ok {
		t.Fatalf("expected a duration, got %T", dec.Value)
	}
	if time.Duration(d) != 90*time.Second {
		t.Fatalf("expected 90s, got %v", time.Duration(d))
	}
}

func TestDecodeRejectsBadShape(t *testing.T) {
	plugin := New()
	if _, _, err := plugin.Decode("duration", nil); err == nil {
		t.Fatalf("expected an error for a missing child")
	}
	if _, _, err := plugin.Decode("duration", []strand.Value{strand.String("nope")}); err == nil {
		t.Fatalf("expected an error for a non-integer child")
	}
	if _, ok, _ := plugin.Decode("other", nil); ok {
		t.Fatalf("expected the plugin to decline other tags")
	}
}
