package binaryplugin

import (
	"bytes"
	"context"
	"testing"

	"github.com/RobertWHurst/strand"
)

func TestRoundTrip(t *testing.T) {
	plugin := New()
	payload := &Binary{Data: []byte{0x00, 0x01, 0xFF, 'g', 'o'}}
	list := strand.NewList(payload, payload)

	var buf bytes.Buffer
	err := strand.Encode(context.Background(), &buf, list, &strand.EncodeOptions{
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

	decList := dec.Value.(*strand.List)
	first, _ := decList.At(0)
	second, _ := decList.At(1)
	b, ok := first.(*Binary)
	if !ok {
		t.Fatalf("expected a binary, got %T", first)
	}
	if !bytes.Equal(b.Data, payload.Data) {
		t.Fatalf("expected %v, got %v", payload.Data, b.Data)
	}
	if first != second {
		t.Fatalf("expected both positions to share one instance")
	}
}

func TestDecodeRejectsBadBase64(t *testing.T) {
	plugin := New()
	if _, _, err := plugin.Decode("bytes", []strand.Value{strand.String("!!!")}); err == nil {
		t.Fatalf("expected a base64 error")
	}
}
