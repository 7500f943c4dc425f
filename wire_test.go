package strand

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func encodeToString(t *testing.T, v Value) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Encode(context.Background(), &buf, v, nil); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	return buf.String()
}

func TestWireScalarFrames(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"number", Number(42), "[42]\n"},
		{"fraction", Number(1.5), "[1.5]\n"},
		{"string", String("hi"), "[\"hi\"]\n"},
		{"true", Bool(true), "[[0,-3]]\n"},
		{"undefined", Undefined{}, "[[0,-1]]\n"},
		{"null", Null{}, "[[0,-2]]\n"},
		{"nan", Number(nan()), "[[0,-7]]\n"},
		{"empty string", String(""), "[[0,-9]]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := encodeToString(t, tt.value); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func nan() float64 {
	zero := 0.0
	return zero / zero
}

func TestWireListFrame(t *testing.T) {
	list := NewList(Number(1), Hole{}, String(""), Bool(true))
	want := "[[1,[1,-10,-9,-3]],1]\n"
	if got := encodeToString(t, list); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestWireRecordFrame(t *testing.T) {
	rec := NewRecord(
		RecordEntry{Key: "a", Value: Number(1)},
		RecordEntry{Key: "b", Value: Undefined{}},
	)
	want := "[[2,[\"a\",1,\"b\",-1]],1]\n"
	if got := encodeToString(t, rec); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestWireSharedReference(t *testing.T) {
	child := NewList()
	parent := NewList(child, child)
	want := "[[1,[1,1]],[1,[]]]\n"
	if got := encodeToString(t, parent); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestWireCycle(t *testing.T) {
	list := &List{Items: make([]Value, 1)}
	list.Items[0] = list
	want := "[[1,[0]]]\n"
	if got := encodeToString(t, list); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestWireDeferredFrames(t *testing.T) {
	fulfilled := encodeToString(t, ResolvedDeferred(Number(42)))
	if fulfilled != "[[12,0]]\nF0[42]\n" {
		t.Fatalf("unexpected fulfilled stream %q", fulfilled)
	}

	rejected := encodeToString(t, RejectedDeferred(String("no")))
	if rejected != "[[12,0]]\nR0[\"no\"]\n" {
		t.Fatalf("unexpected rejected stream %q", rejected)
	}
}

func TestWireAcceptsBareScalarSlots(t *testing.T) {
	dec, err := Decode(context.Background(), strings.NewReader("[true]\n"), nil)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if dec.Value != Bool(true) {
		t.Fatalf("expected true, got %v", dec.Value)
	}

	dec, err = Decode(context.Background(), strings.NewReader("[null]"), nil)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if _, ok := dec.Value.(Null); !ok {
		t.Fatalf("expected null, got %v", dec.Value)
	}
}
