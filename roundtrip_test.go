package strand

import (
	"bytes"
	"context"
	"math"
	"testing"
	"time"
)

func roundTrip(t *testing.T, v Value) Value {
	t.Helper()
	var buf bytes.Buffer
	if err := Encode(context.Background(), &buf, v, nil); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	dec, err := Decode(context.Background(), &buf, nil)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	<-dec.Done()
	if err := dec.Err(); err != nil {
		t.Fatalf("stream failed: %v", err)
	}
	return dec.Value
}

func TestRoundTripAtoms(t *testing.T) {
	if _, ok := roundTrip(t, Undefined{}).(Undefined); !ok {
		t.Fatalf("expected undefined")
	}
	if _, ok := roundTrip(t, Null{}).(Null); !ok {
		t.Fatalf("expected null")
	}
	if v := roundTrip(t, Bool(true)); v != Bool(true) {
		t.Fatalf("expected true, got %v", v)
	}
	if v := roundTrip(t, Bool(false)); v != Bool(false) {
		t.Fatalf("expected false, got %v", v)
	}
	if v := roundTrip(t, Number(math.Inf(1))); v != Number(math.Inf(1)) {
		t.Fatalf("expected +Inf, got %v", v)
	}
	if v := roundTrip(t, Number(math.Inf(-1))); v != Number(math.Inf(-1)) {
		t.Fatalf("expected -Inf, got %v", v)
	}
	if v := roundTrip(t, Number(math.NaN())); !math.IsNaN(float64(v.(Number))) {
		t.Fatalf("expected NaN, got %v", v)
	}
	v := roundTrip(t, Number(math.Copysign(0, -1)))
	f := float64(v.(Number))
	if f != 0 || !math.Signbit(f) {
		t.Fatalf("expected -0, got %v", v)
	}
}

func TestRoundTripScalars(t *testing.T) {
	if v := roundTrip(t, Number(42.5)); v != Number(42.5) {
		t.Fatalf("expected 42.5, got %v", v)
	}
	if v := roundTrip(t, String("hello")); v != String("hello") {
		t.Fatalf("expected hello, got %v", v)
	}
	if v := roundTrip(t, String("")); v != String("") {
		t.Fatalf("expected empty string, got %v", v)
	}

	big, _ := ParseBigInt("123456789012345678901234567890")
	decBig := roundTrip(t, big).(*BigInt)
	if decBig.Int.Cmp(&big.Int) != 0 {
		t.Fatalf("expected %s, got %s", big.Int.Text(10), decBig.Int.Text(10))
	}

	neg, _ := ParseBigInt("-987654321")
	decNeg := roundTrip(t, neg).(*BigInt)
	if decNeg.Int.Cmp(&neg.Int) != 0 {
		t.Fatalf("expected %s, got %s", neg.Int.Text(10), decNeg.Int.Text(10))
	}

	sym := SymbolFor("iterator")
	if decSym := roundTrip(t, sym).(*Symbol); decSym != sym {
		t.Fatalf("expected the interned symbol, got %v", decSym)
	}

	instant := NewTime(time.Date(2024, 3, 9, 12, 30, 45, 123_000_000, time.UTC))
	decTime := roundTrip(t, instant).(Time)
	if !decTime.Equal(instant.Time) {
		t.Fatalf("expected %v, got %v", instant.Time, decTime.Time)
	}

	re := NewRegexp(`\d+`, "gi")
	decRe := roundTrip(t, re).(*Regexp)
	if decRe.Pattern != re.Pattern || decRe.Flags != re.Flags {
		t.Fatalf("expected %v/%v, got %v/%v", re.Pattern, re.Flags, decRe.Pattern, decRe.Flags)
	}

	u, err := ParseURL("https://example.com/path?q=1")
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	decURL := roundTrip(t, u).(*URL)
	if decURL.String() != u.String() {
		t.Fatalf("expected %s, got %s", u.String(), decURL.String())
	}
}

func TestRoundTripListWithHoles(t *testing.T) {
	list := NewList(Number(1), Hole{}, Number(3))
	dec := roundTrip(t, list).(*List)
	if dec.Len() != 3 {
		t.Fatalf("expected length 3, got %d", dec.Len())
	}
	if v, ok := dec.At(0); !ok || v != Number(1) {
		t.Fatalf("expected 1 at position 0, got %v", v)
	}
	if _, ok := dec.At(1); ok {
		t.Fatalf("expected position 1 to be absent")
	}
	if v, ok := dec.At(2); !ok || v != Number(3) {
		t.Fatalf("expected 3 at position 2, got %v", v)
	}
}

func TestRoundTripRecordWithUndefinedValue(t *testing.T) {
	rec := NewRecord(RecordEntry{Key: "foo", Value: Undefined{}})
	dec := roundTrip(t, rec).(*Record)
	v, ok := dec.Get("foo")
	if !ok {
		t.Fatalf("expected key foo to be present")
	}
	if _, isUndef := v.(Undefined); !isUndef {
		t.Fatalf("expected undefined value, got %v", v)
	}
}

func TestRoundTripMapWithValueKeys(t *testing.T) {
	m := NewMap()
	key := NewList(Number(1), Number(2))
	m.Set(key, String("pair"))
	m.Set(Number(7), Bool(true))

	dec := roundTrip(t, m).(*Map)
	if dec.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", dec.Len())
	}
	decKey, ok := dec.Keys[0].(*List)
	if !ok || decKey.Len() != 2 {
		t.Fatalf("expected a list key, got %v", dec.Keys[0])
	}
	if dec.Values[0] != String("pair") {
		t.Fatalf("expected pair, got %v", dec.Values[0])
	}
	if dec.Keys[1] != Number(7) || dec.Values[1] != Bool(true) {
		t.Fatalf("expected 7:true, got %v:%v", dec.Keys[1], dec.Values[1])
	}
}

func TestRoundTripSet(t *testing.T) {
	set := NewSet(Number(1), String("two"), Null{})
	dec := roundTrip(t, set).(*Set)
	if len(dec.Elems) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(dec.Elems))
	}
	if dec.Elems[0] != Number(1) || dec.Elems[1] != String("two") {
		t.Fatalf("unexpected elements: %v", dec.Elems)
	}
	if _, ok := dec.Elems[2].(Null); !ok {
		t.Fatalf("expected null element, got %v", dec.Elems[2])
	}
}

func TestRoundTripError(t *testing.T) {
	ev := NewError("TypeError", "x is not a function")
	dec := roundTrip(t, ev).(*ErrorValue)
	if dec.Name != ev.Name || dec.Message != ev.Message {
		t.Fatalf("expected %v, got %v", ev, dec)
	}
}

func TestSharedReferencePreserved(t *testing.T) {
	child := NewList(Number(1))
	parent := NewList(child, child)
	dec := roundTrip(t, parent).(*List)
	first, _ := dec.At(0)
	second, _ := dec.At(1)
	if first != second {
		t.Fatalf("expected both positions to hold the same child")
	}
}

func TestCyclePreserved(t *testing.T) {
	rec := NewRecord()
	rec.Set("self", rec)
	dec := roundTrip(t, rec).(*Record)
	self, ok := dec.Get("self")
	if !ok {
		t.Fatalf("expected key self")
	}
	if self.(*Record) != dec {
		t.Fatalf("expected the record to contain itself")
	}

	list := NewList()
	list.Items = append(list.Items, Value(nil))
	list.Items[0] = list
	decList := roundTrip(t, list).(*List)
	inner, _ := decList.At(0)
	if inner.(*List) != decList {
		t.Fatalf("expected the list to contain itself")
	}
}

func TestCyclicMapKey(t *testing.T) {
	m := NewMap()
	key := NewList()
	key.Items = append(key.Items, m)
	m.Set(key, String("loop"))

	dec := roundTrip(t, m).(*Map)
	decKey := dec.Keys[0].(*List)
	back, _ := decKey.At(0)
	if back.(*Map) != dec {
		t.Fatalf("expected the key to cycle back to the map")
	}
}

func TestHoleOutsideListFails(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRecord(RecordEntry{Key: "x", Value: Hole{}})
	err := Encode(context.Background(), &buf, rec, nil)
	if err == nil {
		t.Fatalf("expected an encode error")
	}
}
