// Package strand implements a streaming, self-referential value serialization
// format. An encoded stream is a sequence of newline-delimited frames: the
// first frame carries the root value's reference table, and each subsequent
// frame settles one deferred value registered by an earlier frame. The
// receiver observes the root before every sub-value has arrived, and observes
// each deferred independently as it resolves or rejects at the sender.
//
// Values are modeled as a closed set of kinds (see Kind). Containers and
// deferreds are deduplicated by identity, so shared substructure and cycles
// survive a round trip. Application types round-trip through ordered plugin
// lists (see EncodePlugin and DecodePlugin).
package strand

// Kind identifies the logical kind of a Value.
type Kind int

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindBigInt
	KindSymbol
	KindRegexp
	KindTime
	KindURL
	KindList
	KindSet
	KindRecord
	KindMap
	KindError
	KindDeferred
	KindHole
	// KindCustom marks application-defined values. The codec never encodes
	// them itself; a matching plugin must claim them on both sides.
	KindCustom
)

// Value is a logical value handled by the codec. The types in this package
// cover every built-in kind; applications add their own by returning
// KindCustom and registering plugins for the type.
type Value interface {
	Kind() Kind
}

// Undefined is the unit-absent atom.
type Undefined struct{}

// Null is the unit-null atom.
type Null struct{}

// Bool is a boolean atom.
type Bool bool

// Number is a double-precision number. The non-finite values and negative
// zero are preserved exactly across a round trip.
type Number float64

// String is a string scalar. Strings are inlined at each use site and never
// deduplicated.
type String string

// Hole marks an absent position inside a List. It is distinct from Undefined:
// a decoded list reports the position as absent, not present-with-undefined.
// Holes are only meaningful as list elements.
type Hole struct{}

func (Undefined) Kind() Kind { return KindUndefined }
func (Null) Kind() Kind      { return KindNull }
func (Bool) Kind() Kind      { return KindBool }
func (Number) Kind() Kind    { return KindNumber }
func (String) Kind() Kind    { return KindString }
func (Hole) Kind() Kind      { return KindHole }

// List is an ordered sequence. Positions may be absent; absent positions hold
// Hole. Lists have pointer identity: the same *List referenced twice encodes
// as a shared reference.
type List struct {
	Items []Value
}

// NewList creates a list from items.
func NewList(items ...Value) *List {
	return &List{Items: items}
}

// At returns the value at position i and whether the position is present.
func (l *List) At(i int) (Value, bool) {
	v := l.Items[i]
	if _, absent := v.(Hole); absent {
		return nil, false
	}
	return v, true
}

func (l *List) Len() int { return len(l.Items) }

func (*List) Kind() Kind { return KindList }

// Set is an ordered collection of unique elements. Uniqueness is by the
// caller's construction; the codec preserves element order and identity but
// does not re-hash elements.
type Set struct {
	Elems []Value
}

func NewSet(elems ...Value) *Set { return &Set{Elems: elems} }

func (*Set) Kind() Kind { return KindSet }

// Record is a string-keyed mapping with insertion order. A key may be present
// with an Undefined value; that is distinct from the key being absent.
type Record struct {
	Keys   []string
	Values []Value
}

// RecordEntry is a convenience for building records.
type RecordEntry struct {
	Key   string
	Value Value
}

// NewRecord creates a record from entries in order.
func NewRecord(entries ...RecordEntry) *Record {
	r := &Record{
		Keys:   make([]string, len(entries)),
		Values: make([]Value, len(entries)),
	}
	for i, e := range entries {
		r.Keys[i] = e.Key
		r.Values[i] = e.Value
	}
	return r
}

// Get returns the value for key and whether the key is present.
func (r *Record) Get(key string) (Value, bool) {
	for i, k := range r.Keys {
		if k == key {
			return r.Values[i], true
		}
	}
	return nil, false
}

// Set appends or replaces the value for key.
func (r *Record) Set(key string, v Value) {
	for i, k := range r.Keys {
		if k == key {
			r.Values[i] = v
			return
		}
	}
	r.Keys = append(r.Keys, key)
	r.Values = append(r.Values, v)
}

func (r *Record) Len() int { return len(r.Keys) }

func (*Record) Kind() Kind { return KindRecord }

// Map is a keyed mapping whose keys are arbitrary values. Keys and values are
// stored pairwise in insertion order.
type Map struct {
	Keys   []Value
	Values []Value
}

func NewMap() *Map { return &Map{} }

// Set appends a key/value pair. Keys are not deduplicated structurally; a key
// referenced twice by identity encodes as a shared reference.
func (m *Map) Set(key, v Value) {
	m.Keys = append(m.Keys, key)
	m.Values = append(m.Values, v)
}

func (m *Map) Len() int { return len(m.Keys) }

func (*Map) Kind() Kind { return KindMap }

// ErrorValue is a tagged error: a kind name plus a message.
type ErrorValue struct {
	Name    string
	Message string
}

func NewError(name, message string) *ErrorValue {
	return &ErrorValue{Name: name, Message: message}
}

func (*ErrorValue) Kind() Kind { return KindError }

// Regexp is a regular expression literal: a pattern and a flag string. The
// codec transports both uninterpreted.
type Regexp struct {
	Pattern string
	Flags   string
}

func NewRegexp(pattern, flags string) *Regexp {
	return &Regexp{Pattern: pattern, Flags: flags}
}

func (*Regexp) Kind() Kind { return KindRegexp }
