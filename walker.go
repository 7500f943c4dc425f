package strand

import (
	"fmt"
	"math"
)

// walker traverses one frame's value graph and produces its reference table.
// Containers and deferreds are deduplicated by identity within the frame;
// strings and numbers are inlined at each use site. The identity map is
// populated before descending into children, which is what closes cycles.
type walker struct {
	plugins []EncodePlugin
	reg     *encodeRegistry

	// frame0 walks allocate deferred ids from their own slot indices; later
	// frames allocate from the registry's global counter.
	frame0 bool

	seen    map[Value]int64
	entries []*entry
}

// walkFrame produces the reference table for one frame rooted at v.
func walkFrame(v Value, plugins []EncodePlugin, reg *encodeRegistry, frame0 bool) ([]*entry, error) {
	w := &walker{
		plugins: plugins,
		reg:     reg,
		frame0:  frame0,
		seen:    map[Value]int64{},
	}
	tok, err := w.walk(v)
	if err != nil {
		return nil, err
	}
	if tok < 0 {
		// An atom root occupies no slot on its own; box it so the frame's
		// slot 0 exists. The table is necessarily empty here.
		w.entries = append(w.entries, &entry{form: formCoded, code: codeAtom, payloadNum: tok})
		if frame0 {
			w.reg.bumpGlobal()
		}
	}
	return w.entries, nil
}

// walk returns the reference token for v: a negative sentinel for singleton
// atoms, otherwise the slot index assigned to v in this frame.
func (w *walker) walk(v Value) (int64, error) {
	if v == nil {
		v = Undefined{}
	}

	if sen, ok := sentinelFor(v); ok {
		return sen, nil
	}
	if idx, ok := w.seen[v]; ok {
		return idx, nil
	}

	// Plugins run before the built-in kind table so a caller can override a
	// built-in encoding.
	for _, p := range w.plugins {
		tag, children, ok, err := p.Encode(v)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrPlugin, err)
		}
		if !ok {
			continue
		}
		if tag == "" {
			return 0, fmt.Errorf("%w: plugin returned an empty tag", ErrPlugin)
		}
		return w.walkCustom(v, tag, children)
	}

	switch val := v.(type) {
	case String:
		idx, e := w.alloc(v, false)
		e.form = formString
		e.str = string(val)
		return idx, nil

	case Number:
		idx, e := w.alloc(v, false)
		e.form = formNumber
		e.num = float64(val)
		return idx, nil

	case *BigInt:
		idx, e := w.alloc(v, true)
		e.code = codeBigInt
		e.payloadStr = val.Int.Text(10)
		return idx, nil

	case Time:
		idx, e := w.alloc(v, true)
		e.code = codeTime
		e.payloadNum = val.UnixMilli()
		return idx, nil

	case *Symbol:
		idx, e := w.alloc(v, true)
		e.code = codeSymbol
		e.payloadStr = val.name
		return idx, nil

	case *URL:
		idx, e := w.alloc(v, true)
		e.code = codeURL
		e.payloadStr = val.String()
		return idx, nil

	case *Regexp:
		idx, e := w.alloc(v, true)
		e.code = codeRegexp
		pattern, err := w.walk(String(val.Pattern))
		if err != nil {
			return 0, err
		}
		flags, err := w.walk(String(val.Flags))
		if err != nil {
			return 0, err
		}
		e.indices = []int64{pattern, flags}
		return idx, nil

	case *ErrorValue:
		idx, e := w.alloc(v, true)
		e.code = codeError
		name, err := w.walk(String(val.Name))
		if err != nil {
			return 0, err
		}
		message, err := w.walk(String(val.Message))
		if err != nil {
			return 0, err
		}
		e.indices = []int64{name, message}
		return idx, nil

	case *List:
		idx, e := w.alloc(v, true)
		e.code = codeList
		e.indices = make([]int64, len(val.Items))
		for i, item := range val.Items {
			if _, absent := item.(Hole); absent {
				e.indices[i] = senHole
				continue
			}
			tok, err := w.walk(item)
			if err != nil {
				return 0, err
			}
			e.indices[i] = tok
		}
		return idx, nil

	case *Set:
		idx, e := w.alloc(v, true)
		e.code = codeSet
		e.indices = make([]int64, len(val.Elems))
		for i, elem := range val.Elems {
			tok, err := w.walk(elem)
			if err != nil {
				return 0, err
			}
			e.indices[i] = tok
		}
		return idx, nil

	case *Record:
		idx, e := w.alloc(v, true)
		e.code = codeRecord
		e.keys = append([]string(nil), val.Keys...)
		e.indices = make([]int64, len(val.Values))
		for i, item := range val.Values {
			tok, err := w.walk(item)
			if err != nil {
				return 0, err
			}
			e.indices[i] = tok
		}
		return idx, nil

	case *Map:
		idx, e := w.alloc(v, true)
		e.code = codeMap
		e.indices = make([]int64, 0, len(val.Keys)*2)
		for i := range val.Keys {
			k, err := w.walk(val.Keys[i])
			if err != nil {
				return 0, err
			}
			item, err := w.walk(val.Values[i])
			if err != nil {
				return 0, err
			}
			e.indices = append(e.indices, k, item)
		}
		return idx, nil

	case *Deferred:
		idx, e := w.alloc(v, true)
		e.code = codePending
		e.payloadNum = w.reg.idFor(val, idx, w.frame0)
		return idx, nil

	case Hole:
		// Holes only make sense inside a list; a bare hole has no encoding.
		return 0, fmt.Errorf("%w: hole outside a sequence", ErrUnsupportedValue)

	default:
		return 0, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

func (w *walker) walkCustom(v Value, tag string, children []Value) (int64, error) {
	idx, e := w.alloc(v, true)
	e.code = codeCustom
	e.indices = make([]int64, 1, len(children)+1)
	tagTok, err := w.walk(String(tag))
	if err != nil {
		return 0, err
	}
	e.indices[0] = tagTok
	for _, child := range children {
		tok, err := w.walk(child)
		if err != nil {
			return 0, err
		}
		e.indices = append(e.indices, tok)
	}
	return idx, nil
}

// alloc assigns the next slot to v and returns its entry for the caller to
// fill. Identity-keyed values are recorded in the seen map before their
// children are walked.
func (w *walker) alloc(v Value, identity bool) (int64, *entry) {
	idx := int64(len(w.entries))
	e := &entry{form: formCoded}
	w.entries = append(w.entries, e)
	if identity {
		w.seen[v] = idx
	}
	if w.frame0 {
		w.reg.bumpGlobal()
	}
	return idx, e
}

// sentinelFor maps singleton atoms to their negative sentinel indices.
func sentinelFor(v Value) (int64, bool) {
	switch val := v.(type) {
	case Undefined:
		return senUndefined, true
	case Null:
		return senNull, true
	case Bool:
		if val {
			return senTrue, true
		}
		return senFalse, true
	case Number:
		f := float64(val)
		switch {
		case math.IsInf(f, 1):
			return senPosInfinity, true
		case math.IsInf(f, -1):
			return senNegInfinity, true
		case math.IsNaN(f):
			return senNaN, true
		case f == 0 && math.Signbit(f):
			return senNegZero, true
		}
	case String:
		if val == "" {
			return senEmptyString, true
		}
	}
	return 0, false
}
