package strand

import (
	"fmt"
	"math"
	"time"
)

// hydrator links one parsed reference table back into values. Hydration is
// shell-first: a container is allocated empty and memoized before its
// members are linked, so cyclic back-references resolve to the container
// under construction instead of recursing forever.
type hydrator struct {
	plugins []DecodePlugin
	reg     *decodeRegistry
	table   []*entry

	values   []Value
	built    []bool
	building []bool
}

func newHydrator(table []*entry, plugins []DecodePlugin, reg *decodeRegistry) *hydrator {
	return &hydrator{
		plugins: plugins,
		reg:     reg,
		table:    table,
		values:   make([]Value, len(table)),
		built:    make([]bool, len(table)),
		building: make([]bool, len(table)),
	}
}

// root hydrates the frame's root value, slot 0.
func (h *hydrator) root() (Value, error) {
	if len(h.table) == 0 {
		return nil, malformed("frame has no root slot")
	}
	return h.value(0)
}

// value resolves a reference token: a sentinel atom or a table slot.
func (h *hydrator) value(idx int64) (Value, error) {
	if idx < 0 {
		return atomFor(idx)
	}
	if idx >= int64(len(h.table)) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrUnknownReference, idx, len(h.table))
	}
	if h.built[idx] {
		return h.values[idx], nil
	}
	// Containers memoize a shell before descending, so a built flag covers
	// legitimate cycles; a reference back into any other entry still under
	// construction cannot terminate.
	if h.building[idx] {
		return nil, malformed("entry %d references itself", idx)
	}
	v, err := h.build(idx)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (h *hydrator) build(idx int64) (Value, error) {
	h.building[idx] = true
	e := h.table[idx]

	switch e.form {
	case formString:
		return h.memo(idx, String(e.str)), nil
	case formNumber:
		return h.memo(idx, Number(e.num)), nil
	case formBool:
		return h.memo(idx, Bool(e.b)), nil
	case formNull:
		return h.memo(idx, Null{}), nil
	}

	switch e.code {
	case codeAtom:
		v, err := atomFor(e.payloadNum)
		if err != nil {
			return nil, err
		}
		return h.memo(idx, v), nil

	case codeList:
		shell := &List{Items: make([]Value, len(e.indices))}
		h.memo(idx, shell)
		for i, tok := range e.indices {
			if tok == senHole {
				shell.Items[i] = Hole{}
				continue
			}
			item, err := h.value(tok)
			if err != nil {
				return nil, err
			}
			shell.Items[i] = item
		}
		return shell, nil

	case codeSet:
		shell := &Set{Elems: make([]Value, 0, len(e.indices))}
		h.memo(idx, shell)
		for _, tok := range e.indices {
			elem, err := h.value(tok)
			if err != nil {
				return nil, err
			}
			shell.Elems = append(shell.Elems, elem)
		}
		return shell, nil

	case codeRecord:
		shell := &Record{
			Keys:   append([]string(nil), e.keys...),
			Values: make([]Value, len(e.indices)),
		}
		h.memo(idx, shell)
		for i, tok := range e.indices {
			item, err := h.value(tok)
			if err != nil {
				return nil, err
			}
			shell.Values[i] = item
		}
		return shell, nil

	case codeMap:
		if len(e.indices)%2 != 0 {
			return nil, malformed("mapping payload has odd length")
		}
		shell := &Map{}
		h.memo(idx, shell)
		for i := 0; i < len(e.indices); i += 2 {
			// Keys hydrate before insertion; a key that cycles through this
			// mapping finds the shell already in place.
			k, err := h.value(e.indices[i])
			if err != nil {
				return nil, err
			}
			item, err := h.value(e.indices[i+1])
			if err != nil {
				return nil, err
			}
			shell.Keys = append(shell.Keys, k)
			shell.Values = append(shell.Values, item)
		}
		return shell, nil

	case codeBigInt:
		b, ok := ParseBigInt(e.payloadStr)
		if !ok {
			return nil, malformed("invalid big integer %q", e.payloadStr)
		}
		return h.memo(idx, b), nil

	case codeTime:
		return h.memo(idx, Time{time.UnixMilli(e.payloadNum).UTC()}), nil

	case codeRegexp:
		if len(e.indices) != 2 {
			return nil, malformed("regexp payload wants 2 indices")
		}
		pattern, err := h.stringAt(e.indices[0])
		if err != nil {
			return nil, err
		}
		flags, err := h.stringAt(e.indices[1])
		if err != nil {
			return nil, err
		}
		return h.memo(idx, &Regexp{Pattern: pattern, Flags: flags}), nil

	case codeSymbol:
		return h.memo(idx, SymbolFor(e.payloadStr)), nil

	case codeURL:
		u, err := ParseURL(e.payloadStr)
		if err != nil {
			return nil, malformed("invalid url %q: %v", e.payloadStr, err)
		}
		return h.memo(idx, u), nil

	case codeError:
		if len(e.indices) != 2 {
			return nil, malformed("error payload wants 2 indices")
		}
		name, err := h.stringAt(e.indices[0])
		if err != nil {
			return nil, err
		}
		message, err := h.stringAt(e.indices[1])
		if err != nil {
			return nil, err
		}
		return h.memo(idx, &ErrorValue{Name: name, Message: message}), nil

	case codeCustom:
		return h.custom(idx, e)

	case codePending:
		return h.memo(idx, h.reg.placeholder(e.payloadNum)), nil

	default:
		return nil, malformed("unknown type code %d", e.code)
	}
}

func (h *hydrator) custom(idx int64, e *entry) (Value, error) {
	if len(e.indices) == 0 {
		return nil, malformed("custom payload missing tag")
	}
	tag, err := h.stringAt(e.indices[0])
	if err != nil {
		return nil, err
	}
	children := make([]Value, 0, len(e.indices)-1)
	for _, tok := range e.indices[1:] {
		child, err := h.value(tok)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	for _, p := range h.plugins {
		v, ok, err := p.Decode(tag, children)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPlugin, err)
		}
		if ok {
			return h.memo(idx, v), nil
		}
	}
	return nil, fmt.Errorf("%w: no decode plugin claimed tag %q", ErrPlugin, tag)
}

func (h *hydrator) stringAt(tok int64) (string, error) {
	v, err := h.value(tok)
	if err != nil {
		return "", err
	}
	s, ok := v.(String)
	if !ok {
		return "", malformed("reference %d is not a string", tok)
	}
	return string(s), nil
}

func (h *hydrator) memo(idx int64, v Value) Value {
	h.values[idx] = v
	h.built[idx] = true
	return v
}

// atomFor maps a sentinel index to its singleton atom. The hole sentinel is
// handled by list hydration and is invalid anywhere else.
func atomFor(sen int64) (Value, error) {
	switch sen {
	case senUndefined:
		return Undefined{}, nil
	case senNull:
		return Null{}, nil
	case senTrue:
		return Bool(true), nil
	case senFalse:
		return Bool(false), nil
	case senPosInfinity:
		return Number(math.Inf(1)), nil
	case senNegInfinity:
		return Number(math.Inf(-1)), nil
	case senNaN:
		return Number(math.NaN()), nil
	case senNegZero:
		return Number(math.Copysign(0, -1)), nil
	case senEmptyString:
		return String(""), nil
	default:
		return nil, malformed("unknown sentinel %d", sen)
	}
}
