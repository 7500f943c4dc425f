package strand

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-json-experiment/json/jsontext"
)

// entryForm discriminates the two table-slot shapes: a bare JSON scalar, or
// a [typeCode, payload] pair.
type entryForm int

const (
	formString entryForm = iota
	formNumber
	formBool
	formNull
	formCoded
)

// entry is one slot of a frame's reference table. The walker produces
// entries and the parser reconstructs them; the wire form is identical in
// both directions.
type entry struct {
	form entryForm

	str string  // formString
	num float64 // formNumber
	b   bool    // formBool

	code       int64
	payloadNum int64    // codeAtom, codeTime, codePending
	payloadStr string   // codeBigInt, codeSymbol, codeURL
	indices    []int64  // codeList, codeSet, codeMap, codeRegexp, codeError, codeCustom
	keys       []string // codeRecord, paired 1:1 with indices
}

// encodeTable writes the reference table as a single JSON array with no
// trailing newline.
func encodeTable(buf *bytes.Buffer, table []*entry) error {
	enc := jsontext.NewEncoder(buf)
	if err := enc.WriteToken(jsontext.BeginArray); err != nil {
		return err
	}
	for _, e := range table {
		if err := encodeEntry(enc, e); err != nil {
			return err
		}
	}
	if err := enc.WriteToken(jsontext.EndArray); err != nil {
		return err
	}
	// The token encoder may emit a newline after a completed top-level
	// value; the framer owns the frame terminator.
	b := buf.Bytes()
	buf.Truncate(len(bytes.TrimRight(b, "\n")))
	return nil
}

func encodeEntry(enc *jsontext.Encoder, e *entry) error {
	switch e.form {
	case formString:
		return enc.WriteToken(jsontext.String(e.str))
	case formNumber:
		return enc.WriteToken(jsontext.Float(e.num))
	case formBool:
		return enc.WriteToken(jsontext.Bool(e.b))
	case formNull:
		return enc.WriteToken(jsontext.Null)
	}

	if err := enc.WriteToken(jsontext.BeginArray); err != nil {
		return err
	}
	if err := enc.WriteToken(jsontext.Int(e.code)); err != nil {
		return err
	}
	switch e.code {
	case codeAtom, codeTime, codePending:
		if err := enc.WriteToken(jsontext.Int(e.payloadNum)); err != nil {
			return err
		}
	case codeBigInt, codeSymbol, codeURL:
		if err := enc.WriteToken(jsontext.String(e.payloadStr)); err != nil {
			return err
		}
	case codeRecord:
		if err := enc.WriteToken(jsontext.BeginArray); err != nil {
			return err
		}
		for i, key := range e.keys {
			if err := enc.WriteToken(jsontext.String(key)); err != nil {
				return err
			}
			if err := enc.WriteToken(jsontext.Int(e.indices[i])); err != nil {
				return err
			}
		}
		if err := enc.WriteToken(jsontext.EndArray); err != nil {
			return err
		}
	default:
		if err := enc.WriteToken(jsontext.BeginArray); err != nil {
			return err
		}
		for _, idx := range e.indices {
			if err := enc.WriteToken(jsontext.Int(idx)); err != nil {
				return err
			}
		}
		if err := enc.WriteToken(jsontext.EndArray); err != nil {
			return err
		}
	}
	return enc.WriteToken(jsontext.EndArray)
}

// parseTable reads a reference table from one frame's payload. The payload
// must be exactly one JSON array; anything after it is a grammar violation.
func parseTable(data []byte) ([]*entry, error) {
	dec := jsontext.NewDecoder(bytes.NewReader(data))

	tok, err := dec.ReadToken()
	if err != nil {
		return nil, malformed("reading table: %v", err)
	}
	if tok.Kind() != '[' {
		return nil, malformed("table is not an array")
	}

	var table []*entry
	for {
		kind := dec.PeekKind()
		switch kind {
		case ']':
			if _, err := dec.ReadToken(); err != nil {
				return nil, malformed("closing table: %v", err)
			}
			if _, err := dec.ReadToken(); err != io.EOF {
				return nil, malformed("trailing data after table")
			}
			return table, nil
		case '"':
			tok, err := dec.ReadToken()
			if err != nil {
				return nil, malformed("reading string slot: %v", err)
			}
			table = append(table, &entry{form: formString, str: tok.String()})
		case '0':
			tok, err := dec.ReadToken()
			if err != nil {
				return nil, malformed("reading number slot: %v", err)
			}
			numVal, err := tok.Float()
			if err != nil {
				return nil, malformed("reading number slot: %v", err)
			}
			table = append(table, &entry{form: formNumber, num: numVal})
		case 't', 'f':
			tok, err := dec.ReadToken()
			if err != nil {
				return nil, malformed("reading boolean slot: %v", err)
			}
			table = append(table, &entry{form: formBool, b: tok.Bool()})
		case 'n':
			if _, err := dec.ReadToken(); err != nil {
				return nil, malformed("reading null slot: %v", err)
			}
			table = append(table, &entry{form: formNull})
		case '[':
			e, err := parseCodedEntry(dec)
			if err != nil {
				return nil, err
			}
			table = append(table, e)
		default:
			return nil, malformed("invalid table slot")
		}
	}
}

func parseCodedEntry(dec *jsontext.Decoder) (*entry, error) {
	if _, err := dec.ReadToken(); err != nil {
		return nil, malformed("opening entry: %v", err)
	}
	code, err := readInt(dec, "type code")
	if err != nil {
		return nil, err
	}
	e := &entry{form: formCoded, code: code}

	switch code {
	case codeAtom, codeTime, codePending:
		e.payloadNum, err = readInt(dec, "numeric payload")
		if err != nil {
			return nil, err
		}
	case codeBigInt, codeSymbol, codeURL:
		tok, err := dec.ReadToken()
		if err != nil || tok.Kind() != '"' {
			return nil, malformed("entry %d wants a string payload", code)
		}
		e.payloadStr = tok.String()
	case codeRecord:
		if err := expectKind(dec, '['); err != nil {
			return nil, err
		}
		for dec.PeekKind() != ']' {
			tok, err := dec.ReadToken()
			if err != nil || tok.Kind() != '"' {
				return nil, malformed("record key is not a string")
			}
			key := tok.String()
			idx, err := readInt(dec, "record value index")
			if err != nil {
				return nil, err
			}
			e.keys = append(e.keys, key)
			e.indices = append(e.indices, idx)
		}
		if _, err := dec.ReadToken(); err != nil {
			return nil, malformed("closing record payload: %v", err)
		}
	case codeList, codeSet, codeMap, codeRegexp, codeError, codeCustom:
		if err := expectKind(dec, '['); err != nil {
			return nil, err
		}
		for dec.PeekKind() != ']' {
			idx, err := readInt(dec, "payload index")
			if err != nil {
				return nil, err
			}
			e.indices = append(e.indices, idx)
		}
		if _, err := dec.ReadToken(); err != nil {
			return nil, malformed("closing payload: %v", err)
		}
	default:
		return nil, malformed("unknown type code %d", code)
	}

	tok, err := dec.ReadToken()
	if err != nil || tok.Kind() != ']' {
		return nil, malformed("entry %d has extra elements", code)
	}
	return e, nil
}

func expectKind(dec *jsontext.Decoder, kind jsontext.Kind) error {
	tok, err := dec.ReadToken()
	if err != nil || tok.Kind() != kind {
		return malformed("expected %q", byte(kind))
	}
	return nil
}

func readInt(dec *jsontext.Decoder, what string) (int64, error) {
	tok, err := dec.ReadToken()
	if err != nil || tok.Kind() != '0' {
		return 0, malformed("%s is not a number", what)
	}
	f, err := tok.Float()
	if err != nil {
		return 0, malformed("%s is not a number: %v", what, err)
	}
	n := int64(f)
	if float64(n) != f {
		return 0, malformed("%s is not an integer", what)
	}
	return n, nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedFrame, fmt.Sprintf(format, args...))
}
