package resp

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/unkn0wn-root/resp/internal/wire"
)

type encodeState struct {
	buf []byte
}

func (e *encodeState) encode(v Value, depth int) error {
	if depth > maxEncodeDepth {
		return &EncodeError{Err: ErrTooDeep}
	}
	depth++

	switch v := v.(type) {
	case nil:
		return Errorf("cannot encode nil value")
	case Bool:
		if v {
			e.buf = wire.AppendInt(e.buf, 1)
		} else {
			e.buf = wire.AppendInt(e.buf, 0)
		}
	case Int:
		e.buf = wire.AppendInt(e.buf, int64(v))
	case Uint:
		e.buf = wire.AppendUint(e.buf, uint64(v))
	case Float:
		e.text(formatFloat(float64(v)))
	case Char:
		if !utf8.ValidRune(rune(v)) {
			return &EncodeError{Err: ErrInvalidUTF8, Detail: fmt.Sprintf("char %U", rune(v))}
		}
		e.text(string(rune(v)))
	case Text:
		e.text(string(v))
	case Bytes:
		e.buf = wire.AppendBulk(e.buf, v)

	// None => [] ; Some(v) => [v]
	case Optional:
		if v.Inner == nil {
			e.buf = wire.AppendArray(e.buf, 0)
			return nil
		}
		e.buf = wire.AppendArray(e.buf, 1)
		return e.encode(v.Inner, depth)

	case Unit, UnitStruct:
		e.buf = wire.AppendNull(e.buf)
	case UnitVariant:
		e.text(v.Variant)
	case Newtype:
		return e.encode(v.Inner, depth)

	// [variant, payload]
	case NewtypeVariant:
		e.variant(v.Variant)
		return e.encode(v.Inner, depth)
	case TupleVariant:
		e.variant(v.Variant)
		return e.seq(v.Elems, depth)
	case StructVariant:
		e.variant(v.Variant)
		return e.fields(v.Fields, depth)

	case Tuple:
		return e.seq(v, depth)
	case TupleStruct:
		return e.seq(v.Elems, depth)
	case List:
		return e.seq(v, depth)
	case Stream:
		return e.stream(v, depth)

	// [[k0, v0], [k1, v1], ...]
	case Map:
		e.buf = wire.AppendArray(e.buf, len(v))
		for _, ent := range v {
			if err := e.pair(ent.Key, ent.Value, depth); err != nil {
				return err
			}
		}
	case MapStream:
		return e.mapStream(v, depth)

	// [[field0, v0], [field1, v1], ...]
	case Record:
		return e.fields(v.Fields, depth)

	default:
		return Errorf("cannot encode %T", v)
	}
	return nil
}

// text picks the simple string form unless s carries CR or LF.
func (e *encodeState) text(s string) {
	if wire.NeedsBulk(s) {
		e.buf = wire.AppendBulkString(e.buf, s)
		return
	}
	e.buf = wire.AppendSimple(e.buf, s)
}

func (e *encodeState) variant(name string) {
	e.buf = wire.AppendArray(e.buf, 2)
	e.text(name)
}

func (e *encodeState) seq(elems []Value, depth int) error {
	e.buf = wire.AppendArray(e.buf, len(elems))
	for _, el := range elems {
		if err := e.encode(el, depth); err != nil {
			return err
		}
	}
	return nil
}

func (e *encodeState) pair(k, v Value, depth int) error {
	e.buf = wire.AppendArray(e.buf, 2)
	if err := e.encode(k, depth); err != nil {
		return err
	}
	return e.encode(v, depth)
}

func (e *encodeState) fields(fields []Field, depth int) error {
	e.buf = wire.AppendArray(e.buf, len(fields))
	for _, f := range fields {
		e.buf = wire.AppendArray(e.buf, 2)
		e.text(f.Name)
		if err := e.encode(f.Value, depth); err != nil {
			return err
		}
	}
	return nil
}

func (e *encodeState) stream(s Stream, depth int) error {
	if s.Len < 0 {
		return &EncodeError{Err: ErrLenNotKnown, Detail: "list"}
	}
	e.buf = wire.AppendArray(e.buf, s.Len)
	n := 0
	if s.Elems != nil {
		for el := range s.Elems {
			if n == s.Len {
				n++
				break
			}
			if err := e.encode(el, depth); err != nil {
				return err
			}
			n++
		}
	}
	if n != s.Len {
		return &EncodeError{Err: ErrLenMismatch, Detail: fmt.Sprintf("list declared %d elements", s.Len)}
	}
	return nil
}

func (e *encodeState) mapStream(s MapStream, depth int) error {
	if s.Len < 0 {
		return &EncodeError{Err: ErrLenNotKnown, Detail: "map"}
	}
	e.buf = wire.AppendArray(e.buf, s.Len)
	n := 0
	if s.Entries != nil {
		for k, v := range s.Entries {
			if n == s.Len {
				n++
				break
			}
			if err := e.pair(k, v, depth); err != nil {
				return err
			}
			n++
		}
	}
	if n != s.Len {
		return &EncodeError{Err: ErrLenMismatch, Detail: fmt.Sprintf("map declared %d entries", s.Len)}
	}
	return nil
}

// formatFloat renders the shortest decimal that parses back to f, without an
// exponent. Non-finite values come out as "NaN", "+Inf" and "-Inf"; none of
// them contain CR or LF, so floats always take the simple string path.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
