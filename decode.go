package resp

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/unkn0wn-root/resp/internal/wire"
)

// decodeState walks one input buffer on behalf of a requested shape. It is
// driven from the outside: the caller says "give me an integer", "give me an
// array of n", and decodeState reads exactly the frames needed for that.
type decodeState struct {
	r        *wire.Reader
	maxDepth int
	depth    int
}

func (d *decodeState) wrap(off int, err error) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}
	return &DecodeError{Offset: off, Err: err}
}

func (d *decodeState) mismatch(off int, t byte, want string) error {
	return &DecodeError{Offset: off, Err: ErrMismatch, Detail: fmt.Sprintf("want %s, got %s", want, frameName(t))}
}

func frameName(t byte) string {
	switch t {
	case wire.TagSimple:
		return "simple string"
	case wire.TagError:
		return "error"
	case wire.TagInt:
		return "integer"
	case wire.TagBulk:
		return "bulk string"
	case wire.TagArray:
		return "array"
	}
	return strconv.QuoteRune(rune(t))
}

func (d *decodeState) enter() error {
	if d.depth >= d.maxDepth {
		return &DecodeError{Offset: d.r.Offset(), Err: ErrTooDeep, Detail: fmt.Sprintf("limit %d", d.maxDepth)}
	}
	d.depth++
	return nil
}

func (d *decodeState) leave() { d.depth-- }

// tag consumes the next frame tag. An error frame is consumed whole and
// returned as a ServerError.
func (d *decodeState) tag() (byte, int, error) {
	off := d.r.Offset()
	t, err := d.r.ReadTag()
	if err != nil {
		return 0, off, d.wrap(off, err)
	}
	if t == wire.TagError {
		line, err := d.r.ReadLine()
		if err != nil {
			return 0, off, d.wrap(off, err)
		}
		return 0, off, &DecodeError{Offset: off, Err: ServerError(line)}
	}
	return t, off, nil
}

func (d *decodeState) intLine() ([]byte, int, error) {
	t, off, err := d.tag()
	if err != nil {
		return nil, off, err
	}
	if t != wire.TagInt {
		return nil, off, d.mismatch(off, t, "integer")
	}
	line, err := d.r.ReadLine()
	if err != nil {
		return nil, off, d.wrap(off, err)
	}
	return line, off, nil
}

func (d *decodeState) integer(bits int) (int64, error) {
	line, off, err := d.intLine()
	if err != nil {
		return 0, err
	}
	v, err := wire.ParseInt(line, bits)
	if err != nil {
		return 0, d.wrap(off, err)
	}
	return v, nil
}

func (d *decodeState) unsigned(bits int) (uint64, error) {
	line, off, err := d.intLine()
	if err != nil {
		return 0, err
	}
	v, err := wire.ParseUint(line, bits)
	if err != nil {
		return 0, d.wrap(off, err)
	}
	return v, nil
}

// 0 => false, 1 => true
func (d *decodeState) boolean() (bool, error) {
	line, off, err := d.intLine()
	if err != nil {
		return false, err
	}
	switch string(line) {
	case "0":
		return false, nil
	case "1":
		return true, nil
	}
	return false, &DecodeError{Offset: off, Err: ErrMismatch, Detail: fmt.Sprintf("bool must be 0 or 1, got %q", line)}
}

// str returns the payload of a simple or bulk string. The slice aliases the
// input; callers copy before handing it out.
func (d *decodeState) str(want string) ([]byte, int, error) {
	t, off, err := d.tag()
	if err != nil {
		return nil, off, err
	}
	switch t {
	case wire.TagSimple:
		line, err := d.r.ReadLine()
		if err != nil {
			return nil, off, d.wrap(off, err)
		}
		return line, off, nil
	case wire.TagBulk:
		n, err := d.r.ReadLength()
		if err != nil {
			return nil, off, d.wrap(off, err)
		}
		if n < 0 {
			return nil, off, &DecodeError{Offset: off, Err: ErrMismatch, Detail: "want " + want + ", got null bulk string"}
		}
		body, err := d.r.ReadBulkBody(n)
		if err != nil {
			return nil, off, d.wrap(off, err)
		}
		return body, off, nil
	}
	return nil, off, d.mismatch(off, t, want)
}

func (d *decodeState) text() (string, error) {
	b, off, err := d.str("text")
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", &DecodeError{Offset: off, Err: ErrInvalidUTF8}
	}
	return string(b), nil
}

func (d *decodeState) bytes() ([]byte, error) {
	b, _, err := d.str("bytes")
	if err != nil {
		return nil, err
	}
	return bytes.Clone(b), nil
}

func (d *decodeState) char() (rune, error) {
	off := d.r.Offset()
	s, err := d.text()
	if err != nil {
		return 0, err
	}
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) {
		return 0, &DecodeError{Offset: off, Err: ErrMismatch, Detail: fmt.Sprintf("want a single character, got %q", s)}
	}
	return r, nil
}

// Floats travel as text; integer frames are accepted too.
func (d *decodeState) float(bits int) (float64, error) {
	off := d.r.Offset()
	t, err := d.r.Peek()
	if err != nil {
		return 0, d.wrap(off, err)
	}
	var raw []byte
	if t == wire.TagInt {
		raw, _, err = d.intLine()
		if err == nil {
			if cerr := wire.CheckInt(raw); cerr != nil {
				err = d.wrap(off, cerr)
			}
		}
	} else {
		raw, _, err = d.str("float")
	}
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(string(raw), bits)
	if err != nil {
		var ne *strconv.NumError
		if errors.As(err, &ne) && errors.Is(ne.Err, strconv.ErrRange) {
			return 0, &DecodeError{Offset: off, Err: ErrOverflow, Detail: fmt.Sprintf("float %q", raw)}
		}
		return 0, &DecodeError{Offset: off, Err: ErrMismatch, Detail: fmt.Sprintf("malformed float %q", raw)}
	}
	return f, nil
}

// unit expects exactly the null bulk string.
func (d *decodeState) unit() error {
	t, off, err := d.tag()
	if err != nil {
		return err
	}
	if t != wire.TagBulk {
		return d.mismatch(off, t, "unit")
	}
	n, err := d.r.ReadLength()
	if err != nil {
		return d.wrap(off, err)
	}
	if n != -1 {
		return &DecodeError{Offset: off, Err: ErrMismatch, Detail: "want unit, got bulk string"}
	}
	return nil
}

// array reads an array header and returns its element count.
func (d *decodeState) array(want string) (int, int, error) {
	t, off, err := d.tag()
	if err != nil {
		return 0, off, err
	}
	if t != wire.TagArray {
		return 0, off, d.mismatch(off, t, want)
	}
	n, err := d.r.ReadLength()
	if err != nil {
		return 0, off, d.wrap(off, err)
	}
	if n < 0 {
		return 0, off, &DecodeError{Offset: off, Err: ErrMismatch, Detail: "want " + want + ", got null array"}
	}
	if err := d.r.CheckArray(n); err != nil {
		return 0, off, d.wrap(off, err)
	}
	return n, off, nil
}

// arrayN reads an array header that must announce exactly want elements.
func (d *decodeState) arrayN(want int, what string) error {
	n, off, err := d.array(what)
	if err != nil {
		return err
	}
	if n != want {
		return &DecodeError{Offset: off, Err: ErrArity, Detail: fmt.Sprintf("%s: want %d elements, got %d", what, want, n)}
	}
	return nil
}

// [] => absent, [v] => present
func (d *decodeState) optional() (bool, error) {
	n, off, err := d.array("optional")
	if err != nil {
		return false, err
	}
	switch n {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, &DecodeError{Offset: off, Err: ErrBadOptional, Detail: fmt.Sprintf("got %d elements", n)}
}

// fieldName reads the name half of a [name, value] pair and resolves it.
func (d *decodeState) fieldName(fields []FieldShape, seen []bool, what string) (int, error) {
	if err := d.arrayN(2, what+" field"); err != nil {
		return -1, err
	}
	off := d.r.Offset()
	name, err := d.text()
	if err != nil {
		return -1, err
	}
	i := fieldIndex(fields, name)
	if i < 0 {
		return -1, &DecodeError{Offset: off, Err: ErrUnknownField, Detail: fmt.Sprintf("%s has no field %q", what, name)}
	}
	if seen[i] {
		return -1, &DecodeError{Offset: off, Err: ErrDuplicateField, Detail: fmt.Sprintf("%s field %q", what, name)}
	}
	seen[i] = true
	return i, nil
}

func (d *decodeState) value(s Shape) (Value, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()

	switch s.Kind {
	case KindBool:
		b, err := d.boolean()
		if err != nil {
			return nil, err
		}
		return Bool(b), nil
	case KindInt:
		v, err := d.integer(s.bits())
		if err != nil {
			return nil, err
		}
		return Int(v), nil
	case KindUint:
		v, err := d.unsigned(s.bits())
		if err != nil {
			return nil, err
		}
		return Uint(v), nil
	case KindFloat:
		f, err := d.float(s.bits())
		if err != nil {
			return nil, err
		}
		return Float(f), nil
	case KindChar:
		r, err := d.char()
		if err != nil {
			return nil, err
		}
		return Char(r), nil
	case KindText:
		t, err := d.text()
		if err != nil {
			return nil, err
		}
		return Text(t), nil
	case KindBytes:
		b, err := d.bytes()
		if err != nil {
			return nil, err
		}
		return Bytes(b), nil
	case KindOptional:
		present, err := d.optional()
		if err != nil {
			return nil, err
		}
		if !present {
			return None(), nil
		}
		inner, err := d.value(elemOf(s.Elem))
		if err != nil {
			return nil, err
		}
		return Some(inner), nil
	case KindUnit:
		if err := d.unit(); err != nil {
			return nil, err
		}
		return Unit{}, nil
	case KindUnitStruct:
		if err := d.unit(); err != nil {
			return nil, err
		}
		return UnitStruct{Name: s.Name}, nil
	case KindNewtype:
		inner, err := d.value(elemOf(s.Elem))
		if err != nil {
			return nil, err
		}
		return Newtype{Name: s.Name, Inner: inner}, nil
	case KindTuple:
		elems, err := d.tuple(s.Elems, "tuple")
		if err != nil {
			return nil, err
		}
		return Tuple(elems), nil
	case KindTupleStruct:
		elems, err := d.tuple(s.Elems, s.Name)
		if err != nil {
			return nil, err
		}
		return TupleStruct{Name: s.Name, Elems: elems}, nil
	case KindList:
		return d.list(elemOf(s.Elem))
	case KindMap:
		return d.mapping(elemOf(s.Key), elemOf(s.Elem))
	case KindRecord:
		fields, err := d.record(s.Fields, s.Name)
		if err != nil {
			return nil, err
		}
		return Record{Name: s.Name, Fields: fields}, nil
	case KindEnum:
		return d.enum(s)
	case KindAny:
		return d.any()
	}
	return nil, Errorf("shape %v cannot be requested directly", s.Kind)
}

func (d *decodeState) tuple(elems []Shape, what string) ([]Value, error) {
	if err := d.arrayN(len(elems), what); err != nil {
		return nil, err
	}
	out := make([]Value, 0, len(elems))
	for _, es := range elems {
		v, err := d.value(es)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (d *decodeState) list(elem Shape) (Value, error) {
	n, _, err := d.array("list")
	if err != nil {
		return nil, err
	}
	out := make(List, 0, n)
	for i := 0; i < n; i++ {
		v, err := d.value(elem)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// [[k0, v0], [k1, v1], ...]
func (d *decodeState) mapping(key, elem Shape) (Value, error) {
	n, _, err := d.array("map")
	if err != nil {
		return nil, err
	}
	out := make(Map, 0, n)
	for i := 0; i < n; i++ {
		if err := d.arrayN(2, "map entry"); err != nil {
			return nil, err
		}
		k, err := d.value(key)
		if err != nil {
			return nil, err
		}
		v, err := d.value(elem)
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{Key: k, Value: v})
	}
	return out, nil
}

// record reads [[name0, v0], ...]. Pairs may arrive in any order; the result
// is in declaration order.
func (d *decodeState) record(fields []FieldShape, what string) ([]Field, error) {
	if what == "" {
		what = "record"
	}
	if err := d.arrayN(len(fields), what); err != nil {
		return nil, err
	}
	out := make([]Field, len(fields))
	seen := make([]bool, len(fields))
	for range fields {
		i, err := d.fieldName(fields, seen, what)
		if err != nil {
			return nil, err
		}
		v, err := d.value(fields[i].Shape)
		if err != nil {
			return nil, err
		}
		out[i] = Field{Name: fields[i].Name, Value: v}
	}
	return out, nil
}

// enum reads a unit variant as a bare string and every other variant as
// [name, payload].
func (d *decodeState) enum(s Shape) (Value, error) {
	off := d.r.Offset()
	t, err := d.r.Peek()
	if err != nil {
		return nil, d.wrap(off, err)
	}
	if t == wire.TagSimple || t == wire.TagBulk {
		name, err := d.text()
		if err != nil {
			return nil, err
		}
		v, ok := s.variant(name)
		if !ok {
			return nil, &DecodeError{Offset: off, Err: ErrUnknownVariant, Detail: fmt.Sprintf("%s has no variant %q", s.Name, name)}
		}
		if v.Kind != KindUnitVariant {
			return nil, &DecodeError{Offset: off, Err: ErrMismatch, Detail: fmt.Sprintf("variant %q carries a payload", name)}
		}
		return UnitVariant{Enum: s.Name, Variant: name}, nil
	}

	if err := d.arrayN(2, "variant"); err != nil {
		return nil, err
	}
	noff := d.r.Offset()
	name, err := d.text()
	if err != nil {
		return nil, err
	}
	v, ok := s.variant(name)
	if !ok {
		return nil, &DecodeError{Offset: noff, Err: ErrUnknownVariant, Detail: fmt.Sprintf("%s has no variant %q", s.Name, name)}
	}
	switch v.Kind {
	case KindNewtypeVariant:
		inner, err := d.value(elemOf(v.Elem))
		if err != nil {
			return nil, err
		}
		return NewtypeVariant{Enum: s.Name, Variant: name, Inner: inner}, nil
	case KindTupleVariant:
		elems, err := d.tuple(v.Elems, name)
		if err != nil {
			return nil, err
		}
		return TupleVariant{Enum: s.Name, Variant: name, Elems: elems}, nil
	case KindStructVariant:
		fields, err := d.record(v.Fields, name)
		if err != nil {
			return nil, err
		}
		return StructVariant{Enum: s.Name, Variant: name, Fields: fields}, nil
	}
	return nil, &DecodeError{Offset: noff, Err: ErrMismatch, Detail: fmt.Sprintf("unit variant %q sent with a payload", name)}
}

// any decodes without a schema: integers become Int (Uint past MaxInt64),
// simple strings Text, bulk strings Text when valid UTF-8 and Bytes
// otherwise, nulls Unit and arrays List.
func (d *decodeState) any() (Value, error) {
	off := d.r.Offset()
	t, err := d.r.Peek()
	if err != nil {
		return nil, d.wrap(off, err)
	}
	switch t {
	case wire.TagInt:
		line, _, err := d.intLine()
		if err != nil {
			return nil, err
		}
		if v, err := wire.ParseInt(line, 64); err == nil {
			return Int(v), nil
		}
		u, err := wire.ParseUint(line, 64)
		if err != nil {
			return nil, d.wrap(off, err)
		}
		return Uint(u), nil
	case wire.TagSimple:
		s, err := d.text()
		if err != nil {
			return nil, err
		}
		return Text(s), nil
	case wire.TagBulk:
		if _, _, err := d.tag(); err != nil {
			return nil, err
		}
		n, err := d.r.ReadLength()
		if err != nil {
			return nil, d.wrap(off, err)
		}
		if n < 0 {
			return Unit{}, nil
		}
		body, err := d.r.ReadBulkBody(n)
		if err != nil {
			return nil, d.wrap(off, err)
		}
		if utf8.Valid(body) {
			return Text(body), nil
		}
		return Bytes(bytes.Clone(body)), nil
	case wire.TagArray:
		if _, _, err := d.tag(); err != nil {
			return nil, err
		}
		n, err := d.r.ReadLength()
		if err != nil {
			return nil, d.wrap(off, err)
		}
		if n < 0 {
			return Unit{}, nil
		}
		if err := d.r.CheckArray(n); err != nil {
			return nil, d.wrap(off, err)
		}
		out := make(List, 0, n)
		for i := 0; i < n; i++ {
			v, err := d.value(AnyShape())
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}
	_, _, err = d.tag() // error frame
	return nil, err
}
