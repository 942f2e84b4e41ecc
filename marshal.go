package resp

import (
	"bytes"
	"encoding"
	"reflect"
	"slices"
	"strings"
	"sync"
)

// Marshaler is implemented by types that map themselves onto the value model.
// Go has no sum types, so enums are expressed this way.
type Marshaler interface {
	MarshalRESP() (Value, error)
}

// Unmarshaler is the decoding side of Marshaler. RESPShape tells the decoder
// what to read; UnmarshalRESP receives the result.
type Unmarshaler interface {
	RESPShape() Shape
	UnmarshalRESP(Value) error
}

var (
	valueType           = reflect.TypeFor[Value]()
	marshalerType       = reflect.TypeFor[Marshaler]()
	unmarshalerType     = reflect.TypeFor[Unmarshaler]()
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// ValueOf converts a Go value into the value model:
//
//	bool                  -> Bool
//	int*, uint*           -> Int, Uint
//	float32, float64      -> Float
//	string                -> Text
//	[]byte                -> Bytes
//	*T                    -> Optional (nil is absent)
//	[]T                   -> List
//	[N]T                  -> Tuple
//	map[K]V               -> Map, entries sorted by encoded key
//	struct{}              -> Unit
//	struct                -> Record of exported fields (tag `resp:"name"`, `resp:"-"`)
//	TextMarshaler         -> Text
//	Marshaler             -> whatever MarshalRESP returns
//
// A pointer passed at the top level is dereferenced rather than treated as an
// Optional, so ValueOf(&v) and ValueOf(v) agree.
func ValueOf(x any) (Value, error) {
	if v, ok := x.(Value); ok {
		return v, nil
	}
	rv := reflect.ValueOf(x)
	if !rv.IsValid() {
		return Unit{}, nil
	}
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return None(), nil
		}
		return valueOf(rv.Elem(), 0)
	}
	// addressable copy, so pointer-receiver marshalers are found
	cp := reflect.New(rv.Type()).Elem()
	cp.Set(rv)
	return valueOf(cp, 0)
}

func valueOf(rv reflect.Value, depth int) (Value, error) {
	if depth > maxEncodeDepth {
		return nil, &EncodeError{Err: ErrTooDeep}
	}
	depth++

	switch rv.Kind() {
	case reflect.Invalid:
		return Unit{}, nil
	case reflect.Interface:
		if rv.IsNil() {
			return Unit{}, nil
		}
		return valueOf(rv.Elem(), depth)
	case reflect.Pointer:
		if rv.IsNil() {
			return None(), nil
		}
		inner, err := valueOf(rv.Elem(), depth)
		if err != nil {
			return nil, err
		}
		return Some(inner), nil
	}

	t := rv.Type()
	if t.Implements(valueType) {
		return rv.Interface().(Value), nil
	}
	if m, ok := asIface(rv, marshalerType); ok {
		return m.(Marshaler).MarshalRESP()
	}
	if m, ok := asIface(rv, textMarshalerType); ok {
		b, err := m.(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return nil, err
		}
		return Text(b), nil
	}

	switch rv.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Uint(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	case reflect.String:
		return Text(rv.String()), nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return Bytes(rv.Bytes()), nil
		}
		out := make(List, rv.Len())
		for i := range out {
			v, err := valueOf(rv.Index(i), depth)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case reflect.Array:
		out := make(Tuple, rv.Len())
		for i := range out {
			v, err := valueOf(rv.Index(i), depth)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case reflect.Map:
		return mapValueOf(rv, depth)
	case reflect.Struct:
		fields := cachedFields(t)
		if len(fields) == 0 {
			if t.Name() == "" {
				return Unit{}, nil
			}
			return UnitStruct{Name: t.Name()}, nil
		}
		rec := Record{Name: t.Name(), Fields: make([]Field, len(fields))}
		for i, f := range fields {
			v, err := valueOf(rv.Field(f.index), depth)
			if err != nil {
				return nil, err
			}
			rec.Fields[i] = Field{Name: f.name, Value: v}
		}
		return rec, nil
	}
	return nil, &UnsupportedTypeError{Type: t}
}

// Go maps have no order; entries are sorted by the bytes of their encoded key
// so the same map always encodes the same way.
func mapValueOf(rv reflect.Value, depth int) (Value, error) {
	type sortable struct {
		key []byte
		ent Entry
	}
	items := make([]sortable, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k, err := valueOf(iter.Key(), depth)
		if err != nil {
			return nil, err
		}
		v, err := valueOf(iter.Value(), depth)
		if err != nil {
			return nil, err
		}
		var es encodeState
		if err := es.encode(k, depth); err != nil {
			return nil, err
		}
		items = append(items, sortable{key: es.buf, ent: Entry{Key: k, Value: v}})
	}
	slices.SortFunc(items, func(a, b sortable) int { return bytes.Compare(a.key, b.key) })

	out := make(Map, len(items))
	for i, it := range items {
		out[i] = it.ent
	}
	return out, nil
}

// asIface returns rv (or its address) as an implementation of iface.
func asIface(rv reflect.Value, iface reflect.Type) (any, bool) {
	if rv.Type().Implements(iface) {
		return rv.Interface(), true
	}
	if rv.CanAddr() && reflect.PointerTo(rv.Type()).Implements(iface) {
		return rv.Addr().Interface(), true
	}
	return nil, false
}

type fieldInfo struct {
	name  string
	index int
}

var fieldCache sync.Map // reflect.Type -> []fieldInfo

func cachedFields(t reflect.Type) []fieldInfo {
	if f, ok := fieldCache.Load(t); ok {
		return f.([]fieldInfo)
	}
	fields := make([]fieldInfo, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := sf.Name
		if tag, ok := sf.Tag.Lookup("resp"); ok {
			if tag == "-" {
				continue
			}
			if n, _, _ := strings.Cut(tag, ","); n != "" {
				name = n
			}
		}
		fields = append(fields, fieldInfo{name: name, index: i})
	}
	f, _ := fieldCache.LoadOrStore(t, fields)
	return f.([]fieldInfo)
}

func lookupField(fields []fieldInfo, name string) int {
	for i, f := range fields {
		if f.name == name {
			return i
		}
	}
	return -1
}

// ToAny converts a Value into plain Go data: nil, bool, int64, uint64,
// float64, string, []byte, []any and map[string]any. Variants become a
// one-entry map keyed by the variant name. Maps whose keys are not all text
// become a list of [key, value] pairs.
func ToAny(v Value) any {
	switch v := v.(type) {
	case nil, Unit, UnitStruct:
		return nil
	case Bool:
		return bool(v)
	case Int:
		return int64(v)
	case Uint:
		return uint64(v)
	case Float:
		return float64(v)
	case Char:
		return string(rune(v))
	case Text:
		return string(v)
	case Bytes:
		return []byte(v)
	case Optional:
		return ToAny(v.Inner)
	case UnitVariant:
		return v.Variant
	case Newtype:
		return ToAny(v.Inner)
	case NewtypeVariant:
		return map[string]any{v.Variant: ToAny(v.Inner)}
	case Tuple:
		return anySlice(v)
	case TupleStruct:
		return anySlice(v.Elems)
	case TupleVariant:
		return map[string]any{v.Variant: anySlice(v.Elems)}
	case List:
		return anySlice(v)
	case Stream:
		var out []any
		if v.Elems != nil {
			for el := range v.Elems {
				out = append(out, ToAny(el))
			}
		}
		return out
	case Map:
		return anyMap(v)
	case MapStream:
		var m Map
		if v.Entries != nil {
			for k, val := range v.Entries {
				m = append(m, Entry{Key: k, Value: val})
			}
		}
		return anyMap(m)
	case Record:
		return anyFields(v.Fields)
	case StructVariant:
		return map[string]any{v.Variant: anyFields(v.Fields)}
	}
	return nil
}

func anySlice(vs []Value) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = ToAny(v)
	}
	return out
}

func anyFields(fs []Field) map[string]any {
	out := make(map[string]any, len(fs))
	for _, f := range fs {
		out[f.Name] = ToAny(f.Value)
	}
	return out
}

func anyMap(m Map) any {
	obj := make(map[string]any, len(m))
	for _, e := range m {
		switch k := e.Key.(type) {
		case Text:
			obj[string(k)] = ToAny(e.Value)
			continue
		case Char:
			obj[string(rune(k))] = ToAny(e.Value)
			continue
		}
		pairs := make([]any, len(m))
		for i, e := range m {
			pairs[i] = []any{ToAny(e.Key), ToAny(e.Value)}
		}
		return pairs
	}
	return obj
}
