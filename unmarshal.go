package resp

import (
	"encoding"
	"fmt"
	"reflect"
)

// unmarshal decodes the next value into rv, which must be settable. The Go
// type plays the part of the Shape, with the mapping documented on ValueOf.
func (d *decodeState) unmarshal(rv reflect.Value) error {
	if err := d.enter(); err != nil {
		return err
	}
	defer d.leave()

	t := rv.Type()
	switch t.Kind() {
	case reflect.Pointer:
		present, err := d.optional()
		if err != nil {
			return err
		}
		if !present {
			rv.SetZero()
			return nil
		}
		if rv.IsNil() {
			rv.Set(reflect.New(t.Elem()))
		}
		return d.unmarshal(rv.Elem())
	case reflect.Interface:
		return d.unmarshalInterface(rv)
	}

	if rv.CanAddr() {
		pv := rv.Addr()
		if pv.Type().Implements(unmarshalerType) {
			u := pv.Interface().(Unmarshaler)
			off := d.r.Offset()
			v, err := d.value(u.RESPShape())
			if err != nil {
				return err
			}
			if err := u.UnmarshalRESP(v); err != nil {
				return d.wrap(off, err)
			}
			return nil
		}
		if pv.Type().Implements(textUnmarshalerType) {
			off := d.r.Offset()
			s, err := d.text()
			if err != nil {
				return err
			}
			if err := pv.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
				return d.wrap(off, err)
			}
			return nil
		}
	}

	switch t.Kind() {
	case reflect.Bool:
		b, err := d.boolean()
		if err != nil {
			return err
		}
		rv.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := d.integer(t.Bits())
		if err != nil {
			return err
		}
		rv.SetInt(v)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		v, err := d.unsigned(t.Bits())
		if err != nil {
			return err
		}
		rv.SetUint(v)
	case reflect.Float32, reflect.Float64:
		f, err := d.float(t.Bits())
		if err != nil {
			return err
		}
		rv.SetFloat(f)
	case reflect.String:
		s, err := d.text()
		if err != nil {
			return err
		}
		rv.SetString(s)
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			b, err := d.bytes()
			if err != nil {
				return err
			}
			rv.SetBytes(b)
			return nil
		}
		n, _, err := d.array("list")
		if err != nil {
			return err
		}
		s := reflect.MakeSlice(t, n, n)
		for i := 0; i < n; i++ {
			if err := d.unmarshal(s.Index(i)); err != nil {
				return err
			}
		}
		rv.Set(s)
	case reflect.Array:
		if err := d.arrayN(rv.Len(), "tuple"); err != nil {
			return err
		}
		for i := 0; i < rv.Len(); i++ {
			if err := d.unmarshal(rv.Index(i)); err != nil {
				return err
			}
		}
	case reflect.Map:
		n, _, err := d.array("map")
		if err != nil {
			return err
		}
		m := reflect.MakeMapWithSize(t, n)
		for i := 0; i < n; i++ {
			if err := d.arrayN(2, "map entry"); err != nil {
				return err
			}
			k := reflect.New(t.Key()).Elem()
			if err := d.unmarshal(k); err != nil {
				return err
			}
			v := reflect.New(t.Elem()).Elem()
			if err := d.unmarshal(v); err != nil {
				return err
			}
			m.SetMapIndex(k, v)
		}
		rv.Set(m)
	case reflect.Struct:
		return d.unmarshalStruct(rv)
	default:
		return &UnsupportedTypeError{Type: t}
	}
	return nil
}

func (d *decodeState) unmarshalStruct(rv reflect.Value) error {
	t := rv.Type()
	fields := cachedFields(t)
	if len(fields) == 0 {
		return d.unit()
	}
	what := t.Name()
	if what == "" {
		what = "record"
	}
	if err := d.arrayN(len(fields), what); err != nil {
		return err
	}
	seen := make([]bool, len(fields))
	for range fields {
		if err := d.arrayN(2, what+" field"); err != nil {
			return err
		}
		off := d.r.Offset()
		name, err := d.text()
		if err != nil {
			return err
		}
		i := lookupField(fields, name)
		if i < 0 {
			return &DecodeError{Offset: off, Err: ErrUnknownField, Detail: fmt.Sprintf("%s has no field %q", what, name)}
		}
		if seen[i] {
			return &DecodeError{Offset: off, Err: ErrDuplicateField, Detail: fmt.Sprintf("%s field %q", what, name)}
		}
		seen[i] = true
		if err := d.unmarshal(rv.Field(fields[i].index)); err != nil {
			return err
		}
	}
	return nil
}

// Empty interfaces receive plain Go data (see ToAny); a Value-typed slot
// receives the schema-less Value itself.
func (d *decodeState) unmarshalInterface(rv reflect.Value) error {
	t := rv.Type()
	if t != valueType && t.NumMethod() != 0 {
		return &UnsupportedTypeError{Type: t}
	}
	v, err := d.any()
	if err != nil {
		return err
	}
	if t == valueType {
		rv.Set(reflect.ValueOf(v))
		return nil
	}
	x := ToAny(v)
	if x == nil {
		rv.SetZero()
		return nil
	}
	rv.Set(reflect.ValueOf(x))
	return nil
}
