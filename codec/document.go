package codec

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/unkn0wn-root/resp"
)

// Formats lists the document formats Lookup knows, in help-text order.
var Formats = []string{"json", "cbor", "msgpack", "proto"}

// Lookup returns the document codec registered under name.
func Lookup(name string) (Codec[any], error) {
	switch name {
	case "json":
		return JSON[any]{}, nil
	case "cbor":
		return NewCBOR[any](true)
	case "msgpack":
		return Msgpack[any]{}, nil
	case "proto":
		return ProtoValue{}, nil
	}
	return nil, fmt.Errorf("codec: unknown format %q (want one of %v)", name, Formats)
}

// ToValue maps a decoded document onto the value model. JSON numbers become
// Int or Uint when they are integral and Float otherwise.
func ToValue(doc any) (resp.Value, error) {
	return resp.ValueOf(normalize(doc))
}

// FromValue is the inverse of ToValue, up to number representation.
func FromValue(v resp.Value) any {
	return resp.ToAny(v)
}

func normalize(x any) any {
	switch x := x.(type) {
	case json.Number:
		return number(string(x))
	case []any:
		out := make([]any, len(x))
		for i, el := range x {
			out[i] = normalize(el)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, v := range x {
			out[k] = normalize(v)
		}
		return out
	case map[any]any:
		out := make(map[any]any, len(x))
		for k, v := range x {
			out[k] = normalize(v)
		}
		return out
	}
	return x
}

func number(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return u
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
