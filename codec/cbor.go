package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// maxDocDepth matches the Decoder's default nesting limit, so a document
// that decodes here also fits through resp.Decode.
const maxDocDepth = 512

// CBOR is a Codec over fxamacker/cbor. Construct it with NewCBOR.
//
// deterministic selects RFC 8949 Core Deterministic encoding (sorted map
// keys, shortest forms); otherwise preferred unsorted encoding is used.
// Decoding into interface values yields map[string]any for maps, and
// duplicate map keys are rejected since RESP maps built from them would
// carry both entries.
type CBOR[V any] struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Codec[any] = CBOR[any]{}

func NewCBOR[V any](deterministic bool) (CBOR[V], error) {
	eo := cbor.PreferredUnsortedEncOptions()
	if deterministic {
		eo = cbor.CoreDetEncOptions()
	}
	em, err := eo.EncMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	dm, err := cbor.DecOptions{
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		DupMapKey:       cbor.DupMapKeyEnforcedAPF,
		MaxNestedLevels: maxDocDepth,
	}.DecMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	return CBOR[V]{enc: em, dec: dm}, nil
}

func (c CBOR[V]) Encode(v V) ([]byte, error) {
	return c.enc.Marshal(v)
}

// Decode fails on trailing bytes after the first data item.
func (c CBOR[V]) Decode(b []byte) (V, error) {
	var v V
	err := c.dec.Unmarshal(b, &v)
	return v, err
}
