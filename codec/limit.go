package codec

import (
	"errors"
	"fmt"
)

// ErrTooLarge reports a payload over LimitCodec.MaxDecode.
var ErrTooLarge = errors.New("codec: payload too large")

// LimitCodec refuses payloads over MaxDecode bytes before Inner parses them,
// which bounds the allocation an untrusted frame header can ask for.
// MaxDecode <= 0 disables the check. Encode goes straight to Inner.
type LimitCodec[V any] struct {
	Inner     Codec[V]
	MaxDecode int
}

func (c LimitCodec[V]) Encode(v V) ([]byte, error) { return c.Inner.Encode(v) }

func (c LimitCodec[V]) Decode(b []byte) (V, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		var zero V
		return zero, fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, len(b), c.MaxDecode)
	}
	return c.Inner.Decode(b)
}
