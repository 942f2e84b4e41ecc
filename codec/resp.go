package codec

import (
	"github.com/unkn0wn-root/resp"
)

// RESP is a Codec that maps V onto the value model by reflection (see
// resp.ValueOf). The zero value is ready to use.
type RESP[V any] struct {
	Opts resp.DecodeOptions
}

var _ Codec[struct{}] = RESP[struct{}]{}

func (RESP[V]) Encode(v V) ([]byte, error) { return resp.Marshal(v) }

// Decode requires b to hold exactly one frame tree.
func (c RESP[V]) Decode(b []byte) (V, error) {
	var v V
	dec := resp.NewDecoder(b, c.Opts)
	if err := dec.Unmarshal(&v); err != nil {
		return v, err
	}
	if dec.More() {
		return v, &resp.DecodeError{Offset: dec.Offset(), Err: resp.ErrTrailingData}
	}
	return v, nil
}

// Shaped is a Codec over resp.Value driven by an explicit Shape, for values
// with no Go type behind them.
type Shaped struct {
	Shape resp.Shape
	Opts  resp.DecodeOptions
}

var _ Codec[resp.Value] = Shaped{}

func (Shaped) Encode(v resp.Value) ([]byte, error) { return resp.EncodeBytes(v) }
func (c Shaped) Decode(b []byte) (resp.Value, error) {
	dec := resp.NewDecoder(b, c.Opts)
	v, err := dec.Decode(c.Shape)
	if err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, &resp.DecodeError{Offset: dec.Offset(), Err: resp.ErrTrailingData}
	}
	return v, nil
}
