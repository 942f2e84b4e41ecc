package codec

import (
	"math"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type Protobuf[T proto.Message] struct {
	new func() T // constructor for a concrete message (e.g., func() *mypb.User { return &mypb.User{} })
}

func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{new: ctor}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	return proto.Marshal(v)
}

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	m := c.new()
	err := proto.Unmarshal(b, m)
	return m, err
}

// ProtoValue carries plain Go data as a google.protobuf.Value message. Only
// what structpb can express survives: every number travels as a double, so
// integral values within 2^53 are handed back as int64, and bytes come back
// as base64 text.
type ProtoValue struct{}

var _ Codec[any] = ProtoValue{}

var protoValues = NewProtobuf(func() *structpb.Value { return &structpb.Value{} })

func (ProtoValue) Encode(x any) ([]byte, error) {
	v, err := structpb.NewValue(x)
	if err != nil {
		return nil, err
	}
	return protoValues.Encode(v)
}

func (ProtoValue) Decode(b []byte) (any, error) {
	v, err := protoValues.Decode(b)
	if err != nil {
		return nil, err
	}
	return integral(v.AsInterface()), nil
}

func integral(x any) any {
	switch x := x.(type) {
	case float64:
		if x == math.Trunc(x) && math.Abs(x) <= 1<<53 {
			return int64(x)
		}
	case []any:
		for i, el := range x {
			x[i] = integral(el)
		}
	case map[string]any:
		for k, v := range x {
			x[k] = integral(v)
		}
	}
	return x
}
