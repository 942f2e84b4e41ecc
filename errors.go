package resp

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/unkn0wn-root/resp/internal/wire"
)

// Frame-level failures shared with the wire grammar.
var (
	ErrTruncated  = wire.ErrTruncated
	ErrBadTag     = wire.ErrBadTag
	ErrMalformed  = wire.ErrMalformed
	ErrBadInteger = wire.ErrBadInteger
	ErrOverflow   = wire.ErrOverflow
)

var (
	ErrLenNotKnown    = errors.New("sequence length not known")
	ErrLenMismatch    = errors.New("sequence length differs from declared length")
	ErrInvalidUTF8    = errors.New("invalid utf-8")
	ErrUnknownVariant = errors.New("unknown variant")
	ErrUnknownField   = errors.New("unknown field")
	ErrDuplicateField = errors.New("duplicate field")
	ErrArity          = errors.New("array length mismatch")
	ErrBadOptional    = errors.New("optional must be an array of 0 or 1 elements")
	ErrMismatch       = errors.New("frame does not match requested shape")
	ErrTrailingData   = errors.New("trailing data after value")
	ErrTooDeep        = errors.New("nesting too deep")
)

// DecodeError reports where in the input decoding stopped and why.
// Err is one of the sentinels above or a ServerError.
type DecodeError struct {
	Offset int
	Err    error
	Detail string
}

func (e *DecodeError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("resp: decode at offset %d: %v", e.Offset, e.Err)
	}
	return fmt.Sprintf("resp: decode at offset %d: %v: %s", e.Offset, e.Err, e.Detail)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports a value that has no canonical encoding.
type EncodeError struct {
	Err    error
	Detail string
}

func (e *EncodeError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("resp: encode: %v", e.Err)
	}
	return fmt.Sprintf("resp: encode: %v: %s", e.Err, e.Detail)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// IOError wraps a failure of the sink an Encoder writes to.
type IOError struct {
	Err error
}

func (e *IOError) Error() string { return fmt.Sprintf("resp: write: %v", e.Err) }
func (e *IOError) Unwrap() error { return e.Err }

// MessageError is a value-model failure carrying a human-readable explanation,
// typically returned from a Marshaler or Unmarshaler.
type MessageError struct {
	Msg string
}

func (e *MessageError) Error() string { return "resp: " + e.Msg }

// Errorf builds a MessageError.
func Errorf(format string, args ...any) error {
	return &MessageError{Msg: fmt.Sprintf(format, args...)}
}

// ServerError is the payload of an error frame ("-ERR ...") met where a value
// was requested.
type ServerError string

func (e ServerError) Error() string { return string(e) }

// UnsupportedTypeError is returned by Marshal and Unmarshal for Go types that
// have no place in the value model (channels, funcs, complex numbers...).
type UnsupportedTypeError struct {
	Type reflect.Type
}

func (e *UnsupportedTypeError) Error() string {
	return "resp: unsupported type: " + e.Type.String()
}

// InvalidUnmarshalError describes an invalid argument passed to Unmarshal.
type InvalidUnmarshalError struct {
	Type reflect.Type
}

func (e *InvalidUnmarshalError) Error() string {
	switch {
	case e.Type == nil:
		return "resp: Unmarshal(nil)"
	case e.Type.Kind() != reflect.Pointer:
		return "resp: Unmarshal(non-pointer " + e.Type.String() + ")"
	default:
		return "resp: Unmarshal(nil " + e.Type.String() + ")"
	}
}
