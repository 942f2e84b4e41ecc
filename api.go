package resp

import (
	"io"
	"reflect"
	"unicode/utf8"

	"github.com/unkn0wn-root/resp/internal/wire"
)

// Encode renders v as RESP text. The result is valid UTF-8; a value whose
// encoding would not be (Bytes holding arbitrary data) fails with
// ErrInvalidUTF8. Use EncodeBytes for binary payloads.
func Encode(v Value) (string, error) {
	b, err := EncodeBytes(v)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", &EncodeError{Err: ErrInvalidUTF8, Detail: "encoded output is not text"}
	}
	return string(b), nil
}

// EncodeBytes renders v without the UTF-8 post-condition of Encode.
func EncodeBytes(v Value) ([]byte, error) {
	return AppendEncode(nil, v)
}

// AppendEncode appends the encoding of v to dst. On error dst is returned
// unchanged.
func AppendEncode(dst []byte, v Value) ([]byte, error) {
	e := encodeState{buf: dst}
	if err := e.encode(v, 0); err != nil {
		return dst, err
	}
	return e.buf, nil
}

// Marshal converts x with ValueOf and encodes the result.
func Marshal(x any) ([]byte, error) {
	v, err := ValueOf(x)
	if err != nil {
		return nil, err
	}
	return EncodeBytes(v)
}

// MarshalString is Marshal followed by the UTF-8 check of Encode.
func MarshalString(x any) (string, error) {
	v, err := ValueOf(x)
	if err != nil {
		return "", err
	}
	return Encode(v)
}

// Encoder writes frame trees to an io.Writer. Not safe for concurrent use.
type Encoder struct {
	w   io.Writer
	buf []byte
}

func NewEncoder(w io.Writer) *Encoder { return &Encoder{w: w} }

// Encode writes v with a single Write call. Nothing is written if v cannot
// be encoded.
func (e *Encoder) Encode(v Value) error {
	b, err := AppendEncode(e.buf[:0], v)
	if err != nil {
		return err
	}
	e.buf = b
	if _, err := e.w.Write(b); err != nil {
		return &IOError{Err: err}
	}
	return nil
}

// Marshal writes the encoding of a Go value.
func (e *Encoder) Marshal(x any) error {
	v, err := ValueOf(x)
	if err != nil {
		return err
	}
	return e.Encode(v)
}

// DecodeOptions tune a Decoder. The zero value is ready to use.
type DecodeOptions struct {
	MaxDepth int    // 0 => 512
	Logger   Logger // if nil, NopLogger is used
}

// Decoder reads consecutive frame trees from one buffer. Not safe for
// concurrent use. Decoded text and bytes never alias the buffer.
type Decoder struct {
	r   *wire.Reader
	d   decodeState
	log Logger
}

func NewDecoder(b []byte, opts DecodeOptions) *Decoder {
	opts = opts.withDefaults()
	r := wire.NewReader(b)
	return &Decoder{
		r:   r,
		d:   decodeState{r: r, maxDepth: opts.MaxDepth},
		log: opts.Logger,
	}
}

// More reports whether unread input remains.
func (dec *Decoder) More() bool { return dec.r.Len() > 0 }

// Offset is the number of bytes consumed so far.
func (dec *Decoder) Offset() int { return dec.r.Offset() }

// Decode reads the next frame tree as the value described by s. After an
// error the Decoder's position is unspecified.
func (dec *Decoder) Decode(s Shape) (Value, error) {
	dec.d.depth = 0
	v, err := dec.d.value(s)
	if err != nil {
		dec.log.Debug("decode rejected", rejectFields(dec.r.Offset(), s.Kind.String(), err))
		return nil, err
	}
	return v, nil
}

// Unmarshal reads the next frame tree into the value x points to.
func (dec *Decoder) Unmarshal(x any) error {
	rv := reflect.ValueOf(x)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return &InvalidUnmarshalError{Type: reflect.TypeOf(x)}
	}
	dec.d.depth = 0
	if err := dec.d.unmarshal(rv.Elem()); err != nil {
		dec.log.Debug("unmarshal rejected", rejectFields(dec.r.Offset(), rv.Elem().Type().String(), err))
		return err
	}
	return nil
}

func (dec *Decoder) finish() error {
	if dec.More() {
		return &DecodeError{Offset: dec.r.Offset(), Err: ErrTrailingData}
	}
	return nil
}

// Decode reads exactly one frame tree from b as the value described by s.
func Decode(b []byte, s Shape) (Value, error) {
	dec := NewDecoder(b, DecodeOptions{})
	v, err := dec.Decode(s)
	if err != nil {
		return nil, err
	}
	if err := dec.finish(); err != nil {
		return nil, err
	}
	return v, nil
}

func DecodeString(s string, shape Shape) (Value, error) {
	return Decode([]byte(s), shape)
}

// Unmarshal decodes exactly one frame tree from b into the value x points
// to. The Go type of *x stands in for the Shape; see ValueOf for the mapping.
// A pointer at the top level is the destination, not an Optional.
func Unmarshal(b []byte, x any) error {
	dec := NewDecoder(b, DecodeOptions{})
	if err := dec.Unmarshal(x); err != nil {
		return err
	}
	return dec.finish()
}

// Frame is one parsed RESP frame with its children. Data aliases the input.
type Frame = wire.Frame

// ParseFrame reads one frame tree from the front of b without interpreting
// it and reports how many bytes it spans.
func ParseFrame(b []byte) (Frame, int, error) {
	return ParseFrameDepth(b, defaultMaxDepth)
}

// ParseFrameDepth is ParseFrame with an explicit nesting limit (<= 0 means
// the default).
func ParseFrameDepth(b []byte, maxDepth int) (Frame, int, error) {
	r := wire.NewReader(b)
	f, err := r.ReadFrame(coalesce(max(maxDepth, 0), defaultMaxDepth))
	if err != nil {
		return Frame{}, 0, &DecodeError{Offset: r.Offset(), Err: err}
	}
	return f, r.Offset(), nil
}
