package wire

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Frame tags.
const (
	TagSimple byte = '+'
	TagError  byte = '-'
	TagInt    byte = ':'
	TagBulk   byte = '$'
	TagArray  byte = '*'
)

// minFrame is the size of the smallest complete frame ("+\r\n").
const minFrame = 3

var (
	ErrTruncated  = errors.New("unexpected end of input")
	ErrBadTag     = errors.New("unknown frame tag")
	ErrMalformed  = errors.New("malformed frame")
	ErrBadInteger = errors.New("malformed integer")
	ErrOverflow   = errors.New("integer overflow")
)

var nullBulk = []byte("$-1\r\n")

// NeedsBulk reports whether s cannot travel as a simple string.
func NeedsBulk(s string) bool { return strings.ContainsAny(s, "\r\n") }

// Simple: '+' | s | CRLF. s must not contain CR or LF.
func AppendSimple(dst []byte, s string) []byte {
	dst = append(dst, TagSimple)
	dst = append(dst, s...)
	return append(dst, '\r', '\n')
}

// Error: '-' | msg | CRLF.
func AppendError(dst []byte, msg string) []byte {
	dst = append(dst, TagError)
	dst = append(dst, msg...)
	return append(dst, '\r', '\n')
}

func AppendInt(dst []byte, v int64) []byte {
	dst = append(dst, TagInt)
	dst = strconv.AppendInt(dst, v, 10)
	return append(dst, '\r', '\n')
}

func AppendUint(dst []byte, v uint64) []byte {
	dst = append(dst, TagInt)
	dst = strconv.AppendUint(dst, v, 10)
	return append(dst, '\r', '\n')
}

// Bulk: '$' | len | CRLF | payload(len) | CRLF
func AppendBulk(dst []byte, b []byte) []byte {
	dst = append(dst, TagBulk)
	dst = strconv.AppendInt(dst, int64(len(b)), 10)
	dst = append(dst, '\r', '\n')
	dst = append(dst, b...)
	return append(dst, '\r', '\n')
}

func AppendBulkString(dst []byte, s string) []byte {
	dst = append(dst, TagBulk)
	dst = strconv.AppendInt(dst, int64(len(s)), 10)
	dst = append(dst, '\r', '\n')
	dst = append(dst, s...)
	return append(dst, '\r', '\n')
}

// AppendNull appends the null bulk string "$-1\r\n".
func AppendNull(dst []byte) []byte { return append(dst, nullBulk...) }

// Array header: '*' | n | CRLF, followed by n frames written by the caller.
func AppendArray(dst []byte, n int) []byte {
	dst = append(dst, TagArray)
	dst = strconv.AppendInt(dst, int64(n), 10)
	return append(dst, '\r', '\n')
}

// CheckInt enforces the canonical integer form: an optional '-' followed by
// decimal digits without leading zeros. "+5", "007" and "-0" are rejected.
func CheckInt(line []byte) error {
	d := line
	if len(d) > 0 && d[0] == '-' {
		d = d[1:]
	}
	if len(d) == 0 {
		return fmt.Errorf("%w: %q", ErrBadInteger, line)
	}
	for _, c := range d {
		if c < '0' || c > '9' {
			return fmt.Errorf("%w: %q", ErrBadInteger, line)
		}
	}
	if d[0] == '0' && len(line) > 1 {
		return fmt.Errorf("%w: %q is not canonical", ErrBadInteger, line)
	}
	return nil
}

// ParseInt parses the digits of an integer frame into a signed value of the
// given bit width.
func ParseInt(line []byte, bits int) (int64, error) {
	if err := CheckInt(line); err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(string(line), 10, bits)
	if err != nil {
		return 0, numErr(err, line)
	}
	return v, nil
}

// ParseUint is ParseInt for unsigned targets. Negative input is an overflow,
// not a syntax error.
func ParseUint(line []byte, bits int) (uint64, error) {
	if err := CheckInt(line); err != nil {
		return 0, err
	}
	if line[0] == '-' {
		return 0, fmt.Errorf("%w: %q below zero", ErrOverflow, line)
	}
	v, err := strconv.ParseUint(string(line), 10, bits)
	if err != nil {
		return 0, numErr(err, line)
	}
	return v, nil
}

func isRange(err error) bool {
	var ne *strconv.NumError
	return errors.As(err, &ne) && errors.Is(ne.Err, strconv.ErrRange)
}

func numErr(err error, line []byte) error {
	if isRange(err) {
		return fmt.Errorf("%w: %q", ErrOverflow, line)
	}
	return fmt.Errorf("%w: %q", ErrBadInteger, line)
}

// Reader is a forward-only cursor over one input buffer. It never reads past
// the end of b and never mutates it; returned slices alias b.
type Reader struct {
	b   []byte
	off int
}

func NewReader(b []byte) *Reader { return &Reader{b: b} }

// Offset is the number of bytes consumed so far.
func (r *Reader) Offset() int { return r.off }

// Len is the number of unread bytes.
func (r *Reader) Len() int { return len(r.b) - r.off }

// Peek returns the tag of the next frame without consuming it.
func (r *Reader) Peek() (byte, error) {
	if r.off >= len(r.b) {
		return 0, ErrTruncated
	}
	t := r.b[r.off]
	switch t {
	case TagSimple, TagError, TagInt, TagBulk, TagArray:
		return t, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrBadTag, t)
}

// ReadTag consumes and returns the tag of the next frame.
func (r *Reader) ReadTag() (byte, error) {
	t, err := r.Peek()
	if err != nil {
		return 0, err
	}
	r.off++
	return t, nil
}

// ReadLine consumes bytes up to and including the next CRLF and returns them
// without the terminator. A bare CR or LF inside the line is malformed.
func (r *Reader) ReadLine() ([]byte, error) {
	rest := r.b[r.off:]
	i := bytes.IndexByte(rest, '\n')
	if i < 0 {
		return nil, ErrTruncated
	}
	if i == 0 || rest[i-1] != '\r' {
		return nil, fmt.Errorf("%w: bare line feed", ErrMalformed)
	}
	line := rest[:i-1]
	if bytes.IndexByte(line, '\r') >= 0 {
		return nil, fmt.Errorf("%w: bare carriage return", ErrMalformed)
	}
	r.off += i + 1
	return line, nil
}

// ReadLength consumes the header line of a bulk or array frame. -1 denotes
// the null form; anything below that is malformed.
func (r *Reader) ReadLength() (int, error) {
	line, err := r.ReadLine()
	if err != nil {
		return 0, err
	}
	n, err := ParseInt(line, 32)
	if err != nil {
		return 0, err
	}
	if n < -1 {
		return 0, fmt.Errorf("%w: negative length %d", ErrMalformed, n)
	}
	return int(n), nil
}

// ReadBulkBody consumes n payload bytes plus the trailing CRLF.
func (r *Reader) ReadBulkBody(n int) ([]byte, error) {
	if n+2 > r.Len() {
		return nil, fmt.Errorf("%w: bulk length %d exceeds remaining %d", ErrTruncated, n, r.Len())
	}
	body := r.b[r.off : r.off+n]
	if r.b[r.off+n] != '\r' || r.b[r.off+n+1] != '\n' {
		return nil, fmt.Errorf("%w: bulk payload not terminated", ErrMalformed)
	}
	r.off += n + 2
	return body, nil
}

// CheckArray rejects array counts that cannot possibly fit in the remaining
// input, before the caller allocates anything for them.
func (r *Reader) CheckArray(n int) error {
	if n > r.Len()/minFrame {
		return fmt.Errorf("%w: array of %d elements exceeds remaining %d bytes", ErrTruncated, n, r.Len())
	}
	return nil
}

// Frame is one raw frame tree, as read without any requested shape.
type Frame struct {
	Tag    byte
	Offset int
	// Data holds the payload of simple, error and bulk frames and the digits
	// of integer frames.
	Data []byte
	// Null is set for "$-1" and "*-1".
	Null  bool
	Elems []Frame
}

// ReadFrame consumes one complete frame tree. Nesting beyond maxDepth fails
// with ErrMalformed.
func (r *Reader) ReadFrame(maxDepth int) (Frame, error) {
	if maxDepth <= 0 {
		return Frame{}, fmt.Errorf("%w: nesting too deep", ErrMalformed)
	}
	f := Frame{Offset: r.off}
	t, err := r.ReadTag()
	if err != nil {
		return f, err
	}
	f.Tag = t
	switch t {
	case TagSimple, TagError:
		f.Data, err = r.ReadLine()
		return f, err
	case TagInt:
		if f.Data, err = r.ReadLine(); err != nil {
			return f, err
		}
		_, err = ParseInt(f.Data, 64)
		if errors.Is(err, ErrOverflow) {
			_, err = ParseUint(f.Data, 64)
		}
		return f, err
	case TagBulk:
		n, err := r.ReadLength()
		if err != nil {
			return f, err
		}
		if n < 0 {
			f.Null = true
			return f, nil
		}
		f.Data, err = r.ReadBulkBody(n)
		return f, err
	default: // TagArray
		n, err := r.ReadLength()
		if err != nil {
			return f, err
		}
		if n < 0 {
			f.Null = true
			return f, nil
		}
		if err := r.CheckArray(n); err != nil {
			return f, err
		}
		f.Elems = make([]Frame, 0, n)
		for i := 0; i < n; i++ {
			e, err := r.ReadFrame(maxDepth - 1)
			if err != nil {
				return f, err
			}
			f.Elems = append(f.Elems, e)
		}
		return f, nil
	}
}
