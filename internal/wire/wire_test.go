package wire

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestAppendFrames(t *testing.T) {
	cases := []struct {
		name string
		got  []byte
		want string
	}{
		{"simple", AppendSimple(nil, "OK"), "+OK\r\n"},
		{"empty simple", AppendSimple(nil, ""), "+\r\n"},
		{"error", AppendError(nil, "ERR boom"), "-ERR boom\r\n"},
		{"int", AppendInt(nil, -42), ":-42\r\n"},
		{"int min", AppendInt(nil, math.MinInt64), ":-9223372036854775808\r\n"},
		{"uint max", AppendUint(nil, math.MaxUint64), ":18446744073709551615\r\n"},
		{"bulk", AppendBulk(nil, []byte{0, 1, '\r'}), "$3\r\n\x00\x01\r\r\n"},
		{"bulk string", AppendBulkString(nil, "a\nb"), "$3\r\na\nb\r\n"},
		{"empty bulk", AppendBulk(nil, nil), "$0\r\n\r\n"},
		{"null", AppendNull(nil), "$-1\r\n"},
		{"array", AppendArray(nil, 3), "*3\r\n"},
		{"appends", AppendInt([]byte("x"), 1), "x:1\r\n"},
	}
	for _, tc := range cases {
		if string(tc.got) != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, tc.got, tc.want)
		}
	}
}

func TestNeedsBulk(t *testing.T) {
	for s, want := range map[string]bool{
		"":        false,
		"plain":   false,
		"tab\tok": false,
		"cr\r":    true,
		"lf\n":    true,
		"\r\n":    true,
	} {
		if got := NeedsBulk(s); got != want {
			t.Fatalf("NeedsBulk(%q) = %v, want %v", s, got, want)
		}
	}
}

func TestParseInt(t *testing.T) {
	cases := []struct {
		in   string
		bits int
		want int64
		err  error
	}{
		{"0", 64, 0, nil},
		{"-128", 8, -128, nil},
		{"127", 8, 127, nil},
		{"128", 8, 0, ErrOverflow},
		{"9223372036854775808", 64, 0, ErrOverflow},
		{"", 64, 0, ErrBadInteger},
		{"1.5", 64, 0, ErrBadInteger},
		{"abc", 64, 0, ErrBadInteger},
		{"+5", 64, 0, ErrBadInteger},
		{"007", 64, 0, ErrBadInteger},
		{"-0", 64, 0, ErrBadInteger},
		{"-12", 64, -12, nil},
	}
	for _, tc := range cases {
		got, err := ParseInt([]byte(tc.in), tc.bits)
		if !errors.Is(err, tc.err) || (tc.err == nil && err != nil) {
			t.Fatalf("ParseInt(%q, %d) err = %v, want %v", tc.in, tc.bits, err, tc.err)
		}
		if got != tc.want {
			t.Fatalf("ParseInt(%q, %d) = %d, want %d", tc.in, tc.bits, got, tc.want)
		}
	}
}

func TestParseUint(t *testing.T) {
	cases := []struct {
		in   string
		bits int
		want uint64
		err  error
	}{
		{"255", 8, 255, nil},
		{"256", 8, 0, ErrOverflow},
		{"18446744073709551615", 64, math.MaxUint64, nil},
		{"-1", 64, 0, ErrOverflow},
		{"-99999999999999999999999", 64, 0, ErrOverflow},
		{"--5", 64, 0, ErrBadInteger},
		{"-", 64, 0, ErrBadInteger},
		{"x", 64, 0, ErrBadInteger},
		{"00", 64, 0, ErrBadInteger},
		{"+1", 64, 0, ErrBadInteger},
	}
	for _, tc := range cases {
		got, err := ParseUint([]byte(tc.in), tc.bits)
		if !errors.Is(err, tc.err) || (tc.err == nil && err != nil) {
			t.Fatalf("ParseUint(%q, %d) err = %v, want %v", tc.in, tc.bits, err, tc.err)
		}
		if got != tc.want {
			t.Fatalf("ParseUint(%q, %d) = %d, want %d", tc.in, tc.bits, got, tc.want)
		}
	}
}

func TestReaderLines(t *testing.T) {
	r := NewReader([]byte("+hello\r\n:12\r\n"))
	if tag, err := r.ReadTag(); err != nil || tag != TagSimple {
		t.Fatalf("ReadTag = %q, %v", tag, err)
	}
	line, err := r.ReadLine()
	if err != nil || string(line) != "hello" {
		t.Fatalf("ReadLine = %q, %v", line, err)
	}
	if r.Offset() != 8 || r.Len() != 5 {
		t.Fatalf("Offset/Len = %d/%d", r.Offset(), r.Len())
	}
	if tag, err := r.Peek(); err != nil || tag != TagInt || r.Offset() != 8 {
		t.Fatalf("Peek must not consume: tag=%q err=%v off=%d", tag, err, r.Offset())
	}
}

func TestReaderErrors(t *testing.T) {
	cases := []struct {
		name string
		in   string
		read func(r *Reader) error
		want error
	}{
		{"empty", "", func(r *Reader) error { _, err := r.Peek(); return err }, ErrTruncated},
		{"bad tag", "%x\r\n", func(r *Reader) error { _, err := r.ReadTag(); return err }, ErrBadTag},
		{"no newline", "abc", func(r *Reader) error { _, err := r.ReadLine(); return err }, ErrTruncated},
		{"bare lf", "abc\n", func(r *Reader) error { _, err := r.ReadLine(); return err }, ErrMalformed},
		{"bare cr", "a\rb\r\n", func(r *Reader) error { _, err := r.ReadLine(); return err }, ErrMalformed},
		{"length below -1", "-2\r\n", func(r *Reader) error { _, err := r.ReadLength(); return err }, ErrMalformed},
		{"length with leading zero", "01\r\n", func(r *Reader) error { _, err := r.ReadLength(); return err }, ErrBadInteger},
		{"length not a number", "x\r\n", func(r *Reader) error { _, err := r.ReadLength(); return err }, ErrBadInteger},
		{"bulk too long", "ab\r\n", func(r *Reader) error { _, err := r.ReadBulkBody(5); return err }, ErrTruncated},
		{"bulk unterminated", "abcd", func(r *Reader) error { _, err := r.ReadBulkBody(2); return err }, ErrMalformed},
		{"array too long", ":1\r\n", func(r *Reader) error { return r.CheckArray(2) }, ErrTruncated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.read(NewReader([]byte(tc.in))); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestReadLengthNull(t *testing.T) {
	n, err := NewReader([]byte("-1\r\n")).ReadLength()
	if err != nil || n != -1 {
		t.Fatalf("ReadLength = %d, %v", n, err)
	}
}

func TestReadBulkBody(t *testing.T) {
	r := NewReader([]byte("a\r\nb\r\n:1\r\n"))
	body, err := r.ReadBulkBody(4)
	if err != nil || string(body) != "a\r\nb" {
		t.Fatalf("ReadBulkBody = %q, %v", body, err)
	}
	if r.Offset() != 6 {
		t.Fatalf("Offset = %d, want 6", r.Offset())
	}
}

func TestReadFrame(t *testing.T) {
	in := "*4\r\n+ok\r\n$-1\r\n*0\r\n*2\r\n:18446744073709551615\r\n$2\r\nhi\r\n"
	r := NewReader([]byte(in))
	f, err := r.ReadFrame(8)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if r.Len() != 0 {
		t.Fatalf("ReadFrame left %d bytes", r.Len())
	}
	if f.Tag != TagArray || len(f.Elems) != 4 {
		t.Fatalf("top frame = %+v", f)
	}
	if e := f.Elems[0]; e.Tag != TagSimple || string(e.Data) != "ok" || e.Offset != 4 {
		t.Fatalf("elem 0 = %+v", e)
	}
	if e := f.Elems[1]; e.Tag != TagBulk || !e.Null {
		t.Fatalf("elem 1 = %+v", e)
	}
	if e := f.Elems[2]; e.Tag != TagArray || e.Null || len(e.Elems) != 0 {
		t.Fatalf("elem 2 = %+v", e)
	}
	inner := f.Elems[3]
	if string(inner.Elems[0].Data) != "18446744073709551615" || string(inner.Elems[1].Data) != "hi" {
		t.Fatalf("elem 3 = %+v", inner)
	}
}

func TestReadFrameLimits(t *testing.T) {
	deep := strings.Repeat("*1\r\n", 10) + ":1\r\n"
	if _, err := NewReader([]byte(deep)).ReadFrame(5); !errors.Is(err, ErrMalformed) {
		t.Fatalf("deep nesting: got %v", err)
	}
	if _, err := NewReader([]byte("*1000000\r\n:1\r\n")).ReadFrame(8); !errors.Is(err, ErrTruncated) {
		t.Fatalf("huge array: got %v", err)
	}
	if _, err := NewReader([]byte(":1x\r\n")).ReadFrame(8); !errors.Is(err, ErrBadInteger) {
		t.Fatalf("bad integer: got %v", err)
	}
	if _, err := NewReader([]byte("$10\r\nabc\r\n")).ReadFrame(8); !errors.Is(err, ErrTruncated) {
		t.Fatalf("short bulk: got %v", err)
	}
}
