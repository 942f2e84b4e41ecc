package resp

import (
	"bytes"
	"errors"
	"iter"
	"math"
	"strings"
	"testing"
)

func TestEncodeExactBytes(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want string
	}{
		{"none", None(), "*0\r\n"},
		{"some int", Some(Int(5)), "*1\r\n:5\r\n"},
		{"unit", Unit{}, "$-1\r\n"},
		{"unit struct", UnitStruct{Name: "Marker"}, "$-1\r\n"},
		{"true", Bool(true), ":1\r\n"},
		{"false", Bool(false), ":0\r\n"},
		{"negative", Int(-7), ":-7\r\n"},
		{"uint max", Uint(math.MaxUint64), ":18446744073709551615\r\n"},
		{"float", Float(1.5), "+1.5\r\n"},
		{"float integral", Float(3), "+3\r\n"},
		{"float large", Float(1e21), "+1000000000000000000000\r\n"},
		{"nan", Float(math.NaN()), "+NaN\r\n"},
		{"inf", Float(math.Inf(1)), "++Inf\r\n"},
		{"neg inf", Float(math.Inf(-1)), "+-Inf\r\n"},
		{"char", Char('é'), "+é\r\n"},
		{"char newline", Char('\n'), "$1\r\n\n\r\n"},
		{"text", Text("hello"), "+hello\r\n"},
		{"empty text", Text(""), "+\r\n"},
		{"text crlf", Text("a\r\nb"), "$4\r\na\r\nb\r\n"},
		{"bytes", Bytes("raw"), "$3\r\nraw\r\n"},
		{"newtype", Newtype{Name: "Meters", Inner: Int(3)}, ":3\r\n"},
		{"tuple", Tuple{Int(1), Text("x")}, "*2\r\n:1\r\n+x\r\n"},
		{"tuple struct", TupleStruct{Name: "Pair", Elems: []Value{Bool(true), Unit{}}}, "*2\r\n:1\r\n$-1\r\n"},
		{"empty list", List{}, "*0\r\n"},
		{"map", Map{{Key: Text("k"), Value: Int(1)}}, "*1\r\n*2\r\n+k\r\n:1\r\n"},
		{
			"record",
			Record{Name: "S", Fields: []Field{
				{Name: "int", Value: Int(1)},
				{Name: "seq", Value: List{Text("a"), Text("b")}},
			}},
			"*2\r\n*2\r\n+int\r\n:1\r\n*2\r\n+seq\r\n*2\r\n+a\r\n+b\r\n",
		},
		{"unit variant", UnitVariant{Enum: "E", Variant: "Unit"}, "+Unit\r\n"},
		{"newtype variant", NewtypeVariant{Enum: "E", Variant: "Newtype", Inner: Int(1)}, "*2\r\n+Newtype\r\n:1\r\n"},
		{
			"tuple variant",
			TupleVariant{Enum: "E", Variant: "Tuple", Elems: []Value{Int(1), Int(2)}},
			"*2\r\n+Tuple\r\n*2\r\n:1\r\n:2\r\n",
		},
		{
			"struct variant",
			StructVariant{Enum: "E", Variant: "Struct", Fields: []Field{{Name: "a", Value: Int(1)}}},
			"*2\r\n+Struct\r\n*1\r\n*2\r\n+a\r\n:1\r\n",
		},
		{"variant name with newline", UnitVariant{Enum: "E", Variant: "a\nb"}, "$3\r\na\nb\r\n"},
		{"stream", Stream{Len: 2, Elems: seq(Int(1), Int(2))}, "*2\r\n:1\r\n:2\r\n"},
		{"empty stream", Stream{Len: 0}, "*0\r\n"},
		{"map stream", MapStream{Len: 1, Entries: pairs(Text("k"), Bool(true))}, "*1\r\n*2\r\n+k\r\n:1\r\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Encode(tc.v)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Encode = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestEncodeTextBranching(t *testing.T) {
	for _, s := range []string{"plain", "tab\there", "unicode ✓", "", "a\rb", "a\nb", "\r\n", "trailing\n"} {
		got, err := Encode(Text(s))
		if err != nil {
			t.Fatalf("Encode(%q): %v", s, err)
		}
		bulk := strings.ContainsAny(s, "\r\n")
		if bulk && got[0] != '$' {
			t.Fatalf("%q must use a bulk string, got %q", s, got)
		}
		if !bulk && got[0] != '+' {
			t.Fatalf("%q must use a simple string, got %q", s, got)
		}
		back, err := DecodeString(got, TextShape())
		if err != nil {
			t.Fatalf("decode %q: %v", got, err)
		}
		if back != Text(s) {
			t.Fatalf("round trip %q -> %q", s, back)
		}
	}
}

func TestEncodeUnknownLength(t *testing.T) {
	cases := []Value{
		Stream{Len: UnknownLen, Elems: seq(Int(1))},
		MapStream{Len: UnknownLen, Entries: pairs(Text("k"), Int(1))},
		List{Int(1), Stream{Len: UnknownLen}},
	}
	for _, v := range cases {
		_, err := Encode(v)
		if !errors.Is(err, ErrLenNotKnown) {
			t.Fatalf("Encode(%T): want ErrLenNotKnown, got %v", v, err)
		}
		var ee *EncodeError
		if !errors.As(err, &ee) {
			t.Fatalf("want *EncodeError, got %T", err)
		}
	}
}

func TestEncodeLengthMismatch(t *testing.T) {
	for _, v := range []Value{
		Stream{Len: 3, Elems: seq(Int(1))},
		Stream{Len: 1, Elems: seq(Int(1), Int(2))},
		MapStream{Len: 2, Entries: pairs(Text("k"), Int(1))},
	} {
		if _, err := Encode(v); !errors.Is(err, ErrLenMismatch) {
			t.Fatalf("want ErrLenMismatch, got %v", err)
		}
	}
}

func TestEncodeFailures(t *testing.T) {
	if _, err := Encode(nil); err == nil {
		t.Fatalf("nil value should fail")
	}
	var me *MessageError
	if _, err := Encode(List{Int(1), nil}); !errors.As(err, &me) {
		t.Fatalf("nil element: want *MessageError, got %v", err)
	}
	if _, err := Encode(Char(0xD800)); !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("surrogate char: want ErrInvalidUTF8, got %v", err)
	}

	var deep Value = Int(0)
	for i := 0; i < maxEncodeDepth+10; i++ {
		deep = List{deep}
	}
	if _, err := Encode(deep); !errors.Is(err, ErrTooDeep) {
		t.Fatalf("deep value: want ErrTooDeep, got %v", err)
	}
}

func TestEncodeBinaryPaths(t *testing.T) {
	v := Bytes{0xff, 0xfe}
	if _, err := Encode(v); !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("Encode of non-UTF-8 bytes: want ErrInvalidUTF8, got %v", err)
	}
	b, err := EncodeBytes(v)
	if err != nil {
		t.Fatalf("EncodeBytes: %v", err)
	}
	if want := "$2\r\n\xff\xfe\r\n"; string(b) != want {
		t.Fatalf("EncodeBytes = %q, want %q", b, want)
	}
	back, err := Decode(b, BytesShape())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(back.(Bytes), v) {
		t.Fatalf("round trip = %q", back)
	}
}

func TestAppendEncode(t *testing.T) {
	dst := []byte("prefix")
	out, err := AppendEncode(dst, Int(1))
	if err != nil || string(out) != "prefix:1\r\n" {
		t.Fatalf("AppendEncode = %q, %v", out, err)
	}
	out, err = AppendEncode([]byte("keep"), List{Int(1), Stream{Len: UnknownLen}})
	if err == nil || string(out) != "keep" {
		t.Fatalf("failed AppendEncode must return dst unchanged, got %q, %v", out, err)
	}
}

type countingWriter struct {
	writes int
	buf    bytes.Buffer
	err    error
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.writes++
	if w.err != nil {
		return 0, w.err
	}
	return w.buf.Write(p)
}

func TestEncoder(t *testing.T) {
	w := &countingWriter{}
	enc := NewEncoder(w)
	if err := enc.Encode(Record{Fields: []Field{{Name: "a", Value: List{Int(1), Int(2)}}}}); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := enc.Marshal([]string{"x"}); err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if w.writes != 2 {
		t.Fatalf("want one Write per value, got %d", w.writes)
	}
	if want := "*1\r\n*2\r\n+a\r\n*2\r\n:1\r\n:2\r\n*1\r\n+x\r\n"; w.buf.String() != want {
		t.Fatalf("output = %q, want %q", w.buf.String(), want)
	}

	if err := enc.Encode(Stream{Len: UnknownLen}); !errors.Is(err, ErrLenNotKnown) || w.writes != 2 {
		t.Fatalf("failed encode must not write: err=%v writes=%d", err, w.writes)
	}

	sink := errors.New("disk full")
	bad := NewEncoder(&countingWriter{err: sink})
	err := bad.Encode(Int(1))
	var ioe *IOError
	if !errors.As(err, &ioe) || !errors.Is(err, sink) {
		t.Fatalf("want *IOError wrapping the sink error, got %v", err)
	}
}

func seq(vs ...Value) iter.Seq[Value] {
	return func(yield func(Value) bool) {
		for _, v := range vs {
			if !yield(v) {
				return
			}
		}
	}
}

func pairs(kv ...Value) iter.Seq2[Value, Value] {
	return func(yield func(Value, Value) bool) {
		for i := 0; i+1 < len(kv); i += 2 {
			if !yield(kv[i], kv[i+1]) {
				return
			}
		}
	}
}
