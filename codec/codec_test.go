package codec

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/unkn0wn-root/resp"
)

type point struct {
	X int32  `resp:"x"`
	Y int32  `resp:"y"`
	L string `resp:"label"`
}

func TestRESPCodecRoundTrip(t *testing.T) {
	var c Codec[point] = RESP[point]{}
	in := point{X: 3, Y: -4, L: "a\r\nb"}

	b, err := c.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := "*3\r\n*2\r\n+x\r\n:3\r\n*2\r\n+y\r\n:-4\r\n*2\r\n+label\r\n$4\r\na\r\nb\r\n"
	if string(b) != want {
		t.Fatalf("Encode = %q, want %q", b, want)
	}
	out, err := c.Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out != in {
		t.Fatalf("Decode = %+v, want %+v", out, in)
	}
}

func TestRESPCodecRejectsTrailingData(t *testing.T) {
	_, err := RESP[int]{}.Decode([]byte(":1\r\n:2\r\n"))
	if !errors.Is(err, resp.ErrTrailingData) {
		t.Fatalf("want ErrTrailingData, got %v", err)
	}
}

func TestRESPCodecMaxDepth(t *testing.T) {
	c := RESP[[][][]int]{Opts: resp.DecodeOptions{MaxDepth: 2}}
	_, err := c.Decode([]byte("*1\r\n*1\r\n*1\r\n:1\r\n"))
	if !errors.Is(err, resp.ErrTooDeep) {
		t.Fatalf("want ErrTooDeep, got %v", err)
	}
}

func TestShapedCodec(t *testing.T) {
	c := Shaped{Shape: resp.ListOf(resp.OptionalOf(resp.IntShape(8)))}
	in := resp.List{resp.Some(resp.Int(1)), resp.None()}

	b, err := c.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if got, want := string(b), "*2\r\n*1\r\n:1\r\n*0\r\n"; got != want {
		t.Fatalf("Encode = %q, want %q", got, want)
	}
	out, err := c.Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(resp.Value(in), out); diff != "" {
		t.Fatalf("Decode mismatch (-want +got):\n%s", diff)
	}

	if _, err := c.Decode([]byte("*1\r\n*1\r\n:300\r\n")); !errors.Is(err, resp.ErrOverflow) {
		t.Fatalf("want ErrOverflow for 300 as int8, got %v", err)
	}
}

func TestLimitCodec(t *testing.T) {
	c := LimitCodec[int]{Inner: RESP[int]{}, MaxDecode: 4}
	if v, err := c.Decode([]byte(":7\r\n")); err != nil || v != 7 {
		t.Fatalf("Decode within limit: v=%d err=%v", v, err)
	}
	if _, err := c.Decode([]byte(":700\r\n")); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("want ErrTooLarge, got %v", err)
	}

	unlimited := LimitCodec[int]{Inner: RESP[int]{}}
	if _, err := unlimited.Decode([]byte(":70000\r\n")); err != nil {
		t.Fatalf("MaxDecode 0 should disable the limit: %v", err)
	}
}

// Every document format must land on the same RESP bytes for the same
// document.
func TestDocumentFormatsToRESP(t *testing.T) {
	doc := map[string]any{
		"a": int64(1),
		"b": []any{true, "x"},
		"c": nil,
	}
	want := "*3\r\n" +
		"*2\r\n+a\r\n:1\r\n" +
		"*2\r\n+b\r\n*2\r\n:1\r\n+x\r\n" +
		"*2\r\n+c\r\n$-1\r\n"

	for _, name := range Formats {
		t.Run(name, func(t *testing.T) {
			c, err := Lookup(name)
			if err != nil {
				t.Fatalf("Lookup: %v", err)
			}
			b, err := c.Encode(doc)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			back, err := c.Decode(b)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			v, err := ToValue(back)
			if err != nil {
				t.Fatalf("ToValue: %v", err)
			}
			got, err := resp.Encode(v)
			if err != nil {
				t.Fatalf("resp.Encode: %v", err)
			}
			if got != want {
				t.Fatalf("got %q, want %q", got, want)
			}
		})
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, err := Lookup("yaml"); err == nil {
		t.Fatalf("Lookup(yaml) should fail")
	}
}

func TestJSONNumbers(t *testing.T) {
	doc, err := JSON[any]{}.Decode([]byte(`[1, -2, 18446744073709551615, 1.5]`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	v, err := ToValue(doc)
	if err != nil {
		t.Fatalf("ToValue: %v", err)
	}
	want := resp.List{resp.Int(1), resp.Int(-2), resp.Uint(18446744073709551615), resp.Float(1.5)}
	if diff := cmp.Diff(resp.Value(want), v); diff != "" {
		t.Fatalf("ToValue mismatch (-want +got):\n%s", diff)
	}
}

func TestFromValue(t *testing.T) {
	v := resp.Record{Name: "P", Fields: []resp.Field{
		{Name: "n", Value: resp.Int(2)},
		{Name: "tags", Value: resp.List{resp.Text("a")}},
		{Name: "opt", Value: resp.None()},
	}}
	got := FromValue(v)
	want := map[string]any{"n": int64(2), "tags": []any{"a"}, "opt": nil}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("FromValue mismatch (-want +got):\n%s", diff)
	}

	b, err := JSON[any]{}.Encode(got)
	if err != nil {
		t.Fatalf("JSON Encode: %v", err)
	}
	if string(b) != `{"n":2,"opt":null,"tags":["a"]}` {
		t.Fatalf("JSON = %s", b)
	}
}

func TestJSONRejectsTrailingData(t *testing.T) {
	var c JSON[any]
	for _, in := range []string{`{"a":1} garbage`, `{"a":1}{"b":2}`, `1 2`} {
		if _, err := c.Decode([]byte(in)); err == nil {
			t.Fatalf("Decode(%s) should reject trailing data", in)
		}
	}
	v, err := c.Decode([]byte("{\"a\":1}\n  "))
	if err != nil {
		t.Fatalf("trailing whitespace is fine: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"a": json.Number("1")}, v); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestCBORRejectsDuplicateKeys(t *testing.T) {
	c, err := NewCBOR[any](true)
	if err != nil {
		t.Fatalf("NewCBOR: %v", err)
	}
	// {"a": 1, "a": 2}
	dup := []byte{0xa2, 0x61, 'a', 0x01, 0x61, 'a', 0x02}
	if _, err := c.Decode(dup); err == nil {
		t.Fatalf("duplicate map keys should be rejected")
	}
	if _, err := c.Decode([]byte{0x01, 0x02}); err == nil {
		t.Fatalf("trailing bytes should be rejected")
	}
}

func TestMsgpackDocuments(t *testing.T) {
	var c Msgpack[any]
	doc := map[string]any{"z": 1, "a": []any{"x", 2.5}, "m": nil}
	first, err := c.Encode(doc)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, _ := c.Encode(doc)
		if string(again) != string(first) {
			t.Fatalf("map encoding not stable")
		}
	}

	back, err := c.Decode(first)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := map[string]any{"z": int64(1), "a": []any{"x", 2.5}, "m": nil}
	if diff := cmp.Diff(want, back); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}

	if _, err := c.Decode(append(first, 0xc0)); err == nil {
		t.Fatalf("trailing bytes should be rejected")
	}
}
