package resp

import "iter"

// Kind identifies the logical shape of a Value or a Shape request.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat
	KindChar
	KindText
	KindBytes
	KindOptional
	KindUnit
	KindUnitStruct
	KindUnitVariant
	KindNewtype
	KindNewtypeVariant
	KindTuple
	KindTupleStruct
	KindTupleVariant
	KindList
	KindMap
	KindRecord
	KindStructVariant

	// KindEnum and KindAny only appear in Shape requests.
	KindEnum
	KindAny
)

var kindNames = [...]string{
	KindInvalid:        "invalid",
	KindBool:           "bool",
	KindInt:            "int",
	KindUint:           "uint",
	KindFloat:          "float",
	KindChar:           "char",
	KindText:           "text",
	KindBytes:          "bytes",
	KindOptional:       "optional",
	KindUnit:           "unit",
	KindUnitStruct:     "unit struct",
	KindUnitVariant:    "unit variant",
	KindNewtype:        "newtype",
	KindNewtypeVariant: "newtype variant",
	KindTuple:          "tuple",
	KindTupleStruct:    "tuple struct",
	KindTupleVariant:   "tuple variant",
	KindList:           "list",
	KindMap:            "map",
	KindRecord:         "record",
	KindStructVariant:  "struct variant",
	KindEnum:           "enum",
	KindAny:            "any",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// Value is one node of the value model. The set of implementations is closed;
// the encoder and decoder switch over all of them.
type Value interface {
	Kind() Kind
	isValue()
}

type (
	Bool  bool
	Int   int64
	Uint  uint64
	Float float64
	Char  rune
	Text  string
	Bytes []byte

	// Optional is absent when Inner is nil.
	Optional struct{ Inner Value }

	Unit       struct{}
	UnitStruct struct{ Name string }

	UnitVariant struct{ Enum, Variant string }

	Newtype struct {
		Name  string
		Inner Value
	}
	NewtypeVariant struct {
		Enum, Variant string
		Inner         Value
	}

	Tuple []Value

	TupleStruct struct {
		Name  string
		Elems []Value
	}
	TupleVariant struct {
		Enum, Variant string
		Elems         []Value
	}

	List []Value

	Map []Entry

	Record struct {
		Name   string
		Fields []Field
	}
	StructVariant struct {
		Enum, Variant string
		Fields        []Field
	}
)

// Entry is one key/value pair of a Map, kept in caller order.
type Entry struct {
	Key, Value Value
}

// Field is one named member of a Record or StructVariant.
type Field struct {
	Name  string
	Value Value
}

// UnknownLen marks a Stream or MapStream whose length is not known up front.
// Such values cannot be encoded.
const UnknownLen = -1

// Stream is a list produced lazily. Len must equal the number of values
// Elems yields.
type Stream struct {
	Len   int
	Elems iter.Seq[Value]
}

// MapStream is a map produced lazily. Len must equal the number of pairs
// Entries yields.
type MapStream struct {
	Len     int
	Entries iter.Seq2[Value, Value]
}

// None is the absent Optional.
func None() Optional { return Optional{} }

// Some wraps v in a present Optional.
func Some(v Value) Optional { return Optional{Inner: v} }

func (Bool) Kind() Kind           { return KindBool }
func (Int) Kind() Kind            { return KindInt }
func (Uint) Kind() Kind           { return KindUint }
func (Float) Kind() Kind          { return KindFloat }
func (Char) Kind() Kind           { return KindChar }
func (Text) Kind() Kind           { return KindText }
func (Bytes) Kind() Kind          { return KindBytes }
func (Optional) Kind() Kind       { return KindOptional }
func (Unit) Kind() Kind           { return KindUnit }
func (UnitStruct) Kind() Kind     { return KindUnitStruct }
func (UnitVariant) Kind() Kind    { return KindUnitVariant }
func (Newtype) Kind() Kind        { return KindNewtype }
func (NewtypeVariant) Kind() Kind { return KindNewtypeVariant }
func (Tuple) Kind() Kind          { return KindTuple }
func (TupleStruct) Kind() Kind    { return KindTupleStruct }
func (TupleVariant) Kind() Kind   { return KindTupleVariant }
func (List) Kind() Kind           { return KindList }
func (Stream) Kind() Kind         { return KindList }
func (Map) Kind() Kind            { return KindMap }
func (MapStream) Kind() Kind      { return KindMap }
func (Record) Kind() Kind         { return KindRecord }
func (StructVariant) Kind() Kind  { return KindStructVariant }

func (Bool) isValue()           {}
func (Int) isValue()            {}
func (Uint) isValue()           {}
func (Float) isValue()          {}
func (Char) isValue()           {}
func (Text) isValue()           {}
func (Bytes) isValue()          {}
func (Optional) isValue()       {}
func (Unit) isValue()           {}
func (UnitStruct) isValue()     {}
func (UnitVariant) isValue()    {}
func (Newtype) isValue()        {}
func (NewtypeVariant) isValue() {}
func (Tuple) isValue()          {}
func (TupleStruct) isValue()    {}
func (TupleVariant) isValue()   {}
func (List) isValue()           {}
func (Stream) isValue()         {}
func (Map) isValue()            {}
func (MapStream) isValue()      {}
func (Record) isValue()         {}
func (StructVariant) isValue()  {}
