package resp

// Shape is the decoder's target-type witness. RESP frames only tell integers,
// strings and arrays apart; the Shape says what the caller wants them to mean.
//
// Which fields matter depends on Kind:
//   - KindInt, KindUint, KindFloat: Bits (0 means 64).
//   - KindOptional, KindList, KindNewtype: Elem.
//   - KindMap: Key and Elem.
//   - KindTuple, KindTupleStruct: Elems (the fixed arity).
//   - KindRecord: Fields, in declaration order.
//   - KindEnum: Variants.
//   - KindUnitStruct, KindNewtype, KindTupleStruct, KindRecord, KindEnum: Name.
type Shape struct {
	Kind     Kind
	Bits     int
	Name     string
	Elem     *Shape
	Key      *Shape
	Elems    []Shape
	Fields   []FieldShape
	Variants []VariantShape
}

// FieldShape names one record field and the shape of its value.
type FieldShape struct {
	Name  string
	Shape Shape
}

// VariantShape describes one enum case. Kind is one of KindUnitVariant,
// KindNewtypeVariant (Elem), KindTupleVariant (Elems) or KindStructVariant
// (Fields).
type VariantShape struct {
	Name   string
	Kind   Kind
	Elem   *Shape
	Elems  []Shape
	Fields []FieldShape
}

// Shape constructors for the common cases.

func BoolShape() Shape          { return Shape{Kind: KindBool} }
func IntShape(bits int) Shape   { return Shape{Kind: KindInt, Bits: bits} }
func UintShape(bits int) Shape  { return Shape{Kind: KindUint, Bits: bits} }
func FloatShape(bits int) Shape { return Shape{Kind: KindFloat, Bits: bits} }
func CharShape() Shape          { return Shape{Kind: KindChar} }
func TextShape() Shape          { return Shape{Kind: KindText} }
func BytesShape() Shape         { return Shape{Kind: KindBytes} }
func UnitShape() Shape          { return Shape{Kind: KindUnit} }
func AnyShape() Shape           { return Shape{Kind: KindAny} }

func OptionalOf(elem Shape) Shape { return Shape{Kind: KindOptional, Elem: &elem} }
func ListOf(elem Shape) Shape     { return Shape{Kind: KindList, Elem: &elem} }
func MapOf(key, elem Shape) Shape { return Shape{Kind: KindMap, Key: &key, Elem: &elem} }
func TupleOf(elems ...Shape) Shape {
	return Shape{Kind: KindTuple, Elems: elems}
}

func RecordOf(name string, fields ...FieldShape) Shape {
	return Shape{Kind: KindRecord, Name: name, Fields: fields}
}

func EnumOf(name string, variants ...VariantShape) Shape {
	return Shape{Kind: KindEnum, Name: name, Variants: variants}
}

func (s Shape) bits() int {
	if s.Bits <= 0 || s.Bits > 64 {
		return 64
	}
	return s.Bits
}

func (s Shape) variant(name string) (VariantShape, bool) {
	for _, v := range s.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return VariantShape{}, false
}

func fieldIndex(fields []FieldShape, name string) int {
	for i, f := range fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// elemOf guards against a nil Elem in a hand-built Shape: a missing element
// shape decodes schema-less.
func elemOf(p *Shape) Shape {
	if p == nil {
		return AnyShape()
	}
	return *p
}
