// Package codec holds Codec[V] implementations. RESP and Shaped write the
// canonical RESP mapping; JSON, CBOR, MessagePack and ProtoValue read and
// write the self-describing documents respconv converts to and from RESP.
package codec

// Codec turns V into bytes and back. Decode rejects input it does not
// consume entirely.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
