// Package codec converts cached values to and from the bytes a provider stores.
package codec

// Codec encodes/decodes values V to []byte for storage.
// Decode must accept exactly what Encode produced.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
