package group

import (
	"crypto/hmac"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"

	"go.dedis.ch/kyber/v3"
)

// Domain separators of the hashes computed by the ceremony. Each one is the
// first byte hashed, so that values computed for one purpose can never be
// replayed as another.
const (
	DomainManifest         byte = 0x01
	DomainBaseHash         byte = 0x02
	DomainExtendedBaseHash byte = 0x03
	DomainSchnorr          byte = 0x10
	DomainHashedElGamal    byte = 0x20
)

// Digest is the 32-byte output of Hash.
type Digest []byte

// Equal tells whether both digests hold the same bytes.
func (d Digest) Equal(other Digest) bool {
	return hmac.Equal(d, other)
}

func (d Digest) String() string {
	return hex.EncodeToString(d)
}

// Hash is the keyed hash H(key; elements...) of the ceremony. It is an HMAC
// over the hash function of the suite. The elements are serialised in their
// canonical encodings and concatenated, slices being flattened in order.
// Variable-length elements are prefixed with their 4-byte length so that
// two different lists never hash the same bytes.
//
// Supported element types are byte, []byte, string, int, uint32, Digest,
// *big.Int, kyber.Point, kyber.Scalar, []kyber.Point and []interface{}. Any
// other type is a programming error and panics.
func (c *Context) Hash(key []byte, elements ...interface{}) Digest {
	mac := hmac.New(c.Suite.Hash, key)
	for _, e := range elements {
		writeElement(mac, e)
	}
	return mac.Sum(nil)
}

func writeElement(w io.Writer, e interface{}) {
	switch v := e.(type) {
	case byte:
		w.Write([]byte{v})
	case []byte:
		writeFramed(w, v)
	case Digest:
		writeFramed(w, v)
	case string:
		writeFramed(w, []byte(v))
	case int:
		var buf [4]byte
		binary.BigEndian.PutUint32(buf[:], uint32(v))
		w.Write(buf[:])
	case uint32:
		var buf [4]byte
		binary.BigEndian.PutUint32(buf[:], v)
		w.Write(buf[:])
	case *big.Int:
		writeFramed(w, v.Bytes())
	case kyber.Point:
		buf, err := v.MarshalBinary()
		if err != nil {
			panic(fmt.Sprintf("encoding point: %v", err))
		}
		w.Write(buf)
	case kyber.Scalar:
		buf, err := v.MarshalBinary()
		if err != nil {
			panic(fmt.Sprintf("encoding scalar: %v", err))
		}
		w.Write(buf)
	case []kyber.Point:
		for _, p := range v {
			writeElement(w, p)
		}
	case []interface{}:
		for _, x := range v {
			writeElement(w, x)
		}
	default:
		panic(fmt.Sprintf("cannot hash element of type %T", e))
	}
}

func writeFramed(w io.Writer, buf []byte) {
	var l [4]byte
	binary.BigEndian.PutUint32(l[:], uint32(len(buf)))
	w.Write(l[:])
	w.Write(buf)
}
