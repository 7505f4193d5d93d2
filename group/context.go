// Package group provides the arithmetic the key ceremony is built on: a
// context bundling a kyber suite with a random source and the group
// parameters, fixed-width encodings and a domain-separated hash.
//
// Sub-packages add hashed ElGamal encryption and Schnorr proofs of
// knowledge on top of a Context.
package group

import (
	"crypto/cipher"
	"sync"

	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/util/random"
	"golang.org/x/xerrors"
)

// Constants are the public parameters of a group in their canonical,
// fixed-width big-endian encoding.
type Constants struct {
	Name       string
	LargePrime []byte
	SmallPrime []byte
	Generator  []byte
}

// Context gives access to the group arithmetic and to the random source
// used for every secret drawn during the ceremony.
type Context struct {
	Suite     Suite
	constants *Constants
	stream    cipher.Stream
}

// NewContext returns a context for the named group drawing its randomness
// from the operating system.
func NewContext(name string) (*Context, error) {
	suite, err := FindSuite(name)
	if err != nil {
		return nil, err
	}
	return newContext(name, suite, random.New())
}

// NewContextWithSeed returns a context whose random stream is derived from
// seed. The same seed gives the same polynomials and nonces, which is only
// meant for tests and reproducible simulations.
func NewContextWithSeed(name string, seed []byte) (*Context, error) {
	suite, err := FindSuite(name)
	if err != nil {
		return nil, err
	}
	return newContext(name, suite, random.New(suite.XOF(seed)))
}

// MustContext is like NewContext but panics on an unknown group name.
func MustContext(name string) *Context {
	ctx, err := NewContext(name)
	if err != nil {
		panic(err)
	}
	return ctx
}

func newContext(name string, suite Suite, stream cipher.Stream) (*Context, error) {
	p, q := constantsByName[name]()
	width := (p.BitLen() + 7) / 8
	gen, err := suite.Point().Base().MarshalBinary()
	if err != nil {
		return nil, xerrors.Errorf("encoding generator: %v", err)
	}
	return &Context{
		Suite: suite,
		constants: &Constants{
			Name:       name,
			LargePrime: p.FillBytes(make([]byte, width)),
			SmallPrime: q.FillBytes(make([]byte, width)),
			Generator:  gen,
		},
		stream: &lockedStream{stream: stream},
	}, nil
}

// Name returns the name of the group.
func (c *Context) Name() string {
	return c.constants.Name
}

// Constants returns a copy of the group parameters.
func (c *Context) Constants() *Constants {
	cst := *c.constants
	return &cst
}

// Stream returns the random stream of the context. It is safe for
// concurrent use.
func (c *Context) Stream() cipher.Stream {
	return c.stream
}

// RandomScalar draws a uniform scalar.
func (c *Context) RandomScalar() kyber.Scalar {
	return c.Suite.Scalar().Pick(c.stream)
}

// GPow returns g^s, g being the generator of the group.
func (c *Context) GPow(s kyber.Scalar) kyber.Point {
	return c.Suite.Point().Mul(s, nil)
}

// ScalarFromInt maps a small integer, such as an x-coordinate, into the
// scalar field.
func (c *Context) ScalarFromInt(v int) kyber.Scalar {
	return c.Suite.Scalar().SetInt64(int64(v))
}

// ScalarFromBytes decodes the canonical encoding of a scalar.
func (c *Context) ScalarFromBytes(buf []byte) (kyber.Scalar, error) {
	if len(buf) != c.Suite.ScalarLen() {
		return nil, xerrors.Errorf("scalar encoding has %d bytes, want %d",
			len(buf), c.Suite.ScalarLen())
	}
	s := c.Suite.Scalar()
	if err := s.UnmarshalBinary(buf); err != nil {
		return nil, xerrors.Errorf("decoding scalar: %v", err)
	}
	return s, nil
}

// PointFromBytes decodes the canonical encoding of a group element.
func (c *Context) PointFromBytes(buf []byte) (kyber.Point, error) {
	p := c.Suite.Point()
	if err := p.UnmarshalBinary(buf); err != nil {
		return nil, xerrors.Errorf("decoding point: %v", err)
	}
	return p, nil
}

// Product multiplies group elements, which kyber writes additively.
func (c *Context) Product(points ...kyber.Point) kyber.Point {
	acc := c.Suite.Point().Null()
	for _, p := range points {
		acc = acc.Add(acc, p)
	}
	return acc
}

// lockedStream serialises access to a cipher.Stream, as trustees sharing a
// context may draw randomness from different goroutines.
type lockedStream struct {
	sync.Mutex
	stream cipher.Stream
}

func (l *lockedStream) XORKeyStream(dst, src []byte) {
	l.Lock()
	defer l.Unlock()
	l.stream.XORKeyStream(dst, src)
}
