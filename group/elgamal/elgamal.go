// Package elgamal implements the hashed ElGamal encryption used to send
// polynomial evaluations between guardians.
//
// A message is encrypted under a public key K with a nonce R:
//
//	C0 = g^R
//	k  = H(C0, K^R)
//	C1 = m XOR stream(k)
//	C2 = HMAC(mac(k), C0 || C1)
//
// where the stream and MAC keys are derived from k with HKDF. The same nonce
// and message always give the same ciphertext, which lets a recipient
// re-derive a ciphertext from a revealed nonce.
package elgamal

import (
	"bytes"
	"crypto/hmac"
	"io"

	"go.dedis.ch/keyceremony/group"
	"go.dedis.ch/kyber/v3"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/xerrors"
)

// ErrAuthentication is returned by Decrypt when the MAC does not match,
// i.e. the ciphertext was altered or encrypted for another key.
var ErrAuthentication = xerrors.New("ciphertext authentication failed")

const macKeySize = 32

var kdfInfo = []byte("hashed elgamal")

// Ciphertext is a hashed ElGamal ciphertext.
type Ciphertext struct {
	// C0 is g^R, the ephemeral element bound to the nonce.
	C0 kyber.Point
	// C1 is the masked message, as long as the message.
	C1 []byte
	// C2 authenticates C0 and C1.
	C2 []byte
}

// Encrypt encrypts message under public with the given nonce. The nonce
// must be fresh and secret unless the caller wants to reproduce an earlier
// encryption.
func Encrypt(ctx *group.Context, public kyber.Point, message []byte, nonce kyber.Scalar) (*Ciphertext, error) {
	c0 := ctx.GPow(nonce)
	shared := ctx.Suite.Point().Mul(nonce, public)
	macKey, stream, err := deriveKeys(ctx, c0, shared, len(message))
	if err != nil {
		return nil, err
	}

	c1 := make([]byte, len(message))
	for i := range message {
		c1[i] = message[i] ^ stream[i]
	}
	c2, err := authenticate(ctx, macKey, c0, c1)
	if err != nil {
		return nil, err
	}
	return &Ciphertext{C0: c0, C1: c1, C2: c2}, nil
}

// EncryptRandom encrypts message under public with a fresh nonce drawn from
// the context.
func EncryptRandom(ctx *group.Context, public kyber.Point, message []byte) (*Ciphertext, error) {
	return Encrypt(ctx, public, message, ctx.RandomScalar())
}

// Decrypt recovers the message with the secret key matching the public key
// the ciphertext was made for. It fails with ErrAuthentication if the
// ciphertext does not verify.
func (c *Ciphertext) Decrypt(ctx *group.Context, secret kyber.Scalar) ([]byte, error) {
	if c == nil || c.C0 == nil {
		return nil, xerrors.New("empty ciphertext")
	}
	shared := ctx.Suite.Point().Mul(secret, c.C0)
	macKey, stream, err := deriveKeys(ctx, c.C0, shared, len(c.C1))
	if err != nil {
		return nil, err
	}

	expected, err := authenticate(ctx, macKey, c.C0, c.C1)
	if err != nil {
		return nil, err
	}
	if !hmac.Equal(expected, c.C2) {
		return nil, ErrAuthentication
	}

	message := make([]byte, len(c.C1))
	for i := range c.C1 {
		message[i] = c.C1[i] ^ stream[i]
	}
	return message, nil
}

// Equal tells whether both ciphertexts are identical.
func (c *Ciphertext) Equal(other *Ciphertext) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.C0.Equal(other.C0) && bytes.Equal(c.C1, other.C1) &&
		bytes.Equal(c.C2, other.C2)
}

// Clone returns a deep copy of the ciphertext.
func (c *Ciphertext) Clone() *Ciphertext {
	return &Ciphertext{
		C0: c.C0.Clone(),
		C1: append([]byte{}, c.C1...),
		C2: append([]byte{}, c.C2...),
	}
}

// deriveKeys expands H(C0, shared) into a MAC key and a key stream of
// length n.
func deriveKeys(ctx *group.Context, c0, shared kyber.Point, n int) ([]byte, []byte, error) {
	secret := ctx.Hash(nil, group.DomainHashedElGamal, c0, shared)
	kdf := hkdf.New(ctx.Suite.Hash, secret, nil, kdfInfo)

	out := make([]byte, macKeySize+n)
	if _, err := io.ReadFull(kdf, out); err != nil {
		return nil, nil, xerrors.Errorf("deriving keys: %v", err)
	}
	return out[:macKeySize], out[macKeySize:], nil
}

func authenticate(ctx *group.Context, key []byte, c0 kyber.Point, c1 []byte) ([]byte, error) {
	buf, err := c0.MarshalBinary()
	if err != nil {
		return nil, xerrors.Errorf("encoding c0: %v", err)
	}
	mac := hmac.New(ctx.Suite.Hash, key)
	mac.Write(buf)
	mac.Write(c1)
	return mac.Sum(nil), nil
}
