// Package schnorr provides non-interactive Schnorr proofs of knowledge of a
// discrete logarithm. The proof is the Fiat-Shamir transform of the
// representation predicate X = x*B of kyber's proof framework.
//
// Every proof carries a label hashed into its challenge, so a proof made for
// one coefficient of one guardian does not verify for another.
package schnorr

import (
	"go.dedis.ch/keyceremony/group"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/proof"
	"golang.org/x/xerrors"
)

// ErrInvalidProof is returned when a proof does not verify.
var ErrInvalidProof = xerrors.New("invalid schnorr proof")

// Proof proves knowledge of the secret behind PublicKey.
type Proof struct {
	PublicKey  kyber.Point
	Transcript []byte
}

var predicate = proof.Rep("X", "x", "B")

// Prove returns a proof of knowledge of secret, for the public key
// g^secret, bound to label.
func Prove(ctx *group.Context, secret kyber.Scalar, label string) (*Proof, error) {
	public := ctx.GPow(secret)
	sval := map[string]kyber.Scalar{"x": secret}
	pval := map[string]kyber.Point{"B": ctx.Suite.Point().Base(), "X": public}

	prover := predicate.Prover(ctx.Suite, sval, pval, nil)
	transcript, err := proof.HashProve(ctx.Suite, protocolName(ctx, label, public), prover)
	if err != nil {
		return nil, xerrors.Errorf("proving: %v", err)
	}
	return &Proof{PublicKey: public, Transcript: transcript}, nil
}

// Verify checks the proof against its public key and label. It returns
// nil or an error wrapping ErrInvalidProof.
func (p *Proof) Verify(ctx *group.Context, label string) error {
	if p == nil || p.PublicKey == nil {
		return xerrors.Errorf("missing public key: %w", ErrInvalidProof)
	}
	pval := map[string]kyber.Point{"B": ctx.Suite.Point().Base(), "X": p.PublicKey}
	verifier := predicate.Verifier(ctx.Suite, pval)
	err := proof.HashVerify(ctx.Suite, protocolName(ctx, label, p.PublicKey), verifier, p.Transcript)
	if err != nil {
		return xerrors.Errorf("%v: %w", err, ErrInvalidProof)
	}
	return nil
}

// Valid is the boolean form of Verify.
func (p *Proof) Valid(ctx *group.Context, label string) bool {
	return p.Verify(ctx, label) == nil
}

// protocolName seeds the challenge with the label and the public key.
func protocolName(ctx *group.Context, label string, public kyber.Point) string {
	return string(ctx.Hash(nil, group.DomainSchnorr, label, public))
}
