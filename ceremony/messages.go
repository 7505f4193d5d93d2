package ceremony

import (
	"go.dedis.ch/keyceremony/group"
	"go.dedis.ch/keyceremony/group/elgamal"
	"go.dedis.ch/keyceremony/group/schnorr"
	"go.dedis.ch/keyceremony/polynomial"
	"go.dedis.ch/kyber/v3"
	"golang.org/x/xerrors"
)

// PublicKeys is the public half of a guardian's polynomial, sent once to
// every other guardian.
type PublicKeys struct {
	GuardianID          string
	GuardianXCoordinate int
	// CoefficientProofs carry the commitments to the coefficients, the
	// first one being the guardian's public key.
	CoefficientProofs []*schnorr.Proof
}

// PublicKey returns the election public key of the guardian.
func (pk *PublicKeys) PublicKey() kyber.Point {
	return pk.CoefficientProofs[0].PublicKey
}

// CoefficientCommitments returns the commitments K_j.
func (pk *PublicKeys) CoefficientCommitments() []kyber.Point {
	commitments := make([]kyber.Point, len(pk.CoefficientProofs))
	for j, p := range pk.CoefficientProofs {
		commitments[j] = p.PublicKey
	}
	return commitments
}

// Validate checks the x-coordinate and every proof of the bundle. The
// returned error wraps ErrValidation and names all failing coefficients.
func (pk *PublicKeys) Validate(ctx *group.Context) error {
	if pk.GuardianID == "" {
		return xerrors.Errorf("empty guardian id: %w", ErrValidation)
	}
	if pk.GuardianXCoordinate <= 0 {
		return xerrors.Errorf("guardian %s: x-coordinate %d must be positive: %w",
			pk.GuardianID, pk.GuardianXCoordinate, ErrValidation)
	}
	if len(pk.CoefficientProofs) == 0 {
		return xerrors.Errorf("guardian %s: no coefficient proofs: %w", pk.GuardianID, ErrValidation)
	}
	var invalid []int
	for j, p := range pk.CoefficientProofs {
		label := polynomial.ProofLabel(pk.GuardianID, pk.GuardianXCoordinate, j)
		if !p.Valid(ctx, label) {
			invalid = append(invalid, j)
		}
	}
	if len(invalid) > 0 {
		return xerrors.Errorf("guardian %s: invalid proofs for coefficients %v: %w",
			pk.GuardianID, invalid, ErrValidation)
	}
	return nil
}

// Equal tells whether both bundles announce the same guardian with the
// same commitments.
func (pk *PublicKeys) Equal(other *PublicKeys) bool {
	if pk.GuardianID != other.GuardianID ||
		pk.GuardianXCoordinate != other.GuardianXCoordinate ||
		len(pk.CoefficientProofs) != len(other.CoefficientProofs) {
		return false
	}
	for j, p := range pk.CoefficientProofs {
		if !p.PublicKey.Equal(other.CoefficientProofs[j].PublicKey) {
			return false
		}
	}
	return true
}

// EncryptedKeyShare is the evaluation of the owner's polynomial at the
// recipient's x-coordinate, encrypted for the recipient.
type EncryptedKeyShare struct {
	OwnerID             string
	RecipientID         string
	EncryptedCoordinate *elgamal.Ciphertext
}

// Clone returns a deep copy of the record.
func (eks *EncryptedKeyShare) Clone() *EncryptedKeyShare {
	c := *eks
	if eks.EncryptedCoordinate != nil {
		c.EncryptedCoordinate = eks.EncryptedCoordinate.Clone()
	}
	return &c
}

// KeyShare is the plaintext fallback of an EncryptedKeyShare: the
// coordinate and the nonce it was encrypted with.
type KeyShare struct {
	OwnerID     string
	RecipientID string
	Coordinate  kyber.Scalar
	Nonce       kyber.Scalar
}
