// Package polynomial holds the secret polynomial of a guardian, the
// commitments to its coefficients and their proofs of knowledge.
//
// A guardian with quorum k draws P(x) = a_0 + a_1 x + ... + a_{k-1} x^{k-1}
// over the scalar field. a_0 is the guardian's election secret key and
// K_0 = g^a_0 its public key. Evaluations P(l) are the shares sent to the
// other guardians, which check them against the commitments K_j = g^a_j.
package polynomial

import (
	"fmt"

	"go.dedis.ch/keyceremony/group"
	"go.dedis.ch/keyceremony/group/schnorr"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/share"
	"golang.org/x/xerrors"
)

// ErrInvalidArgument is returned for an empty guardian id, a non-positive
// x-coordinate or quorum, or coefficients that do not match.
var ErrInvalidArgument = xerrors.New("invalid argument")

// ElectionPolynomial is the secret polynomial of one guardian. It must stay
// private: only the commitments and proofs are published.
type ElectionPolynomial struct {
	GuardianID string
	// Coefficients are the secret a_j, j = 0..k-1.
	Coefficients []kyber.Scalar
	// Commitments are the public K_j = g^a_j.
	Commitments []kyber.Point
	// Proofs prove knowledge of each a_j.
	Proofs []*schnorr.Proof
}

// ProofLabel binds the proof of a coefficient to its guardian, the
// guardian's x-coordinate and the coefficient index.
func ProofLabel(guardianID string, xCoordinate, index int) string {
	return fmt.Sprintf("guardian %s x %d coefficient %d", guardianID, xCoordinate, index)
}

// Generate draws a random polynomial of degree quorum-1 for the guardian.
// Every coefficient is a fresh ElGamal secret key, committed to and proven.
func Generate(ctx *group.Context, guardianID string, xCoordinate, quorum int) (*ElectionPolynomial, error) {
	if quorum <= 0 {
		return nil, xerrors.Errorf("quorum %d must be positive: %w", quorum, ErrInvalidArgument)
	}
	if err := checkGuardian(guardianID, xCoordinate); err != nil {
		return nil, err
	}
	priPoly := share.NewPriPoly(ctx.Suite, quorum, nil, ctx.Stream())
	return build(ctx, guardianID, xCoordinate, priPoly.Coefficients())
}

// Regenerate rebuilds the commitments and proofs of a polynomial from its
// stored coefficients. The proofs are new, the commitments are the same as
// the ones published at generation.
func Regenerate(ctx *group.Context, guardianID string, xCoordinate int, coefficients []kyber.Scalar) (*ElectionPolynomial, error) {
	if len(coefficients) == 0 {
		return nil, xerrors.Errorf("no coefficients: %w", ErrInvalidArgument)
	}
	if err := checkGuardian(guardianID, xCoordinate); err != nil {
		return nil, err
	}
	return build(ctx, guardianID, xCoordinate, coefficients)
}

func checkGuardian(guardianID string, xCoordinate int) error {
	if guardianID == "" {
		return xerrors.Errorf("empty guardian id: %w", ErrInvalidArgument)
	}
	if xCoordinate <= 0 {
		return xerrors.Errorf("x-coordinate %d must be positive: %w", xCoordinate, ErrInvalidArgument)
	}
	return nil
}

func build(ctx *group.Context, guardianID string, xCoordinate int, coefficients []kyber.Scalar) (*ElectionPolynomial, error) {
	p := &ElectionPolynomial{
		GuardianID:   guardianID,
		Coefficients: make([]kyber.Scalar, len(coefficients)),
		Commitments:  make([]kyber.Point, len(coefficients)),
		Proofs:       make([]*schnorr.Proof, len(coefficients)),
	}
	for j, a := range coefficients {
		prf, err := schnorr.Prove(ctx, a, ProofLabel(guardianID, xCoordinate, j))
		if err != nil {
			return nil, xerrors.Errorf("coefficient %d: %v", j, err)
		}
		p.Coefficients[j] = a.Clone()
		p.Commitments[j] = prf.PublicKey
		p.Proofs[j] = prf
	}
	return p, nil
}

// Quorum is the number of coefficients.
func (p *ElectionPolynomial) Quorum() int {
	return len(p.Coefficients)
}

// SecretKey returns a_0, the guardian's election secret key.
func (p *ElectionPolynomial) SecretKey() kyber.Scalar {
	return p.Coefficients[0]
}

// PublicKey returns K_0, the guardian's election public key.
func (p *ElectionPolynomial) PublicKey() kyber.Point {
	return p.Commitments[0]
}

// ValueAt returns P(x), the secret share of the guardian at coordinate x.
// It is only ever sent encrypted.
func (p *ElectionPolynomial) ValueAt(ctx *group.Context, x int) kyber.Scalar {
	xs := ctx.ScalarFromInt(x)
	power := ctx.Suite.Scalar().One()
	result := ctx.Suite.Scalar().Zero()
	term := ctx.Suite.Scalar()
	for _, a := range p.Coefficients {
		term.Mul(a, power)
		result.Add(result, term)
		power.Mul(power, xs)
	}
	return result
}

// VerificationValue returns prod_j K_j^(x^j), which equals g^P(x) for the
// polynomial behind the commitments. It lets anyone check a share P(x)
// without learning the coefficients.
func VerificationValue(ctx *group.Context, x int, commitments []kyber.Point) kyber.Point {
	// kyber indexes shares from 0 and evaluates share i at i+1.
	pub := share.NewPubPoly(ctx.Suite, nil, commitments)
	return pub.Eval(x - 1).V
}

// CheckShare tells whether value is the evaluation at x of the polynomial
// committed to.
func CheckShare(ctx *group.Context, x int, value kyber.Scalar, commitments []kyber.Point) bool {
	if x <= 0 || len(commitments) == 0 || value == nil {
		return false
	}
	return ctx.GPow(value).Equal(VerificationValue(ctx, x, commitments))
}
