package election

import (
	"sort"

	"go.dedis.ch/keyceremony/group"
	"go.dedis.ch/keyceremony/group/schnorr"
	"go.dedis.ch/keyceremony/polynomial"
	"go.dedis.ch/kyber/v3"
	"golang.org/x/xerrors"
)

// Guardian is the public record of one guardian. It contains no secret.
type Guardian struct {
	GuardianID        string
	XCoordinate       int
	CoefficientProofs []*schnorr.Proof
}

// PublicKey returns the election public key of the guardian.
func (g *Guardian) PublicKey() kyber.Point {
	return g.CoefficientProofs[0].PublicKey
}

// CoefficientCommitments returns the commitments to the coefficients of the
// guardian's polynomial.
func (g *Guardian) CoefficientCommitments() []kyber.Point {
	commitments := make([]kyber.Point, len(g.CoefficientProofs))
	for i, p := range g.CoefficientProofs {
		commitments[i] = p.PublicKey
	}
	return commitments
}

// ElectionInitialized is the public outcome of the key ceremony: the joint
// public key and the hashes every later proof of the election refers to.
type ElectionInitialized struct {
	Config    *Config
	Constants *group.Constants
	// JointPublicKey is the product of the guardians' public keys.
	JointPublicKey kyber.Point
	ManifestHash   []byte
	// BaseHash is Hb, the hash of the parameters of the election.
	BaseHash []byte
	// ExtendedBaseHash is Hbar, Hb extended with the joint key and all
	// commitments.
	ExtendedBaseHash []byte
	// Guardians are sorted by x-coordinate.
	Guardians []*Guardian
	Metadata  map[string]string
}

// BaseHash computes Hb over the group parameters, the number of guardians,
// the quorum and the manifest hash.
func BaseHash(ctx *group.Context, config *Config) group.Digest {
	cst := ctx.Constants()
	return ctx.Hash(nil, group.DomainBaseHash,
		cst.LargePrime, cst.SmallPrime, cst.Generator,
		config.NumberOfGuardians, config.Quorum,
		config.ManifestHash)
}

// ExtendedBaseHash computes Hbar over Hb, the joint public key and every
// coefficient commitment, in the order of the guardians given.
func ExtendedBaseHash(ctx *group.Context, baseHash group.Digest, jointKey kyber.Point,
	guardians []*Guardian) group.Digest {
	var commitments []kyber.Point
	for _, g := range guardians {
		commitments = append(commitments, g.CoefficientCommitments()...)
	}
	return ctx.Hash(nil, group.DomainExtendedBaseHash, baseHash, jointKey, commitments)
}

// JointPublicKey returns the product of the guardians' public keys.
func JointPublicKey(ctx *group.Context, guardians []*Guardian) kyber.Point {
	keys := make([]kyber.Point, len(guardians))
	for i, g := range guardians {
		keys[i] = g.PublicKey()
	}
	return ctx.Product(keys...)
}

// SortGuardians orders guardians by x-coordinate.
func SortGuardians(guardians []*Guardian) {
	sort.SliceStable(guardians, func(i, j int) bool {
		return guardians[i].XCoordinate < guardians[j].XCoordinate
	})
}

// Guardian returns the record of the guardian with the given id, or nil.
func (ei *ElectionInitialized) Guardian(id string) *Guardian {
	for _, g := range ei.Guardians {
		if g.GuardianID == id {
			return g
		}
	}
	return nil
}

// Validate verifies the record as an outside observer would: every proof
// is checked and the joint key and both hashes are recomputed from the
// guardians.
func (ei *ElectionInitialized) Validate(ctx *group.Context) error {
	if ei.Config == nil {
		return xerrors.New("missing config")
	}
	if err := ei.Config.Validate(); err != nil {
		return err
	}
	if ei.Constants == nil || ei.Constants.Name != ctx.Name() {
		return xerrors.Errorf("record is not for group %s", ctx.Name())
	}
	if len(ei.Guardians) != ei.Config.NumberOfGuardians {
		return xerrors.Errorf("record has %d guardians, config %d",
			len(ei.Guardians), ei.Config.NumberOfGuardians)
	}

	seen := make(map[int]bool)
	for i, g := range ei.Guardians {
		if g == nil {
			return xerrors.Errorf("guardian %d is missing", i)
		}
		if i > 0 && ei.Guardians[i-1].XCoordinate >= g.XCoordinate {
			return xerrors.New("guardians are not sorted by distinct x-coordinates")
		}
		if seen[g.XCoordinate] || g.XCoordinate < 1 {
			return xerrors.Errorf("guardian %s has invalid x-coordinate %d", g.GuardianID, g.XCoordinate)
		}
		seen[g.XCoordinate] = true
		if len(g.CoefficientProofs) != ei.Config.Quorum {
			return xerrors.Errorf("guardian %s has %d proofs, quorum is %d",
				g.GuardianID, len(g.CoefficientProofs), ei.Config.Quorum)
		}
		for j, p := range g.CoefficientProofs {
			if p == nil || p.PublicKey == nil {
				return xerrors.Errorf("guardian %s coefficient %d: missing commitment", g.GuardianID, j)
			}
			if err := p.Verify(ctx, polynomial.ProofLabel(g.GuardianID, g.XCoordinate, j)); err != nil {
				return xerrors.Errorf("guardian %s coefficient %d: %v", g.GuardianID, j, err)
			}
		}
	}

	if !group.Digest(ei.ManifestHash).Equal(ei.Config.ManifestHash) {
		return xerrors.New("manifest hash differs from config")
	}
	if ei.JointPublicKey == nil {
		return xerrors.New("missing joint public key")
	}
	joint := JointPublicKey(ctx, ei.Guardians)
	if !joint.Equal(ei.JointPublicKey) {
		return xerrors.New("joint public key is not the product of the guardian keys")
	}
	hb := BaseHash(ctx, ei.Config)
	if !hb.Equal(ei.BaseHash) {
		return xerrors.New("base hash mismatch")
	}
	if !ExtendedBaseHash(ctx, hb, joint, ei.Guardians).Equal(ei.ExtendedBaseHash) {
		return xerrors.New("extended base hash mismatch")
	}
	return nil
}
