package ceremony

import (
	"sort"
	"time"

	uuid "github.com/satori/go.uuid"
	"go.dedis.ch/keyceremony/election"
	"go.dedis.ch/keyceremony/group"
	"go.dedis.ch/kyber/v3"
	"golang.org/x/xerrors"
)

// Metadata keys added to the election record.
const (
	MetadataCreatedBy  = "CreatedBy"
	MetadataCreatedOn  = "CreatedOn"
	MetadataCeremonyID = "CeremonyID"
)

// Results is the outcome of a successful exchange.
type Results struct {
	// PublicKeys are the bundles of all guardians, sorted by x-coordinate.
	PublicKeys []*PublicKeys
	// Recovered are the share failures repaired by the plaintext fallback.
	Recovered []error
}

func newResults(trustees []Trustee) *Results {
	r := &Results{}
	for _, t := range trustees {
		r.PublicKeys = append(r.PublicKeys, t.PublicKeys())
	}
	sort.SliceStable(r.PublicKeys, func(i, j int) bool {
		return r.PublicKeys[i].GuardianXCoordinate < r.PublicKeys[j].GuardianXCoordinate
	})
	return r
}

// JointPublicKey returns the product of the public keys of all guardians.
func (r *Results) JointPublicKey() kyber.Point {
	joint := r.PublicKeys[0].PublicKey().Clone().Null()
	for _, pk := range r.PublicKeys {
		joint.Add(joint, pk.PublicKey())
	}
	return joint
}

// Guardians returns the public records of the guardians.
func (r *Results) Guardians() []*election.Guardian {
	guardians := make([]*election.Guardian, len(r.PublicKeys))
	for i, pk := range r.PublicKeys {
		guardians[i] = &election.Guardian{
			GuardianID:        pk.GuardianID,
			XCoordinate:       pk.GuardianXCoordinate,
			CoefficientProofs: pk.CoefficientProofs,
		}
	}
	election.SortGuardians(guardians)
	return guardians
}

// MakeElectionInitialized builds the election record from the results: the
// guardian records, the joint key and the base and extended base hashes.
// The metadata given is copied and completed with the creator, the
// creation time and a fresh ceremony id.
func (r *Results) MakeElectionInitialized(ctx *group.Context, config *election.Config,
	createdBy string, metadata map[string]string) (*election.ElectionInitialized, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if len(r.PublicKeys) != config.NumberOfGuardians {
		return nil, xerrors.Errorf("%d guardians took part, config expects %d",
			len(r.PublicKeys), config.NumberOfGuardians)
	}
	for _, pk := range r.PublicKeys {
		if len(pk.CoefficientProofs) != config.Quorum {
			return nil, xerrors.Errorf("guardian %s has quorum %d, config expects %d",
				pk.GuardianID, len(pk.CoefficientProofs), config.Quorum)
		}
	}

	guardians := r.Guardians()
	joint := r.JointPublicKey()
	hb := election.BaseHash(ctx, config)
	meta := make(map[string]string)
	for k, v := range config.Metadata {
		meta[k] = v
	}
	for k, v := range metadata {
		meta[k] = v
	}
	meta[MetadataCreatedBy] = createdBy
	meta[MetadataCreatedOn] = time.Now().UTC().Format(time.RFC3339)
	meta[MetadataCeremonyID] = uuid.NewV4().String()

	return &election.ElectionInitialized{
		Config:           config,
		Constants:        ctx.Constants(),
		JointPublicKey:   joint,
		ManifestHash:     config.ManifestHash,
		BaseHash:         hb,
		ExtendedBaseHash: election.ExtendedBaseHash(ctx, hb, joint, guardians),
		Guardians:        guardians,
		Metadata:         meta,
	}, nil
}
