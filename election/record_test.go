package election

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/keyceremony/polynomial"
)

func newTestRecord(t *testing.T, n, quorum int) *ElectionInitialized {
	cfg := &Config{
		Name:              "test",
		NumberOfGuardians: n,
		Quorum:            quorum,
		ManifestHash:      ManifestHash(tSuite, []byte("manifest")),
	}
	var guardians []*Guardian
	// Built in reverse to exercise SortGuardians.
	for x := n; x >= 1; x-- {
		id := "g" + string(rune('0'+x))
		p, err := polynomial.Generate(tSuite, id, x, quorum)
		require.NoError(t, err)
		guardians = append(guardians, &Guardian{
			GuardianID:        id,
			XCoordinate:       x,
			CoefficientProofs: p.Proofs,
		})
	}
	SortGuardians(guardians)

	joint := JointPublicKey(tSuite, guardians)
	hb := BaseHash(tSuite, cfg)
	return &ElectionInitialized{
		Config:           cfg,
		Constants:        tSuite.Constants(),
		JointPublicKey:   joint,
		ManifestHash:     cfg.ManifestHash,
		BaseHash:         hb,
		ExtendedBaseHash: ExtendedBaseHash(tSuite, hb, joint, guardians),
		Guardians:        guardians,
	}
}

func TestElectionInitialized_Validate(t *testing.T) {
	ei := newTestRecord(t, 3, 2)
	require.NoError(t, ei.Validate(tSuite))
	require.Equal(t, 1, ei.Guardians[0].XCoordinate)
	require.Equal(t, "g2", ei.Guardian("g2").GuardianID)
	require.Nil(t, ei.Guardian("g9"))

	ei.JointPublicKey = tSuite.GPow(tSuite.RandomScalar())
	require.Error(t, ei.Validate(tSuite))

	ei = newTestRecord(t, 3, 2)
	ei.BaseHash[0] ^= 1
	require.Error(t, ei.Validate(tSuite))

	ei = newTestRecord(t, 3, 2)
	ei.ExtendedBaseHash[0] ^= 1
	require.Error(t, ei.Validate(tSuite))

	ei = newTestRecord(t, 3, 2)
	ei.Guardians[0], ei.Guardians[1] = ei.Guardians[1], ei.Guardians[0]
	require.Error(t, ei.Validate(tSuite))

	// A proof moved to another guardian does not verify.
	ei = newTestRecord(t, 3, 2)
	ei.Guardians[0].CoefficientProofs[1] = ei.Guardians[1].CoefficientProofs[1]
	require.Error(t, ei.Validate(tSuite))

	ei = newTestRecord(t, 3, 2)
	ei.Guardians = ei.Guardians[:2]
	require.Error(t, ei.Validate(tSuite))

	ei = newTestRecord(t, 3, 2)
	ei.Constants.Name = "P256"
	require.Error(t, ei.Validate(tSuite))
}

// Records read from disk may miss elements; they are refused, not trusted.
func TestElectionInitialized_ValidateIncomplete(t *testing.T) {
	ei := newTestRecord(t, 3, 2)
	ei.JointPublicKey = nil
	require.Error(t, ei.Validate(tSuite))

	ei = newTestRecord(t, 3, 2)
	ei.Guardians[1].CoefficientProofs[0].PublicKey = nil
	require.Error(t, ei.Validate(tSuite))

	ei = newTestRecord(t, 3, 2)
	ei.Guardians[2].CoefficientProofs[1] = nil
	require.Error(t, ei.Validate(tSuite))

	ei = newTestRecord(t, 3, 2)
	ei.Guardians[0] = nil
	require.Error(t, ei.Validate(tSuite))

	ei = newTestRecord(t, 3, 2)
	ei.Config = nil
	require.Error(t, ei.Validate(tSuite))
}

func TestBaseHash(t *testing.T) {
	cfg := &Config{NumberOfGuardians: 3, Quorum: 2,
		ManifestHash: ManifestHash(tSuite, []byte("manifest"))}
	hb := BaseHash(tSuite, cfg)
	require.True(t, hb.Equal(BaseHash(tSuite, cfg)))

	cfg.Quorum = 3
	require.False(t, hb.Equal(BaseHash(tSuite, cfg)))
}

func TestExtendedBaseHash(t *testing.T) {
	ei := newTestRecord(t, 2, 2)
	hbar := ExtendedBaseHash(tSuite, ei.BaseHash, ei.JointPublicKey, ei.Guardians)
	require.True(t, hbar.Equal(ei.ExtendedBaseHash))

	reversed := []*Guardian{ei.Guardians[1], ei.Guardians[0]}
	require.False(t, hbar.Equal(ExtendedBaseHash(tSuite, ei.BaseHash, ei.JointPublicKey, reversed)))
}
