package ceremony

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrustee_State(t *testing.T) {
	lts := newTrustees(t, tSuite, 3, 2)
	trustees := asTrustees(lts)
	trustees[1] = &corruptingTrustee{LocalTrustee: lts[1], recipient: "g1"}
	_, err := Exchange(trustees, true)
	require.NoError(t, err)

	g1 := lts[0]
	st := g1.State()
	require.Equal(t, "g1", st.GuardianID)
	require.Equal(t, 2, len(st.Coefficients))
	require.Equal(t, 2, len(st.OtherPublicKeys))
	require.Equal(t, "g2", st.OtherPublicKeys[0].GuardianID)
	require.Equal(t, 2, len(st.Produced))
	require.Equal(t, 2, len(st.Received))
	require.Equal(t, 2, len(st.Accepted))

	restored, err := NewTrusteeFromState(tSuite, st)
	require.NoError(t, err)
	require.Equal(t, g1.ID(), restored.ID())
	require.Equal(t, g1.XCoordinate(), restored.XCoordinate())
	require.True(t, g1.PublicKey().Equal(restored.PublicKey()))
	require.Equal(t, g1.AcceptedShareOwners(), restored.AcceptedShareOwners())

	ks, err := g1.KeyShare()
	require.NoError(t, err)
	rks, err := restored.KeyShare()
	require.NoError(t, err)
	require.True(t, ks.Equal(rks))

	// Produced shares are rebuilt bit for bit.
	for _, id := range []string{"g2", "g3"} {
		eks, err := g1.EncryptedKeyShareFor(id)
		require.NoError(t, err)
		reks, err := restored.EncryptedKeyShareFor(id)
		require.NoError(t, err)
		require.True(t, eks.EncryptedCoordinate.Equal(reks.EncryptedCoordinate))
	}

	// The restored trustee can still serve a fallback.
	rks2, err := restored.KeyShareFor("g2")
	require.NoError(t, err)
	ks2, err := g1.KeyShareFor("g2")
	require.NoError(t, err)
	require.True(t, ks2.Nonce.Equal(rks2.Nonce))
}

func TestNewTrusteeFromState_Invalid(t *testing.T) {
	lts := newTrustees(t, tSuite, 2, 2)
	_, err := Exchange(asTrustees(lts), false)
	require.NoError(t, err)

	st := lts[0].State()
	st.OtherPublicKeys = nil
	_, err = NewTrusteeFromState(tSuite, st)
	require.ErrorIs(t, err, ErrMissingPeer)

	st = lts[0].State()
	st.Coefficients = nil
	_, err = NewTrusteeFromState(tSuite, st)
	require.Error(t, err)

	st = lts[0].State()
	st.Accepted[0].RecipientID = "g2"
	_, err = NewTrusteeFromState(tSuite, st)
	require.ErrorIs(t, err, ErrMisroute)
}
