package ceremony

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/keyceremony/group"
	"go.dedis.ch/keyceremony/group/elgamal"
	"go.dedis.ch/onet/v3/log"
	"golang.org/x/xerrors"
)

func TestMain(m *testing.M) {
	log.MainTest(m)
}

var tSuite = group.MustContext(group.DefaultSuiteName)

// newTrustees returns n trustees g1..gn with x-coordinates 1..n.
func newTrustees(t *testing.T, ctx *group.Context, n, quorum int) []*LocalTrustee {
	var lts []*LocalTrustee
	for i := 1; i <= n; i++ {
		lt, err := NewTrustee(ctx, fmt.Sprintf("g%d", i), i, quorum)
		require.NoError(t, err)
		lts = append(lts, lt)
	}
	return lts
}

func asTrustees(lts []*LocalTrustee) []Trustee {
	ts := make([]Trustee, len(lts))
	for i, lt := range lts {
		ts[i] = lt
	}
	return ts
}

// exchangeKeys lets every trustee receive the public keys of the others.
func exchangeKeys(t *testing.T, lts []*LocalTrustee) {
	for _, a := range lts {
		for _, b := range lts {
			if a != b {
				require.NoError(t, b.ReceivePublicKeys(a.PublicKeys()))
			}
		}
	}
}

func TestNewTrustee(t *testing.T) {
	lt, err := NewTrustee(tSuite, "g1", 1, 3)
	require.NoError(t, err)
	require.Equal(t, "g1", lt.ID())
	require.Equal(t, 1, lt.XCoordinate())
	require.Equal(t, 3, lt.Quorum())
	require.Equal(t, 3, len(lt.CoefficientCommitments()))
	require.True(t, lt.PublicKey().Equal(lt.CoefficientCommitments()[0]))
	require.True(t, lt.PublicKey().Equal(lt.CoefficientProofs()[0].PublicKey))
	require.NoError(t, lt.PublicKeys().Validate(tSuite))

	_, err = NewTrustee(tSuite, "", 1, 3)
	require.Error(t, err)
	_, err = NewTrustee(tSuite, "g1", 0, 3)
	require.Error(t, err)
	_, err = NewTrustee(tSuite, "g1", 1, 0)
	require.Error(t, err)
}

func TestTrustee_ReceivePublicKeys(t *testing.T) {
	lts := newTrustees(t, tSuite, 2, 2)
	g1, g2 := lts[0], lts[1]

	err := g1.ReceivePublicKeys(g1.PublicKeys())
	require.True(t, xerrors.Is(err, ErrValidation))
	require.True(t, xerrors.Is(g1.ReceivePublicKeys(nil), ErrValidation))

	// Wrong number of proofs.
	other, err := NewTrustee(tSuite, "g3", 3, 3)
	require.NoError(t, err)
	require.True(t, xerrors.Is(g1.ReceivePublicKeys(other.PublicKeys()), ErrValidation))

	// Proofs are bound to their coefficient index.
	pk := g2.PublicKeys()
	pk.CoefficientProofs[0], pk.CoefficientProofs[1] = pk.CoefficientProofs[1], pk.CoefficientProofs[0]
	err = g1.ReceivePublicKeys(pk)
	require.True(t, xerrors.Is(err, ErrValidation))
	require.Contains(t, err.Error(), "[0 1]")
	_, ok := g1.OtherPublicKeys("g2")
	require.False(t, ok)

	// Bundle claiming another x-coordinate.
	pk = g2.PublicKeys()
	pk.GuardianXCoordinate = 5
	require.True(t, xerrors.Is(g1.ReceivePublicKeys(pk), ErrValidation))

	require.NoError(t, g1.ReceivePublicKeys(g2.PublicKeys()))
	require.NoError(t, g1.ReceivePublicKeys(g2.PublicKeys()))
	stored, ok := g1.OtherPublicKeys("g2")
	require.True(t, ok)
	require.True(t, stored.Equal(g2.PublicKeys()))

	// Another polynomial under the same id is refused.
	impostor, err := NewTrustee(tSuite, "g2", 2, 2)
	require.NoError(t, err)
	require.True(t, xerrors.Is(g1.ReceivePublicKeys(impostor.PublicKeys()), ErrValidation))
}

func TestTrustee_ReceivePublicKeys_SharedX(t *testing.T) {
	lts := newTrustees(t, tSuite, 2, 2)
	g1, g2 := lts[0], lts[1]
	g3, err := NewTrustee(tSuite, "g3", 2, 2)
	require.NoError(t, err)

	require.NoError(t, g1.ReceivePublicKeys(g2.PublicKeys()))
	err = g1.ReceivePublicKeys(g3.PublicKeys())
	require.True(t, xerrors.Is(err, ErrValidation))
	_, ok := g1.OtherPublicKeys("g3")
	require.False(t, ok)
}

func TestTrustee_EncryptedKeyShare(t *testing.T) {
	lts := newTrustees(t, tSuite, 3, 2)
	g1, g2, g3 := lts[0], lts[1], lts[2]

	_, err := g1.EncryptedKeyShareFor("g2")
	require.True(t, xerrors.Is(err, ErrMissingPeer))

	exchangeKeys(t, lts)
	eks, err := g1.EncryptedKeyShareFor("g2")
	require.NoError(t, err)
	require.Equal(t, "g1", eks.OwnerID)
	require.Equal(t, "g2", eks.RecipientID)

	// Cached: same bytes on the second call.
	again, err := g1.EncryptedKeyShareFor("g2")
	require.NoError(t, err)
	require.True(t, eks.EncryptedCoordinate.Equal(again.EncryptedCoordinate))

	// Modifying the returned record does not alter the cache.
	again.EncryptedCoordinate.C1[0] ^= 0xff
	third, err := g1.EncryptedKeyShareFor("g2")
	require.NoError(t, err)
	require.True(t, eks.EncryptedCoordinate.Equal(third.EncryptedCoordinate))

	err = g3.ReceiveEncryptedKeyShare(eks)
	require.True(t, xerrors.Is(err, ErrMisroute))

	require.NoError(t, g2.ReceiveEncryptedKeyShare(eks))
	require.NoError(t, g2.ReceiveEncryptedKeyShare(eks))
	require.Equal(t, []string{"g1"}, g2.AcceptedShareOwners())

	// A ciphertext for another key does not decrypt.
	eks13, err := g1.EncryptedKeyShareFor("g3")
	require.NoError(t, err)
	eks13.RecipientID = "g2"
	eks13.OwnerID = "g3"
	err = g2.ReceiveEncryptedKeyShare(eks13)
	require.True(t, xerrors.Is(err, ErrDecryption))
	require.Equal(t, []string{"g1"}, g2.AcceptedShareOwners())
}

func TestTrustee_ReceiveEncryptedKeyShare_Invalid(t *testing.T) {
	lts := newTrustees(t, tSuite, 2, 2)
	g2 := lts[1]
	exchangeKeys(t, lts)

	// Well encrypted but not on g1's polynomial.
	buf, err := tSuite.RandomScalar().MarshalBinary()
	require.NoError(t, err)
	ct, err := elgamal.EncryptRandom(tSuite, g2.PublicKey(), buf)
	require.NoError(t, err)
	err = g2.ReceiveEncryptedKeyShare(&EncryptedKeyShare{OwnerID: "g1", RecipientID: "g2",
		EncryptedCoordinate: ct})
	require.True(t, xerrors.Is(err, ErrValidation))
	require.Empty(t, g2.AcceptedShareOwners())

	// Owner without public keys.
	ct, err = elgamal.EncryptRandom(tSuite, g2.PublicKey(), buf)
	require.NoError(t, err)
	err = g2.ReceiveEncryptedKeyShare(&EncryptedKeyShare{OwnerID: "g9", RecipientID: "g2",
		EncryptedCoordinate: ct})
	require.True(t, xerrors.Is(err, ErrMissingPeer))

	require.True(t, xerrors.Is(g2.ReceiveEncryptedKeyShare(nil), ErrValidation))
}

func TestTrustee_KeyShare(t *testing.T) {
	lts := newTrustees(t, tSuite, 2, 2)
	g1, g2 := lts[0], lts[1]
	exchangeKeys(t, lts)

	_, err := g1.KeyShareFor("g2")
	require.True(t, xerrors.Is(err, ErrMissingShare))

	// A plaintext share with no encrypted share before it is refused.
	eks, err := g1.EncryptedKeyShareFor("g2")
	require.NoError(t, err)
	ks, err := g1.KeyShareFor("g2")
	require.NoError(t, err)
	require.Equal(t, "g1", ks.OwnerID)
	require.Equal(t, "g2", ks.RecipientID)
	err = g2.ReceiveKeyShare(ks)
	require.True(t, xerrors.Is(err, ErrMissingShare))
	require.Empty(t, g2.AcceptedShareOwners())

	// Corrupted in transit, then repaired by the plaintext.
	eks.EncryptedCoordinate.C2[0] ^= 0xff
	require.True(t, xerrors.Is(g2.ReceiveEncryptedKeyShare(eks), ErrDecryption))
	require.NoError(t, g2.ReceiveKeyShare(ks))
	require.Equal(t, []string{"g1"}, g2.AcceptedShareOwners())

	// The accepted share is re-encrypted with a new nonce.
	st := g2.State()
	require.Equal(t, 1, len(st.Accepted))
	require.False(t, st.Accepted[0].EncryptedCoordinate.C0.Equal(eks.EncryptedCoordinate.C0))

	ks.RecipientID = "g1"
	require.True(t, xerrors.Is(g2.ReceiveKeyShare(ks), ErrMisroute))
}

func TestTrustee_ReceiveKeyShare_WrongNonce(t *testing.T) {
	lts := newTrustees(t, tSuite, 2, 2)
	g1, g2 := lts[0], lts[1]
	exchangeKeys(t, lts)

	eks, err := g1.EncryptedKeyShareFor("g2")
	require.NoError(t, err)
	eks.EncryptedCoordinate.C1[0] ^= 0xff
	require.Error(t, g2.ReceiveEncryptedKeyShare(eks))

	ks, err := g1.KeyShareFor("g2")
	require.NoError(t, err)
	ks.Nonce = tSuite.RandomScalar()
	require.True(t, xerrors.Is(g2.ReceiveKeyShare(ks), ErrValidation))

	// Right nonce but a coordinate off the polynomial.
	ks, err = g1.KeyShareFor("g2")
	require.NoError(t, err)
	ks.Coordinate = tSuite.RandomScalar()
	require.True(t, xerrors.Is(g2.ReceiveKeyShare(ks), ErrValidation))
	require.Empty(t, g2.AcceptedShareOwners())
}
