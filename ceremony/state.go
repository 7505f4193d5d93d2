package ceremony

import (
	"sort"

	"go.dedis.ch/keyceremony/group"
	"go.dedis.ch/keyceremony/polynomial"
	"go.dedis.ch/kyber/v3"
	"golang.org/x/xerrors"
)

// TrusteeState is the private state of a guardian, handed to the
// decryption once the ceremony is over. It holds the secret coefficients
// and must be stored as such.
type TrusteeState struct {
	GuardianID   string
	XCoordinate  int
	Coefficients []kyber.Scalar
	// OtherPublicKeys are sorted by guardian id, as are the other slices.
	OtherPublicKeys []*PublicKeys
	// Produced are the shares made for the other guardians with their
	// nonces, from which the encrypted records are rebuilt.
	Produced []*KeyShare
	Received []*EncryptedKeyShare
	Accepted []*EncryptedKeyShare
}

// State exports the private state of the trustee.
func (t *LocalTrustee) State() *TrusteeState {
	t.Lock()
	defer t.Unlock()
	st := &TrusteeState{
		GuardianID:  t.id,
		XCoordinate: t.x,
	}
	for _, a := range t.poly.Coefficients {
		st.Coefficients = append(st.Coefficients, a.Clone())
	}
	for _, pk := range t.otherPublicKeys {
		st.OtherPublicKeys = append(st.OtherPublicKeys, pk)
	}
	sort.Slice(st.OtherPublicKeys, func(i, j int) bool {
		return st.OtherPublicKeys[i].GuardianID < st.OtherPublicKeys[j].GuardianID
	})
	for _, id := range sortedKeys(t.produced) {
		ks := *t.producedShares[id]
		st.Produced = append(st.Produced, &ks)
	}
	for _, id := range sortedKeys(t.received) {
		st.Received = append(st.Received, t.received[id].Clone())
	}
	for _, id := range sortedKeys(t.accepted) {
		st.Accepted = append(st.Accepted, t.accepted[id].Clone())
	}
	return st
}

// NewTrusteeFromState restores a trustee from its exported state. The
// commitments are recomputed from the coefficients and the produced shares
// re-encrypted with their original nonces, so the trustee answers exactly
// as before.
func NewTrusteeFromState(ctx *group.Context, st *TrusteeState) (*LocalTrustee, error) {
	poly, err := polynomial.Regenerate(ctx, st.GuardianID, st.XCoordinate, st.Coefficients)
	if err != nil {
		return nil, err
	}
	t := newLocalTrustee(ctx, st.XCoordinate, poly)
	for _, pk := range st.OtherPublicKeys {
		if err := t.ReceivePublicKeys(pk); err != nil {
			return nil, xerrors.Errorf("restoring %s: %w", st.GuardianID, err)
		}
	}
	for _, ks := range st.Produced {
		peer, ok := t.otherPublicKeys[ks.RecipientID]
		if !ok {
			return nil, xerrors.Errorf("restoring %s: no public keys for %s: %w",
				st.GuardianID, ks.RecipientID, ErrMissingPeer)
		}
		eks, err := encryptKeyShare(ctx, ks, peer.PublicKey())
		if err != nil {
			return nil, xerrors.Errorf("restoring %s: %v", st.GuardianID, err)
		}
		c := *ks
		t.producedShares[ks.RecipientID] = &c
		t.produced[ks.RecipientID] = eks
	}
	for _, eks := range st.Received {
		t.received[eks.OwnerID] = eks.Clone()
	}
	for _, eks := range st.Accepted {
		if eks.RecipientID != st.GuardianID {
			return nil, xerrors.Errorf("restoring %s: accepted share for %s: %w",
				st.GuardianID, eks.RecipientID, ErrMisroute)
		}
		t.accepted[eks.OwnerID] = eks.Clone()
	}
	return t, nil
}
