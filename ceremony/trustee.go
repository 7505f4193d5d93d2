package ceremony

import (
	"sort"
	"sync"

	"go.dedis.ch/keyceremony/group"
	"go.dedis.ch/keyceremony/group/elgamal"
	"go.dedis.ch/keyceremony/group/schnorr"
	"go.dedis.ch/keyceremony/polynomial"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/onet/v3/log"
	"golang.org/x/xerrors"
)

// Trustee is the protocol surface of a guardian. LocalTrustee implements it
// in process; a remote guardian can be reached through any other
// implementation forwarding the calls.
type Trustee interface {
	ID() string
	XCoordinate() int
	PublicKey() kyber.Point
	CoefficientCommitments() []kyber.Point
	CoefficientProofs() []*schnorr.Proof

	// PublicKeys returns the bundle this guardian sends to every other one.
	PublicKeys() *PublicKeys
	// ReceivePublicKeys validates and stores the bundle of another
	// guardian.
	ReceivePublicKeys(*PublicKeys) error
	// EncryptedKeyShareFor returns the share owed to the recipient,
	// encrypted for it. Repeated calls return the same record.
	EncryptedKeyShareFor(recipientID string) (*EncryptedKeyShare, error)
	// ReceiveEncryptedKeyShare decrypts and verifies a share sent by
	// another guardian.
	ReceiveEncryptedKeyShare(*EncryptedKeyShare) error
	// KeyShareFor reveals the coordinate and nonce of a share produced
	// earlier, for a recipient that rejected the encrypted one.
	KeyShareFor(recipientID string) (*KeyShare, error)
	// ReceiveKeyShare checks a revealed share against the encrypted one
	// received earlier.
	ReceiveKeyShare(*KeyShare) error
}

// LocalTrustee is a guardian holding its secret polynomial in memory. All
// methods are safe for concurrent use.
type LocalTrustee struct {
	ctx  *group.Context
	id   string
	x    int
	poly *polynomial.ElectionPolynomial

	sync.Mutex
	// otherPublicKeys are the bundles of the other guardians, by id.
	otherPublicKeys map[string]*PublicKeys
	// produced are the shares this guardian made for the others, by
	// recipient id, with their plaintext in producedShares.
	produced       map[string]*EncryptedKeyShare
	producedShares map[string]*KeyShare
	// received is the last share each guardian sent, valid or not.
	received map[string]*EncryptedKeyShare
	// accepted are the verified shares, encrypted for this guardian.
	accepted map[string]*EncryptedKeyShare
}

var _ Trustee = (*LocalTrustee)(nil)

// NewTrustee creates a guardian and draws its secret polynomial of degree
// quorum-1.
func NewTrustee(ctx *group.Context, id string, xCoordinate, quorum int) (*LocalTrustee, error) {
	poly, err := polynomial.Generate(ctx, id, xCoordinate, quorum)
	if err != nil {
		return nil, err
	}
	log.Lvlf3("%s: created with x-coordinate %d and quorum %d", id, xCoordinate, quorum)
	return newLocalTrustee(ctx, xCoordinate, poly), nil
}

func newLocalTrustee(ctx *group.Context, xCoordinate int, poly *polynomial.ElectionPolynomial) *LocalTrustee {
	return &LocalTrustee{
		ctx:             ctx,
		id:              poly.GuardianID,
		x:               xCoordinate,
		poly:            poly,
		otherPublicKeys: make(map[string]*PublicKeys),
		produced:        make(map[string]*EncryptedKeyShare),
		producedShares:  make(map[string]*KeyShare),
		received:        make(map[string]*EncryptedKeyShare),
		accepted:        make(map[string]*EncryptedKeyShare),
	}
}

// ID returns the guardian id.
func (t *LocalTrustee) ID() string {
	return t.id
}

// XCoordinate returns the evaluation point of the guardian.
func (t *LocalTrustee) XCoordinate() int {
	return t.x
}

// PublicKey returns K_0, the guardian's election public key.
func (t *LocalTrustee) PublicKey() kyber.Point {
	return t.poly.PublicKey()
}

// CoefficientCommitments returns the commitments to the polynomial.
func (t *LocalTrustee) CoefficientCommitments() []kyber.Point {
	return append([]kyber.Point{}, t.poly.Commitments...)
}

// CoefficientProofs returns the proofs of knowledge of the coefficients.
func (t *LocalTrustee) CoefficientProofs() []*schnorr.Proof {
	return append([]*schnorr.Proof{}, t.poly.Proofs...)
}

// Quorum returns the number of guardians needed to decrypt.
func (t *LocalTrustee) Quorum() int {
	return t.poly.Quorum()
}

// PublicKeys implements Trustee.
func (t *LocalTrustee) PublicKeys() *PublicKeys {
	return &PublicKeys{
		GuardianID:          t.id,
		GuardianXCoordinate: t.x,
		CoefficientProofs:   t.CoefficientProofs(),
	}
}

// ReceivePublicKeys implements Trustee. Nothing is stored unless the whole
// bundle is valid.
func (t *LocalTrustee) ReceivePublicKeys(pk *PublicKeys) error {
	if pk == nil {
		return xerrors.Errorf("%s: nil public keys: %w", t.id, ErrValidation)
	}
	if pk.GuardianID == t.id {
		return xerrors.Errorf("%s: received own public keys: %w", t.id, ErrValidation)
	}
	if pk.GuardianXCoordinate == t.x {
		return xerrors.Errorf("%s: guardian %s uses the same x-coordinate %d: %w",
			t.id, pk.GuardianID, t.x, ErrValidation)
	}
	if len(pk.CoefficientProofs) != t.Quorum() {
		return xerrors.Errorf("%s: guardian %s sent %d proofs, quorum is %d: %w",
			t.id, pk.GuardianID, len(pk.CoefficientProofs), t.Quorum(), ErrValidation)
	}
	if err := pk.Validate(t.ctx); err != nil {
		return xerrors.Errorf("%s: %w", t.id, err)
	}

	t.Lock()
	defer t.Unlock()
	if known, ok := t.otherPublicKeys[pk.GuardianID]; ok {
		if !known.Equal(pk) {
			return xerrors.Errorf("%s: guardian %s already sent different public keys: %w",
				t.id, pk.GuardianID, ErrValidation)
		}
		return nil
	}
	for id, other := range t.otherPublicKeys {
		if other.GuardianXCoordinate == pk.GuardianXCoordinate {
			return xerrors.Errorf("%s: guardians %s and %s use the same x-coordinate %d: %w",
				t.id, id, pk.GuardianID, pk.GuardianXCoordinate, ErrValidation)
		}
	}
	t.otherPublicKeys[pk.GuardianID] = &PublicKeys{
		GuardianID:          pk.GuardianID,
		GuardianXCoordinate: pk.GuardianXCoordinate,
		CoefficientProofs:   append([]*schnorr.Proof{}, pk.CoefficientProofs...),
	}
	log.Lvlf3("%s: accepted public keys of %s", t.id, pk.GuardianID)
	return nil
}

// OtherPublicKeys returns the bundle received from a guardian, if any.
func (t *LocalTrustee) OtherPublicKeys(guardianID string) (*PublicKeys, bool) {
	t.Lock()
	defer t.Unlock()
	pk, ok := t.otherPublicKeys[guardianID]
	return pk, ok
}

// EncryptedKeyShareFor implements Trustee.
func (t *LocalTrustee) EncryptedKeyShareFor(recipientID string) (*EncryptedKeyShare, error) {
	t.Lock()
	defer t.Unlock()
	if eks, ok := t.produced[recipientID]; ok {
		return eks.Clone(), nil
	}
	peer, ok := t.otherPublicKeys[recipientID]
	if !ok {
		return nil, xerrors.Errorf("%s: no public keys for %s: %w", t.id, recipientID, ErrMissingPeer)
	}

	ks := &KeyShare{
		OwnerID:     t.id,
		RecipientID: recipientID,
		Coordinate:  t.poly.ValueAt(t.ctx, peer.GuardianXCoordinate),
		Nonce:       t.ctx.RandomScalar(),
	}
	eks, err := encryptKeyShare(t.ctx, ks, peer.PublicKey())
	if err != nil {
		return nil, xerrors.Errorf("%s: encrypting share for %s: %v", t.id, recipientID, err)
	}
	t.produced[recipientID] = eks
	t.producedShares[recipientID] = ks
	log.Lvlf3("%s: produced share for %s", t.id, recipientID)
	return eks.Clone(), nil
}

// ReceiveEncryptedKeyShare implements Trustee. The share is stored only if
// it matches the commitments of its owner.
func (t *LocalTrustee) ReceiveEncryptedKeyShare(eks *EncryptedKeyShare) error {
	if eks == nil {
		return xerrors.Errorf("%s: nil share: %w", t.id, ErrValidation)
	}
	if eks.RecipientID != t.id {
		return xerrors.Errorf("%s: share from %s is for %s: %w",
			t.id, eks.OwnerID, eks.RecipientID, ErrMisroute)
	}

	t.Lock()
	defer t.Unlock()
	t.received[eks.OwnerID] = eks.Clone()

	buf, err := eks.EncryptedCoordinate.Decrypt(t.ctx, t.poly.SecretKey())
	if err != nil {
		return xerrors.Errorf("%s: share from %s: %v: %w", t.id, eks.OwnerID, err, ErrDecryption)
	}
	coordinate, err := t.ctx.ScalarFromBytes(buf)
	if err != nil {
		return xerrors.Errorf("%s: share from %s: %v: %w", t.id, eks.OwnerID, err, ErrValidation)
	}
	peer, ok := t.otherPublicKeys[eks.OwnerID]
	if !ok {
		return xerrors.Errorf("%s: no public keys for %s: %w", t.id, eks.OwnerID, ErrMissingPeer)
	}
	if !polynomial.CheckShare(t.ctx, t.x, coordinate, peer.CoefficientCommitments()) {
		return xerrors.Errorf("%s: share from %s does not match its commitments: %w",
			t.id, eks.OwnerID, ErrValidation)
	}

	if prev, ok := t.accepted[eks.OwnerID]; ok && !prev.EncryptedCoordinate.Equal(eks.EncryptedCoordinate) {
		return xerrors.Errorf("%s: already accepted another share from %s: %w",
			t.id, eks.OwnerID, ErrValidation)
	}
	t.accepted[eks.OwnerID] = eks.Clone()
	log.Lvlf3("%s: accepted share from %s", t.id, eks.OwnerID)
	return nil
}

// KeyShareFor implements Trustee.
func (t *LocalTrustee) KeyShareFor(recipientID string) (*KeyShare, error) {
	t.Lock()
	defer t.Unlock()
	ks, ok := t.producedShares[recipientID]
	if !ok {
		return nil, xerrors.Errorf("%s: no share produced for %s: %w", t.id, recipientID, ErrMissingShare)
	}
	c := *ks
	return &c, nil
}

// ReceiveKeyShare implements Trustee. The revealed nonce must reproduce the
// ephemeral element of the encrypted share received before, so the owner
// cannot swap in another value. On success the share is stored encrypted
// for this guardian under a fresh nonce.
func (t *LocalTrustee) ReceiveKeyShare(ks *KeyShare) error {
	if ks == nil {
		return xerrors.Errorf("%s: nil share: %w", t.id, ErrValidation)
	}
	if ks.RecipientID != t.id {
		return xerrors.Errorf("%s: share from %s is for %s: %w",
			t.id, ks.OwnerID, ks.RecipientID, ErrMisroute)
	}
	if ks.Coordinate == nil || ks.Nonce == nil {
		return xerrors.Errorf("%s: incomplete share from %s: %w", t.id, ks.OwnerID, ErrValidation)
	}

	t.Lock()
	defer t.Unlock()
	prior, ok := t.received[ks.OwnerID]
	if !ok {
		return xerrors.Errorf("%s: no encrypted share received from %s: %w",
			t.id, ks.OwnerID, ErrMissingShare)
	}
	peer, ok := t.otherPublicKeys[ks.OwnerID]
	if !ok {
		return xerrors.Errorf("%s: no public keys for %s: %w", t.id, ks.OwnerID, ErrMissingPeer)
	}

	rederived, err := encryptKeyShare(t.ctx, ks, t.PublicKey())
	if err != nil {
		return xerrors.Errorf("%s: re-encrypting share from %s: %v", t.id, ks.OwnerID, err)
	}
	if prior.EncryptedCoordinate == nil || prior.EncryptedCoordinate.C0 == nil ||
		!prior.EncryptedCoordinate.C0.Equal(rederived.EncryptedCoordinate.C0) {
		return xerrors.Errorf("%s: nonce of %s does not match the share received: %w",
			t.id, ks.OwnerID, ErrValidation)
	}
	if !prior.EncryptedCoordinate.Equal(rederived.EncryptedCoordinate) {
		log.Warnf("%s: share received from %s differs from the revealed one", t.id, ks.OwnerID)
	}
	if !polynomial.CheckShare(t.ctx, t.x, ks.Coordinate, peer.CoefficientCommitments()) {
		return xerrors.Errorf("%s: revealed share from %s does not match its commitments: %w",
			t.id, ks.OwnerID, ErrValidation)
	}

	buf, err := ks.Coordinate.MarshalBinary()
	if err != nil {
		return xerrors.Errorf("%s: encoding share from %s: %v", t.id, ks.OwnerID, err)
	}
	ct, err := elgamal.EncryptRandom(t.ctx, t.PublicKey(), buf)
	if err != nil {
		return xerrors.Errorf("%s: re-encrypting share from %s: %v", t.id, ks.OwnerID, err)
	}
	fresh := &EncryptedKeyShare{OwnerID: ks.OwnerID, RecipientID: t.id, EncryptedCoordinate: ct}
	t.accepted[ks.OwnerID] = fresh
	log.Lvlf3("%s: accepted revealed share from %s", t.id, ks.OwnerID)
	return nil
}

// AcceptedShareOwners returns the sorted ids of the guardians whose share
// was accepted.
func (t *LocalTrustee) AcceptedShareOwners() []string {
	t.Lock()
	defer t.Unlock()
	return sortedKeys(t.accepted)
}

// KeyShare returns the guardian's share of the joint secret key: the sum of
// its own polynomial and of every accepted share, all evaluated at its
// x-coordinate. It is what the guardian brings to a decryption.
func (t *LocalTrustee) KeyShare() (kyber.Scalar, error) {
	t.Lock()
	defer t.Unlock()
	sum := t.poly.ValueAt(t.ctx, t.x)
	for _, owner := range sortedKeys(t.accepted) {
		buf, err := t.accepted[owner].EncryptedCoordinate.Decrypt(t.ctx, t.poly.SecretKey())
		if err != nil {
			return nil, xerrors.Errorf("%s: share from %s: %v: %w", t.id, owner, err, ErrDecryption)
		}
		coordinate, err := t.ctx.ScalarFromBytes(buf)
		if err != nil {
			return nil, xerrors.Errorf("%s: share from %s: %v", t.id, owner, err)
		}
		sum.Add(sum, coordinate)
	}
	return sum, nil
}

func encryptKeyShare(ctx *group.Context, ks *KeyShare, public kyber.Point) (*EncryptedKeyShare, error) {
	buf, err := ks.Coordinate.MarshalBinary()
	if err != nil {
		return nil, err
	}
	ct, err := elgamal.Encrypt(ctx, public, buf, ks.Nonce)
	if err != nil {
		return nil, err
	}
	return &EncryptedKeyShare{
		OwnerID:             ks.OwnerID,
		RecipientID:         ks.RecipientID,
		EncryptedCoordinate: ct,
	}, nil
}

func sortedKeys(m map[string]*EncryptedKeyShare) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
