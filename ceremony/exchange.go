package ceremony

import (
	"go.dedis.ch/onet/v3/log"
	"golang.org/x/xerrors"
)

// Stages of the exchange, as reported in an ExchangeError.
const (
	StageStructure  = "structure check"
	StagePublicKeys = "public keys exchange"
	StageShares     = "key shares exchange"
)

type pair struct {
	missing   Trustee
	available Trustee
}

// Exchange runs the key ceremony between the trustees: every guardian
// sends its public keys to every other one, then an encrypted share of its
// polynomial. A pair whose encrypted share is rejected falls back to the
// plaintext share. With allowRecoverableFailure a pair repaired by the
// fallback does not fail the ceremony, otherwise any rejected share does.
//
// The calls are made sequentially, so for every pair the public keys are
// received before any share. On failure the returned error is an
// *ExchangeError listing every unresolved failure.
func Exchange(trustees []Trustee, allowRecoverableFailure bool) (*Results, error) {
	if err := checkStructure(trustees); err != nil {
		return nil, err
	}
	log.Lvl2("Exchanging public keys between", len(trustees), "trustees")
	if err := exchangePublicKeys(trustees); err != nil {
		return nil, err
	}

	log.Lvl2("Exchanging encrypted key shares")
	var failed []pair
	var sharesErrs, fatal []error
	for i, missing := range trustees {
		for j, available := range trustees {
			if i == j {
				continue
			}
			err := exchangeEncryptedShare(missing, available)
			if err == nil {
				continue
			}
			pe := &PairError{Missing: missing.ID(), Available: available.ID(), Err: err}
			if isFatal(err) {
				fatal = append(fatal, pe)
				continue
			}
			sharesErrs = append(sharesErrs, pe)
			failed = append(failed, pair{missing, available})
		}
	}

	var fallbackErrs []error
	if len(failed) > 0 {
		log.Lvl2("Falling back to plaintext shares for", len(failed), "pair(s)")
	}
	for _, p := range failed {
		if err := exchangeKeyShare(p.missing, p.available); err != nil {
			fallbackErrs = append(fallbackErrs, &PairError{
				Missing:   p.missing.ID(),
				Available: p.available.ID(),
				Err:       err,
			})
		}
	}

	if len(fatal) > 0 || len(fallbackErrs) > 0 || !allowRecoverableFailure {
		var all []error
		all = append(all, fatal...)
		all = append(all, sharesErrs...)
		all = append(all, fallbackErrs...)
		if err := collect(StageShares, all...); err != nil {
			return nil, err
		}
	}
	for _, err := range sharesErrs {
		log.Warn("Recovered through plaintext share:", err)
	}

	results := newResults(trustees)
	results.Recovered = sharesErrs
	log.Lvl2("Key ceremony done, joint key", results.JointPublicKey())
	return results, nil
}

// checkStructure fails before any exchange on duplicate ids or
// x-coordinates and on different quorums.
func checkStructure(trustees []Trustee) error {
	if len(trustees) == 0 {
		return collect(StageStructure, xerrors.Errorf("no trustees: %w", ErrStructural))
	}
	var errs []error
	ids := make(map[string]bool)
	xs := make(map[int]string)
	quorum := len(trustees[0].CoefficientCommitments())
	for _, t := range trustees {
		if ids[t.ID()] {
			errs = append(errs, xerrors.Errorf("duplicate guardian id %s: %w", t.ID(), ErrStructural))
		}
		ids[t.ID()] = true
		if other, ok := xs[t.XCoordinate()]; ok {
			errs = append(errs, xerrors.Errorf("guardians %s and %s share x-coordinate %d: %w",
				other, t.ID(), t.XCoordinate(), ErrStructural))
		} else {
			xs[t.XCoordinate()] = t.ID()
		}
		if q := len(t.CoefficientCommitments()); q != quorum {
			errs = append(errs, xerrors.Errorf("guardian %s has quorum %d instead of %d: %w",
				t.ID(), q, quorum, ErrStructural))
		}
	}
	return collect(StageStructure, errs...)
}

func exchangePublicKeys(trustees []Trustee) error {
	var errs []error
	for i, owner := range trustees {
		pk := owner.PublicKeys()
		for j, recipient := range trustees {
			if i == j {
				continue
			}
			if err := recipient.ReceivePublicKeys(pk); err != nil {
				errs = append(errs, &PairError{Missing: owner.ID(), Available: recipient.ID(), Err: err})
			}
		}
	}
	return collect(StagePublicKeys, errs...)
}

func exchangeEncryptedShare(missing, available Trustee) error {
	eks, err := missing.EncryptedKeyShareFor(available.ID())
	if err != nil {
		return err
	}
	return available.ReceiveEncryptedKeyShare(eks)
}

func exchangeKeyShare(missing, available Trustee) error {
	ks, err := missing.KeyShareFor(available.ID())
	if err != nil {
		return err
	}
	return available.ReceiveKeyShare(ks)
}

// isFatal tells whether a share failure is a routing or ordering error,
// which the plaintext fallback cannot repair.
func isFatal(err error) bool {
	return xerrors.Is(err, ErrMisroute) || xerrors.Is(err, ErrMissingPeer) ||
		xerrors.Is(err, ErrMissingShare) || xerrors.Is(err, ErrStructural)
}
