package ceremony

import (
	"fmt"
	"strings"

	"golang.org/x/xerrors"
)

var (
	// ErrStructural is returned when the trustees cannot form a ceremony:
	// duplicate ids or x-coordinates, or different quorums.
	ErrStructural = xerrors.New("structural error")
	// ErrValidation is returned for a proof or a share that does not
	// verify, or a bundle of the wrong size.
	ErrValidation = xerrors.New("validation error")
	// ErrMisroute is returned for a message addressed to another guardian.
	ErrMisroute = xerrors.New("message for another guardian")
	// ErrDecryption is returned when a share does not decrypt.
	ErrDecryption = xerrors.New("decryption error")
	// ErrMissingPeer is returned when the public keys of a guardian are
	// needed but were not received yet.
	ErrMissingPeer = xerrors.New("missing public keys")
	// ErrMissingShare is returned when a share is needed but was not
	// produced or received yet.
	ErrMissingShare = xerrors.New("missing key share")
)

// PairError is the failure of the share exchange from Missing, the owner
// of the share, to Available, its recipient.
type PairError struct {
	Missing   string
	Available string
	Err       error
}

func (pe *PairError) Error() string {
	return fmt.Sprintf("%s -> %s: %v", pe.Missing, pe.Available, pe.Err)
}

func (pe *PairError) Unwrap() error {
	return pe.Err
}

// ExchangeError aggregates every error of a failed ceremony.
type ExchangeError struct {
	Stage  string
	Errors []error
}

func (ee *ExchangeError) Error() string {
	lines := make([]string, len(ee.Errors))
	for i, err := range ee.Errors {
		lines[i] = "  " + err.Error()
	}
	return fmt.Sprintf("%s failed with %d error(s):\n%s", ee.Stage, len(ee.Errors),
		strings.Join(lines, "\n"))
}

// Contains tells whether one of the aggregated errors is, or wraps, target.
func (ee *ExchangeError) Contains(target error) bool {
	for _, err := range ee.Errors {
		if xerrors.Is(err, target) {
			return true
		}
	}
	return false
}

// Pairs returns the ordered pairs named by the aggregated errors.
func (ee *ExchangeError) Pairs() [][2]string {
	var pairs [][2]string
	for _, err := range ee.Errors {
		var pe *PairError
		if xerrors.As(err, &pe) {
			pairs = append(pairs, [2]string{pe.Missing, pe.Available})
		}
	}
	return pairs
}

// collect returns nil if every error is nil, else an ExchangeError holding
// all the non-nil ones.
func collect(stage string, errs ...error) error {
	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return &ExchangeError{Stage: stage, Errors: failed}
}
