// Package trusted runs a whole key ceremony in one process. Whoever runs it
// sees the secret polynomial of every guardian, so it only fits tests and
// elections where a single operator is trusted with all the guardians.
package trusted

import (
	"fmt"
	"time"

	"go.dedis.ch/keyceremony/ceremony"
	"go.dedis.ch/keyceremony/election"
	"go.dedis.ch/keyceremony/group"
	"go.dedis.ch/keyceremony/publish"
	"go.dedis.ch/onet/v3/log"
	"golang.org/x/xerrors"
)

// DefaultCreatedBy is recorded when Options.CreatedBy is empty.
const DefaultCreatedBy = "keyceremony trusted run"

// Options tune Run.
type Options struct {
	// CreatedBy names the operator in the record metadata.
	CreatedBy string
	// CreatedFrom names the input the configuration came from.
	CreatedFrom string
	// Strict fails the ceremony on any rejected encrypted share, even one
	// repaired by the plaintext fallback.
	Strict bool
}

// TrusteeID is the id of the i-th guardian, counted from 1, which is also
// its x-coordinate.
func TrusteeID(i int) string {
	return fmt.Sprintf("trustee%d", i)
}

// ErrSharedStore is returned when the private trustees would be written to
// the file of the public election record.
var ErrSharedStore = xerrors.New("private trustees must not be stored with the election record")

// Run creates the guardians of the configuration, runs the ceremony
// between them and writes the election record to record and the private
// trustee states to private. Either store may be nil to skip writing it,
// but they must be different files.
func Run(ctx *group.Context, config *election.Config, record, private *publish.Store,
	opts Options) (*election.ElectionInitialized, error) {
	start := time.Now()
	if record != nil && private != nil &&
		(record == private || record.Path() == private.Path()) {
		return nil, ErrSharedStore
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.GroupName() != ctx.Name() {
		return nil, xerrors.Errorf("config is for group %s, context for %s",
			config.GroupName(), ctx.Name())
	}

	lts := make([]*ceremony.LocalTrustee, config.NumberOfGuardians)
	trustees := make([]ceremony.Trustee, config.NumberOfGuardians)
	for i := range lts {
		lt, err := ceremony.NewTrustee(ctx, TrusteeID(i+1), i+1, config.Quorum)
		if err != nil {
			return nil, err
		}
		lts[i] = lt
		trustees[i] = lt
	}

	results, err := ceremony.Exchange(trustees, !opts.Strict)
	if err != nil {
		return nil, err
	}

	createdBy := opts.CreatedBy
	if createdBy == "" {
		createdBy = DefaultCreatedBy
	}
	var metadata map[string]string
	if opts.CreatedFrom != "" {
		metadata = map[string]string{"CreatedFrom": opts.CreatedFrom}
	}
	ei, err := results.MakeElectionInitialized(ctx, config, createdBy, metadata)
	if err != nil {
		return nil, err
	}

	if record != nil {
		if err := record.WriteElectionInitialized(ei); err != nil {
			return nil, err
		}
	}
	if private != nil {
		for _, lt := range lts {
			if err := private.WriteTrustee(ctx, lt.State()); err != nil {
				return nil, err
			}
		}
	}
	log.Lvlf2("Trusted key ceremony for %d guardians took %s", len(lts), time.Since(start))
	return ei, nil
}
