package group

import (
	"crypto/elliptic"
	"math/big"

	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/suites"
	"golang.org/x/xerrors"
)

// Suite is the set of kyber mix-ins the ceremony needs from a group.
type Suite interface {
	kyber.Group
	kyber.Encoding
	kyber.HashFactory
	kyber.XOFFactory
	kyber.Random
}

// DefaultSuiteName is the group used when a configuration does not name one.
const DefaultSuiteName = "Ed25519"

// constantsByName holds the field modulus and the prime order of the
// supported groups. Both are hashed into the election base hash.
var constantsByName = map[string]func() (p, q *big.Int){
	"Ed25519": func() (*big.Int, *big.Int) {
		p := new(big.Int).Lsh(big.NewInt(1), 255)
		p.Sub(p, big.NewInt(19))
		q, _ := new(big.Int).SetString(
			"7237005577332262213973186563042994240857116359379907606001950938285454250989", 10)
		return p, q
	},
	"P256": func() (*big.Int, *big.Int) {
		params := elliptic.P256().Params()
		return params.P, params.N
	},
}

// FindSuite returns the kyber suite registered under name. Only the groups
// whose parameters are known to the ceremony are accepted.
func FindSuite(name string) (Suite, error) {
	if _, ok := constantsByName[name]; !ok {
		return nil, xerrors.Errorf("unsupported group %q", name)
	}
	found, err := suites.Find(name)
	if err != nil {
		return nil, xerrors.Errorf("looking up suite: %v", err)
	}
	s, ok := found.(Suite)
	if !ok {
		return nil, xerrors.Errorf("suite %s misses encoding or hashing", name)
	}
	return s, nil
}
