// Package publish stores the outcome of a key ceremony in a bbolt file: the
// public election record and the private state of every trustee.
//
// Records are protobuf-encoded. Group elements and scalars are decoded with
// the constructors of the group of the ceremony, whose name is kept next to
// the records.
package publish

import (
	"encoding/binary"
	"path/filepath"
	"sort"
	"time"

	"go.dedis.ch/keyceremony"
	"go.dedis.ch/keyceremony/ceremony"
	"go.dedis.ch/keyceremony/election"
	"go.dedis.ch/keyceremony/group"
	"go.dedis.ch/onet/v3/log"
	"go.dedis.ch/onet/v3/network"
	"go.dedis.ch/protobuf"
	bbolt "go.etcd.io/bbolt"
	"golang.org/x/xerrors"
)

const dbVersion = 1

var (
	bucketMeta     = []byte("meta")
	bucketElection = []byte("election")
	bucketTrustees = []byte("trustees")

	keyVersion = []byte("version")
	keyGroup   = []byte("group")
	keyRecord  = []byte("initialized")
)

// ErrNotFound is returned when the requested record is not in the store.
var ErrNotFound = xerrors.New("record not found")

// Store is an election record file.
type Store struct {
	db   *bbolt.DB
	path string
}

// Open opens or creates the store at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, keyceremony.Errorf(err, "opening %s", path)
	}
	s := &Store{db: db, path: filepath.Clean(path)}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketMeta, bucketElection, bucketTrustees} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return keyceremony.Errorf(err, "creating bucket %s", name)
			}
		}
		b := tx.Bucket(bucketMeta)
		buf := b.Get(keyVersion)
		if buf == nil {
			buf = make([]byte, 4)
			binary.BigEndian.PutUint32(buf, dbVersion)
			return keyceremony.WrapError(b.Put(keyVersion, buf))
		}
		if len(buf) != 4 {
			return xerrors.New("invalid version entry")
		}
		// Future upgrades of the layout go here.
		if v := binary.BigEndian.Uint32(buf); v > dbVersion {
			return xerrors.Errorf("store version %d is newer than %d", v, dbVersion)
		}
		return nil
	})
}

// Path returns the cleaned path of the store file.
func (s *Store) Path() string {
	return s.path
}

// Close releases the file.
func (s *Store) Close() error {
	return keyceremony.WrapError(s.db.Close())
}

// GroupName returns the name of the group of the stored records.
func (s *Store) GroupName() (string, error) {
	var name string
	err := s.db.View(func(tx *bbolt.Tx) error {
		buf := tx.Bucket(bucketMeta).Get(keyGroup)
		if buf == nil {
			return ErrNotFound
		}
		name = string(buf)
		return nil
	})
	return name, err
}

// setGroup records the group of the store on the first write and refuses
// records of another group afterwards.
func setGroup(tx *bbolt.Tx, name string) error {
	b := tx.Bucket(bucketMeta)
	if buf := b.Get(keyGroup); buf != nil {
		if string(buf) != name {
			return xerrors.Errorf("store holds records of group %s, not %s", buf, name)
		}
		return nil
	}
	return keyceremony.WrapError(b.Put(keyGroup, []byte(name)))
}

func checkGroup(tx *bbolt.Tx, ctx *group.Context) error {
	buf := tx.Bucket(bucketMeta).Get(keyGroup)
	if buf == nil {
		return ErrNotFound
	}
	if string(buf) != ctx.Name() {
		return xerrors.Errorf("store holds records of group %s, not %s", buf, ctx.Name())
	}
	return nil
}

// WriteElectionInitialized stores the election record, replacing any
// previous one.
func (s *Store) WriteElectionInitialized(ei *election.ElectionInitialized) error {
	if ei.Constants == nil {
		return xerrors.New("record without group constants")
	}
	buf, err := protobuf.Encode(ei)
	if err != nil {
		return keyceremony.Errorf(err, "encoding election record")
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		if err := setGroup(tx, ei.Constants.Name); err != nil {
			return err
		}
		return tx.Bucket(bucketElection).Put(keyRecord, buf)
	})
	if err != nil {
		log.Error("Couldn't save election record:", err)
	}
	return err
}

// ReadElectionInitialized returns the stored election record.
func (s *Store) ReadElectionInitialized(ctx *group.Context) (*election.ElectionInitialized, error) {
	var buf []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if err := checkGroup(tx, ctx); err != nil {
			return err
		}
		// bbolt values are only valid during the transaction.
		buf = append(buf, tx.Bucket(bucketElection).Get(keyRecord)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(buf) == 0 {
		return nil, ErrNotFound
	}
	ei := &election.ElectionInitialized{}
	err = protobuf.DecodeWithConstructors(buf, ei, network.DefaultConstructors(ctx.Suite))
	if err != nil {
		return nil, keyceremony.Errorf(err, "decoding election record")
	}
	return ei, nil
}

// WriteTrustee stores the private state of a trustee under its id.
func (s *Store) WriteTrustee(ctx *group.Context, st *ceremony.TrusteeState) error {
	buf, err := protobuf.Encode(st)
	if err != nil {
		return keyceremony.Errorf(err, "encoding trustee %s", st.GuardianID)
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		if err := setGroup(tx, ctx.Name()); err != nil {
			return err
		}
		return tx.Bucket(bucketTrustees).Put([]byte(st.GuardianID), buf)
	})
	if err != nil {
		log.Error("Couldn't save trustee", st.GuardianID, ":", err)
	}
	return err
}

// ReadTrustee returns the private state of the trustee with the given id.
func (s *Store) ReadTrustee(ctx *group.Context, id string) (*ceremony.TrusteeState, error) {
	var buf []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if err := checkGroup(tx, ctx); err != nil {
			return err
		}
		buf = append(buf, tx.Bucket(bucketTrustees).Get([]byte(id))...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(buf) == 0 {
		return nil, xerrors.Errorf("trustee %s: %w", id, ErrNotFound)
	}
	st := &ceremony.TrusteeState{}
	err = protobuf.DecodeWithConstructors(buf, st, network.DefaultConstructors(ctx.Suite))
	if err != nil {
		return nil, keyceremony.Errorf(err, "decoding trustee %s", id)
	}
	return st, nil
}

// TrusteeIDs returns the sorted ids of the stored trustees.
func (s *Store) TrusteeIDs() ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketTrustees).ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	sort.Strings(ids)
	return ids, err
}
