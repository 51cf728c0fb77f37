package snapshot

import (
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// Record is one named snapshot slot.
type Record struct {
	ID        string `boltholdKey:"ID"`
	Name      string `boltholdIndex:"Name"`
	CreatedAt int64  `boltholdIndex:"CreatedAt"`
	Objects   int
	Data      []byte
}

// Size is the encoded snapshot size in bytes.
func (r *Record) Size() int {
	return len(r.Data)
}

// Snapshot decodes the stored graph.
func (r *Record) Snapshot() (*Snapshot, error) {
	return Unmarshal(r.Data)
}

// Store keeps named snapshots in a bbolt file.
type Store struct {
	db *bolthold.Store
}

// Open opens or creates the store at path. timeout bounds the wait for the
// file lock.
func Open(path string, timeout time.Duration) (*Store, error) {
	db, err := bolthold.Open(path, 0o644, &bolthold.Options{
		Encoder: cbor.Marshal,
		Decoder: cbor.Unmarshal,
		Options: &bbolt.Options{
			Timeout:      timeout,
			NoGrowSync:   bbolt.DefaultOptions.NoGrowSync,
			FreelistType: bbolt.DefaultOptions.FreelistType,
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "opening snapshot store %s", path)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes snap under name, replacing any previous snapshot of that
// name.
func (s *Store) Save(name string, snap *Snapshot) (*Record, error) {
	data, err := snap.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "encoding snapshot")
	}
	rec := &Record{
		ID:        snap.ID,
		Name:      name,
		CreatedAt: snap.CreatedAt,
		Objects:   len(snap.Objects),
		Data:      data,
	}
	err = s.db.Bolt().Update(func(tx *bbolt.Tx) error {
		if err := s.db.TxDeleteMatching(tx, &Record{}, bolthold.Where("Name").Eq(name)); err != nil {
			return err
		}
		return s.db.TxInsert(tx, rec.ID, rec)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "saving snapshot %s", name)
	}
	return rec, nil
}

// Get returns the snapshot saved under name.
func (s *Store) Get(name string) (*Record, error) {
	var recs []Record
	if err := s.db.Find(&recs, bolthold.Where("Name").Eq(name)); err != nil {
		return nil, errors.Wrapf(err, "finding snapshot %s", name)
	}
	if len(recs) == 0 {
		return nil, errors.Wrapf(bolthold.ErrNotFound, "snapshot %s", name)
	}
	return &recs[0], nil
}

// List returns every record ordered by name.
func (s *Store) List() ([]Record, error) {
	var recs []Record
	if err := s.db.Find(&recs, (&bolthold.Query{}).SortBy("Name")); err != nil {
		return nil, errors.Wrap(err, "listing snapshots")
	}
	return recs, nil
}

// Delete removes the snapshot saved under name.
func (s *Store) Delete(name string) error {
	if err := s.db.DeleteMatching(&Record{}, bolthold.Where("Name").Eq(name)); err != nil {
		return errors.Wrapf(err, "deleting snapshot %s", name)
	}
	return nil
}
