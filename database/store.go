package database

import (
	"encoding/json"
	"sync"

	"github.com/holiman/uint256"
	log "github.com/sirupsen/logrus"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/metalledger/metal/errors"
	"github.com/metalledger/metal/protocol/bc"
	"github.com/metalledger/metal/protocol/state"
)

const logModule = "leveldb"

var (
	// ErrNotFound is returned for lookups of ids the ledger never stored.
	ErrNotFound = errors.New("not found in ledger database")
	// ErrBalanceOverflow is returned when a balance does not fit in a uint64.
	ErrBalanceOverflow = errors.New("balance overflows uint64")
)

var (
	entryPrefix   = []byte("RE:")
	unspentPrefix = []byte("RU:")
	ownerPrefix   = []byte("RO:")
	commitPrefix  = []byte("TX:")
)

func calcEntryKey(id *bc.Hash) []byte {
	return append(append([]byte{}, entryPrefix...), id.Bytes()...)
}

func calcUnspentKey(recordHash, id *bc.Hash) []byte {
	key := append(append([]byte{}, unspentPrefix...), recordHash.Bytes()...)
	return append(key, id.Bytes()...)
}

func calcOwnerPrefix(owner bc.PublicKeyID) []byte {
	key := append(append([]byte{}, ownerPrefix...), []byte(owner)...)
	return append(key, ':')
}

func calcOwnerKey(owner bc.PublicKeyID, id *bc.Hash) []byte {
	return append(calcOwnerPrefix(owner), id.Bytes()...)
}

func calcCommitKey(id *bc.Hash) []byte {
	return append(append([]byte{}, commitPrefix...), id.Bytes()...)
}

// A Store encapsulates storage for the ledger's record entries.
// It satisfies the interface state.Store, and provides additional
// methods for querying current data.
//
// Cache fills run under mu's read lock and batch writes under its write
// lock, so a fill that read an entry before a write cannot cache it after.
type Store struct {
	mu    sync.RWMutex
	db    *leveldb.DB
	cache *entryCache
}

// NewStore creates and returns a new Store object. cacheSize bounds the
// number of cached entries; non-positive values select the default.
func NewStore(db *leveldb.DB, cacheSize int) *Store {
	return &Store{
		db: db,
		cache: newEntryCache(cacheSize, func(id *bc.Hash) (*state.RecordEntry, error) {
			return getEntry(db, id)
		}),
	}
}

func getEntry(db *leveldb.DB, id *bc.Hash) (*state.RecordEntry, error) {
	data, err := db.Get(calcEntryKey(id), nil)
	if err == leveldb.ErrNotFound {
		return nil, errors.WithDetailf(ErrNotFound, "entry %s", id)
	} else if err != nil {
		return nil, errors.Wrap(err, "reading record entry")
	}

	entry := &state.RecordEntry{}
	if err := json.Unmarshal(data, entry); err != nil {
		return nil, errors.Wrap(err, "unmarshaling record entry")
	}
	return entry, nil
}

// GetEntry returns a copy of the entry with the given id, spent or not.
func (s *Store) GetEntry(id *bc.Hash) (*state.RecordEntry, error) {
	s.mu.RLock()
	entry, err := s.cache.lookup(id)
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	cp := *entry
	return &cp, nil
}

// GetUnspent returns the unspent entries holding a record with the given hash.
func (s *Store) GetUnspent(recordHash *bc.Hash) ([]*state.RecordEntry, error) {
	prefix := append(append([]byte{}, unspentPrefix...), recordHash.Bytes()...)
	return s.entriesByPrefix(prefix)
}

// ListUnspent returns every unspent entry owned by owner.
func (s *Store) ListUnspent(owner bc.Party) ([]*state.RecordEntry, error) {
	return s.entriesByPrefix(calcOwnerPrefix(owner.KeyID()))
}

// entriesByPrefix resolves index keys whose last 32 bytes are an entry id.
func (s *Store) entriesByPrefix(prefix []byte) ([]*state.RecordEntry, error) {
	var ids []bc.Hash
	iter := s.db.NewIterator(util.BytesPrefix(prefix), nil)
	for iter.Next() {
		key := iter.Key()
		if len(key) < len(prefix)+32 {
			continue
		}

		var id bc.Hash
		copy(id[:], key[len(key)-32:])
		ids = append(ids, id)
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, "iterating record index")
	}

	entries := make([]*state.RecordEntry, 0, len(ids))
	for i := range ids {
		entry, err := s.GetEntry(&ids[i])
		if err != nil {
			return nil, err
		}
		// spent by a write that landed after the index scan
		if entry.Spent {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Balance sums the quantities of owner's unspent records of assetKind.
func (s *Store) Balance(owner bc.Party, assetKind string) (uint64, error) {
	entries, err := s.ListUnspent(owner)
	if err != nil {
		return 0, err
	}

	sum, qty := new(uint256.Int), new(uint256.Int)
	for _, e := range entries {
		if e.Record.AssetKind != assetKind {
			continue
		}
		sum.Add(sum, qty.SetUint64(e.Record.Quantity))
	}
	if !sum.IsUint64() {
		return 0, errors.WithDetailf(ErrBalanceOverflow, "%s balance of %s", assetKind, owner.Name)
	}
	return sum.Uint64(), nil
}

// GetCommit returns the committed transition with the given id.
func (s *Store) GetCommit(id *bc.Hash) (*state.Commit, error) {
	data, err := s.db.Get(calcCommitKey(id), nil)
	if err == leveldb.ErrNotFound {
		return nil, errors.WithDetailf(ErrNotFound, "transition %s", id)
	} else if err != nil {
		return nil, errors.Wrap(err, "reading commit")
	}

	commit := &state.Commit{}
	if err := json.Unmarshal(data, commit); err != nil {
		return nil, errors.Wrap(err, "unmarshaling commit")
	}
	return commit, nil
}

// SaveView persists every entry of view together with commit in a single
// batch, keeping the unspent and owner indexes in step with each entry.
func (s *Store) SaveView(view *state.RecordView, commit *state.Commit) error {
	batch := new(leveldb.Batch)
	if err := saveRecordView(batch, view); err != nil {
		return err
	}

	if commit != nil {
		data, err := json.Marshal(commit)
		if err != nil {
			return errors.Wrap(err, "marshaling commit")
		}
		batch.Put(calcCommitKey(&commit.ID), data)
	}

	s.mu.Lock()
	err := s.db.Write(batch, nil)
	if err == nil {
		for id := range view.Entries {
			s.cache.remove(id)
		}
	}
	s.mu.Unlock()
	if err != nil {
		return errors.Wrap(err, "writing ledger batch")
	}

	if commit != nil {
		log.WithFields(log.Fields{"module": logModule, "id": commit.ID.String(), "entries": len(view.Entries)}).Debug("transition saved on disk")
	}
	return nil
}

func saveRecordView(batch *leveldb.Batch, view *state.RecordView) error {
	for id, entry := range view.Entries {
		id := id
		b, err := json.Marshal(entry)
		if err != nil {
			return errors.Wrap(err, "marshaling record entry")
		}
		batch.Put(calcEntryKey(&id), b)

		recordHash := entry.Record.Hash()
		unspentKey := calcUnspentKey(&recordHash, &id)
		ownerKey := calcOwnerKey(entry.Record.Owner.KeyID(), &id)
		if entry.Spent {
			batch.Delete(unspentKey)
			batch.Delete(ownerKey)
			continue
		}
		batch.Put(unspentKey, nil)
		batch.Put(ownerKey, nil)
	}
	return nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
