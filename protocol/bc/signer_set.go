package bc

import (
	"sort"

	"gopkg.in/fatih/set.v0"
)

// SignerSet is the set of keys that have signed, or promised to sign, a
// transition. A nil *SignerSet is an empty set.
type SignerSet struct {
	keys set.Interface
}

// NewSignerSet returns a set holding ids.
func NewSignerSet(ids ...PublicKeyID) *SignerSet {
	s := &SignerSet{keys: set.New(set.ThreadSafe)}
	s.Add(ids...)
	return s
}

// SignerSetOf returns the set of the parties' keys.
func SignerSetOf(parties ...Party) *SignerSet {
	s := NewSignerSet()
	for _, p := range parties {
		s.Add(p.KeyID())
	}
	return s
}

// Add inserts ids into the set.
func (s *SignerSet) Add(ids ...PublicKeyID) {
	if s.keys == nil {
		s.keys = set.New(set.ThreadSafe)
	}
	for _, id := range ids {
		s.keys.Add(id)
	}
}

// Has reports whether id is in the set.
func (s *SignerSet) Has(id PublicKeyID) bool {
	if s == nil || s.keys == nil {
		return false
	}
	return s.keys.Has(id)
}

// Size returns the number of keys in the set.
func (s *SignerSet) Size() int {
	if s == nil || s.keys == nil {
		return 0
	}
	return s.keys.Size()
}

// List returns the keys in ascending order.
func (s *SignerSet) List() []PublicKeyID {
	if s == nil || s.keys == nil {
		return nil
	}
	ids := make([]PublicKeyID, 0, s.keys.Size())
	for _, item := range s.keys.List() {
		ids = append(ids, item.(PublicKeyID))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
