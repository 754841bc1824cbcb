package state

import (
	"bytes"

	"github.com/metalledger/metal/errors"
	"github.com/metalledger/metal/protocol/bc"
)

// ErrRecordNotFound is returned when a consumed record has no unspent
// ledger entry left to spend.
var ErrRecordNotFound = errors.New("record is not an unspent ledger entry")

// RecordView represents a view into the ledger's record entries
type RecordView struct {
	Entries map[bc.Hash]*RecordEntry
}

// NewRecordView returns a new empty record view.
func NewRecordView() *RecordView {
	return &RecordView{
		Entries: make(map[bc.Hash]*RecordEntry),
	}
}

// HasEntry reports whether the view holds the entry with the given id.
func (view *RecordView) HasEntry(id *bc.Hash) bool {
	_, ok := view.Entries[*id]
	return ok
}

// AddEntries loads store entries into the view. Entries already present are
// kept, so spends applied to the view are not lost.
func (view *RecordView) AddEntries(entries ...*RecordEntry) {
	for _, e := range entries {
		if view.HasEntry(&e.ID) {
			continue
		}
		view.Entries[e.ID] = e
	}
}

// ApplyTransition spends one unspent entry for each consumed record and
// adds an entry for each produced record. Identical records are
// interchangeable, so any matching unspent entry may be spent; the one with
// the lowest id is chosen. It returns the ids of spent and produced entries.
func (view *RecordView) ApplyTransition(id bc.Hash, tx *bc.Transition) (spent, outputs []bc.Hash, err error) {
	for i, consumed := range tx.Consumed {
		entry := view.findUnspent(consumed)
		if entry == nil {
			return nil, nil, errors.WithDetailf(ErrRecordNotFound, "consumed record %d (%s %d owned by %s)", i, consumed.AssetKind, consumed.Quantity, consumed.Owner.Name)
		}
		entry.SpendRecord()
		spent = append(spent, entry.ID)
	}

	for i, produced := range tx.Produced {
		entryID := bc.EntryID(id, uint64(i))
		view.Entries[entryID] = NewRecordEntry(entryID, id, produced)
		outputs = append(outputs, entryID)
	}
	return spent, outputs, nil
}

func (view *RecordView) findUnspent(record *bc.AssetRecord) *RecordEntry {
	if record == nil {
		return nil
	}

	var found *RecordEntry
	for _, entry := range view.Entries {
		if entry.Spent || !entry.Record.Equal(record) {
			continue
		}
		if found == nil || bytes.Compare(entry.ID.Bytes(), found.ID.Bytes()) < 0 {
			found = entry
		}
	}
	return found
}
