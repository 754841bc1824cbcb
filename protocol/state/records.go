package state

import (
	"github.com/metalledger/metal/protocol/bc"
)

// RecordEntry is a record as held by the ledger: the produced record plus
// the transition that created it and whether it has been consumed since.
type RecordEntry struct {
	ID           bc.Hash         `json:"id"`
	Record       *bc.AssetRecord `json:"record"`
	TransitionID bc.Hash         `json:"transition_id"`
	Spent        bool            `json:"spent"`
}

// NewRecordEntry will create a new unspent record entry
func NewRecordEntry(id, transitionID bc.Hash, record *bc.AssetRecord) *RecordEntry {
	return &RecordEntry{
		ID:           id,
		Record:       record,
		TransitionID: transitionID,
	}
}

// SpendRecord marks the entry as consumed
func (entry *RecordEntry) SpendRecord() {
	entry.Spent = true
}

// UnspendRecord marks the entry as unconsumed
func (entry *RecordEntry) UnspendRecord() {
	entry.Spent = false
}
