package state

import (
	"time"

	"github.com/metalledger/metal/protocol/bc"
)

// Store provides storage interface for ledger data
type Store interface {
	GetEntry(*bc.Hash) (*RecordEntry, error)
	GetUnspent(recordHash *bc.Hash) ([]*RecordEntry, error)
	GetCommit(*bc.Hash) (*Commit, error)

	SaveView(*RecordView, *Commit) error
}

// Commit is the ledger's account of an accepted transition.
type Commit struct {
	ID         bc.Hash        `json:"id"`
	Transition *bc.Transition `json:"transition"`
	Spent      []bc.Hash      `json:"spent"`
	Outputs    []bc.Hash      `json:"outputs"`
	Timestamp  time.Time      `json:"timestamp"`
}
