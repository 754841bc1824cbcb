package protocol

import (
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/metalledger/metal/event"
	"github.com/metalledger/metal/protocol/bc"
	"github.com/metalledger/metal/protocol/state"
)

const logModule = "protocol"

// Chain is a single node ledger. It accepts signed transitions, checks them
// against the ledger's rules and its own record entries, and commits them
// to the store.
type Chain struct {
	mu    sync.Mutex
	store state.Store
	feed  *event.Feed
	clock clockwork.Clock
}

// NewChain returns a new Chain using store as the underlying storage.
// Commits are posted on feed when it is not nil. A nil clock selects the
// wall clock.
func NewChain(store state.Store, feed *event.Feed, clock clockwork.Clock) *Chain {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Chain{
		store: store,
		feed:  feed,
		clock: clock,
	}
}

// GetCommit returns the committed transition with the given id.
func (c *Chain) GetCommit(id *bc.Hash) (*state.Commit, error) {
	return c.store.GetCommit(id)
}

// GetEntry returns the record entry with the given id.
func (c *Chain) GetEntry(id *bc.Hash) (*state.RecordEntry, error) {
	return c.store.GetEntry(id)
}
