package node

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	cmn "github.com/tendermint/tmlibs/common"

	"github.com/metalledger/metal/blockchain/pseudohsm"
	"github.com/metalledger/metal/blockchain/txbuilder"
	cfg "github.com/metalledger/metal/config"
	"github.com/metalledger/metal/database"
	"github.com/metalledger/metal/errors"
	"github.com/metalledger/metal/event"
	"github.com/metalledger/metal/identity"
	"github.com/metalledger/metal/protocol"
	"github.com/metalledger/metal/protocol/bc"
	"github.com/metalledger/metal/protocol/state"
)

const (
	logModule = "node"

	journalBuffer = 64
)

// ErrRecordSpent is returned by Transfer for an entry that was already consumed.
var ErrRecordSpent = errors.New("record already spent")

// Node wires the ledger services behind one configuration.
type Node struct {
	config *cfg.Config

	store     *database.Store
	chain     *protocol.Chain
	hsm       *pseudohsm.HSM
	directory *identity.Directory
	feed      *event.Feed

	journal     *event.Subscription
	journalDone sync.WaitGroup

	closeOnce sync.Once
	closeErr  error
}

// NewNode opens the keystore, the party directory and the ledger database
// named by config.
func NewNode(config *cfg.Config) (*Node, error) {
	cmn.EnsureDir(config.KeysDir(), 0700)
	hsm, err := pseudohsm.New(config.KeysDir())
	if err != nil {
		return nil, errors.Wrap(err, "opening keystore")
	}

	directory := identity.NewDirectory()
	if err := directory.Load(config.PartiesPath()); err != nil {
		return nil, err
	}

	if config.DBBackend != database.MemDBBackend {
		cmn.EnsureDir(config.DBDir(), 0700)
	}
	timeout := time.Duration(config.Ledger.OpenTimeout) * time.Second
	db, err := database.Open(config.DBDir(), config.DBBackend, timeout)
	if err != nil {
		return nil, err
	}
	store := database.NewStore(db, config.Ledger.CacheSize)

	feed := event.NewFeed()
	n := &Node{
		config:    config,
		store:     store,
		chain:     protocol.NewChain(store, feed, nil),
		hsm:       hsm,
		directory: directory,
		feed:      feed,
	}
	if n.journal, err = feed.Subscribe(n.touchesLocalKey, journalBuffer); err != nil {
		store.Close()
		return nil, err
	}
	n.journalDone.Add(1)
	go n.journalLoop()

	log.WithFields(log.Fields{"module": logModule, "home": config.RootDir, "parties": len(directory.Parties()), "keys": len(hsm.ListKeys())}).Info("node started")
	return n, nil
}

// Close stops commit delivery, waits for the journal to drain and releases
// the database. Later calls return the first call's result.
func (n *Node) Close() error {
	n.closeOnce.Do(func() {
		n.feed.Stop()
		n.journalDone.Wait()
		n.closeErr = n.store.Close()
	})
	return n.closeErr
}

func (n *Node) Chain() *protocol.Chain         { return n.chain }
func (n *Node) Store() *database.Store         { return n.store }
func (n *Node) HSM() *pseudohsm.HSM            { return n.hsm }
func (n *Node) Directory() *identity.Directory { return n.directory }
func (n *Node) Feed() *event.Feed              { return n.feed }

func (n *Node) touchesLocalKey(c *state.Commit) bool {
	for _, r := range c.Transition.Produced {
		if n.hsm.HasKey(r.Owner.KeyID()) {
			return true
		}
	}
	for _, r := range c.Transition.Consumed {
		if n.hsm.HasKey(r.Owner.KeyID()) {
			return true
		}
	}
	return false
}

// journalLoop logs every record that enters or leaves a locally held key.
func (n *Node) journalLoop() {
	defer n.journalDone.Done()
	for c := range n.journal.Chan() {
		for _, r := range c.Transition.Consumed {
			if n.hsm.HasKey(r.Owner.KeyID()) {
				log.WithFields(log.Fields{"module": logModule, "transition": c.ID.String(), "party": r.Owner.Name, "asset_kind": r.AssetKind, "quantity": r.Quantity}).Info("record sent")
			}
		}
		for i, r := range c.Transition.Produced {
			if !n.hsm.HasKey(r.Owner.KeyID()) {
				continue
			}
			fields := log.Fields{"module": logModule, "transition": c.ID.String(), "party": r.Owner.Name, "asset_kind": r.AssetKind, "quantity": r.Quantity}
			if i < len(c.Outputs) {
				fields["entry"] = c.Outputs[i].String()
			}
			log.WithFields(fields).Info("record received")
		}
	}
}

// Resolve looks name up in the party directory, then among local keys.
func (n *Node) Resolve(name string) (bc.Party, error) {
	p, err := n.directory.Resolve(name)
	if err == nil {
		return p, nil
	}
	if n.hsm.HasAlias(name) {
		return n.hsm.Party(name)
	}
	return bc.Party{}, err
}

// CreateParty creates a local signing key under alias and registers the
// resulting party in the persisted directory. A name already taken in the
// directory is refused before any key is written, and the key is removed
// again if the party cannot be registered.
func (n *Node) CreateParty(alias string) (bc.Party, error) {
	name := pseudohsm.NormalizeAlias(alias)
	if prev, err := n.directory.Resolve(name); err == nil {
		return bc.Party{}, errors.WithDetailf(identity.ErrConflictingParty, "name %s is bound to key %s", name, prev.KeyID())
	}

	xpub, err := n.hsm.Create(name)
	if err != nil {
		return bc.Party{}, err
	}
	party, err := n.hsm.Party(xpub.Alias)
	if err == nil {
		err = n.AddParty(party)
	}
	if err != nil {
		if delErr := n.hsm.Delete(xpub.Alias); delErr != nil {
			log.WithFields(log.Fields{"module": logModule, "alias": xpub.Alias, "err": delErr}).Error("fail on removing key of unregistered party")
		}
		return bc.Party{}, err
	}
	return party, nil
}

// AddParty registers party and saves the directory. The registration is
// undone when the directory cannot be saved.
func (n *Node) AddParty(party bc.Party) error {
	if _, err := n.directory.Resolve(party.Name); err == nil {
		// already registered; Register decides whether it conflicts
		return n.directory.Register(party)
	}
	if err := n.directory.Register(party); err != nil {
		return err
	}
	if err := n.directory.Save(n.config.PartiesPath()); err != nil {
		n.directory.Unregister(party.Name)
		return errors.Wrap(err, "saving party directory")
	}
	return nil
}

// Issue creates assetKind records owned by owner, signed by the local key
// under issuerAlias.
func (n *Node) Issue(ctx context.Context, assetKind string, quantity uint64, issuerAlias, owner string) (*txbuilder.SubmitResult, error) {
	issuer, err := n.hsm.Party(issuerAlias)
	if err != nil {
		return nil, err
	}
	newOwner, err := n.Resolve(owner)
	if err != nil {
		return nil, err
	}

	tpl, err := txbuilder.BuildIssue(assetKind, quantity, issuer, newOwner)
	if err != nil {
		return nil, err
	}
	return n.signAndSubmit(ctx, tpl)
}

// Transfer moves the record held in entry to newOwner. The current owner's
// key must be local.
func (n *Node) Transfer(ctx context.Context, entryID bc.Hash, newOwner string) (*txbuilder.SubmitResult, error) {
	entry, err := n.chain.GetEntry(&entryID)
	if err != nil {
		return nil, err
	}
	if entry.Spent {
		return nil, errors.WithDetailf(ErrRecordSpent, "entry %s", entryID.String())
	}
	owner, err := n.Resolve(newOwner)
	if err != nil {
		return nil, err
	}

	tpl, err := txbuilder.BuildTransfer(entry.Record, owner)
	if err != nil {
		return nil, err
	}
	return n.signAndSubmit(ctx, tpl)
}

func (n *Node) signAndSubmit(ctx context.Context, tpl *txbuilder.Template) (*txbuilder.SubmitResult, error) {
	if err := txbuilder.Sign(ctx, tpl, n.hsm.Sign); err != nil {
		return nil, err
	}
	return txbuilder.FinalizeTx(ctx, n.chain, tpl)
}
