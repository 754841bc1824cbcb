package protocol

import (
	"context"

	"github.com/pborman/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/ed25519"

	"github.com/metalledger/metal/blockchain/txbuilder"
	"github.com/metalledger/metal/errors"
	"github.com/metalledger/metal/protocol/bc"
	"github.com/metalledger/metal/protocol/state"
	"github.com/metalledger/metal/protocol/validation"
)

var (
	// ErrBadSignature is returned when an attached signature does not verify
	ErrBadSignature = errors.New("signature does not verify")
	// ErrRecordNotFound is returned when a consumed record is not an unspent
	// ledger entry, including when it has already been spent
	ErrRecordNotFound = state.ErrRecordNotFound
)

// SubmitTransition verifies and commits a signed template. The signer set
// handed to the validator holds exactly the parties whose signatures
// verify. It satisfies txbuilder.Submitter.
func (c *Chain) SubmitTransition(ctx context.Context, tpl *txbuilder.Template) (*txbuilder.SubmitResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if tpl == nil || tpl.Transition == nil {
		return nil, errors.Wrap(txbuilder.ErrMissingTransition)
	}

	tx := tpl.Transition
	sigHash := tx.SigHash()
	signers, err := verifySignatures(sigHash, tpl.SigningInstructions)
	if err != nil {
		return nil, err
	}

	if err := validation.ValidateTx(tx, signers); err != nil {
		log.WithFields(log.Fields{"module": logModule, "hash": sigHash.String(), "error": err}).Error("transition rejected")
		return nil, errors.Wrap(err, "validating transition")
	}

	commit, err := c.commit(sigHash, tx)
	if err != nil {
		return nil, err
	}

	if c.feed != nil {
		if err := c.feed.Post(commit); err != nil {
			log.WithFields(log.Fields{"module": logModule, "id": commit.ID.String(), "error": err}).Warn("fail on post commit")
		}
	}

	log.WithFields(log.Fields{"module": logModule, "id": commit.ID.String(), "intent": tx.Intent.String(), "outputs": len(commit.Outputs)}).Info("transition committed")
	return &txbuilder.SubmitResult{
		TransitionID: commit.ID,
		Outputs:      commit.Outputs,
		Timestamp:    commit.Timestamp,
	}, nil
}

// commit resolves the consumed records against the store and saves the
// resulting view. Submissions are serialized so a record cannot be spent
// twice.
func (c *Chain) commit(sigHash bc.Hash, tx *bc.Transition) (*state.Commit, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	view := state.NewRecordView()
	for _, consumed := range tx.Consumed {
		h := consumed.Hash()
		entries, err := c.store.GetUnspent(&h)
		if err != nil {
			return nil, errors.Wrap(err, "loading unspent records")
		}
		view.AddEntries(entries...)
	}

	id := bc.NewTransitionID(sigHash, uuid.NewRandom())
	spent, outputs, err := view.ApplyTransition(id, tx)
	if err != nil {
		return nil, errors.Wrap(err, "applying transition")
	}

	commit := &state.Commit{
		ID:         id,
		Transition: tx,
		Spent:      spent,
		Outputs:    outputs,
		Timestamp:  c.clock.Now().UTC(),
	}
	if err := c.store.SaveView(view, commit); err != nil {
		return nil, errors.Wrap(err, "saving transition")
	}
	return commit, nil
}

// verifySignatures collects the keys of every instruction carrying a valid
// signature over sigHash. Any invalid signature rejects the submission.
func verifySignatures(sigHash bc.Hash, instructions []*txbuilder.SigningInstruction) (*bc.SignerSet, error) {
	signers := bc.NewSignerSet()
	for i, sigInst := range instructions {
		if !sigInst.Signed() {
			continue
		}

		pub := sigInst.Party.PublicKey
		if len(pub) != ed25519.PublicKeySize || !ed25519.Verify(pub, sigHash.Bytes(), sigInst.Signature) {
			return nil, errors.WithDetailf(ErrBadSignature, "instruction %d for %s", i, sigInst.Party.Name)
		}
		signers.Add(sigInst.Party.KeyID())
	}
	return signers, nil
}
