package txbuilder

import (
	"context"
	"time"

	"github.com/metalledger/metal/errors"
	"github.com/metalledger/metal/protocol/bc"
)

var (
	// ErrMissingSignature means a required signer has not signed yet
	ErrMissingSignature = errors.New("transition is missing a required signature")
	// ErrMissingTransition means the template carries no transition
	ErrMissingTransition = errors.New("missing transition")
)

// SubmitResult describes a transition the ledger accepted.
type SubmitResult struct {
	TransitionID bc.Hash   `json:"transition_id"`
	Outputs      []bc.Hash `json:"outputs"`
	Timestamp    time.Time `json:"timestamp"`
}

// Submitter commits signed transitions to a ledger.
type Submitter interface {
	SubmitTransition(ctx context.Context, tpl *Template) (*SubmitResult, error)
}

// FinalizeTx hands a fully signed template to the submitter. Nothing is
// retried: a rejection is final and returned to the caller.
func FinalizeTx(ctx context.Context, s Submitter, tpl *Template) (*SubmitResult, error) {
	if tpl == nil || tpl.Transition == nil {
		return nil, errors.Wrap(ErrMissingTransition)
	}

	for i, sigInst := range tpl.SigningInstructions {
		if !sigInst.Signed() {
			return nil, errors.WithDetailf(ErrMissingSignature, "instruction %d for %s", i, sigInst.Party.Name)
		}
	}

	result, err := s.SubmitTransition(ctx, tpl)
	if err != nil {
		return nil, errors.Wrap(err, "submitting transition")
	}
	return result, nil
}
