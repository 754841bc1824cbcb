// Package txbuilder builds validated transitions ready for signing.
package txbuilder

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/metalledger/metal/errors"
	"github.com/metalledger/metal/protocol/bc"
	"github.com/metalledger/metal/protocol/validation"
)

const logModule = "txbuilder"

// ErrBadParty is returned when a signer or a produced record names a party
// without a name or a well formed key.
var ErrBadParty = errors.New("invalid party")

// BuildIssue prepares the issuance of a new record owned by newOwner. The
// issuer is the only required signer.
func BuildIssue(assetKind string, quantity uint64, issuer, newOwner bc.Party) (*Template, error) {
	record := bc.NewAssetRecord(assetKind, quantity, issuer, newOwner)
	tx := bc.NewTransition(nil, []*bc.AssetRecord{record}, bc.IntentIssue)
	return build(tx, issuer)
}

// BuildTransfer prepares moving existing to newOwner. Everything but the
// owner is carried over, and the current owner is the only required signer.
func BuildTransfer(existing *bc.AssetRecord, newOwner bc.Party) (*Template, error) {
	if existing == nil {
		return nil, errors.WithDetail(validation.ErrUnsupportedAssetKind, "no record to transfer")
	}

	tx := bc.NewTransition(
		[]*bc.AssetRecord{existing},
		[]*bc.AssetRecord{existing.WithOwner(newOwner)},
		bc.IntentTransfer,
	)
	return build(tx, existing.Owner)
}

// build validates tx against exactly the given signers. Rule violations are
// returned unchanged.
func build(tx *bc.Transition, signers ...bc.Party) (*Template, error) {
	if err := checkParties(tx, signers); err != nil {
		return nil, err
	}

	tpl := &Template{Transition: tx}
	for _, p := range signers {
		tpl.SigningInstructions = append(tpl.SigningInstructions, &SigningInstruction{Party: p})
	}

	if err := validation.ValidateTx(tx, tpl.RequiredSignerSet()); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"module": logModule, "intent": tx.Intent.String(), "hash": tpl.Hash().String()}).Debug("transition built")
	return tpl, nil
}

// checkParties rejects malformed parties before the rules run. Two zero
// value parties share the empty key, so one would satisfy the other.
func checkParties(tx *bc.Transition, signers []bc.Party) error {
	for i, p := range signers {
		if !p.IsValid() {
			return errors.WithDetailf(ErrBadParty, "signer %d %q has a %d byte key", i, p.Name, len(p.PublicKey))
		}
	}
	for i, r := range tx.Produced {
		if r == nil {
			continue
		}
		if !r.Issuer.IsValid() {
			return errors.WithDetailf(ErrBadParty, "issuer %q of produced record %d", r.Issuer.Name, i)
		}
		if !r.Owner.IsValid() {
			return errors.WithDetailf(ErrBadParty, "owner %q of produced record %d", r.Owner.Name, i)
		}
	}
	return nil
}

// Sign fills every signing instruction that does not carry a signature yet.
func Sign(ctx context.Context, tpl *Template, signFn SignFunc) error {
	h := tpl.Hash()
	for i, sigInst := range tpl.SigningInstructions {
		if sigInst.Signed() {
			continue
		}

		sig, err := signFn(ctx, sigInst.Party.KeyID(), h)
		if err != nil {
			return errors.WithDetailf(err, "signing instruction %d for %s", i, sigInst.Party.Name)
		}
		sigInst.Signature = sig
	}
	return nil
}
