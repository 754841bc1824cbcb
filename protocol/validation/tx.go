package validation

import (
	"github.com/metalledger/metal/consensus"
	"github.com/metalledger/metal/errors"
	"github.com/metalledger/metal/protocol/bc"
)

// rule violations, the closed set of reasons a transition is rejected
var (
	ErrUnexpectedInput       = errors.New("issue transition must not consume records")
	ErrWrongInputCount       = errors.New("transfer transition must consume exactly one record")
	ErrWrongOutputCount      = errors.New("transition must produce exactly one record")
	ErrUnsupportedAssetKind  = errors.New("asset kind is not a supported metal")
	ErrMissingRequiredSigner = errors.New("required signer is missing")
	ErrUnrecognizedIntent    = errors.New("unrecognized transition intent")
)

var ruleViolations = map[error]bool{
	ErrUnexpectedInput:       true,
	ErrWrongInputCount:       true,
	ErrWrongOutputCount:      true,
	ErrUnsupportedAssetKind:  true,
	ErrMissingRequiredSigner: true,
	ErrUnrecognizedIntent:    true,
}

// dataParty is the errors.Data key holding the party a missing-signer
// violation refers to.
const dataParty = "party"

// IsRuleViolation reports whether err rejects a transition, as opposed to
// some other failure.
func IsRuleViolation(err error) bool {
	return ruleViolations[errors.Root(err)]
}

// MissingSigner returns the party whose signature was required but absent.
func MissingSigner(err error) (bc.Party, bool) {
	if errors.Root(err) != ErrMissingRequiredSigner {
		return bc.Party{}, false
	}
	party, ok := errors.Data(err)[dataParty].(bc.Party)
	return party, ok
}

func missingSigner(role string, party bc.Party) error {
	err := errors.WithDetailf(ErrMissingRequiredSigner, "%s %s has to sign", role, party.Name)
	return errors.WithData(err, dataParty, party)
}

// ValidateTx validates a transition against the keys in signers.
func ValidateTx(tx *bc.Transition, signers *bc.SignerSet) error {
	if tx == nil {
		return errors.Wrap(ErrUnrecognizedIntent, "nil transition")
	}
	return Validate(tx.Consumed, tx.Produced, tx.Intent, signers)
}

// Validate decides whether consuming consumed to produce produced under
// intent, signed by signers, is admissible. It returns nil or the first
// rule violation found. Validate has no side effects and may be called
// concurrently.
func Validate(consumed, produced []*bc.AssetRecord, intent bc.Intent, signers *bc.SignerSet) error {
	switch intent {
	case bc.IntentIssue:
		return validateIssue(consumed, produced, signers)

	case bc.IntentTransfer:
		return validateTransfer(consumed, produced, signers)

	default:
		return errors.WithDetailf(ErrUnrecognizedIntent, "intent %s", intent)
	}
}

func validateIssue(consumed, produced []*bc.AssetRecord, signers *bc.SignerSet) error {
	if len(consumed) != 0 {
		return errors.WithDetailf(ErrUnexpectedInput, "issue consumes %d record(s)", len(consumed))
	}
	if len(produced) != 1 {
		return errors.WithDetailf(ErrWrongOutputCount, "issue produces %d record(s)", len(produced))
	}

	output := produced[0]
	if err := checkAssetKind(output); err != nil {
		return errors.Wrap(err, "checking issued record")
	}

	if !signers.Has(output.Issuer.KeyID()) {
		return missingSigner("issuer", output.Issuer)
	}
	return nil
}

// validateTransfer checks the consumed record's kind and owner only. The
// produced record may differ from the consumed one in kind and quantity
// without being rejected.
func validateTransfer(consumed, produced []*bc.AssetRecord, signers *bc.SignerSet) error {
	if len(consumed) != 1 {
		return errors.WithDetailf(ErrWrongInputCount, "transfer consumes %d record(s)", len(consumed))
	}
	if len(produced) != 1 {
		return errors.WithDetailf(ErrWrongOutputCount, "transfer produces %d record(s)", len(produced))
	}

	input := consumed[0]
	if err := checkAssetKind(input); err != nil {
		return errors.Wrap(err, "checking consumed record")
	}

	if !signers.Has(input.Owner.KeyID()) {
		return missingSigner("owner", input.Owner)
	}
	return nil
}

func checkAssetKind(r *bc.AssetRecord) error {
	if r == nil {
		return errors.WithDetail(ErrUnsupportedAssetKind, "record is missing")
	}
	if !consensus.IsSupportedAsset(r.AssetKind) {
		return errors.WithDetailf(ErrUnsupportedAssetKind, "asset kind %q", r.AssetKind)
	}
	return nil
}
