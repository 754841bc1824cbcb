package txbuilder

import (
	"context"

	"github.com/metalledger/metal/protocol/bc"
)

// Template represents a validated transition together with the signatures
// it still needs.
type Template struct {
	Transition          *bc.Transition        `json:"transition"`
	SigningInstructions []*SigningInstruction `json:"signing_instructions"`
}

// Hash return sign hash
func (t *Template) Hash() bc.Hash {
	return t.Transition.SigHash()
}

// RequiredSigners lists the parties that must sign, in instruction order.
func (t *Template) RequiredSigners() []bc.Party {
	parties := make([]bc.Party, 0, len(t.SigningInstructions))
	for _, sigInst := range t.SigningInstructions {
		parties = append(parties, sigInst.Party)
	}
	return parties
}

// RequiredSignerSet is RequiredSigners as a key set.
func (t *Template) RequiredSignerSet() *bc.SignerSet {
	return bc.SignerSetOf(t.RequiredSigners()...)
}

// SigningInstruction names one required signer and holds its signature
// once collected.
type SigningInstruction struct {
	Party     bc.Party `json:"party"`
	Signature []byte   `json:"signature,omitempty"`
}

// Signed reports whether a signature has been attached.
func (si *SigningInstruction) Signed() bool {
	return len(si.Signature) > 0
}

// SignFunc is the function passed into Sign that produces
// a signature for a given key and message hash.
type SignFunc func(ctx context.Context, key bc.PublicKeyID, hash bc.Hash) ([]byte, error)
