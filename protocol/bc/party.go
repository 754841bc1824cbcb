package bc

import (
	"bytes"
	"encoding/hex"

	"golang.org/x/crypto/ed25519"
)

// PublicKeyID identifies a signing key. It is the hex encoding of the raw
// ed25519 public key.
type PublicKeyID string

// NewPublicKeyID returns the identifier of pub.
func NewPublicKeyID(pub ed25519.PublicKey) PublicKeyID {
	return PublicKeyID(hex.EncodeToString(pub))
}

// PublicKey decodes the identifier back into a key. It returns false when
// the identifier is not a well formed ed25519 key.
func (id PublicKeyID) PublicKey() (ed25519.PublicKey, bool) {
	b, err := hex.DecodeString(string(id))
	if err != nil || len(b) != ed25519.PublicKeySize {
		return nil, false
	}
	return ed25519.PublicKey(b), true
}

// Party is a ledger participant: a legal name and the key it signs with.
type Party struct {
	Name      string            `json:"name"`
	PublicKey ed25519.PublicKey `json:"public_key"`
}

// KeyID returns the identifier of the party's signing key.
func (p Party) KeyID() PublicKeyID {
	return NewPublicKeyID(p.PublicKey)
}

// Equal reports whether p and q name the same participant with the same key.
func (p Party) Equal(q Party) bool {
	return p.Name == q.Name && bytes.Equal(p.PublicKey, q.PublicKey)
}

// IsValid reports whether p has a name and a well formed ed25519 key.
func (p Party) IsValid() bool {
	return p.Name != "" && len(p.PublicKey) == ed25519.PublicKeySize
}

func (p Party) String() string {
	return p.Name
}

func (p Party) writeTo(hw *hashWriter) {
	hw.writeVarstr([]byte(p.Name))
	hw.writeVarstr(p.PublicKey)
}
