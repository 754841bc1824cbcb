package testutil

import (
	"crypto/sha256"

	"golang.org/x/crypto/ed25519"

	"github.com/metalledger/metal/protocol/bc"
)

// TestIdentity is a party together with its private key, for tests that
// need to produce real signatures.
type TestIdentity struct {
	bc.Party
	PrivateKey ed25519.PrivateKey
}

// Sign signs msg with the identity's private key.
func (ti *TestIdentity) Sign(msg []byte) []byte {
	return ed25519.Sign(ti.PrivateKey, msg)
}

// NewTestIdentity derives a deterministic identity from name so that keys
// are stable across test runs.
func NewTestIdentity(name string) *TestIdentity {
	seed := sha256.Sum256([]byte("metal test identity " + name))
	prv := ed25519.NewKeyFromSeed(seed[:])
	return &TestIdentity{
		Party: bc.Party{
			Name:      name,
			PublicKey: prv.Public().(ed25519.PublicKey),
		},
		PrivateKey: prv,
	}
}

var (
	Mint    = NewTestIdentity("mint")
	TraderA = NewTestIdentity("traderA")
	TraderB = NewTestIdentity("traderB")
)
