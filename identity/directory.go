// Package identity maps party names to the public keys the ledger checks
// signatures against.
package identity

import (
	"bytes"
	"encoding/hex"
	"io/ioutil"
	"os"
	"sort"
	"sync"

	"github.com/BurntSushi/toml"
	"golang.org/x/crypto/ed25519"

	"github.com/metalledger/metal/errors"
	"github.com/metalledger/metal/protocol/bc"
)

var (
	// ErrUnknownParty is returned when a name or key is not registered.
	ErrUnknownParty = errors.New("unknown party")
	// ErrConflictingParty is returned when a registration disagrees with an existing one.
	ErrConflictingParty = errors.New("party conflicts with a registered party")
	// ErrBadParty is returned for parties without a name or a valid key.
	ErrBadParty = errors.New("invalid party")
)

// Resolver turns party names into parties.
type Resolver interface {
	Resolve(name string) (bc.Party, error)
}

// Directory is an in-memory Resolver that can be persisted as TOML.
type Directory struct {
	mu     sync.RWMutex
	byName map[string]bc.Party
	byKey  map[bc.PublicKeyID]bc.Party
}

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		byName: make(map[string]bc.Party),
		byKey:  make(map[bc.PublicKeyID]bc.Party),
	}
}

// Register adds p. Registering the same party twice is a no-op; reusing a
// name or a key for a different party is an error.
func (d *Directory) Register(p bc.Party) error {
	if p.Name == "" {
		return errors.WithDetail(ErrBadParty, "party name is empty")
	}
	if len(p.PublicKey) != ed25519.PublicKeySize {
		return errors.WithDetailf(ErrBadParty, "party %s has a %d byte key", p.Name, len(p.PublicKey))
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if prev, ok := d.byName[p.Name]; ok {
		if prev.Equal(p) {
			return nil
		}
		return errors.WithDetailf(ErrConflictingParty, "name %s is bound to key %s", p.Name, prev.KeyID())
	}
	if prev, ok := d.byKey[p.KeyID()]; ok {
		return errors.WithDetailf(ErrConflictingParty, "key %s belongs to %s", p.KeyID(), prev.Name)
	}

	d.byName[p.Name] = p
	d.byKey[p.KeyID()] = p
	return nil
}

// Unregister drops the party registered under name, if any.
func (d *Directory) Unregister(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.byName[name]; ok {
		delete(d.byName, name)
		delete(d.byKey, p.KeyID())
	}
}

// Resolve returns the party registered under name.
func (d *Directory) Resolve(name string) (bc.Party, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.byName[name]
	if !ok {
		return bc.Party{}, errors.WithDetailf(ErrUnknownParty, "name %q", name)
	}
	return p, nil
}

// ResolveKey returns the party holding keyID.
func (d *Directory) ResolveKey(keyID bc.PublicKeyID) (bc.Party, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.byKey[keyID]
	if !ok {
		return bc.Party{}, errors.WithDetailf(ErrUnknownParty, "key %s", keyID)
	}
	return p, nil
}

// Parties lists every registered party ordered by name.
func (d *Directory) Parties() []bc.Party {
	d.mu.RLock()
	defer d.mu.RUnlock()
	parties := make([]bc.Party, 0, len(d.byName))
	for _, p := range d.byName {
		parties = append(parties, p)
	}
	sort.Slice(parties, func(i, j int) bool { return parties[i].Name < parties[j].Name })
	return parties
}

type partyTOML struct {
	Name      string `toml:"name"`
	PublicKey string `toml:"public_key"`
}

type directoryTOML struct {
	Parties []partyTOML `toml:"party"`
}

// Load registers every party listed in the TOML file at path. A missing
// file leaves the directory unchanged.
func (d *Directory) Load(path string) error {
	var file directoryTOML
	if _, err := toml.DecodeFile(path, &file); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return errors.Wrapf(err, "decoding %s", path)
	}

	for i, pt := range file.Parties {
		pub, err := hex.DecodeString(pt.PublicKey)
		if err != nil {
			return errors.WithDetailf(ErrBadParty, "entry %d of %s: %v", i, path, err)
		}
		if err := d.Register(bc.Party{Name: pt.Name, PublicKey: ed25519.PublicKey(pub)}); err != nil {
			return errors.Wrapf(err, "entry %d of %s", i, path)
		}
	}
	return nil
}

// Save writes the directory to path as TOML.
func (d *Directory) Save(path string) error {
	var file directoryTOML
	for _, p := range d.Parties() {
		file.Parties = append(file.Parties, partyTOML{Name: p.Name, PublicKey: hex.EncodeToString(p.PublicKey)})
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(file); err != nil {
		return errors.Wrap(err, "encoding party directory")
	}
	return ioutil.WriteFile(path, buf.Bytes(), 0644)
}
