// Package pseudohsm provides a pseudo HSM for development environments.
package pseudohsm

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/ed25519"

	"github.com/metalledger/metal/errors"
	"github.com/metalledger/metal/protocol/bc"
)

const logModule = "pseudohsm"

// pre-define errors for supporting the api error formatter
var (
	ErrDuplicateKeyAlias = errors.New("duplicate key alias")
	ErrInvalidKeyAlias   = errors.New("invalid key alias")
	ErrLoadKey           = errors.New("key not found or unreadable")
)

// HSM type for storing pubkey and privatekey
type HSM struct {
	cacheMu sync.Mutex
	keydir  string
	cache   *keyCache
}

// New method for HSM struct
func New(keypath string) (*HSM, error) {
	keydir, err := filepath.Abs(keypath)
	if err != nil {
		return nil, err
	}

	cache := newKeyCache(keydir)
	if err := cache.reload(); err != nil {
		return nil, errors.Wrap(err, "scanning key directory")
	}
	return &HSM{keydir: keydir, cache: cache}, nil
}

// NormalizeAlias returns alias the way the HSM stores it.
func NormalizeAlias(alias string) string {
	return strings.ToLower(strings.TrimSpace(alias))
}

// Create produces a new random key and stores it under alias.
func (h *HSM) Create(alias string) (*XPub, error) {
	h.cacheMu.Lock()
	defer h.cacheMu.Unlock()

	normalizedAlias := NormalizeAlias(alias)
	if normalizedAlias == "" {
		return nil, errors.WithDetail(ErrInvalidKeyAlias, "alias is empty")
	}
	if ok := h.cache.hasAlias(normalizedAlias); ok {
		return nil, errors.WithDetailf(ErrDuplicateKeyAlias, "alias %q", normalizedAlias)
	}

	key, err := newKey(normalizedAlias)
	if err != nil {
		return nil, err
	}
	defer zeroKey(key)

	content, err := json.Marshal(key)
	if err != nil {
		return nil, err
	}
	file := filepath.Join(h.keydir, keyFileName(key.ID.String()))
	if err := writeKeyFile(file, content); err != nil {
		return nil, errors.Wrap(err, "storing keys")
	}

	xpub := XPub{Alias: normalizedAlias, KeyID: key.KeyID(), File: file}
	h.cache.add(xpub)
	log.WithFields(log.Fields{"module": logModule, "alias": normalizedAlias, "key": xpub.KeyID}).Info("created key")
	return &xpub, nil
}

// ListKeys returns a list of all keys from the store, ordered by alias.
func (h *HSM) ListKeys() []XPub {
	return h.cache.keys()
}

// HasAlias check whether the key alias exists
func (h *HSM) HasAlias(alias string) bool {
	return h.cache.hasAlias(NormalizeAlias(alias))
}

// HasKey reports whether the key identified by keyID is stored locally.
func (h *HSM) HasKey(keyID bc.PublicKeyID) bool {
	_, ok := h.cache.findKey(keyID)
	return ok
}

// Party returns the ledger party backed by the key stored under alias.
func (h *HSM) Party(alias string) (bc.Party, error) {
	xpub, ok := h.cache.findAlias(NormalizeAlias(alias))
	if !ok {
		return bc.Party{}, errors.WithDetailf(ErrLoadKey, "alias %q", alias)
	}

	pub, ok := xpub.KeyID.PublicKey()
	if !ok {
		return bc.Party{}, errors.WithDetailf(ErrLoadKey, "bad key id for alias %q", alias)
	}
	return bc.Party{Name: xpub.Alias, PublicKey: pub}, nil
}

// Sign signs hash with the stored key identified by keyID. It satisfies
// txbuilder.SignFunc.
func (h *HSM) Sign(ctx context.Context, keyID bc.PublicKeyID, hash bc.Hash) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	xpub, ok := h.cache.findKey(keyID)
	if !ok {
		return nil, errors.WithDetailf(ErrLoadKey, "key %s", keyID)
	}

	key, err := loadKeyFile(xpub.File)
	if err != nil {
		return nil, errors.Sub(ErrLoadKey, err)
	}
	defer zeroKey(key)

	if key.KeyID() != keyID {
		return nil, errors.WithDetailf(ErrLoadKey, "key file %s does not hold %s", xpub.File, keyID)
	}
	return ed25519.Sign(key.PrivateKey, hash.Bytes()), nil
}

// Delete removes the key stored under alias.
func (h *HSM) Delete(alias string) error {
	h.cacheMu.Lock()
	defer h.cacheMu.Unlock()

	xpub, ok := h.cache.findAlias(NormalizeAlias(alias))
	if !ok {
		return errors.WithDetailf(ErrLoadKey, "alias %q", alias)
	}
	// the file goes first so a reload in between cannot resurrect the entry
	if err := os.Remove(xpub.File); err != nil {
		return errors.Wrap(err, "removing key file")
	}
	h.cache.delete(xpub)
	log.WithFields(log.Fields{"module": logModule, "alias": xpub.Alias, "key": xpub.KeyID}).Info("deleted key")
	return nil
}
