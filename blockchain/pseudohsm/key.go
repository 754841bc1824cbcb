package pseudohsm

import (
	"encoding/hex"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pborman/uuid"
	"golang.org/x/crypto/ed25519"

	"github.com/metalledger/metal/errors"
	"github.com/metalledger/metal/protocol/bc"
)

const (
	version = 1
	keyType = "metal_ed25519"
)

// Key is a stored signing key.
type Key struct {
	ID         uuid.UUID
	KeyType    string
	Alias      string
	PublicKey  ed25519.PublicKey
	PrivateKey ed25519.PrivateKey
}

type keyJSON struct {
	ID         string `json:"id"`
	KeyType    string `json:"key_type"`
	Alias      string `json:"alias"`
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
	Version    int    `json:"version"`
}

// MarshalJSON encodes keys as hex in the on-disk key file format.
func (k *Key) MarshalJSON() ([]byte, error) {
	return json.Marshal(keyJSON{
		ID:         k.ID.String(),
		KeyType:    k.KeyType,
		Alias:      k.Alias,
		PublicKey:  hex.EncodeToString(k.PublicKey),
		PrivateKey: hex.EncodeToString(k.PrivateKey),
		Version:    version,
	})
}

// UnmarshalJSON decodes a key file, rejecting malformed key material.
func (k *Key) UnmarshalJSON(j []byte) error {
	kj := new(keyJSON)
	if err := json.Unmarshal(j, kj); err != nil {
		return err
	}
	if kj.Version != version {
		return errors.WithDetailf(ErrLoadKey, "unsupported key file version %d", kj.Version)
	}

	id := uuid.Parse(kj.ID)
	if id == nil {
		return errors.WithDetailf(ErrLoadKey, "bad key id %q", kj.ID)
	}
	pub, err := hex.DecodeString(kj.PublicKey)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return errors.WithDetail(ErrLoadKey, "bad public key")
	}
	priv, err := hex.DecodeString(kj.PrivateKey)
	if err != nil || len(priv) != ed25519.PrivateKeySize {
		return errors.WithDetail(ErrLoadKey, "bad private key")
	}

	k.ID = id
	k.KeyType = kj.KeyType
	k.Alias = kj.Alias
	k.PublicKey = ed25519.PublicKey(pub)
	k.PrivateKey = ed25519.PrivateKey(priv)
	return nil
}

// KeyID is the identifier signer sets hold for this key.
func (k *Key) KeyID() bc.PublicKeyID {
	return bc.NewPublicKeyID(k.PublicKey)
}

func newKey(alias string) (*Key, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, err
	}
	return &Key{
		ID:         uuid.NewRandom(),
		KeyType:    keyType,
		Alias:      alias,
		PublicKey:  pub,
		PrivateKey: priv,
	}, nil
}

func keyFileName(keyID string) string {
	return keyID + ".json"
}

func loadKeyFile(file string) (*Key, error) {
	data, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, err
	}
	key := new(Key)
	if err := json.Unmarshal(data, key); err != nil {
		return nil, errors.Wrapf(err, "loading %s", file)
	}
	return key, nil
}

func writeKeyFile(file string, content []byte) error {
	// Create the keystore directory with appropriate permissions
	// in case it is not present yet.
	const dirPerm = 0700
	if err := os.MkdirAll(filepath.Dir(file), dirPerm); err != nil {
		return err
	}
	// Atomic write: create a temporary hidden file first
	// then move it into place. TempFile assigns mode 0600.
	f, err := ioutil.TempFile(filepath.Dir(file), "."+filepath.Base(file)+".tmp")
	if err != nil {
		return err
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	f.Close()
	return os.Rename(f.Name(), file)
}

func zeroKey(k *Key) {
	for i := range k.PrivateKey {
		k.PrivateKey[i] = 0
	}
}
