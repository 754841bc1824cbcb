package pseudohsm

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/cespare/cp"
	"golang.org/x/crypto/ed25519"

	"github.com/metalledger/metal/errors"
	"github.com/metalledger/metal/protocol/bc"
)

func newTestHSM(t *testing.T) (*HSM, string) {
	dir, err := ioutil.TempDir("", "pseudohsm")
	if err != nil {
		t.Fatal(err)
	}
	hsm, err := New(dir)
	if err != nil {
		os.RemoveAll(dir)
		t.Fatal(err)
	}
	return hsm, dir
}

func TestPseudoHSMEd25519Keys(t *testing.T) {
	hsm, dir := newTestHSM(t)
	defer os.RemoveAll(dir)

	xpub, err := hsm.Create(" Mint ")
	if err != nil {
		t.Fatal(err)
	}
	if xpub.Alias != "mint" {
		t.Errorf("alias %q, want normalized %q", xpub.Alias, "mint")
	}
	if _, err := os.Stat(xpub.File); err != nil {
		t.Fatalf("key file: %v", err)
	}

	if _, err := hsm.Create("MINT"); errors.Root(err) != ErrDuplicateKeyAlias {
		t.Errorf("duplicate alias: got %v, want %v", err, ErrDuplicateKeyAlias)
	}
	if _, err := hsm.Create("  "); errors.Root(err) != ErrInvalidKeyAlias {
		t.Errorf("empty alias: got %v, want %v", err, ErrInvalidKeyAlias)
	}

	party, err := hsm.Party("mint")
	if err != nil {
		t.Fatal(err)
	}
	if party.Name != "mint" || party.KeyID() != xpub.KeyID {
		t.Errorf("party %s (%s), want mint (%s)", party.Name, party.KeyID(), xpub.KeyID)
	}

	hash := bc.NewHash([32]byte{1, 2, 3})
	sig, err := hsm.Sign(context.Background(), xpub.KeyID, hash)
	if err != nil {
		t.Fatal(err)
	}
	if !ed25519.Verify(party.PublicKey, hash.Bytes(), sig) {
		t.Error("signature does not verify")
	}

	if _, err := hsm.Sign(context.Background(), bc.PublicKeyID("00"), hash); errors.Root(err) != ErrLoadKey {
		t.Errorf("unknown key: got %v, want %v", err, ErrLoadKey)
	}
	if _, err := hsm.Party("nobody"); errors.Root(err) != ErrLoadKey {
		t.Errorf("unknown alias: got %v, want %v", err, ErrLoadKey)
	}
}

func TestSignHonorsContext(t *testing.T) {
	hsm, dir := newTestHSM(t)
	defer os.RemoveAll(dir)

	xpub, err := hsm.Create("traderA")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := hsm.Sign(ctx, xpub.KeyID, bc.Hash{}); err != context.Canceled {
		t.Errorf("got %v, want %v", err, context.Canceled)
	}
}

func TestReloadFromDisk(t *testing.T) {
	hsm, dir := newTestHSM(t)
	defer os.RemoveAll(dir)

	for _, alias := range []string{"traderb", "mint", "tradera"} {
		if _, err := hsm.Create(alias); err != nil {
			t.Fatal(err)
		}
	}
	// noise the scanner must ignore
	if err := ioutil.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := ioutil.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0600); err != nil {
		t.Fatal(err)
	}

	reopened, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	keys := reopened.ListKeys()
	if len(keys) != 3 {
		t.Fatalf("got %d keys, want 3: %v", len(keys), keys)
	}
	for i, want := range []string{"mint", "tradera", "traderb"} {
		if keys[i].Alias != want {
			t.Errorf("key %d alias %q, want %q", i, keys[i].Alias, want)
		}
	}

	orig, _ := hsm.Party("tradera")
	again, err := reopened.Party("tradera")
	if err != nil {
		t.Fatal(err)
	}
	if !orig.Equal(again) {
		t.Errorf("reloaded party %s differs from %s", again, orig)
	}
	if !reopened.HasAlias("TraderA") {
		t.Error("HasAlias should normalize")
	}
}

func TestKeyFileRejectsBadMaterial(t *testing.T) {
	cases := []string{
		`{"id":"not-a-uuid","public_key":"","private_key":"","version":1}`,
		`{"id":"6ba7b810-9dad-11d1-80b4-00c04fd430c8","public_key":"abcd","private_key":"","version":1}`,
		`{"id":"6ba7b810-9dad-11d1-80b4-00c04fd430c8","version":2}`,
	}
	for _, c := range cases {
		k := new(Key)
		if err := k.UnmarshalJSON([]byte(c)); errors.Root(err) != ErrLoadKey {
			t.Errorf("UnmarshalJSON(%s) = %v, want %v", c, err, ErrLoadKey)
		}
	}
}

func TestImportCopiedKeyFile(t *testing.T) {
	hsm, dir := newTestHSM(t)
	defer os.RemoveAll(dir)

	xpub, err := hsm.Create("mint")
	if err != nil {
		t.Fatal(err)
	}

	backup, err := ioutil.TempDir("", "pseudohsm-backup")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(backup)
	if err := cp.CopyFile(filepath.Join(backup, filepath.Base(xpub.File)), xpub.File); err != nil {
		t.Fatal(err)
	}

	restored, err := New(backup)
	if err != nil {
		t.Fatal(err)
	}
	hash := bc.NewHash([32]byte{9})
	sig, err := restored.Sign(context.Background(), xpub.KeyID, hash)
	if err != nil {
		t.Fatal(err)
	}
	party, err := hsm.Party("mint")
	if err != nil {
		t.Fatal(err)
	}
	if !ed25519.Verify(party.PublicKey, hash.Bytes(), sig) {
		t.Error("restored key signs with different material")
	}
}

func TestDeleteKey(t *testing.T) {
	hsm, dir := newTestHSM(t)
	defer os.RemoveAll(dir)

	xpub, err := hsm.Create("vault")
	if err != nil {
		t.Fatal(err)
	}
	if err := hsm.Delete("Vault"); err != nil {
		t.Fatal(err)
	}
	if hsm.HasAlias("vault") {
		t.Error("alias still cached after delete")
	}
	if _, err := os.Stat(xpub.File); !os.IsNotExist(err) {
		t.Errorf("key file still on disk: %v", err)
	}
	if _, err := hsm.Sign(context.Background(), xpub.KeyID, bc.Hash{}); errors.Root(err) != ErrLoadKey {
		t.Errorf("sign with deleted key: got %v, want %v", err, ErrLoadKey)
	}
	if err := hsm.Delete("vault"); errors.Root(err) != ErrLoadKey {
		t.Errorf("second delete: got %v, want %v", err, ErrLoadKey)
	}

	// the alias is free again
	if _, err := hsm.Create("vault"); err != nil {
		t.Fatal(err)
	}
}
