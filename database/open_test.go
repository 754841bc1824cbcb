package database

import (
	"io/ioutil"
	"os"
	"testing"
	"time"

	"github.com/metalledger/metal/errors"
	"github.com/metalledger/metal/version"
)

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open("", "boltdb", time.Second); errors.Root(err) != ErrUnknownBackend {
		t.Fatalf("got %v, want %v", err, ErrUnknownBackend)
	}
}

func TestOpenLevelDB(t *testing.T) {
	dir, err := ioutil.TempDir("", "metal-db")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	db, err := Open(dir, LevelDBBackend, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Put([]byte("k"), []byte("v"), nil); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = Open(dir, LevelDBBackend, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	v, err := db.Get([]byte("k"), nil)
	if err != nil || string(v) != "v" {
		t.Fatalf("Get = %q, %v", v, err)
	}
}

func TestOpenLockedRetriesUntilTimeout(t *testing.T) {
	dir, err := ioutil.TempDir("", "metal-db")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	db, err := Open(dir, LevelDBBackend, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	start := time.Now()
	if _, err := Open(dir, LevelDBBackend, 200*time.Millisecond); err == nil {
		t.Fatal("opened a database already held open")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("gave up after %v", elapsed)
	}
}

func TestOpenRejectsIncompatibleVersion(t *testing.T) {
	dir, err := ioutil.TempDir("", "metal-db")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	db, err := Open(dir, LevelDBBackend, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	stamped, err := db.Get(versionKey, nil)
	if err != nil || string(stamped) != version.Version {
		t.Fatalf("version stamp = %q, %v; want %q", stamped, err, version.Version)
	}
	if err := db.Put(versionKey, []byte("99.0.0"), nil); err != nil {
		t.Fatal(err)
	}
	db.Close()

	if _, err := Open(dir, LevelDBBackend, time.Second); errors.Root(err) != ErrIncompatibleVersion {
		t.Fatalf("got %v, want %v", err, ErrIncompatibleVersion)
	}
}

func TestOpenLockedWithoutTimeoutTriesOnce(t *testing.T) {
	dir, err := ioutil.TempDir("", "metal-db")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	db, err := Open(dir, LevelDBBackend, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	for _, timeout := range []time.Duration{0, -time.Second} {
		done := make(chan error, 1)
		go func() {
			_, err := Open(dir, LevelDBBackend, timeout)
			done <- err
		}()

		select {
		case err := <-done:
			if err == nil {
				t.Fatalf("timeout %v: opened a database already held open", timeout)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timeout %v: still retrying after 5s", timeout)
		}
	}
}
