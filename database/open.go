package database

import (
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff"
	log "github.com/sirupsen/logrus"
	"github.com/syndtr/goleveldb/leveldb"
	lerrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/metalledger/metal/errors"
	"github.com/metalledger/metal/version"
)

// Supported database backends.
const (
	LevelDBBackend = "leveldb"
	MemDBBackend   = "memdb"
)

const dbName = "ledger.db"

var versionKey = []byte("VERSION")

var (
	// ErrUnknownBackend is returned by Open for backends other than leveldb and memdb.
	ErrUnknownBackend = errors.New("unknown database backend")
	// ErrIncompatibleVersion is returned by Open for databases written by another major version.
	ErrIncompatibleVersion = errors.New("incompatible database version")
)

// Open opens the ledger database in dir. A leveldb database held by another
// process is retried with exponential backoff until timeout elapses. A
// non-positive timeout tries once.
func Open(dir, backend string, timeout time.Duration) (*leveldb.DB, error) {
	switch backend {
	case MemDBBackend:
		db, err := leveldb.Open(storage.NewMemStorage(), nil)
		if err != nil {
			return nil, err
		}
		return db, checkVersion(db)
	case LevelDBBackend:
	default:
		return nil, errors.WithDetailf(ErrUnknownBackend, "backend %q", backend)
	}

	path := filepath.Join(dir, dbName)
	var b backoff.BackOff = &backoff.StopBackOff{}
	if timeout > 0 {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = 50 * time.Millisecond
		eb.MaxElapsedTime = timeout
		b = eb
	}

	var (
		db      *leveldb.DB
		openErr error
	)
	retryErr := backoff.Retry(func() error {
		db, openErr = leveldb.OpenFile(path, &opt.Options{})
		if openErr == nil || lerrors.IsCorrupted(openErr) {
			return nil
		}

		log.WithFields(log.Fields{"module": logModule, "path": path, "err": openErr}).Warn("database unavailable, retrying")
		return openErr
	}, b)
	if retryErr != nil {
		return nil, errors.Wrapf(retryErr, "opening %s", path)
	}
	if openErr != nil {
		return nil, errors.Wrapf(openErr, "opening %s", path)
	}

	if err := checkVersion(db); err != nil {
		db.Close()
		return nil, err
	}

	log.WithFields(log.Fields{"module": logModule, "path": path}).Info("database opened")
	return db, nil
}

// checkVersion stamps a fresh database with the running version and refuses
// databases written by an incompatible one.
func checkVersion(db *leveldb.DB) error {
	stored, err := db.Get(versionKey, nil)
	if err == leveldb.ErrNotFound {
		return db.Put(versionKey, []byte(version.Version), nil)
	} else if err != nil {
		return errors.Wrap(err, "reading database version")
	}

	ok, err := version.CompatibleWith(string(stored))
	if err != nil {
		return errors.Wrapf(err, "parsing database version %q", stored)
	}
	if !ok {
		return errors.WithDetailf(ErrIncompatibleVersion, "database version %s, running %s", stored, version.Version)
	}
	return nil
}
