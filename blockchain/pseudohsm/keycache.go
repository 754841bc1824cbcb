package pseudohsm

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/metalledger/metal/protocol/bc"
)

// XPub is the public half of a stored key.
type XPub struct {
	Alias string         `json:"alias"`
	KeyID bc.PublicKeyID `json:"key_id"`
	File  string         `json:"file"`
}

type keysByAlias []XPub

func (s keysByAlias) Len() int           { return len(s) }
func (s keysByAlias) Less(i, j int) bool { return s[i].Alias < s[j].Alias }
func (s keysByAlias) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// keyCache indexes the key files of a directory by alias and key id.
type keyCache struct {
	keydir  string
	mu      sync.Mutex
	byAlias map[string]XPub
	byKeyID map[bc.PublicKeyID]XPub
}

func newKeyCache(keydir string) *keyCache {
	return &keyCache{
		keydir:  keydir,
		byAlias: make(map[string]XPub),
		byKeyID: make(map[bc.PublicKeyID]XPub),
	}
}

func (kc *keyCache) hasAlias(alias string) bool {
	kc.mu.Lock()
	defer kc.mu.Unlock()
	_, ok := kc.byAlias[alias]
	return ok
}

func (kc *keyCache) add(xpub XPub) {
	kc.mu.Lock()
	defer kc.mu.Unlock()
	kc.byAlias[xpub.Alias] = xpub
	kc.byKeyID[xpub.KeyID] = xpub
}

func (kc *keyCache) delete(xpub XPub) {
	kc.mu.Lock()
	defer kc.mu.Unlock()
	delete(kc.byAlias, xpub.Alias)
	delete(kc.byKeyID, xpub.KeyID)
}

func (kc *keyCache) findAlias(alias string) (XPub, bool) {
	kc.mu.Lock()
	defer kc.mu.Unlock()
	xpub, ok := kc.byAlias[alias]
	return xpub, ok
}

func (kc *keyCache) findKey(keyID bc.PublicKeyID) (XPub, bool) {
	kc.mu.Lock()
	defer kc.mu.Unlock()
	xpub, ok := kc.byKeyID[keyID]
	return xpub, ok
}

func (kc *keyCache) keys() []XPub {
	kc.mu.Lock()
	defer kc.mu.Unlock()
	cpy := make([]XPub, 0, len(kc.byAlias))
	for _, xpub := range kc.byAlias {
		cpy = append(cpy, xpub)
	}
	sort.Sort(keysByAlias(cpy))
	return cpy
}

// reload rebuilds the index from the key files on disk.
func (kc *keyCache) reload() error {
	keys, err := kc.scan()
	if err != nil {
		return err
	}

	kc.mu.Lock()
	defer kc.mu.Unlock()
	kc.byAlias = make(map[string]XPub)
	kc.byKeyID = make(map[bc.PublicKeyID]XPub)
	for _, xpub := range keys {
		if prev, ok := kc.byAlias[xpub.Alias]; ok {
			log.WithFields(log.Fields{"module": logModule, "alias": xpub.Alias, "file": xpub.File, "kept": prev.File}).Warn("ignoring key file with duplicate alias")
			continue
		}
		kc.byAlias[xpub.Alias] = xpub
		kc.byKeyID[xpub.KeyID] = xpub
	}
	return nil
}

func (kc *keyCache) scan() ([]XPub, error) {
	files, err := ioutil.ReadDir(kc.keydir)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	var keys []XPub
	for _, fi := range files {
		path := filepath.Join(kc.keydir, fi.Name())
		if skipKeyFile(fi) {
			continue
		}

		key, err := loadKeyFile(path)
		if err != nil {
			log.WithFields(log.Fields{"module": logModule, "file": path, "err": err}).Debug("skipping unreadable key file")
			continue
		}
		keys = append(keys, XPub{Alias: key.Alias, KeyID: key.KeyID(), File: path})
		zeroKey(key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].File < keys[j].File })
	return keys, nil
}

func skipKeyFile(fi os.FileInfo) bool {
	// Skip editor backups and UNIX-style hidden files.
	if strings.HasSuffix(fi.Name(), "~") || strings.HasPrefix(fi.Name(), ".") {
		return true
	}
	// Skip misc special files, directories (yes, symlinks too).
	if fi.IsDir() || fi.Mode()&os.ModeType != 0 {
		return true
	}
	return !strings.HasSuffix(fi.Name(), ".json")
}
