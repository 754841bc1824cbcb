package config

import (
	"path"

	cmn "github.com/tendermint/tmlibs/common"
)

// EnsureRoot creates the root and data directories and writes a default
// config file when none exists.
func EnsureRoot(rootDir string) {
	cmn.EnsureDir(rootDir, 0700)
	cmn.EnsureDir(rootDir+"/data", 0700)
	cmn.EnsureDir(rootDir+"/keystore", 0700)

	configFilePath := path.Join(rootDir, "config.toml")

	// Write default config file if missing.
	if !cmn.FileExists(configFilePath) {
		cmn.MustWriteFile(configFilePath, []byte(defaultConfigTmpl), 0644)
	}
}

var defaultConfigTmpl = `# This is a TOML config file.
# For more information, see https://github.com/toml-lang/toml
party = ""
log_level = "info"
log_max_age = 7
db_backend = "leveldb"
parties_file = "parties.toml"

[ledger]
open_timeout = 10
cache_size = 1000
`
