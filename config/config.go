package config

import (
	"path/filepath"
	"runtime"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	// Top level options use an anonymous struct
	BaseConfig `mapstructure:",squash"`
	// Options for services
	Ledger *LedgerConfig `mapstructure:"ledger"`
}

// Default configurable parameters.
func DefaultConfig() *Config {
	return &Config{
		BaseConfig: DefaultBaseConfig(),
		Ledger:     DefaultLedgerConfig(),
	}
}

// Set the RootDir for all Config structs
func (cfg *Config) SetRoot(root string) *Config {
	cfg.BaseConfig.RootDir = root
	return cfg
}

// ExpandRoot resolves a leading "~" in the root directory.
func (cfg *Config) ExpandRoot() error {
	root, err := homedir.Expand(cfg.RootDir)
	if err != nil {
		return err
	}
	cfg.SetRoot(root)
	return nil
}

//-----------------------------------------------------------------------------
// BaseConfig
type BaseConfig struct {
	// The root directory for all data.
	// This should be set in viper so it can unmarshal into this struct
	RootDir string `mapstructure:"home"`

	// Name of the party this node acts for by default
	Party string `mapstructure:"party"`

	//log level to set
	LogLevel string `mapstructure:"log_level"`

	// log file name
	LogFile string `mapstructure:"log_file"`

	// Days a rotated log file is kept
	LogMaxAge int `mapstructure:"log_max_age"`

	// Database backend: leveldb | memdb
	DBBackend string `mapstructure:"db_backend"`

	// Database directory
	DBPath string `mapstructure:"db_dir"`

	// Keystore directory
	KeysPath string `mapstructure:"keys_dir"`

	// Known parties and their public keys
	PartiesFile string `mapstructure:"parties_file"`
}

// Default configurable base parameters.
func DefaultBaseConfig() BaseConfig {
	return BaseConfig{
		LogLevel:    "info",
		LogFile:     "log",
		LogMaxAge:   7,
		DBBackend:   "leveldb",
		DBPath:      "data",
		KeysPath:    "keystore",
		PartiesFile: "parties.toml",
	}
}

func (b BaseConfig) DBDir() string {
	return rootify(b.DBPath, b.RootDir)
}

func (b BaseConfig) LogDir() string {
	return rootify(b.LogFile, b.RootDir)
}

// LogRetention is LogMaxAge as a duration.
func (b BaseConfig) LogRetention() time.Duration {
	return time.Duration(b.LogMaxAge) * 24 * time.Hour
}

func (b BaseConfig) KeysDir() string {
	return rootify(b.KeysPath, b.RootDir)
}

func (b BaseConfig) PartiesPath() string {
	return rootify(b.PartiesFile, b.RootDir)
}

// LedgerConfig tunes the local ledger store.
type LedgerConfig struct {
	// Seconds to keep retrying a database held by another process
	OpenTimeout int `mapstructure:"open_timeout"`
	// Number of record entries kept in memory
	CacheSize int `mapstructure:"cache_size"`
}

// Default configurable ledger parameters.
func DefaultLedgerConfig() *LedgerConfig {
	return &LedgerConfig{
		OpenTimeout: 10,
		CacheSize:   1000,
	}
}

//-----------------------------------------------------------------------------
// Utils

// helper function to make config creation independent of root dir
func rootify(path, root string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// DefaultDataDir is the default data directory to use for the databases and other
// persistence requirements.
func DefaultDataDir() string {
	home, err := homedir.Dir()
	if err != nil || home == "" {
		log.WithField("err", err).Warning("home directory unavailable, using working directory")
		return "./.metald"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Metald")
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "Metald")
	default:
		return filepath.Join(home, ".metald")
	}
}
