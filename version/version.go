package version

import (
	gover "github.com/hashicorp/go-version"
)

var (
	// The full version string
	Version = "0.1.0"
	// GitCommit is set with --ldflags "-X github.com/metalledger/metal/version.GitCommit=$(git rev-parse HEAD)"
	GitCommit string
)

const revisionLen = 8

func init() {
	if len(GitCommit) >= revisionLen {
		Version += "+" + GitCommit[:revisionLen]
	}
}

// CompatibleWith checks whether data written by version other can be used
// by this build. Versions are compatible when their major versions match.
func CompatibleWith(other string) (bool, error) {
	localVersion, err := gover.NewVersion(Version)
	if err != nil {
		return false, err
	}
	otherVersion, err := gover.NewVersion(other)
	if err != nil {
		return false, err
	}
	return localVersion.Segments()[0] == otherVersion.Segments()[0], nil
}

// Newer reports whether other is a later release than this build.
func Newer(other string) (bool, error) {
	localVersion, err := gover.NewVersion(Version)
	if err != nil {
		return false, err
	}
	otherVersion, err := gover.NewVersion(other)
	if err != nil {
		return false, err
	}
	return otherVersion.GreaterThan(localVersion), nil
}
