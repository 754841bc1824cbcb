package commands

import (
	cmn "github.com/tendermint/tmlibs/common"

	"github.com/metalledger/metal/errors"
	"github.com/metalledger/metal/log"
	"github.com/metalledger/metal/node"
)

const logModule = "metald"

// ErrNoIssuer is returned by issue when neither --issuer nor the configured
// party names the issuing key.
var ErrNoIssuer = errors.New("no issuer configured")

// logHook is installed by the first openNode and closed after the command.
var logHook *log.FileHook

func openNode() (*node.Node, error) {
	if logHook == nil {
		cmn.EnsureDir(config.LogDir(), 0700)
		hook, err := log.InitLogFile(config)
		if err != nil {
			return nil, errors.Wrap(err, "initializing log files")
		}
		logHook = hook
	}
	return node.NewNode(config)
}

func closeLogs() error {
	if logHook == nil {
		return nil
	}
	err := logHook.Close()
	logHook = nil
	return err
}
