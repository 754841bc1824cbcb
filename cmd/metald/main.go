package main

import (
	"github.com/tendermint/tmlibs/cli"

	"github.com/metalledger/metal/cmd/metald/commands"
	"github.com/metalledger/metal/config"
)

func main() {
	cmd := cli.PrepareBaseCmd(commands.RootCmd, "METAL", config.DefaultDataDir())
	cmd.Execute()
}
