package commands

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"

	cfg "github.com/metalledger/metal/config"
)

var initFilesCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the ledger home directory",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg.EnsureRoot(config.RootDir)
		log.WithFields(log.Fields{"module": logModule, "home": config.RootDir}).Info("initialized metald")
		jww.FEEDBACK.Printf("initialized %s\n", config.RootDir)
	},
}
