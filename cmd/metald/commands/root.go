package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cfg "github.com/metalledger/metal/config"
	"github.com/metalledger/metal/log"
)

var (
	config = cfg.DefaultConfig()
)

// RootCmd is metald's root command. Every other command is a child of it.
var RootCmd = &cobra.Command{
	Use:          "metald",
	Short:        "Ownership ledger for precious metals",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.Unmarshal(config); err != nil {
			return err
		}
		if err := config.ExpandRoot(); err != nil {
			return err
		}
		log.SetLogLevel(config.LogLevel)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLogs()
	},
}

func init() {
	RootCmd.PersistentFlags().String("log_level", config.LogLevel, "log level (debug, info, warn, error)")
	RootCmd.PersistentFlags().String("party", config.Party, "default party acting on this node")
	viper.BindPFlag("log_level", RootCmd.PersistentFlags().Lookup("log_level"))
	viper.BindPFlag("party", RootCmd.PersistentFlags().Lookup("party"))

	RootCmd.AddCommand(initFilesCmd)
	RootCmd.AddCommand(partyCmd)
	RootCmd.AddCommand(issueCmd)
	RootCmd.AddCommand(transferCmd)
	RootCmd.AddCommand(recordsCmd)
	RootCmd.AddCommand(balanceCmd)
	RootCmd.AddCommand(commitCmd)
	RootCmd.AddCommand(versionCmd)
}
