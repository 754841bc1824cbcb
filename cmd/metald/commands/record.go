package commands

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/metalledger/metal/errors"
	"github.com/metalledger/metal/protocol/bc"
	"github.com/metalledger/metal/protocol/state"
)

var issuer string

var issueCmd = &cobra.Command{
	Use:   "issue <asset-kind> <quantity> <owner>",
	Short: "Issue a new asset record to owner",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		quantity, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return errors.Wrapf(err, "quantity %q", args[1])
		}
		if issuer == "" {
			issuer = config.Party
		}
		if issuer == "" {
			return ErrNoIssuer
		}

		n, err := openNode()
		if err != nil {
			return err
		}
		defer n.Close()

		result, err := n.Issue(context.Background(), args[0], quantity, issuer, args[2])
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

var transferCmd = &cobra.Command{
	Use:   "transfer <entry-id> <new-owner>",
	Short: "Transfer an owned record entry to a new owner",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var id bc.Hash
		if err := id.UnmarshalText([]byte(args[0])); err != nil {
			return errors.Wrapf(err, "entry id %q", args[0])
		}

		n, err := openNode()
		if err != nil {
			return err
		}
		defer n.Close()

		result, err := n.Transfer(context.Background(), id, args[1])
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

var recordsCmd = &cobra.Command{
	Use:   "records <party>",
	Short: "List the unspent records owned by party",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := openNode()
		if err != nil {
			return err
		}
		defer n.Close()

		owner, err := n.Resolve(args[0])
		if err != nil {
			return err
		}
		entries, err := n.Store().ListUnspent(owner)
		if err != nil {
			return err
		}
		if entries == nil {
			entries = []*state.RecordEntry{}
		}
		return printJSON(entries)
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance <party> <asset-kind>",
	Short: "Sum the unspent quantity of asset-kind owned by party",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := openNode()
		if err != nil {
			return err
		}
		defer n.Close()

		owner, err := n.Resolve(args[0])
		if err != nil {
			return err
		}
		amount, err := n.Store().Balance(owner, args[1])
		if err != nil {
			return err
		}
		return printJSON(map[string]interface{}{"party": owner.Name, "asset_kind": args[1], "amount": amount})
	},
}

var commitCmd = &cobra.Command{
	Use:   "commit <transition-id>",
	Short: "Show a committed transition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var id bc.Hash
		if err := id.UnmarshalText([]byte(args[0])); err != nil {
			return errors.Wrapf(err, "transition id %q", args[0])
		}

		n, err := openNode()
		if err != nil {
			return err
		}
		defer n.Close()

		commit, err := n.Chain().GetCommit(&id)
		if err != nil {
			return err
		}
		return printJSON(commit)
	},
}

func init() {
	issueCmd.Flags().StringVarP(&issuer, "issuer", "i", "", "alias of the local key issuing the record (defaults to the configured party)")
}
