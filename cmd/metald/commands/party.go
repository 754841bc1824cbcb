package commands

import (
	"encoding/hex"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/ed25519"

	"github.com/metalledger/metal/errors"
	"github.com/metalledger/metal/identity"
	"github.com/metalledger/metal/protocol/bc"
)

type partyResp struct {
	Name  string         `json:"name"`
	KeyID bc.PublicKeyID `json:"key_id"`
	Local bool           `json:"local"`
}

var partyCmd = &cobra.Command{
	Use:   "party",
	Short: "Manage ledger parties",
}

var createPartyCmd = &cobra.Command{
	Use:   "create <alias>",
	Short: "Create a signing key and register it as a party",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := openNode()
		if err != nil {
			return err
		}
		defer n.Close()

		party, err := n.CreateParty(args[0])
		if err != nil {
			return err
		}
		return printJSON(partyResp{Name: party.Name, KeyID: party.KeyID(), Local: true})
	},
}

var addPartyCmd = &cobra.Command{
	Use:   "add <name> <public-key>",
	Short: "Register a remote party by its hex encoded public key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pub, err := hex.DecodeString(args[1])
		if err != nil || len(pub) != ed25519.PublicKeySize {
			return errors.WithDetailf(identity.ErrBadParty, "public key %q", args[1])
		}

		n, err := openNode()
		if err != nil {
			return err
		}
		defer n.Close()

		party := bc.Party{Name: args[0], PublicKey: ed25519.PublicKey(pub)}
		if err := n.AddParty(party); err != nil {
			return err
		}
		return printJSON(partyResp{Name: party.Name, KeyID: party.KeyID(), Local: n.HSM().HasAlias(party.Name)})
	},
}

var listPartiesCmd = &cobra.Command{
	Use:   "list",
	Short: "List known parties",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := openNode()
		if err != nil {
			return err
		}
		defer n.Close()

		resp := []partyResp{}
		for _, p := range n.Directory().Parties() {
			resp = append(resp, partyResp{Name: p.Name, KeyID: p.KeyID(), Local: n.HSM().HasAlias(p.Name)})
		}
		return printJSON(resp)
	},
}

func init() {
	partyCmd.AddCommand(createPartyCmd)
	partyCmd.AddCommand(addPartyCmd)
	partyCmd.AddCommand(listPartiesCmd)
}
