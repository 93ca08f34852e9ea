// Command custodian-keygen generates owner key pairs offline, so key
// material never has to transit the service.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chainhaven/custodian/common/keys"
)

var asJSON bool

var rootCmd = &cobra.Command{
	Use:   "custodian-keygen",
	Short: "Generate an ed25519 owner key pair",
	Long: `Generates an ed25519 key pair for use as an owner identity.
The public key identifies the owner on the ledger; the private key
authorizes transfers and must be kept secret.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pair, err := keys.Generate()
		if err != nil {
			return err
		}

		if asJSON {
			out, err := json.MarshalIndent(pair, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}

		fmt.Printf("public key:  %s\n", pair.PublicKey)
		fmt.Printf("private key: %s\n", pair.PrivateKey)
		return nil
	},
}

func init() {
	rootCmd.Flags().BoolVar(&asJSON, "json", false, "print the key pair as JSON")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
