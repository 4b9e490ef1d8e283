package cmd

import (
	"fmt"
	"log"

	"github.com/dalyulbam/Class101LLL/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Print the address and public key for the specific wallet",
	Run:   addressRun,
}

func init() {
	rootCmd.AddCommand(addressCmd)
}

func addressRun(cmd *cobra.Command, args []string) {
	id, err := signature.LoadIdentity(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("Address:   ", id.Address)
	fmt.Println("Public Key:", id.PublicKeyHex())
}
