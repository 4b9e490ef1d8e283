package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/dalyulbam/Class101LLL/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate new key pair",
	Run:   generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func generateRun(cmd *cobra.Command, args []string) {
	path := getPrivateKeyPath()
	if _, err := os.Stat(path); err == nil {
		log.Fatalf("key file %s already exists", path)
	}

	id, err := signature.GenerateIdentity()
	if err != nil {
		log.Fatal(err)
	}

	if err := os.MkdirAll(accountPath, 0o755); err != nil {
		log.Fatal(err)
	}

	if err := signature.SaveIdentity(path, id); err != nil {
		log.Fatal(err)
	}

	fmt.Println("Key file:", path)
	fmt.Println("Address: ", id.Address)
}
