package cmd

import (
	"fmt"
	"log"
	"net/http"

	"github.com/dalyulbam/Class101LLL/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

type utxo struct {
	TxID        string  `json:"tx_id"`
	OutputIndex int     `json:"output_index"`
	Amount      float64 `json:"amount"`
}

type balance struct {
	Address     string  `json:"address"`
	Name        string  `json:"name"`
	Balance     float64 `json:"balance"`
	LatestBlock string  `json:"latest_block"`
	Uncommitted int     `json:"uncommitted"`
	UTXOs       []utxo  `json:"utxos"`
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance.",
	Run:   balanceRun,
}

var showUTXOs bool

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().BoolVarP(&showUTXOs, "utxos", "x", false, "List the unspent outputs.")
}

func balanceRun(cmd *cobra.Command, args []string) {
	id, err := signature.LoadIdentity(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	bal, err := queryBalance(id.Address)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("For Address:", bal.Address)
	fmt.Println(bal.Balance)

	if showUTXOs {
		for _, u := range bal.UTXOs {
			fmt.Printf("  %s:%d  %v\n", u.TxID, u.OutputIndex, u.Amount)
		}
	}
}

func queryBalance(address string) (balance, error) {
	var bal balance
	if err := call(http.MethodGet, "/v1/balances/"+address, nil, &bal); err != nil {
		return balance{}, err
	}
	return bal, nil
}
