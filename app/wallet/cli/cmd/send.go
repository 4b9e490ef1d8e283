package cmd

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/dalyulbam/Class101LLL/foundation/blockchain/database"
	"github.com/dalyulbam/Class101LLL/foundation/blockchain/selector"
	"github.com/dalyulbam/Class101LLL/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

var (
	to       string
	amount   float64
	fee      float64
	strategy string
)

// sendCmd builds and signs the transaction locally so the private key never
// leaves the wallet.
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send transaction",
	Run: func(cmd *cobra.Command, args []string) {
		id, err := signature.LoadIdentity(getPrivateKeyPath())
		if err != nil {
			log.Fatal(err)
		}

		sendWithDetails(id)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Address receiving the value.")
	sendCmd.Flags().Float64VarP(&amount, "amount", "v", 0, "Value to send.")
	sendCmd.Flags().Float64VarP(&fee, "fee", "f", 0, "Value left unclaimed by the outputs.")
	sendCmd.Flags().StringVarP(&strategy, "strategy", "s", selector.StrategyFirstFit, "Strategy used to pick the utxos to spend.")
	sendCmd.MarkFlagRequired("to")
	sendCmd.MarkFlagRequired("amount")
}

func sendWithDetails(id signature.Identity) {
	bal, err := queryBalance(id.Address)
	if err != nil {
		log.Fatal(err)
	}

	owned := make([]database.UTXO, len(bal.UTXOs))
	for i, u := range bal.UTXOs {
		owned[i] = database.UTXO{
			TxID:        u.TxID,
			OutputIndex: u.OutputIndex,
			Amount:      u.Amount,
			Address:     id.Address,
		}
	}

	tx, err := buildTx(id, owned, to, amount, fee, strategy)
	if err != nil {
		log.Fatal(err)
	}

	var resp struct {
		Status  string  `json:"status"`
		TxID    string  `json:"tx_id"`
		Fee     float64 `json:"fee"`
		Pending int     `json:"pending"`
	}
	if err := call(http.MethodPost, "/v1/tx/submit", tx, &resp); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%s: tx[%s] fee[%v] pending[%d]\n", resp.Status, resp.TxID, resp.Fee, resp.Pending)
}

// buildTx funds amount plus fee from the owned utxos using the named select
// strategy, returns any change to the sender and signs every input.
func buildTx(id signature.Identity, owned []database.UTXO, receiver string, amount float64, fee float64, strategy string) (database.Tx, error) {
	if amount <= 0 {
		return database.Tx{}, fmt.Errorf("amount must be positive, got %v", amount)
	}

	if fee < 0 {
		return database.Tx{}, fmt.Errorf("fee can't be negative, got %v", fee)
	}

	if err := signature.ValidateAddress(receiver); err != nil {
		return database.Tx{}, err
	}

	selectFn, err := selector.Retrieve(strategy)
	if err != nil {
		return database.Tx{}, err
	}

	need := amount + fee
	selected := selectFn(owned, need)

	total := selector.Total(selected)
	if total < need {
		return database.Tx{}, errors.New("insufficient funds")
	}

	inputs := make([]database.TxInput, len(selected))
	for i, u := range selected {
		inputs[i] = database.TxInput{
			OutputIndex: u.OutputIndex,
			PrevTxID:    u.TxID,
			PublicKey:   id.PublicKeyHex(),
		}
	}

	outputs := []database.TxOutput{
		{Address: receiver, Amount: amount},
	}
	if change := total - need; change > 0 {
		outputs = append(outputs, database.TxOutput{Address: id.Address, Amount: change})
	}

	tx, err := database.NewTx(inputs, outputs)
	if err != nil {
		return database.Tx{}, err
	}

	for i := range tx.Inputs {
		if err := tx.SignInput(i, id.PrivateKey); err != nil {
			return database.Tx{}, err
		}
	}

	return tx, nil
}
