package cmd

import (
	"testing"

	"github.com/dalyulbam/Class101LLL/foundation/blockchain/database"
	"github.com/dalyulbam/Class101LLL/foundation/blockchain/selector"
	"github.com/dalyulbam/Class101LLL/foundation/blockchain/signature"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_BuildTx(t *testing.T) {
	t.Log("Given the need to build a signed transaction in the wallet.")
	{
		sender, err := signature.IdentityFromHex("fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959")
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load the sender key: %s", failed, err)
		}

		receiver, err := signature.IdentityFromHex("9f332e3700d8fc2446eaf6d15034cf96e0c2745e40353deef032a5dbf1dfed93")
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load the receiver key: %s", failed, err)
		}

		owned := []database.UTXO{
			{TxID: "coinbase_2", OutputIndex: 0, Amount: 10, Address: sender.Address},
			{TxID: "coinbase_3", OutputIndex: 0, Amount: 10, Address: sender.Address},
		}

		tx, err := buildTx(sender, owned, receiver.Address, 12, 1, selector.StrategyFirstFit)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to build the transaction: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to build the transaction.", success)

		if len(tx.Inputs) != 2 || len(tx.Outputs) != 2 {
			t.Fatalf("\t%s\tShould spend both utxos with a change output: %s", failed, tx)
		}

		if tx.Outputs[0].Amount != 12 || tx.Outputs[1].Amount != 7 || tx.Outputs[1].Address != sender.Address {
			t.Fatalf("\t%s\tShould pay 12 and return 7 as change: %s", failed, tx)
		}
		t.Logf("\t%s\tShould pay 12 and return 7 as change.", success)

		for i := range tx.Inputs {
			if !tx.VerifyInput(i, owned[i]) {
				t.Fatalf("\t%s\tShould verify input %d.", failed, i)
			}
		}
		t.Logf("\t%s\tShould verify every input.", success)

		if _, err := buildTx(sender, owned, receiver.Address, 20, 1, selector.StrategyFirstFit); err == nil {
			t.Fatalf("\t%s\tShould fail when the fee can't be covered.", failed)
		}
		t.Logf("\t%s\tShould fail when the fee can't be covered.", success)

		if _, err := buildTx(sender, owned, "bogus", 1, 0, selector.StrategyFirstFit); err == nil {
			t.Fatalf("\t%s\tShould fail for a bad receiver address.", failed)
		}
		t.Logf("\t%s\tShould fail for a bad receiver address.", success)
	}
}
