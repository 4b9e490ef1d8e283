package commands_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/dalyulbam/Class101LLL/app/tooling/admin/commands"
	"github.com/dalyulbam/Class101LLL/foundation/blockchain/database"
	"github.com/dalyulbam/Class101LLL/foundation/blockchain/genesis"
	"github.com/dalyulbam/Class101LLL/foundation/blockchain/storage/memory"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const miner = "1EHNa6Q4Jz2uvNExL497mE43ikXhwF6kZm"

func Test_Commands(t *testing.T) {
	gen := genesis.Default()
	gen.Difficulty = 1

	db, err := database.New(gen, memory.New(), nil)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to open the database: %s", failed, err)
	}

	args := database.POWArgs{
		Difficulty: gen.Difficulty,
		PrevBlock:  db.LatestBlock(),
		Trans:      []database.Tx{database.NewCoinbaseTx(2, miner, gen.MiningReward)},
	}

	block, err := database.POW(context.Background(), args)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to mine a block: %s", failed, err)
	}

	if err := db.Append(block); err != nil {
		t.Fatalf("\t%s\tShould be able to append the block: %s", failed, err)
	}

	t.Log("Given the need to inspect the stored chain.")
	{
		var buf bytes.Buffer
		if err := commands.Balances(&buf, "", db); err != nil {
			t.Fatalf("\t%s\tShould be able to print the balances: %s", failed, err)
		}

		if !strings.Contains(buf.String(), "Address: "+miner+"  Balance: 10") {
			t.Fatalf("\t%s\tShould list the miner balance:\n%s", failed, buf.String())
		}
		t.Logf("\t%s\tShould list the miner balance.", success)

		buf.Reset()
		if err := commands.Blocks(&buf, "2", db); err != nil {
			t.Fatalf("\t%s\tShould be able to print block 2: %s", failed, err)
		}

		if !strings.Contains(buf.String(), "Tx: coinbase_2") {
			t.Fatalf("\t%s\tShould list the coinbase of block 2:\n%s", failed, buf.String())
		}
		t.Logf("\t%s\tShould list the coinbase of block 2.", success)

		if err := commands.Blocks(&buf, "9", db); err == nil {
			t.Fatalf("\t%s\tShould fail for a missing block.", failed)
		}
		t.Logf("\t%s\tShould fail for a missing block.", success)
	}
}
