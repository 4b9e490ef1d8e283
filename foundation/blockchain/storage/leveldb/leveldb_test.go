package leveldb_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/dalyulbam/Class101LLL/foundation/blockchain/database"
	"github.com/dalyulbam/Class101LLL/foundation/blockchain/genesis"
	"github.com/dalyulbam/Class101LLL/foundation/blockchain/storage/leveldb"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const miner = "1EHNa6Q4Jz2uvNExL497mE43ikXhwF6kZm"

func Test_Storage(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "blocks.db")

	gen := genesis.Default()
	gen.Difficulty = 1

	t.Log("Given the need to keep the chain in leveldb storage.")
	{
		store, err := leveldb.New(dbPath)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open the storage: %s", failed, err)
		}

		db, err := database.New(gen, store, nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load the database: %s", failed, err)
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

		if err := db.Save(); err != nil {
			t.Fatalf("\t%s\tShould be able to save a snapshot: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to append a block and save a snapshot.", success)

		if err := db.Close(); err != nil {
			t.Fatalf("\t%s\tShould be able to close the storage: %s", failed, err)
		}

		store, err = leveldb.New(dbPath)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to reopen the storage: %s", failed, err)
		}
		defer store.Close()

		db, err = database.New(gen, store, nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to reload the database: %s", failed, err)
		}

		if db.Length() != 2 || db.LatestBlock().Hash() != block.Hash() {
			t.Fatalf("\t%s\tShould get the same chain back, got %d blocks.", failed, db.Length())
		}
		t.Logf("\t%s\tShould get the same chain back.", success)

		if bal := db.UTXOs().Balance(miner); bal != gen.MiningReward {
			t.Fatalf("\t%s\tShould get the miner reward back, got %v.", failed, bal)
		}
		t.Logf("\t%s\tShould get the miner reward back.", success)

		snapshot, err := store.ReadSnapshot()
		if err != nil || snapshot.Height != 2 || len(snapshot.UTXOs) != 1 {
			t.Fatalf("\t%s\tShould read the snapshot at height 2: %+v: %v", failed, snapshot, err)
		}
		t.Logf("\t%s\tShould read the snapshot at height 2.", success)

		if _, err := store.GetBlock(3); !errors.Is(err, database.ErrBlockNotFound) {
			t.Fatalf("\t%s\tShould get block not found past the tip: %v", failed, err)
		}
		t.Logf("\t%s\tShould get block not found past the tip.", success)

		if err := db.Reset(); err != nil {
			t.Fatalf("\t%s\tShould be able to reset: %s", failed, err)
		}

		if _, err := store.ReadSnapshot(); !errors.Is(err, database.ErrSnapshotNotFound) {
			t.Fatalf("\t%s\tShould drop the snapshot on reset: %v", failed, err)
		}

		if _, err := store.GetBlock(2); !errors.Is(err, database.ErrBlockNotFound) {
			t.Fatalf("\t%s\tShould drop the mined block on reset: %v", failed, err)
		}
		t.Logf("\t%s\tShould be back to the genesis block after reset.", success)
	}
}
