package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dalyulbam/Class101LLL/foundation/blockchain/database"
)

// Blocks writes the chain, or the block at the 1-based index, with the
// transactions each block settled.
func Blocks(w io.Writer, index string, db *database.Database) error {
	blocks := db.Blocks()

	if index != "" {
		n, err := strconv.ParseUint(index, 10, 64)
		if err != nil {
			return fmt.Errorf("parsing index: %w", err)
		}

		block, err := db.GetBlock(n)
		if err != nil {
			return err
		}
		blocks = []database.Block{block}
	}

	for _, block := range blocks {
		trans, err := block.Transactions()
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "Block: %d  Hash: %s  Prev: %s  Proof: %d  Time: %s\n",
			block.Index, block.Hash(), block.PreviousHash, block.Proof, block.Timestamp)

		for _, tx := range trans {
			fmt.Fprintf(w, "  Tx: %s  Inputs: %d\n", tx.ID, len(tx.Inputs))
			for _, out := range tx.Outputs {
				fmt.Fprintf(w, "    -> %s  %v\n", out.Address, out.Amount)
			}
		}
	}

	return nil
}
