package cmd

import (
	"fmt"
	"log"
	"net/http"

	"github.com/dalyulbam/Class101LLL/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Ask the node to mine a block paying the reward to this wallet",
	Run:   mineRun,
}

func init() {
	rootCmd.AddCommand(mineCmd)
}

func mineRun(cmd *cobra.Command, args []string) {
	id, err := signature.LoadIdentity(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	var blk struct {
		Index        uint64 `json:"index"`
		Hash         string `json:"hash"`
		Proof        int64  `json:"proof"`
		Transactions []struct {
			ID string `json:"tx_id"`
		} `json:"transactions"`
	}
	if err := call(http.MethodPost, "/v1/mining/mine/"+id.Address, nil, &blk); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Block %d mined: hash[%s] proof[%d] txs[%d]\n", blk.Index, blk.Hash, blk.Proof, len(blk.Transactions))
}
