package public

import (
	"github.com/dalyulbam/Class101LLL/business/sys/validate"
	"github.com/dalyulbam/Class101LLL/foundation/blockchain/database"
	"github.com/dalyulbam/Class101LLL/foundation/nameservice"
)

type wallet struct {
	PrivateKey string `json:"private_key"`
	PublicKey  string `json:"public_key"`
	Address    string `json:"address"`
}

type utxo struct {
	TxID        string  `json:"tx_id"`
	OutputIndex int     `json:"output_index"`
	Amount      float64 `json:"amount"`
}

type balance struct {
	Address     string  `json:"address"`
	Name        string  `json:"name,omitempty"`
	Balance     float64 `json:"balance"`
	LatestBlock string  `json:"latest_block"`
	Uncommitted int     `json:"uncommitted"`
	UTXOs       []utxo  `json:"utxos"`
}

type output struct {
	Address string  `json:"address"`
	Name    string  `json:"name,omitempty"`
	Amount  float64 `json:"amount"`
}

type input struct {
	PrevTxID    string `json:"prev_tx_id"`
	OutputIndex int    `json:"output_index"`
	PublicKey   string `json:"public_key"`
	Signature   string `json:"signature"`
}

type tx struct {
	ID       string   `json:"tx_id"`
	Coinbase bool     `json:"coinbase,omitempty"`
	Inputs   []input  `json:"inputs"`
	Outputs  []output `json:"outputs"`
}

type block struct {
	Index        uint64 `json:"index"`
	Hash         string `json:"hash"`
	PreviousHash string `json:"previous_hash"`
	Proof        int64  `json:"proof"`
	Timestamp    string `json:"timestamp"`
	Transactions []tx   `json:"transactions"`
}

// sendTx is the request to have the node build, sign and admit a transaction
// using the provided private key.
type sendTx struct {
	FromKey string  `json:"from_key" validate:"required,hexadecimal,len=64"`
	To      string  `json:"to" validate:"required,address"`
	Amount  float64 `json:"amount" validate:"gt=0"`
}

// Validate checks the data in the model is considered clean.
func (s sendTx) Validate() error {
	return validate.Check(s)
}

type admitted struct {
	Status  string  `json:"status"`
	TxID    string  `json:"tx_id"`
	Fee     float64 `json:"fee"`
	Pending int     `json:"pending"`
}

// =============================================================================

func toTx(trn database.Tx, ns *nameservice.NameService) tx {
	ins := make([]input, len(trn.Inputs))
	for i, in := range trn.Inputs {
		ins[i] = input{
			PrevTxID:    in.PrevTxID,
			OutputIndex: in.OutputIndex,
			PublicKey:   in.PublicKey,
			Signature:   in.Signature,
		}
	}

	outs := make([]output, len(trn.Outputs))
	for i, out := range trn.Outputs {
		outs[i] = output{
			Address: out.Address,
			Name:    lookup(ns, out.Address),
			Amount:  out.Amount,
		}
	}

	return tx{
		ID:       trn.ID,
		Coinbase: trn.IsCoinbase(),
		Inputs:   ins,
		Outputs:  outs,
	}
}

func toBlock(blk database.Block, ns *nameservice.NameService) (block, error) {
	trans, err := blk.Transactions()
	if err != nil {
		return block{}, err
	}

	txs := make([]tx, len(trans))
	for i, trn := range trans {
		txs[i] = toTx(trn, ns)
	}

	return block{
		Index:        blk.Index,
		Hash:         blk.Hash(),
		PreviousHash: blk.PreviousHash,
		Proof:        blk.Proof,
		Timestamp:    blk.Timestamp,
		Transactions: txs,
	}, nil
}

func lookup(ns *nameservice.NameService, address string) string {
	if ns == nil {
		return ""
	}

	name := ns.Lookup(address)
	if name == address {
		return ""
	}
	return name
}
