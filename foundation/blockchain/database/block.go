package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dalyulbam/Class101LLL/foundation/blockchain/signature"
)

// Set of errors related to blocks and the chain.
var (
	ErrChainBroken    = errors.New("block does not extend the chain")
	ErrUnminedTimeout = errors.New("proof of work not found within budget")
	ErrBlockNotFound  = errors.New("block not found")
)

// GenesisData is the data payload carried by the first block.
const GenesisData = "genesis block"

// TimeFormat is the layout used for block timestamps.
const TimeFormat = time.RFC3339Nano

// maxProof is the largest proof whose square still fits in an int64.
const maxProof int64 = 3_037_000_499

// ctxCheckInterval is how many trials run between checks of the context.
const ctxCheckInterval = 1 << 10

// =============================================================================

// Block represents a group of settled transactions chained to the previous
// block. Fields are declared in key order since the JSON encoding of this type
// is what gets hashed.
type Block struct {
	Data         string `json:"data"`          // Serialized list of settled transactions.
	Index        uint64 `json:"index"`         // Position in the chain starting with 1.
	PreviousHash string `json:"previous_hash"` // Hash of the previous block in the chain.
	Proof        int64  `json:"proof"`         // Value identified to solve the work puzzle.
	Timestamp    string `json:"timestamp"`     // Time the block was mined.
}

// NewGenesisBlock constructs the first block of the chain. The timestamp
// comes from the genesis date so the block hash is stable across restarts.
func NewGenesisBlock(date time.Time) Block {
	return Block{
		Data:         GenesisData,
		Index:        1,
		PreviousHash: signature.ZeroHash,
		Proof:        1,
		Timestamp:    date.UTC().Format(TimeFormat),
	}
}

// Hash returns the unique hash for the Block.
func (b Block) Hash() string {
	return signature.Hash(b)
}

// IsGenesis reports whether this is the first block of the chain.
func (b Block) IsGenesis() bool {
	return b.Index == 1
}

// Transactions decodes the transactions settled by this block.
func (b Block) Transactions() ([]Tx, error) {
	if b.IsGenesis() {
		return nil, nil
	}

	var bp blockPayload
	if err := json.Unmarshal([]byte(b.Data), &bp); err != nil {
		return nil, fmt.Errorf("decoding block[%d] transactions: %w", b.Index, err)
	}

	return bp.Transactions, nil
}

// ValidateBlock checks this block can extend the chain after the previous
// block using the specified difficulty.
func (b Block) ValidateBlock(previousBlock Block, difficulty uint16, evHandler func(v string, args ...any)) error {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block index is the next index", b.Index)

	nextIndex := previousBlock.Index + 1
	if b.Index != nextIndex {
		return fmt.Errorf("%w: this block is not the next index, got %d, exp %d", ErrChainBroken, b.Index, nextIndex)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: previous hash does match previous block", b.Index)

	if prevHash := previousBlock.Hash(); b.PreviousHash != prevHash {
		return fmt.Errorf("%w: previous block hash doesn't match, got %s, exp %s", ErrChainBroken, b.PreviousHash, prevHash)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: proof has been solved", b.Index)

	hash := ProofHash(b.Proof, previousBlock.Proof, b.Index, b.Data)
	if !isHashSolved(difficulty, hash) {
		return fmt.Errorf("%w: proof %d does not solve the puzzle, hash %s", ErrChainBroken, b.Proof, hash)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: transactions can be decoded", b.Index)

	if _, err := b.Transactions(); err != nil {
		return err
	}

	return nil
}

// =============================================================================

// POWArgs represents the set of arguments required to run POW.
type POWArgs struct {
	Difficulty uint16
	MaxTrials  uint64
	PrevBlock  Block
	Trans      []Tx
	EvHandler  func(v string, args ...any)
}

// POW constructs a new Block and performs the work to find a proof that
// solves the cryptographic POW puzzle. The search stops when the context is
// done or the trial budget is used up. A MaxTrials of 0 means no budget.
func POW(ctx context.Context, args POWArgs) (Block, error) {
	data, err := encodeTransactions(args.Trans)
	if err != nil {
		return Block{}, err
	}

	nb := Block{
		Data:         data,
		Index:        args.PrevBlock.Index + 1,
		PreviousHash: args.PrevBlock.Hash(),
		Proof:        0, // Will be identified by the POW algorithm.
	}

	if err := nb.performPOW(ctx, args); err != nil {
		return Block{}, err
	}

	nb.Timestamp = time.Now().UTC().Format(TimeFormat)

	return nb, nil
}

// performPOW does the work of mining to find a valid proof for the block.
// Pointer semantics are being used since a proof is being discovered.
func (b *Block) performPOW(ctx context.Context, args POWArgs) error {
	ev := args.EvHandler
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	ev("database: PerformPOW: MINING: started: blk[%d]", b.Index)
	defer ev("database: PerformPOW: MINING: completed: blk[%d]", b.Index)

	prevProof := args.PrevBlock.Proof

	var attempts uint64
	for proof := int64(1); proof <= maxProof; proof++ {
		attempts++

		if attempts%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				ev("database: PerformPOW: MINING: CANCELLED: attempts[%d]", attempts)
				return fmt.Errorf("%w: %w", ErrUnminedTimeout, err)
			}
		}

		if args.MaxTrials > 0 && attempts > args.MaxTrials {
			ev("database: PerformPOW: MINING: BUDGET EXHAUSTED: attempts[%d]", args.MaxTrials)
			return fmt.Errorf("%w: %d trials", ErrUnminedTimeout, args.MaxTrials)
		}

		hash := ProofHash(proof, prevProof, b.Index, b.Data)
		if !isHashSolved(args.Difficulty, hash) {
			continue
		}

		b.Proof = proof

		ev("database: PerformPOW: MINING: SOLVED: prevBlk[%s]: proof[%d]: hash[%s]", b.PreviousHash, proof, hash)
		ev("database: PerformPOW: MINING: attempts[%d]", attempts)

		return nil
	}

	return fmt.Errorf("%w: proof space exhausted", ErrUnminedTimeout)
}

// ProofHash returns the hex encoded hash checked by the work puzzle:
// sha256 of the decimal of proof² - previousProof² + index followed by the
// block data.
func ProofHash(proof int64, previousProof int64, index uint64, data string) string {
	n := proof*proof - previousProof*previousProof + int64(index)

	buf := make([]byte, 0, 20+len(data))
	buf = strconv.AppendInt(buf, n, 10)
	buf = append(buf, data...)

	hash := sha256.Sum256(buf)
	return hex.EncodeToString(hash[:])
}

// isHashSolved checks the hash to make sure it complies with
// the POW rules. We need to match a difficulty number of 0's.
func isHashSolved(difficulty uint16, hash string) bool {
	const match = "0000000000000000000000000000000000000000000000000000000000000000"

	if len(hash) != len(match) || int(difficulty) > len(match) {
		return false
	}

	return hash[:difficulty] == match[:difficulty]
}

// =============================================================================

// blockPayload is the shape of the data carried by a mined block.
type blockPayload struct {
	Transactions []Tx `json:"transactions"`
}

// encodeTransactions produces the data payload for a block.
func encodeTransactions(trans []Tx) (string, error) {
	if trans == nil {
		trans = []Tx{}
	}

	data, err := json.Marshal(blockPayload{Transactions: trans})
	if err != nil {
		return "", fmt.Errorf("encoding block transactions: %w", err)
	}

	return string(data), nil
}

// =============================================================================

// BlockData represents what is written to storage.
type BlockData struct {
	Hash  string `json:"hash"`
	Block Block  `json:"block"`
}

// NewBlockData constructs the value to serialize to storage.
func NewBlockData(block Block) BlockData {
	return BlockData{
		Hash:  block.Hash(),
		Block: block,
	}
}

// ToBlock converts the stored value back into a block, checking the stored
// hash still matches the block.
func ToBlock(blockData BlockData) (Block, error) {
	if hash := blockData.Block.Hash(); hash != blockData.Hash {
		return Block{}, fmt.Errorf("block[%d] hash mismatch, got %s, exp %s", blockData.Block.Index, hash, blockData.Hash)
	}

	return blockData.Block, nil
}
