package state

import (
	"context"
	"fmt"

	"github.com/dalyulbam/Class101LLL/foundation/blockchain/database"
)

// MineNewBlock settles the pending transactions plus a coinbase paying the
// mining reward to the miner address into a new block. The proof of work can
// be cancelled through the context or bounded by the genesis trial budget,
// in which case ErrUnminedTimeout is returned and the ledger is unchanged.
func (s *State) MineNewBlock(ctx context.Context, minerAddress string) (database.Block, error) {
	if minerAddress == "" {
		return database.Block{}, fmt.Errorf("%w: empty miner address", ErrInvalidAddress)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: MineNewBlock: MINING: check pending transactions: pending[%d]", s.mempool.Count())

	// Transactions are validated at admission but two of them may claim the
	// same utxo. Replay the queue against a scratch copy of the set so only
	// the first claim settles.
	scratch := s.db.UTXOs().Clone()
	pending := s.mempool.Copy()

	trans := make([]database.Tx, 0, len(pending)+1)
	for _, tx := range pending {
		if err := validateTransaction(scratch, tx); err != nil {
			s.evHandler("state: MineNewBlock: MINING: tx[%s]: DROPPED: %s", tx.ID, err)
			continue
		}

		scratch.Apply(tx)
		trans = append(trans, tx)
	}

	latest := s.db.LatestBlock()
	coinbase := database.NewCoinbaseTx(latest.Index+1, minerAddress, s.genesis.MiningReward)
	trans = append(trans, coinbase)

	s.evHandler("state: MineNewBlock: MINING: perform POW: blk[%d]: txs[%d]", latest.Index+1, len(trans))

	args := database.POWArgs{
		Difficulty: s.genesis.Difficulty,
		MaxTrials:  s.genesis.MaxTrials,
		PrevBlock:  latest,
		Trans:      trans,
		EvHandler:  s.evHandler,
	}

	block, err := database.POW(ctx, args)
	if err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: MineNewBlock: MINING: update local state")

	if err := s.db.Append(block); err != nil {
		return database.Block{}, err
	}

	s.mempool.Truncate()

	s.evHandler("viewer: block[%d] mined: hash[%s]: txs[%d]: miner[%s]", block.Index, block.Hash(), len(trans), minerAddress)
	s.onBlock(block)

	return block, nil
}
