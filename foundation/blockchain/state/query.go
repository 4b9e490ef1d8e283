package state

import (
	"github.com/dalyulbam/Class101LLL/foundation/blockchain/database"
	"github.com/dalyulbam/Class101LLL/foundation/blockchain/genesis"
)

// Status summarizes the current state of the ledger.
type Status struct {
	ChainLength int
	LatestHash  string
	Pending     int
	UTXOs       int
	Supply      float64
}

// Genesis returns a copy of the genesis information.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}

// Balance returns the sum of the utxos owned by the address.
func (s *State) Balance(address string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.UTXOs().Balance(address)
}

// UTXOsFor returns the utxos owned by the address.
func (s *State) UTXOsFor(address string) []database.UTXO {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.UTXOs().UTXOsFor(address)
}

// UTXOs returns every utxo in the set.
func (s *State) UTXOs() []database.UTXO {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.UTXOs().Copy()
}

// ChainLength returns the number of blocks, genesis included.
func (s *State) ChainLength() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Length()
}

// ChainBlock returns the block at the 1-based index.
func (s *State) ChainBlock(index uint64) (database.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.GetBlock(index)
}

// Blocks returns a copy of the chain.
func (s *State) Blocks() []database.Block {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Blocks()
}

// LatestBlock returns the tip of the chain.
func (s *State) LatestBlock() database.Block {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.LatestBlock()
}

// PendingCount returns the number of transactions waiting to be mined.
func (s *State) PendingCount() int {
	return s.mempool.Count()
}

// PendingTransactions returns the transactions waiting to be mined in the
// order they were admitted.
func (s *State) PendingTransactions() []database.Tx {
	return s.mempool.Copy()
}

// Status returns a summary of the ledger.
func (s *State) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Status{
		ChainLength: s.db.Length(),
		LatestHash:  s.db.LatestBlock().Hash(),
		Pending:     s.mempool.Count(),
		UTXOs:       s.db.UTXOs().Len(),
		Supply:      s.db.UTXOs().Total(),
	}
}
