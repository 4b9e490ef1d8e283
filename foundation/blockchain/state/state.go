// Package state is the core API for the ledger and implements all the
// business rules and processing.
package state

import (
	"errors"
	"sync"

	"github.com/dalyulbam/Class101LLL/foundation/blockchain/database"
	"github.com/dalyulbam/Class101LLL/foundation/blockchain/genesis"
	"github.com/dalyulbam/Class101LLL/foundation/blockchain/mempool"
	"github.com/dalyulbam/Class101LLL/foundation/blockchain/selector"
)

// Set of errors returned by the ledger.
var (
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrRejectedTransaction = errors.New("transaction rejected")
	ErrInvalidAmount       = errors.New("amount must be a positive number")
	ErrInvalidAddress      = errors.New("invalid address")
)

// ErrUnminedTimeout is returned when the proof of work search is stopped by
// the context or the trial budget before a proof is found.
var ErrUnminedTimeout = database.ErrUnminedTimeout

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of the ledger.
type EventHandler func(v string, args ...any)

// BlockHandler defines a function that is called every time a block is mined
// into the chain, no matter who asked for the block.
type BlockHandler func(block database.Block)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining in the background.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining()
}

// =============================================================================

// Config represents the configuration required to start the ledger.
type Config struct {
	Genesis        genesis.Genesis
	Storage        database.Serializer
	SelectStrategy string
	EvHandler      EventHandler
	BlockHandler   BlockHandler
}

// State manages the chain, the pending queue and the utxo set as one unit.
// Every operation runs under a single mutex.
type State struct {
	mu        sync.Mutex
	evHandler EventHandler
	onBlock   BlockHandler
	selectFn  selector.Func

	genesis genesis.Genesis
	mempool *mempool.Mempool
	db      *database.Database

	Worker Worker
}

// New constructs a new ledger, loading any chain held by the storage.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if err := cfg.Genesis.Validate(); err != nil {
		return nil, err
	}

	strategy := cfg.SelectStrategy
	if strategy == "" {
		strategy = selector.StrategyFirstFit
	}

	selectFn, err := selector.Retrieve(strategy)
	if err != nil {
		return nil, err
	}

	// Access the storage for the chain, replaying and validating every
	// stored block.
	db, err := database.New(cfg.Genesis, cfg.Storage, ev)
	if err != nil {
		return nil, err
	}

	onBlock := cfg.BlockHandler
	if onBlock == nil {
		onBlock = func(block database.Block) {}
	}

	state := State{
		evHandler: ev,
		onBlock:   onBlock,
		selectFn:  selectFn,
		genesis:   cfg.Genesis,
		mempool:   mempool.New(),
		db:        db,
	}

	ev("state: New: chain loaded: blocks[%d]: utxos[%d]", db.Length(), db.UTXOs().Len())

	// The Worker is not set here. The call to worker.Run will assign itself
	// when background mining is configured.

	return &state, nil
}

// Shutdown cleanly brings the ledger down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all background mining before the storage goes away.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Close()
}

// Save writes the chain and a snapshot of the utxo set to storage.
func (s *State) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: Save: blocks[%d]: utxos[%d]", s.db.Length(), s.db.UTXOs().Len())

	return s.db.Save()
}

// Reset resets the chain back to the genesis block both in storage and in
// memory, dropping every pending transaction.
func (s *State) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: Reset: chain and mempool")

	s.mempool.Truncate()
	return s.db.Reset()
}
