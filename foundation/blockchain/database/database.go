// Package database handles all the lower level support for maintaining the
// blockchain in memory and in storage, along with the set of unspent outputs
// produced by the chain.
package database

import (
	"errors"
	"fmt"

	"github.com/dalyulbam/Class101LLL/foundation/blockchain/genesis"
)

// ErrSnapshotNotFound is returned by a Serializer when no utxo snapshot has
// been saved yet.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Serializer interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain.
type Serializer interface {
	Write(blockData BlockData) error
	GetBlock(num uint64) (BlockData, error)
	ForEach() Iterator
	WriteSnapshot(snapshot Snapshot) error
	ReadSnapshot() (Snapshot, error)
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (BlockData, error)
	Done() bool
}

// Snapshot represents the utxo set at a given chain length.
type Snapshot struct {
	Height uint64 `json:"height"`
	UTXOs  []UTXO `json:"utxos"`
}

// =============================================================================

// Database manages the chain of blocks and the utxo set the chain produces.
// It is not safe for concurrent use, the state package serializes access.
type Database struct {
	genesis   genesis.Genesis
	blocks    []Block
	utxos     *UTXOSet
	evHandler func(v string, args ...any)

	serializer Serializer
}

// New constructs a new database, loading any blocks and snapshot held by the
// serializer. A serializer with no blocks gets the genesis block written.
func New(gen genesis.Genesis, serializer Serializer, evHandler func(v string, args ...any)) (*Database, error) {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	db := Database{
		genesis:    gen,
		utxos:      NewUTXOSet(),
		evHandler:  evHandler,
		serializer: serializer,
	}

	if err := db.load(); err != nil {
		return nil, err
	}

	return &db, nil
}

// Close closes the open blocks database.
func (db *Database) Close() error {
	return db.serializer.Close()
}

// Reset re-initializes the database back to the genesis state.
func (db *Database) Reset() error {
	if err := db.serializer.Reset(); err != nil {
		return err
	}

	db.blocks = nil
	db.utxos = NewUTXOSet()

	return db.writeGenesis()
}

// Genesis returns the genesis values the chain was started with.
func (db *Database) Genesis() genesis.Genesis {
	return db.genesis
}

// LatestBlock returns the latest block.
func (db *Database) LatestBlock() Block {
	return db.blocks[len(db.blocks)-1]
}

// Length returns the number of blocks in the chain, genesis included.
func (db *Database) Length() int {
	return len(db.blocks)
}

// GetBlock returns the block at the specified 1-based index.
func (db *Database) GetBlock(index uint64) (Block, error) {
	if index == 0 || index > uint64(len(db.blocks)) {
		return Block{}, fmt.Errorf("%w: index %d", ErrBlockNotFound, index)
	}

	return db.blocks[index-1], nil
}

// Blocks returns a copy of the chain.
func (db *Database) Blocks() []Block {
	blocks := make([]Block, len(db.blocks))
	copy(blocks, db.blocks)
	return blocks
}

// UTXOs provides access to the utxo set produced by the chain.
func (db *Database) UTXOs() *UTXOSet {
	return db.utxos
}

// Append validates the block extends the chain, writes it to storage and
// settles its transactions into the utxo set.
func (db *Database) Append(block Block) error {
	if err := block.ValidateBlock(db.LatestBlock(), db.genesis.Difficulty, db.evHandler); err != nil {
		return err
	}

	trans, err := block.Transactions()
	if err != nil {
		return err
	}

	if err := db.serializer.Write(NewBlockData(block)); err != nil {
		return fmt.Errorf("writing block[%d]: %w", block.Index, err)
	}

	db.blocks = append(db.blocks, block)
	for _, tx := range trans {
		db.utxos.Apply(tx)
	}

	return nil
}

// Save writes the full chain and a snapshot of the utxo set to storage.
func (db *Database) Save() error {
	for _, block := range db.blocks {
		if err := db.serializer.Write(NewBlockData(block)); err != nil {
			return fmt.Errorf("writing block[%d]: %w", block.Index, err)
		}
	}

	snapshot := Snapshot{
		Height: uint64(len(db.blocks)),
		UTXOs:  db.utxos.Copy(),
	}

	if err := db.serializer.WriteSnapshot(snapshot); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	return nil
}

// =============================================================================

// load reads the chain from storage, validating every link, and then
// restores the utxo set from a matching snapshot or by replaying the chain.
func (db *Database) load() error {
	genesisBlock := NewGenesisBlock(db.genesis.Date)

	iter := db.serializer.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return err
		}

		block, err := ToBlock(blockData)
		if err != nil {
			return err
		}

		if len(db.blocks) == 0 {
			if block.Hash() != genesisBlock.Hash() {
				return fmt.Errorf("%w: stored genesis block does not match the genesis values", ErrChainBroken)
			}
			db.blocks = append(db.blocks, block)
			continue
		}

		if err := block.ValidateBlock(db.LatestBlock(), db.genesis.Difficulty, db.evHandler); err != nil {
			return err
		}
		db.blocks = append(db.blocks, block)
	}

	if len(db.blocks) == 0 {
		return db.writeGenesis()
	}

	snapshot, err := db.serializer.ReadSnapshot()
	switch {
	case err == nil && snapshot.Height == uint64(len(db.blocks)):
		db.evHandler("database: load: restore utxos from snapshot: height[%d]: utxos[%d]", snapshot.Height, len(snapshot.UTXOs))
		for _, utxo := range snapshot.UTXOs {
			db.utxos.Add(utxo)
		}
		return nil

	case err == nil:
		db.evHandler("database: load: ignore stale snapshot: height[%d]: chain[%d]", snapshot.Height, len(db.blocks))

	case !errors.Is(err, ErrSnapshotNotFound):
		return fmt.Errorf("reading snapshot: %w", err)
	}

	db.evHandler("database: load: replay chain: blocks[%d]", len(db.blocks))
	for _, block := range db.blocks {
		trans, err := block.Transactions()
		if err != nil {
			return err
		}
		for _, tx := range trans {
			db.utxos.Apply(tx)
		}
	}

	return nil
}

// writeGenesis starts the chain with the genesis block.
func (db *Database) writeGenesis() error {
	block := NewGenesisBlock(db.genesis.Date)

	if err := db.serializer.Write(NewBlockData(block)); err != nil {
		return fmt.Errorf("writing genesis block: %w", err)
	}

	db.blocks = []Block{block}

	return nil
}
