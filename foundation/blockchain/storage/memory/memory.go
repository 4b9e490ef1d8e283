// Package memory implements the ability to read and write blocks to memory
// using a slice.
package memory

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dalyulbam/Class101LLL/foundation/blockchain/database"
)

// Memory represents the serialization implementation for reading and storing
// blocks in memory using a slice. This implements the database.Serializer
// interface.
type Memory struct {
	mu       sync.RWMutex
	blocks   []database.BlockData
	snapshot *database.Snapshot
}

// New constructs an Memory value for use.
func New() *Memory {
	return &Memory{}
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Write takes the specified database blocks and stores it in memory. Writing
// a block that is already stored replaces it.
func (m *Memory) Write(blockData database.BlockData) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	index := blockData.Block.Index
	l := uint64(len(m.blocks))

	switch {
	case index == 0 || index > l+1:
		return fmt.Errorf("block[%d] is out of order, stored %d", index, l)
	case index == l+1:
		m.blocks = append(m.blocks, blockData)
	default:
		m.blocks[index-1] = blockData
	}

	return nil
}

// GetBlock searches the blockchain to locate and return the contents of
// the specified block by number.
func (m *Memory) GetBlock(num uint64) (database.BlockData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if num == 0 || num > uint64(len(m.blocks)) {
		return database.BlockData{}, fmt.Errorf("%w: index %d", database.ErrBlockNotFound, num)
	}

	return m.blocks[num-1], nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with block number 1.
func (m *Memory) ForEach() database.Iterator {
	return &memoryIterator{storage: m}
}

// WriteSnapshot keeps a copy of the utxo snapshot.
func (m *Memory) WriteSnapshot(snapshot database.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	utxos := make([]database.UTXO, len(snapshot.UTXOs))
	copy(utxos, snapshot.UTXOs)

	m.snapshot = &database.Snapshot{
		Height: snapshot.Height,
		UTXOs:  utxos,
	}

	return nil
}

// ReadSnapshot returns the last snapshot written.
func (m *Memory) ReadSnapshot() (database.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.snapshot == nil {
		return database.Snapshot{}, database.ErrSnapshotNotFound
	}

	return *m.snapshot, nil
}

// Reset will clear out the blockchain in memory.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = nil
	m.snapshot = nil

	return nil
}

// =============================================================================

// memoryIterator represents the iteration implementation for walking
// through and reading blocks in memory. This implements the database
// Iterator interface.
type memoryIterator struct {
	storage *Memory // Access to the storage API.
	current uint64  // Current block number being iterated over.
	eoc     bool    // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from memory.
func (mi *memoryIterator) Next() (database.BlockData, error) {
	if mi.eoc {
		return database.BlockData{}, errors.New("end of chain")
	}

	mi.current++
	blockData, err := mi.storage.GetBlock(mi.current)
	if errors.Is(err, database.ErrBlockNotFound) {
		mi.eoc = true
	}

	return blockData, err
}

// Done returns the end of chain value.
func (mi *memoryIterator) Done() bool {
	return mi.eoc
}
