// Package leveldb implements the ability to read and write blocks and the
// utxo snapshot to a leveldb key value store.
package leveldb

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/btcsuite/goleveldb/leveldb"
	"github.com/btcsuite/goleveldb/leveldb/opt"
	"github.com/btcsuite/goleveldb/leveldb/util"
	"github.com/dalyulbam/Class101LLL/foundation/blockchain/database"
)

// Key layout. Blocks are keyed by the prefix followed by the big endian
// block number so iteration order is chain order.
var (
	blockPrefix = []byte("b")
	snapshotKey = []byte("s")
)

// LevelDB represents the serialization implementation for reading and storing
// blocks in a leveldb database. This implements the database.Serializer
// interface.
type LevelDB struct {
	db *leveldb.DB
}

// New opens or creates the leveldb database at the specified path.
func New(dbPath string) (*LevelDB, error) {
	opts := opt.Options{
		Compression: opt.SnappyCompression,
	}

	db, err := leveldb.OpenFile(dbPath, &opts)
	if err != nil {
		return nil, fmt.Errorf("opening leveldb %q: %w", dbPath, err)
	}

	return &LevelDB{db: db}, nil
}

// Close closes the underlying database.
func (l *LevelDB) Close() error {
	return l.db.Close()
}

// Write stores the block under its block number key.
func (l *LevelDB) Write(blockData database.BlockData) error {
	data, err := json.Marshal(blockData)
	if err != nil {
		return err
	}

	return l.db.Put(blockKey(blockData.Block.Index), data, nil)
}

// GetBlock locates and returns the contents of the specified block by number.
func (l *LevelDB) GetBlock(num uint64) (database.BlockData, error) {
	data, err := l.db.Get(blockKey(num), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return database.BlockData{}, fmt.Errorf("%w: index %d", database.ErrBlockNotFound, num)
		}
		return database.BlockData{}, err
	}

	var blockData database.BlockData
	if err := json.Unmarshal(data, &blockData); err != nil {
		return database.BlockData{}, fmt.Errorf("decoding block[%d]: %w", num, err)
	}

	return blockData, nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with block number 1.
func (l *LevelDB) ForEach() database.Iterator {
	return &levelIterator{storage: l}
}

// WriteSnapshot stores the utxo snapshot.
func (l *LevelDB) WriteSnapshot(snapshot database.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	return l.db.Put(snapshotKey, data, &opt.WriteOptions{Sync: true})
}

// ReadSnapshot returns the stored utxo snapshot.
func (l *LevelDB) ReadSnapshot() (database.Snapshot, error) {
	data, err := l.db.Get(snapshotKey, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return database.Snapshot{}, database.ErrSnapshotNotFound
		}
		return database.Snapshot{}, err
	}

	var snapshot database.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return database.Snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}

	return snapshot, nil
}

// Reset deletes every block and the snapshot in a single batch.
func (l *LevelDB) Reset() error {
	batch := new(leveldb.Batch)

	iter := l.db.NewIterator(util.BytesPrefix(blockPrefix), nil)
	for iter.Next() {
		key := make([]byte, len(iter.Key()))
		copy(key, iter.Key())
		batch.Delete(key)
	}
	iter.Release()

	if err := iter.Error(); err != nil {
		return err
	}

	batch.Delete(snapshotKey)

	return l.db.Write(batch, &opt.WriteOptions{Sync: true})
}

// blockKey forms the key for the specified block number.
func blockKey(num uint64) []byte {
	key := make([]byte, len(blockPrefix)+8)
	copy(key, blockPrefix)
	binary.BigEndian.PutUint64(key[len(blockPrefix):], num)
	return key
}

// =============================================================================

// levelIterator walks the blocks in block number order. This implements the
// database Iterator interface.
type levelIterator struct {
	storage *LevelDB // Access to the storage API.
	current uint64   // Current block number being iterated over.
	eoc     bool     // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from the database.
func (li *levelIterator) Next() (database.BlockData, error) {
	if li.eoc {
		return database.BlockData{}, errors.New("end of chain")
	}

	li.current++
	blockData, err := li.storage.GetBlock(li.current)
	if errors.Is(err, database.ErrBlockNotFound) {
		li.eoc = true
	}

	return blockData, err
}

// Done returns the end of chain value.
func (li *levelIterator) Done() bool {
	return li.eoc
}
