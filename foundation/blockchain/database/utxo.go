package database

import (
	"fmt"
	"sort"

	"github.com/dolthub/swiss"
)

// initialUTXOCapacity is the starting size of the swiss map backing a set.
const initialUTXOCapacity = 1024

// =============================================================================

// Outpoint uniquely identifies one output across the history of the ledger.
type Outpoint struct {
	TxID  string `json:"tx_id"`
	Index int    `json:"output_index"`
}

// String implements the fmt.Stringer interface for logging.
func (op Outpoint) String() string {
	return fmt.Sprintf("%s:%d", op.TxID, op.Index)
}

// UTXO represents an output that has been committed by a block and not yet
// consumed by a later committed transaction.
type UTXO struct {
	TxID        string  `json:"tx_id"`
	OutputIndex int     `json:"output_index"`
	Amount      float64 `json:"amount"`
	Address     string  `json:"address"`
}

// Outpoint returns the reference for this output.
func (u UTXO) Outpoint() Outpoint {
	return Outpoint{TxID: u.TxID, Index: u.OutputIndex}
}

// =============================================================================

// entry keeps the order a utxo was added so selection can be first-fit.
type entry struct {
	utxo UTXO
	seq  uint64
}

// UTXOSet is the set of spendable outputs keyed by outpoint. The set is not
// safe for concurrent use, the state package serializes all access.
type UTXOSet struct {
	m   *swiss.Map[Outpoint, entry]
	seq uint64
}

// NewUTXOSet constructs an empty set.
func NewUTXOSet() *UTXOSet {
	return &UTXOSet{
		m: swiss.NewMap[Outpoint, entry](initialUTXOCapacity),
	}
}

// Add inserts the utxo, replacing any utxo with the same outpoint.
func (us *UTXOSet) Add(utxo UTXO) {
	us.seq++
	us.m.Put(utxo.Outpoint(), entry{utxo: utxo, seq: us.seq})
}

// Remove deletes the utxo for the outpoint. Removing a missing outpoint
// is a no-op.
func (us *UTXOSet) Remove(txID string, index int) {
	us.m.Delete(Outpoint{TxID: txID, Index: index})
}

// Get returns the utxo for the outpoint if it exists.
func (us *UTXOSet) Get(txID string, index int) (UTXO, bool) {
	e, exists := us.m.Get(Outpoint{TxID: txID, Index: index})
	if !exists {
		return UTXO{}, false
	}
	return e.utxo, true
}

// Len returns the number of utxos in the set.
func (us *UTXOSet) Len() int {
	return us.m.Count()
}

// Balance returns the sum of the amounts owned by the address.
func (us *UTXOSet) Balance(address string) float64 {
	var balance float64
	us.m.Iter(func(_ Outpoint, e entry) bool {
		if e.utxo.Address == address {
			balance += e.utxo.Amount
		}
		return false
	})
	return balance
}

// Total returns the sum of every amount in the set.
func (us *UTXOSet) Total() float64 {
	var total float64
	us.m.Iter(func(_ Outpoint, e entry) bool {
		total += e.utxo.Amount
		return false
	})
	return total
}

// UTXOsFor returns the utxos owned by the address in the order they were
// added. The order is not stable across mutations of the set.
func (us *UTXOSet) UTXOsFor(address string) []UTXO {
	return us.collect(func(u UTXO) bool { return u.Address == address })
}

// Copy returns every utxo in the order they were added.
func (us *UTXOSet) Copy() []UTXO {
	return us.collect(func(UTXO) bool { return true })
}

// Clone returns an independent copy of the set preserving insertion order.
func (us *UTXOSet) Clone() *UTXOSet {
	clone := NewUTXOSet()
	for _, u := range us.Copy() {
		clone.Add(u)
	}
	return clone
}

// Apply settles the transaction against the set. Every input's utxo is
// removed and a new utxo is added for each output.
func (us *UTXOSet) Apply(tx Tx) {
	for _, in := range tx.Inputs {
		us.Remove(in.PrevTxID, in.OutputIndex)
	}

	for i, out := range tx.Outputs {
		us.Add(UTXO{
			TxID:        tx.ID,
			OutputIndex: i,
			Amount:      out.Amount,
			Address:     out.Address,
		})
	}
}

// collect returns the utxos that match the filter sorted by insertion.
func (us *UTXOSet) collect(match func(UTXO) bool) []UTXO {
	var entries []entry
	us.m.Iter(func(_ Outpoint, e entry) bool {
		if match(e.utxo) {
			entries = append(entries, e)
		}
		return false
	})

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].seq < entries[j].seq
	})

	utxos := make([]UTXO, len(entries))
	for i, e := range entries {
		utxos[i] = e.utxo
	}

	return utxos
}
