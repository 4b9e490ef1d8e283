// Package selector provides different utxo selecting algorithms used to fund
// a new transaction.
package selector

import (
	"fmt"
	"strings"

	"github.com/dalyulbam/Class101LLL/foundation/blockchain/database"
)

// List of different select strategies.
const (
	StrategyFirstFit    = "first-fit"
	StrategyFewest      = "fewest"
	StrategyLeastChange = "least-change"
)

// Map of different select strategies with functions.
var strategies = map[string]Func{
	StrategyFirstFit:    firstFitSelect,
	StrategyFewest:      fewestSelect,
	StrategyLeastChange: leastChangeSelect,
}

// Func defines a function that takes the utxos owned by an address, in the
// order they were added, and selects a subset whose total covers the amount.
// When the utxos can't cover the amount the function returns what it picked
// and the caller checks the total. Selector functions must not modify the
// slice they are given.
type Func func(utxos []database.UTXO, amount float64) []database.UTXO

// Retrieve returns the specified select strategy function.
func Retrieve(strategy string) (Func, error) {
	fn, exists := strategies[strings.ToLower(strategy)]
	if !exists {
		return nil, fmt.Errorf("strategy %q does not exist", strategy)
	}
	return fn, nil
}

// Total returns the sum of the utxo amounts.
func Total(utxos []database.UTXO) float64 {
	var total float64
	for _, u := range utxos {
		total += u.Amount
	}
	return total
}

// =============================================================================

// byAmount provides sorting support by the utxo amount.
type byAmount []database.UTXO

// Len returns the number of utxos in the list.
func (ba byAmount) Len() int {
	return len(ba)
}

// Less helps to sort the list by amount in ascending order.
func (ba byAmount) Less(i, j int) bool {
	return ba[i].Amount < ba[j].Amount
}

// Swap moves utxos in the order of the amount value.
func (ba byAmount) Swap(i, j int) {
	ba[i], ba[j] = ba[j], ba[i]
}
