package selector

import (
	"sort"

	"github.com/dalyulbam/Class101LLL/foundation/blockchain/database"
)

// fewestSelect takes the largest utxos first so the amount is covered with
// the smallest number of inputs.
var fewestSelect = func(utxos []database.UTXO, amount float64) []database.UTXO {
	if amount <= 0 {
		return nil
	}

	sorted := make([]database.UTXO, len(utxos))
	copy(sorted, utxos)
	sort.Stable(sort.Reverse(byAmount(sorted)))

	return firstFitSelect(sorted, amount)
}
