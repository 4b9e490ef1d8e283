package selector

import (
	"sort"

	"github.com/dalyulbam/Class101LLL/foundation/blockchain/database"
)

// leastChangeSelect tries to keep the change output as small as possible.
// When one utxo can cover what is still needed, the smallest such utxo is
// taken and selection stops. Otherwise the largest utxo is taken and the
// search repeats for the remainder.
var leastChangeSelect = func(utxos []database.UTXO, amount float64) []database.UTXO {
	if amount <= 0 {
		return nil
	}

	sorted := make([]database.UTXO, len(utxos))
	copy(sorted, utxos)
	sort.Stable(byAmount(sorted))

	var selected []database.UTXO
	need := amount
	for len(sorted) > 0 {
		i := sort.Search(len(sorted), func(i int) bool {
			return sorted[i].Amount >= need
		})

		if i < len(sorted) {
			return append(selected, sorted[i])
		}

		largest := sorted[len(sorted)-1]
		selected = append(selected, largest)
		need -= largest.Amount
		sorted = sorted[:len(sorted)-1]
	}

	return selected
}
