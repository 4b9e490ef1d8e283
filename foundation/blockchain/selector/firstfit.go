package selector

import "github.com/dalyulbam/Class101LLL/foundation/blockchain/database"

// firstFitSelect walks the utxos in the order they were added and takes each
// one until the amount is covered.
var firstFitSelect = func(utxos []database.UTXO, amount float64) []database.UTXO {
	if amount <= 0 {
		return nil
	}

	var selected []database.UTXO
	var total float64
	for _, u := range utxos {
		selected = append(selected, u)
		total += u.Amount
		if total >= amount {
			break
		}
	}

	return selected
}
