// Package commands contains the functionality for the set of commands
// currently supported by the admin tool.
package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/dalyulbam/Class101LLL/foundation/blockchain/database"
)

// Balances writes the balance of every address holding unspent outputs, or
// only the specified address.
func Balances(w io.Writer, address string, db *database.Database) error {
	fmt.Fprintf(w, "LatestBlockHash: %s\n\n", db.LatestBlock().Hash())

	if address != "" {
		fmt.Fprintf(w, "Address: %s  Balance: %v\n", address, db.UTXOs().Balance(address))
		return nil
	}

	bals := make(map[string]float64)
	for _, u := range db.UTXOs().Copy() {
		bals[u.Address] += u.Amount
	}

	addresses := make([]string, 0, len(bals))
	for addr := range bals {
		addresses = append(addresses, addr)
	}
	sort.Strings(addresses)

	for _, addr := range addresses {
		fmt.Fprintf(w, "Address: %s  Balance: %v\n", addr, bals[addr])
	}

	fmt.Fprintf(w, "\nSupply: %v\n", db.UTXOs().Total())

	return nil
}
