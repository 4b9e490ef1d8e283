package state

import (
	"crypto/ecdsa"
	"fmt"
	"math"

	"github.com/dalyulbam/Class101LLL/foundation/blockchain/database"
	"github.com/dalyulbam/Class101LLL/foundation/blockchain/selector"
	"github.com/dalyulbam/Class101LLL/foundation/blockchain/signature"
)

// CreateTransaction builds a transaction moving amount from the sender to the
// receiver, funded by utxos owned by the sender and picked by the configured
// select strategy. A change output returns any surplus to the sender. Every
// input is signed with the sender key. The transaction is not admitted.
func (s *State) CreateTransaction(sender string, receiver string, amount float64, senderKey *ecdsa.PrivateKey) (database.Tx, error) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return database.Tx{}, fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}

	if receiver == "" {
		return database.Tx{}, fmt.Errorf("%w: empty receiver", ErrInvalidAddress)
	}

	id, err := signature.FromPrivateKey(senderKey)
	if err != nil {
		return database.Tx{}, err
	}

	if id.Address != sender {
		return database.Tx{}, fmt.Errorf("%w: key belongs to %s, not %s", ErrInvalidAddress, id.Address, sender)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	owned := s.db.UTXOs().UTXOsFor(sender)
	if total := selector.Total(owned); total < amount {
		return database.Tx{}, fmt.Errorf("%w: balance %v, amount %v", ErrInsufficientFunds, total, amount)
	}

	selected := s.selectFn(owned, amount)
	total := selector.Total(selected)
	if total < amount {
		return database.Tx{}, fmt.Errorf("%w: selected %v, amount %v", ErrInsufficientFunds, total, amount)
	}

	publicKeyHex := id.PublicKeyHex()

	inputs := make([]database.TxInput, len(selected))
	for i, u := range selected {
		inputs[i] = database.TxInput{
			OutputIndex: u.OutputIndex,
			PrevTxID:    u.TxID,
			PublicKey:   publicKeyHex,
		}
	}

	outputs := []database.TxOutput{
		{Address: receiver, Amount: amount},
	}
	if change := total - amount; change > 0 {
		outputs = append(outputs, database.TxOutput{Address: sender, Amount: change})
	}

	tx, err := database.NewTx(inputs, outputs)
	if err != nil {
		return database.Tx{}, err
	}

	for i := range tx.Inputs {
		if err := tx.SignInput(i, senderKey); err != nil {
			return database.Tx{}, err
		}
	}

	s.evHandler("state: CreateTransaction: tx[%s]: from[%s]: to[%s]: amount[%v]: inputs[%d]", tx.ID, sender, receiver, amount, len(inputs))

	return tx, nil
}

// Admit validates the transaction against the current utxo set and adds it
// to the pending queue. A rejected transaction returns false and leaves the
// queue unchanged.
func (s *State) Admit(tx database.Tx) bool {
	return s.AdmitErr(tx) == nil
}

// AdmitErr performs the same work as Admit, returning the reason for a
// rejection wrapped in ErrRejectedTransaction.
func (s *State) AdmitErr(tx database.Tx) error {
	s.mu.Lock()

	if err := validateTransaction(s.db.UTXOs(), tx); err != nil {
		s.mu.Unlock()
		s.evHandler("state: AdmitErr: tx[%s]: REJECTED: %s", tx.ID, err)
		return err
	}

	n := s.mempool.Upsert(tx)
	s.mu.Unlock()

	s.evHandler("viewer: tx[%s] admitted: pending[%d]", tx.ID, n)

	if s.Worker != nil {
		s.Worker.SignalStartMining()
	}

	return nil
}

// Fee returns the surplus of the inputs over the outputs of the transaction.
// The surplus is not paid to anyone when the transaction is mined.
func (s *State) Fee(tx database.Tx) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	in, err := inputTotal(s.db.UTXOs(), tx)
	if err != nil {
		return 0, err
	}

	return in - tx.TotalOutput(), nil
}

// =============================================================================

// validateTransaction applies the admission rules for a transaction against
// the specified utxo set.
func validateTransaction(utxos *database.UTXOSet, tx database.Tx) error {
	if len(tx.Inputs) == 0 {
		return fmt.Errorf("%w: transaction has no inputs", ErrRejectedTransaction)
	}

	id, err := database.ComputeID(tx.Inputs, tx.Outputs)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRejectedTransaction, err)
	}

	if id != tx.ID {
		return fmt.Errorf("%w: id %s does not match the content %s", ErrRejectedTransaction, tx.ID, id)
	}

	for i, out := range tx.Outputs {
		if out.Amount < 0 || math.IsNaN(out.Amount) || math.IsInf(out.Amount, 0) {
			return fmt.Errorf("%w: output[%d] has an invalid amount %v", ErrRejectedTransaction, i, out.Amount)
		}
	}

	in, err := inputTotal(utxos, tx)
	if err != nil {
		return err
	}

	for i, input := range tx.Inputs {
		utxo, _ := utxos.Get(input.PrevTxID, input.OutputIndex)
		if !tx.VerifyInput(i, utxo) {
			return fmt.Errorf("%w: input[%d] signature does not verify", ErrRejectedTransaction, i)
		}
	}

	if out := tx.TotalOutput(); in < out {
		return fmt.Errorf("%w: inputs %v are less than outputs %v", ErrRejectedTransaction, in, out)
	}

	return nil
}

// inputTotal sums the amounts of the utxos the transaction inputs claim.
// Every input must reference an existing utxo and no utxo may be claimed
// twice.
func inputTotal(utxos *database.UTXOSet, tx database.Tx) (float64, error) {
	seen := make(map[database.Outpoint]struct{}, len(tx.Inputs))

	var total float64
	for i, input := range tx.Inputs {
		op := input.Outpoint()
		if _, exists := seen[op]; exists {
			return 0, fmt.Errorf("%w: input[%d] claims %s twice", ErrRejectedTransaction, i, op)
		}
		seen[op] = struct{}{}

		utxo, exists := utxos.Get(op.TxID, op.Index)
		if !exists {
			return 0, fmt.Errorf("%w: input[%d] references missing utxo %s", ErrRejectedTransaction, i, op)
		}

		total += utxo.Amount
	}

	return total, nil
}
