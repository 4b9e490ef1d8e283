package database

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dalyulbam/Class101LLL/foundation/blockchain/signature"
)

// ErrIndexOutOfRange is returned when an input position does not exist on
// the transaction.
var ErrIndexOutOfRange = errors.New("input index out of range")

// coinbasePrefix is the prefix of the id given to mining reward transactions.
const coinbasePrefix = "coinbase_"

// =============================================================================

// TxInput references an unspent output being claimed along with the proof of
// ownership. Fields are declared in key order since the JSON encoding of this
// type is part of the signed payload.
type TxInput struct {
	OutputIndex int    `json:"output_index"` // Bitcoin: Index of the output in the previous transaction.
	PrevTxID    string `json:"prev_tx_id"`   // Bitcoin: Id of the transaction holding the output.
	PublicKey   string `json:"public_key"`   // Hex encoded public key of the spender.
	Signature   string `json:"signature"`    // Hex encoded [R|S] signature over the payload.
}

// Outpoint returns the output reference this input is claiming.
func (in TxInput) Outpoint() Outpoint {
	return Outpoint{TxID: in.PrevTxID, Index: in.OutputIndex}
}

// TxOutput represents value being assigned to an address. Fields are declared
// in key order since the JSON encoding of this type is part of the signed
// payload.
type TxOutput struct {
	Address string  `json:"address"` // Address receiving the value.
	Amount  float64 `json:"amount"`  // Value being received.
}

// =============================================================================

// Tx is the transfer of value from a set of unspent outputs to a new set of
// outputs.
type Tx struct {
	ID      string     `json:"tx_id"`
	Inputs  []TxInput  `json:"inputs"`
	Outputs []TxOutput `json:"outputs"`
}

// NewTx constructs a transaction and computes its id. The inputs are expected
// to be unsigned, use SignInput once the transaction is constructed.
func NewTx(inputs []TxInput, outputs []TxOutput) (Tx, error) {
	for i, out := range outputs {
		if out.Amount < 0 {
			return Tx{}, fmt.Errorf("output[%d] has a negative amount %v", i, out.Amount)
		}
	}

	if inputs == nil {
		inputs = []TxInput{}
	}
	if outputs == nil {
		outputs = []TxOutput{}
	}

	id, err := ComputeID(inputs, outputs)
	if err != nil {
		return Tx{}, err
	}

	tx := Tx{
		ID:      id,
		Inputs:  inputs,
		Outputs: outputs,
	}

	return tx, nil
}

// NewCoinbaseTx constructs the reward transaction for the block at the
// specified index. It has no inputs and an id that is unique per block.
func NewCoinbaseTx(index uint64, beneficiary string, reward float64) Tx {
	return Tx{
		ID:      fmt.Sprintf("%s%d", coinbasePrefix, index),
		Inputs:  []TxInput{},
		Outputs: []TxOutput{{Address: beneficiary, Amount: reward}},
	}
}

// ComputeID returns the content hash of the transaction with every signature
// field blanked. The id never depends on the signatures it will carry.
func ComputeID(inputs []TxInput, outputs []TxOutput) (string, error) {
	blanked := make([]TxInput, len(inputs))
	for i, in := range inputs {
		in.Signature = ""
		blanked[i] = in
	}

	data, err := encodePayload(blanked, outputs)
	if err != nil {
		return "", err
	}

	return signature.HashBytes(data), nil
}

// IsCoinbase reports whether this is a mining reward transaction.
func (tx Tx) IsCoinbase() bool {
	return len(tx.Inputs) == 0
}

// SigningPayload returns the canonical bytes signed for the input at the
// specified index. Every signature is blanked so signing one input never
// changes the payload of another.
func (tx Tx) SigningPayload(index int) ([]byte, error) {
	if index < 0 || index >= len(tx.Inputs) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(tx.Inputs))
	}

	inputs := make([]TxInput, len(tx.Inputs))
	for i, in := range tx.Inputs {
		in.Signature = ""
		inputs[i] = in
	}

	return encodePayload(inputs, tx.Outputs)
}

// SignInput signs the payload for the input at the specified index and
// stores the signature into that input.
func (tx *Tx) SignInput(index int, privateKey *ecdsa.PrivateKey) error {
	payload, err := tx.SigningPayload(index)
	if err != nil {
		return err
	}

	sig, err := signature.Sign(payload, privateKey)
	if err != nil {
		return err
	}

	tx.Inputs[index].Signature = sig

	return nil
}

// VerifyInput checks the input at the specified index is authorized to spend
// the utxo. The address of the stated public key must own the utxo and the
// signature must match the payload. Malformed data yields false.
func (tx Tx) VerifyInput(index int, utxo UTXO) bool {
	payload, err := tx.SigningPayload(index)
	if err != nil {
		return false
	}

	in := tx.Inputs[index]

	address, err := signature.DeriveAddressHex(in.PublicKey)
	if err != nil || address != utxo.Address {
		return false
	}

	return signature.Verify(payload, in.PublicKey, in.Signature)
}

// TotalOutput returns the sum of all the output amounts.
func (tx Tx) TotalOutput() float64 {
	var total float64
	for _, out := range tx.Outputs {
		total += out.Amount
	}
	return total
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s:%d:%d", tx.ID, len(tx.Inputs), len(tx.Outputs))
}

// =============================================================================

// payload represents the canonical form of a transaction used for the id and
// signatures. The JSON keys are in sorted order and changing them breaks every
// existing signature.
type payload struct {
	Inputs  []TxInput  `json:"inputs"`
	Outputs []TxOutput `json:"outputs"`
}

// encodePayload produces the canonical bytes for the inputs and outputs.
func encodePayload(inputs []TxInput, outputs []TxOutput) ([]byte, error) {
	if inputs == nil {
		inputs = []TxInput{}
	}
	if outputs == nil {
		outputs = []TxOutput{}
	}

	data, err := json.Marshal(payload{Inputs: inputs, Outputs: outputs})
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}

	return data, nil
}
