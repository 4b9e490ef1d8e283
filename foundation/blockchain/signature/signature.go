// Package signature provides helper functions for handling the blockchain
// signature needs.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash represents the previous hash value recorded by the genesis block.
const ZeroHash string = "0"

// signatureLength is the length of the [R|S] signature stored on an input.
// The recovery id produced by the signer is not kept since the public key
// travels with every input.
const signatureLength = 64

// ledgerStamp is mixed into every digest that gets signed. This will make it
// clear that the signature was produced for this ledger and can't be replayed
// as a signature over some other raw message.
var ledgerStamp = []byte("\x19Ledger Signed Message:\n32")

// =============================================================================

// Hash returns a unique string for the value. The value is marshaled to JSON
// so the result is only as stable as the field order of the value's type.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	return HashBytes(data)
}

// HashBytes returns the hex encoded sha256 of the data.
func HashBytes(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Sign uses the specified private key to sign the payload. The signature is
// returned as a hex encoded [R|S] value.
func Sign(payload []byte, privateKey *ecdsa.PrivateKey) (string, error) {
	if privateKey == nil {
		return "", errors.New("private key is nil")
	}

	// Sign the stamped digest with the private key to produce a signature.
	sig, err := crypto.Sign(stamp(payload), privateKey)
	if err != nil {
		return "", fmt.Errorf("sign payload: %w", err)
	}

	// Check the signature against our own public key before handing it out.
	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.FromECDSAPub(&privateKey.PublicKey), stamp(payload), rs) {
		return "", errors.New("invalid signature")
	}

	return hex.EncodeToString(rs), nil
}

// Verify reports whether the hex encoded signature was produced over the
// payload by the private key that belongs to the hex encoded public key. Any
// malformed key or signature encoding yields false.
func Verify(payload []byte, publicKeyHex string, signatureHex string) bool {
	publicKey, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return false
	}

	if _, err := parsePublicKey(publicKey); err != nil {
		return false
	}

	sig, err := hex.DecodeString(signatureHex)
	if err != nil || len(sig) != signatureLength {
		return false
	}

	return crypto.VerifySignature(publicKey, stamp(payload), sig)
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents this payload with
// the ledger stamp embedded into the final hash.
func stamp(payload []byte) []byte {

	// Hash the payload into a 32 byte array. This will provide
	// a data length consistency with all data.
	payloadHash := sha256.Sum256(payload)

	// Hash the stamp and payload hash together in a final 32 byte array
	// that represents the payload.
	return crypto.Keccak256(ledgerStamp, payloadHash[:])
}
