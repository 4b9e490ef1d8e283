package signature

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // ripemd160 is required by the address format.
)

// Set of errors related to key material.
var (
	ErrMalformedKey     = errors.New("malformed key")
	ErrMalformedAddress = errors.New("malformed address")
)

// addressVersion is the network byte prefixed to the public key hash.
const addressVersion byte = 0x00

// checksumLength is the number of double sha256 bytes appended to the
// versioned public key hash.
const checksumLength = 4

// privateKeyLength is the number of random bytes drawn for a private key.
const privateKeyLength = 32

// maxKeyAttempts bounds the redraws when the random bytes fall outside the
// curve order. The chance of even one redraw is around 2^-128.
const maxKeyAttempts = 8

// =============================================================================

// Identity represents the key material for an account on the ledger.
type Identity struct {
	PrivateKey *ecdsa.PrivateKey
	PublicKey  []byte
	Address    string
}

// GenerateIdentity draws 32 random bytes for a new private key and derives
// the public key and address from it. An error here means the entropy source
// failed and callers should treat it as fatal.
func GenerateIdentity() (Identity, error) {
	b := make([]byte, privateKeyLength)

	for i := 0; i < maxKeyAttempts; i++ {
		if _, err := io.ReadFull(rand.Reader, b); err != nil {
			return Identity{}, fmt.Errorf("reading entropy: %w", err)
		}

		privateKey, err := crypto.ToECDSA(b)
		if err != nil {
			continue
		}

		return FromPrivateKey(privateKey)
	}

	return Identity{}, errors.New("unable to draw a valid private key")
}

// FromPrivateKey constructs the identity for an existing private key.
func FromPrivateKey(privateKey *ecdsa.PrivateKey) (Identity, error) {
	if privateKey == nil {
		return Identity{}, ErrMalformedKey
	}

	publicKey := crypto.FromECDSAPub(&privateKey.PublicKey)

	address, err := DeriveAddress(publicKey)
	if err != nil {
		return Identity{}, err
	}

	id := Identity{
		PrivateKey: privateKey,
		PublicKey:  publicKey,
		Address:    address,
	}

	return id, nil
}

// IdentityFromHex constructs the identity for a hex encoded private key.
func IdentityFromHex(privateKeyHex string) (Identity, error) {
	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %s", ErrMalformedKey, err)
	}

	return FromPrivateKey(privateKey)
}

// LoadIdentity reads the private key stored in the specified file.
func LoadIdentity(path string) (Identity, error) {
	privateKey, err := crypto.LoadECDSA(path)
	if err != nil {
		return Identity{}, err
	}

	return FromPrivateKey(privateKey)
}

// SaveIdentity writes the private key of the identity to the specified file.
func SaveIdentity(path string, id Identity) error {
	return crypto.SaveECDSA(path, id.PrivateKey)
}

// PrivateKeyHex returns the private key as a hex string.
func (id Identity) PrivateKeyHex() string {
	return hex.EncodeToString(crypto.FromECDSA(id.PrivateKey))
}

// PublicKeyHex returns the uncompressed public key as a hex string.
func (id Identity) PublicKeyHex() string {
	return hex.EncodeToString(id.PublicKey)
}

// =============================================================================

// DeriveAddress converts the encoded public key into an address using
// base58check(0x00 | ripemd160(sha256(publicKey))).
func DeriveAddress(publicKey []byte) (string, error) {
	if _, err := parsePublicKey(publicKey); err != nil {
		return "", err
	}

	sha := sha256.Sum256(publicKey)

	hasher := ripemd160.New() //nolint:gosec // required by the address format.
	hasher.Write(sha[:])
	hash160 := hasher.Sum(nil)

	versioned := make([]byte, 0, 1+len(hash160)+checksumLength)
	versioned = append(versioned, addressVersion)
	versioned = append(versioned, hash160...)
	versioned = append(versioned, checksum(versioned)...)

	return base58.Encode(versioned), nil
}

// DeriveAddressHex converts the hex encoded public key into an address.
func DeriveAddressHex(publicKeyHex string) (string, error) {
	publicKey, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrMalformedKey, err)
	}

	return DeriveAddress(publicKey)
}

// ValidateAddress checks the address decodes, carries the right version
// byte and has a matching checksum.
func ValidateAddress(address string) error {
	b, err := base58.Decode(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedAddress, err)
	}

	if len(b) != 1+ripemd160.Size+checksumLength {
		return fmt.Errorf("%w: invalid length %d", ErrMalformedAddress, len(b))
	}

	if b[0] != addressVersion {
		return fmt.Errorf("%w: invalid version %d", ErrMalformedAddress, b[0])
	}

	body := b[:len(b)-checksumLength]
	if !bytes.Equal(checksum(body), b[len(b)-checksumLength:]) {
		return fmt.Errorf("%w: checksum mismatch", ErrMalformedAddress)
	}

	return nil
}

// =============================================================================

// checksum returns the first four bytes of the double sha256 of the data.
func checksum(data []byte) []byte {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return second[:checksumLength]
}

// parsePublicKey accepts either the 65 byte uncompressed or the 33 byte
// compressed encoding of a secp256k1 point.
func parsePublicKey(publicKey []byte) (*ecdsa.PublicKey, error) {
	switch len(publicKey) {
	case 65:
		pk, err := crypto.UnmarshalPubkey(publicKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMalformedKey, err)
		}
		return pk, nil

	case 33:
		pk, err := crypto.DecompressPubkey(publicKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMalformedKey, err)
		}
		return pk, nil
	}

	return nil, fmt.Errorf("%w: invalid length %d", ErrMalformedKey, len(publicKey))
}
