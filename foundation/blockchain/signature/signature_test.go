package signature_test

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/dalyulbam/Class101LLL/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	pkHexKey    = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	otherHexKey = "9f332e3700d8fc2446eaf6d15034cf96e0c2745e40353deef032a5dbf1dfed93"

	// The well known addresses for the private key with a value of one.
	oneHexKey         = "0000000000000000000000000000000000000000000000000000000000000001"
	oneAddress        = "1EHNa6Q4Jz2uvNExL497mE43ikXhwF6kZm"
	oneAddressCompact = "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH"
)

// =============================================================================

func Test_Signing(t *testing.T) {
	payload := []byte(`{"inputs":[],"outputs":[{"address":"bill","amount":3}]}`)

	t.Log("Given the need to sign and verify a payload.")
	{
		id, err := signature.IdentityFromHex(pkHexKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct an identity: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to construct an identity.", success)

		sig, err := signature.Sign(payload, id.PrivateKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign data: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to sign data.", success)

		if !signature.Verify(payload, id.PublicKeyHex(), sig) {
			t.Fatalf("\t%s\tShould be able to verify the signature.", failed)
		}
		t.Logf("\t%s\tShould be able to verify the signature.", success)

		if signature.Verify([]byte(`{"inputs":[]}`), id.PublicKeyHex(), sig) {
			t.Fatalf("\t%s\tShould reject the signature for a different payload.", failed)
		}
		t.Logf("\t%s\tShould reject the signature for a different payload.", success)

		other, err := signature.IdentityFromHex(otherHexKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct a second identity: %s", failed, err)
		}

		if signature.Verify(payload, other.PublicKeyHex(), sig) {
			t.Fatalf("\t%s\tShould reject the signature for a different public key.", failed)
		}
		t.Logf("\t%s\tShould reject the signature for a different public key.", success)
	}
}

func Test_VerifyMalformed(t *testing.T) {
	payload := []byte("payload")

	id, err := signature.IdentityFromHex(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to construct an identity: %s", err)
	}

	sig, err := signature.Sign(payload, id.PrivateKey)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	tt := []struct {
		name      string
		publicKey string
		sig       string
	}{
		{name: "empty", publicKey: "", sig: ""},
		{name: "nothex-key", publicKey: "zz", sig: sig},
		{name: "short-key", publicKey: id.PublicKeyHex()[:20], sig: sig},
		{name: "offcurve-key", publicKey: "04" + hex.EncodeToString(make([]byte, 64)), sig: sig},
		{name: "nothex-sig", publicKey: id.PublicKeyHex(), sig: "xyz"},
		{name: "short-sig", publicKey: id.PublicKeyHex(), sig: sig[:10]},
		{name: "zero-sig", publicKey: id.PublicKeyHex(), sig: hex.EncodeToString(make([]byte, 64))},
	}

	t.Log("Given the need to treat malformed input as a failed verification.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				if signature.Verify(payload, tst.publicKey, tst.sig) {
					t.Fatalf("\t%s\tTest %d:\tShould not verify.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould not verify.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_Hash(t *testing.T) {
	value := struct {
		Name string
	}{
		Name: "Bill",
	}

	t.Log("Given the need to hash a value consistently.")
	{
		h1 := signature.Hash(value)
		h2 := signature.Hash(value)

		if len(h1) != 64 {
			t.Fatalf("\t%s\tShould get back a 64 character hash: %d", failed, len(h1))
		}
		t.Logf("\t%s\tShould get back a 64 character hash.", success)

		if h1 != h2 {
			t.Logf("\t%s\tgot: %s", failed, h2)
			t.Logf("\t%s\texp: %s", failed, h1)
			t.Fatalf("\t%s\tShould get back the same hash twice.", failed)
		}
		t.Logf("\t%s\tShould get back the same hash twice.", success)
	}
}

func Test_Address(t *testing.T) {
	t.Log("Given the need to derive addresses from public keys.")
	{
		pk, err := crypto.HexToECDSA(oneHexKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load the private key: %s", failed, err)
		}

		addr, err := signature.DeriveAddress(crypto.FromECDSAPub(&pk.PublicKey))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to derive the address: %s", failed, err)
		}

		if addr != oneAddress {
			t.Logf("\t%s\tgot: %s", failed, addr)
			t.Logf("\t%s\texp: %s", failed, oneAddress)
			t.Fatalf("\t%s\tShould get back the right uncompressed address.", failed)
		}
		t.Logf("\t%s\tShould get back the right uncompressed address.", success)

		addr, err = signature.DeriveAddress(crypto.CompressPubkey(&pk.PublicKey))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to derive the compressed address: %s", failed, err)
		}

		if addr != oneAddressCompact {
			t.Logf("\t%s\tgot: %s", failed, addr)
			t.Logf("\t%s\texp: %s", failed, oneAddressCompact)
			t.Fatalf("\t%s\tShould get back the right compressed address.", failed)
		}
		t.Logf("\t%s\tShould get back the right compressed address.", success)

		if err := signature.ValidateAddress(oneAddress); err != nil {
			t.Fatalf("\t%s\tShould validate the address: %s", failed, err)
		}
		t.Logf("\t%s\tShould validate the address.", success)

		broken := oneAddress[:len(oneAddress)-1] + "n"
		if err := signature.ValidateAddress(broken); !errors.Is(err, signature.ErrMalformedAddress) {
			t.Fatalf("\t%s\tShould reject an address with a bad checksum: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject an address with a bad checksum.", success)

		if _, err := signature.DeriveAddress([]byte{0x04, 0x01}); !errors.Is(err, signature.ErrMalformedKey) {
			t.Fatalf("\t%s\tShould get a malformed key error: %v", failed, err)
		}
		t.Logf("\t%s\tShould get a malformed key error.", success)
	}
}

func Test_GenerateIdentity(t *testing.T) {
	t.Log("Given the need to generate new identities.")
	{
		id1, err := signature.GenerateIdentity()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to generate an identity: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to generate an identity.", success)

		id2, err := signature.GenerateIdentity()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to generate a second identity: %s", failed, err)
		}

		if id1.Address == id2.Address {
			t.Fatalf("\t%s\tShould get two different addresses.", failed)
		}
		t.Logf("\t%s\tShould get two different addresses.", success)

		if len(id1.PublicKey) != 65 || id1.PublicKey[0] != 0x04 {
			t.Fatalf("\t%s\tShould get an uncompressed public key.", failed)
		}
		t.Logf("\t%s\tShould get an uncompressed public key.", success)

		addr, err := signature.DeriveAddressHex(id1.PublicKeyHex())
		if err != nil || addr != id1.Address {
			t.Fatalf("\t%s\tShould derive the same address from the public key: %v", failed, err)
		}
		t.Logf("\t%s\tShould derive the same address from the public key.", success)

		back, err := signature.IdentityFromHex(id1.PrivateKeyHex())
		if err != nil || back.Address != id1.Address {
			t.Fatalf("\t%s\tShould round trip the private key through hex: %v", failed, err)
		}
		t.Logf("\t%s\tShould round trip the private key through hex.", success)
	}
}
