package signature_test

import (
	"bytes"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/okilalu/Blockchain/foundation/blockchain/signature"
)

const (
	pkHexKey  = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	pkHexKey2 = "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0"
	from      = "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4"
)

// =============================================================================

func Test_Signing(t *testing.T) {
	value := map[string]any{
		"number": "CERT-001",
		"holder": "Bill",
	}

	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	sig, err := signature.Sign(value, pk)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	if !signature.Verify(value, &pk.PublicKey, sig) {
		t.Fatalf("Should be able to verify the signature.")
	}

	if addr := signature.Address(pk.PublicKey); addr != from {
		t.Logf("got: %s", addr)
		t.Logf("exp: %s", from)
		t.Fatalf("Should get back the right address.")
	}

	str := signature.SignatureString(sig)
	back, err := signature.ToSignatureBytes(str)
	if err != nil {
		t.Fatalf("Should be able to convert the signature string: %s", err)
	}
	if !bytes.Equal(back, sig) {
		t.Fatalf("Should get back the same signature bytes.")
	}

	pub, err := signature.ToPublicKey(signature.PublicKeyString(&pk.PublicKey))
	if err != nil {
		t.Fatalf("Should be able to convert the public key string: %s", err)
	}
	if !signature.Verify(value, pub, sig) {
		t.Fatalf("Should be able to verify with the decoded public key.")
	}
}

func Test_VerifyRejects(t *testing.T) {
	value := map[string]any{"number": "CERT-001", "holder": "Bill"}

	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}
	pk2, err := crypto.HexToECDSA(pkHexKey2)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	sig, err := signature.Sign(value, pk)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	tampered := map[string]any{"number": "CERT-001", "holder": "Jill"}
	if signature.Verify(tampered, &pk.PublicKey, sig) {
		t.Fatalf("Should not verify a changed payload.")
	}

	if signature.Verify(value, &pk2.PublicKey, sig) {
		t.Fatalf("Should not verify under a different key pair.")
	}

	flipped := bytes.Clone(sig)
	flipped[10] ^= 0xff
	if signature.Verify(value, &pk.PublicKey, flipped) {
		t.Fatalf("Should not verify a changed signature.")
	}

	if signature.Verify(value, &pk.PublicKey, sig[:10]) {
		t.Fatalf("Should not verify a truncated signature.")
	}

	if signature.Verify(value, nil, sig) {
		t.Fatalf("Should not verify without a public key.")
	}

	if signature.Verify(value, &pk.PublicKey, nil) {
		t.Fatalf("Should not verify without a signature.")
	}
}

func Test_Hash(t *testing.T) {
	value := struct {
		Name string
	}{
		Name: "Bill",
	}
	hash := "0f6887ac85101d6d6425a617edf35bd721b5f619fb92c36c3d2224e3bdb0ee5a"

	h := signature.Hash(value)
	if h != hash {
		t.Logf("got: %s", h)
		t.Logf("exp: %s", hash)
		t.Fatalf("Should get back the right hash: %s", h[:6])
	}

	h = signature.Hash(value)
	if h != hash {
		t.Logf("got: %s", h)
		t.Logf("exp: %s", hash)
		t.Fatalf("Should get back the same hash twice.")
	}
}

func Test_EncodeOrderIndependent(t *testing.T) {
	type ordered struct {
		Amount    int    `json:"amount"`
		Recipient string `json:"recipient"`
		Sender    string `json:"sender"`
	}
	type reversed struct {
		Sender    string `json:"sender"`
		Recipient string `json:"recipient"`
		Amount    int    `json:"amount"`
	}

	a := ordered{Amount: 5, Recipient: "bob", Sender: "alice"}
	b := reversed{Sender: "alice", Recipient: "bob", Amount: 5}
	c := map[string]any{"sender": "alice", "amount": 5, "recipient": "bob"}
	nested := []any{map[string]any{"z": map[string]any{"b": 2, "a": 1}, "y": []any{c}}}
	nestedSwap := []any{map[string]any{"y": []any{a}, "z": map[string]any{"a": 1, "b": 2}}}

	encA, err := signature.Encode(a)
	if err != nil {
		t.Fatalf("Should be able to encode: %s", err)
	}
	encB, err := signature.Encode(b)
	if err != nil {
		t.Fatalf("Should be able to encode: %s", err)
	}
	encC, err := signature.Encode(c)
	if err != nil {
		t.Fatalf("Should be able to encode: %s", err)
	}

	const exp = `{"amount":5,"recipient":"bob","sender":"alice"}`
	for i, enc := range [][]byte{encA, encB, encC} {
		if string(enc) != exp {
			t.Logf("got: %s", enc)
			t.Logf("exp: %s", exp)
			t.Fatalf("Should get the canonical encoding for value %d.", i)
		}
	}

	if signature.Hash(nested) != signature.Hash(nestedSwap) {
		t.Fatalf("Should get the same hash for nested values with different field order.")
	}

	if signature.Hash(a) == signature.Hash(map[string]any{"sender": "alice", "amount": 6, "recipient": "bob"}) {
		t.Fatalf("Should get a different hash when a value changes.")
	}
}

func Test_HashUnencodable(t *testing.T) {
	if h := signature.Hash(make(chan int)); h != signature.ZeroHash {
		t.Fatalf("Should get the zero hash for a value that can't be encoded, got %s", h)
	}
}
