// Package signature provides helper functions for handling the ledger's
// canonical encoding, hashing, and signature needs.
package signature

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrInvalidSignature is returned when a signature doesn't verify against
// the payload and public key it was presented with.
var ErrInvalidSignature = errors.New("invalid signature")

// =============================================================================

// Sign uses the specified private key to sign the canonical encoding of the
// value. The 65 byte [R|S|V] signature is returned.
func Sign(value any, privateKey *ecdsa.PrivateKey) ([]byte, error) {

	// Prepare the data for signing.
	data, err := stamp(value)
	if err != nil {
		return nil, err
	}

	// Sign the hash with the private key to produce a signature.
	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return nil, err
	}

	// Check the public key extracted from the data and signature.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return nil, err
	}

	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), data, sig[:crypto.RecoveryIDOffset]) {
		return nil, ErrInvalidSignature
	}

	return sig, nil
}

// Verify reports whether sig is a valid signature of the value under the
// public key. Malformed input of any kind reports false.
func Verify(value any, publicKey *ecdsa.PublicKey, sig []byte) bool {
	if publicKey == nil || len(sig) != crypto.SignatureLength {
		return false
	}

	data, err := stamp(value)
	if err != nil {
		return false
	}

	// VerifySignature wants the 64 byte [R|S] form without the recovery id.
	return crypto.VerifySignature(crypto.FromECDSAPub(publicKey), data, sig[:crypto.RecoveryIDOffset])
}

// =============================================================================

// PublicKeyString returns the hex encoding of the uncompressed public key.
func PublicKeyString(publicKey *ecdsa.PublicKey) string {
	return hexutil.Encode(crypto.FromECDSAPub(publicKey))
}

// ToPublicKey converts the hex encoding produced by PublicKeyString back
// into a public key.
func ToPublicKey(pubStr string) (*ecdsa.PublicKey, error) {
	data, err := hexutil.Decode(pubStr)
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}

	publicKey, err := crypto.UnmarshalPubkey(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal public key: %w", err)
	}

	return publicKey, nil
}

// SignatureString returns the signature as a hex string.
func SignatureString(sig []byte) string {
	return hexutil.Encode(sig)
}

// ToSignatureBytes converts the hex representation of the signature back
// into its bytes.
func ToSignatureBytes(sigStr string) ([]byte, error) {
	sig, err := hexutil.Decode(sigStr)
	if err != nil {
		return nil, err
	}

	if len(sig) != crypto.SignatureLength {
		return nil, fmt.Errorf("signature length %d, exp %d", len(sig), crypto.SignatureLength)
	}

	return sig, nil
}

// Address returns the account style address for the public key. It gives
// operators a short name for a signer.
func Address(publicKey ecdsa.PublicKey) string {
	return crypto.PubkeyToAddress(publicKey).String()
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents this data with
// the ledger stamp embedded into the final hash.
func stamp(value any) ([]byte, error) {

	// Produce the canonical form so every node signs the same bytes.
	v, err := Encode(value)
	if err != nil {
		return nil, err
	}

	// Hash the data into a 32 byte array. This will provide
	// a data length consistency with all data.
	payloadHash := crypto.Keccak256(v)

	// This stamp is used so signatures we produce when signing data
	// are always unique to this ledger.
	stamp := []byte("\x19Ledger Signed Message:\n32")

	// Hash the stamp and payloadHash together in a final 32 byte array
	// that represents the data.
	return crypto.Keccak256(stamp, payloadHash), nil
}
