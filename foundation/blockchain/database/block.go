package database

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/okilalu/Blockchain/foundation/blockchain/signature"
)

// GenesisPrevHash is the previous hash sentinel carried by the genesis block.
const GenesisPrevHash = "0"

// Set of errors returned when a block or chain fails validation.
var (
	ErrInvalidLink      = errors.New("invalid link")
	ErrInvalidProof     = errors.New("invalid proof")
	ErrInvalidSignature = signature.ErrInvalidSignature
)

// =============================================================================

// Block represents a group of records batched together.
type Block struct {
	Index        uint64   `json:"index"`         // Position of the block in the chain.
	PreviousHash string   `json:"previous_hash"` // Hash of the previous block in the chain.
	TimeStamp    int64    `json:"timestamp"`     // Time the block was assembled in unix milliseconds.
	Records      []Record `json:"records"`       // Records held by this block.
	Nonce        uint64   `json:"nonce"`         // Value identified to solve the hash solution.
	Hash         string   `json:"hash"`          // Hash of the fields above.
	Difficulty   uint     `json:"difficulty"`    // Number of 0's needed to solve the hash solution.
	Signature    string   `json:"signature"`     // Signature of the miner over the hashed fields.
	PublicKey    string   `json:"public_key"`    // Public key of the miner who signed the block.
}

// hashPayload represents the fields of a block that are hashed.
type hashPayload struct {
	Index        uint64   `json:"index"`
	PreviousHash string   `json:"previous_hash"`
	TimeStamp    int64    `json:"timestamp"`
	Records      []Record `json:"records"`
	Nonce        uint64   `json:"nonce"`
}

// signPayload represents the fields of a block that are signed. The declared
// difficulty is outside the hash so it has to be covered by the signature.
type signPayload struct {
	hashPayload
	Difficulty uint `json:"difficulty"`
}

// GenesisBlock returns the fixed first block of every chain. It isn't mined.
func GenesisBlock() Block {
	b := Block{
		Index:        0,
		PreviousHash: GenesisPrevHash,
		TimeStamp:    0,
		Records:      []Record{},
		Nonce:        0,
		Difficulty:   0,
	}
	b.Hash = b.CalculateHash()

	return b
}

// IsGenesis reports whether the block is exactly the fixed genesis block.
func (b Block) IsGenesis() bool {
	g := GenesisBlock()

	return b.Index == g.Index &&
		b.PreviousHash == g.PreviousHash &&
		b.TimeStamp == g.TimeStamp &&
		len(b.Records) == 0 &&
		b.Nonce == g.Nonce &&
		b.Difficulty == g.Difficulty &&
		b.Hash == g.Hash &&
		b.Signature == "" &&
		b.PublicKey == ""
}

// CalculateHash recomputes the hash of the block from its index, previous
// hash, timestamp, records and nonce.
func (b Block) CalculateHash() string {
	h, err := newHeaderHasher(b.Index, b.PreviousHash, b.TimeStamp, b.Records)
	if err != nil {
		return signature.ZeroHash
	}

	return h.hash(b.Nonce)
}

// Payload returns the value that is hashed for this block.
func (b Block) Payload() any {
	return b.hashPayload()
}

// SignPayload returns the value that is signed for this block.
func (b Block) SignPayload() any {
	return signPayload{
		hashPayload: b.hashPayload(),
		Difficulty:  b.Difficulty,
	}
}

func (b Block) hashPayload() hashPayload {
	return hashPayload{
		Index:        b.Index,
		PreviousHash: b.PreviousHash,
		TimeStamp:    b.TimeStamp,
		Records:      normalize(b.Records),
		Nonce:        b.Nonce,
	}
}

// VerifyPOW checks the stored hash matches the block's content and
// satisfies the block's declared difficulty.
func (b Block) VerifyPOW() error {
	hash := b.CalculateHash()
	if b.Hash != hash {
		return fmt.Errorf("%w: blk[%d]: stored hash %s, calculated %s", ErrInvalidProof, b.Index, b.Hash, hash)
	}

	if !IsHashSolved(b.Difficulty, hash) {
		return fmt.Errorf("%w: blk[%d]: hash %s doesn't solve difficulty %d", ErrInvalidProof, b.Index, hash, b.Difficulty)
	}

	return nil
}

// Sign signs the block's payload and difficulty with the private key and records the
// signature and public key on the block.
func (b Block) Sign(privateKey *ecdsa.PrivateKey) (Block, error) {
	sig, err := signature.Sign(b.SignPayload(), privateKey)
	if err != nil {
		return Block{}, err
	}

	b.Signature = signature.SignatureString(sig)
	b.PublicKey = signature.PublicKeyString(&privateKey.PublicKey)

	return b, nil
}

// VerifySignature checks the block carries a valid signature of its payload
// under the public key it carries.
func (b Block) VerifySignature() error {
	if b.Signature == "" || b.PublicKey == "" {
		return fmt.Errorf("%w: blk[%d]: block is not signed", ErrInvalidSignature, b.Index)
	}

	publicKey, err := signature.ToPublicKey(b.PublicKey)
	if err != nil {
		return fmt.Errorf("%w: blk[%d]: %s", ErrInvalidSignature, b.Index, err)
	}

	sig, err := signature.ToSignatureBytes(b.Signature)
	if err != nil {
		return fmt.Errorf("%w: blk[%d]: %s", ErrInvalidSignature, b.Index, err)
	}

	if !signature.Verify(b.SignPayload(), publicKey, sig) {
		return fmt.Errorf("%w: blk[%d]", ErrInvalidSignature, b.Index)
	}

	return nil
}

// Signer returns the address of the account that signed the block.
func (b Block) Signer() string {
	publicKey, err := signature.ToPublicKey(b.PublicKey)
	if err != nil {
		return ""
	}

	return signature.Address(*publicKey)
}

// ValidateNext checks the block can follow the previous block.
func (b Block) ValidateNext(previousBlock Block) error {
	nextIndex := previousBlock.Index + 1
	if b.Index != nextIndex {
		return fmt.Errorf("%w: this block is not the next index, got %d, exp %d", ErrInvalidLink, b.Index, nextIndex)
	}

	prevHash := previousBlock.CalculateHash()
	if b.PreviousHash != prevHash {
		return fmt.Errorf("%w: blk[%d]: previous hash doesn't match our known parent, got %s, exp %s", ErrInvalidLink, b.Index, b.PreviousHash, prevHash)
	}

	if b.TimeStamp < previousBlock.TimeStamp {
		return fmt.Errorf("%w: blk[%d]: block timestamp %d is before parent timestamp %d", ErrInvalidLink, b.Index, b.TimeStamp, previousBlock.TimeStamp)
	}

	if err := b.VerifyPOW(); err != nil {
		return err
	}

	return b.VerifySignature()
}
