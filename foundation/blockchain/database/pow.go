package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math"
	"strconv"

	"github.com/okilalu/Blockchain/foundation/blockchain/signature"
)

// MaxDifficulty is the number of hex characters in a hash.
const MaxDifficulty = 64

// ErrNonceExhausted is returned when every nonce was tried without a solution.
var ErrNonceExhausted = errors.New("nonce space exhausted")

// Candidate represents the inputs of the next block to be mined.
type Candidate struct {
	Index        uint64
	PreviousHash string
	TimeStamp    int64
	Records      []Record
	Difficulty   uint
}

// POW constructs a new Block and performs the work to find a nonce that
// solves the cryptographic POW puzzle. The search can be cancelled.
func POW(ctx context.Context, cand Candidate, evHandler func(v string, args ...any)) (Block, error) {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	evHandler("database: POW: MINING: started: blk[%d]: prevBlk[%s]: records[%d]", cand.Index, cand.PreviousHash, len(cand.Records))
	defer evHandler("database: POW: MINING: completed: blk[%d]", cand.Index)

	nonce, hash, err := mine(ctx, cand, evHandler)
	if err != nil {
		return Block{}, err
	}

	nb := Block{
		Index:        cand.Index,
		PreviousHash: cand.PreviousHash,
		TimeStamp:    cand.TimeStamp,
		Records:      normalize(cand.Records),
		Nonce:        nonce,
		Hash:         hash,
		Difficulty:   cand.Difficulty,
	}

	return nb, nil
}

// Mine scans the nonces in increasing order starting at zero and returns the
// first one whose hash satisfies the difficulty. Identical inputs always
// produce the same result.
func Mine(ctx context.Context, index uint64, previousHash string, timeStamp int64, records []Record, difficulty uint) (uint64, string, error) {
	cand := Candidate{
		Index:        index,
		PreviousHash: previousHash,
		TimeStamp:    timeStamp,
		Records:      records,
		Difficulty:   difficulty,
	}

	return mine(ctx, cand, func(string, ...any) {})
}

// VerifyPOW recomputes the hash for the inputs and checks it against the
// difficulty.
func VerifyPOW(index uint64, previousHash string, timeStamp int64, records []Record, nonce uint64, difficulty uint) bool {
	h, err := newHeaderHasher(index, previousHash, timeStamp, records)
	if err != nil {
		return false
	}

	return IsHashSolved(difficulty, h.hash(nonce))
}

// IsHashSolved checks the hash to make sure it complies with
// the POW rules. We need to match a difficulty number of 0's.
func IsHashSolved(difficulty uint, hash string) bool {
	if len(hash) != MaxDifficulty || difficulty > MaxDifficulty {
		return false
	}

	// The zero hash marks a value that couldn't be encoded.
	if hash == signature.ZeroHash {
		return false
	}

	for i := uint(0); i < difficulty; i++ {
		if hash[i] != '0' {
			return false
		}
	}

	return true
}

// =============================================================================

// mine performs the nonce search.
func mine(ctx context.Context, cand Candidate, ev func(v string, args ...any)) (uint64, string, error) {
	if cand.Difficulty > MaxDifficulty {
		return 0, "", errors.New("difficulty out of range")
	}

	h, err := newHeaderHasher(cand.Index, cand.PreviousHash, cand.TimeStamp, cand.Records)
	if err != nil {
		return 0, "", err
	}

	for nonce := uint64(0); ; nonce++ {
		if nonce > 0 && nonce%1_000_000 == 0 {
			ev("database: POW: MINING: attempts[%d]", nonce)
		}

		// Did we get cancelled trying to solve the problem.
		if err := ctx.Err(); err != nil {
			ev("database: POW: MINING: CANCELLED: attempts[%d]", nonce)
			return 0, "", err
		}

		hash := h.hash(nonce)
		if IsHashSolved(cand.Difficulty, hash) {
			ev("database: POW: MINING: SOLVED: nonce[%d]: hash[%s]", nonce, hash)
			return nonce, hash, nil
		}

		if nonce == math.MaxUint64 {
			return 0, "", ErrNonceExhausted
		}
	}
}

// headerHasher produces block hashes for different nonces without encoding
// the records again on every attempt. The bytes it hashes are exactly the
// canonical encoding of the block's hash payload, whose keys sort as
// index, nonce, previous_hash, records, timestamp.
type headerHasher struct {
	prefix []byte
	suffix []byte
	buf    []byte
}

func newHeaderHasher(index uint64, previousHash string, timeStamp int64, records []Record) (*headerHasher, error) {
	recs, err := signature.Encode(normalize(records))
	if err != nil {
		return nil, err
	}

	prev, err := json.Marshal(previousHash)
	if err != nil {
		return nil, err
	}

	prefix := []byte(`{"index":`)
	prefix = strconv.AppendUint(prefix, index, 10)
	prefix = append(prefix, `,"nonce":`...)

	suffix := []byte(`,"previous_hash":`)
	suffix = append(suffix, prev...)
	suffix = append(suffix, `,"records":`...)
	suffix = append(suffix, recs...)
	suffix = append(suffix, `,"timestamp":`...)
	suffix = strconv.AppendInt(suffix, timeStamp, 10)
	suffix = append(suffix, '}')

	h := headerHasher{
		prefix: prefix,
		suffix: suffix,
		buf:    make([]byte, 0, len(prefix)+20+len(suffix)),
	}

	return &h, nil
}

func (h *headerHasher) hash(nonce uint64) string {
	h.buf = append(h.buf[:0], h.prefix...)
	h.buf = strconv.AppendUint(h.buf, nonce, 10)
	h.buf = append(h.buf, h.suffix...)

	sum := sha256.Sum256(h.buf)
	return hex.EncodeToString(sum[:])
}

// normalize makes sure an empty set of records encodes as an empty list.
func normalize(records []Record) []Record {
	if records == nil {
		return []Record{}
	}
	return records
}
