package signature

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// ZeroHash represents a hash code of zeros. It is returned by Hash when a
// value can't be encoded and never satisfies a proof of work.
const ZeroHash string = "0000000000000000000000000000000000000000000000000000000000000000"

// Encode produces the canonical byte representation of the value. The value
// is marshaled to JSON and then normalized so the keys of every nested object
// are sorted and numbers keep their literal text. Two values that are equal
// as JSON documents always produce the same bytes.
func Encode(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	// Decoding into an empty interface turns every object into a map, which
	// the json package writes back out with sorted keys.
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}

	canonical, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("remarshal: %w", err)
	}

	return canonical, nil
}

// Hash returns the lowercase hex SHA-256 of the canonical encoding.
func Hash(value any) string {
	data, err := Encode(value)
	if err != nil {
		return ZeroHash
	}

	return HashBytes(data)
}

// HashBytes returns the lowercase hex SHA-256 of already encoded data.
func HashBytes(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
