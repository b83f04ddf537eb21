package database

import (
	"fmt"

	"github.com/okilalu/Blockchain/foundation/blockchain/signature"
)

// Record represents an application level payload batched into a block. It
// can be a transfer like {"sender", "recipient", "amount"} or any keyed
// document such as a certificate. A record is immutable once it's in a block.
type Record map[string]any

// Key returns the uniqueness key of the record held in the specified field.
// Records without the field, or with an empty value, carry no key.
func (r Record) Key(field string) (string, bool) {
	if field == "" {
		return "", false
	}

	v, exists := r[field]
	if !exists || v == nil {
		return "", false
	}

	// Any value that isn't a string is keyed by its canonical encoding so
	// the key is the same before and after the record is stored.
	var key string
	switch val := v.(type) {
	case string:
		key = val
	default:
		data, err := signature.Encode(val)
		if err != nil {
			return "", false
		}
		key = string(data)
	}

	if key == "" {
		return "", false
	}

	return key, true
}

// ID returns the hash of the record's canonical encoding. Two records with
// the same content have the same id.
func (r Record) ID() string {
	return signature.Hash(r)
}

// Validate checks the record can be canonically encoded.
func (r Record) Validate() error {
	if len(r) == 0 {
		return fmt.Errorf("record is empty")
	}

	if _, err := signature.Encode(r); err != nil {
		return fmt.Errorf("record can't be encoded: %w", err)
	}

	return nil
}
