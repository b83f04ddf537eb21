// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/okilalu/Blockchain/foundation/blockchain/database"
)

// Set of default values applied when the genesis file leaves them out.
const (
	DefaultDifficulty = 4
	DefaultKeyField   = "number"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date            time.Time `json:"date"`
	Difficulty      uint      `json:"difficulty"`        // How difficult it needs to be to solve the work problem.
	KeyField        string    `json:"key_field"`         // Record field holding the uniqueness key.
	RecordsPerBlock int       `json:"records_per_block"` // The maximum number of records in a block, 0 means no limit.
}

// Default returns the genesis values used when no file is provided.
func Default() Genesis {
	return Genesis{
		Difficulty: DefaultDifficulty,
		KeyField:   DefaultKeyField,
	}
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	genesis := Default()
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Validate checks the genesis values are usable.
func (g Genesis) Validate() error {
	if g.Difficulty > database.MaxDifficulty {
		return fmt.Errorf("difficulty %d is larger than %d", g.Difficulty, database.MaxDifficulty)
	}

	if g.RecordsPerBlock < 0 {
		return fmt.Errorf("records per block %d can't be negative", g.RecordsPerBlock)
	}

	return nil
}
