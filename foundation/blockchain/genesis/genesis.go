// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Default values for a ledger started without a genesis file.
const (
	DefaultDifficulty   = 4
	DefaultMiningReward = 10
)

// defaultDate is the genesis date used when no genesis file exists. It is
// fixed so the genesis block hash is the same on every start.
var defaultDate = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Genesis represents the genesis file.
type Genesis struct {
	Date         time.Time `json:"date"`          // Timestamp recorded by the genesis block.
	Difficulty   uint16    `json:"difficulty"`    // Number of leading hex zeros the proof hash needs.
	MiningReward float64   `json:"mining_reward"` // Reward paid by the coinbase of every mined block.
	MaxTrials    uint64    `json:"max_trials"`    // Proof of work trial budget per block, 0 means unbounded.
}

// =============================================================================

// Default returns the genesis values used by the original ledger.
func Default() Genesis {
	return Genesis{
		Date:         defaultDate,
		Difficulty:   DefaultDifficulty,
		MiningReward: DefaultMiningReward,
	}
}

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("decoding genesis: %w", err)
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Validate checks the genesis values are usable.
func (g Genesis) Validate() error {
	if g.Difficulty > 64 {
		return fmt.Errorf("difficulty %d is larger than the hash length", g.Difficulty)
	}

	if g.MiningReward < 0 {
		return fmt.Errorf("mining reward %v is negative", g.MiningReward)
	}

	return nil
}
