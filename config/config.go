// Package config loads the YAML configuration for a coordination node: the
// negotiation engine's timing, the ledger's block/consensus parameters, and
// the policy validator's thresholds. DefaultConfig, Load, Validate, Save —
// backed by gopkg.in/yaml.v3.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EngineConfig holds the coordination engine's negotiation timing.
type EngineConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	MaxRounds int           `yaml:"max_rounds"`
}

// LedgerConfig holds the ledger's block-production parameters.
type LedgerConfig struct {
	BatchSize         int           `yaml:"batch_size"`
	Difficulty        int           `yaml:"difficulty"`
	ConsensusDelayMin time.Duration `yaml:"consensus_delay_min"`
	ConsensusDelayMax time.Duration `yaml:"consensus_delay_max"`
}

// PolicyConfig holds the smart-contract validator's thresholds.
type PolicyConfig struct {
	MaxSinglePurchase float64 `yaml:"max_single_purchase"`
	MinConfidence     float64 `yaml:"min_confidence"`
}

// Config holds all node configuration.
type Config struct {
	NodeID string       `yaml:"node_id"`
	Engine EngineConfig `yaml:"engine"`
	Ledger LedgerConfig `yaml:"ledger"`
	Policy PolicyConfig `yaml:"policy"`
}

// DefaultConfig returns a single-node development configuration matching
// the ledger and coordination packages' own DefaultConfig/withDefaults
// values, so a zero-value Config{} loaded from an empty or partial file
// still behaves sensibly.
func DefaultConfig() *Config {
	return &Config{
		NodeID: "node0",
		Engine: EngineConfig{
			Timeout:   30 * time.Second,
			MaxRounds: 3,
		},
		Ledger: LedgerConfig{
			BatchSize:         10,
			Difficulty:        2,
			ConsensusDelayMin: 100 * time.Millisecond,
			ConsensusDelayMax: 250 * time.Millisecond,
		},
		Policy: PolicyConfig{
			MaxSinglePurchase: 50_000,
			MinConfidence:     0.70,
		},
	}
}

// Load reads a YAML config file from path and validates required fields.
// Fields absent from the file keep DefaultConfig's values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required fields are present and well-formed.
func (c *Config) Validate() error {
	if c.NodeID == "" {
		return fmt.Errorf("node_id must not be empty")
	}
	if c.Engine.Timeout <= 0 {
		return fmt.Errorf("engine.timeout must be positive")
	}
	if c.Engine.MaxRounds <= 0 {
		return fmt.Errorf("engine.max_rounds must be positive")
	}
	if c.Ledger.BatchSize <= 0 {
		return fmt.Errorf("ledger.batch_size must be positive")
	}
	if c.Ledger.Difficulty < 0 {
		return fmt.Errorf("ledger.difficulty must not be negative")
	}
	if c.Ledger.ConsensusDelayMin < 0 || c.Ledger.ConsensusDelayMax < c.Ledger.ConsensusDelayMin {
		return fmt.Errorf("ledger.consensus_delay_max must be >= consensus_delay_min >= 0")
	}
	if c.Policy.MaxSinglePurchase <= 0 {
		return fmt.Errorf("policy.max_single_purchase must be positive")
	}
	if c.Policy.MinConfidence < 0 || c.Policy.MinConfidence > 1 {
		return fmt.Errorf("policy.min_confidence must be between 0 and 1")
	}
	return nil
}

// Save writes the config to path as YAML.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
