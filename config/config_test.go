package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deosha/hospital-coordicore/config"
)

func TestDefaultConfigValidates(t *testing.T) {
	require.NoError(t, config.DefaultConfig().Validate())
}

func TestLoadFillsDefaultsForMissingFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "node.yaml")
	require.NoError(t, writeFile(path, "node_id: node1\n"))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "node1", cfg.NodeID)
	require.Equal(t, 30*time.Second, cfg.Engine.Timeout)
	require.Equal(t, 3, cfg.Engine.MaxRounds)
	require.Equal(t, 50_000.0, cfg.Policy.MaxSinglePurchase)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "node.yaml")
	require.NoError(t, writeFile(path, "node_id: \"\"\n"))

	_, err := config.Load(path)
	require.Error(t, err)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "node.yaml")

	cfg := config.DefaultConfig()
	cfg.NodeID = "node7"
	cfg.Ledger.Difficulty = 4
	require.NoError(t, config.Save(cfg, path))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "node7", loaded.NodeID)
	require.Equal(t, 4, loaded.Ledger.Difficulty)
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Policy.MinConfidence = 1.5
	require.Error(t, cfg.Validate())

	cfg = config.DefaultConfig()
	cfg.Ledger.ConsensusDelayMax = 0
	cfg.Ledger.ConsensusDelayMin = time.Second
	require.Error(t, cfg.Validate())
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0600)
}
