package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/deosha/hospital-coordicore/metrics"
)

func TestNewRegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := metrics.New(reg)
	require.NoError(t, err)

	c.IncBlocksMined()
	c.IncTxSubmitted()
	c.IncTxValidated()
	c.SetPending(3)
	c.SetChainValid(true)
	c.IncSessionStarted()
	c.IncSessionCompleted()
	c.IncSessionFailed("FAILED")
	c.ObserveRounds(2)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	require.True(t, names["ledger_blocks_mined_total"])
	require.True(t, names["coordination_sessions_failed_total"])
}

func TestNilCollectorsAreSafeToCall(t *testing.T) {
	var c *metrics.Collectors
	require.NotPanics(t, func() {
		c.IncBlocksMined()
		c.IncTxSubmitted()
		c.IncTxValidated()
		c.IncTxRejected()
		c.SetPending(0)
		c.SetChainValid(false)
		c.IncSessionStarted()
		c.IncSessionCompleted()
		c.IncSessionFailed("TIMEOUT")
		c.ObserveRounds(1)
	})
}

func TestDuplicateRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := metrics.New(reg)
	require.NoError(t, err)
	_, err = metrics.New(reg)
	require.Error(t, err)
}
