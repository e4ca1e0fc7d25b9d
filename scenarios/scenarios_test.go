// Package scenarios_test runs the coordination engine, ledger, metrics,
// events, and index together as a caller would wire them, and asserts the
// seven end-to-end scenarios by their final state, round count, and ledger
// effect. coordination/engine_test.go covers the same scenarios as
// narrower, coordination-only unit tests; this package is the full-stack
// check that the wiring in cmd/demo's shape actually produces the right
// observable outcome.
package scenarios_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/deosha/hospital-coordicore/agents"
	"github.com/deosha/hospital-coordicore/coordination"
	"github.com/deosha/hospital-coordicore/events"
	"github.com/deosha/hospital-coordicore/index"
	"github.com/deosha/hospital-coordicore/internal/testutil"
	"github.com/deosha/hospital-coordicore/ledger"
	"github.com/deosha/hospital-coordicore/ledger/policy"
	"github.com/deosha/hospital-coordicore/metrics"
)

type rig struct {
	registry *agents.Registry
	ledger   *ledger.Ledger
	engine   *coordination.Engine
	idx      *index.Index
	emitter  *events.Emitter
}

func newRig(t *testing.T, engineCfg coordination.Config, ledgerCfg ledger.Config) *rig {
	t.Helper()
	collectors, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)

	emitter := events.NewEmitter(nil)
	idx := index.New()
	index.Subscribe(idx, emitter)

	registry := agents.NewRegistry()

	ledgerCfg.Metrics = collectors
	ledgerCfg.Emitter = emitter
	if ledgerCfg.Validator == nil {
		ledgerCfg.Validator = policy.NewValidator(policy.DefaultConfig())
	}
	led, err := ledger.NewLedger(ledgerCfg)
	require.NoError(t, err)

	engineCfg.Metrics = collectors
	engineCfg.Emitter = emitter
	engine := coordination.New(engineCfg, registry, led)

	return &rig{registry: registry, ledger: led, engine: engine, idx: idx, emitter: emitter}
}

func fastLedgerConfig() ledger.Config {
	cfg := ledger.DefaultConfig()
	cfg.Difficulty = 0
	cfg.ConsensusDelayMin = time.Millisecond
	cfg.ConsensusDelayMax = 2 * time.Millisecond
	return cfg
}

func scenarioContext(requiredQty, price, budget, storage float64) agents.Context {
	return agents.Context{
		"item_name":         "N95 masks",
		"required_quantity": requiredQty,
		"price_per_unit":    price,
		"budget_remaining":  budget,
		"storage_available": storage,
	}
}

// Scenario A: storage-bounded agreement — two rounds, 800 @ 2.00 = 1600.
func TestScenarioAStorageBoundedAgreement(t *testing.T) {
	r := newRig(t, coordination.DefaultConfig(), fastLedgerConfig())
	r.registry.Register(testutil.NewSourcingAgent("SC"))
	r.registry.Register(testutil.NewBudgetAgent("FIN", "budget_remaining"))
	r.registry.Register(testutil.NewStorageAgent("FAC", "storage_available"))

	result, err := r.engine.Coordinate(context.Background(), coordination.ScenarioSpec{
		Initiator:    "SC",
		Participants: []string{"SC", "FIN", "FAC"},
		Intent:       "restock N95 masks",
		Context:      scenarioContext(1000, 2.00, 2000, 800),
	})
	require.NoError(t, err)

	session := result.Session
	require.Equal(t, coordination.StateCompleted, session.State)
	require.Len(t, session.Rounds, 2)
	require.Equal(t, 800.0, session.FinalProposal.ProposedQuantity)
	require.Equal(t, 1600.0, session.FinalProposal.ProposedCost)

	stats := r.ledger.Stats()
	require.Equal(t, 2, stats.TotalBlocks) // genesis + this commit
	require.Equal(t, 1, stats.TotalTransactions)

	report := r.ledger.Validate()
	require.True(t, report.Valid, "errors: %v", report.Errors)

	require.Equal(t, []string{session.LedgerReceipt.TransactionID}, r.idx.TransactionsByAgent("SC"))
	require.Contains(t, r.idx.SessionsByParticipant("FAC"), session.SessionID)
}

// Scenario B: budget-bounded agreement — 600 @ 2.00 = 1200, at most 2 rounds.
func TestScenarioBBudgetBoundedAgreement(t *testing.T) {
	r := newRig(t, coordination.DefaultConfig(), fastLedgerConfig())
	r.registry.Register(testutil.NewSourcingAgent("SC"))
	r.registry.Register(testutil.NewBudgetAgent("FIN", "budget_remaining"))
	r.registry.Register(testutil.NewStorageAgent("FAC", "storage_available"))

	result, err := r.engine.Coordinate(context.Background(), coordination.ScenarioSpec{
		Initiator:    "SC",
		Participants: []string{"SC", "FIN", "FAC"},
		Context:      scenarioContext(1000, 2.00, 1200, 1000),
	})
	require.NoError(t, err)

	session := result.Session
	require.Equal(t, coordination.StateCompleted, session.State)
	require.LessOrEqual(t, len(session.Rounds), 2)
	require.Equal(t, 600.0, session.FinalProposal.ProposedQuantity)
	require.Equal(t, 1200.0, session.FinalProposal.ProposedCost)
	require.Equal(t, 1, r.ledger.Stats().TotalTransactions)
}

// Scenario C: simultaneous tight constraints — storage tighter than budget.
func TestScenarioCSimultaneousTightConstraints(t *testing.T) {
	r := newRig(t, coordination.DefaultConfig(), fastLedgerConfig())
	r.registry.Register(testutil.NewSourcingAgent("SC"))
	r.registry.Register(testutil.NewBudgetAgent("FIN", "budget_remaining"))
	r.registry.Register(testutil.NewStorageAgent("FAC", "storage_available"))

	result, err := r.engine.Coordinate(context.Background(), coordination.ScenarioSpec{
		Initiator:    "SC",
		Participants: []string{"SC", "FIN", "FAC"},
		Context:      scenarioContext(2000, 2.00, 1500, 700),
	})
	require.NoError(t, err)

	session := result.Session
	require.Equal(t, coordination.StateCompleted, session.State)
	require.Equal(t, 700.0, session.FinalProposal.ProposedQuantity)
	require.Equal(t, 1400.0, session.FinalProposal.ProposedCost)
}

// Scenario D: FAC rejects every proposal -> NO_AGREEMENT, no ledger block.
func TestScenarioDNoAgreement(t *testing.T) {
	r := newRig(t, coordination.DefaultConfig(), fastLedgerConfig())
	r.registry.Register(testutil.NewSourcingAgent("SC"))
	r.registry.Register(testutil.NewBudgetAgent("FIN", "budget_remaining"))
	r.registry.Register(testutil.NewStorageAgent("FAC", "storage_available").WithAlwaysCritique())

	statsBefore := r.ledger.Stats()

	result, err := r.engine.Coordinate(context.Background(), coordination.ScenarioSpec{
		Initiator:    "SC",
		Participants: []string{"SC", "FIN", "FAC"},
		Context:      scenarioContext(1000, 2.00, 2000, 800),
	})
	require.NoError(t, err)

	session := result.Session
	require.Equal(t, coordination.StateFailed, session.State)
	require.Contains(t, session.FailureReason, "NO_AGREEMENT")
	require.LessOrEqual(t, len(session.Rounds), coordination.DefaultConfig().MaxRounds)

	statsAfter := r.ledger.Stats()
	require.Equal(t, statsBefore.TotalBlocks, statsAfter.TotalBlocks)
	require.Equal(t, 0, statsAfter.TotalTransactions)
}

// Scenario E: unanimous acceptance, but the amount exceeds the autonomous
// cap at validation -> FAILED with BUDGET_OVER_LIMIT, no ledger block.
func TestScenarioEPolicyViolationAtValidation(t *testing.T) {
	r := newRig(t, coordination.DefaultConfig(), fastLedgerConfig())
	r.registry.Register(testutil.NewSourcingAgent("SC"))
	r.registry.Register(testutil.NewBudgetAgent("FIN", "budget_remaining"))
	r.registry.Register(testutil.NewStorageAgent("FAC", "storage_available"))

	statsBefore := r.ledger.Stats()

	result, err := r.engine.Coordinate(context.Background(), coordination.ScenarioSpec{
		Initiator:    "SC",
		Participants: []string{"SC", "FIN", "FAC"},
		Context:      scenarioContext(50000, 1.50, 100000, 60000),
	})
	require.NoError(t, err)

	session := result.Session
	require.Equal(t, coordination.StateFailed, session.State)
	require.Contains(t, session.FailureReason, "BUDGET_OVER_LIMIT")

	statsAfter := r.ledger.Stats()
	require.Equal(t, statsBefore.TotalBlocks, statsAfter.TotalBlocks)
	require.Empty(t, r.idx.TransactionsByAgent("SC"))
}

// Scenario F: a participant blocks past the session deadline -> TIMEOUT,
// no ledger block, some subset of messages present.
func TestScenarioFDeadlineExceeded(t *testing.T) {
	cfg := coordination.DefaultConfig()
	cfg.Timeout = 20 * time.Millisecond
	r := newRig(t, cfg, fastLedgerConfig())
	r.registry.Register(testutil.NewSourcingAgent("SC"))
	r.registry.Register(testutil.NewBudgetAgent("FIN", "budget_remaining").WithProposeDelay(80 * time.Millisecond))
	r.registry.Register(testutil.NewStorageAgent("FAC", "storage_available"))

	result, err := r.engine.Coordinate(context.Background(), coordination.ScenarioSpec{
		Initiator:    "SC",
		Participants: []string{"SC", "FIN", "FAC"},
		Context:      scenarioContext(1000, 2.00, 2000, 800),
	})
	require.NoError(t, err)

	session := result.Session
	require.Equal(t, coordination.StateTimeout, session.State)
	require.NotEmpty(t, session.Messages)
	require.Nil(t, session.LedgerReceipt)
	require.Equal(t, 0, r.ledger.Stats().TotalTransactions)
}

// Scenario G: tamper with a committed block's transaction details directly,
// bypassing the ledger API, then confirm Validate() catches it.
func TestScenarioGLedgerTamperDetection(t *testing.T) {
	r := newRig(t, coordination.DefaultConfig(), fastLedgerConfig())
	r.registry.Register(testutil.NewSourcingAgent("SC"))
	r.registry.Register(testutil.NewBudgetAgent("FIN", "budget_remaining"))
	r.registry.Register(testutil.NewStorageAgent("FAC", "storage_available"))

	result, err := r.engine.Coordinate(context.Background(), coordination.ScenarioSpec{
		Initiator:    "SC",
		Participants: []string{"SC", "FIN", "FAC"},
		Context:      scenarioContext(1000, 2.00, 2000, 800),
	})
	require.NoError(t, err)
	require.Equal(t, coordination.StateCompleted, result.Session.State)
	require.True(t, r.ledger.Validate().Valid)

	block, err := r.ledger.GetBlock(1)
	require.NoError(t, err)
	require.NotEmpty(t, block.Payload.Transactions)
	block.Payload.Transactions[0].Details["amount"] = 999999.0

	report := r.ledger.Validate()
	require.False(t, report.Valid)
	require.NotEmpty(t, report.Errors)
}
