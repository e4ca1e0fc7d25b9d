// Command demo wires up a single-process coordination node: a registry of
// stub agents, a ledger, a coordination engine, and an in-process API
// handler, then runs one scenario end to end and prints the result.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"go.uber.org/zap"

	"github.com/deosha/hospital-coordicore/agents"
	"github.com/deosha/hospital-coordicore/api"
	"github.com/deosha/hospital-coordicore/config"
	"github.com/deosha/hospital-coordicore/coordination"
	"github.com/deosha/hospital-coordicore/events"
	"github.com/deosha/hospital-coordicore/index"
	"github.com/deosha/hospital-coordicore/internal/testutil"
	"github.com/deosha/hospital-coordicore/ledger"
	"github.com/deosha/hospital-coordicore/ledger/policy"
	"github.com/deosha/hospital-coordicore/metrics"
)

func main() {
	cfgPath := flag.String("config", "", "path to YAML config file (optional, defaults used otherwise)")
	flag.Parse()

	cfg := config.DefaultConfig()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		cfg = loaded
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	collectors, err := metrics.New(nil)
	if err != nil {
		log.Fatalf("metrics: %v", err)
	}

	emitter := events.NewEmitter(logger)
	idx := index.New()
	index.Subscribe(idx, emitter)

	registry := agents.NewRegistry()
	registry.Register(testutil.NewSourcingAgent("SC"))
	registry.Register(testutil.NewBudgetAgent("FIN", "budget_remaining"))
	registry.Register(testutil.NewStorageAgent("FAC", "storage_remaining"))

	led, err := ledger.NewLedger(ledger.Config{
		BatchSize:         cfg.Ledger.BatchSize,
		Difficulty:        cfg.Ledger.Difficulty,
		ConsensusDelayMin: cfg.Ledger.ConsensusDelayMin,
		ConsensusDelayMax: cfg.Ledger.ConsensusDelayMax,
		Validator:         policy.NewValidator(policy.Config(cfg.Policy)),
		Logger:            logger,
		Metrics:           collectors,
		Emitter:           emitter,
	})
	if err != nil {
		log.Fatalf("ledger: %v", err)
	}

	engine := coordination.New(coordination.Config{
		Timeout:   cfg.Engine.Timeout,
		MaxRounds: cfg.Engine.MaxRounds,
		Logger:    logger,
		Metrics:   collectors,
		Emitter:   emitter,
	}, registry, led)

	handler := api.NewHandler(engine, led)

	result, err := engine.Coordinate(context.Background(), coordination.ScenarioSpec{
		Initiator:    "SC",
		Participants: []string{"SC", "FIN", "FAC"},
		Intent:       "restock surgical gloves",
		Context: agents.Context{
			"item_name":         "surgical gloves",
			"required_quantity": 1000.0,
			"price_per_unit":    2.0,
			"budget_remaining":  2000.0,
			"storage_remaining": 800.0,
		},
	})
	if err != nil {
		log.Fatalf("coordinate: %v", err)
	}

	fmt.Printf("session %s finished in state %s after %d round(s)\n",
		result.Session.SessionID, result.Session.State, len(result.Session.Rounds))

	stats := led.Stats()
	fmt.Printf("ledger: %d block(s), %d transaction(s), %d pending, chain valid: %v\n",
		stats.TotalBlocks, stats.TotalTransactions, stats.Pending, stats.ChainValid)

	fmt.Printf("transactions recorded for SC: %v\n", idx.TransactionsByAgent("SC"))
	fmt.Printf("sessions involving FIN: %v\n", idx.SessionsByParticipant("FIN"))

	resp := handler.Dispatch(context.Background(), api.Request{
		ID:     1,
		Method: "getStats",
		Params: nil,
	})
	if resp.Error != nil {
		log.Fatalf("dispatch: %s", resp.Error.Message)
	}
	fmt.Printf("getStats response: %+v\n", resp.Result)
}
