package testutil

import (
	"context"
	"math"
	"time"

	"github.com/deosha/hospital-coordicore/agents"
)

// StubAgent is a deterministic agents.ReasoningAgent double: every method
// is a pure function of its arguments (plus an optional fixed delay), never
// of hidden mutable state, so coordination outcomes stay reproducible across
// runs.
type StubAgent struct {
	id   string
	role string

	proposeDelay time.Duration
	unavailable  bool

	limitKey       string // e.g. "max_amount" or "max_quantity"
	limitFromField string // scenario context key the limit is drawn from

	alwaysCritique bool
}

// NewBudgetAgent returns a stub playing a finance-style role: it declares a
// max_amount constraint read from limitField (e.g. "budget_remaining") and
// critiques any proposal whose ProposedCost exceeds it.
func NewBudgetAgent(id, limitField string) *StubAgent {
	return &StubAgent{id: id, role: "FINANCE", limitKey: "max_amount", limitFromField: limitField}
}

// NewStorageAgent returns a stub playing a facilities-style role: it
// declares a max_quantity constraint and critiques any proposal whose
// ProposedQuantity exceeds it.
func NewStorageAgent(id, limitField string) *StubAgent {
	return &StubAgent{id: id, role: "FACILITIES", limitKey: "max_quantity", limitFromField: limitField}
}

// WithAlwaysCritique makes the agent reject every proposal regardless of
// quantity or cost, for driving NO_AGREEMENT scenarios.
func (s *StubAgent) WithAlwaysCritique() *StubAgent {
	c := *s
	c.alwaysCritique = true
	return &c
}

// WithProposeDelay makes ProposeConstraint sleep for d before responding,
// for driving deadline-exceeded scenarios.
func (s *StubAgent) WithProposeDelay(d time.Duration) *StubAgent {
	c := *s
	c.proposeDelay = d
	return &c
}

// WithUnavailable makes every call return agents.ErrUnavailable.
func (s *StubAgent) WithUnavailable() *StubAgent {
	c := *s
	c.unavailable = true
	return &c
}

func (s *StubAgent) Id() string   { return s.id }
func (s *StubAgent) Role() string { return s.role }

func (s *StubAgent) ProposeConstraint(ctx context.Context, scenario agents.Context) (agents.ConstraintRecord, error) {
	if s.proposeDelay > 0 {
		// Deliberately ignores ctx: this simulates a non-cooperative,
		// uncancellable blocking call rather than a well-behaved remote
		// call that honors cancellation.
		time.Sleep(s.proposeDelay)
	}
	if s.unavailable {
		return agents.ConstraintRecord{}, agents.ErrUnavailable
	}
	limit, _ := numberAt(scenario, s.limitFromField)
	return agents.ConstraintRecord{
		AgentID: s.id,
		Limits:  map[string]any{s.limitKey: limit},
	}, nil
}

// GenerateProposal is only ever called on the designated initiator; a
// constraint-only StubAgent (FINANCE/FACILITIES role) never receives this
// call in a well-formed scenario, but returning ErrUnavailable keeps it a
// total function rather than panicking if misused.
func (s *StubAgent) GenerateProposal(ctx context.Context, scenario agents.Context, constraints map[string]agents.ConstraintRecord) (agents.Proposal, error) {
	return agents.Proposal{}, agents.ErrUnavailable
}

func (s *StubAgent) Critique(ctx context.Context, proposal agents.Proposal, scenario agents.Context) (agents.CritiqueDecision, error) {
	if s.unavailable {
		return agents.CritiqueDecision{}, agents.ErrUnavailable
	}
	if s.alwaysCritique {
		return agents.CritiqueDecision{
			AgentID:    s.id,
			Verdict:    agents.VerdictCritique,
			Reasoning:  "rejecting proposal",
			Confidence: 0.9,
		}, nil
	}

	limit, _ := numberAt(scenario, s.limitFromField)
	switch s.limitKey {
	case "max_amount":
		if proposal.ProposedCost <= limit {
			return agents.CritiqueDecision{AgentID: s.id, Verdict: agents.VerdictAccept, Reasoning: "within budget", Confidence: 0.9}, nil
		}
		return agents.CritiqueDecision{
			AgentID:              s.id,
			Verdict:              agents.VerdictCritique,
			Reasoning:            "amount exceeds available budget",
			Confidence:           0.9,
			SuggestedAdjustments: map[string]any{"max_amount": limit},
		}, nil
	case "max_quantity":
		if proposal.ProposedQuantity <= limit {
			return agents.CritiqueDecision{AgentID: s.id, Verdict: agents.VerdictAccept, Reasoning: "within storage", Confidence: 0.9}, nil
		}
		return agents.CritiqueDecision{
			AgentID:              s.id,
			Verdict:              agents.VerdictCritique,
			Reasoning:            "quantity exceeds available storage",
			Confidence:           0.9,
			SuggestedAdjustments: map[string]any{"max_quantity": limit},
		}, nil
	default:
		return agents.CritiqueDecision{AgentID: s.id, Verdict: agents.VerdictAccept, Reasoning: "no constraint configured", Confidence: 0.9}, nil
	}
}

// SourcingAgent is the deterministic stub playing the initiator ("SC") role.
// Its first proposal caps required_quantity by what budget_remaining allows
// at price_per_unit, ignoring storage — the storage constraint is only
// learned once a FACILITIES-role participant critiques it. Subsequent
// proposals fold in every suggested_adjustments seen in the aggregated
// critique feedback the engine attaches to scenario (agents.FeedbackKey).
type SourcingAgent struct {
	id string
}

// NewSourcingAgent returns a stub playing the initiator role.
func NewSourcingAgent(id string) *SourcingAgent {
	return &SourcingAgent{id: id}
}

func (s *SourcingAgent) Id() string   { return s.id }
func (s *SourcingAgent) Role() string { return "SOURCING" }

func (s *SourcingAgent) ProposeConstraint(ctx context.Context, scenario agents.Context) (agents.ConstraintRecord, error) {
	budget, _ := numberAt(scenario, "budget_remaining")
	return agents.ConstraintRecord{AgentID: s.id, Limits: map[string]any{"max_amount": budget}}, nil
}

func (s *SourcingAgent) GenerateProposal(ctx context.Context, scenario agents.Context, constraints map[string]agents.ConstraintRecord) (agents.Proposal, error) {
	requiredQty, _ := numberAt(scenario, "required_quantity")
	price, _ := numberAt(scenario, "price_per_unit")
	budget, _ := numberAt(scenario, "budget_remaining")

	qty := requiredQty
	if price > 0 {
		if byBudget := math.Floor(budget / price); byBudget < qty {
			qty = byBudget
		}
	}

	if feedback, ok := scenario[agents.FeedbackKey].([]agents.CritiqueDecision); ok {
		for _, c := range feedback {
			if c.Verdict != agents.VerdictCritique {
				continue
			}
			if v, ok := numberAt(c.SuggestedAdjustments, "max_quantity"); ok && v < qty {
				qty = v
			}
			if v, ok := numberAt(c.SuggestedAdjustments, "max_amount"); ok && price > 0 {
				if byAmount := math.Floor(v / price); byAmount < qty {
					qty = byAmount
				}
			}
		}
	}

	item, _ := scenario["item_name"].(string)
	if item == "" {
		item = "item"
	}

	return agents.Proposal{
		ItemName:             item,
		ProposedQuantity:     qty,
		ProposedCost:         qty * price,
		Reasoning:            "quantity capped by available budget and any prior critique feedback",
		Confidence:           0.9,
		ConstraintsSatisfied: true,
	}, nil
}

func (s *SourcingAgent) Critique(ctx context.Context, proposal agents.Proposal, scenario agents.Context) (agents.CritiqueDecision, error) {
	return agents.CritiqueDecision{AgentID: s.id, Verdict: agents.VerdictAccept, Reasoning: "initiator does not critique its own proposal", Confidence: 1}, nil
}

func numberAt(m map[string]any, key string) (float64, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
