// Package agents defines the capability contract the coordination engine
// depends on (C5), and the registry that looks agents up by id. The engine
// never reasons about an agent's internals — only this contract.
package agents

// Context carries the scenario facts an agent reasons over: item, required
// quantity, unit price, budget remaining, storage available, urgency, and
// any other numeric or categorical facts the scenario supplies.
type Context map[string]any

// FeedbackKey is the well-known Context key the engine sets, during a
// negotiation refinement, to the aggregated []CritiqueDecision from the
// round just evaluated. Agents that don't look for it simply ignore it.
const FeedbackKey = "critique_feedback"

// ConstraintRecord is what a non-initiator participant declares about its
// own limits relevant to the scenario (e.g. a budget cap, a storage cap).
type ConstraintRecord struct {
	AgentID string         `json:"agent_id"`
	Limits  map[string]any `json:"limits"`
}

// Proposal is produced by the initiator in GenerateProposal and re-proposed
// across negotiation rounds.
type Proposal struct {
	ItemName             string  `json:"item_name"`
	ProposedQuantity     float64 `json:"proposed_quantity"`
	ProposedCost         float64 `json:"proposed_cost"`
	Reasoning            string  `json:"reasoning"`
	Confidence           float64 `json:"confidence"`
	ConstraintsSatisfied bool    `json:"constraints_satisfied"`
}

// Verdict is a participant's judgment on a proposal.
type Verdict string

const (
	VerdictAccept   Verdict = "ACCEPT"
	VerdictCritique Verdict = "CRITIQUE"
)

// CritiqueDecision is the outcome of a participant evaluating a proposal.
type CritiqueDecision struct {
	AgentID              string         `json:"agent_id"`
	Verdict              Verdict        `json:"verdict"`
	Reasoning            string         `json:"reasoning"`
	Confidence           float64        `json:"confidence"`
	SuggestedAdjustments map[string]any `json:"suggested_adjustments,omitempty"`
}
