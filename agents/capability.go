package agents

import "context"

// ReasoningAgent is the capability the coordination engine depends on. A
// deterministic stub satisfying this interface is a sufficient test double —
// the engine never reasons about what's behind it.
type ReasoningAgent interface {
	Id() string
	Role() string

	// ProposeConstraint declares this agent's limits relevant to scenario. May
	// fail with ErrUnavailable.
	ProposeConstraint(ctx context.Context, scenario Context) (ConstraintRecord, error)

	// GenerateProposal is only ever called on the designated initiator.
	GenerateProposal(ctx context.Context, scenario Context, constraintsByAgent map[string]ConstraintRecord) (Proposal, error)

	// Critique evaluates a proposal against the scenario context.
	Critique(ctx context.Context, proposal Proposal, scenario Context) (CritiqueDecision, error)
}

// ErrUnavailable is returned by a ReasoningAgent method when the agent
// cannot respond to this call.
var ErrUnavailable = errUnavailable{}

type errUnavailable struct{}

func (errUnavailable) Error() string { return "UNAVAILABLE: agent did not respond" }
