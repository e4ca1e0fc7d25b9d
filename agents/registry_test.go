package agents_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deosha/hospital-coordicore/agents"
)

type fakeAgent struct{ id string }

func (f fakeAgent) Id() string   { return f.id }
func (f fakeAgent) Role() string { return "FAKE" }
func (f fakeAgent) ProposeConstraint(context.Context, agents.Context) (agents.ConstraintRecord, error) {
	return agents.ConstraintRecord{AgentID: f.id}, nil
}
func (f fakeAgent) GenerateProposal(context.Context, agents.Context, map[string]agents.ConstraintRecord) (agents.Proposal, error) {
	return agents.Proposal{}, nil
}
func (f fakeAgent) Critique(context.Context, agents.Proposal, agents.Context) (agents.CritiqueDecision, error) {
	return agents.CritiqueDecision{AgentID: f.id, Verdict: agents.VerdictAccept}, nil
}

func TestRegistryGetUnknownAgent(t *testing.T) {
	r := agents.NewRegistry()
	_, err := r.Get("missing")
	require.Error(t, err)
	require.ErrorAs(t, err, &agents.ErrUnknownAgent{})
}

func TestRegistryRegisterIsIdempotentByID(t *testing.T) {
	r := agents.NewRegistry()
	r.Register(fakeAgent{id: "SC"})
	r.Register(fakeAgent{id: "FIN"})
	r.Register(fakeAgent{id: "SC"}) // replace, not duplicate

	require.Len(t, r.List(), 2)
	got, err := r.Get("SC")
	require.NoError(t, err)
	require.Equal(t, "SC", got.Id())
}

func TestRegistryListPreservesRegistrationOrder(t *testing.T) {
	r := agents.NewRegistry()
	r.Register(fakeAgent{id: "SC"})
	r.Register(fakeAgent{id: "FIN"})
	r.Register(fakeAgent{id: "FAC"})

	ids := make([]string, 0, 3)
	for _, a := range r.List() {
		ids = append(ids, a.Id())
	}
	require.Equal(t, []string{"SC", "FIN", "FAC"}, ids)
}
