package coordination_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/deosha/hospital-coordicore/agents"
	"github.com/deosha/hospital-coordicore/agents/agentsmock"
	"github.com/deosha/hospital-coordicore/coordination"
	"github.com/deosha/hospital-coordicore/internal/testutil"
)

// A permanently unavailable participant is tolerated at every step:
// ProposeConstraint failure is treated as an absent constraint, Critique
// failure is treated as a rejection, rather than failing the session
// outright. Unlike testutil.StubAgent.WithUnavailable, the mock lets this
// test assert exactly how many times the engine called each method,
// which a hand-written stub can't express.
func TestCoordinateToleratesPermanentlyUnavailableParticipant(t *testing.T) {
	ctrl := gomock.NewController(t)

	reg, led := newTestRig(t)
	reg.Register(testutil.NewSourcingAgent("SC"))
	reg.Register(testutil.NewStorageAgent("FAC", "storage_available"))

	finMock := agentsmock.NewMockReasoningAgent(ctrl)
	finMock.EXPECT().Id().Return("FIN").AnyTimes()
	finMock.EXPECT().
		ProposeConstraint(gomock.Any(), gomock.Any()).
		Times(1).
		Return(agents.ConstraintRecord{}, agents.ErrUnavailable)
	finMock.EXPECT().
		Critique(gomock.Any(), gomock.Any(), gomock.Any()).
		Times(2).
		Return(agents.CritiqueDecision{}, agents.ErrUnavailable)
	reg.Register(finMock)

	cfg := coordination.DefaultConfig()
	cfg.MaxRounds = 2
	engine := coordination.New(cfg, reg, led)

	result, err := engine.Coordinate(context.Background(), coordination.ScenarioSpec{
		Initiator:    "SC",
		Participants: []string{"SC", "FIN", "FAC"},
		Context:      scenarioContext(1000, 2.00, 2000, 800),
	})
	require.NoError(t, err)

	session := result.Session
	require.Equal(t, coordination.StateFailed, session.State)
	require.Contains(t, session.FailureReason, "NO_AGREEMENT")
	require.Len(t, session.Rounds, 2)
}
